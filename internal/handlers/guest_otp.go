package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/Ananth-NQI/guestotp-backend/internal/config"
	"github.com/Ananth-NQI/guestotp-backend/internal/metrics"
	"github.com/Ananth-NQI/guestotp-backend/internal/models"
	"github.com/Ananth-NQI/guestotp-backend/internal/services"
	"github.com/Ananth-NQI/guestotp-backend/internal/shared"
	"github.com/Ananth-NQI/guestotp-backend/internal/utils"
)

// GuestOTPHandler serves the check-in webhook and the OTP record query
type GuestOTPHandler struct {
	checkin *services.CheckinService
}

// NewGuestOTPHandler creates a new guest OTP handler
func NewGuestOTPHandler(checkin *services.CheckinService) *GuestOTPHandler {
	return &GuestOTPHandler{checkin: checkin}
}

// ListRecords returns one page of OTP records
func (h *GuestOTPHandler) ListRecords(c *fiber.Ctx) error {
	filter, err := h.parseFilter(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	page, err := h.checkin.List(c.UserContext(), filter)
	if shared.IsKind(err, shared.KindValidationFailure) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validationMessage(err),
		})
	}
	if err != nil {
		shared.LogError(err, logrus.Fields{"handler": "ListRecords"})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch OTP records",
		})
	}

	return c.JSON(page)
}

func (h *GuestOTPHandler) parseFilter(c *fiber.Ctx) (models.OtpRecordFilter, error) {
	filter := models.OtpRecordFilter{
		HotelCode:         strings.TrimSpace(c.Query("hotel_code")),
		ReservationNumber: strings.TrimSpace(c.Query("reservation_number")),
	}

	if mobile := c.Query("guest_mobile_number"); mobile != "" {
		filter.GuestMobileNumber = utils.NormalizeMobile(mobile)
	}

	page, err := positiveQueryInt(c, "page", 1)
	if err != nil {
		return filter, err
	}
	if page > config.MaxPage {
		return filter, fmt.Errorf("page must not exceed %d", config.MaxPage)
	}
	filter.Page = page

	pageSize, err := positiveQueryInt(c, "page_size", 0)
	if err != nil {
		return filter, err
	}
	if pageSize > config.MaxPageSize {
		pageSize = config.MaxPageSize
	}
	filter.PageSize = pageSize

	day := c.Query("check_in_date", c.Query("created"))
	if strings.EqualFold(c.Query("current_day"), "true") {
		day = utils.Today(h.checkin.Location())
	}
	if day != "" {
		if !utils.ValidDate(day) {
			return filter, errors.New("check_in_date must be YYYY-MM-DD")
		}
		filter.CheckInFrom, filter.CheckInTo = day, day
	}

	start, end := c.Query("start_date"), c.Query("end_date")
	if start != "" || end != "" {
		if start == "" || end == "" {
			return filter, errors.New("start_date and end_date must be given together")
		}
		if !utils.ValidDate(start) || !utils.ValidDate(end) {
			return filter, errors.New("start_date and end_date must be YYYY-MM-DD")
		}
		if end < start {
			return filter, errors.New("end_date is before start_date")
		}
		if day == "" {
			filter.CheckInFrom, filter.CheckInTo = start, end
		}
	}

	return filter, nil
}

// positiveQueryInt parses an optional query integer that must be >= 1
func positiveQueryInt(c *fiber.Ctx, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.New(key + " must be a positive integer")
	}
	return n, nil
}

// CreateRecords handles the PMS check-in webhook
func (h *GuestOTPHandler) CreateRecords(c *fiber.Ctx) error {
	status, body := h.createRecords(c)
	metrics.Webhook(status)
	return c.Status(status).JSON(body)
}

func (h *GuestOTPHandler) createRecords(c *fiber.Ctx) (int, fiber.Map) {
	var webhook models.ReservationWebhook
	if err := json.Unmarshal(c.Body(), &webhook); err != nil {
		return fiber.StatusBadRequest, fiber.Map{"error": "Invalid request body"}
	}

	if webhook.Operation != models.OperationCheckin {
		return fiber.StatusBadRequest, fiber.Map{"error": "Unsupported operation."}
	}

	result, err := h.checkin.ProcessWebhook(c.UserContext(), webhook)
	if err != nil {
		switch shared.KindOf(err) {
		case shared.KindValidationFailure:
			return fiber.StatusBadRequest, fiber.Map{"error": validationMessage(err)}
		default:
			resp := fiber.Map{"error": "Failed to record issued OTPs"}
			if result != nil {
				resp["batch_id"] = result.BatchID
				resp["rooms"] = result.Rooms
			}
			return fiber.StatusInternalServerError, resp
		}
	}

	return fiber.StatusOK, fiber.Map{
		"message":  "OTP record added successfully.",
		"batch_id": result.BatchID,
		"saved":    result.Saved,
		"rooms":    result.Rooms,
	}
}

// MethodNotAllowed answers every other verb on the resource
func (h *GuestOTPHandler) MethodNotAllowed(c *fiber.Ctx) error {
	return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{
		"error": "Unsupported HTTP method.",
	})
}

func validationMessage(err error) string {
	var se *shared.ServiceError
	if errors.As(err, &se) {
		return se.Message
	}
	return "Invalid request"
}
