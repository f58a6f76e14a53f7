package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/guestotp-backend/internal/models"
	"github.com/Ananth-NQI/guestotp-backend/internal/services"
	"github.com/Ananth-NQI/guestotp-backend/internal/shared"
	"github.com/Ananth-NQI/guestotp-backend/internal/utils"
)

// DebugHandler exposes operator tools for issuing a PIN or resending a
// notification by hand
type DebugHandler struct {
	otps     *services.OTPService
	notifier *services.Notifier
}

// NewDebugHandler creates a new debug handler
func NewDebugHandler(otps *services.OTPService, notifier *services.Notifier) *DebugHandler {
	return &DebugHandler{otps: otps, notifier: notifier}
}

// IssueOTP requests a PIN for one room
func (h *DebugHandler) IssueOTP(c *fiber.Ctx) error {
	var req models.ManualOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	grant, err := h.otps.IssueForRoom(c.UserContext(), req.RoomNo, req.StartTime, req.EndTime)
	if err != nil {
		return c.Status(shared.HTTPStatus(err)).JSON(fiber.Map{
			"error":      err.Error(),
			"error_kind": shared.KindOf(err),
		})
	}

	return c.JSON(fiber.Map{
		"room_no":        req.RoomNo,
		"otp":            grant.OTP,
		"validStartTime": grant.ValidStartTime,
		"validEndTime":   grant.ValidEndTime,
	})
}

// SendNotifications sends WhatsApp and SMS for the given body values
func (h *DebugHandler) SendNotifications(c *fiber.Ctx) error {
	var msg models.CheckinMessage
	if err := c.BodyParser(&msg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	msg.PhoneNumber = utils.NormalizeMobile(msg.PhoneNumber)

	results := h.notifier.Notify(c.UserContext(), msg)

	status := fiber.StatusOK
	for _, r := range results {
		if !r.Success {
			status = fiber.StatusBadGateway
		}
	}
	return c.Status(status).JSON(fiber.Map{
		"results": results,
	})
}
