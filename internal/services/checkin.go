package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Ananth-NQI/guestotp-backend/internal/config"
	"github.com/Ananth-NQI/guestotp-backend/internal/metrics"
	"github.com/Ananth-NQI/guestotp-backend/internal/models"
	"github.com/Ananth-NQI/guestotp-backend/internal/shared"
	"github.com/Ananth-NQI/guestotp-backend/internal/storage"
	"github.com/Ananth-NQI/guestotp-backend/internal/utils"
)

// CheckinService runs the check-in flow: extract rooms, issue a PIN per
// room, record every issued PIN in one commit, then notify the guest.
type CheckinService struct {
	extractor       *ReservationExtractor
	otps            *OTPService
	store           storage.Store
	notifier        *Notifier
	loc             *time.Location
	otpStatus       string
	defaultPageSize int
}

// NewCheckinService wires the check-in flow
func NewCheckinService(extractor *ReservationExtractor, otps *OTPService, store storage.Store, notifier *Notifier, property config.PropertyConfig, defaultPageSize int) *CheckinService {
	return &CheckinService{
		extractor:       extractor,
		otps:            otps,
		store:           store,
		notifier:        notifier,
		loc:             property.Location(),
		otpStatus:       property.OTPStatus,
		defaultPageSize: defaultPageSize,
	}
}

type issuedRoom struct {
	outcome *models.RoomOutcome
	record  *models.OtpRecord
	grant   models.OTPGrant
}

// ProcessWebhook handles one reservation webhook. On a persistence failure
// the result is returned alongside the error so callers can report which
// PINs were issued but not recorded.
func (s *CheckinService) ProcessWebhook(ctx context.Context, webhook models.ReservationWebhook) (*models.CheckinResult, error) {
	if webhook.Operation != models.OperationCheckin {
		return nil, shared.NewError(shared.KindValidationFailure, "process_webhook",
			fmt.Sprintf("unsupported operation %q", webhook.Operation), nil)
	}

	done := metrics.StartCheckin()
	defer done()

	records, err := s.extractor.Extract(webhook.HotelCode, webhook.Data)
	if err != nil {
		return nil, err
	}

	result := &models.CheckinResult{
		BatchID: uuid.NewString(),
		Rooms:   make([]*models.RoomOutcome, 0, len(records)),
	}
	logger := logrus.WithFields(logrus.Fields{
		"batch_id":   result.BatchID,
		"hotel_code": webhook.HotelCode,
		"rooms":      len(records),
	})
	logger.Info("🏨 Processing check-in webhook")

	defer func() {
		for _, out := range result.Rooms {
			metrics.Room(out.State)
		}
	}()

	issued := make([]issuedRoom, 0, len(records))
	for i := range records {
		rec := records[i]
		out := &models.RoomOutcome{RoomNo: rec.RoomNo, State: models.RoomExtracted}
		result.Rooms = append(result.Rooms, out)

		if rec.RoomNo == "" {
			out.State = models.RoomSkipped
			logger.WithField("reservation_number", rec.ReservationNumber).Warn("Skipping booking line without a room")
			continue
		}

		out.State = models.RoomOTPRequested
		grant, err := s.otps.IssueForRoom(ctx, rec.RoomNo, rec.CheckInEpoch, rec.CheckOutEpoch)
		if err != nil {
			out.State = models.RoomOTPFailed
			out.ErrorKind = string(shared.KindOf(err))
			out.Error = err.Error()
			shared.LogError(err, logrus.Fields{"batch_id": result.BatchID, "room": rec.RoomNo})
			continue
		}

		out.State = models.RoomOTPIssued
		issued = append(issued, issuedRoom{
			outcome: out,
			record:  s.newRecord(rec, grant),
			grant:   grant,
		})
	}

	if len(issued) == 0 {
		logger.Info("No PINs issued for this webhook")
		return result, nil
	}

	rows := make([]*models.OtpRecord, len(issued))
	for i, r := range issued {
		rows[i] = r.record
	}
	if err := s.store.CreateOtpRecords(ctx, rows); err != nil {
		for _, r := range issued {
			r.outcome.ErrorKind = string(shared.KindPersistenceFailure)
			r.outcome.Error = "otp issued but not recorded"
		}
		if !shared.IsKind(err, shared.KindPersistenceFailure) {
			err = shared.NewError(shared.KindPersistenceFailure, "process_webhook", "failed to save otp records", err)
		}
		shared.LogError(err, logrus.Fields{"batch_id": result.BatchID, "issued": len(issued)})
		return result, err
	}
	result.Saved = len(rows)

	// the guest must hear about a recorded PIN even if the caller hangs up
	notifyCtx := context.WithoutCancel(ctx)
	for _, r := range issued {
		r.outcome.State = models.RoomPersisted
		r.outcome.Persisted = true

		msg := BuildCheckinMessage(r.record, r.grant, s.loc)
		r.outcome.Notifications = s.notifier.Notify(notifyCtx, msg)
		r.outcome.State = models.RoomNotified
	}

	logger.WithField("saved", result.Saved).Info("✅ Check-in webhook processed")
	return result, nil
}

func (s *CheckinService) newRecord(rec models.ReservationRecord, grant models.OTPGrant) *models.OtpRecord {
	return &models.OtpRecord{
		HotelCode:         rec.HotelCode,
		GuestName:         rec.GuestName,
		GuestMobileNumber: rec.GuestMobileNumber,
		GuestEmail:        rec.GuestEmail,
		CheckInDateTime:   utils.LocalDateTime(rec.CheckInEpoch, s.loc),
		CheckOutDateTime:  utils.LocalDateTime(rec.CheckOutEpoch, s.loc),
		GeneratedOTP:      grant.OTP,
		OTPStartDateTime:  utils.LocalDateTime(grant.ValidStartTime, s.loc),
		OTPEndDateTime:    utils.LocalDateTime(grant.ValidEndTime, s.loc),
		RoomNo:            rec.RoomNo,
		RoomName:          rec.RoomName,
		ReservationNumber: rec.ReservationNumber,
		OTPStatus:         s.otpStatus,
	}
}

// List returns one page of recorded PINs
func (s *CheckinService) List(ctx context.Context, filter models.OtpRecordFilter) (*models.OtpRecordPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Page > config.MaxPage {
		return nil, shared.NewError(shared.KindValidationFailure, "list_otp_records",
			fmt.Sprintf("page must not exceed %d", config.MaxPage), nil)
	}
	if filter.PageSize < 1 {
		filter.PageSize = s.defaultPageSize
	}
	if filter.PageSize > config.MaxPageSize {
		filter.PageSize = config.MaxPageSize
	}

	rows, total, err := s.store.ListOtpRecords(ctx, filter)
	if err != nil {
		if !shared.IsKind(err, shared.KindPersistenceFailure) {
			err = shared.NewError(shared.KindPersistenceFailure, "list_otp_records", "failed to query otp records", err)
		}
		return nil, err
	}

	return &models.OtpRecordPage{
		Records:      rows,
		Page:         filter.Page,
		PageSize:     filter.PageSize,
		TotalRecords: total,
		TotalPages:   models.TotalPagesFor(total, filter.PageSize),
	}, nil
}

// Location is the property time zone used for stored timestamps
func (s *CheckinService) Location() *time.Location {
	return s.loc
}
