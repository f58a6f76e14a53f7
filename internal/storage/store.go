package storage

import (
	"context"

	"github.com/Ananth-NQI/guestotp-backend/internal/models"
)

// Store defines the interface for OTP record persistence
type Store interface {
	// CreateOtpRecords writes the whole batch in one commit or nothing at all
	CreateOtpRecords(ctx context.Context, records []*models.OtpRecord) error

	// ListOtpRecords returns one page ordered by check-in time and the total
	// number of rows matching the filter
	ListOtpRecords(ctx context.Context, filter models.OtpRecordFilter) ([]*models.OtpRecord, int64, error)

	Ping(ctx context.Context) error
	Kind() string
}

// inclusive local-date bounds expressed on the stored naive timestamp
func checkInBounds(filter models.OtpRecordFilter) (from, to string) {
	if filter.CheckInFrom != "" {
		from = filter.CheckInFrom + "T00:00:00"
	}
	if filter.CheckInTo != "" {
		to = filter.CheckInTo + "T23:59:59"
	}
	return from, to
}
