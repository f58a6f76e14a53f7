package storage

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Ananth-NQI/guestotp-backend/internal/models"
	"github.com/Ananth-NQI/guestotp-backend/internal/shared"
)

// DatabaseStore persists records through gorm
type DatabaseStore struct {
	db      *gorm.DB
	dialect string
}

// NewDatabaseStore creates a gorm-backed store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db, dialect: db.Dialector.Name()}
}

// CreateOtpRecords inserts the batch on one pooled connection inside one
// transaction. The connection goes back to the pool on every path.
func (s *DatabaseStore) CreateOtpRecords(ctx context.Context, records []*models.OtpRecord) error {
	if len(records) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		return conn.Transaction(func(tx *gorm.DB) error {
			return tx.Create(records).Error
		})
	})
	if err != nil {
		return shared.NewError(shared.KindPersistenceFailure, "create_otp_records",
			fmt.Sprintf("failed to save %d otp records", len(records)), err)
	}

	logrus.WithFields(logrus.Fields{
		"component": "DatabaseStore",
		"records":   len(records),
	}).Debug("OTP records committed")
	return nil
}

func (s *DatabaseStore) ListOtpRecords(ctx context.Context, filter models.OtpRecordFilter) ([]*models.OtpRecord, int64, error) {
	var (
		total   int64
		records []*models.OtpRecord
	)

	err := s.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		if err := applyFilter(conn.Model(&models.OtpRecord{}), filter).Count(&total).Error; err != nil {
			return fmt.Errorf("count: %w", err)
		}

		query := applyFilter(conn.Model(&models.OtpRecord{}), filter).
			Order("check_in_date_time ASC").
			Order("id ASC")
		if filter.PageSize > 0 {
			query = query.Offset(filter.Offset()).Limit(filter.PageSize)
		}
		if err := query.Find(&records).Error; err != nil {
			return fmt.Errorf("select: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, shared.NewError(shared.KindPersistenceFailure, "list_otp_records", "failed to query otp records", err)
	}

	if records == nil {
		records = []*models.OtpRecord{}
	}
	return records, total, nil
}

func applyFilter(q *gorm.DB, filter models.OtpRecordFilter) *gorm.DB {
	if filter.HotelCode != "" {
		q = q.Where("hotel_code = ?", filter.HotelCode)
	}
	if filter.ReservationNumber != "" {
		q = q.Where("reservation_number = ?", filter.ReservationNumber)
	}
	if filter.GuestMobileNumber != "" {
		q = q.Where("guest_mobile_number = ?", filter.GuestMobileNumber)
	}
	from, to := checkInBounds(filter)
	if from != "" {
		q = q.Where("check_in_date_time >= ?", from)
	}
	if to != "" {
		q = q.Where("check_in_date_time <= ?", to)
	}
	return q
}

func (s *DatabaseStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *DatabaseStore) Kind() string {
	return s.dialect
}
