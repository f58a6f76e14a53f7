package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Ananth-NQI/guestotp-backend/internal/models"
)

// MemoryStore holds all records in memory for local runs and tests
type MemoryStore struct {
	mu      sync.RWMutex
	records []*models.OtpRecord
	counter uint

	// FailWrites makes every write fail, for exercising the persistence error path
	FailWrites error
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) CreateOtpRecords(ctx context.Context, records []*models.OtpRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites != nil {
		return m.FailWrites
	}

	now := time.Now()
	for _, r := range records {
		m.counter++
		copied := *r
		copied.ID = m.counter
		copied.CreatedAt = now
		r.ID = copied.ID
		r.CreatedAt = now
		m.records = append(m.records, &copied)
	}
	return nil
}

func (m *MemoryStore) ListOtpRecords(ctx context.Context, filter models.OtpRecordFilter) ([]*models.OtpRecord, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	from, to := checkInBounds(filter)
	matched := make([]*models.OtpRecord, 0)
	for _, r := range m.records {
		if filter.HotelCode != "" && r.HotelCode != filter.HotelCode {
			continue
		}
		if filter.ReservationNumber != "" && r.ReservationNumber != filter.ReservationNumber {
			continue
		}
		if filter.GuestMobileNumber != "" && r.GuestMobileNumber != filter.GuestMobileNumber {
			continue
		}
		if from != "" && r.CheckInDateTime < from {
			continue
		}
		if to != "" && r.CheckInDateTime > to {
			continue
		}
		copied := *r
		matched = append(matched, &copied)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CheckInDateTime == matched[j].CheckInDateTime {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CheckInDateTime < matched[j].CheckInDateTime
	})

	total := int64(len(matched))
	start := filter.Offset()
	if start < 0 || start >= len(matched) {
		return []*models.OtpRecord{}, total, nil
	}
	end := start + filter.PageSize
	if filter.PageSize <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// Count returns the number of stored records
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryStore) Kind() string {
	return "memory"
}
