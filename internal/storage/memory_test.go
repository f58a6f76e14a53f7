package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/guestotp-backend/internal/models"
)

func record(hotel, room, checkIn string) *models.OtpRecord {
	return &models.OtpRecord{
		HotelCode:         hotel,
		GuestName:         "Mr A B",
		GuestMobileNumber: "9876543210",
		CheckInDateTime:   checkIn,
		CheckOutDateTime:  checkIn,
		GeneratedOTP:      "4821#",
		RoomNo:            room,
		RoomName:          room,
		ReservationNumber: "R-" + room,
		OTPStatus:         "OTP Generated",
	}
}

func TestMemoryStoreCreateAndList(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	batch := []*models.OtpRecord{
		record("H1", "AV 303", "2024-01-10T14:00:00"),
		record("H1", "AV 101", "2024-01-09T12:00:00"),
		record("H2", "B 2", "2024-01-11T09:00:00"),
	}
	require.NoError(t, store.CreateOtpRecords(ctx, batch))
	assert.Equal(t, 3, store.Count())
	assert.NotZero(t, batch[0].ID)

	t.Run("ordered by check-in", func(t *testing.T) {
		rows, total, err := store.ListOtpRecords(ctx, models.OtpRecordFilter{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		require.Len(t, rows, 3)
		assert.Equal(t, "AV 101", rows[0].RoomNo)
		assert.Equal(t, "AV 303", rows[1].RoomNo)
		assert.Equal(t, "B 2", rows[2].RoomNo)
	})

	t.Run("filters are conjunctive", func(t *testing.T) {
		rows, total, err := store.ListOtpRecords(ctx, models.OtpRecordFilter{
			HotelCode:   "H1",
			CheckInFrom: "2024-01-10",
			CheckInTo:   "2024-01-10",
			Page:        1,
			PageSize:    10,
		})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, rows, 1)
		assert.Equal(t, "AV 303", rows[0].RoomNo)
	})

	t.Run("page past the end is empty", func(t *testing.T) {
		rows, total, err := store.ListOtpRecords(ctx, models.OtpRecordFilter{Page: 5, PageSize: 2})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		assert.Empty(t, rows)
	})
}

func TestMemoryStoreFailedWriteStoresNothing(t *testing.T) {
	store := NewMemoryStore()
	store.FailWrites = errors.New("disk full")

	err := store.CreateOtpRecords(context.Background(), []*models.OtpRecord{record("H1", "1", "2024-01-10T14:00:00")})
	require.Error(t, err)
	assert.Zero(t, store.Count())
}

func TestMemoryStoreOverflowedOffset(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.CreateOtpRecords(ctx, []*models.OtpRecord{record("H1", "AV 303", "2024-01-10T14:00:00")}))

	rows, total, err := store.ListOtpRecords(ctx, models.OtpRecordFilter{Page: 4611686018427387905, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Empty(t, rows)
}

func TestMemoryStorePaginationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("pages partition the result set", prop.ForAll(
		func(n int, pageSize int) bool {
			ctx := context.Background()
			store := NewMemoryStore()
			batch := make([]*models.OtpRecord, 0, n)
			for i := 0; i < n; i++ {
				batch = append(batch, record("H1", fmt.Sprintf("R%d", i), fmt.Sprintf("2024-01-%02dT10:00:00", i%28+1)))
			}
			if err := store.CreateOtpRecords(ctx, batch); err != nil {
				return false
			}

			pages := models.TotalPagesFor(int64(n), pageSize)
			seen := 0
			last := ""
			for page := 1; page <= pages; page++ {
				rows, total, err := store.ListOtpRecords(ctx, models.OtpRecordFilter{Page: page, PageSize: pageSize})
				if err != nil || total != int64(n) || len(rows) > pageSize {
					return false
				}
				for _, r := range rows {
					if r.CheckInDateTime < last {
						return false
					}
					last = r.CheckInDateTime
				}
				seen += len(rows)
			}
			return seen == n
		},
		gen.IntRange(0, 40),
		gen.IntRange(1, 10),
	))

	properties.Property("repeated queries return the same page", prop.ForAll(
		func(n int, page int) bool {
			ctx := context.Background()
			store := NewMemoryStore()
			batch := make([]*models.OtpRecord, 0, n)
			for i := 0; i < n; i++ {
				batch = append(batch, record("H1", fmt.Sprintf("R%d", i), fmt.Sprintf("2024-02-%02dT09:00:00", i%28+1)))
			}
			if err := store.CreateOtpRecords(ctx, batch); err != nil {
				return false
			}

			filter := models.OtpRecordFilter{HotelCode: "H1", Page: page, PageSize: 3}
			first, _, err1 := store.ListOtpRecords(ctx, filter)
			second, _, err2 := store.ListOtpRecords(ctx, filter)
			if err1 != nil || err2 != nil || len(first) != len(second) {
				return false
			}
			for i := range first {
				if first[i].ID != second[i].ID {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 20),
		gen.IntRange(1, 8),
	))

	properties.TestingRun(t)
}
