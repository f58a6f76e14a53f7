package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/Ananth-NQI/guestotp-backend/internal/config"
	"github.com/Ananth-NQI/guestotp-backend/internal/models"
	"github.com/Ananth-NQI/guestotp-backend/internal/shared"
	"github.com/Ananth-NQI/guestotp-backend/internal/utils"
)

// ReservationExtractor flattens a PMS payload into one record per room
type ReservationExtractor struct {
	loc            *time.Location
	checkInOffset  int
	checkOutOffset int
}

// NewReservationExtractor creates an extractor for the property's time zone
func NewReservationExtractor(property config.PropertyConfig) *ReservationExtractor {
	return &ReservationExtractor{
		loc:            property.Location(),
		checkInOffset:  property.CheckInHourOffset,
		checkOutOffset: property.CheckOutHourOffset,
	}
}

// Extract validates the whole payload before returning any record, so a
// malformed booking rejects the request without side effects.
func (e *ReservationExtractor) Extract(hotelCode string, data models.ReservationData) ([]models.ReservationRecord, error) {
	const op = "extract_reservations"

	records := make([]models.ReservationRecord, 0)
	for i, res := range data.Reservations.Reservation {
		guestName := joinName(res.Salutation, res.FirstName, res.LastName)
		mobile := utils.NormalizeMobile(res.Mobile.String())
		email := strings.TrimSpace(res.Email)

		for j, tran := range res.BookingTran {
			checkIn, err := utils.HourEpoch(tran.Start, tran.ArrivalTime, e.loc, e.checkInOffset)
			if err != nil {
				return nil, shared.NewError(shared.KindValidationFailure, op,
					fmt.Sprintf("reservation %d booking %d check-in: %v", i, j, err), nil)
			}
			checkOut, err := utils.HourEpoch(tran.End, tran.DepartureTime, e.loc, e.checkOutOffset)
			if err != nil {
				return nil, shared.NewError(shared.KindValidationFailure, op,
					fmt.Sprintf("reservation %d booking %d check-out: %v", i, j, err), nil)
			}

			for _, rental := range tran.RentalInfo {
				room := strings.TrimSpace(rental.RoomName)
				records = append(records, models.ReservationRecord{
					HotelCode:         hotelCode,
					GuestName:         guestName,
					RoomNo:            room,
					RoomName:          room,
					ReservationNumber: tran.SubBookingID.String(),
					GuestMobileNumber: mobile,
					GuestEmail:        email,
					CheckInEpoch:      checkIn,
					CheckOutEpoch:     checkOut,
				})
			}
		}
	}
	return records, nil
}

func joinName(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
