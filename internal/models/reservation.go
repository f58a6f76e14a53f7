package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// OperationCheckin is the only operation accepted on the write path
const OperationCheckin = "checkin"

// ReservationWebhook is the PMS check-in payload
type ReservationWebhook struct {
	HotelCode string          `json:"hotel_code"`
	Operation string          `json:"operation"`
	Data      ReservationData `json:"data"`
}

type ReservationData struct {
	Reservations ReservationList `json:"Reservations"`
}

type ReservationList struct {
	Reservation []Reservation `json:"Reservation"`
}

// Reservation is one guest booking with its booking transactions
type Reservation struct {
	Salutation  string        `json:"Salutation"`
	FirstName   string        `json:"FirstName"`
	LastName    string        `json:"LastName"`
	Mobile      FlexString    `json:"Mobile"`
	Email       string        `json:"Email"`
	BookingTran []BookingTran `json:"BookingTran"`
}

// BookingTran is a sub-booking covering one or more rooms
type BookingTran struct {
	SubBookingID  FlexString   `json:"SubBookingId"`
	Start         string       `json:"Start"`
	ArrivalTime   string       `json:"ArrivalTime"`
	End           string       `json:"End"`
	DepartureTime string       `json:"DepartureTime"`
	RentalInfo    []RentalInfo `json:"RentalInfo"`
}

type RentalInfo struct {
	RoomName string `json:"RoomName"`
}

// ReservationRecord is the flattened per-room unit of work
type ReservationRecord struct {
	HotelCode         string `json:"hotel_code"`
	GuestName         string `json:"guest_name"`
	RoomNo            string `json:"room_no"`
	RoomName          string `json:"room_name"`
	ReservationNumber string `json:"reservation_number"`
	GuestMobileNumber string `json:"guest_mobile_number"`
	GuestEmail        string `json:"guest_email"`
	CheckInEpoch      int64  `json:"check_in_epoch"`
	CheckOutEpoch     int64  `json:"check_out_epoch"`
}

// FlexString accepts a JSON string, number or null
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// Int64 parses the value as an integer, reporting false when it is not one
func (f FlexString) Int64() (int64, bool) {
	s := strings.TrimSpace(string(f))
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	if fl, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(fl), true
	}
	return 0, false
}
