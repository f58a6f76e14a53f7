package models

import "time"

// LocalTimeLayout is how every date-time column is stored: naive local
// time in the property time zone, no offset.
const LocalTimeLayout = "2006-01-02T15:04:05"

// OtpRecord is written once per room after the lock vendor issues a PIN
type OtpRecord struct {
	ID                uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	HotelCode         string    `json:"hotel_code" gorm:"column:hotel_code;size:64;index"`
	GuestName         string    `json:"guest_name" gorm:"column:guest_name;size:255"`
	GuestMobileNumber string    `json:"guest_mobile_number" gorm:"column:guest_mobile_number;size:20;index"`
	GuestEmail        string    `json:"guest_email" gorm:"column:guest_email;size:255"`
	CheckInDateTime   string    `json:"check_in_date_time" gorm:"column:check_in_date_time;size:19;index"`
	CheckOutDateTime  string    `json:"check_out_date_time" gorm:"column:check_out_date_time;size:19"`
	GeneratedOTP      string    `json:"generated_otp" gorm:"column:generated_otp;size:32"`
	OTPStartDateTime  string    `json:"otp_start_date_time" gorm:"column:otp_start_date_time;size:19"`
	OTPEndDateTime    string    `json:"otp_end_date_time" gorm:"column:otp_end_date_time;size:19"`
	RoomNo            string    `json:"room_no" gorm:"column:room_no;size:64"`
	RoomName          string    `json:"room_name" gorm:"column:room_name;size:128"`
	ReservationNumber string    `json:"reservation_number" gorm:"column:reservation_number;size:64;index"`
	OTPStatus         string    `json:"otp_status" gorm:"column:otp_status;size:32"`
	CreatedAt         time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

// TableName keeps the table name used by the existing deployment
func (OtpRecord) TableName() string {
	return "hotel_guest_otp_record"
}

// OtpRecordFilter holds the conjunctive filters of the read path.
// Date bounds are inclusive local dates (YYYY-MM-DD).
type OtpRecordFilter struct {
	HotelCode         string
	ReservationNumber string
	GuestMobileNumber string
	CheckInFrom       string
	CheckInTo         string
	Page              int
	PageSize          int
}

// Offset returns the row offset for the filter's page
func (f OtpRecordFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// OtpRecordPage is one page of the read path
type OtpRecordPage struct {
	Records      []*OtpRecord `json:"records"`
	Page         int          `json:"page"`
	PageSize     int          `json:"page_size"`
	TotalRecords int64        `json:"total_records"`
	TotalPages   int          `json:"total_pages"`
}

// TotalPagesFor returns ceil(total/pageSize)
func TotalPagesFor(total int64, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
