package models

// Notification channels
const (
	ChannelWhatsApp = "whatsapp"
	ChannelSMS      = "sms"
)

// TemplateValueCount is the number of body values every check-in message carries
const TemplateValueCount = 6

// NotificationResult reports the outcome of one channel send
type NotificationResult struct {
	Channel    string `json:"channel"`
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CheckinMessage is the templated content sent to a guest. BodyValues are,
// in order: guest name, reservation number, room number, OTP, start, end.
type CheckinMessage struct {
	PhoneNumber string   `json:"phoneNumber"`
	BodyValues  []string `json:"bodyValues"`
}

// Room processing states
const (
	RoomExtracted    = "EXTRACTED"
	RoomOTPRequested = "OTP_REQUESTED"
	RoomOTPIssued    = "OTP_ISSUED"
	RoomOTPFailed    = "OTP_FAILED"
	RoomPersisted    = "PERSISTED"
	RoomNotified     = "NOTIFIED"
	RoomSkipped      = "SKIPPED"
)

// RoomOutcome is the per-room result returned by the check-in flow
type RoomOutcome struct {
	RoomNo        string               `json:"room_no"`
	State         string               `json:"state"`
	Persisted     bool                 `json:"persisted"`
	ErrorKind     string               `json:"error_kind,omitempty"`
	Error         string               `json:"error,omitempty"`
	Notifications []NotificationResult `json:"notifications,omitempty"`
}

// CheckinResult summarises one webhook
type CheckinResult struct {
	BatchID string         `json:"batch_id"`
	Rooms   []*RoomOutcome `json:"rooms"`
	Saved   int            `json:"saved"`
}
