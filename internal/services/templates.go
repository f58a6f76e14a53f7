package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Ananth-NQI/guestotp-backend/internal/models"
	"github.com/Ananth-NQI/guestotp-backend/internal/utils"
)

// TemplateConfig describes the guest check-in message template
type TemplateConfig struct {
	Name         string
	LanguageCode string
}

const smsTemplate = "Dear %s, your stay %s is confirmed. Room %s door PIN: %s valid from %s to %s"

// BuildCheckinMessage renders the six body values for one issued room, in
// template order: guest name, reservation, room, PIN, valid from, valid to.
func BuildCheckinMessage(rec *models.OtpRecord, grant models.OTPGrant, loc *time.Location) models.CheckinMessage {
	return models.CheckinMessage{
		PhoneNumber: rec.GuestMobileNumber,
		BodyValues: []string{
			rec.GuestName,
			rec.ReservationNumber,
			rec.RoomNo,
			rec.GeneratedOTP,
			utils.DisplayTime(grant.ValidStartTime, loc),
			utils.DisplayTime(grant.ValidEndTime, loc),
		},
	}
}

// SMSText renders the fixed SMS body from the six body values. The end time
// already ends in "a.m." or "p.m.", so the closing period is not doubled.
func SMSText(values []string) string {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return strings.TrimSuffix(fmt.Sprintf(smsTemplate, args...), ".") + "."
}

// TwilioContentVariables numbers the body values "1".."6"
func TwilioContentVariables(values []string) map[string]string {
	vars := make(map[string]string, len(values))
	for i, v := range values {
		vars[strconv.Itoa(i+1)] = v
	}
	return vars
}

// validateMessage rejects messages that cannot be sent, before any network call
func validateMessage(msg models.CheckinMessage) error {
	if !utils.IsValidMobile(msg.PhoneNumber) {
		return fmt.Errorf("phone number must be %d digits", utils.MobileDigits)
	}
	if len(msg.BodyValues) != models.TemplateValueCount {
		return fmt.Errorf("expected %d body values, got %d", models.TemplateValueCount, len(msg.BodyValues))
	}
	return nil
}
