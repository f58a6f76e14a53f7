package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Ananth-NQI/guestotp-backend/internal/models"
	"github.com/Ananth-NQI/guestotp-backend/internal/shared"
	"github.com/Ananth-NQI/guestotp-backend/internal/utils"
)

type OTPService struct {
	gateway LockGateway
	suffix  string
}

func NewOTPService(gateway LockGateway, suffix string) *OTPService {
	return &OTPService{gateway: gateway, suffix: suffix}
}

// IssueForRoom resolves the room's lock and requests a PIN valid between
// start and end (epoch seconds). The returned OTP carries the keypad suffix.
func (s *OTPService) IssueForRoom(ctx context.Context, room string, start, end int64) (models.OTPGrant, error) {
	room = strings.TrimSpace(room)
	if room == "" {
		return models.OTPGrant{}, shared.NewError(shared.KindValidationFailure, "issue_for_room", "room is required", nil)
	}
	if end <= start {
		return models.OTPGrant{}, shared.NewError(shared.KindValidationFailure, "issue_for_room",
			fmt.Sprintf("validity window for room %q ends before it starts", room), nil)
	}

	deviceID, err := s.gateway.ResolveDevice(ctx, room)
	if err != nil {
		return models.OTPGrant{}, err
	}

	grant, err := s.gateway.IssueOTP(ctx, deviceID, start, end)
	if err != nil {
		return models.OTPGrant{}, err
	}
	grant.OTP = utils.DoorPIN(grant.OTP, s.suffix)

	logrus.WithFields(logrus.Fields{
		"room":      room,
		"device_id": deviceID,
		"otp":       utils.MaskDigits(grant.OTP),
	}).Info("🔐 Door PIN issued")
	return grant, nil
}
