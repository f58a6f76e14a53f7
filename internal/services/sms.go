package services

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Ananth-NQI/guestotp-backend/internal/config"
	"github.com/Ananth-NQI/guestotp-backend/internal/models"
	"github.com/Ananth-NQI/guestotp-backend/internal/shared"
)

// SMSService sends the fixed check-in text through the SMS gateway
type SMSService struct {
	endpoint     string
	apiKey       string
	apiKeyHeader string
	senderID     string
	countryCode  string
	client       *http.Client
}

// NewSMSService creates the HTTP SMS sender
func NewSMSService(cfg config.SMSConfig) *SMSService {
	return &SMSService{
		endpoint:     cfg.Endpoint,
		apiKey:       cfg.APIKey,
		apiKeyHeader: cfg.APIKeyHeader,
		senderID:     cfg.SenderID,
		countryCode:  cfg.CountryCode,
		client:       shared.NewHTTPClient(cfg.HTTPTimeout),
	}
}

func (s *SMSService) Channel() string {
	return models.ChannelSMS
}

// Send posts a URL-encoded form to the gateway
func (s *SMSService) Send(ctx context.Context, msg models.CheckinMessage) models.NotificationResult {
	result := models.NotificationResult{Channel: models.ChannelSMS}

	if s.endpoint == "" || s.apiKey == "" {
		result.Error = "sms provider not configured"
		return result
	}
	if err := validateMessage(msg); err != nil {
		result.Error = err.Error()
		return result
	}

	form := url.Values{}
	form.Set("sender", s.senderID)
	form.Set("to", strings.TrimPrefix(s.countryCode, "+")+msg.PhoneNumber)
	form.Set("message", SMSText(msg.BodyValues))
	encoded := form.Encode()

	resp, err := shared.DoWithRetry(ctx, s.client, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set(s.apiKeyHeader, s.apiKey)
		return req, nil
	}, 1, 200*time.Millisecond)
	if err != nil {
		result.Error = "sms provider unreachable"
		logrus.WithError(err).WithField("channel", result.Channel).Warn("❌ Failed to send SMS")
		return result
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxVendorBody))

	result.StatusCode = resp.StatusCode
	result.Success = resp.StatusCode >= 200 && resp.StatusCode < 300
	if !result.Success {
		result.Error = "sms provider returned " + http.StatusText(resp.StatusCode)
		return result
	}

	logrus.WithField("channel", result.Channel).Info("✅ SMS sent")
	return result
}
