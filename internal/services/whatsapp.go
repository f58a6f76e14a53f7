package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Ananth-NQI/guestotp-backend/internal/config"
	"github.com/Ananth-NQI/guestotp-backend/internal/models"
	"github.com/Ananth-NQI/guestotp-backend/internal/shared"
)

// MessageSender delivers a check-in message over one channel. Failures are
// reported in the result, never returned.
type MessageSender interface {
	Channel() string
	Send(ctx context.Context, msg models.CheckinMessage) models.NotificationResult
}

type whatsAppTemplate struct {
	Name         string   `json:"name"`
	LanguageCode string   `json:"languageCode"`
	BodyValues   []string `json:"bodyValues"`
}

type whatsAppRequest struct {
	CountryCode string           `json:"countryCode"`
	PhoneNumber string           `json:"phoneNumber"`
	Type        string           `json:"type"`
	Template    whatsAppTemplate `json:"template"`
}

// WhatsAppService sends template messages through the WhatsApp provider API
type WhatsAppService struct {
	endpoint    string
	apiKey      string
	authScheme  string
	countryCode string
	template    TemplateConfig
	client      *http.Client
}

// NewWhatsAppService creates the HTTP WhatsApp sender
func NewWhatsAppService(cfg config.WhatsAppConfig, template TemplateConfig) *WhatsAppService {
	return &WhatsAppService{
		endpoint:    cfg.Endpoint,
		apiKey:      cfg.APIKey,
		authScheme:  cfg.AuthScheme,
		countryCode: cfg.CountryCode,
		template:    template,
		client:      shared.NewHTTPClient(cfg.HTTPTimeout),
	}
}

func (w *WhatsAppService) Channel() string {
	return models.ChannelWhatsApp
}

// Send posts the template message
func (w *WhatsAppService) Send(ctx context.Context, msg models.CheckinMessage) models.NotificationResult {
	result := models.NotificationResult{Channel: models.ChannelWhatsApp}

	if w.endpoint == "" || w.apiKey == "" {
		result.Error = "whatsapp provider not configured"
		return result
	}
	if err := validateMessage(msg); err != nil {
		result.Error = err.Error()
		return result
	}

	payload, err := json.Marshal(whatsAppRequest{
		CountryCode: w.countryCode,
		PhoneNumber: msg.PhoneNumber,
		Type:        "Template",
		Template: whatsAppTemplate{
			Name:         w.template.Name,
			LanguageCode: w.template.LanguageCode,
			BodyValues:   msg.BodyValues,
		},
	})
	if err != nil {
		result.Error = err.Error()
		return result
	}

	resp, err := shared.DoWithRetry(ctx, w.client, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", w.authScheme+" "+w.apiKey)
		return req, nil
	}, 1, 200*time.Millisecond)
	if err != nil {
		result.Error = "whatsapp provider unreachable"
		logrus.WithError(err).WithField("channel", result.Channel).Warn("❌ Failed to send WhatsApp template")
		return result
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxVendorBody))

	result.StatusCode = resp.StatusCode
	result.Success = resp.StatusCode >= 200 && resp.StatusCode < 300
	if !result.Success {
		result.Error = "whatsapp provider returned " + http.StatusText(resp.StatusCode)
		return result
	}

	logrus.WithFields(logrus.Fields{
		"channel":  result.Channel,
		"template": w.template.Name,
	}).Info("✅ WhatsApp template sent")
	return result
}
