package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioClient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/Ananth-NQI/guestotp-backend/internal/config"
	"github.com/Ananth-NQI/guestotp-backend/internal/models"
)

// messageCreator is the part of the Twilio API used here
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

type TwilioService struct {
	api          messageCreator
	phoneNumber  string // SMS sender
	whatsappFrom string // Format: "whatsapp:+14155238886"
	templateSID  string
	countryCode  string
}

// NewTwilioService creates a new Twilio service instance
func NewTwilioService(cfg config.TwilioConfig, countryCode string) (*TwilioService, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("missing Twilio credentials in environment variables")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &TwilioService{
		api:          client.Api,
		phoneNumber:  cfg.PhoneNumber,
		whatsappFrom: cfg.WhatsAppFrom,
		templateSID:  cfg.WhatsAppTemplateSID,
		countryCode:  countryCode,
	}, nil
}

// SendSMS sends a plain SMS via Twilio
func (t *TwilioService) SendSMS(to string, body string) (*twilioApi.ApiV2010Message, error) {
	if t.phoneNumber == "" {
		return nil, fmt.Errorf("TWILIO_PHONE_NUMBER not set")
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.phoneNumber)
	params.SetTo(t.countryCode + to)
	params.SetBody(body)

	return t.api.CreateMessage(params)
}

// SendWhatsAppTemplate sends a WhatsApp template message via Twilio
func (t *TwilioService) SendWhatsAppTemplate(to string, templateSID string, contentVariables map[string]string) (*twilioApi.ApiV2010Message, error) {
	if t.whatsappFrom == "" || templateSID == "" {
		return nil, fmt.Errorf("twilio whatsapp sender or template not configured")
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.whatsappFrom)
	params.SetTo(fmt.Sprintf("whatsapp:%s%s", t.countryCode, to))
	params.SetContentSid(templateSID)

	// SetContentVariables expects a JSON string
	if len(contentVariables) > 0 {
		variablesJSON, err := json.Marshal(contentVariables)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal content variables: %w", err)
		}
		params.SetContentVariables(string(variablesJSON))
	}

	return t.api.CreateMessage(params)
}

// TwilioSMSSender adapts TwilioService to the SMS channel
type TwilioSMSSender struct {
	twilio *TwilioService
}

func NewTwilioSMSSender(t *TwilioService) *TwilioSMSSender {
	return &TwilioSMSSender{twilio: t}
}

func (s *TwilioSMSSender) Channel() string {
	return models.ChannelSMS
}

func (s *TwilioSMSSender) Send(_ context.Context, msg models.CheckinMessage) models.NotificationResult {
	result := models.NotificationResult{Channel: models.ChannelSMS}
	if err := validateMessage(msg); err != nil {
		result.Error = err.Error()
		return result
	}

	resp, err := s.twilio.SendSMS(msg.PhoneNumber, SMSText(msg.BodyValues))
	return twilioResult(result, resp, err)
}

// TwilioWhatsAppSender adapts TwilioService to the WhatsApp channel
type TwilioWhatsAppSender struct {
	twilio *TwilioService
}

func NewTwilioWhatsAppSender(t *TwilioService) *TwilioWhatsAppSender {
	return &TwilioWhatsAppSender{twilio: t}
}

func (s *TwilioWhatsAppSender) Channel() string {
	return models.ChannelWhatsApp
}

func (s *TwilioWhatsAppSender) Send(_ context.Context, msg models.CheckinMessage) models.NotificationResult {
	result := models.NotificationResult{Channel: models.ChannelWhatsApp}
	if err := validateMessage(msg); err != nil {
		result.Error = err.Error()
		return result
	}

	resp, err := s.twilio.SendWhatsAppTemplate(msg.PhoneNumber, s.twilio.templateSID, TwilioContentVariables(msg.BodyValues))
	return twilioResult(result, resp, err)
}

func twilioResult(result models.NotificationResult, resp *twilioApi.ApiV2010Message, err error) models.NotificationResult {
	if err != nil {
		var restErr *twilioClient.TwilioRestError
		if errors.As(err, &restErr) {
			result.StatusCode = restErr.Status
			result.Error = fmt.Sprintf("twilio error %d", restErr.Code)
		} else {
			result.Error = err.Error()
		}
		logrus.WithError(err).WithField("channel", result.Channel).Warn("❌ Twilio send failed")
		return result
	}

	if resp != nil && resp.ErrorCode != nil && *resp.ErrorCode != 0 {
		result.Error = fmt.Sprintf("twilio error %d", *resp.ErrorCode)
		return result
	}

	result.Success = true
	if resp != nil && resp.Sid != nil {
		logrus.WithFields(logrus.Fields{"channel": result.Channel, "sid": *resp.Sid}).Info("✅ Twilio message sent")
	}
	return result
}
