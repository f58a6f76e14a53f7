package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioClient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/Ananth-NQI/guestotp-backend/internal/config"
	"github.com/Ananth-NQI/guestotp-backend/internal/models"
)

func checkinMessage() models.CheckinMessage {
	return models.CheckinMessage{
		PhoneNumber: "9876543210",
		BodyValues:  []string{"Mr A B", "R1", "AV 303", "4821#", "10 Jan 2024, 2:00 p.m.", "12 Jan 2024, 11:00 a.m."},
	}
}

func testTemplate() TemplateConfig {
	return TemplateConfig{Name: config.DefaultWhatsAppName, LanguageCode: "en"}
}

func TestWhatsAppServiceSend(t *testing.T) {
	var got whatsAppRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Basic wa-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sender := NewWhatsAppService(config.WhatsAppConfig{
		Endpoint:    srv.URL,
		APIKey:      "wa-key",
		AuthScheme:  "Basic",
		CountryCode: "+91",
		HTTPTimeout: time.Second,
	}, testTemplate())

	result := sender.Send(context.Background(), checkinMessage())
	require.True(t, result.Success, result.Error)
	assert.Equal(t, http.StatusAccepted, result.StatusCode)
	assert.Equal(t, "+91", got.CountryCode)
	assert.Equal(t, "9876543210", got.PhoneNumber)
	assert.Equal(t, "Template", got.Type)
	assert.Equal(t, "ezee_reservation_room_details", got.Template.Name)
	assert.Equal(t, "en", got.Template.LanguageCode)
	assert.Equal(t, checkinMessage().BodyValues, got.Template.BodyValues)
}

func TestSendersRejectBadMessagesWithoutNetwork(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	senders := []MessageSender{
		NewWhatsAppService(config.WhatsAppConfig{Endpoint: srv.URL, APIKey: "k", AuthScheme: "Basic"}, testTemplate()),
		NewSMSService(config.SMSConfig{Endpoint: srv.URL, APIKey: "k", APIKeyHeader: "X-API-Key"}),
	}

	short := checkinMessage()
	short.PhoneNumber = "98765"
	fewValues := checkinMessage()
	fewValues.BodyValues = fewValues.BodyValues[:5]

	for _, sender := range senders {
		for _, msg := range []models.CheckinMessage{short, fewValues} {
			result := sender.Send(context.Background(), msg)
			assert.False(t, result.Success)
			assert.NotEmpty(t, result.Error)
			assert.Equal(t, sender.Channel(), result.Channel)
		}
	}

	unconfigured := NewSMSService(config.SMSConfig{})
	assert.False(t, unconfigured.Send(context.Background(), checkinMessage()).Success)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestSMSServiceSend(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sms-key", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())
		form = r.PostForm
	}))
	defer srv.Close()

	sender := NewSMSService(config.SMSConfig{
		Endpoint:     srv.URL,
		APIKey:       "sms-key",
		APIKeyHeader: "X-API-Key",
		SenderID:     "HOTELS",
		CountryCode:  "+91",
	})

	result := sender.Send(context.Background(), checkinMessage())
	require.True(t, result.Success, result.Error)
	assert.Equal(t, "HOTELS", form.Get("sender"))
	assert.Equal(t, "919876543210", form.Get("to"))
	assert.Equal(t, "Dear Mr A B, your stay R1 is confirmed. Room AV 303 door PIN: 4821# valid from 10 Jan 2024, 2:00 p.m. to 12 Jan 2024, 11:00 a.m.", form.Get("message"))
}

func TestSMSTextEndsWithOnePeriod(t *testing.T) {
	values := checkinMessage().BodyValues
	assert.Equal(t, "Dear Mr A B, your stay R1 is confirmed. Room AV 303 door PIN: 4821# valid from 10 Jan 2024, 2:00 p.m. to 12 Jan 2024, 11:00 a.m.", SMSText(values))

	values[5] = "12 Jan 2024, 11:00 p.m."
	assert.True(t, strings.HasSuffix(SMSText(values), "11:00 p.m."))
	assert.NotContains(t, SMSText(values), "..")

	values[5] = "late checkout"
	assert.True(t, strings.HasSuffix(SMSText(values), "to late checkout."))
}

func TestSMSServiceProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	sender := NewSMSService(config.SMSConfig{Endpoint: srv.URL, APIKey: "k", APIKeyHeader: "X-API-Key"})
	result := sender.Send(context.Background(), checkinMessage())
	assert.False(t, result.Success)
	assert.Equal(t, http.StatusBadGateway, result.StatusCode)
}

type stubSender struct {
	channel string
	ok      bool
	calls   int32
}

func (s *stubSender) Channel() string { return s.channel }

func (s *stubSender) Send(context.Context, models.CheckinMessage) models.NotificationResult {
	atomic.AddInt32(&s.calls, 1)
	r := models.NotificationResult{Channel: s.channel, Success: s.ok}
	if !s.ok {
		r.Error = "provider down"
	}
	return r
}

func TestNotifierIsolatesChannels(t *testing.T) {
	wa := &stubSender{channel: models.ChannelWhatsApp, ok: false}
	sms := &stubSender{channel: models.ChannelSMS, ok: true}

	results := NewNotifier(wa, sms).Notify(context.Background(), checkinMessage())
	require.Len(t, results, 2)
	assert.False(t, results[0].Success)
	assert.True(t, results[1].Success)
	assert.Equal(t, int32(1), atomic.LoadInt32(&wa.calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&sms.calls))
}

type fakeTwilioAPI struct {
	params *twilioApi.CreateMessageParams
	err    error
}

func (f *fakeTwilioAPI) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	sid := "SM123"
	return &twilioApi.ApiV2010Message{Sid: &sid}, nil
}

func TestTwilioSenders(t *testing.T) {
	api := &fakeTwilioAPI{}
	svc := &TwilioService{
		api:          api,
		phoneNumber:  "+15550001111",
		whatsappFrom: "whatsapp:+14155238886",
		templateSID:  "HXcheckin",
		countryCode:  "+91",
	}

	result := NewTwilioWhatsAppSender(svc).Send(context.Background(), checkinMessage())
	require.True(t, result.Success, result.Error)
	assert.Equal(t, "whatsapp:+919876543210", *api.params.To)
	assert.Equal(t, "HXcheckin", *api.params.ContentSid)

	var vars map[string]string
	require.NoError(t, json.Unmarshal([]byte(*api.params.ContentVariables), &vars))
	assert.Equal(t, "4821#", vars["4"])

	result = NewTwilioSMSSender(svc).Send(context.Background(), checkinMessage())
	require.True(t, result.Success, result.Error)
	assert.Equal(t, "+919876543210", *api.params.To)
	assert.Contains(t, *api.params.Body, "door PIN: 4821#")

	api.err = &twilioClient.TwilioRestError{Code: 21211, Status: 400}
	result = NewTwilioSMSSender(svc).Send(context.Background(), checkinMessage())
	assert.False(t, result.Success)
	assert.Equal(t, 400, result.StatusCode)

	api.err = errors.New("dial tcp: timeout")
	result = NewTwilioSMSSender(svc).Send(context.Background(), checkinMessage())
	assert.False(t, result.Success)
}
