package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Ananth-NQI/guestotp-backend/internal/config"
	"github.com/Ananth-NQI/guestotp-backend/internal/metrics"
	"github.com/Ananth-NQI/guestotp-backend/internal/models"
	"github.com/Ananth-NQI/guestotp-backend/internal/shared"
)

const maxVendorBody = 1 << 20

// LockGateway is what the check-in flow needs from the lock vendor
type LockGateway interface {
	ResolveDevice(ctx context.Context, room string) (string, error)
	IssueOTP(ctx context.Context, deviceID string, start, end int64) (models.OTPGrant, error)
}

// AtombergGateway talks to the smart-lock vendor API
type AtombergGateway struct {
	endpoint    string
	apiKey      string
	bearerToken string
	client      *http.Client
	session     *LockSession
	cache       TokenCache
	tokenTTL    time.Duration

	// serializes re-authentication
	authMu sync.Mutex

	maxRetries int
	backoff    time.Duration
}

// NewAtombergGateway creates the gateway. cache may be nil.
func NewAtombergGateway(cfg config.LockConfig, session *LockSession, cache TokenCache) *AtombergGateway {
	return &AtombergGateway{
		endpoint:    strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:      cfg.APIKey,
		bearerToken: cfg.BearerToken,
		client:      shared.NewHTTPClient(cfg.HTTPTimeout),
		session:     session,
		cache:       cache,
		tokenTTL:    cfg.TokenTTL,
		maxRetries:  1,
		backoff:     200 * time.Millisecond,
	}
}

// Session exposes the shared session, for health reporting
func (g *AtombergGateway) Session() *LockSession {
	return g.session
}

// Authenticate fetches a fresh access token and stores it in the session
func (g *AtombergGateway) Authenticate(ctx context.Context) (string, error) {
	const op = "authenticate"

	if g.endpoint == "" {
		return "", shared.NewError(shared.KindConfiguration, op, "ATOMBERG_ENDPOINT is not set", nil)
	}

	status, body, err := g.do(ctx, op, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"/get_access_token", nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("x-api-key", g.apiKey)
		req.Header.Set("Authorization", "Bearer "+g.bearerToken)
		return req, nil
	})
	if err != nil {
		return "", shared.NewError(shared.KindAuthFailure, op, "token request failed", err)
	}
	if status < 200 || status > 299 {
		metrics.LockCall(op, false)
		return "", shared.NewError(shared.KindAuthFailure, op, "vendor refused credentials", nil).WithStatus(status)
	}

	var parsed models.LockTokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Message.AccessToken == "" {
		metrics.LockCall(op, false)
		return "", shared.NewError(shared.KindAuthFailure, op, "token missing from vendor response", nil).WithStatus(status)
	}

	metrics.LockCall(op, true)
	g.session.SetToken(parsed.Message.AccessToken)
	if g.cache != nil {
		if err := g.cache.SetToken(ctx, parsed.Message.AccessToken, g.tokenTTL); err != nil {
			logrus.WithError(err).Warn("Failed to share lock token through cache")
		}
	}

	logrus.WithField("component", "AtombergGateway").Info("🔑 Lock vendor token refreshed")
	return parsed.Message.AccessToken, nil
}

// ListDevices fetches the full room → device directory
func (g *AtombergGateway) ListDevices(ctx context.Context, token string) (map[string]string, error) {
	const op = "list_devices"

	status, body, err := g.do(ctx, op, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"/get_list_of_locks", nil)
		if err != nil {
			return nil, err
		}
		g.authorize(req, token)
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	if err := vendorStatus(op, status); err != nil {
		metrics.LockCall(op, false)
		return nil, err
	}

	var parsed models.LockListResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		metrics.LockCall(op, false)
		return nil, shared.NewError(shared.KindVendorRejected, op, "malformed lock list", err).WithStatus(status)
	}

	devices := make(map[string]string, len(parsed.Message.LocksList))
	for _, lock := range parsed.Message.LocksList {
		name := strings.TrimSpace(lock.Name)
		if name == "" || lock.DeviceID == "" {
			continue
		}
		devices[name] = lock.DeviceID.String()
	}

	metrics.LockCall(op, true)
	return devices, nil
}

// RequestPin asks the vendor for a time-boxed PIN on one device
func (g *AtombergGateway) RequestPin(ctx context.Context, token, deviceID string, start, end int64) (models.OTPGrant, error) {
	const op = "issue_otp"

	form := url.Values{}
	form.Set("device_id", deviceID)
	form.Set("start_time", strconv.FormatInt(start, 10))
	form.Set("end_time", strconv.FormatInt(end, 10))
	encoded := form.Encode()

	status, body, err := g.do(ctx, op, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+"/get_lock_dynamic_pin", strings.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		g.authorize(req, token)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return models.OTPGrant{}, err
	}
	if err := vendorStatus(op, status); err != nil {
		metrics.LockCall(op, false)
		return models.OTPGrant{}, err
	}

	var parsed models.LockPinResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		metrics.LockCall(op, false)
		return models.OTPGrant{}, shared.NewError(shared.KindVendorRejected, op, "malformed pin response", err).WithStatus(status)
	}

	data := parsed.Message.Data
	if data.OTP == "" {
		metrics.LockCall(op, false)
		return models.OTPGrant{}, shared.NewError(shared.KindVendorRejected, op, "vendor returned no otp", nil).WithStatus(status)
	}

	grant := models.OTPGrant{OTP: data.OTP.String(), ValidStartTime: start, ValidEndTime: end}
	if v, ok := data.ValidStartTime.Int64(); ok {
		grant.ValidStartTime = v
	}
	if v, ok := data.ValidEndTime.Int64(); ok {
		grant.ValidEndTime = v
	}

	metrics.LockCall(op, true)
	return grant, nil
}

// ResolveDevice returns the device id for a room, reloading the directory
// when it is stale or does not know the room.
func (g *AtombergGateway) ResolveDevice(ctx context.Context, room string) (string, error) {
	room = strings.TrimSpace(room)
	if id, found, stale := g.session.Device(room); found && !stale {
		return id, nil
	}

	var devices map[string]string
	err := g.withToken(ctx, func(token string) error {
		var err error
		devices, err = g.ListDevices(ctx, token)
		return err
	})
	if err != nil {
		return "", err
	}
	g.session.SetDevices(devices)

	id, ok := devices[room]
	if !ok {
		return "", shared.NewError(shared.KindDeviceNotFound, "resolve_device", fmt.Sprintf("no lock registered for room %q", room), nil)
	}
	return id, nil
}

// IssueOTP requests a PIN using the session token
func (g *AtombergGateway) IssueOTP(ctx context.Context, deviceID string, start, end int64) (models.OTPGrant, error) {
	var grant models.OTPGrant
	err := g.withToken(ctx, func(token string) error {
		var err error
		grant, err = g.RequestPin(ctx, token, deviceID, start, end)
		return err
	})
	return grant, err
}

// Refresh re-authenticates and reloads the device directory
func (g *AtombergGateway) Refresh(ctx context.Context) error {
	token, err := g.Authenticate(ctx)
	if err != nil {
		return err
	}
	devices, err := g.ListDevices(ctx, token)
	if err != nil {
		return err
	}
	g.session.SetDevices(devices)
	return nil
}

// withToken runs call with a valid token. An auth rejection invalidates the
// token, re-authenticates once and runs call once more.
func (g *AtombergGateway) withToken(ctx context.Context, call func(token string) error) error {
	token, err := g.currentToken(ctx)
	if err != nil {
		return err
	}

	err = call(token)
	if !isAuthRejection(err) {
		return err
	}

	logrus.WithField("component", "AtombergGateway").Warn("Lock token rejected, re-authenticating")
	g.session.InvalidateToken(token)
	if g.cache != nil {
		_ = g.cache.DeleteToken(ctx)
	}

	token, err = g.currentToken(ctx)
	if err != nil {
		return err
	}
	return call(token)
}

func (g *AtombergGateway) currentToken(ctx context.Context) (string, error) {
	if token, ok := g.session.Token(); ok {
		return token, nil
	}

	g.authMu.Lock()
	defer g.authMu.Unlock()

	// another request may have authenticated while we waited
	if token, ok := g.session.Token(); ok {
		return token, nil
	}

	if g.cache != nil {
		token, err := g.cache.GetToken(ctx)
		if err != nil {
			logrus.WithError(err).Warn("Lock token cache unavailable")
		} else if token != "" {
			g.session.SetToken(token)
			return token, nil
		}
	}

	return g.Authenticate(ctx)
}

func (g *AtombergGateway) authorize(req *http.Request, token string) {
	req.Header.Set("x-api-key", g.apiKey)
	req.Header.Set("Authorization", "Bearer "+token)
}

// do executes the request with one transport retry and reads the body
func (g *AtombergGateway) do(ctx context.Context, op string, build shared.RequestBuilder) (int, []byte, error) {
	resp, err := shared.DoWithRetry(ctx, g.client, build, g.maxRetries, g.backoff)
	if err != nil {
		metrics.LockCall(op, false)
		return 0, nil, shared.NewError(shared.KindNetwork, op, "lock vendor unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxVendorBody))
	if err != nil {
		metrics.LockCall(op, false)
		return 0, nil, shared.NewError(shared.KindNetwork, op, "failed to read vendor response", err)
	}
	return resp.StatusCode, body, nil
}

func vendorStatus(op string, status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return shared.NewError(shared.KindAuthFailure, op, "vendor rejected token", nil).WithStatus(status)
	case status < 200 || status > 299:
		return shared.NewError(shared.KindVendorRejected, op, "vendor returned an error", nil).WithStatus(status)
	}
	return nil
}

func isAuthRejection(err error) bool {
	if err == nil || !shared.IsKind(err, shared.KindAuthFailure) {
		return false
	}
	var se *shared.ServiceError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden
	}
	return false
}
