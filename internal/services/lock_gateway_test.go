package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/guestotp-backend/internal/config"
	"github.com/Ananth-NQI/guestotp-backend/internal/shared"
)

// fakeLockVendor mimics the lock vendor API
type fakeLockVendor struct {
	t *testing.T

	authCalls  int32
	listCalls  int32
	pinCalls   int32
	validToken string
	tokens     []string
	otp        any
	pinStatus  int
	authStatus int
	locks      []map[string]any

	mu       sync.Mutex
	lastForm map[string]string
}

func newFakeLockVendor(t *testing.T) *fakeLockVendor {
	return &fakeLockVendor{
		t:          t,
		tokens:     []string{"tok-1", "tok-2", "tok-3"},
		validToken: "tok-1",
		otp:        "4821",
		pinStatus:  http.StatusOK,
		authStatus: http.StatusOK,
		locks: []map[string]any{
			{"name": "AV 303", "device_id": "dev-303"},
			{"name": "AV 304", "device_id": 304},
		},
	}
}

func (f *fakeLockVendor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("x-api-key") != "key" {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	switch r.URL.Path {
	case "/get_access_token":
		n := atomic.AddInt32(&f.authCalls, 1)
		assert.Equal(f.t, "Bearer master", r.Header.Get("Authorization"))
		if f.authStatus != http.StatusOK {
			w.WriteHeader(f.authStatus)
			return
		}
		token := f.tokens[int(n-1)%len(f.tokens)]
		_ = json.NewEncoder(w).Encode(map[string]any{"message": map[string]any{"access_token": token}})

	case "/get_list_of_locks":
		atomic.AddInt32(&f.listCalls, 1)
		if r.Header.Get("Authorization") != "Bearer "+f.validToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"message": map[string]any{"locks_list": f.locks}})

	case "/get_lock_dynamic_pin":
		atomic.AddInt32(&f.pinCalls, 1)
		if r.Header.Get("Authorization") != "Bearer "+f.validToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.NoError(f.t, r.ParseForm())
		f.mu.Lock()
		f.lastForm = map[string]string{
			"device_id":  r.PostForm.Get("device_id"),
			"start_time": r.PostForm.Get("start_time"),
			"end_time":   r.PostForm.Get("end_time"),
		}
		f.mu.Unlock()
		if f.pinStatus != http.StatusOK {
			w.WriteHeader(f.pinStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"message": map[string]any{"data": map[string]any{
			"otp":            f.otp,
			"validStartTime": r.PostForm.Get("start_time"),
			"validEndTime":   r.PostForm.Get("end_time"),
		}}})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestGateway(t *testing.T, vendor *fakeLockVendor, cache TokenCache) (*AtombergGateway, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(vendor)
	t.Cleanup(srv.Close)

	cfg := config.LockConfig{
		Endpoint:     srv.URL + "/",
		APIKey:       "key",
		BearerToken:  "master",
		HTTPTimeout:  2 * time.Second,
		TokenTTL:     time.Hour,
		DirectoryTTL: time.Hour,
	}
	g := NewAtombergGateway(cfg, NewLockSession(cfg.TokenTTL, cfg.DirectoryTTL), cache)
	g.backoff = time.Millisecond
	return g, srv
}

func TestAtombergGatewayIssueOTP(t *testing.T) {
	vendor := newFakeLockVendor(t)
	g, _ := newTestGateway(t, vendor, nil)
	ctx := context.Background()

	deviceID, err := g.ResolveDevice(ctx, "AV 303")
	require.NoError(t, err)
	assert.Equal(t, "dev-303", deviceID)

	numeric, err := g.ResolveDevice(ctx, "AV 304")
	require.NoError(t, err)
	assert.Equal(t, "304", numeric)

	grant, err := g.IssueOTP(ctx, deviceID, 1704875400, 1705037400)
	require.NoError(t, err)
	assert.Equal(t, "4821", grant.OTP)
	assert.Equal(t, int64(1704875400), grant.ValidStartTime)
	assert.Equal(t, int64(1705037400), grant.ValidEndTime)
	vendor.mu.Lock()
	assert.Equal(t, map[string]string{"device_id": "dev-303", "start_time": "1704875400", "end_time": "1705037400"}, vendor.lastForm)
	vendor.mu.Unlock()

	// token and directory are reused within their TTLs
	assert.Equal(t, int32(1), atomic.LoadInt32(&vendor.authCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&vendor.listCalls))
}

func TestAtombergGatewayNumericOTP(t *testing.T) {
	vendor := newFakeLockVendor(t)
	vendor.otp = 905512
	g, _ := newTestGateway(t, vendor, nil)

	grant, err := g.IssueOTP(context.Background(), "dev-303", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "905512", grant.OTP)
}

func TestAtombergGatewayDeviceNotFound(t *testing.T) {
	vendor := newFakeLockVendor(t)
	g, _ := newTestGateway(t, vendor, nil)

	_, err := g.ResolveDevice(context.Background(), "Penthouse")
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.KindDeviceNotFound))
}

func TestAtombergGatewayEmptyOTPIsRejected(t *testing.T) {
	vendor := newFakeLockVendor(t)
	vendor.otp = ""
	g, _ := newTestGateway(t, vendor, nil)

	_, err := g.IssueOTP(context.Background(), "dev-303", 1, 2)
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.KindVendorRejected))
}

func TestAtombergGatewayVendorError(t *testing.T) {
	vendor := newFakeLockVendor(t)
	vendor.pinStatus = http.StatusBadRequest
	g, _ := newTestGateway(t, vendor, nil)

	_, err := g.IssueOTP(context.Background(), "dev-303", 1, 2)
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.KindVendorRejected))
	assert.Equal(t, int32(1), atomic.LoadInt32(&vendor.pinCalls))
}

func TestAtombergGatewayReauthenticatesOnce(t *testing.T) {
	vendor := newFakeLockVendor(t)
	g, _ := newTestGateway(t, vendor, nil)
	ctx := context.Background()

	_, err := g.IssueOTP(ctx, "dev-303", 1, 2)
	require.NoError(t, err)

	// vendor rotates the token: the cached one is now rejected
	vendor.validToken = "tok-2"
	grant, err := g.IssueOTP(ctx, "dev-303", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "4821", grant.OTP)
	assert.Equal(t, int32(2), atomic.LoadInt32(&vendor.authCalls))
	assert.Equal(t, int32(3), atomic.LoadInt32(&vendor.pinCalls))

	token, ok := g.Session().Token()
	assert.True(t, ok)
	assert.Equal(t, "tok-2", token)
}

func TestAtombergGatewayGivesUpAfterOneReauth(t *testing.T) {
	vendor := newFakeLockVendor(t)
	vendor.validToken = "never"
	g, _ := newTestGateway(t, vendor, nil)

	_, err := g.IssueOTP(context.Background(), "dev-303", 1, 2)
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.KindAuthFailure))
	assert.Equal(t, int32(2), atomic.LoadInt32(&vendor.authCalls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&vendor.pinCalls))
}

func TestAtombergGatewayAuthFailure(t *testing.T) {
	vendor := newFakeLockVendor(t)
	vendor.authStatus = http.StatusInternalServerError
	g, _ := newTestGateway(t, vendor, nil)

	_, err := g.Authenticate(context.Background())
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.KindAuthFailure))
	assert.NotContains(t, err.Error(), "master")
}

func TestAtombergGatewayUnreachable(t *testing.T) {
	vendor := newFakeLockVendor(t)
	g, srv := newTestGateway(t, vendor, nil)
	srv.Close()

	_, err := g.Authenticate(context.Background())
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.KindAuthFailure))
}

type memoryTokenCache struct {
	mu    sync.Mutex
	token string
}

func (m *memoryTokenCache) GetToken(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *memoryTokenCache) SetToken(_ context.Context, token string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *memoryTokenCache) DeleteToken(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

func TestAtombergGatewaySharesTokenThroughCache(t *testing.T) {
	vendor := newFakeLockVendor(t)
	cache := &memoryTokenCache{}

	first, _ := newTestGateway(t, vendor, cache)
	_, err := first.IssueOTP(context.Background(), "dev-303", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", cache.token)

	second, _ := newTestGateway(t, vendor, cache)
	_, err = second.IssueOTP(context.Background(), "dev-303", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&vendor.authCalls))
}

func TestAtombergGatewayRefresh(t *testing.T) {
	vendor := newFakeLockVendor(t)
	g, _ := newTestGateway(t, vendor, nil)

	require.NoError(t, g.Refresh(context.Background()))
	assert.Equal(t, 2, g.Session().DeviceCount())
}

func TestLockSessionExpiry(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	s := NewLockSession(time.Minute, time.Hour)
	s.now = func() time.Time { return now }

	_, ok := s.Token()
	assert.False(t, ok)

	s.SetToken("abc")
	tok, ok := s.Token()
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	now = now.Add(2 * time.Minute)
	_, ok = s.Token()
	assert.False(t, ok)

	_, _, stale := s.Device("AV 303")
	assert.True(t, stale)
	s.SetDevices(map[string]string{"AV 303": "dev"})
	id, found, stale := s.Device("AV 303")
	assert.Equal(t, "dev", id)
	assert.True(t, found)
	assert.False(t, stale)

	s.SetToken("new")
	s.InvalidateToken("abc")
	tok, ok = s.Token()
	assert.True(t, ok)
	assert.Equal(t, "new", tok)
}
