package ginserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authsvc "stayhub/internal/app/services/auth"
	bookingsvc "stayhub/internal/app/services/booking"
	listingsvc "stayhub/internal/app/services/listing"
	domainuser "stayhub/internal/domain/user"
	"stayhub/internal/infra/config"
	"stayhub/internal/infra/obs"
	"stayhub/internal/infra/security"
	"stayhub/internal/infra/storage/memory"
)

type testEnv struct {
	handler http.Handler
	auth    *authsvc.Service
	users   *memory.UserRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	users := memory.NewUserRepository()
	properties := memory.NewPropertyRepository()
	bookings := memory.NewBookingRepository()
	sessions := memory.NewSessionStore()
	box := memory.NewOutbox()

	auth := &authsvc.Service{
		Users:      users,
		Sessions:   sessions,
		Passwords:  security.BcryptHasher{Cost: 4},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: time.Hour,
	}
	listing := &listingsvc.Service{Properties: properties, Users: users, Outbox: box}
	booking := &bookingsvc.Service{Bookings: bookings, Properties: properties, Users: users, Outbox: box}

	server := NewServer(
		config.Config{Env: "test", HTTPAddr: ":0"},
		obs.Middleware{},
		obs.HealthHandlers{},
		Handlers{
			Auth:           AuthHandler{Service: auth},
			Property:       PropertyHandler{Service: listing},
			Booking:        BookingHandler{Service: booking, Properties: properties},
			AuthMiddleware: AuthMiddleware{Service: auth}.Handle,
		},
	)
	return &testEnv{handler: server.Handler, auth: auth, users: users}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewBuffer(raw)
	} else {
		payload = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) register(t *testing.T, email, role string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":    email,
		"name":     "Someone",
		"password": "supersecret",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token
}

// seedAdmin injects an administrator directly; no public endpoint creates one.
func (e *testEnv) seedAdmin(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	hash, err := security.BcryptHasher{Cost: 4}.Hash("supersecret")
	require.NoError(t, err)
	admin, err := domainuser.NewUser(domainuser.CreateParams{
		ID:           "admin-1",
		Email:        "admin@example.com",
		Name:         "Admin",
		PasswordHash: hash,
		Role:         domainuser.RoleAdmin,
	})
	require.NoError(t, err)
	require.NoError(t, e.users.Save(ctx, admin))

	result, err := e.auth.Login(ctx, authsvc.LoginParams{Email: "admin@example.com", Password: "supersecret"})
	require.NoError(t, err)
	return result.Token
}

func decodeID(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

func TestAdminSelfRegistrationRejected(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":    "evil@example.com",
		"name":     "Evil",
		"password": "supersecret",
		"role":     "ADMIN",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListingLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	hostToken := env.register(t, "host@example.com", "HOST")
	guestToken := env.register(t, "guest@example.com", "")
	adminToken := env.seedAdmin(t)

	// Guests may not submit listings.
	rec := env.do(t, http.MethodPost, "/api/v1/properties", guestToken, map[string]any{
		"name": "Nope", "location": "Lisbon", "nightly_rate": 1000,
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/properties", hostToken, map[string]any{
		"name": "Seaside Flat", "location": "Lisbon", "nightly_rate": 2000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	propertyID := decodeID(t, rec)

	// Pending listings are hidden from the public catalog.
	rec = env.do(t, http.MethodGet, "/api/v1/properties", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), propertyID)

	// Non-admins cannot approve.
	rec = env.do(t, http.MethodPost, "/api/v1/properties/"+propertyID+"/approve", hostToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/properties/"+propertyID+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/v1/properties", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), propertyID)

	rec = env.do(t, http.MethodGet, "/api/v1/host/properties", hostToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), propertyID)
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	hostToken := env.register(t, "host@example.com", "HOST")
	guestToken := env.register(t, "guest@example.com", "")
	otherToken := env.register(t, "other@example.com", "")
	adminToken := env.seedAdmin(t)

	rec := env.do(t, http.MethodPost, "/api/v1/properties", hostToken, map[string]any{
		"name": "Seaside Flat", "location": "Lisbon", "nightly_rate": 2000,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	propertyID := decodeID(t, rec)

	checkIn := time.Now().UTC().AddDate(0, 0, 10).Format(time.RFC3339)
	checkOut := time.Now().UTC().AddDate(0, 0, 13).Format(time.RFC3339)
	bookingReq := map[string]any{"property_id": propertyID, "check_in": checkIn, "check_out": checkOut}

	// Anonymous booking is rejected.
	rec = env.do(t, http.MethodPost, "/api/v1/bookings", "", bookingReq)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Booking a pending property fails.
	rec = env.do(t, http.MethodPost, "/api/v1/bookings", guestToken, bookingReq)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/properties/"+propertyID+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/bookings", guestToken, bookingReq)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bookingID := decodeID(t, rec)

	var created struct {
		TotalAmount struct {
			Amount   int64  `json:"amount"`
			Currency string `json:"currency"`
		} `json:"total_amount"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, int64(6000), created.TotalAmount.Amount)
	assert.Equal(t, "REQUESTED", created.Status)

	// Overlapping request conflicts.
	rec = env.do(t, http.MethodPost, "/api/v1/bookings", otherToken, bookingReq)
	require.Equal(t, http.StatusConflict, rec.Code)

	// Only admins confirm.
	rec = env.do(t, http.MethodPost, "/api/v1/bookings/"+bookingID+"/confirm", guestToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/v1/bookings/"+bookingID+"/confirm", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// A stranger cannot cancel someone else's booking.
	rec = env.do(t, http.MethodPost, "/api/v1/bookings/"+bookingID+"/cancel", otherToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// The owner can.
	rec = env.do(t, http.MethodPost, "/api/v1/bookings/"+bookingID+"/cancel", guestToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Cancelling again stays OK.
	rec = env.do(t, http.MethodPost, "/api/v1/bookings/"+bookingID+"/cancel", guestToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/me/bookings", guestToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), bookingID)

	rec = env.do(t, http.MethodGet, "/api/v1/host/bookings", hostToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), bookingID)

	rec = env.do(t, http.MethodGet, "/api/v1/bookings", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), bookingID)

	// Non-admins cannot list everything.
	rec = env.do(t, http.MethodGet, "/api/v1/bookings", guestToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLogoutInvalidatesToken(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "guest@example.com", "")

	rec := env.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
