package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/01moynul/cancelbuddy/internal/catalog"
	"github.com/01moynul/cancelbuddy/internal/database"
	"github.com/01moynul/cancelbuddy/internal/handlers"
	"github.com/01moynul/cancelbuddy/internal/metrics"
	"github.com/01moynul/cancelbuddy/internal/models"
	"github.com/01moynul/cancelbuddy/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sessionHeader = "X-Session-Key"

var fixedNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

type testServer struct {
	router *gin.Engine
	db     *database.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	db, err := database.OpenDB(ctx, filepath.Join(t.TempDir(), "cancelbuddy.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(ctx, db))

	collector := metrics.New()
	h := &handlers.Handlers{
		Store:   storage.New(db, storage.WithClock(func() time.Time { return fixedNow }), storage.WithStatusObserver(collector.ObserveStatus)),
		Catalog: catalog.Default(),
		Metrics: collector,
		Log:     zap.NewNop(),
		Cookie:  handlers.CookieConfig{Name: "sessionKey", MaxAge: 365 * 24 * time.Hour},
		Version: "test",
	}
	router := SetupRouter(h, Options{AllowedOrigin: "http://localhost:5173", SessionHeader: sessionHeader})
	return &testServer{router: router, db: db}
}

func (s *testServer) do(t *testing.T, method, path, key, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set(sessionHeader, key)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) activatedKey(t *testing.T) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/session/create", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var created struct {
		SessionKey string `json:"sessionKey"`
	}
	decode(t, rec, &created)
	require.NotEmpty(t, created.SessionKey)

	rec = s.do(t, http.MethodPost, "/api/session/activate", created.SessionKey, "")
	require.Equal(t, http.StatusOK, rec.Code)
	return created.SessionKey
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

type errorBody struct {
	Error  string                   `json:"error"`
	Errors []models.ValidationError `json:"errors"`
}

func TestSessionCreateSetsCookie(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/session/create", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		SessionKey string             `json:"sessionKey"`
		Session    models.UserSession `json:"session"`
	}
	decode(t, rec, &body)
	require.Equal(t, body.SessionKey, body.Session.SessionKey)
	require.False(t, body.Session.IsActivated)

	cookie := rec.Result().Cookies()
	require.Len(t, cookie, 1)
	require.Equal(t, "sessionKey", cookie[0].Name)
	require.Equal(t, body.SessionKey, cookie[0].Value)
	require.Equal(t, 365*24*60*60, cookie[0].MaxAge)
	require.True(t, cookie[0].HttpOnly)

	// The cookie alone identifies the caller.
	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.AddCookie(cookie[0])
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		SessionKey *string             `json:"sessionKey"`
		Session    *models.UserSession `json:"session"`
	}
	decode(t, rec, &got)
	require.NotNil(t, got.Session)
	require.Equal(t, body.Session.ID, got.Session.ID)
}

func TestAnonymousCaller(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/session", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"sessionKey":null,"session":null}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/subscriptions", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/settings", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "null", rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/costs", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/subscriptions", "", `{"name":"Netflix","price":9.99,"startDate":"2026-01-01"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/subscriptions/anything", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/session/activate", "", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownSessionKey(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/session", "nope", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"sessionKey":"nope","session":null}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/session/activate", "nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/subscriptions", "nope", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/settings", "nope", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateBeforeActivationIsRejected(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/session/create", "", "")
	var created struct {
		SessionKey string `json:"sessionKey"`
	}
	decode(t, rec, &created)

	rec = s.do(t, http.MethodPost, "/api/subscriptions", created.SessionKey, `{"name":"Netflix","price":9.99,"startDate":"2026-01-01"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/subscriptions", created.SessionKey, "")
	require.JSONEq(t, `[]`, rec.Body.String())
}

func TestSubscriptionLifecycle(t *testing.T) {
	s := newTestServer(t)
	key := s.activatedKey(t)

	// Create with a string price and date-only deadline.
	rec := s.do(t, http.MethodPost, "/api/subscriptions", key,
		`{"name":"Spotify","plan":"Duo","price":"12.99","currency":"usd","startDate":"2026-02-01T09:30","cancelByDate":"2026-03-03"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.Subscription
	decode(t, rec, &created)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "Spotify", created.Name)
	require.Equal(t, 12.99, created.Price)
	require.Equal(t, "USD", created.Currency)
	require.Equal(t, models.StatusWarning, created.Status)
	require.NotNil(t, created.CancelURL)
	require.Equal(t, "https://www.spotify.com/account/", *created.CancelURL)

	// Read it back.
	rec = s.do(t, http.MethodGet, "/api/subscriptions/"+created.ID, key, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Subscription
	decode(t, rec, &got)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, models.StatusWarning, got.Status)

	// Partial update leaves the deadline alone.
	rec = s.do(t, http.MethodPatch, "/api/subscriptions/"+created.ID, key, `{"price":15}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated models.Subscription
	decode(t, rec, &updated)
	require.Equal(t, 15.0, updated.Price)
	require.Equal(t, "Duo", *updated.Plan)
	require.NotNil(t, updated.CancelByDate)
	require.Equal(t, models.StatusWarning, updated.Status)

	// Clearing the deadline makes it safe.
	rec = s.do(t, http.MethodPatch, "/api/subscriptions/"+created.ID, key, `{"cancelByDate":null,"plan":null}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &updated)
	require.Nil(t, updated.CancelByDate)
	require.Nil(t, updated.Plan)
	require.Equal(t, models.StatusSafe, updated.Status)

	// List.
	rec = s.do(t, http.MethodGet, "/api/subscriptions", key, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Subscription
	decode(t, rec, &list)
	require.Len(t, list, 1)

	// Delete twice.
	rec = s.do(t, http.MethodDelete, "/api/subscriptions/"+created.ID, key, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodDelete, "/api/subscriptions/"+created.ID, key, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/subscriptions/"+created.ID, key, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateKeepsExplicitCancelURL(t *testing.T) {
	s := newTestServer(t)
	key := s.activatedKey(t)

	rec := s.do(t, http.MethodPost, "/api/subscriptions", key,
		`{"name":"Netflix","price":17.99,"startDate":"2026-01-01","cancelUrl":"https://example.com/cancel"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.Subscription
	decode(t, rec, &created)
	require.Equal(t, "https://example.com/cancel", *created.CancelURL)
	require.Equal(t, "EUR", created.Currency)
	require.Equal(t, models.StatusSafe, created.Status)
}

func TestCreateRejectsServerOwnedFields(t *testing.T) {
	s := newTestServer(t)
	key := s.activatedKey(t)

	for _, field := range []string{`"status":"safe"`, `"sessionId":"someone-else"`, `"id":"chosen"`} {
		rec := s.do(t, http.MethodPost, "/api/subscriptions", key,
			`{"name":"Netflix","price":9.99,"startDate":"2026-01-01",`+field+`}`)
		require.Equal(t, http.StatusBadRequest, rec.Code, field)
		var body errorBody
		decode(t, rec, &body)
		require.Len(t, body.Errors, 1)
		require.Equal(t, "is not allowed", body.Errors[0].Reason)
	}

	rec := s.do(t, http.MethodGet, "/api/subscriptions", key, "")
	require.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateValidation(t *testing.T) {
	s := newTestServer(t)
	key := s.activatedKey(t)

	cases := []struct {
		body  string
		field string
	}{
		{`{"price":9.99,"startDate":"2026-01-01"}`, "name"},
		{`{"name":"Netflix","startDate":"2026-01-01"}`, "price"},
		{`{"name":"Netflix","price":9.99}`, "startDate"},
		{`{"name":"Netflix","price":-1,"startDate":"2026-01-01"}`, "price"},
		{`{"name":"Netflix","price":9.99,"startDate":"2026-01-01","currency":"EURO"}`, "currency"},
		{`{"name":"Netflix","price":9.99,"startDate":"2026-01-01","cancelUrl":"not a url"}`, "cancelUrl"},
		{`{"name":"   ","price":9.99,"startDate":"2026-01-01"}`, "name"},
	}
	for _, tc := range cases {
		rec := s.do(t, http.MethodPost, "/api/subscriptions", key, tc.body)
		require.Equal(t, http.StatusBadRequest, rec.Code, tc.body)
		var body errorBody
		decode(t, rec, &body)
		require.NotEmpty(t, body.Errors, tc.body)
		require.Equal(t, tc.field, body.Errors[0].Field, tc.body)
	}

	for _, body := range []string{`{"name":"Netflix","price":"cheap","startDate":"2026-01-01"}`, `{"name":"Netflix","price":1,"startDate":"yesterday"}`, `{`, ``} {
		rec := s.do(t, http.MethodPost, "/api/subscriptions", key, body)
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestNonFinitePriceIsRejected(t *testing.T) {
	s := newTestServer(t)
	key := s.activatedKey(t)

	rec := s.do(t, http.MethodPost, "/api/subscriptions", key, `{"name":"Slack","price":6.67,"startDate":"2026-01-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var kept models.Subscription
	decode(t, rec, &kept)

	for _, price := range []string{`"NaN"`, `"Infinity"`, `"-Inf"`} {
		rec := s.do(t, http.MethodPost, "/api/subscriptions", key,
			`{"name":"Netflix","price":`+price+`,"startDate":"2026-01-01"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code, price)
		var body errorBody
		decode(t, rec, &body)
		require.Equal(t, "price", body.Errors[0].Field, price)

		rec = s.do(t, http.MethodPatch, "/api/subscriptions/"+kept.ID, key, `{"price":`+price+`}`)
		require.Equal(t, http.StatusBadRequest, rec.Code, price)
	}

	rec = s.do(t, http.MethodGet, "/api/subscriptions", key, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Subscription
	decode(t, rec, &list)
	require.Equal(t, []models.Subscription{kept}, list)

	rec = s.do(t, http.MethodGet, "/api/costs", key, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Body.String())
}

func TestPatchValidatesLinks(t *testing.T) {
	s := newTestServer(t)
	key := s.activatedKey(t)

	rec := s.do(t, http.MethodPost, "/api/subscriptions", key, `{"name":"Notion","price":8,"startDate":"2026-01-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.Subscription
	decode(t, rec, &created)

	cases := []struct {
		body  string
		field string
	}{
		{`{"cancelUrl":"not a url"}`, "cancelUrl"},
		{`{"logoUrl":"javascript:alert(1)"}`, "logoUrl"},
		{`{"name":"` + strings.Repeat("n", models.MaxNameLength+1) + `"}`, "name"},
	}
	for _, tc := range cases {
		rec := s.do(t, http.MethodPatch, "/api/subscriptions/"+created.ID, key, tc.body)
		require.Equal(t, http.StatusBadRequest, rec.Code, tc.body)
		var body errorBody
		decode(t, rec, &body)
		require.Equal(t, tc.field, body.Errors[0].Field, tc.body)
	}

	rec = s.do(t, http.MethodGet, "/api/subscriptions/"+created.ID, key, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Subscription
	decode(t, rec, &got)
	require.Equal(t, created, got)

	rec = s.do(t, http.MethodPatch, "/api/subscriptions/"+created.ID, key,
		`{"cancelUrl":"https://www.notion.so/account","logoUrl":"https://example.com/n.png"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestCreateRejectsScriptLogo(t *testing.T) {
	s := newTestServer(t)
	key := s.activatedKey(t)

	rec := s.do(t, http.MethodPost, "/api/subscriptions", key,
		`{"name":"Netflix","price":9.99,"startDate":"2026-01-01","logoUrl":"javascript:alert(1)"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorBody
	decode(t, rec, &body)
	require.Equal(t, "logoUrl", body.Errors[0].Field)
}

func TestCreateWithNullCancelURLSkipsCatalog(t *testing.T) {
	s := newTestServer(t)
	key := s.activatedKey(t)

	rec := s.do(t, http.MethodPost, "/api/subscriptions", key,
		`{"name":"Netflix","price":17.99,"startDate":"2026-01-01","cancelUrl":null}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.Subscription
	decode(t, rec, &created)
	require.Nil(t, created.CancelURL)
}

func TestCrossSessionAccessIsNotFound(t *testing.T) {
	s := newTestServer(t)
	keyA := s.activatedKey(t)
	keyB := s.activatedKey(t)

	rec := s.do(t, http.MethodPost, "/api/subscriptions", keyA, `{"name":"Zoom Pro","price":14.99,"startDate":"2026-01-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Subscription
	decode(t, rec, &created)

	require.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/subscriptions/"+created.ID, keyB, "").Code)
	require.Equal(t, http.StatusNotFound, s.do(t, http.MethodPatch, "/api/subscriptions/"+created.ID, keyB, `{"name":"Mine"}`).Code)
	require.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/subscriptions/"+created.ID, keyB, "").Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/subscriptions/"+created.ID, keyA, "").Code)
}

func TestSettings(t *testing.T) {
	s := newTestServer(t)
	key := s.activatedKey(t)

	rec := s.do(t, http.MethodGet, "/api/settings", key, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var settings models.NotificationSettings
	decode(t, rec, &settings)
	require.True(t, settings.PushEnabled)
	require.Equal(t, 3, settings.ReminderDays)

	// A wider window turns a five-day deadline into a warning.
	rec = s.do(t, http.MethodPost, "/api/subscriptions", key, `{"name":"Canva Pro","price":12.99,"startDate":"2026-01-01","cancelByDate":"2026-03-06T12:00:00Z"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var sub models.Subscription
	decode(t, rec, &sub)
	require.Equal(t, models.StatusSafe, sub.Status)

	rec = s.do(t, http.MethodPatch, "/api/settings", key, `{"reminderDays":7,"smsEnabled":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &settings)
	require.Equal(t, 7, settings.ReminderDays)
	require.True(t, settings.SmsEnabled)
	require.True(t, settings.PushEnabled)

	rec = s.do(t, http.MethodGet, "/api/subscriptions/"+sub.ID, key, "")
	decode(t, rec, &sub)
	require.Equal(t, models.StatusWarning, sub.Status)

	for _, body := range []string{`{"reminderDays":0}`, `{"reminderDays":366}`, `{"reminderDays":"3"}`, `{"dailyDigest":true}`} {
		rec = s.do(t, http.MethodPatch, "/api/settings", key, body)
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	rec = s.do(t, http.MethodPatch, "/api/settings", "", `{"reminderDays":5}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCosts(t *testing.T) {
	s := newTestServer(t)
	key := s.activatedKey(t)

	for _, body := range []string{
		`{"name":"Netflix","price":17.99,"startDate":"2026-01-01"}`,
		`{"name":"Spotify","price":9.99,"startDate":"2026-01-01"}`,
		`{"name":"GitHub Pro","price":4,"currency":"USD","startDate":"2026-01-01"}`,
	} {
		require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/subscriptions", key, body).Code)
	}

	rec := s.do(t, http.MethodGet, "/api/costs", key, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var forecasts []models.CostForecast
	decode(t, rec, &forecasts)
	require.Equal(t, []models.CostForecast{
		{Currency: "EUR", Subscriptions: 2, Monthly: 27.98, SixMonths: 167.88, Yearly: 335.76},
		{Currency: "USD", Subscriptions: 1, Monthly: 4, SixMonths: 24, Yearly: 48},
	}, forecasts)
}

func TestCatalogRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/catalog/services", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var services []catalog.Service
	decode(t, rec, &services)
	require.Len(t, services, 17)

	rec = s.do(t, http.MethodGet, "/api/catalog/services/netflix", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var svc catalog.Service
	decode(t, rec, &svc)
	require.Equal(t, "https://www.netflix.com/cancelplan", svc.CancelURL)

	rec = s.do(t, http.MethodGet, "/api/catalog/services/blockbuster", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOperationalRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	decode(t, rec, &health)
	require.Equal(t, "healthy", health["status"])
	require.Equal(t, "test", health["version"])

	rec = s.do(t, http.MethodGet, "/ready", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ready"}`, rec.Body.String())

	s.do(t, http.MethodGet, "/api/subscriptions", "", "")
	rec = s.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `cancelbuddy_http_requests_total{method="GET",path="/api/subscriptions",status_code="200"} 1`)

	require.NoError(t, s.db.Close())
	rec = s.do(t, http.MethodGet, "/ready", "", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "not-ready")
}

func TestStorageFailureIsServiceUnavailable(t *testing.T) {
	s := newTestServer(t)
	key := s.activatedKey(t)
	require.NoError(t, s.db.Close())

	rec := s.do(t, http.MethodGet, "/api/subscriptions", key, "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodOptions, "/api/subscriptions", "", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), sessionHeader)
}
