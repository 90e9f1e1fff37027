package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "ticketwizard/docs"
	"ticketwizard/internal/adapters/auth"
	"ticketwizard/internal/adapters/eventapi"
	"ticketwizard/internal/delivery/http/controllers"
	"ticketwizard/internal/delivery/http/helpers"
	"ticketwizard/internal/repository/memory"
	"ticketwizard/internal/services"
	"ticketwizard/internal/wizard"
)

const testSecret = "router-secret"

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

func bearer(t *testing.T, subject string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   subject,
		"email": subject + "@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

type routerFixture struct {
	mux     *http.ServeMux
	apiHits *atomic.Int32
	apiAuth atomic.Value
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	f := &routerFixture{apiHits: &atomic.Int32{}}
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.apiHits.Add(1)
		f.apiAuth.Store(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"data":{"id":"evt-9","slug":"gala"}}`)
	}))
	t.Cleanup(api.Close)

	store := wizard.NewDraftStore(memory.NewDraftRepository(), testLogger, 0)
	submitter := eventapi.NewClient(api.URL, api.Client(), testLogger)
	svc := services.NewWizardService(store, submitter, nil, testLogger, 5*time.Second)
	ctrl := controllers.NewWizardController(testLogger, svc)
	f.mux = NewRouter(ctrl, auth.NewJWTVerifier(testSecret), testLogger)
	return f
}

func (f *routerFixture) do(t *testing.T, method, path, authz string, body io.Reader, contentType string) (*httptest.ResponseRecorder, helpers.APIResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	f.mux.ServeHTTP(rr, req)
	var envelope helpers.APIResponse
	if rr.Body.Len() > 0 && strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
	}
	return rr, envelope
}

func (f *routerFixture) json(t *testing.T, method, path, authz, body string) (*httptest.ResponseRecorder, helpers.APIResponse) {
	t.Helper()
	return f.do(t, method, path, authz, strings.NewReader(body), "application/json")
}

func TestRouter_RequiresBearerToken(t *testing.T) {
	f := newRouterFixture(t)

	rr, envelope := f.do(t, http.MethodGet, "/wizard", "", nil, "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, helpers.ErrCodeUnauthorized, envelope.Error.Code)

	rr, _ = f.do(t, http.MethodGet, "/wizard", "Bearer not-a-jwt", nil, "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouter_Health(t *testing.T) {
	f := newRouterFixture(t)
	rr, envelope := f.do(t, http.MethodGet, "/health", "", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, envelope.Error)
}

func TestRouter_Swagger(t *testing.T) {
	f := newRouterFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
	rr := httptest.NewRecorder()
	f.mux.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "/wizard/submit")
}

func TestRouter_WizardFlow(t *testing.T) {
	f := newRouterFixture(t)
	authz := bearer(t, "alice")

	rr, envelope := f.do(t, http.MethodGet, "/wizard", authz, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr, envelope = f.do(t, http.MethodPost, "/wizard/next", authz, nil, "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "title", envelope.Error.Field)
	assert.Equal(t, 1, envelope.Error.Step)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "cover.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
	require.NoError(t, mw.Close())
	rr, _ = f.do(t, http.MethodPut, "/wizard/image", authz, &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusOK, rr.Code)

	rr, _ = f.json(t, http.MethodPatch, "/wizard/draft", authz,
		`{"title":"Gala","description":"A night","date":"2025-01-01","time":"19:00","venue":"Hall A","location":"Lagos","isVirtual":false}`)
	require.Equal(t, http.StatusOK, rr.Code)
	rr, _ = f.do(t, http.MethodPost, "/wizard/next", authz, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr, _ = f.json(t, http.MethodPost, "/wizard/tickets", authz, `{"name":"VIP","price":"100","quantity":"2"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	for _, email := range []string{"a@example.com", "b@example.com"} {
		rr, _ = f.json(t, http.MethodPost, "/wizard/tickets/0/attendees", authz, `{"name":"Guest","email":"`+email+`"}`)
		require.Equal(t, http.StatusOK, rr.Code)
	}
	rr, envelope = f.json(t, http.MethodPost, "/wizard/tickets/0/attendees", authz, `{"name":"Guest","email":"c@example.com"}`)
	require.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, helpers.ErrCodeConflict, envelope.Error.Code)

	rr, _ = f.do(t, http.MethodPost, "/wizard/submit", authz, nil, "")
	require.Equal(t, http.StatusBadRequest, rr.Code, "submit before the last step")
	assert.Equal(t, int32(0), f.apiHits.Load())

	for i := 0; i < 2; i++ {
		rr, _ = f.do(t, http.MethodPost, "/wizard/next", authz, nil, "")
		require.Equal(t, http.StatusOK, rr.Code)
	}
	rr, envelope = f.do(t, http.MethodPost, "/wizard/submit", authz, nil, "")
	require.Equal(t, http.StatusCreated, rr.Code)
	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "evt-9", data["id"])
	assert.Equal(t, "gala", data["slug"])
	assert.Equal(t, int32(1), f.apiHits.Load())
	assert.Equal(t, authz, f.apiAuth.Load(), "caller's token is forwarded")

	rr, envelope = f.do(t, http.MethodGet, "/wizard", authz, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	state, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), state["step"], "wizard starts over after submitting")
}

func TestRouter_Abandon(t *testing.T) {
	f := newRouterFixture(t)
	authz := bearer(t, "bob")

	rr, _ := f.json(t, http.MethodPatch, "/wizard/draft", authz, `{"title":"Draft"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr, _ = f.do(t, http.MethodDelete, "/wizard", authz, nil, "")
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr, envelope := f.do(t, http.MethodGet, "/wizard", authz, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	state := envelope.Data.(map[string]any)
	draft := state["draft"].(map[string]any)
	assert.Equal(t, "", draft["title"])
}
