package handler

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"cargo-chat/internal/domain"
	"cargo-chat/internal/observability"
	"cargo-chat/internal/usecase"
)

func newTestServer(t *testing.T, uc Chatter, metrics *observability.Metrics) *httptest.Server {
	t.Helper()
	opts := []Option{}
	var mh http.Handler
	if metrics != nil {
		opts = append(opts, WithMetrics(metrics))
		mh = metrics.Handler()
	}
	h, err := NewHandler(uc, opts...)
	require.NoError(t, err)
	srv := httptest.NewServer(h.Router(mh))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, body string, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/chat", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}

func TestHTTP_ChatHappyPath(t *testing.T) {
	uc := &stubUseCase{out: usecase.ChatOutput{Reply: "Hej!", Intent: "none"}}
	srv := newTestServer(t, uc, nil)

	resp := post(t, srv, chatBody, map[string]string{
		"X-User-Id":        "cust-1",
		"X-User-Role":      "customer",
		"X-Correlation-Id": "corr-1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.Equal(t, "corr-1", resp.Header.Get("X-Correlation-Id"))
	require.Equal(t, "Hej!", parseBody[chatResponse](t, readAll(t, resp)).Reply)
	require.Equal(t, domain.Identity{Authenticated: true, Role: domain.RoleCustomer, UserID: "cust-1"}, uc.in.Identity)
}

func TestHTTP_NoIdentityHeadersIsAnonymous(t *testing.T) {
	uc := &stubUseCase{out: usecase.ChatOutput{Reply: "ok"}}
	srv := newTestServer(t, uc, nil)

	resp := post(t, srv, chatBody, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("X-Correlation-Id"))
	require.Equal(t, domain.Anonymous(), uc.in.Identity)
}

func TestHTTP_ProblemResponse(t *testing.T) {
	uc := &stubUseCase{err: &usecase.Error{Code: usecase.ErrorForbidden, Reason: "role_not_allowed"}}
	srv := newTestServer(t, uc, nil)

	resp := post(t, srv, chatBody, map[string]string{"X-User-Id": "p-1", "X-User-Role": "pilot"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
	out := parseBody[problemResponse](t, readAll(t, resp))
	require.Equal(t, "FORBIDDEN", out.Code)
	require.Equal(t, http.StatusForbidden, out.Status)
}

func TestHTTP_BodyTooLarge(t *testing.T) {
	uc := &stubUseCase{}
	h, err := NewHandler(uc)
	require.NoError(t, err)

	body := `{"messages":[{"role":"user","content":"` + strings.Repeat("a", maxBodyBytes) + `"}]}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Router(nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "INVALID_INPUT")
	require.Zero(t, uc.calls)
}

func TestHTTP_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &stubUseCase{}, nil)

	resp, err := srv.Client().Get(srv.URL + "/chat")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHTTP_Healthz(t *testing.T) {
	srv := newTestServer(t, &stubUseCase{}, nil)

	resp, err := srv.Client().Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"status":"ok"}`, readAll(t, resp))
}

func TestHTTP_MetricsCountRequests(t *testing.T) {
	uc := &stubUseCase{out: usecase.ChatOutput{Reply: "ok"}}
	srv := newTestServer(t, uc, observability.NewMetrics("cargo_chat"))

	post(t, srv, chatBody, nil)
	post(t, srv, `nope`, nil)

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	text := readAll(t, resp)
	require.Contains(t, text, `cargo_chat_chat_requests_total{status="200",transport="http"} 1`)
	require.Contains(t, text, `cargo_chat_chat_requests_total{status="400",transport="http"} 1`)
}

func TestHTTP_NoMetricsRouteWithoutRegistry(t *testing.T) {
	srv := newTestServer(t, &stubUseCase{}, nil)

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
