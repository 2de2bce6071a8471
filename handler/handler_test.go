package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"cargo-chat/internal/domain"
	"cargo-chat/internal/usecase"
)

type stubUseCase struct {
	out   usecase.ChatOutput
	err   error
	in    usecase.ChatInput
	calls int
}

func (s *stubUseCase) Chat(_ context.Context, in usecase.ChatInput) (usecase.ChatOutput, error) {
	s.calls++
	s.in = in
	return s.out, s.err
}

type recordedRequest struct {
	transport string
	status    int
}

type stubRecorder struct {
	requests []recordedRequest
}

func (r *stubRecorder) RecordRequest(transport string, status int) {
	r.requests = append(r.requests, recordedRequest{transport: transport, status: status})
}

func makeEvent(body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/chat",
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

func parseBody[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}

const chatBody = `{"messages":[{"role":"user","content":"Var är min senaste frakt?"}]}`

func TestNewHandler_ValidatesDependency(t *testing.T) {
	_, err := NewHandler(nil)
	require.Error(t, err)
}

func TestHandle_HappyPath(t *testing.T) {
	uc := &stubUseCase{out: usecase.ChatOutput{Reply: "Den är under transport.", Intent: "where"}}
	rec := &stubRecorder{}
	h, err := NewHandler(uc, WithMetrics(rec))
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeEvent(chatBody))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Headers["Content-Type"])
	require.Equal(t, []domain.ChatMessage{{Role: "user", Content: "Var är min senaste frakt?"}}, uc.in.Messages)
	require.False(t, uc.in.Identity.Authenticated)

	out := parseBody[chatResponse](t, resp.Body)
	require.Equal(t, "Den är under transport.", out.Reply)
	require.NotEmpty(t, resp.Headers["X-Correlation-Id"])
	require.Equal(t, []recordedRequest{{transport: "lambda", status: http.StatusOK}}, rec.requests)
}

func TestHandle_AcceptsBareArray(t *testing.T) {
	uc := &stubUseCase{out: usecase.ChatOutput{Reply: "Hej!"}}
	h, err := NewHandler(uc)
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeEvent(`[{"role":"user","content":"Hej"},{"role":"bot","content":"Hej!"}]`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, uc.in.Messages, 2)
	require.Equal(t, "bot", uc.in.Messages[1].Role)
}

func TestHandle_Base64Body(t *testing.T) {
	uc := &stubUseCase{out: usecase.ChatOutput{Reply: "ok"}}
	h, err := NewHandler(uc)
	require.NoError(t, err)

	event := makeEvent(base64.StdEncoding.EncodeToString([]byte(chatBody)))
	event.IsBase64Encoded = true
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, uc.in.Messages, 1)
}

func TestHandle_IdentityFromAuthorizer(t *testing.T) {
	uc := &stubUseCase{out: usecase.ChatOutput{Reply: "ok"}}
	h, err := NewHandler(uc)
	require.NoError(t, err)

	event := makeEvent(chatBody)
	event.RequestContext.Authorizer = map[string]any{
		"claims": map[string]any{"sub": "cust-1", "custom:role": "Customer"},
	}
	_, err = h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, domain.Identity{Authenticated: true, Role: domain.RoleCustomer, UserID: "cust-1"}, uc.in.Identity)
}

func TestHandle_MalformedClaimsAreAnonymous(t *testing.T) {
	uc := &stubUseCase{out: usecase.ChatOutput{Reply: "ok"}}
	h, err := NewHandler(uc)
	require.NoError(t, err)

	event := makeEvent(chatBody)
	event.RequestContext.Authorizer = map[string]any{"claims": "not-a-map"}
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, domain.Anonymous(), uc.in.Identity)
}

func TestHandle_InvalidBody(t *testing.T) {
	for _, body := range []string{`not-json`, ``, `{"messages":"nope"}`} {
		t.Run(body, func(t *testing.T) {
			uc := &stubUseCase{}
			rec := &stubRecorder{}
			h, err := NewHandler(uc, WithMetrics(rec))
			require.NoError(t, err)

			resp, err := h.Handle(context.Background(), makeEvent(body))
			require.NoError(t, err)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			require.Equal(t, "application/problem+json", resp.Headers["Content-Type"])
			require.Zero(t, uc.calls)

			out := parseBody[problemResponse](t, resp.Body)
			require.Equal(t, string(usecase.ErrorInvalidInput), out.Code)
			require.Equal(t, http.StatusBadRequest, out.Status)
			require.Equal(t, "Invalid request", out.Title)
			require.Equal(t, []recordedRequest{{transport: "lambda", status: http.StatusBadRequest}}, rec.requests)
		})
	}
}

func TestHandle_MapsUseCaseErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
		title  string
		detail string
	}{
		{name: "invalid input", err: &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "empty_messages", Detail: "messages must not be empty"}, status: http.StatusBadRequest, code: "INVALID_INPUT", title: "Invalid request", detail: "messages must not be empty"},
		{name: "forbidden", err: &usecase.Error{Code: usecase.ErrorForbidden, Reason: "role_not_allowed"}, status: http.StatusForbidden, code: "FORBIDDEN", title: "Forbidden"},
		{name: "upstream mirrors status", err: &usecase.Error{Code: usecase.ErrorUpstream, Reason: "llm_status", Status: http.StatusServiceUnavailable, Detail: "model is loading"}, status: http.StatusServiceUnavailable, code: "UPSTREAM_ERROR", title: "LLM error", detail: "model is loading"},
		{name: "upstream unavailable", err: &usecase.Error{Code: usecase.ErrorUpstreamUnavailable, Reason: "llm_transport", Detail: "connection refused"}, status: http.StatusInternalServerError, code: "UPSTREAM_UNAVAILABLE", title: "LLM unavailable", detail: "connection refused"},
		{name: "internal", err: &usecase.Error{Code: usecase.ErrorInternal, Reason: "prompt_build_error"}, status: http.StatusInternalServerError, code: "INTERNAL_ERROR", title: "Internal error"},
		{name: "unexpected", err: errors.New("boom"), status: http.StatusInternalServerError, code: "INTERNAL_ERROR", title: "Internal error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc := &stubUseCase{err: tc.err}
			h, err := NewHandler(uc)
			require.NoError(t, err)

			resp, err := h.Handle(context.Background(), makeEvent(chatBody))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			out := parseBody[problemResponse](t, resp.Body)
			require.Equal(t, problemResponse{Title: tc.title, Detail: tc.detail, Status: tc.status, Code: tc.code}, out)
		})
	}
}

func TestHandle_UsesProvidedCorrelationID_CaseInsensitive(t *testing.T) {
	uc := &stubUseCase{out: usecase.ChatOutput{Reply: "ok"}}
	h, err := NewHandler(uc)
	require.NoError(t, err)

	event := makeEvent(chatBody)
	event.Headers["x-correlation-id"] = "corr-123"
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, "corr-123", resp.Headers["X-Correlation-Id"])
}
