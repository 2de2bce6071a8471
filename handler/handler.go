// Package handler exposes the chat use case over API Gateway and plain HTTP.
package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"cargo-chat/internal/auth"
	"cargo-chat/internal/domain"
	"cargo-chat/internal/usecase"
)

const (
	HeaderCorrelationID = "X-Correlation-Id"
	contentTypeJSON     = "application/json"
	contentTypeProblem  = "application/problem+json"

	transportLambda = "lambda"
	transportHTTP   = "http"
)

type Chatter interface {
	Chat(ctx context.Context, in usecase.ChatInput) (usecase.ChatOutput, error)
}

// RequestRecorder counts finished requests. A nil recorder is allowed.
type RequestRecorder interface {
	RecordRequest(transport string, status int)
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// problemResponse follows the RFC 7807 shape plus a machine-readable code.
type problemResponse struct {
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
	Status int    `json:"status"`
	Code   string `json:"code"`
}

type Handler struct {
	uc      Chatter
	logger  *slog.Logger
	metrics RequestRecorder
}

type Option func(*Handler)

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

func WithMetrics(m RequestRecorder) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

func NewHandler(uc Chatter, opts ...Option) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: use case must not be nil")
	}
	h := &Handler{
		uc:     uc,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Handle serves an API Gateway proxy event. Every failure becomes a
// well-formed response; the returned error is always nil.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := correlationIDFrom(headerLookup(event.Headers))
	logger := h.logger.With(slog.String("correlation_id", correlationID))

	who, err := auth.FromAuthorizer(event.RequestContext.Authorizer)
	if err != nil {
		logger.WarnContext(ctx, "ignoring authorizer claims", slog.String("error", err.Error()))
	}

	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, decErr := base64.StdEncoding.DecodeString(event.Body)
		if decErr != nil {
			status, payload := h.fail(ctx, logger, invalidBody(decErr))
			return h.lambdaResponse(status, payload, correlationID), nil
		}
		body = decoded
	}

	status, payload := h.serve(ctx, logger, body, who)
	return h.lambdaResponse(status, payload, correlationID), nil
}

func (h *Handler) lambdaResponse(status int, payload any, correlationID string) events.APIGatewayProxyResponse {
	h.record(transportLambda, status)
	contentType, raw := encode(status, payload)
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":      contentType,
			HeaderCorrelationID: correlationID,
		},
		Body: string(raw),
	}
}

// serve runs one chat request and returns the status and JSON payload.
func (h *Handler) serve(ctx context.Context, logger *slog.Logger, body []byte, who domain.Identity) (int, any) {
	messages, err := decodeMessages(body)
	if err != nil {
		return h.fail(ctx, logger, invalidBody(err))
	}

	out, err := h.uc.Chat(ctx, usecase.ChatInput{Messages: messages, Identity: who})
	if err != nil {
		return h.fail(ctx, logger, err)
	}
	logger.InfoContext(ctx, "chat answered",
		slog.String("intent", out.Intent),
		slog.Int("status", http.StatusOK),
	)
	return http.StatusOK, chatResponse{Reply: out.Reply}
}

func (h *Handler) fail(ctx context.Context, logger *slog.Logger, err error) (int, any) {
	var ue *usecase.Error
	if !errors.As(err, &ue) {
		ue = &usecase.Error{Code: usecase.ErrorInternal, Reason: "unexpected", Err: err}
	}
	status := ue.HTTPStatus()
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.Log(ctx, level, "chat failed",
		slog.String("code", string(ue.Code)),
		slog.String("reason", ue.Reason),
		slog.Int("status", status),
		slog.String("error", ue.Error()),
	)
	return status, problemResponse{
		Title:  ue.Title(),
		Detail: ue.Detail,
		Status: status,
		Code:   string(ue.Code),
	}
}

func (h *Handler) record(transport string, status int) {
	if h.metrics != nil {
		h.metrics.RecordRequest(transport, status)
	}
}

func invalidBody(err error) error {
	return &usecase.Error{
		Code:   usecase.ErrorInvalidInput,
		Reason: "invalid_body",
		Detail: "request body must be a JSON array of messages or an object with a messages array",
		Err:    err,
	}
}

// decodeMessages accepts either [{role, content}, ...] or {"messages": [...]}.
func decodeMessages(body []byte) ([]domain.ChatMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("empty body")
	}
	if trimmed[0] == '[' {
		var messages []domain.ChatMessage
		if err := json.Unmarshal(trimmed, &messages); err != nil {
			return nil, err
		}
		return messages, nil
	}
	var wrapped struct {
		Messages []domain.ChatMessage `json:"messages"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Messages, nil
}

func encode(status int, payload any) (string, []byte) {
	contentType := contentTypeJSON
	if status >= http.StatusBadRequest {
		contentType = contentTypeProblem
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return contentTypeProblem, []byte(`{"title":"Internal error","status":500,"code":"INTERNAL_ERROR"}`)
	}
	return contentType, raw
}

func headerLookup(headers map[string]string) func(string) string {
	return func(name string) string {
		for k, v := range headers {
			if strings.EqualFold(k, name) {
				return v
			}
		}
		return ""
	}
}

func correlationIDFrom(get func(string) string) string {
	if id := strings.TrimSpace(get(HeaderCorrelationID)); id != "" {
		return id
	}
	return uuid.NewString()
}
