package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/codes"

	"cargo-chat/internal/domain"
	"cargo-chat/internal/grounding"
	"cargo-chat/internal/intent"
	"cargo-chat/internal/telemetry"
)

const (
	defaultMaxMessages      = 100
	defaultMaxMessageLength = 4000
	intentNone              = "none"
)

type LLMClient interface {
	Chat(ctx context.Context, model string, messages []domain.ChatMessage) (string, error)
}

type GroundingSelector interface {
	Select(ctx context.Context, who domain.Identity, r intent.Result) (grounding.Grounding, error)
}

// Recorder receives per-request measurements. A nil Recorder is allowed.
type Recorder interface {
	RecordIntent(kind string)
	ObserveLLM(d time.Duration, outcome string)
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

type responseBodier interface {
	ResponseBody() string
}

type ChatService struct {
	llm      LLMClient
	selector GroundingSelector
	model    string
	logger   *slog.Logger
	metrics  Recorder

	maxMessages      int
	maxMessageLength int
}

type ChatOptions struct {
	Model            string
	MaxMessages      int
	MaxMessageLength int
	Logger           *slog.Logger
	Metrics          Recorder
}

type ChatInput struct {
	Messages []domain.ChatMessage
	Identity domain.Identity
}

type ChatOutput struct {
	Reply string
	// Intent is the grounding tag that shaped the reply, or "none".
	Intent string
}

func NewChatService(llm LLMClient, selector GroundingSelector, opts ChatOptions) (*ChatService, error) {
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	if selector == nil {
		return nil, errors.New("usecase: grounding selector must not be nil")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, errors.New("usecase: model must not be empty")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = noopRecorder{}
	}
	if opts.MaxMessages <= 0 {
		opts.MaxMessages = defaultMaxMessages
	}
	if opts.MaxMessageLength <= 0 {
		opts.MaxMessageLength = defaultMaxMessageLength
	}
	return &ChatService{
		llm:              llm,
		selector:         selector,
		model:            model,
		logger:           logger,
		metrics:          metrics,
		maxMessages:      opts.MaxMessages,
		maxMessageLength: opts.MaxMessageLength,
	}, nil
}

// Chat answers the last user turn of in.Messages. Grounding failures degrade
// to an ungrounded reply; only the role gate, input limits and the LLM call
// can fail the request.
func (s *ChatService) Chat(ctx context.Context, in ChatInput) (ChatOutput, error) {
	who := in.Identity
	if who.Authenticated && !who.IsCustomer() {
		return ChatOutput{}, newError(ErrorForbidden, "role_not_allowed", nil)
	}
	if err := s.validate(in.Messages); err != nil {
		return ChatOutput{}, err
	}

	resolved := intent.Resolve(in.Messages)
	gctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanGrounding)
	g, err := s.selector.Select(gctx, who, resolved)
	if err != nil {
		span.RecordError(err)
		s.logger.WarnContext(ctx, "grounding unavailable, answering without data",
			slog.String("error", err.Error()),
		)
		g = grounding.Grounding{}
	}

	kind := intentNone
	if g.HasPayload() {
		kind = g.Payload.Intent()
	}
	span.SetAttributes(telemetry.AttrIntent.String(kind))
	span.End()
	s.metrics.RecordIntent(kind)

	prompt, err := buildPromptMessages(in.Messages, g)
	if err != nil {
		return ChatOutput{}, newError(ErrorInternal, "prompt_build_error", err)
	}

	lctx, llmSpan := telemetry.Tracer().Start(ctx, telemetry.SpanLLM)
	defer llmSpan.End()
	llmSpan.SetAttributes(
		telemetry.AttrModel.String(s.model),
		telemetry.AttrMessages.Int(len(prompt)),
	)

	start := time.Now()
	reply, err := s.llm.Chat(lctx, s.model, prompt)
	if err != nil {
		uerr := upstreamError(err)
		llmSpan.RecordError(err)
		llmSpan.SetStatus(codes.Error, string(uerr.Code))
		llmSpan.SetAttributes(telemetry.AttrOutcome.String(string(uerr.Code)))
		s.metrics.ObserveLLM(time.Since(start), string(uerr.Code))
		s.logger.ErrorContext(ctx, "llm call failed",
			slog.Int("status", uerr.HTTPStatus()),
			slog.String("detail", uerr.Detail),
			slog.String("intent", kind),
		)
		return ChatOutput{}, uerr
	}
	llmSpan.SetAttributes(telemetry.AttrOutcome.String("ok"))
	s.metrics.ObserveLLM(time.Since(start), "ok")

	return ChatOutput{Reply: reply, Intent: kind}, nil
}

func (s *ChatService) validate(messages []domain.ChatMessage) error {
	if len(messages) == 0 {
		return &Error{Code: ErrorInvalidInput, Reason: "empty_messages", Detail: "messages must not be empty"}
	}
	if len(messages) > s.maxMessages {
		return &Error{Code: ErrorInvalidInput, Reason: "too_many_messages", Detail: "too many messages"}
	}
	for _, m := range messages {
		if utf8.RuneCountInString(m.Content) > s.maxMessageLength {
			return &Error{Code: ErrorInvalidInput, Reason: "message_too_long", Detail: "message too long"}
		}
	}
	return nil
}

// upstreamError mirrors an upstream HTTP status; anything else is a transport failure.
func upstreamError(err error) *Error {
	var statusErr httpStatusCoder
	if errors.As(err, &statusErr) {
		e := newError(ErrorUpstream, "llm_status", err)
		if code := statusErr.HTTPStatusCode(); code >= 400 && code <= 599 {
			e.Status = code
		}
		var bodier responseBodier
		if errors.As(err, &bodier) {
			e.Detail = bodier.ResponseBody()
		}
		return e
	}
	return &Error{
		Code:   ErrorUpstreamUnavailable,
		Reason: "llm_transport",
		Status: http.StatusInternalServerError,
		Detail: err.Error(),
		Err:    err,
	}
}

type noopRecorder struct{}

func (noopRecorder) RecordIntent(string) {}
func (noopRecorder) ObserveLLM(time.Duration, string) {}
