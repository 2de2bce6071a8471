package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"cargo-chat/internal/auth"
)

// maxBodyBytes caps request bodies on the HTTP transport.
const maxBodyBytes = 1 << 20

// Router serves POST /chat and GET /healthz. When metrics is non-nil,
// GET /metrics is mounted as well.
func (h *Handler) Router(metrics http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/chat", h.serveHTTP)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentTypeJSON)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}
	return otelhttp.NewHandler(r, "chat")
}

func (h *Handler) serveHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := correlationIDFrom(r.Header.Get)
	logger := h.logger.With(slog.String("correlation_id", correlationID))

	who, err := auth.FromHeaders(r.Header)
	if err != nil {
		logger.WarnContext(ctx, "ignoring identity headers", slog.String("error", err.Error()))
	}

	var (
		status  int
		payload any
	)
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = errors.New("request body too large")
		}
		status, payload = h.fail(ctx, logger, invalidBody(err))
	} else {
		status, payload = h.serve(ctx, logger, body, who)
	}

	h.record(transportHTTP, status)
	contentType, raw := encode(status, payload)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set(HeaderCorrelationID, correlationID)
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}
