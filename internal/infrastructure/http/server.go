// Package http provides the HTTP server infrastructure.
// Clean Architecture: Framework/driver layer - outermost circle.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/0xcro3dile/clausesmith/internal/domain/entities"
	"github.com/0xcro3dile/clausesmith/internal/domain/usecases"
)

const maxBodyBytes = 1 << 20

// Drafter is the single outward operation of the drafting core.
type Drafter interface {
	Evaluate(ctx context.Context, prompt string) (*entities.Evaluation, error)
}

// Summarizer condenses contract text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// IndexCounter reports how many passages are indexed.
type IndexCounter interface {
	Count(ctx context.Context) (int, error)
}

// Options configures a Server. Zero durations fall back to defaults.
type Options struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
	RateLimit      int // per client per second, 0 disables
	RateBurst      int
}

// Server is the HTTP server for the drafting API.
type Server struct {
	drafter    Drafter
	summarizer Summarizer
	index      IndexCounter
	opts       Options
	limiter    *ClientRateLimiter
}

// NewServer creates a new HTTP server. summarizer and index may be nil.
func NewServer(drafter Drafter, summarizer Summarizer, index IndexCounter, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 15 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 300 * time.Second
	}
	s := &Server{
		drafter:    drafter,
		summarizer: summarizer,
		index:      index,
		opts:       opts,
	}
	if opts.RateLimit > 0 {
		s.limiter = NewClientRateLimiter(opts.RateLimit, opts.RateBurst)
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/evaluate", s.handleEvaluate)
	mux.HandleFunc("/api/evaluate", s.handleEvaluate)
	mux.HandleFunc("/api/summarize", s.handleSummarize)
	mux.HandleFunc("/api/health", s.handleHealth)

	var h http.Handler = mux
	if s.limiter != nil {
		h = s.limiter.Middleware(h)
	}
	return corsMiddleware(requestIDMiddleware(loggingMiddleware(h)))
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	if s.limiter != nil {
		go s.limiter.Cleanup(ctx, time.Minute, 3*time.Minute)
	}

	log.Printf("[INFO] Clausesmith server starting on %s", s.opts.Addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type evaluateRequest struct {
	Prompt string `json:"prompt"`
}

type evaluateResponse struct {
	Clause          string             `json:"clause"`
	Risk            entities.RiskLevel `json:"risk"`
	Classification  entities.Category  `json:"classification"`
	Source          string             `json:"source"`
	FeedbackOptions []string           `json:"feedback_options"`
	Attempts        int                `json:"attempts"`
	Reasoning       string             `json:"reasoning,omitempty"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req evaluateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	eval, err := s.drafter.Evaluate(ctx, req.Prompt)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			log.Printf("[ERROR] [%s] evaluate: %v", usecases.RequestID(ctx), err)
			writeError(w, status, "failed to draft clause")
			return
		}
		writeError(w, status, publicMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, evaluateResponse{
		Clause:          eval.Clause,
		Risk:            eval.Risk,
		Classification:  eval.Category,
		Source:          eval.SourceID,
		FeedbackOptions: eval.FeedbackOptions,
		Attempts:        eval.Attempts,
		Reasoning:       eval.Reasoning,
	})
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.summarizer == nil {
		writeError(w, http.StatusNotImplemented, "summarization is not configured")
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	summary, err := s.summarizer.Summarize(ctx, req.Text)
	if err != nil {
		if errors.Is(err, usecases.ErrEmptyText) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("[ERROR] [%s] summarize: %v", usecases.RequestID(ctx), err)
		writeError(w, http.StatusInternalServerError, "failed to summarize text")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

// requestContext bounds model-backed handlers by RequestTimeout.
func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.opts.RequestTimeout > 0 {
		return context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	}
	return context.WithCancel(r.Context())
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if s.index != nil {
		n, err := s.index.Count(r.Context())
		if err != nil {
			log.Printf("[WARN] health: counting index: %v", err)
			resp["status"] = "degraded"
		} else {
			resp["passages"] = n
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entities.ErrInvalidIntent):
		return http.StatusBadRequest
	case errors.Is(err, entities.ErrNoPassages):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func publicMessage(err error) string {
	var verr *entities.ValidationError
	if errors.As(err, &verr) {
		return verr.Reason
	}
	if errors.Is(err, entities.ErrNoPassages) {
		return "no relevant context found for this request"
	}
	return err.Error()
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
