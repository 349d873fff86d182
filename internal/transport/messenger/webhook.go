package messenger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sandevgo/hashia/internal/core"
	"github.com/sandevgo/hashia/pkg/log"
)

const (
	maxBodyBytes = 5 << 20

	// DefaultCancelGrace is how long cancelled events get to unwind after the
	// shutdown deadline before the server stops waiting for them.
	DefaultCancelGrace = 5 * time.Second
)

// EventHandler processes one inbound event. It is called synchronously,
// before the webhook answers.
type EventHandler interface {
	Handle(ctx context.Context, event core.Event)
}

// Server is the Messenger webhook endpoint.
type Server struct {
	verifyToken string
	handler     EventHandler
	validator   *EventValidator
	server      *http.Server
	startTime   time.Time

	// eventsCtx parents every event context; Shutdown cancels it once the
	// drain deadline passes.
	eventsCtx    context.Context
	cancelEvents context.CancelFunc
	cancelGrace  time.Duration

	shutdownMu     sync.RWMutex
	isShuttingDown bool
	inFlightReqs   sync.WaitGroup
}

func NewServer(addr, verifyToken string, handler EventHandler) (*Server, error) {
	validator, err := NewEventValidator()
	if err != nil {
		return nil, err
	}

	eventsCtx, cancelEvents := context.WithCancel(context.Background())
	s := &Server{
		verifyToken:  verifyToken,
		handler:      handler,
		validator:    validator,
		startTime:    time.Now(),
		eventsCtx:    eventsCtx,
		cancelEvents: cancelEvents,
		cancelGrace:  DefaultCancelGrace,
	}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /webhook", s.handleVerify)
	mux.HandleFunc("POST /webhook", s.handleEvents)
	return mux
}

func (s *Server) Start(ctx context.Context) error {
	s.server.BaseContext = func(net.Listener) context.Context { return ctx }

	log.FromCtx(ctx).Info().
		Str("addr", s.server.Addr).
		Msg("starting messenger webhook server")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start webhook server: %w", err)
	}
	return nil
}

// Shutdown rejects new requests with 503 and waits for in-flight ones. When
// ctx expires first, the running events are cancelled and get cancelGrace to
// finish, so no turn is appended after the final snapshot.
func (s *Server) Shutdown(ctx context.Context) error {
	logger := log.FromCtx(ctx)

	s.shutdownMu.Lock()
	s.isShuttingDown = true
	s.shutdownMu.Unlock()

	logger.Info().Msg("shutting down webhook server")

	done := make(chan struct{})
	go func() {
		s.inFlightReqs.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Debug().Msg("all in-flight requests completed")
	case <-ctx.Done():
		logger.Warn().Msg("shutdown timeout reached, cancelling in-flight events")
		s.cancelEvents()

		select {
		case <-done:
			logger.Debug().Msg("cancelled events finished")
		case <-time.After(s.cancelGrace):
			logger.Error().Msg("in-flight events ignored cancellation, forcing close")
		}
	}
	s.cancelEvents()

	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cancelGrace)
	defer cancel()
	if err := s.server.Shutdown(closeCtx); err != nil {
		return fmt.Errorf("failed to shutdown webhook server: %w", err)
	}
	return nil
}

// track registers an in-flight request; it reports false once shutdown began.
func (s *Server) track() bool {
	s.shutdownMu.RLock()
	defer s.shutdownMu.RUnlock()
	if s.isShuttingDown {
		return false
	}
	s.inFlightReqs.Add(1)
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startTime).Seconds(),
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	logger := log.FromCtx(r.Context())

	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode == "" || token == "" {
		logger.Warn().Msg("webhook verification failed: missing mode or token")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if mode != "subscribe" || token != s.verifyToken {
		logger.Warn().Str("mode", mode).Msg("webhook verification failed: token mismatch or invalid mode")
		w.WriteHeader(http.StatusForbidden)
		return
	}

	logger.Info().Msg("webhook verified")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, challenge)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if !s.track() {
		http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
		return
	}
	defer s.inFlightReqs.Done()

	startTime := time.Now()

	// Events keep running when the platform drops the connection, but stop
	// when the server gives up waiting on shutdown.
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()
	stop := context.AfterFunc(s.eventsCtx, cancel)
	defer stop()

	logger := log.FromCtx(ctx).With().Str("request_id", uuid.NewString()).Logger()
	ctx = logger.WithContext(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		logger.Error().Err(err).Msg("failed to read request body")
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		logger.Warn().Err(err).Msg("failed to parse webhook body")
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if payload.Object != ObjectPage {
		logger.Warn().Str("object", payload.Object).Msg("received webhook event with invalid object type")
		w.WriteHeader(http.StatusNotFound)
		return
	}

	processed := 0
	for _, entry := range payload.Entry {
		for _, raw := range entry.Messaging {
			if err := s.validator.Validate(raw); err != nil {
				logger.Warn().Err(err).RawJSON("event", raw).Msg("skipping invalid messaging event")
				continue
			}

			var me messagingEvent
			if err := json.Unmarshal(raw, &me); err != nil {
				logger.Warn().Err(err).Msg("skipping undecodable messaging event")
				continue
			}

			event, ok := me.toEvent()
			if !ok {
				logger.Debug().Str("sender", me.Sender.ID).Msg("skipping echo event")
				continue
			}

			logger.Debug().RawJSON("event", raw).Msg("received webhook event")
			s.handler.Handle(ctx, event)
			processed++
		}
	}

	logger.Info().
		Int("events", processed).
		Dur("duration", time.Since(startTime)).
		Msg("webhook request completed")

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "EVENT_RECEIVED")
}
