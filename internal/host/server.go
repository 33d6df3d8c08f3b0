package host

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.yhsif.com/ctxslog"
	"golang.org/x/sync/errgroup"

	"github.com/AlexYaroshenko/scryfallbot/internal/errs"
)

// MaxBodyBytes caps an inbound webhook body.
const MaxBodyBytes = 1 << 20

// Server is the persistent webhook listener.
type Server struct {
	Addr        string
	WebhookPath string

	// RequestTimeout bounds one handler call. Zero means no limit beyond the
	// client's.
	RequestTimeout time.Duration
	// ShutdownTimeout bounds the graceful drain, 5s when zero.
	ShutdownTimeout time.Duration
}

// Serve listens until ctx is done, then drains in-flight requests.
func (s *Server) Serve(ctx context.Context, h Handler) error {
	server := &http.Server{
		Addr:         s.Addr,
		Handler:      s.Handler(h),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: s.RequestTimeout + 10*time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.InfoContext(ctx, "Started listening", "addr", s.Addr, "path", s.WebhookPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		timeout := s.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(ctx, "Server forced to shutdown", "err", err)
			return err
		}
		slog.InfoContext(ctx, "Server stopped")
		return nil
	})
	return g.Wait()
}

// Handler routes POST WebhookPath to h and GET /health to a liveness probe.
func (s *Server) Handler(h Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.HandleFunc(s.WebhookPath, func(w http.ResponseWriter, r *http.Request) {
		s.webhook(w, r, h)
	})
	return mux
}

func (s *Server) webhook(w http.ResponseWriter, r *http.Request, h Handler) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := ctxslog.Attach(r.Context(), "remoteAddr", r.RemoteAddr)
	if s.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.RequestTimeout)
		defer cancel()
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		status := http.StatusBadRequest
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			status = http.StatusRequestEntityTooLarge
		}
		slog.ErrorContext(ctx, "Unable to read webhook body", "err", err)
		http.Error(w, http.StatusText(status), status)
		return
	}
	if len(body) == 0 {
		slog.ErrorContext(ctx, "Empty webhook request body")
		http.Error(w, errs.Public(errs.Decode("host.webhook", nil)), http.StatusBadRequest)
		return
	}

	out, err := h(ctx, body)
	if err != nil {
		status := StatusFor(err)
		slog.ErrorContext(
			ctx,
			"Handler failed",
			"status", status,
			"err", err,
		)
		http.Error(w, errs.Public(err), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}
