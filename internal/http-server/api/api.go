package api

import (
	"WaRelay/internal/config"
	"WaRelay/internal/http-server/handlers/errors"
	"WaRelay/internal/http-server/handlers/events"
	"WaRelay/internal/http-server/handlers/message"
	"WaRelay/internal/http-server/handlers/whatsapp"
	"WaRelay/internal/http-server/middleware/authenticate"
	"WaRelay/internal/http-server/middleware/logrequest"
	"WaRelay/internal/http-server/middleware/timeout"
	"WaRelay/internal/lib/sl"
	"WaRelay/internal/ws"
	"context"
	"fmt"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	whatsapp.Core
	message.Core
}

func New(conf *config.Config, log *slog.Logger, handler Handler, hub *ws.Hub) *Server {
	server := &Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:           NewRouter(log, handler, hub),
		ErrorLog:          httpLog,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return server
}

func NewRouter(log *slog.Logger, handler Handler, hub *ws.Hub) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(logrequest.New(log))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Route("/webhooks/whatsapp", func(r chi.Router) {
		r.Use(timeout.Timeout(5))
		r.Get("/", whatsapp.WebhookVerify(log, handler))
		r.Post("/", whatsapp.WebhookHandler(log, handler))
	})

	router.Route("/api/v1", func(v1 chi.Router) {
		if hub != nil {
			v1.Get("/events", events.Feed(log, hub, handler))
		}
		v1.Group(func(r chi.Router) {
			r.Use(timeout.Timeout(15))
			r.Use(render.SetContentType(render.ContentTypeJSON))
			r.Use(authenticate.New(log, handler))
			r.Post("/messages/send", message.Send(log, handler))
		})
	})

	return router
}

// Serve blocks until ctx is cancelled or the listener fails.
func (s *Server) Serve(ctx context.Context) error {
	serverAddress := fmt.Sprintf("%s:%s", s.conf.Listen.BindIP, s.conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	s.log.Info("starting api server", slog.String("address", serverAddress))

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- s.httpServer.Serve(listener)
	}()

	select {
	case err = <-serverErrors:
		return err
	case <-ctx.Done():
		s.log.Info("shutting down api server")
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err = s.httpServer.Shutdown(shutCtx); err != nil {
			_ = s.httpServer.Close()
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	}
}
