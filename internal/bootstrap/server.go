package bootstrap

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Grindin247/decision-system/pkg/log"
	"github.com/gofiber/fiber/v2"
)

const defaultShutdownTimeout = 30 * time.Second

// Server runs the fiber application and shuts it down gracefully on
// SIGINT/SIGTERM or when the shutdown channel closes.
type Server struct {
	app             *fiber.App
	address         string
	logger          log.Logger
	shutdownTimeout time.Duration
	shutdownChan    <-chan struct{}
	closers         []func() error
}

// NewServer creates a server runner.
func NewServer(app *fiber.App, address string, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNop()
	}

	return &Server{
		app:             app,
		address:         address,
		logger:          logger,
		shutdownTimeout: defaultShutdownTimeout,
	}
}

// WithShutdownChannel lets tests trigger shutdown deterministically instead
// of waiting for OS signals.
func (s *Server) WithShutdownChannel(ch <-chan struct{}) *Server {
	s.shutdownChan = ch
	return s
}

// OnShutdown registers a resource closer invoked after the HTTP listener
// stops, in registration order.
func (s *Server) OnShutdown(closer func() error) *Server {
	s.closers = append(s.closers, closer)
	return s
}

// Run blocks until shutdown completes.
func (s *Server) Run() error {
	ctx := context.Background()

	errs := make(chan error, 1)

	go func() {
		s.logger.Log(ctx, log.LevelInfo, "starting http server", log.String("address", s.address))

		if err := s.app.Listen(s.address); err != nil {
			errs <- err
		}
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	select {
	case sig := <-signals:
		s.logger.Log(ctx, log.LevelInfo, "shutdown signal received", log.String("signal", sig.String()))
	case <-s.shutdownChanOrBlock():
		s.logger.Log(ctx, log.LevelInfo, "shutdown requested")
	case err := <-errs:
		s.closeResources(ctx)
		return err
	}

	if err := s.app.ShutdownWithTimeout(s.shutdownTimeout); err != nil {
		s.logger.Log(ctx, log.LevelError, "http shutdown failed", log.Err(err))
	}

	s.closeResources(ctx)

	s.logger.Log(ctx, log.LevelInfo, "shutdown complete")

	return nil
}

func (s *Server) shutdownChanOrBlock() <-chan struct{} {
	if s.shutdownChan != nil {
		return s.shutdownChan
	}

	// Nil channel blocks forever; signals drive shutdown.
	return nil
}

func (s *Server) closeResources(ctx context.Context) {
	for _, closer := range s.closers {
		if err := closer(); err != nil {
			s.logger.Log(ctx, log.LevelWarn, "resource close failed", log.Err(err))
		}
	}
}
