package backend

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	prestconfig "github.com/prest/prest/config"
	"github.com/prest/prest/router"

	"github.com/markb/galerie/internal/log"
)

// RESTServer runs pREST over the embedded database, giving the mirrored
// photos table the same /rest/v1-style query surface a hosted project
// has.
type RESTServer struct {
	connString string
	port       int

	httpServer *http.Server
	handler    http.Handler
	mu         sync.RWMutex
	running    bool
}

func NewRESTServer(connString string, port int) *RESTServer {
	return &RESTServer{connString: connString, port: port}
}

func (s *RESTServer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	prestconfig.PrestConf = &prestconfig.Prest{
		HTTPHost:   "127.0.0.1",
		HTTPPort:   s.port,
		PGHost:     "localhost",
		PGPort:     5432,
		PGDatabase: "postgres",
		PGUser:     "postgres",
		PGPass:     "postgres",
		PGURL:      s.connString,
	}

	prestRouter := router.Routes()
	s.handler = prestRouter

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      prestRouter,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("table REST server error", "error", err)
		}
	}()

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	if err := waitListening(ctx, addr, 40, 250*time.Millisecond); err != nil {
		return fmt.Errorf("table REST server not ready: %w", err)
	}
	s.running = true
	return nil
}

// waitListening polls addr until a TCP connection succeeds.
func waitListening(ctx context.Context, addr string, attempts int, delay time.Duration) error {
	for i := 0; i < attempts; i++ {
		conn, err := net.DialTimeout("tcp", addr, delay)
		if err == nil {
			conn.Close()
			return nil
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("nothing listening on %s", addr)
}

func (s *RESTServer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.httpServer != nil {
		s.httpServer.Shutdown(ctx)
	}
	s.running = false
}

func (s *RESTServer) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Handler returns the in-process router so the main server can mount it
// without a network hop.
func (s *RESTServer) Handler() http.Handler {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.handler == nil || !s.running {
		return http.NotFoundHandler()
	}
	return s.handler
}
