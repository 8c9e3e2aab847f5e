package mailcapture

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/emersion/go-smtp"

	"github.com/markb/galerie/internal/log"
)

// Server is the capture-mode SMTP listener. Everything it accepts goes
// into the mailbox instead of being delivered.
type Server struct {
	host    string
	port    int
	mailbox *Mailbox

	smtpSrv  *smtp.Server
	listener net.Listener
	mu       sync.RWMutex
	running  bool
}

func NewServer(host string, port int, mailbox *Mailbox) *Server {
	if host == "" {
		host = "localhost"
	}
	if port == 0 {
		port = 1025
	}
	return &Server{host: host, port: port, mailbox: mailbox}
}

func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}

	backend := &smtpBackend{mailbox: s.mailbox}

	s.smtpSrv = smtp.NewServer(backend)
	s.smtpSrv.Addr = fmt.Sprintf("%s:%d", s.host, s.port)
	s.smtpSrv.Domain = "localhost"
	s.smtpSrv.AllowInsecureAuth = true

	listener, err := net.Listen("tcp", s.smtpSrv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.smtpSrv.Addr, err)
	}
	s.listener = listener

	go func() {
		if err := s.smtpSrv.Serve(listener); err != nil {
			log.Warn("mail capture server stopped", "error", err)
		}
	}()

	s.running = true
	log.Info("mail capture server started", "addr", s.smtpSrv.Addr)
	return nil
}

func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	if s.smtpSrv != nil {
		s.smtpSrv.Close()
	}
	if s.listener != nil {
		s.listener.Close()
	}

	s.running = false
	log.Info("mail capture server stopped")
	return nil
}

func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Server) Port() int {
	return s.port
}
