package bridge

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/muurk/sabiana/internal/climate"
	"github.com/muurk/sabiana/internal/cloud"
	"github.com/muurk/sabiana/internal/command"
	"github.com/muurk/sabiana/internal/logging"
)

// Config holds the bridge listener configuration
type Config struct {
	Listen   string // host:port, e.g. ":8088"
	CertPath string // TLS certificate file (empty = plain HTTP)
	KeyPath  string // TLS private key file
	Announce bool   // advertise the bridge over mDNS
	Instance string // mDNS instance name (empty = derived from hostname)
}

// Store persists what the bridge learns about devices between runs.
// *config.Registry implements it.
type Store interface {
	RecordDevices(devices []cloud.Device)
	RecordSettings(id string, s command.Settings)
	Save() error
}

// Server exposes a climate.Manager over HTTP
type Server struct {
	config    *Config
	manager   *climate.Manager
	store     Store
	registry  *prometheus.Registry
	tlsConfig *tls.Config

	httpServer *http.Server
	wg         sync.WaitGroup
	mu         sync.Mutex
	streams    map[string]*websocket.Conn
	closing    chan struct{}
	closeOnce  sync.Once

	register     registerFunc
	announcement announcement
}

// New creates a bridge. store may be nil, in which case nothing is
// persisted. registry receives the bridge's own collectors and is served on
// /metrics.
func New(config *Config, manager *climate.Manager, store Store, registry *prometheus.Registry) (*Server, error) {
	var tlsConfig *tls.Config
	if config.CertPath != "" || config.KeyPath != "" {
		var err error
		tlsConfig, err = NewTLSConfig(config.CertPath, config.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
	}

	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	s := &Server{
		config:    config,
		manager:   manager,
		store:     store,
		registry:  registry,
		tlsConfig: tlsConfig,
		streams:   make(map[string]*websocket.Conn),
		closing:   make(chan struct{}),
		register:  registerService,
	}

	err := registry.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "sabiana_bridge_event_streams",
		Help: "Open /events websocket connections",
	}, func() float64 { return float64(s.GetActiveStreams()) }))
	if err != nil {
		return nil, fmt.Errorf("failed to register bridge metrics: %w", err)
	}

	return s, nil
}

// Start listens on the configured address and serves until SIGINT or
// SIGTERM, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is done.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	scheme := "http"
	if s.tlsConfig != nil {
		scheme = "https"
		logging.Info("TLS Configuration", zap.Any("tls_info", GetTLSInfo(s.tlsConfig)))
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		TLSConfig:         s.tlsConfig,
		ReadHeaderTimeout: 10 * time.Second,
	}

	events, unsubscribe := s.manager.Subscribe()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer unsubscribe()
		s.recordEvents(events)
	}()

	logging.Info("Bridge listening",
		zap.String("addr", listener.Addr().String()),
		zap.String("scheme", scheme),
	)
	s.announce(listener.Addr())

	errChan := make(chan error, 1)
	go func() {
		var err error
		if s.tlsConfig != nil {
			err = s.httpServer.ServeTLS(listener, "", "")
		} else {
			err = s.httpServer.Serve(listener)
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errChan <- err
	}()

	select {
	case <-ctx.Done():
		logging.Info("Shutdown signal received, stopping bridge...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		s.withdraw()
		s.stopStreams()
		s.wg.Wait()
		return err
	}
}

// recordEvents persists every acknowledged command until the bridge closes.
func (s *Server) recordEvents(events <-chan climate.Event) {
	for {
		select {
		case <-s.closing:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Err != nil || s.store == nil {
				continue
			}
			s.store.RecordSettings(ev.DeviceID, ev.Settings)
			s.save()
		}
	}
}

func (s *Server) save() {
	if s.store == nil {
		return
	}
	if err := s.store.Save(); err != nil {
		logging.Warn("Failed to save registry", zap.Error(err))
	}
}

// trackStream registers an open event stream. It reports false once the
// bridge is shutting down.
func (s *Server) trackStream(remoteAddr string, conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.closing:
		return false
	default:
	}
	s.streams[remoteAddr] = conn
	s.wg.Add(1)
	return true
}

func (s *Server) untrackStream(remoteAddr string) {
	s.mu.Lock()
	delete(s.streams, remoteAddr)
	s.mu.Unlock()
	s.wg.Done()
}

// stopStreams closes every event stream and stops the recorder.
func (s *Server) stopStreams() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		close(s.closing)
		for addr, conn := range s.streams {
			logging.Info("Closing event stream", zap.String("remote_addr", addr))
			_ = conn.Close()
		}
		s.mu.Unlock()
	})
}

// Shutdown gracefully shuts down the bridge
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down bridge...")
	s.withdraw()

	var err error
	if s.httpServer != nil {
		// Shutdown does not touch hijacked websocket connections
		if err = s.httpServer.Shutdown(ctx); err != nil {
			logging.Error("Error shutting down HTTP server", zap.Error(err))
		}
	}
	s.stopStreams()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("All connections closed gracefully")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	}

	logging.Sync()
	return err
}

// GetActiveStreams returns the number of open event streams
func (s *Server) GetActiveStreams() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.streams)
}
