package bridge

import (
	"net"
	"os"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/sabiana/internal/logging"
	"github.com/muurk/sabiana/internal/version"
)

const (
	// ServiceType is the DNS-SD service type the bridge advertises
	ServiceType = "_sabiana._tcp"

	// ServiceDomain is the mDNS domain
	ServiceDomain = "local."
)

// announcement is a live mDNS registration
type announcement interface {
	Shutdown()
}

// registerFunc publishes a service on the local network
type registerFunc func(instance, service, domain string, port int, text []string) (announcement, error)

// registerService registers on every multicast-capable interface
func registerService(instance, service, domain string, port int, text []string) (announcement, error) {
	server, err := zeroconf.Register(instance, service, domain, port, text, nil)
	if err != nil {
		return nil, err
	}
	return server, nil
}

// announce advertises the bridge over mDNS. Failures are logged and the
// bridge keeps serving unannounced.
func (s *Server) announce(addr net.Addr) {
	if !s.config.Announce {
		return
	}

	tcpAddr, ok := addr.(*net.TCPAddr)
	if !ok {
		logging.Warn("Cannot announce non-TCP listener", zap.String("addr", addr.String()))
		return
	}

	instance := s.config.Instance
	if instance == "" {
		instance = defaultInstance()
	}

	a, err := s.register(instance, ServiceType, ServiceDomain, tcpAddr.Port, serviceText(s.tlsConfig != nil))
	if err != nil {
		logging.Warn("Failed to announce bridge over mDNS", zap.Error(err))
		return
	}

	s.mu.Lock()
	s.announcement = a
	s.mu.Unlock()

	logging.Info("Announced bridge over mDNS",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", tcpAddr.Port),
	)
}

// withdraw stops the mDNS announcement, if any
func (s *Server) withdraw() {
	s.mu.Lock()
	a := s.announcement
	s.announcement = nil
	s.mu.Unlock()

	if a != nil {
		a.Shutdown()
		logging.Debug("mDNS announcement withdrawn")
	}
}

func defaultInstance() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "sabiana-bridge"
	}
	return "sabiana-bridge-" + host
}

// serviceText is the TXT record clients use to reach the API
func serviceText(tls bool) []string {
	scheme := "http"
	if tls {
		scheme = "https"
	}
	return []string{
		"version=" + version.Version,
		"scheme=" + scheme,
		"api=/api/devices",
		"events=/events",
	}
}
