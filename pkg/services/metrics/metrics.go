package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/mptledger/mptledger/pkg/config"
	"go.uber.org/zap"
)

// Service serves metrics.
type Service struct {
	http        []*http.Server
	config      config.BasicService
	log         *zap.Logger
	serviceType string

	wg sync.WaitGroup
}

// NewService creates a new Service with the given HTTP servers.
func NewService(name string, httpServers []*http.Server, cfg config.BasicService, log *zap.Logger) *Service {
	return &Service{
		http:        httpServers,
		config:      cfg,
		serviceType: name,
		log:         log.With(zap.String("service", name)),
	}
}

// Start runs http service with the exposed endpoint on the configured port.
// Listeners are created synchronously, so configuration problems are
// returned right away, serving happens in the background.
func (ms *Service) Start() error {
	if !ms.config.Enabled {
		ms.log.Info("service hasn't started since it's disabled")
		return nil
	}
	for _, srv := range ms.http {
		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			return err
		}
		srv.Addr = ln.Addr().String() // Fixes the port if it was zero.
		ms.log.Info("service is running", zap.String("endpoint", srv.Addr))
		ms.wg.Add(1)
		go func(srv *http.Server) {
			defer ms.wg.Done()
			err := srv.Serve(ln)
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				ms.log.Error("failed to serve", zap.String("endpoint", srv.Addr), zap.Error(err))
			}
		}(srv)
	}
	return nil
}

// Addresses returns the addresses service listens on.
func (ms *Service) Addresses() []string {
	res := make([]string, len(ms.http))
	for i := range ms.http {
		res[i] = ms.http[i].Addr
	}
	return res
}

// ShutDown stops the service.
func (ms *Service) ShutDown() {
	if !ms.config.Enabled {
		return
	}
	for _, srv := range ms.http {
		ms.log.Info("shutting down service", zap.String("endpoint", srv.Addr))
		err := srv.Shutdown(context.Background())
		if err != nil {
			ms.log.Error("can't shut service down", zap.String("endpoint", srv.Addr), zap.Error(err))
		}
	}
	ms.wg.Wait()
}
