// Package app wires the subsystems together and exposes the UI
// collaborator contract: startup sequencing, shutdown, and the nine
// operations a front end is allowed to call.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/labstack/gommon/log"

	"pure2p/internal/connectivity"
	"pure2p/internal/cryptoid"
	"pure2p/internal/messaging"
	"pure2p/internal/model"
	"pure2p/internal/queue"
	"pure2p/internal/store"
	"pure2p/internal/transport"
)

const (
	storeFileName    = "pure2p.db"
	queueFileName    = "queue.db"
	legacyFileName   = "state.json"
	retryPoolSize    = 4
	currentIPTimeout = 3 * time.Second
	shutdownTimeout  = 10 * time.Second
	metricsPort      = 9091
)

// App owns every long-lived subsystem and is the single object
// cmd/pure2pd constructs and drives.
type App struct {
	dataDir string

	store   *store.Store
	queue   *queue.Queue
	client  *transport.Client
	server  *transport.Server
	metrics *transport.MetricsServer
	orch    *messaging.Orchestrator
	worker  *queue.Worker

	identity *model.Identity
	port     int

	mu            sync.Mutex
	mapping       *connectivity.MappingManager
	lastRun       []connectivity.Attempt
	workerStarted bool

	cancel context.CancelFunc
}

// New runs the full startup sequence: legacy migration, store/queue
// open, identity load-or-generate, port selection, transport start,
// and the backgrounded connectivity probe.
func New(dataDir string) (*App, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, model.NewError(model.KindStorage, "creating data directory", err)
	}

	s, err := store.Open(filepath.Join(dataDir, storeFileName))
	if err != nil {
		return nil, err
	}

	if err := store.MigrateLegacyFile(s, filepath.Join(dataDir, legacyFileName)); err != nil {
		s.Close()
		return nil, err
	}

	q, err := queue.Open(filepath.Join(dataDir, queueFileName))
	if err != nil {
		s.Close()
		return nil, err
	}

	identity, err := loadOrGenerateIdentity(s)
	if err != nil {
		s.Close()
		q.Close()
		return nil, err
	}

	settings, err := s.LoadSettings(dataDir)
	if err != nil {
		s.Close()
		q.Close()
		return nil, err
	}

	currentIP := detectCurrentIP(context.Background())
	port, err := SelectPort(currentIP, identity.ExternalIP, identity.ExternalPort)
	if err != nil {
		s.Close()
		q.Close()
		return nil, err
	}

	kp, err := cryptoid.KeyPairFromIdentity(identity)
	if err != nil {
		s.Close()
		q.Close()
		return nil, err
	}

	client := transport.NewClient()
	orch := messaging.New(s, q, client, kp, settings.TokenValidityHours)
	if identity.HasExternalEndpoint() {
		orch.SetExternalAddr(fmt.Sprintf("%s:%d", identity.ExternalIP, port))
	}

	server := transport.NewServer(orch)
	metrics := transport.NewMetricsServer()

	a := &App{
		dataDir:  dataDir,
		store:    s,
		queue:    q,
		client:   client,
		server:   server,
		metrics:  metrics,
		orch:     orch,
		identity: identity,
		port:     port,
		worker: queue.NewWorker(q, orch, settings.MaxRetries, settings.BaseRetryDelayMillis,
			retryPoolSize, time.Duration(settings.RetryIntervalMillis())*time.Millisecond),
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	go func() {
		if err := server.Start(port); err != nil && err != http.ErrServerClosed {
			log.Errorf("app: transport server exited: %v", err)
		}
	}()

	go func() {
		if err := metrics.Start(metricsPort); err != nil && err != http.ErrServerClosed {
			log.Errorf("app: metrics server exited: %v", err)
		}
	}()

	go a.establishConnectivity(ctx)

	return a, nil
}

func loadOrGenerateIdentity(s *store.Store) (*model.Identity, error) {
	identity, err := s.LoadIdentity()
	if err == nil {
		return identity, nil
	}
	if !errors.Is(err, model.ErrIdentityNotFound) {
		return nil, err
	}

	kp, err := cryptoid.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	identity = kp.ToIdentity()
	if err := s.CreateIdentity(identity); err != nil {
		return nil, err
	}
	return identity, nil
}

// detectCurrentIP is a cheap, best-effort proxy for "currently detected
// external IP" used only to decide port reuse; a failure here is not
// fatal, it just forces a fresh port draw.
func detectCurrentIP(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, currentIPTimeout)
	defer cancel()

	strat := connectivity.HTTPIPStrategy{Services: []string{"https://api.ipify.org"}}
	mapping, err := strat.TryMap(ctx, 0)
	if err != nil {
		return ""
	}
	return mapping.ExternalIP
}

// establishConnectivity runs the strategy ladder in the background: on
// success it persists the endpoint, starts the mapping renewal
// manager, and kicks off the retry worker's drain-then-periodic
// schedule.
func (a *App) establishConnectivity(ctx context.Context) {
	ladder := connectivity.DefaultLadder()
	mapping, attempts := ladder.Run(ctx, a.port)

	a.mu.Lock()
	a.lastRun = attempts
	a.mu.Unlock()

	if mapping == nil {
		log.Errorf("app: all connectivity strategies failed")
		a.startRetryWorker(ctx)
		return
	}

	if err := a.store.UpdateExternalEndpoint(a.identity.UID, mapping.ExternalIP, mapping.ExternalPort); err != nil {
		log.Errorf("app: persisting external endpoint: %v", err)
	}
	a.orch.SetExternalAddr(fmt.Sprintf("%s:%d", mapping.ExternalIP, mapping.ExternalPort))

	if mapping.LifetimeSecs > 0 {
		gateway, _ := connectivity.DiscoverGateway()
		mgr := connectivity.NewMappingManager(mapping, gateway)
		a.mu.Lock()
		a.mapping = mgr
		a.mu.Unlock()
		go mgr.Run(ctx)
	}

	a.startRetryWorker(ctx)
}

func (a *App) startRetryWorker(ctx context.Context) {
	if err := a.worker.Drain(ctx); err != nil {
		log.Errorf("app: draining retry queue: %v", err)
	}

	a.mu.Lock()
	a.workerStarted = true
	a.mu.Unlock()

	a.worker.Run(ctx)
}

// Shutdown stops every background task in order: retry worker,
// mapping manager, transport, store.
func (a *App) Shutdown() error {
	if a.cancel != nil {
		a.cancel()
	}

	a.mu.Lock()
	started := a.workerStarted
	mgr := a.mapping
	a.mu.Unlock()

	if started {
		a.worker.Stop()
	}
	if mgr != nil {
		mgr.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(ctx); err != nil {
		log.Errorf("app: shutting down transport server: %v", err)
	}
	if err := a.metrics.Shutdown(ctx); err != nil {
		log.Errorf("app: shutting down metrics server: %v", err)
	}

	if err := a.queue.Close(); err != nil {
		log.Errorf("app: closing queue store: %v", err)
	}
	return a.store.Close()
}
