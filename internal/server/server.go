package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/cargoyard/internal/config"
	"github.com/gravitas-games/cargoyard/internal/network"
	"github.com/gravitas-games/cargoyard/internal/world"
	"github.com/gravitas-games/cargoyard/pkg/models"
)

// Server exposes a running world to websocket observers
type Server struct {
	config       *config.Config
	world        *world.World
	session      *Session
	upgrader     websocket.Upgrader
	httpSrv      *http.Server  // built in New, never reassigned
	jwtValidator *JWTValidator // nil when auth is disabled
	redis        *redis.Client // nil when Redis is disabled
	log          logrus.FieldLogger

	// Connection tracking
	connections map[*Connection]bool
	connMu      sync.RWMutex

	// Shutdown
	ctx      context.Context
	cancel   context.CancelFunc
	loopDone chan struct{}
	loopOnce sync.Once
}

// New creates a new server instance. redisClient may be nil.
func New(cfg *config.Config, w *world.World, redisClient *redis.Client, log logrus.FieldLogger) (*Server, error) {
	log = log.WithField("component", "server")
	log.Info("initializing server")

	ctx, cancel := context.WithCancel(context.Background())

	srv := &Server{
		config:      cfg,
		world:       w,
		redis:       redisClient,
		log:         log,
		connections: make(map[*Connection]bool),
		ctx:         ctx,
		cancel:      cancel,
		loopDone:    make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			Subprotocols:    []string{"access_token"},
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	if !cfg.JWT.Disabled {
		var blacklist Blacklist
		if redisClient != nil {
			blacklist = redisClient
		}
		jwtValidator, err := NewJWTValidator(cfg, blacklist, log)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to initialize JWT validator: %w", err)
		}
		srv.jwtValidator = jwtValidator
		go jwtValidator.RefreshLoop(ctx)
	} else {
		log.Warn("JWT authentication disabled")
	}

	srv.session = NewSession("main", w.Bus(), log)
	srv.httpSrv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server initialized")
	return srv, nil
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/snapshot", s.handleSnapshot)
	return mux
}

// Start runs the tick loop and listens for connections until Shutdown
func (s *Server) Start() error {
	s.RunLoop()

	addr := s.httpSrv.Addr
	s.log.WithFields(logrus.Fields{
		"websocket": fmt.Sprintf("ws://%s/ws", addr),
		"health":    fmt.Sprintf("http://%s/health", addr),
		"snapshot":  fmt.Sprintf("http://%s/snapshot", addr),
	}).Info("listening")

	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// RunLoop starts ticking the world at the configured rate. Later calls are
// no-ops.
func (s *Server) RunLoop() {
	s.loopOnce.Do(func() {
		go s.runLoop()
	})
}

func (s *Server) runLoop() {
	defer close(s.loopDone)

	interval := time.Second / time.Duration(s.config.Server.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-s.ctx.Done():
			return
		case now := <-ticker.C:
			s.world.Tick(now.Sub(last))
			last = now
		}
	}
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	s.log.Info("shutting down server")

	s.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []error
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	s.connMu.Lock()
	conns := make([]*Connection, 0, len(s.connections))
	for conn := range s.connections {
		conns = append(conns, conn)
	}
	s.connMu.Unlock()
	for _, conn := range conns {
		conn.Close()
	}

	s.session.Close()
	s.world.Stop()

	// Only wait on a loop that was started.
	started := true
	s.loopOnce.Do(func() {
		started = false
		close(s.loopDone)
	})
	if started {
		<-s.loopDone
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}

	s.log.Info("server shutdown complete")
	return errors.Join(errs...)
}

// authenticate resolves the observer behind a request
func (s *Server) authenticate(r *http.Request, connID string) (*models.Observer, error) {
	if s.jwtValidator == nil {
		return models.Anonymous(connID), nil
	}

	tokenString := extractToken(r)
	if tokenString == "" {
		return nil, errors.New("missing authentication token")
	}
	return s.jwtValidator.ValidateToken(r.Context(), tokenString)
}

// handleWebSocket handles WebSocket connection requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	connID := uuid.NewString()
	log := s.log.WithFields(logrus.Fields{"remote": r.RemoteAddr, "connection": connID})

	observer, err := s.authenticate(r, connID)
	if err != nil {
		log.WithError(err).Warn("rejected websocket connection")
		http.Error(w, fmt.Sprintf("Invalid token: %v", err), http.StatusUnauthorized)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	conn := NewConnection(connID, ws, s, observer)

	s.connMu.Lock()
	s.connections[conn] = true
	s.connMu.Unlock()

	s.session.AddObserver(conn)
	conn.SendMessage(&network.ServerMessage{
		Type: network.MsgTypeWelcome,
		Payload: network.WelcomePayload{
			ObserverID: observer.ID,
			Username:   observer.Username,
			Snapshot:   s.world.Snapshot(),
		},
	})

	log.WithField("observer", observer.Username).Info("websocket connection established")

	conn.Handle()

	s.connMu.Lock()
	delete(s.connections, conn)
	s.connMu.Unlock()

	log.Info("websocket connection closed")
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status":       "ok",
		"observers":    s.session.ObserverCount(),
		"observer_ids": s.session.ObserverIDs(),
	})
}

// handleSnapshot returns the current container state
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.world.Snapshot())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}
