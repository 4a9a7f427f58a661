// Package server wires stores, handlers and middleware into the HTTP router.
package server

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/groceryhub/internal/backup"
	"github.com/dukerupert/groceryhub/internal/config"
	"github.com/dukerupert/groceryhub/internal/handler"
	"github.com/dukerupert/groceryhub/internal/metrics"
	"github.com/dukerupert/groceryhub/internal/middleware"
	"github.com/dukerupert/groceryhub/internal/store"
	"github.com/dukerupert/groceryhub/internal/tips"
	ws "github.com/dukerupert/groceryhub/internal/websocket"
)

const (
	pinAttemptLimit  = 10
	pinAttemptWindow = time.Minute
)

type Server struct {
	db       *sql.DB
	hub      *ws.Hub
	notifier *store.Notifier

	itemStore    *store.ItemStore
	sessionStore *store.SessionStore

	listH    *handler.ListHandler
	sessionH *handler.SessionHandler
	userH    *handler.UserHandler
	itemH    *handler.ItemHandler
	tipsH    *handler.TipsHandler

	pinLimiter    *middleware.AttemptLimiter
	backupManager *backup.Manager
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

func New(db *sql.DB, cfg config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))
	notifier := store.NewNotifier()
	m := metrics.New()
	validate := handler.NewValidator()

	listStore := store.NewListStore(db, notifier)
	itemStore := store.NewItemStore(db, notifier)
	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db, cfg.SessionTTL)

	advisor := tips.NewAdvisor(tips.Config{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
	})

	backupMgr := backup.NewManager(BackupConfig(cfg), db, logger, func(s backup.Status) {
		switch s.State {
		case backup.StateIdle:
			m.Backups.WithLabelValues("ok").Inc()
		case backup.StateError:
			m.Backups.WithLabelValues("error").Inc()
		}
	})

	m.RegisterGauges(notifier.Active, hub.ClientCount, listStore.Count)

	return &Server{
		db:            db,
		hub:           hub,
		notifier:      notifier,
		itemStore:     itemStore,
		sessionStore:  sessionStore,
		listH:         handler.NewListHandler(listStore, sessionStore, hub, validate, logger.With("component", "lists")),
		sessionH:      handler.NewSessionHandler(sessionStore, logger.With("component", "session")),
		userH:         handler.NewUserHandler(userStore, sessionStore, hub, validate, logger.With("component", "users")),
		itemH:         handler.NewItemHandler(itemStore, m, validate, logger.With("component", "items")),
		tipsH:         handler.NewTipsHandler(advisor, itemStore, m, validate, logger.With("component", "tips")),
		pinLimiter:    middleware.NewAttemptLimiter(pinAttemptLimit, pinAttemptWindow),
		backupManager: backupMgr,
		metrics:       m,
		logger:        logger,
	}
}

// BackupConfig translates the backup section of cfg.
func BackupConfig(cfg config.Config) backup.Config {
	return backup.Config{
		S3: backup.S3Config{
			Endpoint:  cfg.Backup.Endpoint,
			Bucket:    cfg.Backup.Bucket,
			Region:    cfg.Backup.Region,
			AccessKey: cfg.Backup.AccessKey,
			SecretKey: cfg.Backup.SecretKey,
		},
		Passphrase: cfg.Backup.Passphrase,
		Interval:   cfg.Backup.Interval,
		Keep:       cfg.Backup.Keep,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// PINLimiter returns the PIN attempt limiter for periodic sweeping.
func (s *Server) PINLimiter() *middleware.AttemptLimiter {
	return s.pinLimiter
}

func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.Health)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("GET /api/catalog", handler.Catalog)
	mux.HandleFunc("GET /api/check-config", s.tipsH.CheckConfig)
	mux.HandleFunc("POST /api/health-tips", s.tipsH.HealthTips)

	// Lists
	mux.HandleFunc("GET /api/lists", s.listH.List)
	mux.Handle("POST /api/lists", s.pinLimited(s.listH.Create))
	mux.HandleFunc("GET /api/lists/{list_id}", s.listH.Get)
	mux.Handle("POST /api/lists/{list_id}/verify", s.pinLimited(s.listH.VerifyPIN))
	mux.Handle("DELETE /api/lists/{list_id}", admin(s.listH.Delete))

	// Session
	mux.HandleFunc("GET /api/session", s.sessionH.Get)
	mux.HandleFunc("DELETE /api/session", s.sessionH.SwitchList)
	mux.HandleFunc("DELETE /api/session/user", s.sessionH.SwitchUser)

	// Users
	mux.Handle("GET /api/lists/{list_id}/users", list(s.userH.List))
	mux.Handle("POST /api/lists/{list_id}/users", middleware.RequireList(s.pinLimited(s.userH.Create)))
	mux.Handle("POST /api/lists/{list_id}/users/{name}/login", middleware.RequireList(s.pinLimited(s.userH.Login)))
	mux.Handle("DELETE /api/lists/{list_id}/users/{name}", admin(s.userH.Delete))

	// Items
	mux.Handle("GET /api/lists/{list_id}/items", user(s.itemH.List))
	mux.Handle("POST /api/lists/{list_id}/items", user(s.itemH.Add))
	mux.Handle("PUT /api/lists/{list_id}/items", user(s.itemH.Replace))
	mux.Handle("POST /api/lists/{list_id}/items/parse", user(s.tipsH.ParseItems))
	mux.Handle("PUT /api/lists/{list_id}/items/by-name/purchased", user(s.itemH.SetPurchased))
	mux.Handle("POST /api/lists/{list_id}/items/by-name/toggle", user(s.itemH.Toggle))
	mux.Handle("DELETE /api/lists/{list_id}/items/by-name", user(s.itemH.DeleteByName))
	mux.Handle("DELETE /api/lists/{list_id}/items/purchased", user(s.itemH.DeletePurchased))
	mux.Handle("DELETE /api/lists/{list_id}/items/{id}", user(s.itemH.Delete))
	mux.Handle("DELETE /api/lists/{list_id}/items", user(s.itemH.DeleteAll))
	mux.Handle("POST /api/lists/{list_id}/health-tips", user(s.tipsH.ListTips))

	// WebSocket
	mux.Handle("GET /ws/lists/{list_id}", user(ws.HandleWebSocket(s.hub, s.itemStore, s.logger.With("component", "websocket"))))

	var h http.Handler = mux
	h = middleware.LoadSession(s.sessionStore, s.logger.With("component", "session"))(h)
	h = middleware.Recover(s.logger.With("component", "recover"))(h)
	h = s.metrics.Middleware(h)
	return middleware.RequestLogger(s.logger.With("component", "http"))(h)
}

// pinLimited throttles PIN guesses per client and list.
func (s *Server) pinLimited(h http.HandlerFunc) http.Handler {
	return middleware.LimitAttempts(s.pinLimiter, middleware.PINKey)(h)
}

func list(h http.HandlerFunc) http.Handler  { return middleware.RequireList(h) }
func user(h http.HandlerFunc) http.Handler  { return middleware.RequireUser(h) }
func admin(h http.HandlerFunc) http.Handler { return middleware.RequireAdmin(h) }
