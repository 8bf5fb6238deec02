package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rlowe/countback/internal/backup"
	"github.com/rlowe/countback/internal/handler"
	"github.com/rlowe/countback/internal/middleware"
	"github.com/rlowe/countback/internal/store"
	"github.com/rlowe/countback/internal/tracker"
	ws "github.com/rlowe/countback/internal/websocket"
)

type Server struct {
	manager       *tracker.Manager
	hub           *ws.Hub
	taskH         *handler.TaskHandler
	achievementH  *handler.AchievementHandler
	backupH       *handler.BackupHandler
	backupManager *backup.Manager
	rateLimiter   *middleware.RateLimiter
	logger        *slog.Logger
}

func New(manager *tracker.Manager, backupStore *store.BackupStore, backupMgr *backup.Manager, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	// A restored document replaces the manager's in-memory copy; tell open
	// views to re-render from scratch.
	backupMgr.OnRestore(func() {
		if err := manager.Reload(); err != nil {
			logger.Error("reload after restore", "error", err)
		}
		hub.Broadcast(ws.NewMessage("document", "restored", "", nil))
	})

	return &Server{
		manager:       manager,
		hub:           hub,
		taskH:         handler.NewTaskHandler(manager, hub, logger.With("component", "task")),
		achievementH:  handler.NewAchievementHandler(manager, hub, logger.With("component", "achievement")),
		backupH:       handler.NewBackupHandler(backupMgr, backupStore, logger.With("component", "backup_handler")),
		backupManager: backupMgr,
		rateLimiter:   middleware.NewRateLimiter(),
		logger:        logger,
	}
}

// Hub returns the change-feed hub so other components can broadcast.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("POST /api/tasks", s.rateLimited(s.taskH.Create))
	mux.HandleFunc("POST /api/tasks/{id}/checkin", s.rateLimited(s.taskH.CheckIn))
	mux.HandleFunc("DELETE /api/tasks/{id}", s.rateLimited(s.taskH.Delete))

	mux.HandleFunc("GET /api/achievements", s.achievementH.List)
	mux.HandleFunc("DELETE /api/achievements/{index}", s.rateLimited(s.achievementH.Delete))

	mux.HandleFunc("GET /api/backups", s.backupH.List)
	mux.HandleFunc("POST /api/backups", s.rateLimited(s.backupH.RunNow))
	mux.HandleFunc("POST /api/backups/{id}/restore", s.rateLimited(s.backupH.Restore))

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// rateLimited wraps mutating routes with a per-IP limit of 60 requests
// per minute.
func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 60, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
