package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rlowe/countback/internal/backup"
	"github.com/rlowe/countback/internal/database"
	"github.com/rlowe/countback/internal/logging"
	"github.com/rlowe/countback/internal/server"
	"github.com/rlowe/countback/internal/store"
	"github.com/rlowe/countback/internal/tracker"
	ws "github.com/rlowe/countback/internal/websocket"
)

func main() {
	logger := logging.Setup(os.Getenv("COUNTBACK_LOG_LEVEL"), os.Getenv("COUNTBACK_LOG_FORMAT"))

	port := os.Getenv("COUNTBACK_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("COUNTBACK_DB_PATH")
	if dbPath == "" {
		dbPath = "countback.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	documentStore := store.NewDocumentStore(db, logger.With("component", "store"))
	backupStore := store.NewBackupStore(db)

	manager, err := tracker.NewManager(documentStore, logger.With("component", "tracker"))
	if err != nil {
		// The manager falls back to an empty document; keep going so the
		// app stays usable, but make the load failure visible.
		logger.Error("loading stored document", "error", err)
	}

	// Charge missed-day penalties exactly once, before any request is
	// served, so every view already reflects elapsed calendar time.
	changed, err := manager.RunCatchUp()
	if err != nil {
		logger.Error("persisting catch-up adjustments", "error", err)
	}

	backupCfg := backup.Config{
		S3: backup.S3Config{
			Endpoint:  os.Getenv("COUNTBACK_S3_ENDPOINT"),
			Bucket:    os.Getenv("COUNTBACK_S3_BUCKET"),
			Region:    os.Getenv("COUNTBACK_S3_REGION"),
			AccessKey: os.Getenv("COUNTBACK_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("COUNTBACK_S3_SECRET_KEY"),
		},
		Passphrase:    os.Getenv("COUNTBACK_BACKUP_PASSPHRASE"),
		ScheduleHour:  envInt("COUNTBACK_BACKUP_HOUR", 3),
		RetentionDays: envInt("COUNTBACK_BACKUP_RETENTION_DAYS", 30),
	}

	var srv *server.Server
	backupMgr := backup.NewManager(backupCfg, documentStore, backupStore, func(st backup.Status) {
		if srv == nil {
			return
		}
		srv.Hub().Broadcast(ws.Message{
			Type:   "backup_status",
			Entity: "backup",
			Action: string(st.State),
			Extra: map[string]any{
				"in_progress": st.InProgress,
				"error":       st.Error,
			},
		})
	}, logger.With("component", "backup"))

	srv = server.New(manager, backupStore, backupMgr, logger)

	if changed {
		srv.Hub().Broadcast(ws.NewMessage("document", "caught_up", "", nil))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	backupMgr.Start(ctx)
	defer backupMgr.Stop()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("Countback running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
