// Package backup ships encrypted snapshots of the tracker document to
// S3-compatible storage and restores them. Backups are best-effort: a
// failure lands on the history row and in the status feed, never in the
// request path of a check-in.
package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sethvargo/go-retry"

	"github.com/rlowe/countback/internal/model"
	"github.com/rlowe/countback/internal/store"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Config holds backup manager configuration.
type Config struct {
	S3            S3Config
	Passphrase    string
	ScheduleHour  int
	RetentionDays int
}

// State represents the backup manager state.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

// Status holds the current backup manager status.
type Status struct {
	State      State      `json:"state"`
	LastBackup *time.Time `json:"last_backup,omitempty"`
	Error      string     `json:"error,omitempty"`
	InProgress bool       `json:"in_progress"`
}

// StatusCallback is called whenever the backup state changes.
type StatusCallback func(Status)

// Manager runs scheduled and on-demand snapshots of the persisted document.
type Manager struct {
	mu       sync.RWMutex
	cfg      Config
	status   Status
	callback StatusCallback

	documents *store.DocumentStore
	backups   *store.BackupStore
	client    s3Client
	logger    *slog.Logger

	// onRestore fires after a restore replaced the persisted document so
	// the owner of the in-memory copy can reload it.
	onRestore func()

	// retryBase is the first upload retry delay; shortened in tests.
	retryBase time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a backup manager. It stays disabled until the S3
// bucket, credentials, and passphrase are all configured.
func NewManager(cfg Config, docs *store.DocumentStore, bs *store.BackupStore, callback StatusCallback, logger *slog.Logger) *Manager {
	m := &Manager{
		cfg:       cfg,
		documents: docs,
		backups:   bs,
		callback:  callback,
		logger:    logger,
		status:    Status{State: StateDisabled},
		retryBase: time.Second,
	}

	if cfg.S3.Bucket != "" && cfg.S3.AccessKey != "" && cfg.S3.SecretKey != "" && cfg.Passphrase != "" {
		m.client = newS3Client(cfg.S3)
		m.status.State = StateIdle
	}

	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// OnRestore registers the hook fired after a successful restore.
func (m *Manager) OnRestore(fn func()) {
	m.mu.Lock()
	m.onRestore = fn
	m.mu.Unlock()
}

// Enabled reports whether the manager is configured to run.
func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client != nil
}

// Start begins the scheduled backup loop.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.status.State == StateDisabled {
		m.mu.Unlock()
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.checkSchedule(ctx)
			}
		}
	}()
}

// Stop gracefully stops the backup manager.
func (m *Manager) Stop() {
	m.mu.RLock()
	cancel := m.cancel
	done := m.done
	m.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Status returns the current backup status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
	if m.callback != nil {
		m.callback(s)
	}
}

func (m *Manager) checkSchedule(ctx context.Context) {
	now := time.Now().UTC()
	if now.Hour() != m.cfg.ScheduleHour || now.Minute() != 0 {
		return
	}

	if _, err := m.RunNow(ctx); err != nil {
		m.logger.Error("scheduled backup failed", "error", err)
	}

	retentionDays := m.cfg.RetentionDays
	if retentionDays <= 0 {
		retentionDays = 30
	}
	if err := m.Cleanup(ctx, retentionDays); err != nil {
		m.logger.Error("backup cleanup failed", "error", err)
	}
}

// RunNow snapshots the persisted document immediately and returns the
// history row id.
func (m *Manager) RunNow(ctx context.Context) (int64, error) {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	passphrase := m.cfg.Passphrase
	m.mu.RUnlock()

	if client == nil {
		return 0, fmt.Errorf("backup not configured: S3 credentials or passphrase missing")
	}

	m.setStatus(Status{State: StateRunning, InProgress: true})

	timestamp := time.Now().UTC().Format("2006-01-02T150405Z")
	filename := fmt.Sprintf("countback-%s.json.enc", timestamp)
	s3Key := "snapshots/" + filename

	record, err := m.backups.Create(filename, s3Key)
	if err != nil {
		m.setStatus(Status{State: StateError, Error: err.Error()})
		return 0, fmt.Errorf("create backup record: %w", err)
	}

	doc, err := m.documents.Load()
	if err != nil {
		return record.ID, m.fail(record.ID, fmt.Errorf("load document: %w", err))
	}
	plaintext, err := doc.Encode()
	if err != nil {
		return record.ID, m.fail(record.ID, err)
	}

	salt, err := GenerateSalt()
	if err != nil {
		return record.ID, m.fail(record.ID, err)
	}
	sealed, err := Encrypt(plaintext, passphrase, salt)
	if err != nil {
		return record.ID, m.fail(record.ID, err)
	}

	m.backups.UpdateStatus(record.ID, model.BackupStatusUploading, "")

	// Object storage hiccups are common on home links; retry briefly
	// before recording a failure.
	backoff := retry.WithMaxRetries(3, retry.NewExponential(m.retryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, putErr := client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(s3Key),
			Body:   bytes.NewReader(sealed),
		})
		if putErr != nil {
			return retry.RetryableError(putErr)
		}
		return nil
	})
	if err != nil {
		return record.ID, m.fail(record.ID, fmt.Errorf("upload snapshot: %w", err))
	}

	if err := m.backups.UpdateCompleted(record.ID, int64(len(sealed))); err != nil {
		m.logger.Error("mark backup completed", "backup_id", record.ID, "error", err)
	}

	now := time.Now().UTC()
	m.setStatus(Status{State: StateIdle, LastBackup: &now})
	m.logger.Info("backup completed", "backup_id", record.ID, "size_bytes", len(sealed))
	return record.ID, nil
}

// Restore downloads and decrypts the given snapshot and replaces the
// persisted document with it. The in-memory document owner is notified
// through the OnRestore hook.
func (m *Manager) Restore(ctx context.Context, id int64) error {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	passphrase := m.cfg.Passphrase
	onRestore := m.onRestore
	m.mu.RUnlock()

	if client == nil {
		return fmt.Errorf("backup not configured: S3 credentials or passphrase missing")
	}

	record, err := m.backups.GetByID(id)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("backup %d not found", id)
	}
	if record.Status != model.BackupStatusCompleted {
		return fmt.Errorf("backup %d is %s, not completed", id, record.Status)
	}

	obj, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(record.S3Key),
	})
	if err != nil {
		return fmt.Errorf("download snapshot: %w", err)
	}
	defer obj.Body.Close()

	sealed, err := io.ReadAll(obj.Body)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	plaintext, err := Decrypt(sealed, passphrase)
	if err != nil {
		return err
	}

	// Re-normalize through the lenient decoder so a snapshot from an older
	// version cannot smuggle malformed records back in.
	doc, err := model.DecodeDocument(plaintext, m.logger)
	if err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	if err := m.documents.Save(doc); err != nil {
		return fmt.Errorf("write restored document: %w", err)
	}

	if onRestore != nil {
		onRestore()
	}
	m.logger.Info("document restored from backup", "backup_id", id)
	return nil
}

// Cleanup prunes history rows and S3 objects older than retentionDays.
func (m *Manager) Cleanup(ctx context.Context, retentionDays int) error {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	m.mu.RUnlock()

	before := time.Now().UTC().AddDate(0, 0, -retentionDays)
	keys, err := m.backups.DeleteOlderThan(before)
	if err != nil {
		return err
	}

	for _, key := range keys {
		if client == nil {
			break
		}
		if _, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		}); err != nil {
			m.logger.Warn("delete old snapshot", "key", key, "error", err)
		}
	}
	return nil
}

func (m *Manager) fail(recordID int64, err error) error {
	m.backups.UpdateStatus(recordID, model.BackupStatusFailed, err.Error())
	m.setStatus(Status{State: StateError, Error: err.Error()})
	return err
}
