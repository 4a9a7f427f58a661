// Package backup uploads encrypted snapshots of the SQLite database to
// S3-compatible storage.
package backup

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "modernc.org/sqlite"
)

const (
	keyPrefix = "backups/groceryhub-"
	keySuffix = ".db.enc"
	// Lexically sortable, so key order is time order.
	keyTimeFormat = "20060102T150405.000Z"
)

var (
	ErrDisabled   = errors.New("backup: not configured")
	ErrInProgress = errors.New("backup: already running")
	ErrNoBackups  = errors.New("backup: no backups found")
)

// s3Client is the subset of the S3 API the manager uses.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

type Config struct {
	S3         S3Config
	Passphrase string
	Interval   time.Duration
	// Keep bounds how many snapshots are retained. Zero keeps all.
	Keep int
}

type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

type Status struct {
	State      State      `json:"state"`
	LastBackup *time.Time `json:"last_backup,omitempty"`
	LastKey    string     `json:"last_key,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// StatusCallback is called whenever the state changes.
type StatusCallback func(Status)

// Object describes one stored snapshot.
type Object struct {
	Key      string
	Size     int64
	Modified time.Time
}

type Manager struct {
	mu       sync.RWMutex
	cfg      Config
	status   Status
	callback StatusCallback
	logger   *slog.Logger

	db     *sql.DB
	client s3Client
	now    func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager returns a manager that is disabled unless cfg names a bucket.
func NewManager(cfg Config, db *sql.DB, logger *slog.Logger, callback StatusCallback) *Manager {
	m := &Manager{
		cfg:      cfg,
		db:       db,
		logger:   logger.With("component", "backup"),
		callback: callback,
		now:      time.Now,
		status:   Status{State: StateDisabled},
	}
	if cfg.S3.Bucket != "" {
		m.client = newS3Client(cfg.S3)
		m.status.State = StateIdle
	}
	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: true,
	}
	if cfg.AccessKey != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Start runs a backup every cfg.Interval until ctx is cancelled or Stop is
// called. It does nothing when the manager is disabled.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.status.State == StateDisabled || m.cancel != nil || m.cfg.Interval <= 0 {
		m.mu.Unlock()
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	interval := m.cfg.Interval
	m.mu.Unlock()

	m.logger.Info("scheduled backups started", "interval", interval)
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := m.RunNow(ctx); err != nil && !errors.Is(err, ErrInProgress) {
					m.logger.Error("scheduled backup failed", "error", err)
				}
			}
		}
	}()
}

// Stop halts the schedule and waits for an in-flight scheduled run.
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

// RunNow snapshots, encrypts and uploads the database, then prunes old
// snapshots. It returns the object key.
func (m *Manager) RunNow(ctx context.Context) (string, error) {
	m.mu.Lock()
	switch m.status.State {
	case StateDisabled:
		m.mu.Unlock()
		return "", ErrDisabled
	case StateRunning:
		m.mu.Unlock()
		return "", ErrInProgress
	}
	prev := m.status
	m.status = Status{State: StateRunning, LastBackup: prev.LastBackup, LastKey: prev.LastKey}
	running := m.status
	client, cfg := m.client, m.cfg
	m.mu.Unlock()
	if m.callback != nil {
		m.callback(running)
	}

	key, err := m.run(ctx, client, cfg)
	if err != nil {
		m.setStatus(Status{State: StateError, LastBackup: prev.LastBackup, LastKey: prev.LastKey, Error: err.Error()})
		return "", err
	}

	now := m.now().UTC()
	m.setStatus(Status{State: StateIdle, LastBackup: &now, LastKey: key})
	m.logger.Info("backup uploaded", "key", key)

	if cfg.Keep > 0 {
		if err := m.prune(ctx, client, cfg); err != nil {
			m.logger.Warn("prune backups", "error", err)
		}
	}
	return key, nil
}

func (m *Manager) run(ctx context.Context, client s3Client, cfg Config) (string, error) {
	plaintext, err := m.snapshot(ctx)
	if err != nil {
		return "", err
	}
	sealed, err := Encrypt(plaintext, cfg.Passphrase)
	if err != nil {
		return "", fmt.Errorf("encrypt: %w", err)
	}

	key := keyPrefix + m.now().UTC().Format(keyTimeFormat) + keySuffix
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(cfg.S3.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(sealed),
		ContentLength: aws.Int64(int64(len(sealed))),
	})
	if err != nil {
		return "", fmt.Errorf("upload to s3: %w", err)
	}
	return key, nil
}

// snapshot returns a consistent copy of the database file. VACUUM INTO
// works on a live database without blocking writers for long.
func (m *Manager) snapshot(ctx context.Context) ([]byte, error) {
	dir, err := os.MkdirTemp("", "groceryhub-backup-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "snapshot.db")
	if _, err := m.db.ExecContext(ctx, `VACUUM INTO ?`, path); err != nil {
		return nil, fmt.Errorf("vacuum into: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return data, nil
}

// List returns stored snapshots, newest first.
func (m *Manager) List(ctx context.Context) ([]Object, error) {
	m.mu.RLock()
	client, bucket := m.client, m.cfg.S3.Bucket
	m.mu.RUnlock()
	if client == nil {
		return nil, ErrDisabled
	}
	return list(ctx, client, bucket)
}

func list(ctx context.Context, client s3Client, bucket string) ([]Object, error) {
	var objects []Object
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(keyPrefix),
	}
	for {
		out, err := client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("list backups: %w", err)
		}
		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(key, keySuffix) {
				continue
			}
			objects = append(objects, Object{
				Key:      key,
				Size:     aws.ToInt64(obj.Size),
				Modified: aws.ToTime(obj.LastModified),
			})
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		input.ContinuationToken = out.NextContinuationToken
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key > objects[j].Key })
	return objects, nil
}

func (m *Manager) prune(ctx context.Context, client s3Client, cfg Config) error {
	objects, err := list(ctx, client, cfg.S3.Bucket)
	if err != nil {
		return err
	}
	if len(objects) <= cfg.Keep {
		return nil
	}
	var errs []error
	for _, obj := range objects[cfg.Keep:] {
		_, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(cfg.S3.Bucket),
			Key:    aws.String(obj.Key),
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", obj.Key, err))
			continue
		}
		m.logger.Debug("pruned backup", "key", obj.Key)
	}
	return errors.Join(errs...)
}

// Restore downloads key (or the newest snapshot when key is "latest"),
// decrypts it, checks its integrity and writes it to dstPath. The server
// must not have dstPath open.
func (m *Manager) Restore(ctx context.Context, key, dstPath string) error {
	m.mu.RLock()
	client, cfg := m.client, m.cfg
	m.mu.RUnlock()
	if client == nil {
		return ErrDisabled
	}

	if key == "latest" {
		objects, err := list(ctx, client, cfg.S3.Bucket)
		if err != nil {
			return err
		}
		if len(objects) == 0 {
			return ErrNoBackups
		}
		key = objects[0].Key
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(cfg.S3.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("download %s: %w", key, err)
	}
	defer out.Body.Close()
	sealed, err := io.ReadAll(out.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}

	plaintext, err := Decrypt(sealed, cfg.Passphrase)
	if err != nil {
		return err
	}

	tmp := dstPath + ".restore"
	if err := os.WriteFile(tmp, plaintext, 0600); err != nil {
		return fmt.Errorf("write restored db: %w", err)
	}
	defer os.Remove(tmp)

	if err := checkIntegrity(ctx, tmp); err != nil {
		return err
	}
	os.Remove(dstPath + "-wal")
	os.Remove(dstPath + "-shm")
	if err := os.Rename(tmp, dstPath); err != nil {
		return fmt.Errorf("replace database: %w", err)
	}
	m.logger.Info("backup restored", "key", key, "path", dstPath)
	return nil
}

func checkIntegrity(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open restored db: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRowContext(ctx, `PRAGMA integrity_check`).Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}
