package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"papercast/internal/config"
	"papercast/internal/services"
)

// ErrTerminal is returned when an update targets a job that already reached
// a terminal status.
var ErrTerminal = errors.New("job already terminal")

// Store manages job persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string

	// locks serializes read-merge-write cycles per job id without making
	// distinct jobs contend with each other.
	locks sync.Map // string -> *sync.Mutex
}

// Open initializes or connects to the job database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "jobs.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := applySchema(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) lockFor(id string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Create allocates a fresh Queued job and returns its snapshot.
func (s *Store) Create(ctx context.Context) (Snapshot, error) {
	now := time.Now().UTC()
	snap := Snapshot{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		Message:   "Queued",
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (id, status, progress, stage, message, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.ID,
		snap.Status,
		snap.Progress,
		nullableString(snap.Stage),
		nullableString(snap.Message),
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Snapshot{}, fmt.Errorf("insert job: %w", err)
	}
	return snap, nil
}

// Get fetches a job snapshot by identifier.
func (s *Store) Get(ctx context.Context, id string) (Snapshot, error) {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()
	return s.getLocked(ctx, id)
}

func (s *Store) getLocked(ctx context.Context, id string) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	snap, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, services.Wrap(services.ErrNotFound, "jobs", "get", fmt.Sprintf("unknown job %s", id), nil)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("get job: %w", err)
	}
	return snap, nil
}

// Update atomically merges a patch into the job and returns the resulting
// snapshot. Progress never decreases across the merge, and updates against a
// terminal job fail with ErrTerminal.
func (s *Store) Update(ctx context.Context, id string, patch Patch) (Snapshot, error) {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	current, err := s.getLocked(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	if current.Status.IsTerminal() {
		return Snapshot{}, fmt.Errorf("update job %s: %w", id, ErrTerminal)
	}

	merged := current.Clone()
	if patch.Status != nil {
		merged.Status = *patch.Status
	}
	if patch.Progress != nil {
		next := clamp01(*patch.Progress)
		if next > merged.Progress {
			merged.Progress = next
		}
	}
	if patch.Stage != nil {
		merged.Stage = *patch.Stage
	}
	if patch.Message != nil {
		merged.Message = *patch.Message
	}
	if patch.Result != nil {
		result := *patch.Result
		merged.Result = &result
	}
	if patch.Error != nil {
		merged.ErrorMessage = *patch.Error
	}
	merged.UpdatedAt = time.Now().UTC()

	var resultJSON any
	if merged.Result != nil {
		encoded, err := json.Marshal(merged.Result)
		if err != nil {
			return Snapshot{}, fmt.Errorf("encode result: %w", err)
		}
		resultJSON = string(encoded)
	}

	_, err = s.db.ExecContext(
		ctx,
		`UPDATE jobs
         SET status = ?, progress = ?, stage = ?, message = ?,
             result_json = ?, error_message = ?, updated_at = ?
         WHERE id = ?`,
		merged.Status,
		merged.Progress,
		nullableString(merged.Stage),
		nullableString(merged.Message),
		resultJSON,
		nullableString(merged.ErrorMessage),
		merged.UpdatedAt.Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return Snapshot{}, fmt.Errorf("update job: %w", err)
	}
	return merged, nil
}

// List returns all job snapshots ordered by creation time.
func (s *Store) List(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		snap, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// Stats returns job counts per status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

const jobColumns = `id, status, progress, stage, message, result_json, error_message, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (Snapshot, error) {
	var (
		snap       Snapshot
		stage      sql.NullString
		message    sql.NullString
		resultJSON sql.NullString
		errMessage sql.NullString
		createdAt  string
		updatedAt  string
	)
	if err := row.Scan(&snap.ID, &snap.Status, &snap.Progress, &stage, &message, &resultJSON, &errMessage, &createdAt, &updatedAt); err != nil {
		return Snapshot{}, err
	}
	snap.Stage = stage.String
	snap.Message = message.String
	snap.ErrorMessage = errMessage.String
	if resultJSON.Valid && resultJSON.String != "" {
		var result Result
		if err := json.Unmarshal([]byte(resultJSON.String), &result); err != nil {
			return Snapshot{}, fmt.Errorf("decode result: %w", err)
		}
		snap.Result = &result
	}
	var err error
	if snap.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return Snapshot{}, fmt.Errorf("parse created_at: %w", err)
	}
	if snap.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return Snapshot{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return snap, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func clamp01(value float64) float64 {
	switch {
	case value < 0:
		return 0
	case value > 1:
		return 1
	default:
		return value
	}
}
