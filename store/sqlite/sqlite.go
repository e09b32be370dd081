/*
Package sqlite provides a SQLite-backed implementation of the roster store.

PURPOSE:
  Implements ledger.RosterStore using SQLite so that imported rosters and
  recorded payments survive a restart of the server. It also keeps the
  named collection policies the server can switch between, and an audit
  trail of every payment edit.

INTERFACES IMPLEMENTED:
  ledger.RosterStore: Snapshot persistence (save, latest, payments)

KEY TABLES:
  rosters:        One row per import; seq orders them, the highest is active
  participants:   Participants of every snapshot, in display order
  payment_events: Append-only log of paid amount edits
  policies:       Collection policy JSON documents (versioned)

LATEST WINS:
  Saving a roster never touches older snapshots. Latest() always reads the
  snapshot with the highest seq, so an import that shrinks the roster
  replaces the previous one completely.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. An in-memory database is pinned to
  a single connection because every new connection would see an empty
  database.

USAGE:
  store, err := sqlite.New("./data/cuotas.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - ledger/store.go: Interface definition
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/cuota-ledger/ledger"
)

// Store implements ledger.RosterStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Roster snapshots, one per import
	CREATE TABLE IF NOT EXISTS rosters (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		source TEXT,
		loaded_at TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Participants of each snapshot
	CREATE TABLE IF NOT EXISTS participants (
		roster_id TEXT NOT NULL REFERENCES rosters(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		participant_id INTEGER NOT NULL,
		full_name TEXT NOT NULL,
		paid_amount INTEGER NOT NULL DEFAULT 0 CHECK (paid_amount >= 0),
		registered_count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (roster_id, participant_id)
	);

	CREATE INDEX IF NOT EXISTS idx_participants_roster_position
		ON participants(roster_id, position);

	-- Payment edits (append-only)
	CREATE TABLE IF NOT EXISTS payment_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		roster_id TEXT NOT NULL REFERENCES rosters(id) ON DELETE CASCADE,
		participant_id INTEGER NOT NULL,
		previous_amount INTEGER NOT NULL,
		amount INTEGER NOT NULL,
		recorded_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payment_events_roster
		ON payment_events(roster_id, participant_id);

	-- Collection policies (JSON config)
	CREATE TABLE IF NOT EXISTS policies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		config_json TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ROSTER STORE (ledger.RosterStore interface)
// =============================================================================

// Save persists roster as the new active snapshot.
func (s *Store) Save(ctx context.Context, roster *ledger.Roster) error {
	if roster == nil {
		return ledger.ErrEmptyRoster
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	loadedAt := roster.LoadedAt
	if loadedAt.IsZero() {
		loadedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO rosters (id, source, loaded_at, created_at) VALUES (?, ?, ?, ?)",
		roster.ID, nullString(roster.Source),
		loadedAt.UTC().Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save roster: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO participants
		(roster_id, position, participant_id, full_name, paid_amount, registered_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for pos, p := range roster.Participants {
		if _, err := stmt.ExecContext(ctx, roster.ID, pos, int(p.ID), p.FullName, int64(p.PaidAmount), p.RegisteredCount); err != nil {
			return fmt.Errorf("failed to save participant %d: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// Latest returns the active snapshot, or ledger.ErrEmptyRoster.
func (s *Store) Latest(ctx context.Context) (*ledger.Roster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, err := s.latestID(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return s.loadRoster(ctx, id)
}

// Roster returns a stored snapshot by id.
func (s *Store) Roster(ctx context.Context, id string) (*ledger.Roster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadRoster(ctx, id)
}

// SetPaidAmount overwrites a participant's paid amount in the active
// snapshot and records the edit.
func (s *Store) SetPaidAmount(ctx context.Context, id ledger.ParticipantID, amount ledger.Amount) error {
	if amount < 0 {
		return ledger.ErrInvalidAmount
	}
	_, err := s.UpdatePaidAmount(ctx, id, func(ledger.Participant) (ledger.Amount, error) {
		return amount, nil
	})
	return err
}

// UpdatePaidAmount reads a participant of the active snapshot, stores the
// amount update returns for it and records the edit, all in one
// transaction.
func (s *Store) UpdatePaidAmount(ctx context.Context, id ledger.ParticipantID, update func(ledger.Participant) (ledger.Amount, error)) (ledger.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ledger.Participant{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rosterID, err := s.latestID(ctx, tx)
	if err != nil {
		return ledger.Participant{}, err
	}

	p := ledger.Participant{ID: id}
	var previous int64
	err = tx.QueryRowContext(ctx,
		"SELECT full_name, paid_amount, registered_count FROM participants WHERE roster_id = ? AND participant_id = ?",
		rosterID, int(id),
	).Scan(&p.FullName, &previous, &p.RegisteredCount)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Participant{}, &ledger.ParticipantNotFoundError{ID: id}
	}
	if err != nil {
		return ledger.Participant{}, err
	}
	p.PaidAmount = ledger.Amount(previous)

	amount, err := update(p)
	if err != nil {
		return ledger.Participant{}, err
	}
	if amount < 0 {
		return ledger.Participant{}, ledger.ErrInvalidAmount
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE participants SET paid_amount = ? WHERE roster_id = ? AND participant_id = ?",
		int64(amount), rosterID, int(id),
	); err != nil {
		return ledger.Participant{}, fmt.Errorf("failed to update payment: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO payment_events (roster_id, participant_id, previous_amount, amount, recorded_at)
		VALUES (?, ?, ?, ?, ?)
	`, rosterID, int(id), previous, int64(amount), time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return ledger.Participant{}, fmt.Errorf("failed to record payment event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return ledger.Participant{}, err
	}
	p.PaidAmount = amount
	return p, nil
}

// Snapshots lists stored snapshots, newest first.
func (s *Store) Snapshots(ctx context.Context) ([]ledger.SnapshotInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.source, r.loaded_at, COUNT(p.participant_id)
		FROM rosters r
		LEFT JOIN participants p ON p.roster_id = r.id
		GROUP BY r.seq
		ORDER BY r.seq DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ledger.SnapshotInfo{}
	for rows.Next() {
		var info ledger.SnapshotInfo
		var source sql.NullString
		var loadedAt string
		if err := rows.Scan(&info.ID, &source, &loadedAt, &info.Participants); err != nil {
			return nil, err
		}
		info.Source = source.String
		info.LoadedAt, _ = time.Parse(time.RFC3339Nano, loadedAt)
		out = append(out, info)
	}
	return out, rows.Err()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) latestID(ctx context.Context, q queryer) (string, error) {
	var id string
	err := q.QueryRowContext(ctx, "SELECT id FROM rosters ORDER BY seq DESC LIMIT 1").Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ledger.ErrEmptyRoster
	}
	return id, err
}

func (s *Store) loadRoster(ctx context.Context, id string) (*ledger.Roster, error) {
	r := &ledger.Roster{ID: id}
	var source sql.NullString
	var loadedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT source, loaded_at FROM rosters WHERE id = ?", id,
	).Scan(&source, &loadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrEmptyRoster
	}
	if err != nil {
		return nil, err
	}
	r.Source = source.String
	r.LoadedAt, _ = time.Parse(time.RFC3339Nano, loadedAt)

	rows, err := s.db.QueryContext(ctx, `
		SELECT participant_id, full_name, paid_amount, registered_count
		FROM participants WHERE roster_id = ? ORDER BY position
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	r.Participants = []ledger.Participant{}
	for rows.Next() {
		var p ledger.Participant
		var pid int
		var paid int64
		if err := rows.Scan(&pid, &p.FullName, &paid, &p.RegisteredCount); err != nil {
			return nil, err
		}
		p.ID = ledger.ParticipantID(pid)
		p.PaidAmount = ledger.Amount(paid)
		r.Participants = append(r.Participants, p)
	}
	return r, rows.Err()
}

// =============================================================================
// PAYMENT EVENTS - Audit trail of edits
// =============================================================================

// PaymentEvent is one recorded change of a paid amount.
type PaymentEvent struct {
	RosterID       string               `json:"roster_id"`
	ParticipantID  ledger.ParticipantID `json:"participant_id"`
	PreviousAmount ledger.Amount        `json:"previous_amount"`
	Amount         ledger.Amount        `json:"amount"`
	RecordedAt     time.Time            `json:"recorded_at"`
}

// PaymentEvents returns the edits made to a participant of the active
// snapshot, oldest first.
func (s *Store) PaymentEvents(ctx context.Context, id ledger.ParticipantID) ([]PaymentEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rosterID, err := s.latestID(ctx, s.db)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT previous_amount, amount, recorded_at
		FROM payment_events WHERE roster_id = ? AND participant_id = ?
		ORDER BY id
	`, rosterID, int(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []PaymentEvent{}
	for rows.Next() {
		e := PaymentEvent{RosterID: rosterID, ParticipantID: id}
		var prev, amount int64
		var recordedAt string
		if err := rows.Scan(&prev, &amount, &recordedAt); err != nil {
			return nil, err
		}
		e.PreviousAmount = ledger.Amount(prev)
		e.Amount = ledger.Amount(amount)
		e.RecordedAt, _ = time.Parse(time.RFC3339Nano, recordedAt)
		events = append(events, e)
	}
	return events, rows.Err()
}

// =============================================================================
// POLICY STORE - Named collection policies
// =============================================================================

// PolicyRecord is a stored policy document.
type PolicyRecord struct {
	ID         string
	Name       string
	ConfigJSON string
	Version    int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SavePolicy saves a policy record, bumping its version on update.
func (s *Store) SavePolicy(ctx context.Context, policy PolicyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO policies (id, name, config_json, version, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			config_json = excluded.config_json,
			version = policies.version + 1,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query, policy.ID, policy.Name, policy.ConfigJSON, now, now)
	return err
}

// GetPolicy retrieves a policy by ID. A missing policy returns nil, nil.
func (s *Store) GetPolicy(ctx context.Context, id string) (*PolicyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p PolicyRecord
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, config_json, version, created_at, updated_at FROM policies WHERE id = ?",
		id,
	).Scan(&p.ID, &p.Name, &p.ConfigJSON, &p.Version, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}

// ListPolicies returns all policies.
func (s *Store) ListPolicies(ctx context.Context) ([]PolicyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, config_json, version, created_at, updated_at FROM policies ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var policies []PolicyRecord
	for rows.Next() {
		var p PolicyRecord
		var createdAt, updatedAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.ConfigJSON, &p.Version, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		policies = append(policies, p)
	}
	return policies, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"payment_events", "participants", "rosters", "policies"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var _ ledger.RosterStore = (*Store)(nil)
