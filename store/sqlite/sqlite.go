/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements engine.TxStore (user directory, holiday store, request store,
  category table) using SQLite. In production, the same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  users:      Per-user configuration: schedule tokens and annual allocation
  holidays:   Org-scoped holiday records, recurring flag included
  requests:   Leave requests; the status written at creation is the
              decision engine's verdict
  categories: Per-org category to ledger-type mapping

ATOMIC BOOKING:
  WithTx wraps the booking service's read-decide-write sequence in a single
  SQL transaction, so no request can be admitted against a balance that
  another in-flight request has already consumed.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/leave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := &engine.BookingService{Store: store, Holidays: calendar.New(store)}

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - engine/stores.go: Interface definitions
  - engine/booking.go: Booking service using TxStore
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tidehr/leave-engine/engine"
)

// Store implements engine.TxStore using SQLite.
type Store struct {
	db *sql.DB
}

var _ engine.TxStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps SQLite's writer locking predictable under WAL.
	db.SetMaxOpenConns(1)

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
	CREATE TABLE IF NOT EXISTS users (
		org_id       TEXT NOT NULL,
		id           TEXT NOT NULL,
		name         TEXT NOT NULL DEFAULT '',
		email        TEXT NOT NULL DEFAULT '',
		working_days TEXT NOT NULL DEFAULT '',
		half_days    TEXT NOT NULL DEFAULT '',
		allocation   TEXT NOT NULL DEFAULT '0',
		created_at   TEXT NOT NULL,
		PRIMARY KEY (org_id, id)
	);

	CREATE TABLE IF NOT EXISTS holidays (
		id         TEXT PRIMARY KEY,
		org_id     TEXT NOT NULL,
		date       TEXT NOT NULL,
		name       TEXT NOT NULL,
		recurring  BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_org_date
		ON holidays(org_id, date);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_holidays_org_date_name
		ON holidays(org_id, date, name);

	CREATE TABLE IF NOT EXISTS requests (
		id             TEXT PRIMARY KEY,
		org_id         TEXT NOT NULL,
		user_id        TEXT NOT NULL,
		date_from      TEXT NOT NULL,
		date_to        TEXT NOT NULL,
		day_part       TEXT NOT NULL DEFAULT 'full',
		start_part     TEXT NOT NULL DEFAULT 'full',
		end_part       TEXT NOT NULL DEFAULT 'full',
		category       TEXT NOT NULL,
		status         TEXT NOT NULL,
		admin_response TEXT NOT NULL DEFAULT '',
		created_at     TEXT NOT NULL,
		decided_at     TEXT,
		decided_by     TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_requests_org_user
		ON requests(org_id, user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_requests_org_status
		ON requests(org_id, status);

	CREATE TABLE IF NOT EXISTS categories (
		org_id      TEXT NOT NULL,
		name        TEXT NOT NULL,
		ledger_type TEXT NOT NULL,
		PRIMARY KEY (org_id, name)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// dbtx is the subset of *sql.DB and *sql.Tx the queries need.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// USER DIRECTORY
// =============================================================================

func (s *Store) User(ctx context.Context, org engine.OrgID, id engine.UserID) (engine.UserConfig, error) {
	return userQuery(ctx, s.db, org, id)
}

func userQuery(ctx context.Context, db dbtx, org engine.OrgID, id engine.UserID) (engine.UserConfig, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, name, email, working_days, half_days, allocation
		FROM users WHERE org_id = ? AND id = ?`, string(org), string(id))
	cfg, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.UserConfig{}, engine.ErrUserNotFound
	}
	return cfg, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (engine.UserConfig, error) {
	var (
		cfg                 engine.UserConfig
		working, half, allo string
	)
	if err := row.Scan(&cfg.ID, &cfg.Name, &cfg.Email, &working, &half, &allo); err != nil {
		return engine.UserConfig{}, err
	}

	sched, err := engine.ParseSchedule(splitTokens(working), splitTokens(half))
	if err != nil {
		return engine.UserConfig{}, fmt.Errorf("user %s has a corrupt schedule: %w", cfg.ID, err)
	}
	cfg.Schedule = sched
	cfg.Allocation = engine.ParseDays(allo)
	return cfg, nil
}

func (s *Store) Users(ctx context.Context, org engine.OrgID) ([]engine.UserConfig, error) {
	return usersQuery(ctx, s.db, org)
}

func usersQuery(ctx context.Context, db dbtx, org engine.OrgID) ([]engine.UserConfig, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, email, working_days, half_days, allocation
		FROM users WHERE org_id = ? ORDER BY id`, string(org))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.UserConfig
	for rows.Next() {
		cfg, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, rows.Err()
}

func (s *Store) SaveUser(ctx context.Context, org engine.OrgID, cfg engine.UserConfig) error {
	return saveUser(ctx, s.db, org, cfg)
}

func saveUser(ctx context.Context, db dbtx, org engine.OrgID, cfg engine.UserConfig) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO users (org_id, id, name, email, working_days, half_days, allocation, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(org_id, id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			working_days = excluded.working_days,
			half_days = excluded.half_days,
			allocation = excluded.allocation`,
		string(org), string(cfg.ID), cfg.Name, cfg.Email,
		joinTokens(cfg.Schedule.Working.Tokens()),
		joinTokens(cfg.Schedule.Half.Tokens()),
		cfg.Allocation.String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) SetAllocation(ctx context.Context, org engine.OrgID, id engine.UserID, allocation engine.Days) error {
	return setAllocation(ctx, s.db, org, id, allocation)
}

func setAllocation(ctx context.Context, db dbtx, org engine.OrgID, id engine.UserID, allocation engine.Days) error {
	res, err := db.ExecContext(ctx,
		`UPDATE users SET allocation = ? WHERE org_id = ? AND id = ?`,
		allocation.String(), string(org), string(id))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return engine.ErrUserNotFound
	}
	return nil
}

// =============================================================================
// HOLIDAY STORE
// =============================================================================

func (s *Store) Holidays(ctx context.Context, org engine.OrgID) ([]engine.Holiday, error) {
	return holidaysQuery(ctx, s.db, org)
}

func holidaysQuery(ctx context.Context, db dbtx, org engine.OrgID) ([]engine.Holiday, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, date, name, recurring
		FROM holidays WHERE org_id = ? ORDER BY date`, string(org))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.Holiday
	for rows.Next() {
		var (
			h       engine.Holiday
			dateStr string
		)
		if err := rows.Scan(&h.ID, &dateStr, &h.Name, &h.Recurring); err != nil {
			return nil, err
		}
		d, err := engine.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("holiday %s has a corrupt date: %w", h.ID, err)
		}
		h.Date = d
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) SaveHoliday(ctx context.Context, org engine.OrgID, h engine.Holiday) error {
	return saveHoliday(ctx, s.db, org, h)
}

func saveHoliday(ctx context.Context, db dbtx, org engine.OrgID, h engine.Holiday) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO holidays (id, org_id, date, name, recurring, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(org_id, date, name) DO UPDATE SET recurring = excluded.recurring`,
		h.ID, string(org), h.Date.String(), h.Name, h.Recurring,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) DeleteHoliday(ctx context.Context, org engine.OrgID, id string) error {
	return deleteHoliday(ctx, s.db, org, id)
}

func deleteHoliday(ctx context.Context, db dbtx, org engine.OrgID, id string) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM holidays WHERE org_id = ? AND id = ?`, string(org), id)
	return err
}

// =============================================================================
// REQUEST STORE
// =============================================================================

const requestColumns = `id, org_id, user_id, date_from, date_to, day_part,
	start_part, end_part, category, status, admin_response,
	created_at, decided_at, decided_by`

func (s *Store) Requests(ctx context.Context, org engine.OrgID, user engine.UserID) ([]engine.LeaveRequest, error) {
	return requestsByUser(ctx, s.db, org, user)
}

func requestsByUser(ctx context.Context, db dbtx, org engine.OrgID, user engine.UserID) ([]engine.LeaveRequest, error) {
	return requestsQuery(ctx, db, `
		SELECT `+requestColumns+` FROM requests
		WHERE org_id = ? AND user_id = ? ORDER BY created_at`,
		string(org), string(user))
}

func (s *Store) Request(ctx context.Context, org engine.OrgID, id engine.RequestID) (engine.LeaveRequest, error) {
	return requestQuery(ctx, s.db, org, id)
}

func requestQuery(ctx context.Context, db dbtx, org engine.OrgID, id engine.RequestID) (engine.LeaveRequest, error) {
	reqs, err := requestsQuery(ctx, db, `
		SELECT `+requestColumns+` FROM requests
		WHERE org_id = ? AND id = ?`, string(org), string(id))
	if err != nil {
		return engine.LeaveRequest{}, err
	}
	if len(reqs) == 0 {
		return engine.LeaveRequest{}, engine.ErrRequestNotFound
	}
	return reqs[0], nil
}

func (s *Store) PendingRequests(ctx context.Context, org engine.OrgID) ([]engine.LeaveRequest, error) {
	return pendingRequests(ctx, s.db, org)
}

func pendingRequests(ctx context.Context, db dbtx, org engine.OrgID) ([]engine.LeaveRequest, error) {
	return requestsQuery(ctx, db, `
		SELECT `+requestColumns+` FROM requests
		WHERE org_id = ? AND status = ? ORDER BY created_at`,
		string(org), string(engine.StatusPending))
}

func requestsQuery(ctx context.Context, db dbtx, query string, args ...any) ([]engine.LeaveRequest, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.LeaveRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRequest(rows *sql.Rows) (engine.LeaveRequest, error) {
	var (
		r                        engine.LeaveRequest
		from, to                 string
		part, startPart, endPart string
		createdAt                string
		decidedAt                sql.NullString
	)
	if err := rows.Scan(
		&r.ID, &r.OrgID, &r.UserID, &from, &to, &part,
		&startPart, &endPart, &r.Category, &r.Status, &r.AdminResponse,
		&createdAt, &decidedAt, &r.DecidedBy,
	); err != nil {
		return engine.LeaveRequest{}, err
	}

	var err error
	if r.Span.From, err = engine.ParseDate(from); err != nil {
		return engine.LeaveRequest{}, err
	}
	if r.Span.To, err = engine.ParseDate(to); err != nil {
		return engine.LeaveRequest{}, err
	}
	if r.Span.Part, err = engine.ParseDayPart(part); err != nil {
		return engine.LeaveRequest{}, err
	}
	if r.Span.StartPart, err = engine.ParseDayPart(startPart); err != nil {
		return engine.LeaveRequest{}, err
	}
	if r.Span.EndPart, err = engine.ParseDayPart(endPart); err != nil {
		return engine.LeaveRequest{}, err
	}

	if r.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return engine.LeaveRequest{}, err
	}
	if decidedAt.Valid {
		t, err := time.Parse(time.RFC3339, decidedAt.String)
		if err != nil {
			return engine.LeaveRequest{}, err
		}
		r.DecidedAt = &t
	}
	return r, nil
}

func (s *Store) SaveRequest(ctx context.Context, req engine.LeaveRequest) error {
	return saveRequest(ctx, s.db, req)
}

func saveRequest(ctx context.Context, db dbtx, req engine.LeaveRequest) error {
	var decidedAt sql.NullString
	if req.DecidedAt != nil {
		decidedAt = sql.NullString{String: req.DecidedAt.UTC().Format(time.RFC3339), Valid: true}
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO requests (id, org_id, user_id, date_from, date_to, day_part,
			start_part, end_part, category, status, admin_response,
			created_at, decided_at, decided_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(req.ID), string(req.OrgID), string(req.UserID),
		req.Span.From.String(), req.Span.To.String(), string(req.Span.Part),
		string(req.Span.StartPart), string(req.Span.EndPart),
		string(req.Category), string(req.Status), req.AdminResponse,
		req.CreatedAt.UTC().Format(time.RFC3339), decidedAt, req.DecidedBy,
	)
	return err
}

func (s *Store) Transition(ctx context.Context, org engine.OrgID, id engine.RequestID, to engine.RequestStatus, adminResponse, decidedBy string) error {
	return transition(ctx, s.db, org, id, to, adminResponse, decidedBy)
}

func transition(ctx context.Context, db dbtx, org engine.OrgID, id engine.RequestID, to engine.RequestStatus, adminResponse, decidedBy string) error {
	// Pending may move to any terminal status; Approved may only be cancelled.
	allowedFrom := []any{string(engine.StatusPending)}
	if to == engine.StatusCancelled {
		allowedFrom = append(allowedFrom, string(engine.StatusApproved))
	}

	query := fmt.Sprintf(`
		UPDATE requests SET
			status = ?,
			admin_response = CASE WHEN ? != '' THEN ? ELSE admin_response END,
			decided_at = ?,
			decided_by = ?
		WHERE org_id = ? AND id = ? AND status IN (%s)`,
		placeholders(len(allowedFrom)))

	args := []any{
		string(to), adminResponse, adminResponse,
		time.Now().UTC().Format(time.RFC3339), decidedBy,
		string(org), string(id),
	}
	args = append(args, allowedFrom...)

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a missing request from one already decided.
		if _, err := requestQuery(ctx, db, org, id); err != nil {
			return err
		}
		return engine.ErrRequestNotPending
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// =============================================================================
// CATEGORY STORE
// =============================================================================

func (s *Store) Categories(ctx context.Context, org engine.OrgID) (engine.CategoryPolicy, error) {
	return categoriesQuery(ctx, s.db, org)
}

func categoriesQuery(ctx context.Context, db dbtx, org engine.OrgID) (engine.CategoryPolicy, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name, ledger_type FROM categories WHERE org_id = ?`, string(org))
	if err != nil {
		return engine.CategoryPolicy{}, err
	}
	defer rows.Close()

	table := map[engine.Category]engine.LedgerType{}
	for rows.Next() {
		var name, lt string
		if err := rows.Scan(&name, &lt); err != nil {
			return engine.CategoryPolicy{}, err
		}
		table[engine.Category(name)] = engine.LedgerType(lt)
	}
	return engine.NewCategoryPolicy(table), rows.Err()
}

// SaveCategories replaces the org's whole category table atomically.
func (s *Store) SaveCategories(ctx context.Context, org engine.OrgID, p engine.CategoryPolicy) error {
	return s.WithTx(ctx, func(st engine.Store) error {
		return st.SaveCategories(ctx, org, p)
	})
}

func saveCategories(ctx context.Context, db dbtx, org engine.OrgID, p engine.CategoryPolicy) error {
	if _, err := db.ExecContext(ctx,
		`DELETE FROM categories WHERE org_id = ?`, string(org)); err != nil {
		return err
	}
	for c, lt := range p.Table() {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO categories (org_id, name, ledger_type) VALUES (?, ?, ?)`,
			string(org), string(c), string(lt)); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx runs fn against a transactional view of the store. If fn returns an
// error the transaction is rolled back, otherwise committed.
func (s *Store) WithTx(ctx context.Context, fn func(engine.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(&txStore{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

// txStore is the transactional view handed to WithTx callbacks.
type txStore struct {
	tx *sql.Tx
}

var _ engine.Store = (*txStore)(nil)

func (t *txStore) User(ctx context.Context, org engine.OrgID, id engine.UserID) (engine.UserConfig, error) {
	return userQuery(ctx, t.tx, org, id)
}

func (t *txStore) Users(ctx context.Context, org engine.OrgID) ([]engine.UserConfig, error) {
	return usersQuery(ctx, t.tx, org)
}

func (t *txStore) SaveUser(ctx context.Context, org engine.OrgID, cfg engine.UserConfig) error {
	return saveUser(ctx, t.tx, org, cfg)
}

func (t *txStore) SetAllocation(ctx context.Context, org engine.OrgID, id engine.UserID, allocation engine.Days) error {
	return setAllocation(ctx, t.tx, org, id, allocation)
}

func (t *txStore) Holidays(ctx context.Context, org engine.OrgID) ([]engine.Holiday, error) {
	return holidaysQuery(ctx, t.tx, org)
}

func (t *txStore) SaveHoliday(ctx context.Context, org engine.OrgID, h engine.Holiday) error {
	return saveHoliday(ctx, t.tx, org, h)
}

func (t *txStore) DeleteHoliday(ctx context.Context, org engine.OrgID, id string) error {
	return deleteHoliday(ctx, t.tx, org, id)
}

func (t *txStore) Requests(ctx context.Context, org engine.OrgID, user engine.UserID) ([]engine.LeaveRequest, error) {
	return requestsByUser(ctx, t.tx, org, user)
}

func (t *txStore) Request(ctx context.Context, org engine.OrgID, id engine.RequestID) (engine.LeaveRequest, error) {
	return requestQuery(ctx, t.tx, org, id)
}

func (t *txStore) PendingRequests(ctx context.Context, org engine.OrgID) ([]engine.LeaveRequest, error) {
	return pendingRequests(ctx, t.tx, org)
}

func (t *txStore) SaveRequest(ctx context.Context, req engine.LeaveRequest) error {
	return saveRequest(ctx, t.tx, req)
}

func (t *txStore) Transition(ctx context.Context, org engine.OrgID, id engine.RequestID, to engine.RequestStatus, adminResponse, decidedBy string) error {
	return transition(ctx, t.tx, org, id, to, adminResponse, decidedBy)
}

func (t *txStore) Categories(ctx context.Context, org engine.OrgID) (engine.CategoryPolicy, error) {
	return categoriesQuery(ctx, t.tx, org)
}

func (t *txStore) SaveCategories(ctx context.Context, org engine.OrgID, p engine.CategoryPolicy) error {
	return saveCategories(ctx, t.tx, org, p)
}

// =============================================================================
// HELPERS
// =============================================================================

func splitTokens(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func joinTokens(tokens []string) string {
	return strings.Join(tokens, ",")
}
