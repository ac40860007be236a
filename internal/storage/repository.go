// Package storage is the sqlite system of record. It implements every
// port in internal/store; installment groups go through Batch, which
// maps the atomic-batch contract onto one database transaction.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"parcelas/internal/core"
	"parcelas/internal/store"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const timeLayout = time.RFC3339Nano

func toDB(t time.Time) string { return t.UTC().Format(timeLayout) }

func fromDB(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Batch implements store.AtomicStore. All staged rows are written in a
// single transaction; a failed commit rolls everything back.
func (r *SQLiteRepository) Batch() store.BatchHandle {
	return &sqliteBatch{repo: r}
}

type sqliteBatch struct {
	repo   *SQLiteRepository
	staged []core.Payment
	done   bool
}

func (b *sqliteBatch) Add(p core.Payment) {
	b.staged = append(b.staged, p)
}

func (b *sqliteBatch) Commit(ctx context.Context) error {
	if b.done {
		return errors.New("batch already committed")
	}
	b.done = true

	tx, err := b.repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range b.staged {
		if err := insertPayment(ctx, tx, p); err != nil {
			return fmt.Errorf("stage payment %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch transaction: %w", err)
	}

	slog.InfoContext(ctx, "Payment batch committed",
		"rows", len(b.staged))
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertPayment(ctx context.Context, db execer, p core.Payment) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO payments (
			id, event_id, event_name, amount_cents, currency, due_date,
			method, notes, received, ordinal, group_size, group_id,
			owner_id, created_at, synced, sync_error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0)`,
		p.ID, p.EventID, p.EventName, p.Amount.Cents, p.Amount.Currency,
		toDB(p.DueDate.Time), string(p.Method), p.Notes, p.Received,
		p.Ordinal, p.GroupSize, p.GroupID, p.OwnerID, toDB(p.CreatedAt))
	return err
}

// CreatePayment implements store.PaymentWriter for standalone rows.
func (r *SQLiteRepository) CreatePayment(ctx context.Context, p core.Payment) (string, error) {
	if err := insertPayment(ctx, r.db, p); err != nil {
		return "", fmt.Errorf("create payment: %w", err)
	}
	slog.InfoContext(ctx, "Payment saved",
		"id", p.ID,
		"event_id", p.EventID,
		"amount_cents", p.Amount.Cents,
		"method", p.Method)
	return p.ID, nil
}

const paymentColumns = `
	id, event_id, event_name, amount_cents, currency, due_date, method,
	notes, received, ordinal, group_size, group_id, owner_id, created_at`

func scanPayment(row interface{ Scan(...any) error }) (core.Payment, error) {
	var (
		p                  core.Payment
		dueDate, createdAt string
		method             string
	)
	err := row.Scan(&p.ID, &p.EventID, &p.EventName, &p.Amount.Cents,
		&p.Amount.Currency, &dueDate, &method, &p.Notes, &p.Received,
		&p.Ordinal, &p.GroupSize, &p.GroupID, &p.OwnerID, &createdAt)
	if err != nil {
		return core.Payment{}, err
	}
	p.Method = core.PaymentMethod(method)
	p.DueDate = core.Date{Time: fromDB(dueDate)}
	p.CreatedAt = fromDB(createdAt)
	return p, nil
}

func (r *SQLiteRepository) GetPayment(ctx context.Context, ownerID, id string) (core.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = ? AND owner_id = ?`, id, ownerID)
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Payment{}, core.ErrNotFound
	}
	if err != nil {
		return core.Payment{}, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

// GetAnyPayment fetches a payment without owner scoping; the sync
// worker processes queue messages for every owner.
func (r *SQLiteRepository) GetAnyPayment(ctx context.Context, id string) (core.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Payment{}, core.ErrNotFound
	}
	if err != nil {
		return core.Payment{}, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) queryPayments(ctx context.Context, query string, args ...any) ([]core.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListPayments(ctx context.Context, ownerID string) ([]core.Payment, error) {
	out, err := r.queryPayments(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE owner_id = ? ORDER BY due_date DESC, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) ListPaymentsByEvent(ctx context.Context, ownerID, eventID string) ([]core.Payment, error) {
	out, err := r.queryPayments(ctx,
		`SELECT `+paymentColumns+` FROM payments
		 WHERE owner_id = ? AND event_id = ?
		 ORDER BY group_id, ordinal, due_date`, ownerID, eventID)
	if err != nil {
		return nil, fmt.Errorf("list payments by event: %w", err)
	}
	return out, nil
}

// ListPaymentsByMonth returns payments due inside the half-open
// [first of month, first of next month) window, soonest first.
func (r *SQLiteRepository) ListPaymentsByMonth(ctx context.Context, ownerID string, year, month int) ([]core.Payment, error) {
	w := core.MonthWindow(year, month)
	out, err := r.queryPayments(ctx,
		`SELECT `+paymentColumns+` FROM payments
		 WHERE owner_id = ? AND due_date >= ? AND due_date < ?
		 ORDER BY due_date ASC, id`, ownerID, toDB(w.Start), toDB(w.End))
	if err != nil {
		return nil, fmt.Errorf("list payments by month: %w", err)
	}
	return out, nil
}

// UpdatePayment applies a typed patch. Group identity, ordinal stamps
// and created_at are deliberately absent from the SET list. Every edit
// re-enters the sync queue.
func (r *SQLiteRepository) UpdatePayment(ctx context.Context, ownerID, id string, patch core.PaymentPatch) error {
	sets := []string{"synced = 0", "sync_error = 0"}
	var args []any
	if patch.Amount != nil {
		sets = append(sets, "amount_cents = ?", "currency = ?")
		args = append(args, patch.Amount.Cents, patch.Amount.Currency)
	}
	if patch.DueDate != nil {
		sets = append(sets, "due_date = ?")
		args = append(args, toDB(patch.DueDate.Time))
	}
	if patch.Method != nil {
		sets = append(sets, "method = ?")
		args = append(args, string(*patch.Method))
	}
	if patch.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *patch.Notes)
	}
	if patch.Received != nil {
		sets = append(sets, "received = ?")
		args = append(args, *patch.Received)
	}
	args = append(args, id, ownerID)

	res, err := r.db.ExecContext(ctx,
		`UPDATE payments SET `+strings.Join(sets, ", ")+` WHERE id = ? AND owner_id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeletePayment(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM payments WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// PendingSyncPayment is the minimal row the worker needs to rescan
// payments that missed their queue message.
type PendingSyncPayment struct {
	ID        string
	CreatedAt time.Time
}

func (r *SQLiteRepository) ListPendingSync(ctx context.Context, limit int) ([]PendingSyncPayment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at FROM payments
		 WHERE synced = 0 AND sync_error = 0
		 ORDER BY created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending sync payments: %w", err)
	}
	defer rows.Close()

	var out []PendingSyncPayment
	for rows.Next() {
		var p PendingSyncPayment
		var createdAt string
		if err := rows.Scan(&p.ID, &createdAt); err != nil {
			return nil, err
		}
		p.CreatedAt = fromDB(createdAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE payments SET synced = 1, sync_error = 0 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark payment synced: %w", err)
	}
	slog.InfoContext(ctx, "Payment marked as synced", "id", id)
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE payments SET sync_error = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark payment sync error: %w", err)
	}
	slog.WarnContext(ctx, "Payment marked with sync error", "id", id)
	return nil
}

func (r *SQLiteRepository) CreateClient(ctx context.Context, c core.Client) (string, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, phone, email, notes, owner_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Phone, c.Email, c.Notes, c.OwnerID, toDB(c.CreatedAt))
	if err != nil {
		return "", fmt.Errorf("create client: %w", err)
	}
	return c.ID, nil
}

func (r *SQLiteRepository) ListClients(ctx context.Context, ownerID string) ([]core.Client, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, phone, email, notes, owner_id, created_at
		FROM clients WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var out []core.Client
	for rows.Next() {
		var c core.Client
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Notes, &c.OwnerID, &createdAt); err != nil {
			return nil, err
		}
		c.CreatedAt = fromDB(createdAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateClient(ctx context.Context, ownerID, id string, patch core.ClientPatch) error {
	var sets []string
	var args []any
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Phone != nil {
		sets = append(sets, "phone = ?")
		args = append(args, *patch.Phone)
	}
	if patch.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *patch.Email)
	}
	if patch.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *patch.Notes)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id, ownerID)
	res, err := r.db.ExecContext(ctx,
		`UPDATE clients SET `+strings.Join(sets, ", ")+` WHERE id = ? AND owner_id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteClient(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM clients WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) CreateEvent(ctx context.Context, e core.Event) (string, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO events (
			id, name, type, date, location, client_id, client_name,
			status, contract_total_cents, currency, details, owner_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, string(e.Type), toDB(e.Date.Time), e.Location,
		e.ClientID, e.ClientName, string(e.Status), e.ContractTotal.Cents,
		e.ContractTotal.Currency, e.Details, e.OwnerID, toDB(e.CreatedAt))
	if err != nil {
		return "", fmt.Errorf("create event: %w", err)
	}
	return e.ID, nil
}

const eventColumns = `
	id, name, type, date, location, client_id, client_name, status,
	contract_total_cents, currency, details, owner_id, created_at`

func scanEvent(row interface{ Scan(...any) error }) (core.Event, error) {
	var (
		e               core.Event
		typ, status     string
		date, createdAt string
	)
	err := row.Scan(&e.ID, &e.Name, &typ, &date, &e.Location, &e.ClientID,
		&e.ClientName, &status, &e.ContractTotal.Cents,
		&e.ContractTotal.Currency, &e.Details, &e.OwnerID, &createdAt)
	if err != nil {
		return core.Event{}, err
	}
	e.Type = core.EventType(typ)
	e.Status = core.EventStatus(status)
	e.Date = core.Date{Time: fromDB(date)}
	e.CreatedAt = fromDB(createdAt)
	return e, nil
}

func (r *SQLiteRepository) GetEvent(ctx context.Context, ownerID, id string) (core.Event, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ? AND owner_id = ?`, id, ownerID)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Event{}, core.ErrNotFound
	}
	if err != nil {
		return core.Event{}, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) ListEvents(ctx context.Context, ownerID string) ([]core.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE owner_id = ? ORDER BY date DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []core.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateEvent(ctx context.Context, ownerID, id string, patch core.EventPatch) error {
	var sets []string
	var args []any
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Type != nil {
		sets = append(sets, "type = ?")
		args = append(args, string(*patch.Type))
	}
	if patch.Date != nil {
		sets = append(sets, "date = ?")
		args = append(args, toDB(patch.Date.Time))
	}
	if patch.Location != nil {
		sets = append(sets, "location = ?")
		args = append(args, *patch.Location)
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*patch.Status))
	}
	if patch.ContractTotal != nil {
		sets = append(sets, "contract_total_cents = ?", "currency = ?")
		args = append(args, patch.ContractTotal.Cents, patch.ContractTotal.Currency)
	}
	if patch.Details != nil {
		sets = append(sets, "details = ?")
		args = append(args, *patch.Details)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id, ownerID)
	res, err := r.db.ExecContext(ctx,
		`UPDATE events SET `+strings.Join(sets, ", ")+` WHERE id = ? AND owner_id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteEvent(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM events WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return requireRow(res)
}

// Ensure interface conformance
var (
	_ store.AtomicStore   = (*SQLiteRepository)(nil)
	_ store.PaymentWriter = (*SQLiteRepository)(nil)
	_ store.PaymentReader = (*SQLiteRepository)(nil)
	_ store.ClientStore   = (*SQLiteRepository)(nil)
	_ store.EventStore    = (*SQLiteRepository)(nil)
)
