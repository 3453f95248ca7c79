package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kursadbilgin/photo-dispatch/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestNewGormAttemptRepoRequiresDB(t *testing.T) {
	t.Parallel()

	if _, err := NewGormAttemptRepo(nil); err == nil {
		t.Fatal("expected error for nil db")
	}
}

func TestGormAttemptRepoCreateRejectsNilAttempt(t *testing.T) {
	t.Parallel()

	repo := &GormAttemptRepo{}
	if err := repo.Create(context.Background(), nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Create() error = %v, want ErrValidation", err)
	}
}

func TestAttemptModelKeepsFailureDetail(t *testing.T) {
	t.Parallel()

	status := 403
	errText := "sendgrid provider error: status=403: access forbidden"
	attempt := &domain.DeliveryAttempt{
		ID:         "a-1",
		SessionID:  "s1",
		Recipient:  "a@b.com",
		Provider:   "sendgrid",
		PhotoCount: 2,
		Outcome:    domain.AttemptFailed,
		Category:   domain.CategoryConfiguration,
		StatusCode: &status,
		Error:      &errText,
		CreatedAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	model := attemptModelFromDomain(attempt)
	if model.TableName() != "delivery_attempts" {
		t.Fatalf("TableName() = %q, want delivery_attempts", model.TableName())
	}

	back := attemptModelToDomain(model)
	if back.Category != domain.CategoryConfiguration || back.Outcome != domain.AttemptFailed {
		t.Fatalf("category/outcome = %s/%s, want CONFIGURATION/FAILED", back.Category, back.Outcome)
	}
	if back.StatusCode == nil || *back.StatusCode != 403 {
		t.Fatalf("StatusCode = %v, want 403", back.StatusCode)
	}
	if back.Error == nil || *back.Error != errText {
		t.Fatalf("Error = %v, want %q", back.Error, errText)
	}
}

func TestGormAttemptRepoCreateInsertsAttempt(t *testing.T) {
	t.Parallel()

	rec := &sqlRecorder{}
	repo := newRecordedRepo(t, rec)

	status := 202
	attempt := &domain.DeliveryAttempt{
		ID:         "a-1",
		SessionID:  "s1",
		Recipient:  "a@b.com",
		Provider:   "sendgrid",
		PhotoCount: 2,
		Outcome:    domain.AttemptSent,
		StatusCode: &status,
		CreatedAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := repo.Create(context.Background(), attempt); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	stmts := rec.statements()
	if len(stmts) != 1 {
		t.Fatalf("statements = %d, want 1", len(stmts))
	}
	if !strings.HasPrefix(stmts[0].query, `INSERT INTO "delivery_attempts"`) {
		t.Fatalf("query = %q, want insert into delivery_attempts", stmts[0].query)
	}
	if !containsArg(stmts[0].args, "a-1") || !containsArg(stmts[0].args, "s1") || !containsArg(stmts[0].args, "SENT") {
		t.Fatalf("args = %v, want id, session and outcome", stmts[0].args)
	}
	if attempt.ID != "a-1" || attempt.StatusCode == nil || *attempt.StatusCode != 202 {
		t.Fatalf("attempt = %+v, want fields kept after insert", attempt)
	}
}

func TestGormAttemptRepoCreateReturnsDBError(t *testing.T) {
	t.Parallel()

	rec := &sqlRecorder{err: errors.New("relation does not exist")}
	repo := newRecordedRepo(t, rec)

	err := repo.Create(context.Background(), &domain.DeliveryAttempt{ID: "a-1", SessionID: "s1", Outcome: domain.AttemptSent})
	if err == nil || !strings.Contains(err.Error(), "relation does not exist") {
		t.Fatalf("Create() error = %v, want db error", err)
	}
}

func TestGormAttemptRepoListBySessionNewestFirst(t *testing.T) {
	t.Parallel()

	newer := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)
	rec := &sqlRecorder{
		columns: []string{"id", "session_id", "recipient", "provider", "photo_count", "outcome", "category", "created_at"},
	}
	rec.rows = [][]driver.Value{
		{"a-2", "s1", "a@b.com", "sendgrid", int64(2), "FAILED", "DELIVERY", newer},
		{"a-1", "s1", "a@b.com", "sendgrid", int64(2), "SENT", "", older},
	}
	repo := newRecordedRepo(t, rec)

	attempts, err := repo.ListBySession(context.Background(), "s1")
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("len(attempts) = %d, want 2", len(attempts))
	}
	if attempts[0].ID != "a-2" || attempts[0].Outcome != domain.AttemptFailed || attempts[0].Category != domain.CategoryDelivery {
		t.Fatalf("attempts[0] = %+v, want newest failed attempt", attempts[0])
	}
	if !attempts[1].CreatedAt.Equal(older) || attempts[1].PhotoCount != 2 {
		t.Fatalf("attempts[1] = %+v, want older sent attempt", attempts[1])
	}

	stmts := rec.statements()
	if len(stmts) != 1 {
		t.Fatalf("statements = %d, want 1", len(stmts))
	}
	query := stmts[0].query
	for _, want := range []string{`FROM "delivery_attempts"`, "session_id = $1", "ORDER BY created_at DESC", "LIMIT $2"} {
		if !strings.Contains(query, want) {
			t.Fatalf("query = %q, want it to contain %q", query, want)
		}
	}
	if !containsArg(stmts[0].args, "s1") || !containsArg(stmts[0].args, int64(maxAttemptsPerSession)) {
		t.Fatalf("args = %v, want session id and limit %d", stmts[0].args, maxAttemptsPerSession)
	}
}

func newRecordedRepo(t *testing.T, rec *sqlRecorder) *GormAttemptRepo {
	t.Helper()

	sqlDB := sql.OpenDB(recordingConnector{rec: rec})
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	if err != nil {
		t.Fatalf("gorm.Open() error = %v", err)
	}

	repo, err := NewGormAttemptRepo(db)
	if err != nil {
		t.Fatalf("NewGormAttemptRepo() error = %v", err)
	}
	return repo
}

func containsArg(args []driver.Value, want driver.Value) bool {
	for _, arg := range args {
		if arg == want {
			return true
		}
	}
	return false
}

type recordedStatement struct {
	query string
	args  []driver.Value
}

// sqlRecorder captures every statement and answers queries with fixed rows.
type sqlRecorder struct {
	mu    sync.Mutex
	stmts []recordedStatement

	columns []string
	rows    [][]driver.Value
	err     error
}

func (r *sqlRecorder) record(query string, args []driver.NamedValue) {
	values := make([]driver.Value, 0, len(args))
	for _, arg := range args {
		values = append(values, arg.Value)
	}

	r.mu.Lock()
	r.stmts = append(r.stmts, recordedStatement{query: query, args: values})
	r.mu.Unlock()
}

func (r *sqlRecorder) statements() []recordedStatement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedStatement(nil), r.stmts...)
}

type recordingConnector struct {
	rec *sqlRecorder
}

func (c recordingConnector) Connect(context.Context) (driver.Conn, error) {
	return recordingConn(c), nil
}

func (c recordingConnector) Driver() driver.Driver {
	return recordingDriver(c)
}

type recordingDriver struct {
	rec *sqlRecorder
}

func (d recordingDriver) Open(string) (driver.Conn, error) {
	return recordingConn(d), nil
}

type recordingConn struct {
	rec *sqlRecorder
}

func (c recordingConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not implemented") }
func (c recordingConn) Close() error                        { return nil }
func (c recordingConn) Begin() (driver.Tx, error)           { return nil, errors.New("not implemented") }
func (c recordingConn) Ping(context.Context) error          { return nil }

func (c recordingConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.rec.record(query, args)
	if c.rec.err != nil {
		return nil, c.rec.err
	}
	return driver.RowsAffected(1), nil
}

func (c recordingConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.rec.record(query, args)
	if c.rec.err != nil {
		return nil, c.rec.err
	}
	return &recordedRows{columns: c.rec.columns, rows: c.rec.rows}, nil
}

type recordedRows struct {
	columns []string
	rows    [][]driver.Value
	next    int
}

func (r *recordedRows) Columns() []string { return r.columns }
func (r *recordedRows) Close() error      { return nil }

func (r *recordedRows) Next(dest []driver.Value) error {
	if r.next >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.next])
	r.next++
	return nil
}
