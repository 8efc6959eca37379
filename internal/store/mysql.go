package store

import (
	"context"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"tasklists/internal/task"
)

type MySQLStore struct {
	db  *sqlx.DB
	now func() time.Time
}

type mysqlTask struct {
	ID        string    `db:"id"`
	Content   string    `db:"content"`
	ListType  string    `db:"list_type"`
	CreatedAt time.Time `db:"created_at"`
}

// OpenMySQL connects with dsn and creates the tasks table if needed. The
// DSN must set parseTime=true.
func OpenMySQL(ctx context.Context, dsn string) (*MySQLStore, error) {
	db, err := sqlx.ConnectContext(ctx, "mysql", dsn)
	if err != nil {
		return nil, err
	}
	s := &MySQLStore{db: db, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQLStore) migrate(ctx context.Context) error {
	createTasks := `CREATE TABLE IF NOT EXISTS tasks (
    id CHAR(36) PRIMARY KEY,
    content TEXT NOT NULL,
    list_type VARCHAR(255) NOT NULL,
    created_at DATETIME(6) NOT NULL
)`
	if _, err := s.db.ExecContext(ctx, createTasks); err != nil {
		return err
	}
	// MySQL has no CREATE INDEX IF NOT EXISTS; a duplicate name means it is already there.
	return s.execIgnoreDupIndex(ctx, `CREATE INDEX idx_tasks_created_at ON tasks(created_at)`)
}

func (s *MySQLStore) execIgnoreDupIndex(ctx context.Context, ddl string) error {
	_, err := s.db.ExecContext(ctx, ddl)
	if isDuplicateIndex(err) {
		return nil
	}
	return err
}

func isDuplicateIndex(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1061
}

func (s *MySQLStore) Create(ctx context.Context, d task.Draft) (task.Task, error) {
	t := task.Task{
		ID:        uuid.NewString(),
		Content:   d.Content,
		ListType:  d.ListType,
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO tasks (id, content, list_type, created_at) VALUES (?, ?, ?, ?)`,
		t.ID, t.Content, t.ListType.String(), t.CreatedAt)
	if err != nil {
		return task.Task{}, err
	}
	return t, nil
}

func (s *MySQLStore) FindAll(ctx context.Context) ([]task.Task, error) {
	var rows []mysqlTask
	err := s.db.SelectContext(ctx, &rows, `SELECT id, content, list_type, created_at
    FROM tasks
    ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	out := make([]task.Task, 0, len(rows))
	for _, r := range rows {
		out = append(out, task.Task{
			ID:        r.ID,
			Content:   r.Content,
			ListType:  task.NewListName(r.ListType),
			CreatedAt: r.CreatedAt.UTC(),
		})
	}
	return out, nil
}

func (s *MySQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MySQLStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *MySQLStore) Close() error { return s.db.Close() }
