package planner

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kencana-erp/kencana-erp/internal/platform/db"
)

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository returns a RepositoryPort backed by PostgreSQL.
func NewRepository(pool *pgxpool.Pool) RepositoryPort {
	return &repository{db: pool, pool: pool}
}

func (r *repository) CreateBoard(ctx context.Context, board Board) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO planner_boards (id, name, created_at) VALUES ($1, $2, $3)
	`, board.ID, board.Name, board.CreatedAt)
	return err
}

func (r *repository) ListBoards(ctx context.Context) ([]Board, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, created_at FROM planner_boards ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var boards []Board
	for rows.Next() {
		var b Board
		if err := rows.Scan(&b.ID, &b.Name, &b.CreatedAt); err != nil {
			return nil, err
		}
		boards = append(boards, b)
	}
	return boards, rows.Err()
}

func (r *repository) GetBoard(ctx context.Context, id string) (*Board, error) {
	var b Board
	err := r.db.QueryRow(ctx, `SELECT id, name, created_at FROM planner_boards WHERE id = $1`, id).
		Scan(&b.ID, &b.Name, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

const taskColumns = `id, board_id, title, description, status, assignee, due_date, created_at, updated_at`

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.BoardID, &t.Title, &t.Description, &t.Status,
		&t.Assignee, &t.DueDate, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) CreateTask(ctx context.Context, task Task) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO planner_tasks (id, board_id, title, description, status, assignee, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, task.ID, task.BoardID, task.Title, task.Description, task.Status,
		task.Assignee, task.DueDate, task.CreatedAt, task.UpdatedAt)
	return err
}

func (r *repository) GetTask(ctx context.Context, id string) (*Task, error) {
	task, err := scanTask(r.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM planner_tasks WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return task, err
}

func (r *repository) ListTasks(ctx context.Context, boardID string) ([]Task, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+taskColumns+` FROM planner_tasks WHERE board_id = $1 ORDER BY created_at
	`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *repository) SaveTask(ctx context.Context, task Task) error {
	_, err := r.db.Exec(ctx, `
		UPDATE planner_tasks SET title = $2, description = $3, status = $4,
			assignee = $5, due_date = $6, updated_at = $7
		WHERE id = $1
	`, task.ID, task.Title, task.Description, task.Status, task.Assignee, task.DueDate, task.UpdatedAt)
	return err
}

func (r *repository) CreateComment(ctx context.Context, comment Comment) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO planner_comments (id, task_id, author, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, comment.ID, comment.TaskID, comment.Author, comment.Body, comment.CreatedAt)
	return err
}

func (r *repository) ListComments(ctx context.Context, taskID string) ([]Comment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, task_id, author, body, created_at FROM planner_comments
		WHERE task_id = $1 ORDER BY created_at
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.TaskID, &c.Author, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// DeleteBoardCascade removes a board, its tasks and their comments in one
// transaction.
func (r *repository) DeleteBoardCascade(ctx context.Context, id string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			DELETE FROM planner_comments WHERE task_id IN (SELECT id FROM planner_tasks WHERE board_id = $1)
		`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM planner_tasks WHERE board_id = $1`, id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM planner_boards WHERE id = $1`, id)
		return err
	})
}

// DeleteTaskCascade removes a task together with its comments in one
// transaction.
func (r *repository) DeleteTaskCascade(ctx context.Context, id string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM planner_comments WHERE task_id = $1`, id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM planner_tasks WHERE id = $1`, id)
		return err
	})
}
