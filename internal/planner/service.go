package planner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kencana-erp/kencana-erp/internal/shared"
)

// RepositoryPort is the persistence surface the service depends on.
type RepositoryPort interface {
	CreateBoard(ctx context.Context, board Board) error
	ListBoards(ctx context.Context) ([]Board, error)
	GetBoard(ctx context.Context, id string) (*Board, error)
	CreateTask(ctx context.Context, task Task) error
	GetTask(ctx context.Context, id string) (*Task, error)
	ListTasks(ctx context.Context, boardID string) ([]Task, error)
	SaveTask(ctx context.Context, task Task) error
	CreateComment(ctx context.Context, comment Comment) error
	ListComments(ctx context.Context, taskID string) ([]Comment, error)
	DeleteBoardCascade(ctx context.Context, id string) error
	DeleteTaskCascade(ctx context.Context, id string) error
}

// Service implements the planner workflow.
type Service struct {
	repo   RepositoryPort
	feed   FeedPort
	logger *slog.Logger
}

// NewService wires the planner service.
func NewService(repo RepositoryPort, feed FeedPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, feed: feed, logger: logger}
}

func boardNotFound(id string) error {
	return fmt.Errorf("papan dengan ID %s tidak ditemukan: %w", id, shared.ErrNotFound)
}

func taskNotFound(id string) error {
	return fmt.Errorf("tugas dengan ID %s tidak ditemukan: %w", id, shared.ErrNotFound)
}

// CreateBoard opens a new board.
func (s *Service) CreateBoard(ctx context.Context, name string) (*Board, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("nama papan tidak boleh kosong: %w", shared.ErrValidation)
	}
	board := Board{
		ID:        "BRD-" + uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateBoard(ctx, board); err != nil {
		return nil, err
	}
	s.publish(ctx, Event{Kind: "board.created", BoardID: board.ID, EntityID: board.ID})
	return &board, nil
}

// ListBoards returns all boards.
func (s *Service) ListBoards(ctx context.Context) ([]Board, error) {
	return s.repo.ListBoards(ctx)
}

// DeleteBoard removes a board together with its tasks and their comments.
func (s *Service) DeleteBoard(ctx context.Context, id string) error {
	board, err := s.repo.GetBoard(ctx, id)
	if err != nil {
		return err
	}
	if board == nil {
		return boardNotFound(id)
	}
	if err := s.repo.DeleteBoardCascade(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, Event{Kind: "board.deleted", BoardID: id, EntityID: id})
	return nil
}

// CreateTaskInput describes a new task.
type CreateTaskInput struct {
	BoardID     string
	Title       string
	Description string
	Assignee    string
	DueDate     *time.Time
}

// CreateTask adds a task to a board in the To Do column.
func (s *Service) CreateTask(ctx context.Context, input CreateTaskInput) (*Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("judul tugas tidak boleh kosong: %w", shared.ErrValidation)
	}
	board, err := s.repo.GetBoard(ctx, input.BoardID)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return nil, boardNotFound(input.BoardID)
	}

	now := time.Now()
	task := Task{
		ID:          "TSK-" + uuid.NewString(),
		BoardID:     input.BoardID,
		Title:       input.Title,
		Description: input.Description,
		Status:      TaskStatusTodo,
		Assignee:    input.Assignee,
		DueDate:     input.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	s.publish(ctx, Event{Kind: "task.created", BoardID: task.BoardID, EntityID: task.ID})
	return &task, nil
}

// ListTasks returns a board's tasks.
func (s *Service) ListTasks(ctx context.Context, boardID string) ([]Task, error) {
	return s.repo.ListTasks(ctx, boardID)
}

// UpdateTaskInput carries editable task fields. Nil pointers leave a field
// unchanged.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Assignee    *string
	DueDate     *time.Time
}

// UpdateTask edits a task's descriptive fields.
func (s *Service) UpdateTask(ctx context.Context, id string, input UpdateTaskInput) (*Task, error) {
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, taskNotFound(id)
	}
	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, fmt.Errorf("judul tugas tidak boleh kosong: %w", shared.ErrValidation)
		}
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Assignee != nil {
		task.Assignee = *input.Assignee
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	task.UpdatedAt = time.Now()
	if err := s.repo.SaveTask(ctx, *task); err != nil {
		return nil, err
	}
	s.publish(ctx, Event{Kind: "task.updated", BoardID: task.BoardID, EntityID: task.ID})
	return task, nil
}

// MoveTask puts a task into another column.
func (s *Service) MoveTask(ctx context.Context, id string, status TaskStatus) (*Task, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("status tugas %q tidak dikenal: %w", status, shared.ErrValidation)
	}
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, taskNotFound(id)
	}
	task.Status = status
	task.UpdatedAt = time.Now()
	if err := s.repo.SaveTask(ctx, *task); err != nil {
		return nil, err
	}
	s.publish(ctx, Event{Kind: "task.moved", BoardID: task.BoardID, EntityID: task.ID})
	return task, nil
}

// DeleteTask removes a task and its comments in one transaction.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if task == nil {
		return taskNotFound(id)
	}
	if err := s.repo.DeleteTaskCascade(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, Event{Kind: "task.deleted", BoardID: task.BoardID, EntityID: id})
	return nil
}

// AddComment appends a comment to a task. The author comes from the request
// identity when present.
func (s *Service) AddComment(ctx context.Context, taskID, body string) (*Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("isi komentar tidak boleh kosong: %w", shared.ErrValidation)
	}
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, taskNotFound(taskID)
	}

	author := "anonim"
	if identity := shared.IdentityFromContext(ctx); identity.DisplayName != "" {
		author = identity.DisplayName
	}
	comment := Comment{
		ID:        "CMT-" + uuid.NewString(),
		TaskID:    taskID,
		Author:    author,
		Body:      body,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	s.publish(ctx, Event{Kind: "comment.created", BoardID: task.BoardID, EntityID: comment.ID, Actor: author})
	return &comment, nil
}

// ListComments returns a task's comments in creation order.
func (s *Service) ListComments(ctx context.Context, taskID string) ([]Comment, error) {
	return s.repo.ListComments(ctx, taskID)
}

// publish is best effort: a feed outage never fails the write that caused
// the event.
func (s *Service) publish(ctx context.Context, event Event) {
	if s.feed == nil {
		return
	}
	event.At = time.Now()
	if err := s.feed.Publish(ctx, event); err != nil {
		s.logger.Warn("feed publish failed", slog.String("kind", event.Kind), slog.Any("error", err))
	}
}
