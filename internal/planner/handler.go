package planner

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kencana-erp/kencana-erp/internal/platform/httpx"
	"github.com/kencana-erp/kencana-erp/internal/shared"
)

// Handler exposes the planner over JSON.
type Handler struct {
	service  *Service
	feed     *Feed
	logger   *slog.Logger
	validate *validator.Validate
}

// NewHandler constructs the handler. feed may be nil when Redis is down; the
// live feed endpoint then reports unavailable while the rest keeps working.
func NewHandler(service *Service, feed *Feed, logger *slog.Logger) *Handler {
	return &Handler{service: service, feed: feed, logger: logger, validate: validator.New()}
}

// MountRoutes attaches board, task and comment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/boards", func(r chi.Router) {
		r.Get("/", h.listBoards)
		r.Post("/", h.createBoard)
		r.Get("/feed", h.streamFeed)
		r.Delete("/{id}", h.deleteBoard)
		r.Get("/{id}/tasks", h.listTasks)
		r.Post("/{id}/tasks", h.createTask)
	})
	r.Route("/tasks", func(r chi.Router) {
		r.Put("/{id}", h.updateTask)
		r.Post("/{id}/move", h.moveTask)
		r.Delete("/{id}", h.deleteTask)
		r.Get("/{id}/comments", h.listComments)
		r.Post("/{id}/comments", h.addComment)
	})
}

type boardRequest struct {
	Name string `json:"name" validate:"required"`
}

type taskRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Assignee    string     `json:"assignee"`
	DueDate     *time.Time `json:"dueDate"`
}

type taskUpdateRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Assignee    *string    `json:"assignee"`
	DueDate     *time.Time `json:"dueDate"`
}

type moveRequest struct {
	Status TaskStatus `json:"status" validate:"required"`
}

type commentRequest struct {
	Body string `json:"body" validate:"required"`
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("planner handler", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func (h *Handler) listBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := h.service.ListBoards(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	if boards == nil {
		boards = []Board{}
	}
	httpx.JSON(w, http.StatusOK, boards)
}

func (h *Handler) createBoard(w http.ResponseWriter, r *http.Request) {
	var req boardRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "payload tidak valid")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	board, err := h.service.CreateBoard(r.Context(), req.Name)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, board)
}

func (h *Handler) deleteBoard(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteBoard(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.ListTasks(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	if tasks == nil {
		tasks = []Task{}
	}
	httpx.JSON(w, http.StatusOK, tasks)
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "payload tidak valid")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	task, err := h.service.CreateTask(r.Context(), CreateTaskInput{
		BoardID:     chi.URLParam(r, "id"),
		Title:       req.Title,
		Description: req.Description,
		Assignee:    req.Assignee,
		DueDate:     req.DueDate,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, task)
}

func (h *Handler) updateTask(w http.ResponseWriter, r *http.Request) {
	var req taskUpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "payload tidak valid")
		return
	}
	task, err := h.service.UpdateTask(r.Context(), chi.URLParam(r, "id"), UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Assignee:    req.Assignee,
		DueDate:     req.DueDate,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, task)
}

func (h *Handler) moveTask(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "payload tidak valid")
		return
	}
	task, err := h.service.MoveTask(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, task)
}

func (h *Handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteTask(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.service.ListComments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	if comments == nil {
		comments = []Comment{}
	}
	httpx.JSON(w, http.StatusOK, comments)
}

// streamFeed pushes activity events as server-sent events until the client
// disconnects.
func (h *Handler) streamFeed(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "streaming tidak didukung")
		return
	}
	sub, err := h.feed.Subscribe(r.Context())
	if err != nil {
		if errors.Is(err, ErrFeedUnavailable) {
			httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", err.Error())
			return
		}
		h.respondError(w, err)
		return
	}
	defer sub.Unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-sub.C():
			if !ok {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (h *Handler) addComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "payload tidak valid")
		return
	}
	comment, err := h.service.AddComment(r.Context(), chi.URLParam(r, "id"), req.Body)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, comment)
}
