package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/internal/validation"
)

type NoteService interface {
	Create(ctx context.Context, p models.Principal, n models.Note) (*models.Note, error)
	List(ctx context.Context) ([]models.Note, error)
	Trashed(ctx context.Context) ([]models.Note, error)
	Update(ctx context.Context, id string, u models.NoteUpdate) (*models.Note, error)
	TogglePin(ctx context.Context, id string) (*models.Note, error)
	Trash(ctx context.Context, id string) (*models.Note, error)
	Restore(ctx context.Context, id string) (*models.Note, error)
	Purge(ctx context.Context, id string) error
}

type TodoService interface {
	Create(ctx context.Context, p models.Principal, t models.Todo) (*models.Todo, error)
	List(ctx context.Context) ([]models.Todo, error)
	Trashed(ctx context.Context) ([]models.Todo, error)
	Update(ctx context.Context, id string, u models.TodoUpdate) (*models.Todo, error)
	Toggle(ctx context.Context, id string) (*models.Todo, error)
	Trash(ctx context.Context, id string) (*models.Todo, error)
	Restore(ctx context.Context, id string) (*models.Todo, error)
	Purge(ctx context.Context, id string) error
}

// NoteHandler handles notes and todos. Deleting moves a row to the trash;
// purge removes it for good.
type NoteHandler struct {
	base
	notes NoteService
	todos TodoService
}

func NewNoteHandler(notes NoteService, todos TodoService, v *validation.Validator, log *zap.Logger) *NoteHandler {
	return &NoteHandler{base: newBase(v, log), notes: notes, todos: todos}
}

// run executes a store call with the request deadline and writes its result
func run[T any](h base, w http.ResponseWriter, r *http.Request, status int, call func(context.Context) (T, error)) {
	ctx, cancel := requestContext(r)
	defer cancel()

	out, err := call(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, status, out)
}

func byID[T any](h base, w http.ResponseWriter, r *http.Request, call func(context.Context, string) (T, error)) {
	id := mux.Vars(r)["id"]
	run(h, w, r, http.StatusOK, func(ctx context.Context) (T, error) { return call(ctx, id) })
}

func (h *NoteHandler) purge(w http.ResponseWriter, r *http.Request, call func(context.Context, string) error) {
	ctx, cancel := requestContext(r)
	defer cancel()

	if err := call(ctx, mux.Vars(r)["id"]); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListNotes godoc
// @Summary List notes
// @Description List notes
// @Tags Notes
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Note
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /notes [get]
func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	run(h.base, w, r, http.StatusOK, h.notes.List)
}

// ListTrashedNotes godoc
// @Summary List trashed notes
// @Description List trashed notes
// @Tags Notes
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Note
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /notes/trash [get]
func (h *NoteHandler) ListTrashedNotes(w http.ResponseWriter, r *http.Request) {
	run(h.base, w, r, http.StatusOK, h.notes.Trashed)
}

// CreateNote godoc
// @Summary Create a note
// @Description Create a note
// @Tags Notes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param note body models.Note true "Note"
// @Success 201 {object} models.Note
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /notes [post]
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var note models.Note
	if !h.decode(w, r, &note, true) {
		return
	}
	run(h.base, w, r, http.StatusCreated, func(ctx context.Context) (*models.Note, error) {
		return h.notes.Create(ctx, p, note)
	})
}

// UpdateNote godoc
// @Summary Update a note
// @Description Update a note
// @Tags Notes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Note ID"
// @Param update body models.NoteUpdate true "Changed fields"
// @Success 200 {object} models.Note
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /notes/{id} [patch]
func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var update models.NoteUpdate
	if !h.decode(w, r, &update, false) {
		return
	}
	byID(h.base, w, r, func(ctx context.Context, id string) (*models.Note, error) {
		return h.notes.Update(ctx, id, update)
	})
}

// TogglePin godoc
// @Summary Toggle note pin
// @Description Toggle note pin
// @Tags Notes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Note ID"
// @Success 200 {object} models.Note
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /notes/{id}/pin [post]
func (h *NoteHandler) TogglePin(w http.ResponseWriter, r *http.Request) {
	byID(h.base, w, r, h.notes.TogglePin)
}

// TrashNote godoc
// @Summary Move a note to the trash
// @Description Move a note to the trash
// @Tags Notes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Note ID"
// @Success 200 {object} models.Note
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /notes/{id} [delete]
func (h *NoteHandler) TrashNote(w http.ResponseWriter, r *http.Request) {
	byID(h.base, w, r, h.notes.Trash)
}

// RestoreNote godoc
// @Summary Restore a trashed note
// @Description Restore a trashed note
// @Tags Notes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Note ID"
// @Success 200 {object} models.Note
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /notes/{id}/restore [post]
func (h *NoteHandler) RestoreNote(w http.ResponseWriter, r *http.Request) {
	byID(h.base, w, r, h.notes.Restore)
}

// PurgeNote godoc
// @Summary Delete a trashed note
// @Description Delete a trashed note
// @Tags Notes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Note ID"
// @Success 204
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /notes/{id}/purge [delete]
func (h *NoteHandler) PurgeNote(w http.ResponseWriter, r *http.Request) {
	h.purge(w, r, h.notes.Purge)
}

// ListTodos godoc
// @Summary List todos
// @Description List todos
// @Tags Todos
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Todo
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /todos [get]
func (h *NoteHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	run(h.base, w, r, http.StatusOK, h.todos.List)
}

// ListTrashedTodos godoc
// @Summary List trashed todos
// @Description List trashed todos
// @Tags Todos
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Todo
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /todos/trash [get]
func (h *NoteHandler) ListTrashedTodos(w http.ResponseWriter, r *http.Request) {
	run(h.base, w, r, http.StatusOK, h.todos.Trashed)
}

// CreateTodo godoc
// @Summary Create a todo
// @Description Create a todo
// @Tags Todos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param todo body models.Todo true "Todo"
// @Success 201 {object} models.Todo
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /todos [post]
func (h *NoteHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var todo models.Todo
	if !h.decode(w, r, &todo, true) {
		return
	}
	run(h.base, w, r, http.StatusCreated, func(ctx context.Context) (*models.Todo, error) {
		return h.todos.Create(ctx, p, todo)
	})
}

// UpdateTodo godoc
// @Summary Update a todo
// @Description Update a todo
// @Tags Todos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Todo ID"
// @Param update body models.TodoUpdate true "Changed fields"
// @Success 200 {object} models.Todo
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /todos/{id} [patch]
func (h *NoteHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	var update models.TodoUpdate
	if !h.decode(w, r, &update, true) {
		return
	}
	byID(h.base, w, r, func(ctx context.Context, id string) (*models.Todo, error) {
		return h.todos.Update(ctx, id, update)
	})
}

// ToggleTodo godoc
// @Summary Toggle todo completion
// @Description Flips the completed flag
// @Tags Todos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Todo ID"
// @Success 200 {object} models.Todo
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /todos/{id}/toggle [post]
func (h *NoteHandler) ToggleTodo(w http.ResponseWriter, r *http.Request) {
	byID(h.base, w, r, h.todos.Toggle)
}

// TrashTodo godoc
// @Summary Move a todo to the trash
// @Description Move a todo to the trash
// @Tags Todos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Todo ID"
// @Success 200 {object} models.Todo
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /todos/{id} [delete]
func (h *NoteHandler) TrashTodo(w http.ResponseWriter, r *http.Request) {
	byID(h.base, w, r, h.todos.Trash)
}

// RestoreTodo godoc
// @Summary Restore a trashed todo
// @Description Restore a trashed todo
// @Tags Todos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Todo ID"
// @Success 200 {object} models.Todo
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /todos/{id}/restore [post]
func (h *NoteHandler) RestoreTodo(w http.ResponseWriter, r *http.Request) {
	byID(h.base, w, r, h.todos.Restore)
}

// PurgeTodo godoc
// @Summary Delete a trashed todo
// @Description Delete a trashed todo
// @Tags Todos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Todo ID"
// @Success 204
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /todos/{id}/purge [delete]
func (h *NoteHandler) PurgeTodo(w http.ResponseWriter, r *http.Request) {
	h.purge(w, r, h.todos.Purge)
}
