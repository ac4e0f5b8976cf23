package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/microcosm-cc/bluemonday"
)

var (
	titlePolicy = bluemonday.StrictPolicy()

	errMalformedBody = errors.New("malformed request body")
)

// TodoHandler serves the /todos resource. Each request reads the collection
// from the store and, for mutations, writes it back before responding.
type TodoHandler struct {
	store   *Store
	logger  RequestLogger
	console *log.Logger

	// sanitizeTitles strips markup from titles before they are stored.
	sanitizeTitles bool
}

func NewTodoHandler(store *Store, logger RequestLogger, console *log.Logger, sanitizeTitles bool) *TodoHandler {
	return &TodoHandler{store: store, logger: logger, console: console, sanitizeTitles: sanitizeTitles}
}

func (h *TodoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Route on the path as sent: "/todos/%31" is not todo 1.
	path := r.URL.EscapedPath()
	if !strings.HasPrefix(path, "/todos") {
		respondText(w, http.StatusNotFound, "Not Found")
		return
	}

	if err := h.route(w, r, splitPath(path)); err != nil {
		h.console.Error("Request failed", "method", r.Method, "path", path, "err", err)
		respondText(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func (h *TodoHandler) route(w http.ResponseWriter, r *http.Request, parts []string) error {
	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		return h.list(w)
	case len(parts) == 1 && r.Method == http.MethodPost:
		return h.create(w, r)
	case len(parts) == 2 && r.Method == http.MethodGet:
		return h.getOne(w, parts[1])
	case len(parts) == 2 && r.Method == http.MethodPut:
		return h.update(w, r, parts[1])
	case len(parts) == 2 && r.Method == http.MethodDelete:
		return h.remove(w, parts[1])
	}

	respondText(w, http.StatusNotFound, "Not Found")
	return nil
}

// *** Handlers ***
func (h *TodoHandler) list(w http.ResponseWriter) error {
	return respondJSON(w, http.StatusOK, h.store.Load())
}

func (h *TodoHandler) getOne(w http.ResponseWriter, segment string) error {
	todos := h.store.Load()
	i := lookup(todos, segment)
	if i < 0 {
		return respondJSON(w, http.StatusNotFound, map[string]string{"error": "Todo not found"})
	}
	return respondJSON(w, http.StatusOK, todos[i])
}

func (h *TodoHandler) create(w http.ResponseWriter, r *http.Request) error {
	in, err := decodeTodoInput(r)
	if err != nil {
		return err
	}

	var title string
	if in.Title != nil {
		title = h.cleanTitle(*in.Title)
	}
	if title == "" {
		respondText(w, http.StatusBadRequest, "Missing title")
		return nil
	}

	var created Todo
	err = h.store.Mutate(func(todos Collection) (Collection, bool, error) {
		created = Todo{
			ID:        todos.NextID(),
			Title:     title,
			Completed: in.Completed != nil && *in.Completed,
		}
		return append(todos, created), true, nil
	})
	if err != nil {
		return fmt.Errorf("create todo: %w", err)
	}

	h.logMutation("POST Created", created)
	return respondJSON(w, http.StatusCreated, created)
}

func (h *TodoHandler) update(w http.ResponseWriter, r *http.Request, segment string) error {
	in, err := decodeTodoInput(r)
	if err != nil {
		return err
	}
	if in.Title != nil {
		title := h.cleanTitle(*in.Title)
		in.Title = &title
	}

	var (
		updated Todo
		found   bool
	)
	err = h.store.Mutate(func(todos Collection) (Collection, bool, error) {
		i := lookup(todos, segment)
		if i < 0 {
			return todos, false, nil
		}
		// applyTo never touches the id, so the path id stays authoritative.
		todos[i] = in.applyTo(todos[i])
		updated, found = todos[i], true
		return todos, true, nil
	})
	if err != nil {
		return fmt.Errorf("update todo: %w", err)
	}
	if !found {
		respondText(w, http.StatusNotFound, "Todo not found")
		return nil
	}

	h.logMutation("PUT Updated", updated)
	return respondJSON(w, http.StatusOK, updated)
}

func (h *TodoHandler) remove(w http.ResponseWriter, segment string) error {
	var (
		removed Todo
		found   bool
	)
	err := h.store.Mutate(func(todos Collection) (Collection, bool, error) {
		i := lookup(todos, segment)
		if i < 0 {
			return todos, false, nil
		}
		removed, found = todos[i], true
		return append(todos[:i], todos[i+1:]...), true, nil
	})
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	if !found {
		respondText(w, http.StatusNotFound, "Todo not found")
		return nil
	}

	h.logMutation("DELETE Removed", removed)
	return respondJSON(w, http.StatusOK, removed)
}

// *** Helper Functions ***
func (h *TodoHandler) logMutation(action string, t Todo) {
	data, err := encodeJSON(t, "")
	if err != nil {
		h.console.Error("Failed to encode todo for log", "id", t.ID, "err", err)
		return
	}
	h.logger.Log(action + ": " + string(data))
}

func lookup(todos Collection, segment string) int {
	id, ok := parseID(segment)
	if !ok {
		return -1
	}
	return todos.Index(id)
}

// decodeTodoInput parses the request body. A JSON value that is not an
// object carries no fields, so it decodes to an empty input; a null body has
// nothing to read fields from and is malformed.
func decodeTodoInput(r *http.Request) (todoInput, error) {
	var in todoInput
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return in, fmt.Errorf("read request body: %w", err)
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return in, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	switch doc.(type) {
	case nil:
		return in, fmt.Errorf("%w: body is null", errMalformedBody)
	case map[string]any:
	default:
		return in, nil
	}

	if err := json.Unmarshal(body, &in); err != nil {
		return in, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return in, nil
}

func (h *TodoHandler) cleanTitle(title string) string {
	if !h.sanitizeTitles {
		return title
	}
	// Strip all markup, then turn the escaped entities back into text since
	// titles are stored and served as JSON, not HTML.
	return html.UnescapeString(titlePolicy.Sanitize(title))
}

func respondJSON(w http.ResponseWriter, status int, v any) error {
	data, err := encodeJSON(v, "")
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
	return nil
}

func respondText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	io.WriteString(w, body)
}
