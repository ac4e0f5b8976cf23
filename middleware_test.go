package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestRecoverPanics(t *testing.T) {
	var buf bytes.Buffer
	h := recoverPanics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("disk on fire")
	}), newConsole(&buf, "info", "text"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/todos", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", rec.Body.String())
	assert.Contains(t, buf.String(), "disk on fire")
}

func TestLogRequestsRunsFirst(t *testing.T) {
	logger := &recordingLogger{}
	var seen []string
	h := logRequests(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.Lines()
	}), logger)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, "/todos/3?x=1", nil))

	assert.Equal(t, []string{"PUT /todos/3"}, seen)
}

func TestRateLimit(t *testing.T) {
	console := log.New(io.Discard)
	logger := &recordingLogger{}
	store := NewStore(filepath.Join(t.TempDir(), "todos.json"), console)
	h := newRouter(store, logger, console, routerOptions{RateLimit: 1})

	codes := map[int]int{}
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/todos", nil)
		req.RemoteAddr = "192.0.2.10:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes[rec.Code]++
	}

	assert.GreaterOrEqual(t, codes[http.StatusOK], 1)
	assert.GreaterOrEqual(t, codes[http.StatusTooManyRequests], 1)
	// Rejected requests are still recorded in the request log.
	assert.Len(t, logger.Lines(), 5)
}
