package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"tailscale.com/atomicfile"
)

const defaultTodosFile = "./todos.json"

// collectionSchema is what a readable todo file looks like. Anything else is
// treated as if the file were absent.
var collectionSchema = jsonschema.MustCompileString("todos.schema.json", `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["id", "title"],
		"properties": {
			"id": {"type": "integer", "minimum": 1},
			"title": {"type": "string"},
			"completed": {"type": "boolean"}
		}
	}
}`)

// Store keeps the todo collection in a single JSON file. Nothing is cached:
// every call goes back to disk.
type Store struct {
	path    string
	console *log.Logger
	write   func(name string, data []byte, perm os.FileMode) error

	// mu serializes Mutate cycles. Load and Save alone do not take it.
	mu sync.Mutex
}

func NewStore(path string, console *log.Logger) *Store {
	return &Store{path: path, console: console, write: atomicfile.WriteFile}
}

// Load returns the collection on disk. A missing, unreadable or malformed
// file yields an empty collection.
func (s *Store) Load() Collection {
	todos, err := s.read()
	if err != nil {
		s.console.Debug("Using empty todo list", "path", s.path, "reason", err)
		return Collection{}
	}
	return todos
}

func (s *Store) read() (Collection, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	if err := collectionSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("validate %s: %w", s.path, err)
	}

	var todos Collection
	if err := json.Unmarshal(data, &todos); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if todos == nil {
		todos = Collection{}
	}
	return todos, nil
}

// Save overwrites the file with the whole collection, pretty-printed.
func (s *Store) Save(todos Collection) error {
	if todos == nil {
		todos = Collection{}
	}

	data, err := encodeJSON(todos, "  ")
	if err != nil {
		return fmt.Errorf("encode todos: %w", err)
	}

	if err := s.write(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

// Mutate loads the collection, hands it to fn and saves the result when fn
// reports a change. Concurrent Mutate calls run one after another.
func (s *Store) Mutate(fn func(todos Collection) (Collection, bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	todos, changed, err := fn(s.Load())
	if err != nil || !changed {
		return err
	}
	return s.Save(todos)
}
