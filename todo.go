package main

import (
	"strings"
	"unicode"
)

type Todo struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Collection is the full ordered list of todos as persisted on disk.
type Collection []Todo

// NextID returns one past the highest id in the collection, or 1 when it is
// empty. Ids freed by deleting the highest todo are handed out again.
func (c Collection) NextID() int {
	max := 0
	for _, t := range c {
		if t.ID > max {
			max = t.ID
		}
	}
	return max + 1
}

// Index returns the position of the first todo with the given id, or -1.
func (c Collection) Index(id int) int {
	for i, t := range c {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// todoInput is the request body of create and update. Any id in the body is
// dropped on decode.
type todoInput struct {
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
}

// applyTo shallow-merges the fields present in the input over t.
func (in todoInput) applyTo(t Todo) Todo {
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Completed != nil {
		t.Completed = *in.Completed
	}
	return t
}

// parseID reads the id path segment the lenient way: leading blanks and a
// sign are accepted, then as many digits as follow. Trailing junk is ignored
// ("12abc" is 12). ok is false when no digits were found.
func parseID(segment string) (id int, ok bool) {
	s := strings.TrimLeftFunc(segment, unicode.IsSpace)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	digits := 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		// Far beyond any id the collection hands out; treat as no match.
		if id > (1<<31)/10 {
			return 0, false
		}
		id = id*10 + int(s[digits]-'0')
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		id = -id
	}
	return id, true
}
