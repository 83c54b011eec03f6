// Package session defines the persisted data model: a single goal with
// an ordered task list. Task identity is positional; the order of the
// slice is the priority ranking and must survive save/load unchanged.
package session

import (
	"strings"
	"time"
)

// Priority is the label the AI model assigns to a task.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// ParsePriority normalizes a model-supplied priority string.
// Returns false for anything outside the {High, Medium, Low} set.
func ParsePriority(s string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return PriorityHigh, true
	case "medium", "med":
		return PriorityMedium, true
	case "low":
		return PriorityLow, true
	default:
		return "", false
	}
}

// Rank returns the sort rank of a priority, highest first.
// Unset or unknown priorities sort after Low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// Task is one entry in the session's ordered task list.
type Task struct {
	Text      string   `json:"text"`
	Reason    string   `json:"reason,omitempty"`
	Priority  Priority `json:"priority,omitempty"`
	Completed bool     `json:"completed"`
}

// Session is the persisted (goal, task list) pair. Exactly one session
// exists in storage at a time.
type Session struct {
	Goal    string    `json:"goal"`
	Tasks   []Task    `json:"tasks"`
	SavedAt time.Time `json:"savedAt"`
}

// Empty returns the defined default session returned by load when
// nothing has been saved yet.
func Empty() Session {
	return Session{Tasks: []Task{}}
}

// IsEmpty reports whether the session holds no data.
func (s Session) IsEmpty() bool {
	return s.Goal == "" && len(s.Tasks) == 0
}

// Clone returns a deep copy of the session.
func (s Session) Clone() Session {
	tasks := make([]Task, len(s.Tasks))
	copy(tasks, s.Tasks)
	return Session{Goal: s.Goal, Tasks: tasks, SavedAt: s.SavedAt}
}

// CompletedCount returns how many tasks are marked done.
func (s Session) CompletedCount() int {
	n := 0
	for _, t := range s.Tasks {
		if t.Completed {
			n++
		}
	}
	return n
}
