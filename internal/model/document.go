package model

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// Document is the whole persisted unit: every task and achievement for the
// installation. Tasks keep insertion (creation) order; achievements keep
// most-recent-first order.
type Document struct {
	Tasks        []Task        `json:"tasks"`
	Achievements []Achievement `json:"achievements"`
}

// EmptyDocument returns a document with non-nil, empty collections.
func EmptyDocument() Document {
	return Document{Tasks: []Task{}, Achievements: []Achievement{}}
}

// Clone returns a deep copy. Handlers hand snapshots to encoders outside the
// manager's lock, so they must not alias the live slices.
func (d Document) Clone() Document {
	out := Document{
		Tasks:        make([]Task, len(d.Tasks)),
		Achievements: make([]Achievement, len(d.Achievements)),
	}
	copy(out.Tasks, d.Tasks)
	copy(out.Achievements, d.Achievements)
	return out
}

// TaskByID returns the index of the task with the given id, or -1.
func (d Document) TaskByID(id string) int {
	for i, t := range d.Tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Encode marshals the document for persistence.
func (d Document) Encode() ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

// rawTask mirrors the stored task shape with pointer fields so missing and
// present-but-wrong values can be told apart during decoding.
type rawTask struct {
	ID              *string `json:"id"`
	Name            *string `json:"name"`
	Days            *int    `json:"days"`
	OriginalTarget  *int    `json:"original_target"`
	CreatedAt       string  `json:"created_at"`
	LastInteraction string  `json:"last_interaction"`
	CheckedToday    bool    `json:"checked_today"`
}

type rawAchievement struct {
	Name       *string `json:"name"`
	CreatedAt  string  `json:"created_at"`
	FinishedAt string  `json:"finished_at"`
}

// DecodeDocument parses a stored document. Decoding is lenient per record:
// a task or achievement missing its required fields is skipped with a
// warning instead of aborting the rest of the collection. Unparseable dates
// inside an otherwise valid record decode to the zero Date, which downstream
// code treats as "today" rather than as an error.
func DecodeDocument(data []byte, logger *slog.Logger) (Document, error) {
	doc := EmptyDocument()
	if len(data) == 0 {
		return doc, nil
	}

	var raw struct {
		Tasks        []json.RawMessage `json:"tasks"`
		Achievements []json.RawMessage `json:"achievements"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return doc, fmt.Errorf("decode document: %w", err)
	}

	for i, msg := range raw.Tasks {
		task, err := decodeTask(msg)
		if err != nil {
			logger.Warn("skipping malformed task record", "index", i, "error", err)
			continue
		}
		doc.Tasks = append(doc.Tasks, task)
	}
	for i, msg := range raw.Achievements {
		ach, err := decodeAchievement(msg)
		if err != nil {
			logger.Warn("skipping malformed achievement record", "index", i, "error", err)
			continue
		}
		doc.Achievements = append(doc.Achievements, ach)
	}
	return doc, nil
}

func decodeTask(msg json.RawMessage) (Task, error) {
	var r rawTask
	if err := json.Unmarshal(msg, &r); err != nil {
		return Task{}, err
	}
	if r.ID == nil || *r.ID == "" {
		return Task{}, fmt.Errorf("missing id")
	}
	if r.Name == nil || strings.TrimSpace(*r.Name) == "" {
		return Task{}, fmt.Errorf("missing name")
	}
	if r.Days == nil {
		return Task{}, fmt.Errorf("missing days")
	}

	task := Task{
		ID:            *r.ID,
		Name:          *r.Name,
		RemainingDays: *r.Days,
		CheckedToday:  r.CheckedToday,
	}
	// Records written before original_target existed carry only days.
	if r.OriginalTarget != nil {
		task.OriginalTarget = *r.OriginalTarget
	} else {
		task.OriginalTarget = *r.Days
	}
	task.CreatedDate = lenientDate(r.CreatedAt)
	task.LastInteraction = lenientDate(r.LastInteraction)
	return task, nil
}

func decodeAchievement(msg json.RawMessage) (Achievement, error) {
	var r rawAchievement
	if err := json.Unmarshal(msg, &r); err != nil {
		return Achievement{}, err
	}
	if r.Name == nil || strings.TrimSpace(*r.Name) == "" {
		return Achievement{}, fmt.Errorf("missing name")
	}
	return Achievement{
		Name:         *r.Name,
		CreatedDate:  lenientDate(r.CreatedAt),
		FinishedDate: lenientDate(r.FinishedAt),
	}, nil
}

func lenientDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		return Date{}
	}
	return d
}
