// Package tracker implements the task lifecycle: creating countdown
// challenges, daily check-ins, completion into achievements, and explicit
// deletion. The transitions are pure functions over the document plus an
// explicit "today"; Manager wraps them with ownership of the live document
// and persistence.
package tracker

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/rlowe/countback/internal/model"
)

// CheckInResult describes the outcome of a check-in. When the counter
// reached zero the task is gone from the document and Achievement holds the
// record that replaced it; otherwise Task is the updated task.
type CheckInResult struct {
	Task        model.Task
	Completed   bool
	Achievement *model.Achievement
}

// CreateTask validates name and day count and appends a new task at the tail
// of the document. The day count must be a non-negative decimal integer
// literal. The document is unchanged on error.
func CreateTask(doc *model.Document, name, daysText string, today model.Date) (model.Task, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Task{}, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	}
	if !isDigits(daysText) {
		return model.Task{}, fmt.Errorf("%w: day count %q is not a number", ErrInvalidInput, daysText)
	}
	days, err := strconv.Atoi(daysText)
	if err != nil {
		return model.Task{}, fmt.Errorf("%w: day count %q out of range", ErrInvalidInput, daysText)
	}

	task := model.Task{
		ID:              uuid.NewString(),
		Name:            name,
		RemainingDays:   days,
		OriginalTarget:  days,
		CreatedDate:     today,
		LastInteraction: today,
		CheckedToday:    false,
	}
	doc.Tasks = append(doc.Tasks, task)
	return task, nil
}

// CheckIn advances the task one day toward completion. At zero remaining
// days the task converts into an achievement inserted at the head of the
// achievements list; this is the only completion path in the system. The
// core applies repeated same-day check-ins as asked; the UI disables the
// control once DoneOn reports true.
func CheckIn(doc *model.Document, id string, today model.Date) (CheckInResult, error) {
	i := doc.TaskByID(id)
	if i < 0 {
		return CheckInResult{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	task := &doc.Tasks[i]
	task.RemainingDays--

	if task.RemainingDays <= 0 {
		ach := model.Achievement{
			Name:         task.Name,
			CreatedDate:  task.CreatedDate,
			FinishedDate: today,
		}
		doc.Tasks = append(doc.Tasks[:i], doc.Tasks[i+1:]...)
		doc.Achievements = append([]model.Achievement{ach}, doc.Achievements...)
		return CheckInResult{Completed: true, Achievement: &ach}, nil
	}

	task.CheckedToday = true
	task.LastInteraction = today
	return CheckInResult{Task: *task}, nil
}

// DeleteTask removes the task unconditionally.
func DeleteTask(doc *model.Document, id string) error {
	i := doc.TaskByID(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	doc.Tasks = append(doc.Tasks[:i], doc.Tasks[i+1:]...)
	return nil
}

// DeleteAchievement removes the achievement at index, guarded by its name.
// Achievements carry no id, so the reference is positional; the name check
// rejects a stale index after the list shifted under the caller.
func DeleteAchievement(doc *model.Document, index int, name string) error {
	if index < 0 || index >= len(doc.Achievements) {
		return fmt.Errorf("%w: index %d", ErrAchievementNotFound, index)
	}
	if doc.Achievements[index].Name != name {
		return fmt.Errorf("%w: index %d holds %q, not %q", ErrAchievementNotFound, index, doc.Achievements[index].Name, name)
	}
	doc.Achievements = append(doc.Achievements[:index], doc.Achievements[index+1:]...)
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
