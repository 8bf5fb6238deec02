package model

// Task is one active countdown challenge. RemainingDays is the source of
// truth for time left: check-ins decrement it, missed days add to it.
type Task struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	RemainingDays   int    `json:"days"`
	OriginalTarget  int    `json:"original_target"`
	CreatedDate     Date   `json:"created_at"`
	LastInteraction Date   `json:"last_interaction"`
	CheckedToday    bool   `json:"checked_today"`
}

// DoneOn reports whether the task was checked in on the given day. The
// stored flag alone is not enough: it survives until the next catch-up run,
// so it only counts when the last interaction is the same day.
func (t Task) DoneOn(today Date) bool {
	return t.CheckedToday && t.LastInteraction.Equal(today)
}

// Achievement is the permanent record of a completed task.
type Achievement struct {
	Name         string `json:"name"`
	CreatedDate  Date   `json:"created_at"`
	FinishedDate Date   `json:"finished_at"`
}
