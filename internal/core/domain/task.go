package domain

import "time"

// TaskType identifies the type of background task
type TaskType string

const (
	// TaskTypeTranslateChapter translates one chapter of a novel
	TaskTypeTranslateChapter TaskType = "translate_chapter"
	// TaskTypeProofreadChapter proofreads the selected translations of one chapter
	TaskTypeProofreadChapter TaskType = "proofread_chapter"
)

// TaskStatus represents the current state of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task represents a background translation job processed by workers.
type Task struct {
	ID           string     `json:"id"`
	Type         TaskType   `json:"type"`
	NovelID      string     `json:"novel_id"`
	ChapterID    string     `json:"chapter_id"`
	ModelID      string     `json:"model_id,omitempty"`
	Status       TaskStatus `json:"status"`
	Attempts     int        `json:"attempts"`
	MaxAttempts  int        `json:"max_attempts"`
	Error        string     `json:"error,omitempty"`
	ScheduledFor time.Time  `json:"scheduled_for"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewTask creates a pending task ready for enqueuing.
func NewTask(taskType TaskType, novelID, chapterID, modelID string) *Task {
	now := time.Now()
	return &Task{
		ID:           GenerateID(),
		Type:         taskType,
		NovelID:      novelID,
		ChapterID:    chapterID,
		ModelID:      modelID,
		Status:       TaskStatusPending,
		MaxAttempts:  3,
		ScheduledFor: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// MarkProcessing transitions the task to processing.
func (t *Task) MarkProcessing() {
	t.Status = TaskStatusProcessing
	t.Attempts++
	t.UpdatedAt = time.Now()
}

// MarkCompleted transitions the task to completed.
func (t *Task) MarkCompleted() {
	t.Status = TaskStatusCompleted
	t.Error = ""
	t.UpdatedAt = time.Now()
}

// MarkFailed transitions the task to failed with a reason.
func (t *Task) MarkFailed(reason string) {
	t.Status = TaskStatusFailed
	t.Error = reason
	t.UpdatedAt = time.Now()
}

// CanRetry reports whether the task has attempts left.
func (t *Task) CanRetry() bool {
	return t.Attempts < t.MaxAttempts
}

// Retry schedules the task for another attempt with a linear backoff.
func (t *Task) Retry(reason string) {
	t.Status = TaskStatusPending
	t.Error = reason
	t.ScheduledFor = time.Now().Add(time.Duration(t.Attempts) * 30 * time.Second)
	t.UpdatedAt = time.Now()
}
