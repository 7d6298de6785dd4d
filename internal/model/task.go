package model

import (
	"time"
)

// Task is a tracked work item created from an intent or the API.
type Task struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	Progress    []ProgressEntry `json:"progress,omitempty"`
}

// ProgressEntry records one observed update on a task, typically derived
// from background media analysis.
type ProgressEntry struct {
	At               time.Time `json:"at"`
	Description      string    `json:"description"`
	TaskType         string    `json:"task_type,omitempty"`
	CompletionStatus string    `json:"completion_status,omitempty"`
}

// MediaAnalysis is the vision collaborator's description of an image.
type MediaAnalysis struct {
	Description      string `json:"description"`
	TaskType         string `json:"task_type"`
	CompletionStatus string `json:"completion_status"`
	ImagePath        string `json:"image_path,omitempty"`
}
