package models

import "time"

// DeadLetter records a background job that exhausted its retry budget.
// Rows are written by the dispatcher and consumed by operators; nothing
// in the application re-drives them automatically.
type DeadLetter struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	JobID     string    `json:"job_id" gorm:"index"`
	JobType   string    `json:"job_type" gorm:"index"`
	Payload   string    `json:"payload"`
	LastError string    `json:"last_error"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
}
