package models

import "time"

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Question string `json:"question" binding:"required,max=2000"`
}

// ChatResponse carries the answer only; how it was produced stays internal.
type ChatResponse struct {
	Answer string `json:"answer"`
}

// ReindexResponse is returned when a reindex is accepted.
type ReindexResponse struct {
	Status string `json:"status"`
	TaskID string `json:"task_id,omitempty"`
}

// IndexStats describes the vector store contents.
type IndexStats struct {
	Documents  int       `json:"documents"`
	Store      string    `json:"store"`
	Collection string    `json:"collection"`
	CheckedAt  time.Time `json:"checked_at"`
}
