package model

import "time"

type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	UserID      string    `json:"user"`
	IsCompleted bool      `json:"isCompleted"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Comment struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"task"`
	UserID    string    `json:"user"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	AttachmentStatusPending  = "pending"
	AttachmentStatusUploaded = "uploaded"
)

type Attachment struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"task"`
	FileName  string    `json:"fileName"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
