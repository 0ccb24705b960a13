package models

import "time"

type Task struct {
	ID        string
	UserID    string
	Title     string
	Completed bool
	// Position is the task's index in the owner's list. For every user
	// the positions of their tasks form the contiguous range 0..n-1.
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
}
