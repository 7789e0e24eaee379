package domain

import "time"

// Message is immutable once stored in a room history.
type Message struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Room      RoomID    `json:"room"`
}
