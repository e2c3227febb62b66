package models

import "time"

// User owns journals and runs. Identity comes from the auth token subject.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}
