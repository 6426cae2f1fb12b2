package models

import "time"

type AuthAttempt struct {
	ID        int64     `json:"id" db:"id"`
	SessionID string    `json:"session_id" db:"session"`
	Outcome   Outcome   `json:"outcome" db:"success"`
	Username  *string   `json:"username,omitempty" db:"username"`
	Password  *string   `json:"password,omitempty" db:"password"`
	Client    *string   `json:"client,omitempty" db:"version"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}
