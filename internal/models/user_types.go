package models

import "time"

// UserSession is the model for the 'user_sessions' table.
// ID is internal and owns every other row; SessionKey is what the client holds.
type UserSession struct {
	ID          string    `json:"id" db:"id"`
	SessionKey  string    `json:"sessionKey" db:"session_key"`
	IsActivated bool      `json:"isActivated" db:"is_activated"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}
