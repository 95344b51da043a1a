package models

import "time"

type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Mobile       string     `json:"mobile"`
	PasswordHash string     `json:"-"` // Don't return password in JSON
	Avatar       string     `json:"avatar,omitempty"`
	Description  string     `json:"user_desc,omitempty"`
	DateJoined   time.Time  `json:"date_joined"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// Author is the public subset of a user embedded in articles and comments.
type Author struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}
