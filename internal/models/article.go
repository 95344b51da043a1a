package models

import "time"

type ArticleCategory struct {
	ID      int64     `json:"id"`
	Title   string    `json:"title"`
	Created time.Time `json:"created"`
}

type Article struct {
	ID            int64     `json:"id"`
	Author        Author    `json:"author"`
	CategoryID    *int64    `json:"category_id,omitempty"` // nil once the category is removed
	Avatar        string    `json:"avatar"`
	Title         string    `json:"title"`
	Tags          string    `json:"tags"`
	Summary       string    `json:"summary"`
	Content       string    `json:"content,omitempty"`
	TotalViews    int       `json:"total_views"`
	CommentsCount int       `json:"comments_count"`
	Created       time.Time `json:"created"`
	Updated       time.Time `json:"updated"`
}

type Comment struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	ArticleID *int64    `json:"article_id,omitempty"`
	User      *Author   `json:"user,omitempty"` // nil once the user is removed
	Created   time.Time `json:"created"`
}
