// Package news aggregates beekeeping news from RSS, Atom and JSON sources.
package news

import (
	"time"
)

// Type is the kind of a news item
type Type string

const (
	TypeArticle Type = "article"
	TypeVideo   Type = "video"
	TypePodcast Type = "podcast"
)

// Topic is the portal news category
type Topic string

const (
	TopicProduction Topic = "Производство"
	TopicHealth     Topic = "Здраве"
	TopicRegulation Topic = "Регулации"
	TopicMarket     Topic = "Пазар"
	TopicSociety    Topic = "Общество"
)

// Item is a news entry served by /api/news
type Item struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Summary         string    `json:"summary"`
	Cover           string    `json:"cover,omitempty"`
	Type            Type      `json:"type"`
	Topic           Topic     `json:"topic,omitempty"`
	ReadingMinutes  int       `json:"readingMinutes,omitempty"`
	DurationMinutes int       `json:"durationMinutes,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt"`
	Source          string    `json:"source,omitempty"`
	Views           int       `json:"views"`
	Link            string    `json:"link,omitempty"`
}

// ListResponse is the body of GET /api/news
type ListResponse struct {
	Items []Item `json:"items"`
	Count int    `json:"count"`
}
