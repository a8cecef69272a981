package dto

import "time"

// StoryResponse is the shared story shape. Body is present only when the
// caller has access to the full text.
type StoryResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Preview     string    `json:"preview"`
	Body        string    `json:"body,omitempty"`
	Subgenre    string    `json:"subgenre"`
	Premium     bool      `json:"premium"`
	CoinCost    int       `json:"coin_cost"`
	WordCount   int       `json:"word_count"`
	CoverURL    string    `json:"cover_url,omitempty"`
	PublishedAt time.Time `json:"published_at"`

	SeriesID    string `json:"series_id,omitempty"`
	SeriesTitle string `json:"series_title,omitempty"`
	PartNumber  int    `json:"part_number,omitempty"`
	TotalParts  int    `json:"total_parts,omitempty"`
}

type StoryDetailResponse struct {
	Story    StoryResponse `json:"story"`
	Unlocked bool          `json:"unlocked"`
}

type SeriesResponse struct {
	SeriesID string          `json:"series_id"`
	Parts    []StoryResponse `json:"parts"`
}

type UnlockResponse struct {
	OK         bool `json:"ok"`
	NewBalance int  `json:"new_balance"`
}

type MarkReadResponse struct {
	OK bool `json:"ok"`
}

type FavoriteResponse struct {
	Favorited bool `json:"favorited"`
}
