package dto

import "time"

type PublishStoryRequest struct {
	ID          string    `json:"id,omitempty"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Preview     string    `json:"preview"`
	Subgenre    string    `json:"subgenre"`
	CoinCost    int       `json:"coin_cost"`
	CoverKey    string    `json:"cover_key,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`

	SeriesID    string `json:"series_id,omitempty"`
	SeriesTitle string `json:"series_title,omitempty"`
	PartNumber  int    `json:"part_number,omitempty"`
	TotalParts  int    `json:"total_parts,omitempty"`
}

type PublishStoryResponse struct {
	Story StoryResponse `json:"story"`
}

type SetPriceRequest struct {
	CoinCost int `json:"coin_cost"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}
