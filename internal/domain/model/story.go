package model

import (
	"time"

	"github.com/nictjader/siren-backend/internal/domain/enums"
)

// Story is a published unit of content. Stories are immutable after
// publication except for out-of-band coin cost corrections.
type Story struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Body        string         `json:"body"`
	Preview     string         `json:"preview"`
	Subgenre    enums.Subgenre `json:"subgenre"`
	Premium     bool           `json:"premium"`
	CoinCost    int            `json:"coin_cost"`
	WordCount   int            `json:"word_count"`
	CoverKey    string         `json:"cover_key"`
	PublishedAt time.Time      `json:"published_at"`

	// Series linkage. A story belongs to a series only when both SeriesID
	// and PartNumber are set together; anything else is standalone.
	SeriesID    *string `json:"series_id,omitempty"`
	SeriesTitle string  `json:"series_title,omitempty"`
	PartNumber  *int    `json:"part_number,omitempty"`
	TotalParts  *int    `json:"total_parts,omitempty"`
}

// InSeries reports whether the story carries a well-formed series linkage.
func (s Story) InSeries() bool {
	return s.SeriesID != nil && *s.SeriesID != "" && s.PartNumber != nil && *s.PartNumber > 0
}

// IsFirstPart reports whether the story is the opening chapter of its series.
func (s Story) IsFirstPart() bool {
	return s.InSeries() && *s.PartNumber == 1
}
