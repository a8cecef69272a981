package dto

import "time"

type UnlockRecordResponse struct {
	StoryID    string    `json:"story_id"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

type MeResponse struct {
	ID            string                 `json:"id"`
	Email         string                 `json:"email"`
	DisplayName   string                 `json:"display_name"`
	PictureURL    string                 `json:"picture_url,omitempty"`
	Coins         int                    `json:"coins"`
	SubgenrePrefs []string               `json:"subgenre_prefs"`
	CreatedAt     time.Time              `json:"created_at"`
	Unlocks       []UnlockRecordResponse `json:"unlocks"`
	ReadIDs       []string               `json:"read_ids"`
	FavoriteIDs   []string               `json:"favorite_ids"`
}

type PreferencesRequest struct {
	Subgenres []string `json:"subgenres"`
}

type PreferencesResponse struct {
	Subgenres []string `json:"subgenres"`
}

type LibraryResponse struct {
	Stories []StoryResponse `json:"stories"`
}
