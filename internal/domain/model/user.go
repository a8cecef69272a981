package model

import (
	"time"

	"github.com/nictjader/siren-backend/internal/domain/enums"
)

// UserProfile is created on first successful sign-in and keyed by the
// identity provider subject id. The coin balance never goes negative.
type UserProfile struct {
	ID                 string           `json:"id"`
	Email              string           `json:"email"`
	DisplayName        string           `json:"display_name"`
	PictureURL         string           `json:"picture_url"`
	Coins              int              `json:"coins"`
	SubgenrePrefs      []enums.Subgenre `json:"subgenre_prefs"`
	ProviderCustomerID *string          `json:"provider_customer_id,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	LastLoginAt        time.Time        `json:"last_login_at"`
}

// UnlockRecord marks a premium story as readable for a user. Story ids are
// unique within a user's unlock list.
type UnlockRecord struct {
	StoryID    string    `json:"story_id"`
	UnlockedAt time.Time `json:"unlocked_at"`
}
