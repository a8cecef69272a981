package dto

import "time"

type GoogleSignInRequest struct {
	IDToken string `json:"id_token"`
}

type AuthMeResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	NewProfile  bool   `json:"new_profile"`
}

type SignInResponse struct {
	ExpiresAt time.Time      `json:"expires_at"`
	Me        AuthMeResponse `json:"me"`
}

type LogoutResponse struct {
	OK bool `json:"ok"`
}
