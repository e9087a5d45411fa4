package dto

import (
	"time"

	"github.com/duetlog/duet-service/internal/domain"
)

// UserInfo is the sanitized user representation returned by the API.
// Unbound identity channels serialize as null.
type UserInfo struct {
	ID              string    `json:"id"`
	DisplayName     string    `json:"displayName"`
	Gender          string    `json:"gender"`
	MatchPreference string    `json:"matchPreference"`
	Email           *string   `json:"email"`
	Phone           *string   `json:"phone"`
	WechatID        *string   `json:"wechatId"`
	Bio             string    `json:"bio"`
	Timezone        *string   `json:"timezone"`
	WritingGoal     int       `json:"writingGoal"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	LastLoginAt     time.Time `json:"lastLoginAt"`
}

// NewUserInfo shapes a domain user for API responses.
func NewUserInfo(u domain.User) UserInfo {
	info := UserInfo{
		ID:              u.ID,
		DisplayName:     u.DisplayName,
		Gender:          u.Gender,
		MatchPreference: u.MatchPreference,
		Bio:             u.Bio,
		WritingGoal:     u.WritingGoal,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
		LastLoginAt:     u.LastLoginAt,
	}
	if info.Gender == "" {
		info.Gender = domain.GenderSecret
	}
	if info.MatchPreference == "" {
		info.MatchPreference = domain.PreferenceAny
	}
	if u.Email != "" {
		info.Email = &u.Email
	}
	if u.Phone != "" {
		info.Phone = &u.Phone
	}
	if u.WechatID != "" {
		info.WechatID = &u.WechatID
	}
	if u.Timezone != "" {
		info.Timezone = &u.Timezone
	}
	return info
}

// ChallengeResponse returns a freshly issued OTP challenge. The plaintext
// code is included because this deployment has no delivery channel; storage
// still keeps only the hash.
type ChallengeResponse struct {
	ChallengeID string    `json:"challengeId"`
	Code        string    `json:"code"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// AuthResponse returns a session and the authenticated user
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      UserInfo  `json:"user"`
}

// QrChallengeResponse returns a freshly issued QR login challenge
type QrChallengeResponse struct {
	Token     string    `json:"token"`
	QrData    string    `json:"qrData"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// QrConfirmResponse acknowledges the confirming device only; credentials
// travel to the originating device through the poll endpoint.
type QrConfirmResponse struct {
	Status string `json:"status"`
}

// QrPollResponse reports the challenge state to the originating device.
// Token, ExpiresAt and User are present only on "confirmed".
type QrPollResponse struct {
	Status    string     `json:"status"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	User      *UserInfo  `json:"user,omitempty"`
}

// MatchStatusResponse reports the caller's pairing state
type MatchStatusResponse struct {
	Status     string     `json:"status"`
	Preference string     `json:"preference,omitempty"`
	Since      *time.Time `json:"since,omitempty"`
	Partner    *UserInfo  `json:"partner,omitempty"`
}

// ProfileResponse wraps the sanitized user for profile endpoints
type ProfileResponse struct {
	User UserInfo `json:"user"`
}

// ErrorResponse is the uniform error envelope
type ErrorResponse struct {
	Error string `json:"error"`
}
