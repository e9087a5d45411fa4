package domain

import (
	"strings"
	"time"
)

// Gender values accepted on a profile. "secret" means the user has not
// disclosed a gender and cannot enter the matching queue.
const (
	GenderMale      = "male"
	GenderFemale    = "female"
	GenderNonBinary = "non-binary"
	GenderSecret    = "secret"
)

// Match preference values. "any" accepts every disclosed gender.
const (
	PreferenceAny       = "any"
	PreferenceMale      = "male"
	PreferenceFemale    = "female"
	PreferenceNonBinary = "non-binary"
)

const (
	MaxDisplayNameLength = 60
	MaxBioLength         = 280
	MaxTimezoneLength    = 80
	MaxWritingGoal       = 365
)

// User represents a user in the system. A user is located on repeat login
// only through one of the identity channels (email, phone, wechat).
type User struct {
	ID              string    `json:"id"`
	DisplayName     string    `json:"displayName"`
	Gender          string    `json:"gender"`
	MatchPreference string    `json:"matchPreference"`
	Email           string    `json:"email,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	WechatID        string    `json:"wechatId,omitempty"`
	Bio             string    `json:"bio"`
	Timezone        string    `json:"timezone,omitempty"`
	WritingGoal     int       `json:"writingGoal"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	LastLoginAt     time.Time `json:"lastLoginAt"`
}

// ProfileUpdate carries optional profile fields supplied alongside a login
// or profile edit. Nil/empty fields are left untouched.
type ProfileUpdate struct {
	DisplayName     string
	Bio             *string
	Gender          string
	MatchPreference string
	Timezone        *string
	WritingGoal     *int
}

// NormalizeGender maps arbitrary input onto an accepted gender value.
// Unknown values fall back to "secret" rather than erroring.
func NormalizeGender(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case GenderMale:
		return GenderMale
	case GenderFemale:
		return GenderFemale
	case GenderNonBinary:
		return GenderNonBinary
	default:
		return GenderSecret
	}
}

// NormalizeMatchPreference maps arbitrary input onto an accepted preference.
// Unknown values fall back to "any".
func NormalizeMatchPreference(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case PreferenceMale:
		return PreferenceMale
	case PreferenceFemale:
		return PreferenceFemale
	case PreferenceNonBinary:
		return PreferenceNonBinary
	default:
		return PreferenceAny
	}
}

// Truncate caps a string at max runes without rejecting longer input.
func Truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max])
}

// Apply merges optional profile fields into the user. Display name and bio
// are trimmed and truncated; gender and preference are normalized.
func (u *User) Apply(update ProfileUpdate) {
	if trimmed := strings.TrimSpace(update.DisplayName); trimmed != "" {
		u.DisplayName = Truncate(trimmed, MaxDisplayNameLength)
	}
	if update.Bio != nil {
		u.Bio = Truncate(strings.TrimSpace(*update.Bio), MaxBioLength)
	}
	if update.Gender != "" {
		u.Gender = NormalizeGender(update.Gender)
	}
	if update.MatchPreference != "" {
		u.MatchPreference = NormalizeMatchPreference(update.MatchPreference)
	}
	if update.Timezone != nil {
		u.Timezone = Truncate(strings.TrimSpace(*update.Timezone), MaxTimezoneLength)
	}
	if update.WritingGoal != nil {
		goal := *update.WritingGoal
		if goal < 0 {
			goal = 0
		}
		if goal > MaxWritingGoal {
			goal = MaxWritingGoal
		}
		u.WritingGoal = goal
	}
}
