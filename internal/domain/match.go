package domain

import "time"

// Match statuses.
const (
	MatchStatusActive = "active"
	MatchStatusEnded  = "ended"
)

// MatchRequest is a queue entry for a user waiting to be paired. At most one
// exists per user; queue order is enqueue order.
type MatchRequest struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Gender     string    `json:"gender"`
	Preference string    `json:"preference"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Match is an undirected pairing of two users. A user has at most one
// active match at a time.
type Match struct {
	ID        string    `json:"id"`
	UserAID   string    `json:"userAId"`
	UserBID   string    `json:"userBId"`
	CreatedAt time.Time `json:"createdAt"`
	Status    string    `json:"status"`
	EndedAt   time.Time `json:"endedAt,omitzero"`
}

// Involves reports whether the user is one of the two sides of the match.
func (m Match) Involves(userID string) bool {
	return m.UserAID == userID || m.UserBID == userID
}

// PartnerOf returns the other side of the match for the given user.
func (m Match) PartnerOf(userID string) string {
	if m.UserAID == userID {
		return m.UserBID
	}
	return m.UserAID
}

// PreferenceMatches reports whether a preference accepts a gender.
// A "secret" or empty gender is never accepted, even by "any".
func PreferenceMatches(preference, gender string) bool {
	if gender == "" || gender == GenderSecret {
		return false
	}
	if preference == PreferenceAny {
		return true
	}
	return preference == gender
}
