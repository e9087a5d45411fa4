package store

import "github.com/duetlog/duet-service/internal/domain"

// State is the process-wide snapshot every core operation reads and mutates.
// All slices hold values, so a shallow slice copy is a deep copy.
type State struct {
	Users           []domain.User         `json:"users"`
	LoginChallenges []domain.OtpChallenge `json:"loginChallenges"`
	QrChallenges    []domain.QrChallenge  `json:"qrChallenges"`
	MatchRequests   []domain.MatchRequest `json:"matchRequests"`
	Matches         []domain.Match        `json:"matches"`
	Sessions        []domain.Session      `json:"sessions"`
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	clone := &State{
		Users:           append([]domain.User(nil), s.Users...),
		LoginChallenges: append([]domain.OtpChallenge(nil), s.LoginChallenges...),
		QrChallenges:    append([]domain.QrChallenge(nil), s.QrChallenges...),
		MatchRequests:   append([]domain.MatchRequest(nil), s.MatchRequests...),
		Matches:         append([]domain.Match(nil), s.Matches...),
		Sessions:        append([]domain.Session(nil), s.Sessions...),
	}
	return clone
}

// UserByID returns a pointer into the state, or nil.
func (s *State) UserByID(id string) *domain.User {
	for i := range s.Users {
		if s.Users[i].ID == id {
			return &s.Users[i]
		}
	}
	return nil
}

// ActiveMatchFor returns the user's active match, or nil.
func (s *State) ActiveMatchFor(userID string) *domain.Match {
	for i := range s.Matches {
		if s.Matches[i].Status == domain.MatchStatusActive && s.Matches[i].Involves(userID) {
			return &s.Matches[i]
		}
	}
	return nil
}
