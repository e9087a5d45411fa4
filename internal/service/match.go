package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/duetlog/duet-service/internal/domain"
	"github.com/duetlog/duet-service/internal/dto"
	"github.com/duetlog/duet-service/internal/store"
)

// Match statuses reported to clients. "searching" is never persisted; it is
// the result of enqueueing without finding a partner.
const (
	MatchStatusIdle      = "idle"
	MatchStatusSearching = "searching"
	MatchStatusMatched   = "matched"
)

// MatchService queues match-seekers and pairs two users whose preferences
// are mutually compatible, first-come-first-served.
type MatchService struct {
	store   store.Store
	metrics *Metrics
}

// NewMatchService creates a matching engine.
func NewMatchService(st store.Store, metrics *Metrics) *MatchService {
	return &MatchService{store: st, metrics: metrics}
}

// Request pairs the user with the first compatible queued candidate, or
// enqueues them. Compatibility must hold in both directions; a one-sided
// preference match is insufficient. With an active match and forceNew false
// the call is idempotent and returns the current match.
func (s *MatchService) Request(ctx context.Context, userID, desiredPreference string, forceNew bool) (*dto.MatchStatusResponse, error) {
	now := time.Now().UTC()
	var (
		opErr   error
		result  dto.MatchStatusResponse
		matched bool
	)

	err := s.store.Update(ctx, func(state *store.State) error {
		user := state.UserByID(userID)
		if user == nil {
			opErr = ErrNotFound("用户不存在")
			return nil
		}
		if user.Gender == "" || user.Gender == domain.GenderSecret {
			opErr = ErrValidation("请先在个人资料中设置性别，以便匹配")
			return nil
		}

		preference := desiredPreference
		if preference == "" {
			preference = user.MatchPreference
			if preference == "" {
				preference = domain.PreferenceAny
			}
		} else {
			preference = domain.NormalizeMatchPreference(preference)
		}
		user.MatchPreference = preference
		user.UpdatedAt = now

		if current := state.ActiveMatchFor(userID); current != nil {
			if !forceNew {
				result = matchedResponse(state, *current, userID)
				return nil
			}
			current.Status = domain.MatchStatusEnded
			current.EndedAt = now
		}

		removeQueueEntry(state, userID)

		// Queue scan in insertion order; the first mutually compatible
		// candidate wins.
		candidateIdx := -1
		for i, request := range state.MatchRequests {
			if request.UserID == userID {
				continue
			}
			if !domain.PreferenceMatches(preference, request.Gender) {
				continue
			}
			candidateUser := state.UserByID(request.UserID)
			if candidateUser == nil {
				continue
			}
			if candidateUser.Gender == "" || candidateUser.Gender == domain.GenderSecret {
				continue
			}
			candidatePreference := request.Preference
			if candidatePreference == "" {
				candidatePreference = candidateUser.MatchPreference
				if candidatePreference == "" {
					candidatePreference = domain.PreferenceAny
				}
			}
			if !domain.PreferenceMatches(candidatePreference, user.Gender) {
				continue
			}
			candidateIdx = i
			break
		}

		if candidateIdx >= 0 {
			candidate := state.MatchRequests[candidateIdx]
			match := domain.Match{
				ID:        uuid.New().String(),
				UserAID:   userID,
				UserBID:   candidate.UserID,
				CreatedAt: now,
				Status:    domain.MatchStatusActive,
			}
			state.Matches = append(state.Matches, match)
			state.MatchRequests = append(state.MatchRequests[:candidateIdx], state.MatchRequests[candidateIdx+1:]...)
			result = matchedResponse(state, match, userID)
			matched = true
			return nil
		}

		state.MatchRequests = append(state.MatchRequests, domain.MatchRequest{
			ID:         uuid.New().String(),
			UserID:     userID,
			Gender:     user.Gender,
			Preference: preference,
			CreatedAt:  now,
		})
		result = dto.MatchStatusResponse{Status: MatchStatusSearching}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request match: %w", err)
	}
	if opErr != nil {
		return nil, opErr
	}

	if matched {
		s.metrics.RecordMatch(ctx)
	}
	return &result, nil
}

// Reset removes any queue entry and ends any active match unconditionally.
func (s *MatchService) Reset(ctx context.Context, userID string) (*dto.MatchStatusResponse, error) {
	now := time.Now().UTC()
	err := s.store.Update(ctx, func(state *store.State) error {
		removeQueueEntry(state, userID)
		if match := state.ActiveMatchFor(userID); match != nil {
			match.Status = domain.MatchStatusEnded
			match.EndedAt = now
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reset match: %w", err)
	}
	return &dto.MatchStatusResponse{Status: MatchStatusIdle}, nil
}

// Status reports "matched" with partner identity, or "idle" with the
// stored preference. A queued user still reads as idle here; "searching"
// exists only as a request outcome.
func (s *MatchService) Status(ctx context.Context, userID string) (*dto.MatchStatusResponse, error) {
	state, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read match state: %w", err)
	}

	match := state.ActiveMatchFor(userID)
	if match == nil {
		preference := domain.PreferenceAny
		if user := state.UserByID(userID); user != nil && user.MatchPreference != "" {
			preference = user.MatchPreference
		}
		return &dto.MatchStatusResponse{Status: MatchStatusIdle, Preference: preference}, nil
	}

	result := matchedResponse(state, *match, userID)
	return &result, nil
}

func matchedResponse(state *store.State, match domain.Match, userID string) dto.MatchStatusResponse {
	since := match.CreatedAt
	response := dto.MatchStatusResponse{
		Status: MatchStatusMatched,
		Since:  &since,
	}
	if partner := state.UserByID(match.PartnerOf(userID)); partner != nil {
		info := dto.NewUserInfo(*partner)
		response.Partner = &info
	}
	return response
}

func removeQueueEntry(state *store.State, userID string) {
	kept := state.MatchRequests[:0]
	for _, request := range state.MatchRequests {
		if request.UserID != userID {
			kept = append(kept, request)
		}
	}
	state.MatchRequests = kept
}
