package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/duetlog/duet-service/internal/domain"
	"github.com/duetlog/duet-service/internal/dto"
	"github.com/duetlog/duet-service/internal/store"
)

// ProfileService reads and edits the authenticated user's profile.
type ProfileService struct {
	store store.Store
}

func NewProfileService(st store.Store) *ProfileService {
	return &ProfileService{store: st}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*dto.ProfileResponse, error) {
	state, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	user := state.UserByID(userID)
	if user == nil {
		return nil, ErrNotFound("用户不存在")
	}
	return &dto.ProfileResponse{User: dto.NewUserInfo(*user)}, nil
}

// Update applies the supplied fields. An explicitly present but blank
// display name is rejected; other fields normalize or truncate silently.
func (s *ProfileService) Update(ctx context.Context, userID string, req dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	update := domain.ProfileUpdate{
		Bio:             req.Bio,
		Gender:          req.Gender,
		MatchPreference: req.MatchPreference,
		Timezone:        req.Timezone,
		WritingGoal:     req.WritingGoal,
	}
	if req.DisplayName != nil {
		trimmed := strings.TrimSpace(*req.DisplayName)
		if trimmed == "" {
			return nil, ErrValidation("昵称不能为空")
		}
		update.DisplayName = trimmed
	}

	now := time.Now().UTC()
	var (
		opErr error
		user  domain.User
	)
	err := s.store.Update(ctx, func(state *store.State) error {
		resolved := state.UserByID(userID)
		if resolved == nil {
			opErr = ErrNotFound("用户不存在")
			return nil
		}
		resolved.Apply(update)
		resolved.UpdatedAt = now
		user = *resolved
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if opErr != nil {
		return nil, opErr
	}

	return &dto.ProfileResponse{User: dto.NewUserInfo(user)}, nil
}
