package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/duetlog/duet-service/internal/domain"
	"github.com/duetlog/duet-service/internal/dto"
	"github.com/duetlog/duet-service/internal/store"
	"github.com/duetlog/duet-service/internal/utils"
)

// OTPService issues and verifies one-time codes for the email and phone
// channels, materializing a user record on successful verification.
type OTPService struct {
	store       store.Store
	sessions    *SessionManager
	metrics     *Metrics
	ttl         time.Duration
	maxAttempts int
	bcryptCost  int
}

// NewOTPService creates an OTP channel manager.
func NewOTPService(st store.Store, sessions *SessionManager, metrics *Metrics, ttl time.Duration, maxAttempts, bcryptCost int) *OTPService {
	return &OTPService{
		store:       st,
		sessions:    sessions,
		metrics:     metrics,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		bcryptCost:  bcryptCost,
	}
}

// RequestCode validates the identifier, mints a 6-digit code and stores a
// challenge holding only the code's hash. Any previous live challenge for
// the same (channel, identifier) pair is discarded.
func (s *OTPService) RequestCode(ctx context.Context, channel, identifier string) (*dto.ChallengeResponse, error) {
	switch channel {
	case domain.ChannelEmail:
		identifier = utils.SanitizeEmail(identifier)
		if !utils.ValidateEmail(identifier) {
			return nil, ErrValidation("请输入有效的邮箱地址")
		}
	case domain.ChannelPhone:
		identifier = utils.SanitizePhone(identifier)
		if !utils.ValidatePhone(identifier) {
			return nil, ErrValidation("请输入有效的手机号")
		}
	default:
		return nil, ErrValidation("不支持的验证渠道")
	}

	code, err := utils.GenerateOtpCode()
	if err != nil {
		return nil, err
	}
	codeHash, err := utils.HashCode(code, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	challenge := domain.OtpChallenge{
		ID:         uuid.New().String(),
		Identifier: identifier,
		Channel:    channel,
		CodeHash:   codeHash,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}

	err = s.store.Update(ctx, func(state *store.State) error {
		purgeExpiredChallenges(state, now)
		kept := state.LoginChallenges[:0]
		for _, c := range state.LoginChallenges {
			if c.Channel == channel && c.Identifier == identifier {
				continue
			}
			kept = append(kept, c)
		}
		state.LoginChallenges = append(kept, challenge)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save challenge: %w", err)
	}

	return &dto.ChallengeResponse{
		ChallengeID: challenge.ID,
		Code:        code,
		ExpiresAt:   challenge.ExpiresAt,
	}, nil
}

// VerifyCode redeems a code against a live challenge. A hash mismatch
// consumes one attempt; exhausting the budget purges the challenge. On
// success the user bound to the identifier is resolved or created, profile
// hints are applied and a session is minted.
func (s *OTPService) VerifyCode(ctx context.Context, channel, challengeID, code string, hints dto.ProfileHints) (*dto.AuthResponse, error) {
	challengeID = strings.TrimSpace(challengeID)
	code = strings.TrimSpace(code)
	if challengeID == "" || code == "" {
		return nil, ErrValidation("缺少验证码或挑战信息")
	}

	now := time.Now().UTC()
	var (
		opErr error
		user  domain.User
	)

	// Attempt bookkeeping must survive a failed verification, so the
	// mutator commits and reports the outcome through opErr instead of
	// aborting the transaction.
	err := s.store.Update(ctx, func(state *store.State) error {
		purgeExpiredChallenges(state, now)

		idx := -1
		for i := range state.LoginChallenges {
			if state.LoginChallenges[i].ID == challengeID && state.LoginChallenges[i].Channel == channel {
				idx = i
				break
			}
		}
		if idx < 0 {
			opErr = ErrValidation("验证码不存在或已失效")
			return nil
		}

		challenge := &state.LoginChallenges[idx]
		if challenge.Expired(now) {
			state.LoginChallenges = append(state.LoginChallenges[:idx], state.LoginChallenges[idx+1:]...)
			opErr = ErrValidation("验证码已过期，请重新获取")
			return nil
		}

		if !utils.CheckCodeHash(code, challenge.CodeHash) {
			challenge.Attempts++
			remaining := s.maxAttempts - challenge.Attempts
			if remaining < 0 {
				remaining = 0
			}
			if challenge.Attempts >= s.maxAttempts {
				state.LoginChallenges = append(state.LoginChallenges[:idx], state.LoginChallenges[idx+1:]...)
			}
			opErr = ErrCodeMismatch(remaining)
			return nil
		}

		identifier := challenge.Identifier
		resolved := findUserByIdentity(state, channel, identifier)
		if resolved == nil {
			state.Users = append(state.Users, newChannelUser(channel, identifier, now))
			resolved = &state.Users[len(state.Users)-1]
		} else {
			resolved.UpdatedAt = now
			resolved.LastLoginAt = now
		}

		resolved.Apply(hintsToUpdate(hints))
		switch channel {
		case domain.ChannelEmail:
			resolved.Email = identifier
		case domain.ChannelPhone:
			resolved.Phone = identifier
		}

		user = *resolved
		state.LoginChallenges = append(state.LoginChallenges[:idx], state.LoginChallenges[idx+1:]...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify code: %w", err)
	}
	if opErr != nil {
		return nil, opErr
	}

	token, expiresAt, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordLogin(ctx, channel)

	return &dto.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      dto.NewUserInfo(user),
	}, nil
}

func purgeExpiredChallenges(state *store.State, now time.Time) {
	kept := state.LoginChallenges[:0]
	for _, c := range state.LoginChallenges {
		if !c.Expired(now) {
			kept = append(kept, c)
		}
	}
	state.LoginChallenges = kept
}

func findUserByIdentity(state *store.State, channel, identifier string) *domain.User {
	for i := range state.Users {
		switch channel {
		case domain.ChannelEmail:
			if state.Users[i].Email == identifier {
				return &state.Users[i]
			}
		case domain.ChannelPhone:
			if state.Users[i].Phone == identifier {
				return &state.Users[i]
			}
		}
	}
	return nil
}

func newChannelUser(channel, identifier string, now time.Time) domain.User {
	user := domain.User{
		ID:              uuid.New().String(),
		Gender:          domain.GenderSecret,
		MatchPreference: domain.PreferenceAny,
		CreatedAt:       now,
		UpdatedAt:       now,
		LastLoginAt:     now,
	}
	switch channel {
	case domain.ChannelEmail:
		user.Email = identifier
		user.DisplayName = identifier[:strings.Index(identifier, "@")]
	case domain.ChannelPhone:
		user.Phone = identifier
		user.DisplayName = "手机用户" + lastN(identifier, 4)
	}
	return user
}

func lastN(value string, n int) string {
	if len(value) <= n {
		return value
	}
	return value[len(value)-n:]
}

func hintsToUpdate(hints dto.ProfileHints) domain.ProfileUpdate {
	return domain.ProfileUpdate{
		DisplayName:     hints.DisplayName,
		Bio:             hints.Bio,
		Gender:          hints.Gender,
		MatchPreference: hints.MatchPreference,
	}
}
