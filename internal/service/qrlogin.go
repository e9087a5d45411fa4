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
)

// Poll statuses reported to the originating device.
const (
	PollNotFound  = "not_found"
	PollPending   = "pending"
	PollExpired   = "expired"
	PollConfirmed = "confirmed"
)

// QRLoginService drives the two-device login handoff. The originating
// device creates a challenge and polls it; a second device confirms it
// out-of-band. The session minted on confirm is parked on the challenge
// record so that only the poller ever receives it.
type QRLoginService struct {
	store    store.Store
	sessions *SessionManager
	metrics  *Metrics
	ttl      time.Duration
}

// NewQRLoginService creates a QR login flow manager.
func NewQRLoginService(st store.Store, sessions *SessionManager, metrics *Metrics, ttl time.Duration) *QRLoginService {
	return &QRLoginService{store: st, sessions: sessions, metrics: metrics, ttl: ttl}
}

// CreateChallenge mints a pending QR challenge. The hints are rendering
// metadata only; the token is the security boundary.
func (s *QRLoginService) CreateChallenge(ctx context.Context, displayNameHint, genderHint string) (*dto.QrChallengeResponse, error) {
	now := time.Now().UTC()
	challenge := domain.QrChallenge{
		ID:              uuid.New().String(),
		Token:           uuid.New().String(),
		Status:          domain.QrStatusPending,
		CreatedAt:       now,
		ExpiresAt:       now.Add(s.ttl),
		DisplayNameHint: domain.Truncate(strings.TrimSpace(displayNameHint), domain.MaxDisplayNameLength),
		GenderHint:      domain.NormalizeGender(genderHint),
	}

	err := s.store.Update(ctx, func(state *store.State) error {
		purgeStaleQrChallenges(state, now)
		state.QrChallenges = append(state.QrChallenges, challenge)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save qr challenge: %w", err)
	}

	return &dto.QrChallengeResponse{
		Token:     challenge.Token,
		QrData:    "wechat-login:" + challenge.Token,
		ExpiresAt: challenge.ExpiresAt,
	}, nil
}

// Confirm binds a wechat identity to a pending challenge. Confirming an
// already-confirmed challenge is idempotent: the bound user is re-resolved
// and no second session is minted. The confirming device only ever receives
// an acknowledgement.
func (s *QRLoginService) Confirm(ctx context.Context, token, wechatID string, hints dto.ProfileHints) (*dto.QrConfirmResponse, error) {
	token = strings.TrimSpace(token)
	wechatID = strings.TrimSpace(wechatID)
	if token == "" {
		return nil, ErrValidation("缺少token")
	}
	if wechatID == "" {
		return nil, ErrValidation("缺少微信标识")
	}

	now := time.Now().UTC()
	var (
		opErr            error
		user             domain.User
		alreadyConfirmed bool
	)

	err := s.store.Update(ctx, func(state *store.State) error {
		purgeStaleQrChallenges(state, now)

		challenge := findQrChallenge(state, token)
		if challenge == nil {
			opErr = ErrNotFound("登录请求不存在或已过期")
			return nil
		}

		if challenge.Status == domain.QrStatusConfirmed {
			bound := state.UserByID(challenge.UserID)
			if bound == nil {
				opErr = ErrNotFound("匹配用户不存在")
				return nil
			}
			user = *bound
			alreadyConfirmed = true
			return nil
		}

		if challenge.Expired(now) {
			opErr = ErrValidation("二维码已过期，请重新扫码")
			return nil
		}

		resolved := findUserByWechatID(state, wechatID)
		if resolved == nil {
			created := domain.User{
				ID:              uuid.New().String(),
				DisplayName:     "微信用户" + lastN(wechatID, 4),
				WechatID:        wechatID,
				Gender:          domain.GenderSecret,
				MatchPreference: domain.PreferenceAny,
				CreatedAt:       now,
				UpdatedAt:       now,
				LastLoginAt:     now,
			}
			state.Users = append(state.Users, created)
			resolved = &state.Users[len(state.Users)-1]
		} else {
			resolved.UpdatedAt = now
			resolved.LastLoginAt = now
		}

		resolved.Apply(hintsToUpdate(hints))
		resolved.WechatID = wechatID

		challenge.Status = domain.QrStatusConfirmed
		challenge.ConfirmedAt = now
		challenge.UserID = resolved.ID
		challenge.WechatID = wechatID

		user = *resolved
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to confirm qr challenge: %w", err)
	}
	if opErr != nil {
		return nil, opErr
	}

	if !alreadyConfirmed {
		sessionToken, expiresAt, err := s.sessions.Create(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		err = s.store.Update(ctx, func(state *store.State) error {
			if challenge := findQrChallenge(state, token); challenge != nil {
				challenge.SessionToken = sessionToken
				challenge.SessionExpiresAt = expiresAt
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to park session on challenge: %w", err)
		}
		s.metrics.RecordLogin(ctx, "wechat")
	}

	return &dto.QrConfirmResponse{Status: PollConfirmed}, nil
}

// Poll reports the challenge state to the originating device. Credentials
// appear only once the challenge is confirmed and a session is parked on it.
func (s *QRLoginService) Poll(ctx context.Context, token string) (*dto.QrPollResponse, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrValidation("缺少token")
	}

	state, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read qr challenge: %w", err)
	}

	challenge := findQrChallenge(state, token)
	if challenge == nil {
		return &dto.QrPollResponse{Status: PollNotFound}, nil
	}

	if challenge.Status != domain.QrStatusConfirmed {
		if challenge.Expired(time.Now().UTC()) {
			return &dto.QrPollResponse{Status: PollExpired}, nil
		}
		return &dto.QrPollResponse{Status: PollPending}, nil
	}

	user := state.UserByID(challenge.UserID)
	if user == nil || challenge.SessionToken == "" {
		// Confirm committed but the session is not parked yet.
		return &dto.QrPollResponse{Status: PollPending}, nil
	}

	info := dto.NewUserInfo(*user)
	expiresAt := challenge.SessionExpiresAt
	return &dto.QrPollResponse{
		Status:    PollConfirmed,
		Token:     challenge.SessionToken,
		ExpiresAt: &expiresAt,
		User:      &info,
	}, nil
}

// purgeStaleQrChallenges drops expired pending challenges. Confirmed ones
// are kept so repeat confirms stay idempotent.
func purgeStaleQrChallenges(state *store.State, now time.Time) {
	kept := state.QrChallenges[:0]
	for _, c := range state.QrChallenges {
		if c.Status == domain.QrStatusConfirmed || !c.Expired(now) {
			kept = append(kept, c)
		}
	}
	state.QrChallenges = kept
}

func findQrChallenge(state *store.State, token string) *domain.QrChallenge {
	for i := range state.QrChallenges {
		if state.QrChallenges[i].Token == token {
			return &state.QrChallenges[i]
		}
	}
	return nil
}

func findUserByWechatID(state *store.State, wechatID string) *domain.User {
	for i := range state.Users {
		if state.Users[i].WechatID == wechatID {
			return &state.Users[i]
		}
	}
	return nil
}
