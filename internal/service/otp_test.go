package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/duetlog/duet-service/internal/domain"
	"github.com/duetlog/duet-service/internal/dto"
	"github.com/duetlog/duet-service/internal/store"
)

func newTestOTP(ttl time.Duration) (*OTPService, *store.MemoryStore) {
	st := store.NewMemoryStore()
	sessions := NewSessionManager(st, time.Hour)
	return NewOTPService(st, sessions, nil, ttl, 5, bcrypt.MinCost), st
}

func TestOtpRequestCodeValidatesIdentifier(t *testing.T) {
	ctx := context.Background()
	otp, _ := newTestOTP(10 * time.Minute)

	_, err := otp.RequestCode(ctx, domain.ChannelEmail, "not-an-email")
	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, 400, svcErr.Status)

	_, err = otp.RequestCode(ctx, domain.ChannelPhone, "abc")
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, 400, svcErr.Status)

	_, err = otp.RequestCode(ctx, "carrier-pigeon", "a@b.cn")
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, 400, svcErr.Status)
}

func TestOtpRequestCodeStoresOnlyHash(t *testing.T) {
	ctx := context.Background()
	otp, st := newTestOTP(10 * time.Minute)

	challenge, err := otp.RequestCode(ctx, domain.ChannelEmail, "writer@example.com")
	require.NoError(t, err)
	require.Len(t, challenge.Code, 6)

	state, err := st.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, state.LoginChallenges, 1)
	require.NotEqual(t, challenge.Code, state.LoginChallenges[0].CodeHash)
}

func TestOtpRequestCodeReplacesPreviousChallenge(t *testing.T) {
	ctx := context.Background()
	otp, st := newTestOTP(10 * time.Minute)

	first, err := otp.RequestCode(ctx, domain.ChannelEmail, "writer@example.com")
	require.NoError(t, err)
	second, err := otp.RequestCode(ctx, domain.ChannelEmail, "writer@example.com")
	require.NoError(t, err)
	require.NotEqual(t, first.ChallengeID, second.ChallengeID)

	state, err := st.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, state.LoginChallenges, 1)
	require.Equal(t, second.ChallengeID, state.LoginChallenges[0].ID)

	// The superseded challenge is gone.
	_, err = otp.VerifyCode(ctx, domain.ChannelEmail, first.ChallengeID, first.Code, dto.ProfileHints{})
	require.Error(t, err)
}

func TestOtpVerifyCreatesUserAndSession(t *testing.T) {
	ctx := context.Background()
	otp, st := newTestOTP(10 * time.Minute)

	challenge, err := otp.RequestCode(ctx, domain.ChannelEmail, "Writer@Example.com")
	require.NoError(t, err)

	bio := "夜猫子作家"
	auth, err := otp.VerifyCode(ctx, domain.ChannelEmail, challenge.ChallengeID, challenge.Code, dto.ProfileHints{
		DisplayName: "阿白",
		Bio:         &bio,
		Gender:      "female",
	})
	require.NoError(t, err)
	require.NotEmpty(t, auth.Token)
	require.Equal(t, "阿白", auth.User.DisplayName)
	require.Equal(t, domain.GenderFemale, auth.User.Gender)
	require.NotNil(t, auth.User.Email)
	require.Equal(t, "writer@example.com", *auth.User.Email)

	state, err := st.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, state.Users, 1)
	require.Len(t, state.Sessions, 1)
}

func TestOtpVerifyIsSingleUse(t *testing.T) {
	ctx := context.Background()
	otp, _ := newTestOTP(10 * time.Minute)

	challenge, err := otp.RequestCode(ctx, domain.ChannelEmail, "writer@example.com")
	require.NoError(t, err)

	_, err = otp.VerifyCode(ctx, domain.ChannelEmail, challenge.ChallengeID, challenge.Code, dto.ProfileHints{})
	require.NoError(t, err)

	_, err = otp.VerifyCode(ctx, domain.ChannelEmail, challenge.ChallengeID, challenge.Code, dto.ProfileHints{})
	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, 400, svcErr.Status)
}

func TestOtpVerifyExhaustsAttempts(t *testing.T) {
	ctx := context.Background()
	otp, _ := newTestOTP(10 * time.Minute)

	challenge, err := otp.RequestCode(ctx, domain.ChannelEmail, "writer@example.com")
	require.NoError(t, err)

	wrong := "000000"
	if challenge.Code == wrong {
		wrong = "000001"
	}

	var svcErr *Error
	for i := 0; i < 5; i++ {
		_, err = otp.VerifyCode(ctx, domain.ChannelEmail, challenge.ChallengeID, wrong, dto.ProfileHints{})
		require.ErrorAs(t, err, &svcErr)
		require.Equal(t, 401, svcErr.Status)
	}

	// The budget is spent, so even the right code no longer redeems.
	_, err = otp.VerifyCode(ctx, domain.ChannelEmail, challenge.ChallengeID, challenge.Code, dto.ProfileHints{})
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, 400, svcErr.Status)
}

func TestOtpVerifyExpiredChallenge(t *testing.T) {
	ctx := context.Background()
	otp, _ := newTestOTP(-time.Minute)

	challenge, err := otp.RequestCode(ctx, domain.ChannelEmail, "writer@example.com")
	require.NoError(t, err)

	_, err = otp.VerifyCode(ctx, domain.ChannelEmail, challenge.ChallengeID, challenge.Code, dto.ProfileHints{})
	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, 400, svcErr.Status)
}

func TestOtpVerifyResolvesExistingUser(t *testing.T) {
	ctx := context.Background()
	otp, st := newTestOTP(10 * time.Minute)

	challenge, err := otp.RequestCode(ctx, domain.ChannelEmail, "writer@example.com")
	require.NoError(t, err)
	first, err := otp.VerifyCode(ctx, domain.ChannelEmail, challenge.ChallengeID, challenge.Code, dto.ProfileHints{})
	require.NoError(t, err)

	challenge, err = otp.RequestCode(ctx, domain.ChannelEmail, "writer@example.com")
	require.NoError(t, err)
	second, err := otp.VerifyCode(ctx, domain.ChannelEmail, challenge.ChallengeID, challenge.Code, dto.ProfileHints{})
	require.NoError(t, err)

	require.Equal(t, first.User.ID, second.User.ID)
	state, err := st.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, state.Users, 1)
}

func TestOtpPhoneDisplayNameDefault(t *testing.T) {
	ctx := context.Background()
	otp, _ := newTestOTP(10 * time.Minute)

	challenge, err := otp.RequestCode(ctx, domain.ChannelPhone, "+8613800138000")
	require.NoError(t, err)

	auth, err := otp.VerifyCode(ctx, domain.ChannelPhone, challenge.ChallengeID, challenge.Code, dto.ProfileHints{})
	require.NoError(t, err)
	require.Equal(t, "手机用户8000", auth.User.DisplayName)
	require.NotNil(t, auth.User.Phone)
	require.Equal(t, "+8613800138000", *auth.User.Phone)
}
