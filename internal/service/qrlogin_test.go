package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/duetlog/duet-service/internal/dto"
	"github.com/duetlog/duet-service/internal/store"
)

func newTestQR(ttl time.Duration) (*QRLoginService, *store.MemoryStore) {
	st := store.NewMemoryStore()
	sessions := NewSessionManager(st, time.Hour)
	return NewQRLoginService(st, sessions, nil, ttl), st
}

func TestQrCreateAndPollPending(t *testing.T) {
	ctx := context.Background()
	qr, _ := newTestQR(5 * time.Minute)

	challenge, err := qr.CreateChallenge(ctx, "阿白", "female")
	require.NoError(t, err)
	require.NotEmpty(t, challenge.Token)
	require.Equal(t, "wechat-login:"+challenge.Token, challenge.QrData)

	poll, err := qr.Poll(ctx, challenge.Token)
	require.NoError(t, err)
	require.Equal(t, PollPending, poll.Status)
	require.Empty(t, poll.Token)
}

func TestQrPollUnknownToken(t *testing.T) {
	ctx := context.Background()
	qr, _ := newTestQR(5 * time.Minute)

	poll, err := qr.Poll(ctx, "no-such-token")
	require.NoError(t, err)
	require.Equal(t, PollNotFound, poll.Status)
}

func TestQrConfirmThenPollDeliversSession(t *testing.T) {
	ctx := context.Background()
	qr, st := newTestQR(5 * time.Minute)

	challenge, err := qr.CreateChallenge(ctx, "", "")
	require.NoError(t, err)

	confirm, err := qr.Confirm(ctx, challenge.Token, "wx-openid-1234", dto.ProfileHints{DisplayName: "墨客"})
	require.NoError(t, err)
	require.Equal(t, PollConfirmed, confirm.Status)

	poll, err := qr.Poll(ctx, challenge.Token)
	require.NoError(t, err)
	require.Equal(t, PollConfirmed, poll.Status)
	require.NotEmpty(t, poll.Token)
	require.NotNil(t, poll.User)
	require.Equal(t, "墨客", poll.User.DisplayName)

	// The parked token is a live session credential.
	sessions := NewSessionManager(st, time.Hour)
	session, err := sessions.Verify(ctx, poll.Token)
	require.NoError(t, err)
	require.Equal(t, poll.User.ID, session.UserID)
}

func TestQrConfirmIsIdempotent(t *testing.T) {
	ctx := context.Background()
	qr, st := newTestQR(5 * time.Minute)

	challenge, err := qr.CreateChallenge(ctx, "", "")
	require.NoError(t, err)

	_, err = qr.Confirm(ctx, challenge.Token, "wx-openid-1234", dto.ProfileHints{})
	require.NoError(t, err)
	_, err = qr.Confirm(ctx, challenge.Token, "wx-openid-1234", dto.ProfileHints{})
	require.NoError(t, err)

	state, err := st.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, state.Users, 1)
	require.Len(t, state.Sessions, 1)
}

func TestQrConfirmUnknownToken(t *testing.T) {
	ctx := context.Background()
	qr, _ := newTestQR(5 * time.Minute)

	_, err := qr.Confirm(ctx, "no-such-token", "wx-openid-1234", dto.ProfileHints{})
	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, 404, svcErr.Status)
}

func TestQrConfirmValidatesInput(t *testing.T) {
	ctx := context.Background()
	qr, _ := newTestQR(5 * time.Minute)

	var svcErr *Error
	_, err := qr.Confirm(ctx, "", "wx-openid-1234", dto.ProfileHints{})
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, 400, svcErr.Status)

	_, err = qr.Confirm(ctx, "some-token", "", dto.ProfileHints{})
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, 400, svcErr.Status)
}

func TestQrExpiredChallenge(t *testing.T) {
	ctx := context.Background()
	qr, _ := newTestQR(-time.Minute)

	challenge, err := qr.CreateChallenge(ctx, "", "")
	require.NoError(t, err)

	poll, err := qr.Poll(ctx, challenge.Token)
	require.NoError(t, err)
	require.Equal(t, PollExpired, poll.Status)

	// Confirm purges the stale challenge first, so it reads as missing.
	_, err = qr.Confirm(ctx, challenge.Token, "wx-openid-1234", dto.ProfileHints{})
	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, 404, svcErr.Status)
}

func TestQrConfirmReusesWechatIdentity(t *testing.T) {
	ctx := context.Background()
	qr, st := newTestQR(5 * time.Minute)

	first, err := qr.CreateChallenge(ctx, "", "")
	require.NoError(t, err)
	_, err = qr.Confirm(ctx, first.Token, "wx-openid-1234", dto.ProfileHints{})
	require.NoError(t, err)

	second, err := qr.CreateChallenge(ctx, "", "")
	require.NoError(t, err)
	_, err = qr.Confirm(ctx, second.Token, "wx-openid-1234", dto.ProfileHints{})
	require.NoError(t, err)

	state, err := st.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, state.Users, 1)
}
