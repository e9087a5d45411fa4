package domain

import "time"

// OTP channels.
const (
	ChannelEmail = "email"
	ChannelPhone = "phone"
)

// QR challenge statuses. "confirmed" is terminal and sticky.
const (
	QrStatusPending   = "pending"
	QrStatusConfirmed = "confirmed"
)

// OtpChallenge is a short-lived one-time-code challenge bound to an email or
// phone identifier. At most one live challenge exists per (channel, identifier);
// issuing a new one invalidates the old.
type OtpChallenge struct {
	ID         string    `json:"id"`
	Identifier string    `json:"identifier"`
	Channel    string    `json:"channel"`
	CodeHash   string    `json:"codeHash"`
	CreatedAt  time.Time `json:"createdAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
	Attempts   int       `json:"attempts"`
}

// Expired reports whether the challenge lifetime has elapsed.
func (c OtpChallenge) Expired(now time.Time) bool {
	return c.ExpiresAt.Before(now)
}

// QrChallenge is a QR-mediated login handoff between two devices. The
// confirming device binds a user and a session to the challenge; the
// originating device collects the credentials by polling. Confirmed
// challenges stay queryable so a repeated confirm is idempotent.
type QrChallenge struct {
	ID               string    `json:"id"`
	Token            string    `json:"token"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"createdAt"`
	ExpiresAt        time.Time `json:"expiresAt"`
	DisplayNameHint  string    `json:"displayNameHint,omitempty"`
	GenderHint       string    `json:"genderHint,omitempty"`
	ConfirmedAt      time.Time `json:"confirmedAt,omitzero"`
	UserID           string    `json:"userId,omitempty"`
	WechatID         string    `json:"wechatId,omitempty"`
	SessionToken     string    `json:"sessionToken,omitempty"`
	SessionExpiresAt time.Time `json:"sessionExpiresAt,omitzero"`
}

// Expired reports whether an unconfirmed challenge has timed out.
func (c QrChallenge) Expired(now time.Time) bool {
	return c.ExpiresAt.Before(now)
}
