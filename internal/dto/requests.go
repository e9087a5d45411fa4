package dto

// ProfileHints are the optional profile fields a client may attach to a
// login verification. Each field is independently optional; unknown gender
// or preference values fall back to defaults instead of erroring.
type ProfileHints struct {
	DisplayName     string  `json:"displayName"`
	Bio             *string `json:"bio"`
	Gender          string  `json:"gender"`
	MatchPreference string  `json:"matchPreference"`
}

// RequestEmailCodeRequest asks for an email one-time code
type RequestEmailCodeRequest struct {
	Email string `json:"email"`
}

// RequestPhoneCodeRequest asks for a phone one-time code
type RequestPhoneCodeRequest struct {
	Phone string `json:"phone"`
}

// VerifyCodeRequest redeems a one-time code
type VerifyCodeRequest struct {
	ChallengeID string `json:"challengeId"`
	Code        string `json:"code"`
	ProfileHints
}

// CreateQrRequest opens a QR login challenge; the hints are display-only
type CreateQrRequest struct {
	DisplayName string `json:"displayName"`
	Gender      string `json:"gender"`
}

// ConfirmQrRequest confirms a QR challenge from the scanning device
type ConfirmQrRequest struct {
	Token    string `json:"token"`
	WechatID string `json:"wechatId"`
	ProfileHints
}

// MatchRequestBody asks the matching engine to pair the caller
type MatchRequestBody struct {
	MatchPreference string `json:"matchPreference"`
	ForceNew        bool   `json:"forceNew"`
}

// UpdateProfileRequest edits the authenticated user's profile
type UpdateProfileRequest struct {
	DisplayName     *string `json:"displayName"`
	Bio             *string `json:"bio"`
	Gender          string  `json:"gender"`
	MatchPreference string  `json:"matchPreference"`
	Timezone        *string `json:"timezone"`
	WritingGoal     *int    `json:"writingGoal"`
}
