package acceptance

import (
	"encoding/json"
	"net/http"

	"github.com/duetlog/duet-service/internal/dto"
)

func (s *Suite) TestEmailLogin_FullFlow() {
	auth := s.loginEmailUser("a@x.com", dto.ProfileHints{
		DisplayName:     "阿白",
		Gender:          "female",
		MatchPreference: "male",
	})

	s.NotEmpty(auth.Token)
	s.Equal("阿白", auth.User.DisplayName)
	s.Equal("female", auth.User.Gender)
	s.Equal("male", auth.User.MatchPreference)
	s.Require().NotNil(auth.User.Email)
	s.Equal("a@x.com", *auth.User.Email)

	resp, body := s.get("/api/auth/session", auth.Token)
	s.Equal(http.StatusOK, resp.StatusCode)

	var session dto.AuthResponse
	s.Require().NoError(json.Unmarshal(body, &session))
	s.Equal(auth.Token, session.Token)
	s.Equal(auth.User.ID, session.User.ID)
}

func (s *Suite) TestEmailRequestCode_InvalidAddress() {
	resp, body := s.postJSON("/api/auth/email/request-code", dto.RequestEmailCodeRequest{Email: "not-an-email"}, "")
	s.Equal(http.StatusBadRequest, resp.StatusCode)

	var errResp dto.ErrorResponse
	s.Require().NoError(json.Unmarshal(body, &errResp))
	s.NotEmpty(errResp.Error)
}

func (s *Suite) TestEmailVerify_WrongCode() {
	resp, body := s.postJSON("/api/auth/email/request-code", dto.RequestEmailCodeRequest{Email: "a@x.com"}, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var challenge dto.ChallengeResponse
	s.Require().NoError(json.Unmarshal(body, &challenge))

	wrong := "000000"
	if challenge.Code == wrong {
		wrong = "000001"
	}
	resp, _ = s.postJSON("/api/auth/email/verify", dto.VerifyCodeRequest{
		ChallengeID: challenge.ChallengeID,
		Code:        wrong,
	}, "")
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	// The right code still redeems while attempts remain.
	resp, _ = s.postJSON("/api/auth/email/verify", dto.VerifyCodeRequest{
		ChallengeID: challenge.ChallengeID,
		Code:        challenge.Code,
	}, "")
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *Suite) TestEmailVerify_ChallengeIsSingleUse() {
	resp, body := s.postJSON("/api/auth/email/request-code", dto.RequestEmailCodeRequest{Email: "a@x.com"}, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var challenge dto.ChallengeResponse
	s.Require().NoError(json.Unmarshal(body, &challenge))

	verify := dto.VerifyCodeRequest{ChallengeID: challenge.ChallengeID, Code: challenge.Code}
	resp, _ = s.postJSON("/api/auth/email/verify", verify, "")
	s.Equal(http.StatusOK, resp.StatusCode)

	resp, _ = s.postJSON("/api/auth/email/verify", verify, "")
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestPhoneLogin_FullFlow() {
	resp, body := s.postJSON("/api/auth/phone/request-code", dto.RequestPhoneCodeRequest{Phone: "+8613800138000"}, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(body))

	var challenge dto.ChallengeResponse
	s.Require().NoError(json.Unmarshal(body, &challenge))

	resp, body = s.postJSON("/api/auth/phone/verify", dto.VerifyCodeRequest{
		ChallengeID: challenge.ChallengeID,
		Code:        challenge.Code,
	}, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(body))

	var auth dto.AuthResponse
	s.Require().NoError(json.Unmarshal(body, &auth))
	s.Equal("手机用户8000", auth.User.DisplayName)
	s.Require().NotNil(auth.User.Phone)
	s.Equal("+8613800138000", *auth.User.Phone)
}

func (s *Suite) TestRepeatLogin_SameUser() {
	first := s.loginEmailUser("a@x.com", dto.ProfileHints{DisplayName: "阿白"})
	second := s.loginEmailUser("a@x.com", dto.ProfileHints{})

	s.Equal(first.User.ID, second.User.ID)
	s.Equal("阿白", second.User.DisplayName)
	s.NotEqual(first.Token, second.Token)
}

func (s *Suite) TestSession_Unauthorized() {
	resp, _ := s.get("/api/auth/session", "")
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.get("/api/auth/session", "bogus-token")
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestLogout() {
	auth := s.loginEmailUser("a@x.com", dto.ProfileHints{})

	resp, _ := s.postJSON("/api/auth/logout", nil, auth.Token)
	s.Equal(http.StatusOK, resp.StatusCode)

	// The token is dead after logout.
	resp, _ = s.get("/api/auth/session", auth.Token)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestHealth() {
	resp, _ := s.get("/health", "")
	s.Equal(http.StatusOK, resp.StatusCode)
}
