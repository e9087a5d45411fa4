package acceptance

import (
	"encoding/json"
	"net/http"

	"github.com/duetlog/duet-service/internal/dto"
)

func (s *Suite) TestQrLogin_FullFlow() {
	resp, body := s.postJSON("/api/auth/wechat/qrcode", dto.CreateQrRequest{DisplayName: "墨客"}, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(body))

	var challenge dto.QrChallengeResponse
	s.Require().NoError(json.Unmarshal(body, &challenge))
	s.Equal("wechat-login:"+challenge.Token, challenge.QrData)

	resp, body = s.get("/api/auth/wechat/poll?token="+challenge.Token, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var poll dto.QrPollResponse
	s.Require().NoError(json.Unmarshal(body, &poll))
	s.Equal("pending", poll.Status)
	s.Empty(poll.Token)

	resp, body = s.postJSON("/api/auth/wechat/confirm", dto.ConfirmQrRequest{
		Token:    challenge.Token,
		WechatID: "wx-openid-1234",
	}, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(body))
	var confirm dto.QrConfirmResponse
	s.Require().NoError(json.Unmarshal(body, &confirm))
	s.Equal("confirmed", confirm.Status)

	resp, body = s.get("/api/auth/wechat/poll?token="+challenge.Token, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Require().NoError(json.Unmarshal(body, &poll))
	s.Equal("confirmed", poll.Status)
	s.NotEmpty(poll.Token)
	s.Require().NotNil(poll.User)

	// The delivered token is a working session credential.
	resp, body = s.get("/api/auth/session", poll.Token)
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(body))
	var session dto.AuthResponse
	s.Require().NoError(json.Unmarshal(body, &session))
	s.Equal(poll.User.ID, session.User.ID)
}

func (s *Suite) TestQrPoll_UnknownToken() {
	resp, body := s.get("/api/auth/wechat/poll?token=no-such-token", "")
	s.Equal(http.StatusOK, resp.StatusCode)

	var poll dto.QrPollResponse
	s.Require().NoError(json.Unmarshal(body, &poll))
	s.Equal("not_found", poll.Status)
}

func (s *Suite) TestQrConfirm_Repeated() {
	resp, body := s.postJSON("/api/auth/wechat/qrcode", dto.CreateQrRequest{}, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var challenge dto.QrChallengeResponse
	s.Require().NoError(json.Unmarshal(body, &challenge))

	confirm := dto.ConfirmQrRequest{Token: challenge.Token, WechatID: "wx-openid-1234"}
	resp, _ = s.postJSON("/api/auth/wechat/confirm", confirm, "")
	s.Equal(http.StatusOK, resp.StatusCode)
	resp, _ = s.postJSON("/api/auth/wechat/confirm", confirm, "")
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *Suite) TestQrConfirm_MissingFields() {
	resp, _ := s.postJSON("/api/auth/wechat/confirm", dto.ConfirmQrRequest{WechatID: "wx-openid-1234"}, "")
	s.Equal(http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.postJSON("/api/auth/wechat/confirm", dto.ConfirmQrRequest{Token: "some-token"}, "")
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestQrConfirm_UnknownToken() {
	resp, _ := s.postJSON("/api/auth/wechat/confirm", dto.ConfirmQrRequest{
		Token:    "no-such-token",
		WechatID: "wx-openid-1234",
	}, "")
	s.Equal(http.StatusNotFound, resp.StatusCode)
}
