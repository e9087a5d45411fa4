package acceptance

import (
	"encoding/json"
	"net/http"

	"github.com/duetlog/duet-service/internal/dto"
)

func (s *Suite) TestMatch_FullFlow() {
	alice := s.loginEmailUser("alice@x.com", dto.ProfileHints{Gender: "female", MatchPreference: "male"})
	bob := s.loginEmailUser("bob@x.com", dto.ProfileHints{Gender: "male", MatchPreference: "female"})

	resp, body := s.postJSON("/api/match/request", dto.MatchRequestBody{}, alice.Token)
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(body))
	var status dto.MatchStatusResponse
	s.Require().NoError(json.Unmarshal(body, &status))
	s.Equal("searching", status.Status)

	resp, body = s.postJSON("/api/match/request", dto.MatchRequestBody{}, bob.Token)
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(body))
	s.Require().NoError(json.Unmarshal(body, &status))
	s.Equal("matched", status.Status)
	s.Require().NotNil(status.Partner)
	s.Equal(alice.User.ID, status.Partner.ID)

	resp, body = s.get("/api/match/status", alice.Token)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Require().NoError(json.Unmarshal(body, &status))
	s.Equal("matched", status.Status)
	s.Require().NotNil(status.Partner)
	s.Equal(bob.User.ID, status.Partner.ID)
}

func (s *Suite) TestMatch_SecretGenderRejected() {
	user := s.loginEmailUser("quiet@x.com", dto.ProfileHints{})

	resp, body := s.postJSON("/api/match/request", dto.MatchRequestBody{}, user.Token)
	s.Equal(http.StatusBadRequest, resp.StatusCode)

	var errResp dto.ErrorResponse
	s.Require().NoError(json.Unmarshal(body, &errResp))
	s.NotEmpty(errResp.Error)
}

func (s *Suite) TestMatch_Reset() {
	alice := s.loginEmailUser("alice@x.com", dto.ProfileHints{Gender: "female"})
	bob := s.loginEmailUser("bob@x.com", dto.ProfileHints{Gender: "male"})

	resp, _ := s.postJSON("/api/match/request", dto.MatchRequestBody{}, alice.Token)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	resp, _ = s.postJSON("/api/match/request", dto.MatchRequestBody{}, bob.Token)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp, body := s.postJSON("/api/match/reset", nil, alice.Token)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var status dto.MatchStatusResponse
	s.Require().NoError(json.Unmarshal(body, &status))
	s.Equal("idle", status.Status)

	// Ending a match releases both sides.
	resp, body = s.get("/api/match/status", bob.Token)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Require().NoError(json.Unmarshal(body, &status))
	s.Equal("idle", status.Status)
}

func (s *Suite) TestMatch_Unauthorized() {
	resp, _ := s.postJSON("/api/match/request", dto.MatchRequestBody{}, "")
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.get("/api/match/status", "")
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}
