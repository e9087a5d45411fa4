package acceptance

import (
	"encoding/json"
	"net/http"

	"github.com/duetlog/duet-service/internal/dto"
)

func (s *Suite) TestProfile_Update() {
	auth := s.loginEmailUser("a@x.com", dto.ProfileHints{})

	name := "阿白"
	bio := "每天写五百字"
	timezone := "Asia/Shanghai"
	goal := 500
	resp, body := s.putJSON("/api/profile", dto.UpdateProfileRequest{
		DisplayName: &name,
		Bio:         &bio,
		Gender:      "female",
		Timezone:    &timezone,
		WritingGoal: &goal,
	}, auth.Token)
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(body))

	var profile dto.ProfileResponse
	s.Require().NoError(json.Unmarshal(body, &profile))
	s.Equal("阿白", profile.User.DisplayName)
	s.Equal("每天写五百字", profile.User.Bio)
	s.Equal("female", profile.User.Gender)
	s.Require().NotNil(profile.User.Timezone)
	s.Equal("Asia/Shanghai", *profile.User.Timezone)
	// The goal caps at one year of days.
	s.Equal(365, profile.User.WritingGoal)

	resp, body = s.get("/api/profile", auth.Token)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Require().NoError(json.Unmarshal(body, &profile))
	s.Equal("阿白", profile.User.DisplayName)
}

func (s *Suite) TestProfile_BlankDisplayNameRejected() {
	auth := s.loginEmailUser("a@x.com", dto.ProfileHints{})

	blank := "   "
	resp, _ := s.putJSON("/api/profile", dto.UpdateProfileRequest{DisplayName: &blank}, auth.Token)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestProfile_UnknownFieldsIgnored() {
	auth := s.loginEmailUser("a@x.com", dto.ProfileHints{})

	resp, body := s.putJSON("/api/profile", map[string]any{
		"gender": "dragon",
		"id":     "attacker-controlled",
	}, auth.Token)
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(body))

	var profile dto.ProfileResponse
	s.Require().NoError(json.Unmarshal(body, &profile))
	s.Equal("secret", profile.User.Gender)
	s.Equal(auth.User.ID, profile.User.ID)
}

func (s *Suite) TestProfile_Unauthorized() {
	resp, _ := s.get("/api/profile", "")
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}
