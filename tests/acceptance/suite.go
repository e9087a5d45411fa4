package acceptance

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/duetlog/duet-service/internal/app"
	"github.com/duetlog/duet-service/internal/config"
	"github.com/duetlog/duet-service/internal/dto"
	"github.com/duetlog/duet-service/internal/store"
	"github.com/duetlog/duet-service/pkg/database"
)

// Suite runs the HTTP surface end to end against the in-memory store and an
// embedded Redis, so no external services are needed.
type Suite struct {
	suite.Suite
	Store  *store.MemoryStore
	Redis  *database.Redis
	mini   *miniredis.Miniredis
	infra  *testInfrastructure
	server *httptest.Server

	BaseURL string
}

func (s *Suite) SetupSuite() {
	gin.SetMode(gin.TestMode)

	mini, err := miniredis.Run()
	if err != nil {
		s.T().Fatalf("Failed to start embedded redis: %v", err)
	}
	s.mini = mini
	s.Redis = &database.Redis{Client: goredis.NewClient(&goredis.Options{Addr: mini.Addr()})}
	s.Store = store.NewMemoryStore()

	infra, err := newTestInfrastructure(s.Store, s.Redis)
	if err != nil {
		mini.Close()
		s.T().Fatalf("Failed to build test infrastructure: %v", err)
	}
	s.infra = infra

	application := app.NewApp(infra, testConfig())
	s.server = httptest.NewServer(application.Router())
	s.BaseURL = s.server.URL
}

func (s *Suite) TearDownSuite() {
	if s.server != nil {
		s.server.Close()
	}
	if s.infra != nil {
		_ = s.infra.Shutdown(context.Background())
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *Suite) SetupTest() {
	err := s.Store.Update(context.Background(), func(state *store.State) error {
		*state = store.State{}
		return nil
	})
	if err != nil {
		s.T().Fatalf("Failed to reset store: %v", err)
	}
	s.mini.FlushAll()
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:         "localhost",
			Port:         "0",
			ReadTimeout:  config.Duration{Duration: 15 * time.Second},
			WriteTimeout: config.Duration{Duration: 15 * time.Second},
		},
		Storage: config.StorageConfig{Driver: "memory"},
		Auth: config.AuthConfig{
			OtpTTL:      config.Duration{Duration: 10 * time.Minute},
			OtpAttempts: 5,
			QrTTL:       config.Duration{Duration: 5 * time.Minute},
			SessionTTL:  config.Duration{Duration: 7 * 24 * time.Hour},
		},
		Security: config.SecurityConfig{
			BCryptCost:        4,
			RateLimitRequests: 100,
			RateLimitWindow:   config.Duration{Duration: 1 * time.Minute},
		},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
		},
		Env: "test",
	}
}

func (s *Suite) postJSON(path string, body any, token string) (*http.Response, []byte) {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)

	req, err := http.NewRequest(http.MethodPost, s.BaseURL+path, bytes.NewBuffer(payload))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.do(req)
}

func (s *Suite) putJSON(path string, body any, token string) (*http.Response, []byte) {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)

	req, err := http.NewRequest(http.MethodPut, s.BaseURL+path, bytes.NewBuffer(payload))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.do(req)
}

func (s *Suite) get(path, token string) (*http.Response, []byte) {
	req, err := http.NewRequest(http.MethodGet, s.BaseURL+path, nil)
	s.Require().NoError(err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.do(req)
}

func (s *Suite) do(req *http.Request) (*http.Response, []byte) {
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp, body
}

// loginEmailUser drives the full email OTP flow and returns the session.
func (s *Suite) loginEmailUser(email string, hints dto.ProfileHints) dto.AuthResponse {
	resp, body := s.postJSON("/api/auth/email/request-code", dto.RequestEmailCodeRequest{Email: email}, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(body))

	var challenge dto.ChallengeResponse
	s.Require().NoError(json.Unmarshal(body, &challenge))

	resp, body = s.postJSON("/api/auth/email/verify", dto.VerifyCodeRequest{
		ChallengeID:  challenge.ChallengeID,
		Code:         challenge.Code,
		ProfileHints: hints,
	}, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(body))

	var auth dto.AuthResponse
	s.Require().NoError(json.Unmarshal(body, &auth))
	return auth
}
