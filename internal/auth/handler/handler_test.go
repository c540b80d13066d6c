package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"passcheck/internal/auth"
	"passcheck/internal/auth/store/revocation"
	userservice "passcheck/internal/user/service"
	userstore "passcheck/internal/user/store/user"
)

// HandlerSuite wires the handler to real services over in-memory stores.
type HandlerSuite struct {
	suite.Suite

	auth   *auth.Service
	router chi.Router
}

func (s *HandlerSuite) SetupTest() {
	users, err := userservice.New(userstore.New())
	s.Require().NoError(err)

	tokens := auth.NewTokenMaker("test-signing-key", time.Hour)
	authSvc, err := auth.New(users, tokens, revocation.NewInMemory())
	s.Require().NoError(err)
	s.auth = authSvc

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	s.router = chi.NewRouter()
	New(authSvc, users, logger).Register(s.router)
}

func (s *HandlerSuite) post(path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) register(email, password string) {
	rec := s.post("/api/auth/register", map[string]string{
		"email":    email,
		"name":     "Dev",
		"password": password,
	}, nil)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
}

func (s *HandlerSuite) login(email, password string) string {
	rec := s.post("/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal("Bearer", body.TokenType)
	s.Require().NotEmpty(body.AccessToken)
	return body.AccessToken
}

func (s *HandlerSuite) TestRegister() {
	rec := s.post("/api/auth/register", map[string]string{
		"email":    "dev@example.com",
		"name":     "Dev",
		"password": "hunter2!",
	}, nil)
	s.Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var body map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal("dev@example.com", body["email"])
	s.NotContains(rec.Body.String(), "hunter2!")
	s.NotContains(rec.Body.String(), "passwordHash")
}

func (s *HandlerSuite) TestRegisterDuplicateEmail() {
	s.register("dev@example.com", "hunter2!")

	rec := s.post("/api/auth/register", map[string]string{
		"email":    "dev@example.com",
		"name":     "Dev Two",
		"password": "hunter2!",
	}, nil)
	s.Equal(http.StatusConflict, rec.Code)
	s.Contains(rec.Body.String(), "already exists")
}

func (s *HandlerSuite) TestRegisterInvalidBody() {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "bad_request")
}

func (s *HandlerSuite) TestLoginAndVerify() {
	s.register("dev@example.com", "hunter2!")
	token := s.login("dev@example.com", "hunter2!")

	identity, err := s.auth.Verify(context.Background(), token)
	s.Require().NoError(err)
	s.False(identity.UserID.IsNil())
	s.Equal("USER", identity.Role)
}

func (s *HandlerSuite) TestLoginBadCredentials() {
	s.register("dev@example.com", "hunter2!")

	rec := s.post("/api/auth/login", map[string]string{
		"email":    "dev@example.com",
		"password": "wrong",
	}, nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Contains(rec.Body.String(), "invalid email or password")
}

func (s *HandlerSuite) TestLogoutRevokesToken() {
	s.register("dev@example.com", "hunter2!")
	token := s.login("dev@example.com", "hunter2!")

	rec := s.post("/api/auth/logout", struct{}{}, map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	})
	s.Equal(http.StatusNoContent, rec.Code)

	_, err := s.auth.Verify(context.Background(), token)
	s.Error(err)
}

func (s *HandlerSuite) TestLogoutWithoutToken() {
	rec := s.post("/api/auth/logout", struct{}{}, nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Contains(rec.Body.String(), "missing bearer token")
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}
