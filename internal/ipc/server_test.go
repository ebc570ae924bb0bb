package ipc

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"fluorite-flake/internal/config"
	"fluorite-flake/internal/vendorcli"

	"github.com/stretchr/testify/assert"
)

func TestWithAuthRejectsBadToken(t *testing.T) {
	s := NewServer(config.ProtocolConfig{Primary: "http", AuthToken: "secret"}, &stubAPI{}, vendorcli.NewFakeRunner())
	handler := s.withAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer secret")
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWithAuthDisabledWithoutToken(t *testing.T) {
	s := NewServer(config.ProtocolConfig{Primary: "http"}, &stubAPI{}, vendorcli.NewFakeRunner())
	handler := s.withAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStartRejectsUnknownTransport(t *testing.T) {
	s := NewServer(config.ProtocolConfig{Primary: "carrier-pigeon"}, &stubAPI{}, vendorcli.NewFakeRunner())
	err := s.Start(t.Context())
	assert.Error(t, err)
}
