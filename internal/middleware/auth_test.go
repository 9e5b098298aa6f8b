package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medhaven/hospital-api/internal/config"
	"github.com/medhaven/hospital-api/internal/model"
	"github.com/medhaven/hospital-api/internal/service/token"
)

func testTokenService() *token.Service {
	return token.NewService(config.JWTConfig{
		SigningKey:         "test-signing-key",
		Issuer:             "hospital-api",
		Audience:           "hospital-clients",
		AccessTokenMinutes: 60,
		ClockOffsetHours:   4,
	})
}

func authEngine(tokens *token.Service, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	m := NewAuthMiddleware(tokens)

	r := gin.New()
	chain := append([]gin.HandlerFunc{m.Authenticate()}, extra...)
	r.GET("/whoami", append(chain, func(c *gin.Context) {
		id, _ := PrincipalID(c)
		kind, _ := PrincipalKind(c)
		c.JSON(http.StatusOK, gin.H{"id": id.String(), "kind": string(kind)})
	})...)
	return r
}

func issueFor(t *testing.T, tokens *token.Service, kind model.PrincipalKind) (uuid.UUID, string) {
	t.Helper()

	p := &model.Principal{Kind: kind, Username: "u", Email: "u@example.com"}
	p.ID = uuid.New()
	signed, _, err := tokens.IssueAccessToken(p)
	require.NoError(t, err)
	return p.ID, signed
}

func TestAuthenticate(t *testing.T) {
	tokens := testTokenService()
	r := authEngine(tokens)

	id, signed := issueFor(t, tokens, model.KindDoctor)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), id.String())
	assert.Contains(t, w.Body.String(), "doctor")
}

func TestAuthenticateMissingHeader(t *testing.T) {
	r := authEngine(testTokenService())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateMalformedHeader(t *testing.T) {
	r := authEngine(testTokenService())

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateBadToken(t *testing.T) {
	r := authEngine(testTokenService())

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireKind(t *testing.T) {
	tokens := testTokenService()
	m := NewAuthMiddleware(tokens)
	r := authEngine(tokens, m.RequireKind(model.KindAdministrator))

	_, doctorToken := issueFor(t, tokens, model.KindDoctor)
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+doctorToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	_, adminToken := issueFor(t, tokens, model.KindAdministrator)
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
