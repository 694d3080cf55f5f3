package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, issuer, subject, name string) string {
	t.Helper()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, ActorClaims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func runIdentity(t *testing.T, cfg IdentityConfig, headers map[string]string) (*httptest.ResponseRecorder, models.Actor) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var resolved models.Actor
	r := gin.New()
	r.Use(Identity(cfg))
	r.GET("/whoami", func(c *gin.Context) {
		resolved = ActorFromContext(c, "fallback")
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec, resolved
}

func TestIdentityFromBearerToken(t *testing.T) {
	cfg := IdentityConfig{Secret: testSecret, Issuer: "timetable", DefaultActor: "admin"}
	token := signToken(t, testSecret, "timetable", "u-1", "Claire Martin")

	rec, actor := runIdentity(t, cfg, map[string]string{"Authorization": "Bearer " + token, ActorHeader: "ignored"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.Actor{ID: "u-1", Name: "Claire Martin"}, actor)
}

func TestIdentityRejectsInvalidTokens(t *testing.T) {
	cfg := IdentityConfig{Secret: testSecret, Issuer: "timetable"}

	cases := map[string]string{
		"wrong secret": "Bearer " + signToken(t, "other", "timetable", "u-1", ""),
		"wrong issuer": "Bearer " + signToken(t, testSecret, "elsewhere", "u-1", ""),
		"no subject":   "Bearer " + signToken(t, testSecret, "timetable", "", ""),
		"bad scheme":   "Basic abc",
		"garbage":      "Bearer not-a-jwt",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			rec, _ := runIdentity(t, cfg, map[string]string{"Authorization": header})
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestIdentityTokenWithoutSecretIsRejected(t *testing.T) {
	token := signToken(t, testSecret, "", "u-1", "")
	rec, _ := runIdentity(t, IdentityConfig{}, map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIdentityFallsBackToHeaderThenDefault(t *testing.T) {
	cfg := IdentityConfig{Secret: testSecret, DefaultActor: "admin"}

	rec, actor := runIdentity(t, cfg, map[string]string{ActorHeader: " secretariat "})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "secretariat", actor.ID)

	rec, actor = runIdentity(t, cfg, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", actor.ID)
}

func TestActorFromContextFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, "system", ActorFromContext(c, "system").ID)
}
