package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tracker/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseSession(t *testing.T) {
	token, err := IssueSession("carol", model.RoleViewer)
	require.NoError(t, err)

	claims, err := ParseSession(token)
	require.NoError(t, err)
	assert.Equal(t, "carol", claims.Username)
	assert.Equal(t, model.RoleViewer, claims.Role)
	assert.Equal(t, StageAuthenticated, claims.Stage)
	assert.Empty(t, claims.CodeDigest)
}

func TestIssuePendingCarriesDigest(t *testing.T) {
	token, err := IssuePending("dave", model.RoleAdmin, "digest123")
	require.NoError(t, err)

	claims, err := ParseSession(token)
	require.NoError(t, err)
	assert.Equal(t, Stage2FAPending, claims.Stage)
	assert.Equal(t, "digest123", claims.CodeDigest)
}

func TestParseSession_Expired(t *testing.T) {
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &SessionClaims{
		Username: "dave",
		Role:     model.RoleViewer,
		Stage:    Stage2FAPending,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	tokenString, err := expired.SignedString(GetSessionSecret())
	require.NoError(t, err)

	_, err = ParseSession(tokenString)
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestParseSession_BadSignature(t *testing.T) {
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, &SessionClaims{
		Username: "mallory",
		Role:     model.RoleAdmin,
		Stage:    StageAuthenticated,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	tokenString, err := forged.SignedString([]byte("some-other-secret"))
	require.NoError(t, err)

	_, err = ParseSession(tokenString)
	assert.Error(t, err)
}

func protectedRouter(gate gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", gate, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": c.GetString("username")})
	})
	return router
}

func doRequest(router *gin.Engine, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: cookie})
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequireLogin(t *testing.T) {
	router := protectedRouter(RequireLogin())

	// No cookie at all.
	assert.Equal(t, http.StatusUnauthorized, doRequest(router, "").Code)

	// A pending-2FA session must not pass the gate.
	pending, err := IssuePending("dave", model.RoleViewer, "digest")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, doRequest(router, pending).Code)

	token, err := IssueSession("dave", model.RoleViewer)
	require.NoError(t, err)
	resp := doRequest(router, token)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "dave")
}

func TestRequireRole(t *testing.T) {
	router := protectedRouter(RequireRole(model.RoleAdmin))

	viewer, err := IssueSession("carol", model.RoleViewer)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, doRequest(router, viewer).Code)

	admin, err := IssueSession("root", model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, doRequest(router, admin).Code)
}
