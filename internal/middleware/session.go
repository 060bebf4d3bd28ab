package middleware

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Session stages. A pending session exists between a successful
// password check and 2FA code verification; only an authenticated
// session passes the route gates.
const (
	StageAuthenticated = "auth"
	Stage2FAPending    = "2fa"
)

const (
	// SessionCookie is the single HttpOnly cookie carrying the signed
	// session token, for both the pending and authenticated stages.
	SessionCookie = "session"

	sessionTTL = 24 * time.Hour
	pendingTTL = 5 * time.Minute
)

// SessionClaims is the signed payload of a session cookie.
type SessionClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Stage    string `json:"stage"`
	// CodeDigest is the SHA-256 hex of the outstanding 2FA code. Only
	// present on pending sessions; the plaintext code never leaves the
	// server.
	CodeDigest string `json:"code_digest,omitempty"`
	jwt.RegisteredClaims
}

func GetSessionSecret() []byte {
	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("FATAL: SESSION_SECRET environment variable is required in release mode")
		}
		secret = "change-me-in-production" // Development fallback only — DO NOT use in production
	}
	return []byte(secret)
}

// IssueSession mints an authenticated session token.
func IssueSession(username, role string) (string, error) {
	return signClaims(&SessionClaims{
		Username: username,
		Role:     role,
		Stage:    StageAuthenticated,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(sessionTTL)),
		},
	})
}

// IssuePending mints an awaiting-2FA session token. The token expires
// after five minutes; an expired token forces the login to restart.
func IssuePending(username, role, codeDigest string) (string, error) {
	return signClaims(&SessionClaims{
		Username:   username,
		Role:       role,
		Stage:      Stage2FAPending,
		CodeDigest: codeDigest,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(pendingTTL)),
		},
	})
}

func signClaims(claims *SessionClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(GetSessionSecret())
}

// ParseSession validates a session token and returns its claims.
// Expiry surfaces as jwt.ErrTokenExpired in the wrapped error.
func ParseSession(tokenString string) (*SessionClaims, error) {
	var claims SessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return GetSessionSecret(), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return &claims, nil
}

// SetSessionCookie stores the session token as an HttpOnly cookie.
func SetSessionCookie(c *gin.Context, token string, maxAge time.Duration) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie(SessionCookie, token, int(maxAge.Seconds()), "/", "", secure, true)
}

// ClearSessionCookie removes the session cookie. Safe to call when no
// cookie is present.
func ClearSessionCookie(c *gin.Context) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie(SessionCookie, "", -1, "/", "", secure, true)
}
