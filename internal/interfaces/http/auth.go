package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/garyjia/conference-requests/internal/application/access"
	"github.com/garyjia/conference-requests/internal/domain/entity"
)

const sessionKey = "session"

// Claims identifies the signed-in user
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// AuthConfig holds token verification settings
type AuthConfig struct {
	Secret string
	Issuer string
}

// Authenticator verifies bearer tokens and attaches a session to the request
type Authenticator struct {
	config   AuthConfig
	sessions *access.SessionCache
	logger   Logger
}

// NewAuthenticator creates a new Authenticator
func NewAuthenticator(config AuthConfig, sessions *access.SessionCache, logger Logger) *Authenticator {
	return &Authenticator{
		config:   config,
		sessions: sessions,
		logger:   logger,
	}
}

// Middleware rejects requests without a valid HS256 bearer token
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthenticated(c, "missing bearer token")
			return
		}

		user, err := a.Verify(raw)
		if err != nil {
			a.logger.Info("Rejected token", "error", err.Error(), "client_ip", c.ClientIP())
			abortUnauthenticated(c, "invalid token")
			return
		}

		c.Set(sessionKey, a.sessions.Get(user))
		c.Next()
	}
}

// RefreshSession replaces the caller's cached session so the next directory
// lookups are fresh. It must run after Middleware.
func (a *Authenticator) RefreshSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := sessionFrom(c).User()
		a.sessions.Invalidate(user.Email)
		c.Set(sessionKey, a.sessions.Get(user))
		a.logger.Info("Session refreshed", "user", user.Email)
		c.Next()
	}
}

// Verify parses a signed token into the user it identifies
func (a *Authenticator) Verify(raw string) (entity.User, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.config.Issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(a.config.Secret), nil
	}, opts...)
	if err != nil {
		return entity.User{}, err
	}

	email := strings.TrimSpace(claims.Email)
	if email == "" {
		return entity.User{}, errors.New("token has no email claim")
	}

	name := strings.TrimSpace(claims.Name)
	if name == "" {
		name = email
	}
	return entity.User{Email: email, DisplayName: name}, nil
}

// IssueToken signs a token for user, valid for ttl
func (a *Authenticator) IssueToken(user entity.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: user.Email,
		Name:  user.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			Issuer:    a.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.config.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abortUnauthenticated(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="conference-requests"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
		Success: false,
		Error:   msg,
	})
}

// sessionFrom returns the session attached by the auth middleware
func sessionFrom(c *gin.Context) *access.Session {
	s, _ := c.MustGet(sessionKey).(*access.Session)
	return s
}
