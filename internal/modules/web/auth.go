package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"trade_journal/internal/models"
	"trade_journal/internal/modules/config"
	"trade_journal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const ctxUserID = "user_id"

var errNoIdentity = errors.New("no identity")

// UserLookup resolves the token subject to an existing user.
type UserLookup interface {
	Get(ctx context.Context, id int64) (*models.User, error)
}

type Auth struct {
	secret     []byte
	cookieName string
	devUserID  int64
	users      UserLookup
}

func NewAuth(cfg *config.Config, users UserLookup) (*Auth, error) {
	if cfg.Auth.JWTSecret == "" && cfg.Auth.DevUserID <= 0 {
		return nil, fmt.Errorf("auth: set auth.jwt_secret or auth.dev_user_id")
	}
	if cfg.Auth.JWTSecret == "" {
		logger.Warn("[AUTH] jwt secret is empty, every request acts as user %d", cfg.Auth.DevUserID)
	}
	return &Auth{
		secret:     []byte(cfg.Auth.JWTSecret),
		cookieName: cfg.Auth.CookieName,
		devUserID:  cfg.Auth.DevUserID,
		users:      users,
	}, nil
}

// IssueToken signs an HS256 token with sub = user id. A zero ttl never expires.
func IssueToken(secret string, userID int64, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("auth: empty jwt secret")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:  strconv.FormatInt(userID, 10),
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (a *Auth) parse(token string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("bad subject %q", claims.Subject)
	}
	return id, nil
}

func (a *Auth) tokenOf(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if a.cookieName != "" {
		if c, err := r.Cookie(a.cookieName); err == nil {
			return c.Value
		}
	}
	return ""
}

func (a *Auth) identify(r *http.Request) (int64, error) {
	if len(a.secret) == 0 {
		return a.devUserID, nil
	}
	token := a.tokenOf(r)
	if token == "" {
		return 0, errNoIdentity
	}
	return a.parse(token)
}

// Middleware кладёт id пользователя в контекст или отвечает 401.
func (a *Auth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := a.identify(c.Request)
		if err == nil {
			_, err = a.users.Get(c.Request.Context(), userID)
		}
		if err != nil {
			if !errors.Is(err, errNoIdentity) {
				logger.Warn("[AUTH] rejected %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
			}
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set(ctxUserID, userID)
		c.Next()
	}
}

func userID(c *gin.Context) int64 {
	return c.GetInt64(ctxUserID)
}
