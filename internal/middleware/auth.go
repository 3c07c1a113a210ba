package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/medimaging-diagnosis-hub/internal/domain"
	"github.com/medimaging-diagnosis-hub/pkg/external"
)

// UserKeyKey is the gin context key holding the caller's user key.
const UserKeyKey = "user_key"

// UserKeys derives the key that selects a caller's cached views and
// preferences. Only a token whose signature verifies against the configured
// secret is keyed by its subject; any other token is keyed by its own hash.
type UserKeys struct {
	parser *jwt.Parser
	secret []byte
}

// NewUserKeys builds a resolver from the auth configuration.
func NewUserKeys(cfg domain.AuthConfig) *UserKeys {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	return &UserKeys{
		parser: jwt.NewParser(opts...),
		secret: []byte(cfg.JWTSecret),
	}
}

// FromToken returns "sub:<subject>" for a verified JWT and
// "token:<sha256>" for everything else.
func (k *UserKeys) FromToken(token string) string {
	if sub, ok := k.verifiedSubject(token); ok {
		return "sub:" + sub
	}
	sum := sha256.Sum256([]byte(token))
	return "token:" + hex.EncodeToString(sum[:])
}

func (k *UserKeys) verifiedSubject(token string) (string, bool) {
	if len(k.secret) == 0 {
		return "", false
	}
	claims := jwt.MapClaims{}
	parsed, err := k.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return k.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", false
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", false
	}
	return sub, true
}

// BearerAuth forwards the caller's bearer token to the remote backend and
// attaches the caller's user key to the request context.
func BearerAuth(keys *UserKeys) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.Next()
			return
		}

		userKey := keys.FromToken(token)
		ctx := external.WithBearerToken(c.Request.Context(), token)
		ctx = domain.WithUserKey(ctx, userKey)
		c.Request = c.Request.WithContext(ctx)
		c.Set(UserKeyKey, userKey)

		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
