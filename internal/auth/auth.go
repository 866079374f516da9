package auth

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/victornm/interviewprep/internal/errors"
)

const contextKeyClaims = "auth.claims"

var ErrTokenRequired = stderrors.New("authorization token required")

type Config struct {
	Secret string
	Issuer string

	// Required rejects requests without a token. Otherwise they proceed
	// anonymously with an empty user id.
	Required bool
}

// Claims are issued by the identity provider. The subject is the user id.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// Verifier checks HMAC signed bearer tokens. It never issues them.
type Verifier struct {
	secret   []byte
	issuer   string
	required bool
}

func NewVerifier(c Config) *Verifier {
	return &Verifier{
		secret:   []byte(c.Secret),
		issuer:   c.Issuer,
		required: c.Required,
	}
}

func (v *Verifier) Verify(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, stderrors.New("invalid token claims")
	}

	if claims.Subject == "" {
		return nil, stderrors.New("token has no subject")
	}

	return claims, nil
}

// Middleware resolves the caller from the Authorization header. A present
// but invalid token is always rejected.
func (v *Verifier) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearer(c)
		if tokenStr == "" {
			if v.required {
				abort(c, ErrTokenRequired)
				return
			}
			c.Next()
			return
		}

		claims, err := v.Verify(tokenStr)
		if err != nil {
			abort(c, err)
			return
		}

		c.Set(contextKeyClaims, claims)
		c.Next()
	}
}

// UserID returns the authenticated user id, or "" for anonymous callers.
func UserID(c *gin.Context) string {
	if claims := GetClaims(c); claims != nil {
		return claims.Subject
	}
	return ""
}

func GetClaims(c *gin.Context) *Claims {
	val, exists := c.Get(contextKeyClaims)
	if !exists {
		return nil
	}
	claims, _ := val.(*Claims)
	return claims
}

func bearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	parts := strings.SplitN(h, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func abort(c *gin.Context, err error) {
	e := errors.New(errors.CodeUnauthenticated, errors.WithCause(err))
	c.AbortWithStatusJSON(e.HTTPStatusCode(), e)
}
