package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/interviewprep/internal/auth"
)

const secret = "test-secret"

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := map[string]struct {
		required   bool
		header     string
		wantStatus int
		wantUser   string
	}{
		"valid token should resolve the user": {
			header:     "Bearer " + sign(t, secret, "u1", "quiz", time.Hour),
			wantStatus: http.StatusOK,
			wantUser:   "u1",
		},

		"missing token should be anonymous when optional": {
			wantStatus: http.StatusOK,
			wantUser:   "",
		},

		"missing token should be rejected when required": {
			required:   true,
			wantStatus: http.StatusUnauthorized,
		},

		"wrong secret should be rejected": {
			header:     "Bearer " + sign(t, "other", "u1", "quiz", time.Hour),
			wantStatus: http.StatusUnauthorized,
		},

		"expired token should be rejected": {
			header:     "Bearer " + sign(t, secret, "u1", "quiz", -time.Minute),
			wantStatus: http.StatusUnauthorized,
		},

		"wrong issuer should be rejected": {
			header:     "Bearer " + sign(t, secret, "u1", "elsewhere", time.Hour),
			wantStatus: http.StatusUnauthorized,
		},

		"token without subject should be rejected": {
			header:     "Bearer " + sign(t, secret, "", "quiz", time.Hour),
			wantStatus: http.StatusUnauthorized,
		},

		"lowercase scheme should be accepted": {
			header:     "bearer " + sign(t, secret, "u2", "quiz", time.Hour),
			wantStatus: http.StatusOK,
			wantUser:   "u2",
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			v := auth.NewVerifier(auth.Config{Secret: secret, Issuer: "quiz", Required: tt.required})

			r := gin.New()
			r.Use(v.Middleware())
			r.GET("/", func(c *gin.Context) {
				c.String(http.StatusOK, auth.UserID(c))
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantUser, w.Body.String())
			}
		})
	}
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "u1"})
	s, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = auth.NewVerifier(auth.Config{Secret: secret}).Verify(s)
	require.Error(t, err)
}

func sign(t *testing.T, key, subject, issuer string, ttl time.Duration) string {
	t.Helper()

	now := time.Now()
	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return s
}
