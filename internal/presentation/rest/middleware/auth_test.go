package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"credit-server/internal/infrastructure/config"
	otelinfra "credit-server/internal/infrastructure/observability/otel"
)

func signTestToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.JWTConfig{
		Secret:     "test-secret-key",
		Expiration: 24 * time.Hour,
		Issuer:     "credit-server",
	}
	logger := otelinfra.NewLogger(otel.Tracer("test"))
	now := time.Now()

	validClaims := jwt.MapClaims{
		"user_id": "user123",
		"iss":     "credit-server",
		"iat":     now.Unix(),
		"exp":     now.Add(time.Hour).Unix(),
	}

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
		wantUserID string
	}{
		{
			name:       "正常系: 有効なトークン",
			authHeader: "Bearer " + signTestToken(t, cfg.Secret, validClaims),
			wantStatus: http.StatusOK,
			wantUserID: "user123",
		},
		{
			name:       "異常系: ヘッダーなし",
			authHeader: "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "異常系: Bearer形式でない",
			authHeader: "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "異常系: 署名が一致しない",
			authHeader: "Bearer " + signTestToken(t, "wrong-secret", validClaims),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "異常系: 期限切れトークン",
			authHeader: "Bearer " + signTestToken(t, cfg.Secret, jwt.MapClaims{
				"user_id": "user123",
				"iat":     now.Add(-2 * time.Hour).Unix(),
				"exp":     now.Add(-time.Hour).Unix(),
			}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "異常系: user_idクレームがない",
			authHeader: "Bearer " + signTestToken(t, cfg.Secret, jwt.MapClaims{
				"iat": now.Unix(),
				"exp": now.Add(time.Hour).Unix(),
			}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "異常系: 壊れたトークン",
			authHeader: "Bearer not-a-token",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			var gotUserID string
			mw := AuthMiddleware(cfg, logger)
			handler := mw(func(c echo.Context) error {
				gotUserID, _ = c.Get("user_id").(string)
				return c.NoContent(http.StatusOK)
			})

			require.NoError(t, handler(c))
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantUserID != "" {
				assert.Equal(t, tt.wantUserID, gotUserID)
			}
		})
	}
}
