package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"credit-server/internal/domain/balance"
	"credit-server/internal/infrastructure/config"
	otelinfra "credit-server/internal/infrastructure/observability/otel"
)

func newTestAuthService(t *testing.T) (*AuthApplicationService, *config.JWTConfig) {
	t.Helper()

	jwtConfig := &config.JWTConfig{
		Secret:     "test-secret-key",
		Expiration: 24 * time.Hour,
		Issuer:     "credit-server",
	}
	logger := otelinfra.NewLogger(otel.Tracer("test"))
	return NewAuthApplicationService(jwtConfig, logger), jwtConfig
}

func TestAuthApplicationService_GenerateToken(t *testing.T) {
	t.Run("正常系: トークンを生成して検証できる", func(t *testing.T) {
		svc, jwtConfig := newTestAuthService(t)

		resp, err := svc.GenerateToken(context.Background(), &GenerateTokenRequest{UserID: "user123"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, int64(86400), resp.ExpiresIn)
		assert.Equal(t, "Bearer", resp.TokenType)

		// 発行したトークンをパースしてクレームを確認
		token, err := jwt.Parse(resp.Token, func(token *jwt.Token) (interface{}, error) {
			return []byte(jwtConfig.Secret), nil
		})
		require.NoError(t, err)
		require.True(t, token.Valid)

		claims, ok := token.Claims.(jwt.MapClaims)
		require.True(t, ok)
		assert.Equal(t, "user123", claims["user_id"])
		assert.Equal(t, "credit-server", claims["iss"])

		exp, ok := claims["exp"].(float64)
		require.True(t, ok)
		iat, ok := claims["iat"].(float64)
		require.True(t, ok)
		assert.Equal(t, float64(86400), exp-iat)
	})

	t.Run("異常系: 不正なユーザーID", func(t *testing.T) {
		svc, _ := newTestAuthService(t)

		_, err := svc.GenerateToken(context.Background(), &GenerateTokenRequest{UserID: "bad user"})
		assert.ErrorIs(t, err, balance.ErrInvalidUserID)
	})

	t.Run("異常系: 空のユーザーID", func(t *testing.T) {
		svc, _ := newTestAuthService(t)

		_, err := svc.GenerateToken(context.Background(), &GenerateTokenRequest{UserID: ""})
		assert.ErrorIs(t, err, balance.ErrInvalidUserID)
	})

	t.Run("正常系: 別の鍵では検証に失敗する", func(t *testing.T) {
		svc, _ := newTestAuthService(t)

		resp, err := svc.GenerateToken(context.Background(), &GenerateTokenRequest{UserID: "user123"})
		require.NoError(t, err)

		_, err = jwt.Parse(resp.Token, func(token *jwt.Token) (interface{}, error) {
			return []byte("wrong-secret"), nil
		})
		assert.Error(t, err)
	})
}
