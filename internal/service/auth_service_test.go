package service_test

import (
	"testing"
	"time"

	"bingohall/internal/model"
	"bingohall/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService(t *testing.T) {
	auth := service.NewAuthService("test-secret")
	user := model.Identity{ID: "u1", Name: "Alice"}

	token, err := auth.GenerateUserToken(user, time.Hour)
	require.NoError(t, err)

	claims, err := auth.ValidateUserToken(token)
	require.NoError(t, err)
	assert.Equal(t, user, claims.Identity())

	t.Run("WrongSecret", func(t *testing.T) {
		_, err := service.NewAuthService("other").ValidateUserToken(token)
		assert.ErrorIs(t, err, service.ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		claims := &model.UserClaims{
			UserID: user.ID,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		}
		expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = auth.ValidateUserToken(expired)
		assert.ErrorIs(t, err, service.ErrInvalidToken)
	})

	t.Run("MissingUser", func(t *testing.T) {
		anonymous, err := auth.GenerateUserToken(model.Identity{}, time.Hour)
		require.NoError(t, err)
		_, err = auth.ValidateUserToken(anonymous)
		assert.ErrorIs(t, err, service.ErrInvalidToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := auth.ValidateUserToken("not-a-token")
		assert.ErrorIs(t, err, service.ErrInvalidToken)
	})
}
