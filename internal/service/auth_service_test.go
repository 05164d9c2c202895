package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/comusielak/exercise-status-api/internal/models"
	appErrors "github.com/comusielak/exercise-status-api/pkg/errors"
)

type userRepoStub struct {
	user      *models.User
	lastLogin time.Time
}

func (r *userRepoStub) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	if r.user == nil || r.user.Login != login {
		return nil, sql.ErrNoRows
	}
	return r.user, nil
}

func (r *userRepoStub) UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error {
	r.lastLogin = ts
	return nil
}

func newAuthServiceForTest(t *testing.T, active bool) (*AuthService, *userRepoStub) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &userRepoStub{user: &models.User{
		ID:           7,
		Login:        "tutor1",
		FullName:     "Tutor One",
		PasswordHash: string(hash),
		Active:       active,
	}}
	svc := NewAuthService(repo, nil, nil, AuthConfig{Secret: "secret", Expiration: time.Hour, Issuer: "test"})
	return svc, repo
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	svc, repo := newAuthServiceForTest(t, true)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Login: "tutor1", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(7), resp.User.ID)
	assert.False(t, repo.lastLogin.IsZero())

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "tutor1", claims.Login)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthServiceForTest(t, true)

	_, err := svc.Login(context.Background(), models.LoginRequest{Login: "tutor1", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidCredentials))
}

func TestAuthServiceLoginUnknownUser(t *testing.T) {
	svc, _ := newAuthServiceForTest(t, true)

	_, err := svc.Login(context.Background(), models.LoginRequest{Login: "nobody", Password: "x"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidCredentials))
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	svc, _ := newAuthServiceForTest(t, false)

	_, err := svc.Login(context.Background(), models.LoginRequest{Login: "tutor1", Password: "correct-horse"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInactiveAccount))
}

func TestAuthServiceLoginMissingFields(t *testing.T) {
	svc, _ := newAuthServiceForTest(t, true)

	_, err := svc.Login(context.Background(), models.LoginRequest{Login: "tutor1"})
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := newAuthServiceForTest(t, true)

	_, err := svc.ValidateToken("not-a-jwt")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized))
}
