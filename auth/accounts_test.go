package auth

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/krishkalaria12/recipe-serve/apperror"
	"github.com/krishkalaria12/recipe-serve/logging"
	"github.com/krishkalaria12/recipe-serve/models"
	"github.com/krishkalaria12/recipe-serve/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type recordingMailer struct {
	mu     sync.Mutex
	sent   map[string]string
	failed bool
}

func (m *recordingMailer) SendVerification(_ context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failed {
		return errors.New("smtp: connection refused")
	}
	m.sent[email] = token
	return nil
}

func newTestAccounts(t *testing.T) (*Accounts, *store.GormStore, *recordingMailer) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "accounts.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))

	st := store.NewGormStore(db)
	mailer := &recordingMailer{sent: map[string]string{}}
	tokens := newTestTokens(t, testSecret, time.Hour)
	return NewAccounts(st, tokens, mailer, logging.Discard()), st, mailer
}

func TestRegisterVerifyLogin(t *testing.T) {
	accounts, st, mailer := newTestAccounts(t)
	ctx := context.Background()

	user, err := accounts.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "s3cret!"})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.False(t, user.Verified)
	assert.NotEqual(t, "s3cret!", user.Password)

	verification := mailer.sent["ada@example.com"]
	require.Len(t, verification, 40)

	require.NoError(t, accounts.Verify(ctx, verification))
	stored, err := st.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.Verified)
	assert.Nil(t, stored.VerificationToken)

	assert.ErrorIs(t, accounts.Verify(ctx, verification), apperror.ErrValidation, "tokens are single use")

	tokenStr, loggedIn, err := accounts.Login(ctx, "ada@example.com", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	id, err := accounts.tokens.Parse(tokenStr)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
}

func TestRegisterRejectsBadInput(t *testing.T) {
	accounts, _, _ := newTestAccounts(t)
	ctx := context.Background()

	_, err := accounts.Register(ctx, RegisterInput{Email: "ada@example.com", Password: "pw"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = accounts.Register(ctx, RegisterInput{Name: "Ada", Email: "not-an-email", Password: "pw"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = accounts.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)
	_, err = accounts.Register(ctx, RegisterInput{Name: "Ada", Email: "ADA@example.com", Password: "pw"})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestRegisterStoresBareAddress(t *testing.T) {
	accounts, st, mailer := newTestAccounts(t)
	ctx := context.Background()

	user, err := accounts.Register(ctx, RegisterInput{Name: "Alice", Email: "Alice <alice@example.com>", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Contains(t, mailer.sent, "alice@example.com")

	stored, err := st.FindUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)

	_, _, err = accounts.Login(ctx, "alice@example.com", "pw")
	assert.NoError(t, err)
}

func TestRegisterSurvivesMailFailure(t *testing.T) {
	accounts, st, mailer := newTestAccounts(t)
	mailer.failed = true

	user, err := accounts.Register(context.Background(), RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)

	_, err = st.FindUserByID(context.Background(), user.ID)
	assert.NoError(t, err)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	accounts, _, _ := newTestAccounts(t)
	ctx := context.Background()

	_, err := accounts.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "right"})
	require.NoError(t, err)

	_, _, err = accounts.Login(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, _, err = accounts.Login(ctx, "nobody@example.com", "right")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestVerifyUnknownToken(t *testing.T) {
	accounts, _, _ := newTestAccounts(t)
	assert.ErrorIs(t, accounts.Verify(context.Background(), "deadbeef"), apperror.ErrValidation)
	assert.ErrorIs(t, accounts.Verify(context.Background(), " "), apperror.ErrValidation)
}
