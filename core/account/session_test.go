package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zombieTDV/studentms/core"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type fakeMailService struct {
	sent    []core.EmailMessage
	sendErr error
}

var _ core.EmailService = (*fakeMailService)(nil)

func (svc *fakeMailService) Send(msg *core.EmailMessage) error {
	if svc.sendErr != nil {
		return svc.sendErr
	}
	svc.sent = append(svc.sent, *msg)
	return nil
}

func newTestSession(t *testing.T) (*SessionManager, *Service, *fakeMailService) {
	t.Helper()
	svc := NewService(newFakeRepo())
	mailSvc := &fakeMailService{}
	tokens := newTestTokenStore(t, time.Hour)
	return NewSessionManager(svc, tokens, mailSvc, nopLogger{}), svc, mailSvc
}

func TestSessionManager_Login(t *testing.T) {
	ctx := context.Background()
	m, svc, _ := newTestSession(t)
	newTestStudent(t, svc, "vana", "vana@test.edu.vn", "s3cr3t-pwd")

	tests := []struct {
		name     string
		username string
		password string
		wantMsg  string
		wantOK   bool
	}{
		{name: "ok", username: "vana", password: "s3cr3t-pwd", wantMsg: "Login successful", wantOK: true},
		{name: "wrong password", username: "vana", password: "wrong", wantMsg: "Invalid credentials"},
		{name: "unknown username", username: "nobody", password: "s3cr3t-pwd", wantMsg: "Invalid credentials"},
		{name: "missing password", username: "vana", wantMsg: "Username and password required"},
		{name: "missing username", password: "s3cr3t-pwd", wantMsg: "Username and password required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m.Logout()
			res := m.Login(ctx, tt.username, tt.password)
			assert.Equal(t, tt.wantOK, res.Success)
			assert.Equal(t, tt.wantMsg, res.Message)
			assert.Equal(t, tt.wantOK, m.IsAuthenticated())
			if tt.wantOK {
				require.NotNil(t, res.User)
				assert.False(t, res.AutoLogin)
			}
		})
	}
}

func TestSessionManager_Login_tokenSaveFailureNonFatal(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo())
	newTestStudent(t, svc, "vana", "vana@test.edu.vn", "s3cr3t-pwd")

	// point the store at a directory so the token file can never be written
	tokens := NewTokenStore(t.TempDir(), []byte("secret"), time.Hour)
	m := NewSessionManager(svc, tokens, &fakeMailService{}, nopLogger{})

	res := m.Login(ctx, "vana", "s3cr3t-pwd")
	assert.True(t, res.Success)
	assert.Equal(t, "Login successful", res.Message)
	assert.True(t, m.IsAuthenticated())

	// no token was persisted
	_, ok := tokens.Load()
	assert.False(t, ok)
}

func TestSessionManager_Resume(t *testing.T) {
	ctx := context.Background()
	m, svc, _ := newTestSession(t)
	st := newTestStudent(t, svc, "vana", "vana@test.edu.vn", "s3cr3t-pwd")

	// login persists a token; a fresh manager over the same store resumes it
	res := m.Login(ctx, "vana", "s3cr3t-pwd")
	require.True(t, res.Success)

	m2 := NewSessionManager(svc, m.tokens, m.mailSvc, nopLogger{})
	res = m2.Login(ctx, "", "")
	assert.True(t, res.Success)
	assert.True(t, res.AutoLogin)
	assert.Equal(t, st.ID, res.User.Base().ID)

	// a token whose account is gone is stale: cleared, login required
	_, err := svc.Delete(ctx, st.ID)
	require.NoError(t, err)
	m3 := NewSessionManager(svc, m.tokens, m.mailSvc, nopLogger{})
	res = m3.Resume(ctx)
	assert.False(t, res.Success)
	assert.Equal(t, "Username and password required", res.Message)
	_, ok := m.tokens.Load()
	assert.False(t, ok)
}

func TestSessionManager_Logout(t *testing.T) {
	ctx := context.Background()
	m, svc, _ := newTestSession(t)
	newTestStudent(t, svc, "vana", "vana@test.edu.vn", "s3cr3t-pwd")

	require.True(t, m.Login(ctx, "vana", "s3cr3t-pwd").Success)
	require.True(t, m.IsAuthenticated())

	m.Logout()
	assert.False(t, m.IsAuthenticated())
	assert.Nil(t, m.Current())
	_, ok := m.tokens.Load()
	assert.False(t, ok)
}

func TestSessionManager_RecoverPassword(t *testing.T) {
	ctx := context.Background()
	m, svc, mailSvc := newTestSession(t)
	newTestStudent(t, svc, "vana", "vana@test.edu.vn", "s3cr3t-pwd")

	t.Run("unknown email", func(t *testing.T) {
		res := m.RecoverPassword(ctx, "nobody@test.edu.vn")
		assert.False(t, res.Success)
		assert.Equal(t, "Email not found in system", res.Message)
		assert.Empty(t, mailSvc.sent)
	})

	t.Run("empty email", func(t *testing.T) {
		res := m.RecoverPassword(ctx, "")
		assert.False(t, res.Success)
		assert.Equal(t, "Email is required", res.Message)
	})

	t.Run("ok", func(t *testing.T) {
		res := m.RecoverPassword(ctx, "vana@test.edu.vn")
		assert.True(t, res.Success)
		assert.Empty(t, res.Note)
		require.Len(t, mailSvc.sent, 1)
		assert.Equal(t, "vana@test.edu.vn", mailSvc.sent[0].To[0].Address)
		assert.Contains(t, mailSvc.sent[0].Body, "Your new password is")

		// the old password no longer works
		_, err := svc.Authenticate(ctx, "vana", "s3cr3t-pwd")
		assert.Equal(t, ErrInvalidCredentials, err)
	})

	t.Run("mail failure is reported, password stays changed", func(t *testing.T) {
		hashBefore, err := svc.repo.GetByUsername(ctx, "vana")
		require.NoError(t, err)

		mailSvc.sendErr = errors.New("smtp down")
		res := m.RecoverPassword(ctx, "vana@test.edu.vn")
		mailSvc.sendErr = nil

		assert.False(t, res.Success)
		assert.Equal(t, "Password was updated but email failed to send", res.Note)

		hashAfter, err := svc.repo.GetByUsername(ctx, "vana")
		require.NoError(t, err)
		assert.NotEqual(t, hashBefore.PasswordHash, hashAfter.PasswordHash)
	})
}
