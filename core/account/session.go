package account

import (
	"context"
	"fmt"
	"net/mail"
	"sync"

	"github.com/pkg/errors"

	"github.com/zombieTDV/studentms/core"
)

// user-facing messages, kept stable for the GUI layer
const (
	msgLoginOK             = "Login successful"
	msgInvalidCredentials  = "Invalid credentials"
	msgCredentialsRequired = "Username and password required"
	msgEmailRequired       = "Email is required"
	msgEmailNotFound       = "Email not found in system"
	notePasswordNotSent    = "Password was updated but email failed to send"
)

// LoginResult is what the GUI layer receives from Login/Resume.
type LoginResult struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	AutoLogin bool      `json:"auto_login"`
	User      Principal `json:"user,omitempty"`
}

// RecoverResult reports a password recovery attempt. Note is set when the
// password was changed but the notification could not be delivered.
type RecoverResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Note    string `json:"note,omitempty"`
}

// SessionManager owns the process-wide "current principal": Anonymous until a
// login succeeds, then Authenticated until logout. At most one session at a
// time (desktop model).
type SessionManager struct {
	svc     *Service
	tokens  *TokenStore
	mailSvc core.EmailService
	logger  core.Logger

	mu      sync.Mutex
	current Principal
}

func NewSessionManager(svc *Service, tokens *TokenStore, mailSvc core.EmailService, logger core.Logger) *SessionManager {
	return &SessionManager{
		svc:     svc,
		tokens:  tokens,
		mailSvc: mailSvc,
		logger:  logger,
	}
}

// Login authenticates a username/password pair. With both credentials empty
// it falls back to resuming the persisted session token. Token persistence is
// best-effort: a failed save never fails a successful login.
func (m *SessionManager) Login(ctx context.Context, username, password string) LoginResult {
	if username == "" && password == "" {
		return m.Resume(ctx)
	}
	if username == "" || password == "" {
		return LoginResult{Message: msgCredentialsRequired}
	}

	p, err := m.svc.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Cause(err) == ErrInvalidCredentials {
			return LoginResult{Message: msgInvalidCredentials}
		}
		m.logger.Error(fmt.Sprintf("session: authenticating %q: %v", username, err), err)
		return LoginResult{Message: err.Error()}
	}

	m.setCurrent(p)

	tok, err := m.tokens.Issue(p.Base().ID)
	if err == nil {
		err = m.tokens.Save(tok)
	}
	if err != nil {
		m.logger.Warn(fmt.Sprintf("session: persisting token: %v", err), err)
	}

	return LoginResult{Success: true, Message: msgLoginOK, User: p}
}

// Resume restores the session from the token file. A token whose account no
// longer exists is stale and gets deleted; expired or corrupted tokens were
// already discarded by the store.
func (m *SessionManager) Resume(ctx context.Context) LoginResult {
	tok, ok := m.tokens.Load()
	if !ok {
		return LoginResult{Message: msgCredentialsRequired}
	}

	p, err := m.svc.GetByID(ctx, tok.AccountID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			m.tokens.Clear()
			return LoginResult{Message: msgCredentialsRequired}
		}
		m.logger.Error(fmt.Sprintf("session: resolving token account: %v", err), err)
		return LoginResult{Message: err.Error()}
	}

	m.setCurrent(p)
	return LoginResult{Success: true, Message: msgLoginOK, AutoLogin: true, User: p}
}

// Logout clears the current principal and removes the token file,
// best-effort.
func (m *SessionManager) Logout() {
	m.setCurrent(nil)
	m.tokens.Clear()
}

func (m *SessionManager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil
}

// Current returns the authenticated principal, or nil when anonymous.
func (m *SessionManager) Current() Principal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *SessionManager) setCurrent(p Principal) {
	m.mu.Lock()
	m.current = p
	m.mu.Unlock()
}

// RecoverPassword generates a new random password for the account registered
// under email, persists its hash and mails the plaintext to the user. The
// password change is deliberately not rolled back when delivery fails; the
// result carries a note instead so the operator can react.
func (m *SessionManager) RecoverPassword(ctx context.Context, email string) RecoverResult {
	email = core.CleanString(email, true /* lower */)
	if email == "" {
		return RecoverResult{Message: msgEmailRequired}
	}

	p, err := m.svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return RecoverResult{Message: msgEmailNotFound}
		}
		m.logger.Error(fmt.Sprintf("session: recovering password for %q: %v", email, err), err)
		return RecoverResult{Message: err.Error()}
	}
	base := p.Base()

	length := 12
	if core.Conf != nil && core.Conf.GenPasswordLen > 0 {
		length = core.Conf.GenPasswordLen
	}
	newPassword, err := GeneratePassword(length)
	if err != nil {
		return RecoverResult{Message: fmt.Sprintf("Password recovery failed: %v", err)}
	}
	if err = m.svc.UpdatePassword(ctx, base.ID, newPassword); err != nil {
		m.logger.Error(fmt.Sprintf("session: updating recovered password: %v", err), err)
		return RecoverResult{Message: fmt.Sprintf("Password recovery failed: %v", err)}
	}

	msg := &core.EmailMessage{
		To:      []mail.Address{{Name: base.Username, Address: base.Email}},
		Subject: "New Password",
		Body: fmt.Sprintf(
			"Hello %s,\n\nYour password reset request has been processed.\nYour new password is: %s\n\nPlease login and do not share this password with anyone.\n",
			base.Username, newPassword,
		),
	}
	if err = m.mailSvc.Send(msg); err != nil {
		m.logger.Error(fmt.Sprintf("session: sending recovery mail: %v", err), err)
		return RecoverResult{Message: err.Error(), Note: notePasswordNotSent}
	}

	return RecoverResult{Success: true, Message: fmt.Sprintf("New password has been sent to %s", email)}
}
