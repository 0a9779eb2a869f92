package account

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var nowFunc = time.Now // mockable

// SessionToken is the single-slot session credential persisted to local disk.
// Token is an opaque signed value reserved for future multi-session support;
// today only AccountID and Expiry are consulted.
type SessionToken struct {
	Token     string `json:"token"`
	AccountID string `json:"account_id"`
	Expiry    int64  `json:"expiry"` // unix seconds
}

func (t SessionToken) Expired(now time.Time) bool {
	return now.Unix() >= t.Expiry
}

// TokenStore reads and writes the session token file. One slot only: every
// save overwrites the previous token.
type TokenStore struct {
	path   string
	secret []byte
	ttl    time.Duration
}

func NewTokenStore(path string, secret []byte, ttl time.Duration) *TokenStore {
	return &TokenStore{path: path, secret: secret, ttl: ttl}
}

// Issue creates a fresh token for an account, expiring TTL from now.
func (s *TokenStore) Issue(accountID string) (SessionToken, error) {
	now := nowFunc()
	expiry := now.Add(s.ttl)

	claims := jwt.StandardClaims{
		Id:        uuid.NewString(),
		Subject:   accountID,
		IssuedAt:  now.Unix(),
		ExpiresAt: expiry.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return SessionToken{}, errors.Wrap(err, "signing session token")
	}
	return SessionToken{
		Token:     signed,
		AccountID: accountID,
		Expiry:    expiry.Unix(),
	}, nil
}

func (s *TokenStore) Save(tok SessionToken) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return errors.Wrap(err, "encoding session token")
	}
	if err = os.WriteFile(s.path, data, 0o600); err != nil {
		return errors.Wrap(err, "writing session token file")
	}
	return nil
}

// Load returns the stored token if one exists and has not expired. Missing,
// unreadable, corrupted and expired files are all treated as absent; anything
// unusable is removed on the way out.
func (s *TokenStore) Load() (SessionToken, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.Clear()
		}
		return SessionToken{}, false
	}
	var tok SessionToken
	if err = json.Unmarshal(data, &tok); err != nil || tok.AccountID == "" {
		s.Clear()
		return SessionToken{}, false
	}
	if tok.Expired(nowFunc()) {
		s.Clear()
		return SessionToken{}, false
	}
	return tok, true
}

// Clear removes the token file, best-effort.
func (s *TokenStore) Clear() {
	_ = os.Remove(s.path)
}
