package account

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

// Stored password format: hex(salt) + "$" + hex(pbkdf2-sha256 digest).
// A fresh salt is drawn on every call, so hashing the same password twice
// never yields the same stored value.
const (
	saltLen    = 16
	digestLen  = 32
	hashIters  = 120_000
	hashSep    = "$"
)

// HashPassword salts and hashes a plaintext password for storage.
func HashPassword(plain string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Wrap(err, "generating salt")
	}
	digest := pbkdf2.Key([]byte(plain), salt, hashIters, digestLen, sha256.New)
	return hex.EncodeToString(salt) + hashSep + hex.EncodeToString(digest), nil
}

// CheckPassword verifies a candidate password against a stored hash.
// Malformed stored values yield false, never an error; the digest comparison
// is constant-time.
func CheckPassword(candidate, stored string) bool {
	parts := strings.Split(stored, hashSep)
	if len(parts) != 2 {
		return false
	}
	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(parts[1])
	if err != nil {
		return false
	}
	got := pbkdf2.Key([]byte(candidate), salt, hashIters, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}

// character classes for generated passwords
var passwordClasses = []string{
	"abcdefghijkmnopqrstuvwxyz",
	"ABCDEFGHJKLMNPQRSTUVWXYZ",
	"23456789",
	"!@#$%^&*-_=+",
}

// GeneratePassword returns a cryptographically random password of the given
// length containing at least one character of each class. Lengths below 8 are
// raised to 8.
func GeneratePassword(length int) (string, error) {
	if length < 8 {
		length = 8
	}
	alphabet := strings.Join(passwordClasses, "")

	chars := make([]byte, 0, length)
	for _, class := range passwordClasses {
		c, err := randChar(class)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}
	for len(chars) < length {
		c, err := randChar(alphabet)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}

	// shuffle so the class characters do not sit at a fixed position
	for i := len(chars) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", errors.Wrap(err, "shuffling password")
		}
		j := n.Int64()
		chars[i], chars[j] = chars[j], chars[i]
	}
	return string(chars), nil
}

func randChar(alphabet string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		return 0, errors.Wrap(err, "generating password")
	}
	return alphabet[n.Int64()], nil
}
