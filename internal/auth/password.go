// Package auth: password hashing.
//
// bcrypt is deliberately slow, salts every hash and stores the salt and cost
// inside the output string:
//
//	$2a$10$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (2^10 rounds)
//	 version
//
// So the users table needs a single password_hash column.
package auth

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost matches BCRYPT_COST's default.
const DefaultCost = 10

// MaxPasswordBytes is bcrypt's input limit. Longer inputs would be silently
// truncated, so Hash rejects them instead.
const MaxPasswordBytes = 72

// ErrPasswordTooLong is returned by Hash for inputs over MaxPasswordBytes.
var ErrPasswordTooLong = fmt.Errorf("auth: password must be %d bytes or fewer", MaxPasswordBytes)

// ErrMismatch is returned by Verify when the password is wrong.
var ErrMismatch = errors.New("auth: invalid password")

// PasswordService hashes and verifies passwords. The cost is a field so
// tests can run at bcrypt.MinCost.
type PasswordService struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

// NewPasswordService creates a PasswordService with the given cost. Values
// outside bcrypt's range fall back to DefaultCost.
func NewPasswordService(cost int) *PasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &PasswordService{cost: cost}
}

// Hash returns the bcrypt hash of plaintext.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify returns nil when plaintext matches hash and ErrMismatch when it
// does not. An empty hash (a GitHub-only account) never matches, and
// neither does a password longer than MaxPasswordBytes: bcrypt would only
// compare its first 72 bytes.
func (p *PasswordService) Verify(hash, plaintext string) error {
	if hash == "" || len(plaintext) > MaxPasswordBytes {
		p.VerifyDummy(plaintext)
		return ErrMismatch
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatch
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}

// VerifyDummy burns the same bcrypt work as a real Verify. Login calls it
// when the username does not exist so response time does not reveal which
// usernames are registered.
func (p *PasswordService) VerifyDummy(plaintext string) {
	p.dummyOnce.Do(func() {
		p.dummy, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), p.cost)
	})
	_ = bcrypt.CompareHashAndPassword(p.dummy, []byte(plaintext))
}
