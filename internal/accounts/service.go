package accounts

import (
	"context"
	"crypto/rand"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// RoleClient is the role assigned to accounts provisioned by conversion.
const RoleClient = "client"

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Provision creates a client account with a random temporary password and
// returns the plaintext password exactly once, for the welcome email.
// Returns ErrDuplicateEmail if the address is already registered.
func (s *Service) Provision(ctx context.Context, email, name string) (Account, string, error) {
	tempPassword, err := generatePassword()
	if err != nil {
		return Account{}, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, "", err
	}

	account, err := s.repo.Create(ctx, email, name, RoleClient, string(hash))
	if err != nil {
		return Account{}, "", err
	}

	return account, tempPassword, nil
}

// FindByEmail returns the account registered for the address, or ErrNotFound.
func (s *Service) FindByEmail(ctx context.Context, email string) (Account, error) {
	return s.repo.FindByEmail(ctx, email)
}

func generatePassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
