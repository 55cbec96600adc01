package auth

import (
	"context"
	"errors"

	"carbon-ledger/internal/domain"
	"carbon-ledger/internal/pkg/validation"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// LoginInput for login request body.
type LoginInput struct {
	Identity string `json:"identity"`
	Secret   string `json:"secret"`
}

// SessionOrg is the object stored in session and returned by /me.
type SessionOrg struct {
	Identity string `json:"identity"`
	Name     string `json:"name"`
}

// CredentialStore abstracts credential lookup (GORM in production, fakes in handler tests).
type CredentialStore interface {
	Create(ctx context.Context, identity, secret string) error
	Delete(ctx context.Context, identity string) error
	Verify(ctx context.Context, input LoginInput) (*domain.Credential, error)
}

// Service stores organization credentials as bcrypt hashes.
type Service struct {
	DB *gorm.DB
	// Cost is the bcrypt cost; zero means bcrypt.DefaultCost.
	Cost int
}

var _ CredentialStore = (*Service)(nil)

// Create hashes secret and stores it for identity.
func (s *Service) Create(ctx context.Context, identity, secret string) error {
	if identity == "" || secret == "" {
		return ErrIdentitySecretRequired
	}
	if !validation.IsValidIdentity(identity) {
		return ErrInvalidIdentity
	}
	if !validation.IsValidSecret(secret) {
		return ErrWeakSecret
	}
	cost := s.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return err
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Credential{}).Where("identity = ?", identity).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrCredentialExists
		}
		return tx.Create(&domain.Credential{Identity: identity, SecretHash: string(hash)}).Error
	})
}

// Delete removes identity's credential. Missing credentials are not an error.
func (s *Service) Delete(ctx context.Context, identity string) error {
	return s.DB.WithContext(ctx).Where("identity = ?", identity).Delete(&domain.Credential{}).Error
}

// Verify finds the credential by identity and checks the secret.
func (s *Service) Verify(ctx context.Context, input LoginInput) (*domain.Credential, error) {
	if input.Identity == "" || input.Secret == "" {
		return nil, ErrIdentitySecretRequired
	}
	var cred domain.Credential
	if err := s.DB.WithContext(ctx).Where("identity = ?", input.Identity).First(&cred).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidIdentity
		}
		return nil, err
	}
	if cred.SecretHash == "" {
		return nil, ErrInvalidIdentity
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.SecretHash), []byte(input.Secret)); err != nil {
		return nil, ErrIncorrectSecret
	}
	return &cred, nil
}

// VerifySession validates the session value and returns the shape for /me.
func VerifySession(sessionOrg interface{}) (*SessionOrg, error) {
	if sessionOrg == nil {
		return nil, ErrNotAuthenticated
	}
	m, ok := sessionOrg.(map[string]interface{})
	if !ok {
		return nil, ErrNotAuthenticated
	}
	identity, _ := m["identity"].(string)
	if identity == "" {
		return nil, ErrNotAuthenticated
	}
	name, _ := m["name"].(string)
	return &SessionOrg{Identity: identity, Name: name}, nil
}
