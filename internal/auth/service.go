package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/fixpoint-app/fixpoint/internal/authz"
	"github.com/fixpoint-app/fixpoint/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo      Repository
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewService constructs a new Service.
func NewService(repo Repository, jwtSecret string, tokenTTL time.Duration) *Service {
	return &Service{repo: repo, jwtSecret: []byte(jwtSecret), tokenTTL: tokenTTL}
}

// Authenticate validates email/password credentials. Unknown accounts,
// inactive accounts, and wrong passwords all return the same error.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// IdentityAuthenticator adapts the service to the authorization layer's
// collaborator interface; the maintenance gate needs only the identity.
type IdentityAuthenticator struct {
	Service *Service
}

// Authenticate implements authz.Authenticator.
func (a IdentityAuthenticator) Authenticate(ctx context.Context, email, password string) (*authz.Identity, error) {
	user, err := a.Service.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return user.Identity(), nil
}

// Register provisions a company with its first admin account.
func (s *Service) Register(ctx context.Context, companyName, name, email, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.repo.CreateAccount(ctx, companyName, User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         authz.RoleAdmin,
	})
}

// IssueToken signs an access token for the user.
func (s *Service) IssueToken(u *User) (string, error) {
	return IssueAccessToken(s.jwtSecret, u, s.tokenTTL)
}

// VerifyToken parses a bearer token into an identity.
func (s *Service) VerifyToken(token string) (*authz.Identity, error) {
	return ParseAccessToken(token, s.jwtSecret)
}

// LoadUser fetches a user by id with auxiliary roles, for session logins.
func (s *Service) LoadUser(ctx context.Context, id int64) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
