package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/event-board/internal/apperror"
	"github.com/sakif/event-board/internal/auth"
	"github.com/sakif/event-board/internal/model"
	"github.com/sakif/event-board/internal/repository"
)

// RegisterInput is the registration form. It deliberately has no roles field:
// roles come from configuration, whatever the client submits.
type RegisterInput struct {
	Email    string `form:"email" validate:"required,email,max=180"`
	Password string `form:"password" validate:"required,max=72"`
}

// invalidCredentials is the single answer for a failed login, whether the
// email is unknown or the password is wrong.
func invalidCredentials() error {
	return apperror.ValidationFailed("credentials", "Invalid credentials.")
}

// UserService handles registration and sign-in.
type UserService struct {
	users        repository.UserRepository
	passwords    *auth.PasswordService
	defaultRoles []string
	logger       *slog.Logger
}

// NewUserService creates a UserService. defaultRoles is the role set every new
// account receives; empty means model.DefaultRoles.
func NewUserService(users repository.UserRepository, passwords *auth.PasswordService, defaultRoles []string, logger *slog.Logger) *UserService {
	if len(defaultRoles) == 0 {
		defaultRoles = model.DefaultRoles()
	}
	return &UserService{
		users:        users,
		passwords:    passwords,
		defaultRoles: defaultRoles,
		logger:       logger,
	}
}

// Register creates an account from the registration form.
//
// Errors:
//   - apperror.ErrValidation: malformed email, blank or too long password, or
//     an email that is already registered (reported on the "email" field)
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	// max counts characters; bcrypt's limit is in bytes
	if len(in.Password) > auth.MaxPasswordBytes {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("This value is too long. It should have %d bytes or less.", auth.MaxPasswordBytes))
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &model.User{Email: in.Email, Password: hash}
	user.SetRoles(s.defaultRoles)

	if err := s.create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", slog.Int64("id", user.ID), slog.String("email", user.Email))
	return user, nil
}

// Authenticate checks an email and password pair and returns the account.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" || len(password) > auth.MaxPasswordBytes {
		return nil, invalidCredentials()
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, invalidCredentials()
		}
		return nil, fmt.Errorf("loading user by email: %w", err)
	}

	if err := s.passwords.Verify(user.Password, password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			s.logger.Debug("wrong password", slog.Int64("id", user.ID))
			return nil, invalidCredentials()
		}
		return nil, fmt.Errorf("verifying password: %w", err)
	}

	return user, nil
}

// LoginGitHub finds the account matching the GitHub profile's email, creating
// one on first sign-in. The created account gets the default roles and a
// random password nobody knows, so it can only sign in through GitHub until
// the owner registers a password some other way.
func (s *UserService) LoginGitHub(ctx context.Context, gh *auth.GitHubUser) (*model.User, error) {
	if gh == nil || normalizeEmail(gh.Email) == "" {
		return nil, apperror.ValidationFailed("email", "GitHub did not provide an email address.")
	}
	email := normalizeEmail(gh.Email)

	user, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("loading user by email: %w", err)
	}

	secret, err := randomSecret()
	if err != nil {
		return nil, err
	}
	hash, err := s.passwords.Hash(secret)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user = &model.User{Email: email, Password: hash}
	user.SetRoles(s.defaultRoles)

	if err := s.users.CreateUser(ctx, user); err != nil {
		// a concurrent callback for the same account won the insert
		if errors.Is(err, apperror.ErrConflict) {
			return s.users.GetUserByEmail(ctx, email)
		}
		return nil, fmt.Errorf("creating GitHub user: %w", err)
	}

	s.logger.Info("user registered via GitHub",
		slog.Int64("id", user.ID),
		slog.String("email", user.Email),
		slog.String("githubLogin", gh.Login),
	)
	return user, nil
}

// Principal builds the session principal for user.
func (s *UserService) Principal(user *model.User) auth.Principal {
	return auth.Principal{UserID: user.ID, Email: user.Email}
}

func (s *UserService) create(ctx context.Context, user *model.User) error {
	err := s.users.CreateUser(ctx, user)
	if err == nil {
		return nil
	}
	if errors.Is(err, apperror.ErrConflict) {
		return apperror.ValidationFailed("email", "There is already an account with this email.")
	}
	s.logger.Error("failed to create user", slog.String("email", user.Email), slog.String("error", err.Error()))
	return fmt.Errorf("creating user: %w", err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}
	return hex.EncodeToString(b), nil
}
