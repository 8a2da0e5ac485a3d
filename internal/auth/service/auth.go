package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/marketbase/platform/internal/auth/models"
	"github.com/marketbase/platform/internal/auth/repo"
	"github.com/marketbase/platform/pkg/hash"
	"github.com/marketbase/platform/pkg/logging"
	"github.com/marketbase/platform/pkg/tokens"
)

var (
	ErrValidation        = errors.New("validation") // 400
	ErrNotFound          = errors.New("not found")  // 404
	ErrDuplicateIdentity = errors.New("duplicate identity")

	ErrUsernameTaken = fmt.Errorf("%w: username is already taken", ErrDuplicateIdentity)
	ErrEmailInUse    = fmt.Errorf("%w: email is already in use", ErrDuplicateIdentity)

	// ErrInvalidCredentials is returned for an unknown username and for a
	// wrong password alike, so callers cannot tell which one it was.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// UserStore is the credential persistence contract. The gorm repo implements
// it in production; tests may substitute a fake.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByID(ctx context.Context, id uint) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

type AuthService struct {
	Store  UserStore
	Tokens *tokens.Codec
}

// AuthResult carries a freshly issued token plus the identity summary. The
// password hash never leaves the store layer in responses.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      models.User
}

func validateRegistration(username, email, password string) error {
	if len(username) < 3 || len(username) > 50 {
		return fmt.Errorf("%w: username must be 3-50 characters", ErrValidation)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: invalid email", ErrValidation)
	}
	if len(password) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	}
	return nil
}

func (s *AuthService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register", "username", username)

	if err := validateRegistration(username, email, password); err != nil {
		return nil, err
	}

	if taken, err := s.Store.UsernameExists(ctx, username); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrUsernameTaken
	}
	if used, err := s.Store.EmailExists(ctx, email); err != nil {
		return nil, err
	} else if used {
		return nil, ErrEmailInUse
	}

	pwHash, err := hash.Password(password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash password", "error", err)
		return nil, err
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
	}
	if err := s.Store.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			// Lost a race against a concurrent registration; the unique index
			// decided. Re-check to report the right field.
			if taken, checkErr := s.Store.UsernameExists(ctx, username); checkErr == nil && taken {
				return nil, ErrUsernameTaken
			}
			return nil, ErrEmailInUse
		}
		l.Error("register_error", "error", err)
		return nil, err
	}

	token, exp, err := s.Tokens.Issue(user.Username, user.ID)
	if err != nil {
		l.Error("register_error", "reason", "cannot issue token", "error", err)
		return nil, err
	}

	l.Info("register_success", "user_id", user.ID)
	return &AuthResult{Token: token, ExpiresAt: exp, User: user}, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	user, err := s.Store.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("login_failed", "reason", "credentials")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "reason", "credentials")
		return nil, ErrInvalidCredentials
	}

	token, exp, err := s.Tokens.Issue(user.Username, user.ID)
	if err != nil {
		l.Error("login_error", "reason", "cannot issue token", "error", err)
		return nil, err
	}

	l.Info("login_success", "user_id", user.ID)
	return &AuthResult{Token: token, ExpiresAt: exp, User: *user}, nil
}

func (s *AuthService) UserByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.Store.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.Store.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, username)
		}
		return nil, err
	}
	return user, nil
}
