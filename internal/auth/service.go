package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"farmledger/internal/core"
	"farmledger/internal/storage"
)

const (
	minNameLen     = 3
	minPasswordLen = 6
)

// Service registers users, logs them in and manages their profile.
type Service struct {
	users  storage.UserStore
	tokens *Tokens
	cost   int
}

// Option configures a Service.
type Option func(*Service)

// WithHashCost sets the bcrypt cost used for new passwords.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

func NewService(users storage.UserStore, tokens *Tokens, opts ...Option) *Service {
	s := &Service{users: users, tokens: tokens, cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Session is what a successful register or login returns.
type Session struct {
	Token string
	User  core.User
}

func (s *Service) Register(ctx context.Context, name, email, password string) (Session, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	password = strings.TrimSpace(password)

	switch {
	case name == "":
		return Session{}, core.NewValidationError("Name is required", "name")
	case len(name) < minNameLen:
		return Session{}, core.NewValidationError("Name must be at least 3 characters long", "name")
	case !validEmail(email):
		return Session{}, core.NewValidationError("Please enter a valid email address", "email")
	case len(password) < minPasswordLen:
		return Session{}, core.NewValidationError("Password must be at least 6 characters long", "password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	u := core.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, core.ErrEmailTaken) {
			return Session{}, core.NewValidationError("User already exists", "email")
		}
		return Session{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "user_id", u.ID)
	return s.session(u)
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	password = strings.TrimSpace(password)
	if !validEmail(email) {
		return Session{}, core.NewValidationError("Please enter a valid email address", "email")
	}
	if password == "" {
		return Session{}, core.NewValidationError("Password is required", "password")
	}

	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return Session{}, &core.AuthError{Message: "Invalid email or password"}
	}
	if err != nil {
		return Session{}, fmt.Errorf("get user: %w", err)
	}
	if !passwordMatches(u, password) {
		slog.WarnContext(ctx, "Login rejected", "user_id", u.ID)
		return Session{}, &core.AuthError{Message: "Invalid email or password"}
	}
	return s.session(u)
}

func (s *Service) session(u core.User) (Session, error) {
	token, err := s.tokens.Issue(u)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: u}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email, "@")
}
