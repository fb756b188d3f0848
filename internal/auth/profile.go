package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"farmledger/internal/core"
)

const (
	maxPhoneLen    = 20
	maxLocationLen = 200
)

// Profile returns the stored user behind userID.
func (s *Service) Profile(ctx context.Context, userID string) (core.User, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// UpdateProfile overwrites the profile fields p supplies. Name and email keep
// the registration rules; an email owned by another user is rejected.
func (s *Service) UpdateProfile(ctx context.Context, userID string, p core.ProfilePatch) (core.User, error) {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if len(name) < minNameLen {
			return core.User{}, core.NewValidationError("Name must be at least 3 characters long", "name")
		}
		p.Name = &name
	}
	if p.Email != nil {
		email := normalizeEmail(*p.Email)
		if !validEmail(email) {
			return core.User{}, core.NewValidationError("Please enter a valid email address", "email")
		}
		p.Email = &email
	}
	if p.Phone != nil && len(strings.TrimSpace(*p.Phone)) > maxPhoneLen {
		return core.User{}, core.NewValidationError("Phone number too long (max 20 characters)", "phone")
	}
	if p.Location != nil && len(strings.TrimSpace(*p.Location)) > maxLocationLen {
		return core.User{}, core.NewValidationError("Location too long (max 200 characters)", "location")
	}

	u, err := s.users.UpdateUser(ctx, userID, func(u core.User) (core.User, error) {
		if p.Name != nil {
			u.Name = *p.Name
		}
		if p.Email != nil {
			u.Email = *p.Email
		}
		if p.Phone != nil {
			u.Phone = strings.TrimSpace(*p.Phone)
		}
		if p.Location != nil {
			u.Location = strings.TrimSpace(*p.Location)
		}
		return u, nil
	})
	if errors.Is(err, core.ErrEmailTaken) {
		return core.User{}, core.NewValidationError("Email already in use", "email")
	}
	if err != nil {
		return core.User{}, fmt.Errorf("update user: %w", err)
	}

	slog.InfoContext(ctx, "Profile updated", "user_id", userID)
	return u, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	next = strings.TrimSpace(next)
	if current == "" {
		return core.NewValidationError("Current password is required", "currentPassword")
	}
	if len(next) < minPasswordLen {
		return core.NewValidationError("Password must be at least 6 characters long", "newPassword")
	}

	_, err := s.users.UpdateUser(ctx, userID, func(u core.User) (core.User, error) {
		if !passwordMatches(u, current) {
			return core.User{}, core.NewValidationError("Current password is incorrect", "currentPassword")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cost)
		if err != nil {
			return core.User{}, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = string(hash)
		return u, nil
	})
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	slog.InfoContext(ctx, "Password changed", "user_id", userID)
	return nil
}

// DeleteAccount removes the user and everything they own once password
// matches.
func (s *Service) DeleteAccount(ctx context.Context, userID, password string) error {
	if password == "" {
		return core.NewValidationError("Password is required", "password")
	}
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if !passwordMatches(u, password) {
		slog.WarnContext(ctx, "Account deletion rejected", "user_id", userID)
		return core.NewValidationError("Password is incorrect", "password")
	}
	if err := s.users.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	slog.InfoContext(ctx, "Account deleted", "user_id", userID)
	return nil
}

func passwordMatches(u core.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(strings.TrimSpace(password))) == nil
}
