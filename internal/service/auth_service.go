package service

import (
	"context"
	"time"

	"inkpost/internal/model"
	appErr "inkpost/internal/pkg/errors"
	"inkpost/internal/pkg/jwt"
	"inkpost/internal/pkg/password"
	"inkpost/internal/pkg/timeutil"
	"inkpost/internal/repo"
)

type AuthService struct {
	users     *repo.UserRepo
	verify    *OTPService
	jwtSecret []byte
	jwtTTL    time.Duration
}

func NewAuthService(users *repo.UserRepo, verify *OTPService, secret []byte, ttl time.Duration) *AuthService {
	return &AuthService{users: users, verify: verify, jwtSecret: secret, jwtTTL: ttl}
}

func (s *AuthService) TokenTTL() time.Duration {
	return s.jwtTTL
}

// Register requires a live verification flag for the email and consumes it.
// No session is issued; the user logs in explicitly afterwards.
func (s *AuthService) Register(ctx context.Context, name, email, plainPassword string) (*model.User, error) {
	email = normalizeEmail(email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, appErr.ErrConflict
	} else if !appErr.IsNotFound(err) {
		return nil, err
	}
	verified, err := s.verify.IsVerified(ctx, email)
	if err != nil {
		return nil, err
	}
	if !verified {
		return nil, appErr.ErrEmailNotVerified
	}
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return nil, err
	}
	now := timeutil.NowUnix()
	user := &model.User{
		ID:           newID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Ctime:        now,
		Mtime:        now,
	}
	// Two concurrent registrations may both see the flag; the unique email
	// index rejects the loser with ErrConflict.
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	if err := s.verify.ConsumeVerification(ctx, email); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, plainPassword string) (*model.User, string, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, "", err
	}
	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		return nil, "", appErr.ErrInvalidCredentials
	}
	token, err := jwt.GenerateToken(user.ID, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// ResetPassword is re-gated by a fresh verification flag, same as Register.
func (s *AuthService) ResetPassword(ctx context.Context, email, newPassword string) error {
	email = normalizeEmail(email)
	verified, err := s.verify.IsVerified(ctx, email)
	if err != nil {
		return err
	}
	if !verified {
		return appErr.ErrEmailNotVerified
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	hash, err := password.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash, timeutil.NowUnix()); err != nil {
		return err
	}
	return s.verify.ConsumeVerification(ctx, email)
}
