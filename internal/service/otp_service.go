package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"inkpost/internal/kvstore"
	appErr "inkpost/internal/pkg/errors"
	"inkpost/internal/pkg/password"
)

const (
	otpKeyPrefix      = "otp:"
	cooldownKeyPrefix = "otp_cooldown:"
	verifiedKeyPrefix = "email_verified:"

	otpTTL      = 120 * time.Second
	cooldownTTL = 60 * time.Second
	verifiedTTL = 300 * time.Second
)

// OTPService issues and checks one-time codes. The code itself is never
// stored: only its bcrypt hash, keyed by email with a 120s lifetime. A
// successful check burns the code and mints a 300s verification flag that
// a single identity operation may consume.
type OTPService struct {
	store  kvstore.Store
	sender EmailSender
}

func NewOTPService(store kvstore.Store, sender EmailSender) *OTPService {
	return &OTPService{store: store, sender: sender}
}

func (s *OTPService) RequestCode(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return appErr.ErrInvalid
	}
	if _, err := s.store.Get(ctx, verifiedKeyPrefix+email); err == nil {
		return appErr.ErrAlreadyVerified
	}
	if _, err := s.store.Get(ctx, cooldownKeyPrefix+email); err == nil {
		return appErr.ErrTooMany
	}
	code := generateCode()
	hash, err := password.Hash(code)
	if err != nil {
		return err
	}
	if err := s.store.SetEx(ctx, otpKeyPrefix+email, hash, otpTTL); err != nil {
		return err
	}
	subject := "Your verification code"
	body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(otpTTL/time.Minute))
	if err := s.sender.Send(email, subject, body); err != nil {
		// A code the user never received must not stay redeemable.
		if delErr := s.store.Del(ctx, otpKeyPrefix+email); delErr != nil {
			logutil.GetLogger(ctx).Warn("drop undelivered otp failed", zap.Error(delErr))
		}
		logutil.GetLogger(ctx).Error("otp dispatch failed", zap.Error(err))
		return appErr.ErrMailDispatch
	}
	return s.store.SetEx(ctx, cooldownKeyPrefix+email, "true", cooldownTTL)
}

func (s *OTPService) VerifyCode(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return appErr.ErrInvalid
	}
	hash, err := s.store.Get(ctx, otpKeyPrefix+email)
	if err != nil {
		if appErr.IsNotFound(err) {
			return appErr.ErrOTPExpired
		}
		return err
	}
	if err := password.Compare(hash, code); err != nil {
		return appErr.ErrOTPMismatch
	}
	if err := s.store.Del(ctx, otpKeyPrefix+email); err != nil {
		return err
	}
	return s.store.SetEx(ctx, verifiedKeyPrefix+email, "true", verifiedTTL)
}

// IsVerified reports whether a live verification flag exists for email.
func (s *OTPService) IsVerified(ctx context.Context, email string) (bool, error) {
	_, err := s.store.Get(ctx, verifiedKeyPrefix+normalizeEmail(email))
	if err != nil {
		if appErr.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ConsumeVerification deletes the flag; deleting an already-consumed flag
// is a no-op, which keeps the concurrent duplicate-registration race benign.
func (s *OTPService) ConsumeVerification(ctx context.Context, email string) error {
	return s.store.Del(ctx, verifiedKeyPrefix+normalizeEmail(email))
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func generateCode() string {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return fmt.Sprintf("%06d", rng.Intn(1000000))
}
