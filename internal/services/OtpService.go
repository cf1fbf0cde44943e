package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/borkya1/smart-gallery/internal/mailer"
	"github.com/borkya1/smart-gallery/internal/models"
	"github.com/borkya1/smart-gallery/internal/providers"
	"github.com/borkya1/smart-gallery/internal/store"
	"github.com/borkya1/smart-gallery/internal/structures"
)

var otpSpace = big.NewInt(1_000_000)

type OtpServiceInterface interface {
	Send(ctx context.Context, email string) error
	Verify(ctx context.Context, email, code string) (bool, error)
}

type OtpService struct {
	store   store.OtpStoreInterface
	mailer  mailer.MailerInterface
	logger  providers.Logger
	expiry  time.Duration
	now     func() time.Time
	newCode func() (string, error)
}

func NewOtpService(otpStore store.OtpStoreInterface, m mailer.MailerInterface, conf *structures.Config, logger providers.Logger) OtpServiceInterface {
	return &OtpService{
		store:   otpStore,
		mailer:  m,
		logger:  logger,
		expiry:  conf.Otp.Expiry,
		now:     time.Now,
		newCode: generateCode,
	}
}

// Send issues a fresh code for email, replacing any pending one, and mails it.
func (s *OtpService) Send(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	code, err := s.newCode()
	if err != nil {
		return models.NewInfrastructureError("generate otp", err)
	}

	now := s.now().UTC()
	if err = s.store.Put(ctx, models.OtpCode{
		Email:     email,
		Code:      code,
		ExpiresAt: now.Add(s.expiry),
		CreatedAt: now,
	}); err != nil {
		return models.NewInfrastructureError("save otp", err)
	}

	if err = s.mailer.Send(ctx, email, code, s.expiry); err != nil {
		s.logger.Errorf(providers.TypeApp, "Failed to deliver OTP to %s: %s", email, err)
		return models.NewInfrastructureError("send otp", err)
	}
	return nil
}

// Verify reports whether code is the pending, unexpired code for email.
// Codes stay valid until they expire.
func (s *OtpService) Verify(ctx context.Context, email, code string) (bool, error) {
	stored, err := s.store.Get(ctx, normalizeEmail(email))
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, models.NewInfrastructureError("read otp", err)
	}

	if stored.Expired(s.now()) {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(stored.Code), []byte(code)) == 1, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
