package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"log"
	"math/big"
	"time"

	"voucherflow/internal/caching"

	"github.com/google/uuid"
)

// otpSessionTTL keeps the session in redis a little longer than the
// 10-minute validity policy; the policy itself is enforced by the voucher
// service against otp_sent_at, not by the store's TTL.
const otpSessionTTL = 15 * time.Minute

const otpMaxAttempts = 5

// OTPService is the one-time-code collaborator boundary. Delivery of the
// code over the payee channel is outside this core; the session and code
// live in redis until confirmed or expired.
type OTPService interface {
	RequestCode(ctx context.Context, channel string) (sessionID string, err error)
	VerifyCode(ctx context.Context, sessionID, code string) (bool, error)
}

type otpService struct {
	cacheSvc caching.CacheService
}

func NewOTPService(cacheSvc caching.CacheService) OTPService {
	return &otpService{cacheSvc: cacheSvc}
}

func (s *otpService) RequestCode(ctx context.Context, channel string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}

	sessionID := uuid.New().String()
	if err := s.cacheSvc.SetOTPSession(ctx, sessionID, code, otpSessionTTL); err != nil {
		return "", err
	}

	// Delivery is owned by the SMS collaborator; it reads the session by
	// id. Only the destination channel is logged, never the code.
	log.Printf("OTP session %s opened for channel %s", sessionID, channel)
	return sessionID, nil
}

func (s *otpService) VerifyCode(ctx context.Context, sessionID, code string) (bool, error) {
	attempts, err := s.cacheSvc.IncrementOTPAttempts(ctx, sessionID, otpSessionTTL)
	if err != nil {
		return false, err
	}
	if attempts > otpMaxAttempts {
		return false, nil
	}

	stored, err := s.cacheSvc.GetOTPSession(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if stored == "" {
		return false, nil
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return false, nil
	}

	// Single use: the session is consumed on success.
	if err := s.cacheSvc.DeleteOTPSession(ctx, sessionID); err != nil {
		log.Printf("WARN: failed to delete consumed OTP session %s: %v", sessionID, err)
	}
	return true, nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
