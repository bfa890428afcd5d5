package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"voucherflow/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type CacheService interface {
	// License caching
	GetLicense(ctx context.Context, tenantID uuid.UUID) (*models.License, error)
	SetLicense(ctx context.Context, license *models.License, ttl time.Duration) error
	DeleteLicense(ctx context.Context, tenantID uuid.UUID) error

	// OTP session storage
	SetOTPSession(ctx context.Context, sessionID string, code string, ttl time.Duration) error
	GetOTPSession(ctx context.Context, sessionID string) (string, error)
	DeleteOTPSession(ctx context.Context, sessionID string) error
	IncrementOTPAttempts(ctx context.Context, sessionID string, window time.Duration) (int64, error)

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func licenseKey(tenantID uuid.UUID) string {
	return fmt.Sprintf("voucherflow:license:%s", tenantID.String())
}

func otpKey(sessionID string) string {
	return fmt.Sprintf("voucherflow:otp:%s", sessionID)
}

func otpAttemptsKey(sessionID string) string {
	return fmt.Sprintf("voucherflow:otp_attempts:%s", sessionID)
}

func (r *redisCacheService) GetLicense(ctx context.Context, tenantID uuid.UUID) (*models.License, error) {
	data, err := r.client.Get(ctx, licenseKey(tenantID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var license models.License
	if err := json.Unmarshal(data, &license); err != nil {
		return nil, err
	}
	return &license, nil
}

func (r *redisCacheService) SetLicense(ctx context.Context, license *models.License, ttl time.Duration) error {
	data, err := json.Marshal(license)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, licenseKey(license.TenantID), data, ttl).Err()
}

func (r *redisCacheService) DeleteLicense(ctx context.Context, tenantID uuid.UUID) error {
	return r.client.Del(ctx, licenseKey(tenantID)).Err()
}

func (r *redisCacheService) SetOTPSession(ctx context.Context, sessionID string, code string, ttl time.Duration) error {
	return r.client.Set(ctx, otpKey(sessionID), code, ttl).Err()
}

func (r *redisCacheService) GetOTPSession(ctx context.Context, sessionID string) (string, error) {
	code, err := r.client.Get(ctx, otpKey(sessionID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return code, err
}

func (r *redisCacheService) DeleteOTPSession(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, otpKey(sessionID), otpAttemptsKey(sessionID)).Err()
}

func (r *redisCacheService) IncrementOTPAttempts(ctx context.Context, sessionID string, window time.Duration) (int64, error) {
	key := otpAttemptsKey(sessionID)
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
