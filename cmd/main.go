package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"

	"voucherflow/internal/caching"
	"voucherflow/internal/handlers"
	"voucherflow/internal/jobs/background"
	"voucherflow/internal/middleware"
	"voucherflow/internal/repositories"
	"voucherflow/internal/services"
	"voucherflow/internal/workflow"
	"voucherflow/pkg/database"
)

const version = "1.0.0"

func main() {
	// Database connection
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.ClosePool(pool)

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = random.String(32) // Generate random secret for development
		log.Printf("WARNING: Using generated JWT secret")
	}

	// Key encryption key for signing secrets at rest
	secretKEK := os.Getenv("SECRET_KEK")
	if secretKEK == "" {
		log.Fatal("SECRET_KEK environment variable is required")
	}

	// Redis configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379" // Default Redis address
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDBStr := os.Getenv("REDIS_DB")
	redisDB := 0 // Default DB
	if redisDBStr != "" {
		if db, err := strconv.Atoi(redisDBStr); err == nil {
			redisDB = db
		}
	}

	// MinIO configuration
	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	if minioEndpoint == "" {
		minioEndpoint = "localhost:9000" // Default MinIO endpoint
	}
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	if minioAccessKey == "" {
		minioAccessKey = "minioadmin" // Default for development
	}
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	if minioSecretKey == "" {
		minioSecretKey = "minioadmin" // Default for development
	}
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	auditBucket := os.Getenv("AUDIT_BUCKET")
	if auditBucket == "" {
		auditBucket = "voucherflow-audit"
	}

	// Initialize MinIO service
	minioSvc, err := services.NewMinioService(minioEndpoint, minioAccessKey, minioSecretKey, useSSL)
	if err != nil {
		log.Fatalf("Failed to initialize MinIO service: %v", err)
	}

	// Create repositories
	voucherRepo := repositories.NewVoucherRepo(pool)
	licenseRepo := repositories.NewLicenseRepo(pool)
	quotaRepo := repositories.NewQuotaUsageRepo(pool)
	secretRepo := repositories.NewSigningSecretRepo(pool)
	auditRepo := repositories.NewAuditLogsRepo(pool)

	// Create cache service
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// Create services
	cipher, err := services.NewSecretCipher(secretKEK)
	if err != nil {
		log.Fatalf("Failed to initialize secret cipher: %v", err)
	}
	signatureSvc := services.NewSignatureService(pool, secretRepo, voucherRepo, cipher)
	licenseSvc := services.NewLicenseService(licenseRepo, quotaRepo, voucherRepo, cacheSvc)
	otpSvc := services.NewOTPService(cacheSvc)
	auditSvc := services.NewAuditLogsService(auditRepo, minioSvc, auditBucket)
	voucherSvc := services.NewVoucherService(pool, voucherRepo, signatureSvc, licenseSvc, otpSvc, auditSvc)

	// Create handlers
	voucherHandlers := handlers.NewVoucherHandlers(voucherSvc)
	signatureHandlers := handlers.NewSignatureHandlers(voucherSvc, signatureSvc)
	licenseHandlers := handlers.NewLicenseHandlers(licenseSvc)
	auditHandlers := handlers.NewAuditLogsHandlers(auditSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc)

	// Background jobs
	scheduler := background.NewJobScheduler(licenseSvc, auditSvc, licenseRepo)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start job scheduler: %v", err)
	}
	defer scheduler.Stop()

	// Create Echo instance
	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())
	e.Use(middleware.ClientMetadata())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/live", healthHandlers.LivenessCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)

	// API routes
	v1 := e.Group("/v1")

	// Public signature status lookup (no JWT required)
	v1.GET("/signatures/status/:id", signatureHandlers.SignatureStatus)

	// Protected routes
	protected := v1.Group("")
	protected.Use(echojwt.WithConfig(middleware.JWTConfig(jwtSecret)))
	protected.Use(middleware.ClaimsToContext())

	// Voucher routes
	protected.GET("/vouchers", voucherHandlers.ListVouchers)
	protected.POST("/vouchers", voucherHandlers.CreateVoucher)
	protected.GET("/vouchers/:id", voucherHandlers.GetVoucher)
	protected.PUT("/vouchers/:id", voucherHandlers.UpdateVoucher)
	protected.DELETE("/vouchers/:id", voucherHandlers.DeleteVoucher)
	protected.POST("/vouchers/:id/approve", voucherHandlers.ApproveVoucher)
	protected.POST("/vouchers/:id/reject", voucherHandlers.RejectVoucher)
	protected.POST("/vouchers/:id/cancel", voucherHandlers.CancelVoucher)
	protected.POST("/vouchers/:id/send-otp", voucherHandlers.SendOTP)
	protected.POST("/vouchers/:id/verify-otp", voucherHandlers.VerifyOTP)

	// Signature routes
	protected.POST("/signatures/verify/:id", signatureHandlers.VerifyVoucher)
	protected.POST("/signatures/batch-verify", signatureHandlers.BatchVerify,
		middleware.RequireRole(workflow.RoleAdmin, workflow.RoleAuditor))
	protected.POST("/signatures/rotate-secret", signatureHandlers.RotateSecret,
		middleware.RequireRole(workflow.RoleAdmin))

	// License routes
	protected.GET("/license", licenseHandlers.GetLicense)
	protected.GET("/license/usage", licenseHandlers.GetUsage)

	// Audit routes
	protected.GET("/audit-logs", auditHandlers.ListAuditLogs,
		middleware.RequireRole(workflow.RoleAdmin, workflow.RoleAuditor))
	protected.GET("/audit-logs/voucher/:id", auditHandlers.ListVoucherAuditLogs)
	protected.POST("/audit-logs/export", auditHandlers.ExportAuditLogs,
		middleware.RequireRole(workflow.RoleAdmin, workflow.RoleAuditor))

	// Start server
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatalf("Invalid port %s: %v", portStr, err)
	}

	log.Printf("Voucherflow server v%s starting on port %d", version, port)

	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", port)))
}
