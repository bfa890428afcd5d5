package background

import (
	"context"
	"log"
	"sync"
	"time"

	"voucherflow/internal/repositories"
	"voucherflow/internal/services"

	"github.com/go-co-op/gocron/v2"
)

// JobScheduler manages background jobs for distributed environment
type JobScheduler struct {
	scheduler   gocron.Scheduler
	licenseSvc  services.LicenseService
	auditSvc    services.AuditLogsService
	licenseRepo repositories.LicenseRepository
	jobs        map[string]gocron.Job
	mu          sync.RWMutex
}

// NewJobScheduler creates a new job scheduler
func NewJobScheduler(licenseSvc services.LicenseService, auditSvc services.AuditLogsService,
	licenseRepo repositories.LicenseRepository) *JobScheduler {

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	js := &JobScheduler{
		scheduler:   scheduler,
		licenseSvc:  licenseSvc,
		auditSvc:    auditSvc,
		licenseRepo: licenseRepo,
		jobs:        make(map[string]gocron.Job),
	}

	js.registerJobs()

	return js
}

// Start starts the job scheduler
func (js *JobScheduler) Start() error {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
	return nil
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

// registerJobs registers all background jobs
func (js *JobScheduler) registerJobs() {
	// License expiry sweep - every hour
	expiryJob, err := js.scheduler.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(js.sweepExpiredLicenses),
		gocron.WithName("license-expiry-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create license expiry job: %v", err)
	} else {
		js.jobs["license-expiry"] = expiryJob
	}

	// Daily audit archive - every 24 hours
	archiveJob, err := js.scheduler.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(js.archiveAuditLogs),
		gocron.WithName("audit-archive"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create audit archive job: %v", err)
	} else {
		js.jobs["audit-archive"] = archiveJob
	}

	log.Printf("Registered %d background jobs", len(js.jobs))
}

// sweepExpiredLicenses flips overdue licenses to expired
func (js *JobScheduler) sweepExpiredLicenses() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	count, err := js.licenseSvc.ExpireOverdue(ctx, time.Now())
	if err != nil {
		log.Printf("License expiry sweep failed: %v", err)
		return
	}
	if count > 0 {
		log.Printf("License expiry sweep: marked %d licenses expired", count)
	}
}

// archiveAuditLogs exports the previous day's trail for every licensed tenant
func (js *JobScheduler) archiveAuditLogs() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.Add(-24 * time.Hour)

	tenants, err := js.licenseRepo.ListTenants(ctx)
	if err != nil {
		log.Printf("Audit archive: failed to list tenants: %v", err)
		return
	}

	for _, tenantID := range tenants {
		result, err := js.auditSvc.Export(ctx, tenantID, start, end)
		if err != nil {
			log.Printf("Audit archive failed for tenant %s: %v", tenantID, err)
			continue
		}
		if result.Entries > 0 {
			log.Printf("Audit archive for tenant %s: %d entries -> %s", tenantID, result.Entries, result.ObjectName)
		}
	}
}
