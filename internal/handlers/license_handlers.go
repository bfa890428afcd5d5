package handlers

import (
	"net/http"

	"voucherflow/internal/common"
	"voucherflow/internal/services"

	"github.com/labstack/echo/v4"
)

// LicenseHandlers exposes the tenant's license and quota usage
type LicenseHandlers struct {
	licenseService services.LicenseService
}

// NewLicenseHandlers creates a new license handlers instance
func NewLicenseHandlers(licenseService services.LicenseService) *LicenseHandlers {
	return &LicenseHandlers{licenseService: licenseService}
}

// GetLicense handles GET /license
func (h *LicenseHandlers) GetLicense(c echo.Context) error {
	tenantID, ok := common.GetTenantIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	license, err := h.licenseService.GetByTenant(c.Request().Context(), tenantID)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, license)
}

// GetUsage handles GET /license/usage
func (h *LicenseHandlers) GetUsage(c echo.Context) error {
	tenantID, ok := common.GetTenantIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	usage, err := h.licenseService.Usage(c.Request().Context(), tenantID)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, usage)
}
