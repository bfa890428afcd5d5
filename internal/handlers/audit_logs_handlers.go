package handlers

import (
	"net/http"
	"strconv"
	"time"

	"voucherflow/internal/common"
	"voucherflow/internal/models"
	"voucherflow/internal/services"

	"github.com/labstack/echo/v4"
)

// AuditLogsHandlers serves the append-only audit trail
type AuditLogsHandlers struct {
	auditService services.AuditLogsService
}

// NewAuditLogsHandlers creates a new audit logs handlers instance
func NewAuditLogsHandlers(auditService services.AuditLogsService) *AuditLogsHandlers {
	return &AuditLogsHandlers{auditService: auditService}
}

// ListAuditLogs handles GET /audit-logs
func (h *AuditLogsHandlers) ListAuditLogs(c echo.Context) error {
	tenantID, ok := common.GetTenantIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	filters := &models.AuditLogFilters{Limit: limit, Offset: offset}
	if action := c.QueryParam("action"); action != "" {
		filters.Action = &action
	}
	if actor := c.QueryParam("actor_id"); actor != "" {
		actorID, err := common.ValidateUUID(actor, "actor_id")
		if err != nil {
			return common.SendValidationError(c, "actor_id", err.Error())
		}
		filters.ActorID = &actorID
	}
	if raw := c.QueryParam("start_date"); raw != "" {
		start, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return common.SendValidationError(c, "start_date", "must be in YYYY-MM-DD format")
		}
		filters.StartDate = &start
	}
	if raw := c.QueryParam("end_date"); raw != "" {
		end, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return common.SendValidationError(c, "end_date", "must be in YYYY-MM-DD format")
		}
		filters.EndDate = &end
	}
	if c.QueryParam("security_only") == "true" {
		filters.SecurityOnly = true
	}

	logs, err := h.auditService.List(c.Request().Context(), tenantID, filters)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"audit_logs": logs,
		"limit":      limit,
		"offset":     offset,
	})
}

// ListVoucherAuditLogs handles GET /audit-logs/voucher/:id
func (h *AuditLogsHandlers) ListVoucherAuditLogs(c echo.Context) error {
	tenantID, ok := common.GetTenantIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	voucherID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset, err = common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	logs, err := h.auditService.ListByVoucher(c.Request().Context(), tenantID, voucherID, limit, offset)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"voucher_id": voucherID,
		"audit_logs": logs,
	})
}

// ExportAuditLogs handles POST /audit-logs/export
func (h *AuditLogsHandlers) ExportAuditLogs(c echo.Context) error {
	tenantID, ok := common.GetTenantIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req struct {
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return common.SendValidationError(c, "start_date", "must be in YYYY-MM-DD format")
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return common.SendValidationError(c, "end_date", "must be in YYYY-MM-DD format")
	}
	if err := common.ValidateDateRange(start, end); err != nil {
		return common.SendClientError(c, err.Error())
	}

	result, err := h.auditService.Export(c.Request().Context(), tenantID, start, end)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
