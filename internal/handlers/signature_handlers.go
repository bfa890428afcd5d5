package handlers

import (
	"net/http"

	"voucherflow/internal/common"
	"voucherflow/internal/services"

	"github.com/labstack/echo/v4"
)

// SignatureHandlers exposes integrity verification and secret rotation
type SignatureHandlers struct {
	voucherService   services.VoucherService
	signatureService services.SignatureService
}

// NewSignatureHandlers creates a new signature handlers instance
func NewSignatureHandlers(voucherService services.VoucherService, signatureService services.SignatureService) *SignatureHandlers {
	return &SignatureHandlers{voucherService: voucherService, signatureService: signatureService}
}

// VerifyVoucher handles POST /signatures/verify/:id
func (h *SignatureHandlers) VerifyVoucher(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	valid, err := h.voucherService.VerifySignature(c.Request().Context(), id)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"voucher_id": id,
		"valid":      valid,
	})
}

// SignatureStatus handles GET /signatures/status/:id without authentication.
// The response never includes the full signature.
func (h *SignatureHandlers) SignatureStatus(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	status, err := h.voucherService.PublicSignatureStatus(c.Request().Context(), id)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, status)
}

// BatchVerify handles POST /signatures/batch-verify
func (h *SignatureHandlers) BatchVerify(c echo.Context) error {
	var req struct {
		VoucherIDs []string `json:"voucher_ids"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if len(req.VoucherIDs) == 0 {
		return common.SendValidationError(c, "voucher_ids", "at least one voucher id is required")
	}

	ids, err := parseVoucherIDs(req.VoucherIDs)
	if err != nil {
		return common.SendValidationError(c, "voucher_ids", err.Error())
	}

	tenantID, ok := common.GetTenantIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	results, err := h.signatureService.BatchVerify(c.Request().Context(), tenantID, ids)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"results": results,
		"total":   len(results),
	})
}

// RotateSecret handles POST /signatures/rotate-secret
func (h *SignatureHandlers) RotateSecret(c echo.Context) error {
	tenantID, ok := common.GetTenantIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	report, err := h.signatureService.RotateSecret(c.Request().Context(), tenantID)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}
