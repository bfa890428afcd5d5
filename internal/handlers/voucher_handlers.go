package handlers

import (
	"net/http"
	"strconv"
	"time"

	"voucherflow/internal/common"
	"voucherflow/internal/models"
	"voucherflow/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// VoucherHandlers handles HTTP requests for the voucher lifecycle
type VoucherHandlers struct {
	voucherService services.VoucherService
}

// NewVoucherHandlers creates a new voucher handlers instance
func NewVoucherHandlers(voucherService services.VoucherService) *VoucherHandlers {
	return &VoucherHandlers{voucherService: voucherService}
}

type createVoucherRequest struct {
	VoucherNumber string  `json:"voucher_number"`
	CompanyID     string  `json:"company_id"`
	PayeeID       string  `json:"payee_id"`
	Amount        string  `json:"amount"`
	Currency      string  `json:"currency"`
	PaymentMode   string  `json:"payment_mode"`
	HeadOfAccount string  `json:"head_of_account"`
	Description   *string `json:"description"`
}

// CreateVoucher handles POST /vouchers
func (h *VoucherHandlers) CreateVoucher(c echo.Context) error {
	var req createVoucherRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	companyID, err := common.ValidateUUID(req.CompanyID, "company_id")
	if err != nil {
		return common.SendValidationError(c, "company_id", err.Error())
	}
	payeeID, err := common.ValidateUUID(req.PayeeID, "payee_id")
	if err != nil {
		return common.SendValidationError(c, "payee_id", err.Error())
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return common.SendValidationError(c, "amount", "must be a decimal number")
	}
	if err := common.ValidateOptionalString(req.Description, "description", 1000); err != nil {
		return common.SendValidationError(c, "description", err.Error())
	}

	voucher, err := h.voucherService.Create(c.Request().Context(), services.CreateVoucherInput{
		VoucherNumber: req.VoucherNumber,
		CompanyID:     companyID,
		PayeeID:       payeeID,
		Amount:        amount,
		Currency:      req.Currency,
		PaymentMode:   req.PaymentMode,
		HeadOfAccount: req.HeadOfAccount,
		Description:   req.Description,
	})
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, voucher)
}

// ListVouchers handles GET /vouchers
func (h *VoucherHandlers) ListVouchers(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	filters := models.VoucherFilters{Limit: limit, Offset: offset}
	if status := c.QueryParam("status"); status != "" {
		filters.Status = &status
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
	if filters.StartDate != nil && filters.EndDate != nil {
		if err := common.ValidateDateRange(*filters.StartDate, *filters.EndDate); err != nil {
			return common.SendClientError(c, err.Error())
		}
	}

	vouchers, err := h.voucherService.List(c.Request().Context(), filters)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"vouchers": vouchers,
		"limit":    limit,
		"offset":   offset,
	})
}

// GetVoucher handles GET /vouchers/:id
func (h *VoucherHandlers) GetVoucher(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	voucher, err := h.voucherService.GetByID(c.Request().Context(), id)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, voucher)
}

type updateVoucherRequest struct {
	CompanyID     *string `json:"company_id"`
	PayeeID       *string `json:"payee_id"`
	Amount        *string `json:"amount"`
	Currency      *string `json:"currency"`
	PaymentMode   *string `json:"payment_mode"`
	HeadOfAccount *string `json:"head_of_account"`
	Description   *string `json:"description"`
}

// UpdateVoucher handles PUT /vouchers/:id
func (h *VoucherHandlers) UpdateVoucher(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req updateVoucherRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	var input services.UpdateVoucherInput
	if req.CompanyID != nil {
		companyID, err := common.ValidateUUID(*req.CompanyID, "company_id")
		if err != nil {
			return common.SendValidationError(c, "company_id", err.Error())
		}
		input.CompanyID = &companyID
	}
	if req.PayeeID != nil {
		payeeID, err := common.ValidateUUID(*req.PayeeID, "payee_id")
		if err != nil {
			return common.SendValidationError(c, "payee_id", err.Error())
		}
		input.PayeeID = &payeeID
	}
	if req.Amount != nil {
		amount, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			return common.SendValidationError(c, "amount", "must be a decimal number")
		}
		input.Amount = &amount
	}
	if err := common.ValidateOptionalString(req.Description, "description", 1000); err != nil {
		return common.SendValidationError(c, "description", err.Error())
	}
	input.Currency = req.Currency
	input.PaymentMode = req.PaymentMode
	input.HeadOfAccount = req.HeadOfAccount
	input.Description = req.Description

	voucher, err := h.voucherService.Update(c.Request().Context(), id, input)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, voucher)
}

// DeleteVoucher handles DELETE /vouchers/:id, legal only while draft
func (h *VoucherHandlers) DeleteVoucher(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.voucherService.Delete(c.Request().Context(), id); err != nil {
		return common.SendDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ApproveVoucher handles POST /vouchers/:id/approve
func (h *VoucherHandlers) ApproveVoucher(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	voucher, err := h.voucherService.Approve(c.Request().Context(), id)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, voucher)
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

// RejectVoucher handles POST /vouchers/:id/reject
func (h *VoucherHandlers) RejectVoucher(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req reasonRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	voucher, err := h.voucherService.Reject(c.Request().Context(), id, req.Reason)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, voucher)
}

// CancelVoucher handles POST /vouchers/:id/cancel
func (h *VoucherHandlers) CancelVoucher(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req reasonRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	voucher, err := h.voucherService.Cancel(c.Request().Context(), id, req.Reason)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, voucher)
}

// SendOTP handles POST /vouchers/:id/send-otp
func (h *VoucherHandlers) SendOTP(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	voucher, err := h.voucherService.RequestCode(c.Request().Context(), id)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"voucher_id":     voucher.ID,
		"otp_session_id": voucher.OTPSessionID,
		"otp_sent_at":    voucher.OTPSentAt,
	})
}

// VerifyOTP handles POST /vouchers/:id/verify-otp
func (h *VoucherHandlers) VerifyOTP(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.Code, "code"); err != nil {
		return common.SendValidationError(c, "code", err.Error())
	}

	voucher, err := h.voucherService.ConfirmCode(c.Request().Context(), id, req.Code)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, voucher)
}

// parseVoucherIDs is shared by the batch signature endpoints
func parseVoucherIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, item := range raw {
		id, err := common.ValidateUUID(item, "voucher_ids")
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
