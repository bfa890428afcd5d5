package services

import (
	"context"
	"testing"
	"time"

	"voucherflow/internal/common"
	"voucherflow/internal/models"
	"voucherflow/internal/repositories"
	"voucherflow/internal/workflow"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type VoucherServiceTestSuite struct {
	suite.Suite
	db           pgxmock.PgxPoolIface
	voucherRepo  *MockVoucherRepository
	signatureSvc *MockSignatureService
	licenseSvc   *MockLicenseService
	otpSvc       *MockOTPService
	auditSvc     *MockAuditLogsService
	service      VoucherService
	tenantID     uuid.UUID
	userID       uuid.UUID
}

func (suite *VoucherServiceTestSuite) SetupTest() {
	db, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.db = db
	suite.voucherRepo = &MockVoucherRepository{}
	suite.signatureSvc = &MockSignatureService{}
	suite.licenseSvc = &MockLicenseService{}
	suite.otpSvc = &MockOTPService{}
	suite.auditSvc = &MockAuditLogsService{}
	suite.service = NewVoucherService(suite.db, suite.voucherRepo, suite.signatureSvc, suite.licenseSvc, suite.otpSvc, suite.auditSvc)
	suite.tenantID = uuid.New()
	suite.userID = uuid.New()
}

func (suite *VoucherServiceTestSuite) TearDownTest() {
	suite.db.Close()
}

// expectCommit arms the transaction a state write runs in; the trailing
// rollback is the deferred no-op after commit.
func (suite *VoucherServiceTestSuite) expectCommit() {
	suite.db.ExpectBegin()
	suite.db.ExpectCommit()
	suite.db.ExpectRollback()
}

func (suite *VoucherServiceTestSuite) expectRollback() {
	suite.db.ExpectBegin()
	suite.db.ExpectRollback()
}

func (suite *VoucherServiceTestSuite) ctxWithRole(role workflow.Role) context.Context {
	ctx := context.WithValue(context.Background(), common.UserIDKey, suite.userID)
	ctx = context.WithValue(ctx, common.TenantIDKey, suite.tenantID)
	ctx = context.WithValue(ctx, common.RoleKey, role.String())
	ctx = context.WithValue(ctx, common.ClientIPKey, "10.0.0.1")
	return ctx
}

func (suite *VoucherServiceTestSuite) validCreateInput() CreateVoucherInput {
	return CreateVoucherInput{
		CompanyID:     uuid.New(),
		PayeeID:       uuid.New(),
		Amount:        decimal.RequireFromString("1250.50"),
		Currency:      "INR",
		PaymentMode:   models.PaymentModeBankTransfer,
		HeadOfAccount: "office-supplies",
	}
}

func (suite *VoucherServiceTestSuite) pendingVoucher() *models.Voucher {
	sig := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	now := time.Now().Add(-time.Hour)
	return &models.Voucher{
		ID:                 uuid.New(),
		TenantID:           suite.tenantID,
		VoucherNumber:      "VCH-202608-AB12CD34",
		CompanyID:          uuid.New(),
		PayeeID:            uuid.New(),
		Amount:             decimal.RequireFromString("500.00"),
		Currency:           "INR",
		PaymentMode:        models.PaymentModeCash,
		HeadOfAccount:      "travel",
		DigitalSignature:   &sig,
		SignatureTimestamp: &now,
		Status:             workflow.StatePendingApproval.String(),
		Version:            1,
		CreatedBy:          suite.userID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func (suite *VoucherServiceTestSuite) TestCreate_Success() {
	ctx := suite.ctxWithRole(workflow.RoleClerk)
	input := suite.validCreateInput()

	suite.licenseSvc.On("Authorize", ctx, suite.tenantID, models.CounterVouchers, "10.0.0.1").
		Return(&models.License{Status: models.LicenseStatusActive}, nil)
	suite.signatureSvc.On("Sign", ctx, mock.AnythingOfType("*models.Voucher")).Return(nil)
	suite.voucherRepo.On("CreateTx", ctx, mock.Anything, mock.AnythingOfType("*models.Voucher")).Return(nil)
	suite.auditSvc.On("RecordTx", ctx, mock.Anything, suite.tenantID, mock.Anything, models.AuditActionCreated,
		(*string)(nil), mock.Anything, mock.Anything).Return(nil)
	suite.expectCommit()

	voucher, err := suite.service.Create(ctx, input)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), workflow.StatePendingApproval.String(), voucher.Status)
	assert.Equal(suite.T(), 1, voucher.Version)
	assert.Equal(suite.T(), suite.userID, voucher.CreatedBy)
	assert.NotEmpty(suite.T(), voucher.VoucherNumber)
	suite.licenseSvc.AssertExpectations(suite.T())
	suite.voucherRepo.AssertExpectations(suite.T())
}

func (suite *VoucherServiceTestSuite) TestCreate_AuditorForbidden() {
	ctx := suite.ctxWithRole(workflow.RoleAuditor)

	_, err := suite.service.Create(ctx, suite.validCreateInput())

	assert.Equal(suite.T(), common.CodeForbidden, common.CodeOf(err))
	suite.licenseSvc.AssertNotCalled(suite.T(), "Authorize", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *VoucherServiceTestSuite) TestCreate_QuotaExceeded() {
	ctx := suite.ctxWithRole(workflow.RoleClerk)

	suite.licenseSvc.On("Authorize", ctx, suite.tenantID, models.CounterVouchers, "10.0.0.1").
		Return(nil, common.ErrQuotaExceeded("voucher", "basic", 100))

	_, err := suite.service.Create(ctx, suite.validCreateInput())

	assert.Equal(suite.T(), common.CodeQuotaExceeded, common.CodeOf(err))
	suite.voucherRepo.AssertNotCalled(suite.T(), "CreateTx", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *VoucherServiceTestSuite) TestCreate_DuplicateNumberIsCallerError() {
	ctx := suite.ctxWithRole(workflow.RoleClerk)
	input := suite.validCreateInput()
	input.VoucherNumber = "VCH-202608-TAKEN"

	suite.licenseSvc.On("Authorize", ctx, suite.tenantID, models.CounterVouchers, "10.0.0.1").
		Return(&models.License{Status: models.LicenseStatusActive}, nil)
	suite.signatureSvc.On("Sign", ctx, mock.AnythingOfType("*models.Voucher")).Return(nil)
	suite.voucherRepo.On("CreateTx", ctx, mock.Anything, mock.AnythingOfType("*models.Voucher")).
		Return(repositories.ErrDuplicateVoucherNumber)
	suite.expectRollback()

	_, err := suite.service.Create(ctx, input)

	assert.Equal(suite.T(), common.CodeValidation, common.CodeOf(err))
	suite.auditSvc.AssertNotCalled(suite.T(), "RecordTx", mock.Anything, mock.Anything, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.NoError(suite.T(), suite.db.ExpectationsWereMet())
}

func (suite *VoucherServiceTestSuite) TestCreate_AuditFailureRollsBack() {
	ctx := suite.ctxWithRole(workflow.RoleClerk)

	suite.licenseSvc.On("Authorize", ctx, suite.tenantID, models.CounterVouchers, "10.0.0.1").
		Return(&models.License{Status: models.LicenseStatusActive}, nil)
	suite.signatureSvc.On("Sign", ctx, mock.AnythingOfType("*models.Voucher")).Return(nil)
	suite.voucherRepo.On("CreateTx", ctx, mock.Anything, mock.AnythingOfType("*models.Voucher")).Return(nil)
	suite.auditSvc.On("RecordTx", ctx, mock.Anything, suite.tenantID, mock.Anything, models.AuditActionCreated,
		(*string)(nil), mock.Anything, mock.Anything).Return(assert.AnError)
	suite.expectRollback()

	_, err := suite.service.Create(ctx, suite.validCreateInput())

	assert.Equal(suite.T(), common.CodeStorage, common.CodeOf(err))
	assert.NoError(suite.T(), suite.db.ExpectationsWereMet())
}

func (suite *VoucherServiceTestSuite) TestCreate_RejectsThreeDecimalPlaces() {
	ctx := suite.ctxWithRole(workflow.RoleClerk)
	input := suite.validCreateInput()
	input.Amount = decimal.RequireFromString("10.999")

	_, err := suite.service.Create(ctx, input)

	assert.Equal(suite.T(), common.CodeValidation, common.CodeOf(err))
}

func (suite *VoucherServiceTestSuite) TestCreate_RejectsZeroAmount() {
	ctx := suite.ctxWithRole(workflow.RoleClerk)
	input := suite.validCreateInput()
	input.Amount = decimal.Zero

	_, err := suite.service.Create(ctx, input)

	assert.Equal(suite.T(), common.CodeValidation, common.CodeOf(err))
}

func (suite *VoucherServiceTestSuite) TestApprove_Success() {
	ctx := suite.ctxWithRole(workflow.RoleApprover)
	voucher := suite.pendingVoucher()

	suite.voucherRepo.On("GetByID", ctx, suite.tenantID, voucher.ID).Return(voucher, nil)
	suite.signatureSvc.On("Verify", ctx, voucher).Return(true, nil)
	suite.voucherRepo.On("UpdateTx", ctx, mock.Anything, voucher, 1).Return(nil)
	suite.auditSvc.On("RecordTx", ctx, mock.Anything, suite.tenantID, &voucher.ID, models.AuditActionApproved,
		mock.Anything, mock.Anything, mock.Anything).Return(nil)
	suite.expectCommit()

	result, err := suite.service.Approve(ctx, voucher.ID)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), workflow.StateApproved.String(), result.Status)
	assert.Equal(suite.T(), &suite.userID, result.ApprovedBy)
	assert.NotNil(suite.T(), result.ApprovedAt)
	suite.auditSvc.AssertExpectations(suite.T())
}

func (suite *VoucherServiceTestSuite) TestApprove_TamperedVoucherRefused() {
	ctx := suite.ctxWithRole(workflow.RoleApprover)
	voucher := suite.pendingVoucher()

	suite.voucherRepo.On("GetByID", ctx, suite.tenantID, voucher.ID).Return(voucher, nil)
	suite.signatureSvc.On("Verify", ctx, voucher).Return(false, nil)
	suite.auditSvc.On("RecordSecurityEvent", ctx, suite.tenantID, &voucher.ID,
		models.AuditActionTampering, mock.Anything).Return(nil)

	_, err := suite.service.Approve(ctx, voucher.ID)

	assert.Equal(suite.T(), common.CodeIntegrity, common.CodeOf(err))
	suite.voucherRepo.AssertNotCalled(suite.T(), "UpdateTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.auditSvc.AssertExpectations(suite.T())
}

func (suite *VoucherServiceTestSuite) TestApprove_AuditFailureRollsBackTransition() {
	ctx := suite.ctxWithRole(workflow.RoleApprover)
	voucher := suite.pendingVoucher()

	suite.voucherRepo.On("GetByID", ctx, suite.tenantID, voucher.ID).Return(voucher, nil)
	suite.signatureSvc.On("Verify", ctx, voucher).Return(true, nil)
	suite.voucherRepo.On("UpdateTx", ctx, mock.Anything, voucher, 1).Return(nil)
	suite.auditSvc.On("RecordTx", ctx, mock.Anything, suite.tenantID, &voucher.ID, models.AuditActionApproved,
		mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)
	suite.expectRollback()

	_, err := suite.service.Approve(ctx, voucher.ID)

	assert.Equal(suite.T(), common.CodeStorage, common.CodeOf(err))
	assert.NoError(suite.T(), suite.db.ExpectationsWereMet())
}

func (suite *VoucherServiceTestSuite) TestApprove_AlreadyApproved() {
	ctx := suite.ctxWithRole(workflow.RoleApprover)
	voucher := suite.pendingVoucher()
	voucher.Status = workflow.StateApproved.String()

	suite.voucherRepo.On("GetByID", ctx, suite.tenantID, voucher.ID).Return(voucher, nil)

	_, err := suite.service.Approve(ctx, voucher.ID)

	assert.Equal(suite.T(), common.CodeInvalidTransition, common.CodeOf(err))
	suite.auditSvc.AssertNotCalled(suite.T(), "RecordTx", mock.Anything, mock.Anything, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *VoucherServiceTestSuite) TestApprove_ClerkForbidden() {
	ctx := suite.ctxWithRole(workflow.RoleClerk)
	voucher := suite.pendingVoucher()

	suite.voucherRepo.On("GetByID", ctx, suite.tenantID, voucher.ID).Return(voucher, nil)

	_, err := suite.service.Approve(ctx, voucher.ID)

	assert.Equal(suite.T(), common.CodeForbidden, common.CodeOf(err))
}

func (suite *VoucherServiceTestSuite) TestUpdate_ApprovedVoucherImmutable() {
	ctx := suite.ctxWithRole(workflow.RoleClerk)
	voucher := suite.pendingVoucher()
	voucher.Status = workflow.StateApproved.String()

	suite.voucherRepo.On("GetByID", ctx, suite.tenantID, voucher.ID).Return(voucher, nil)

	_, err := suite.service.Update(ctx, voucher.ID, UpdateVoucherInput{
		Amount: decimalPtr(decimal.RequireFromString("999.00")),
	})

	assert.Equal(suite.T(), common.CodeInvalidTransition, common.CodeOf(err))
}

func (suite *VoucherServiceTestSuite) TestUpdate_SignableChangeTriggersResign() {
	ctx := suite.ctxWithRole(workflow.RoleClerk)
	voucher := suite.pendingVoucher()

	suite.voucherRepo.On("GetByID", ctx, suite.tenantID, voucher.ID).Return(voucher, nil)
	suite.signatureSvc.On("Sign", ctx, voucher).Return(nil)
	suite.voucherRepo.On("UpdateTx", ctx, mock.Anything, voucher, 1).Return(nil)
	suite.auditSvc.On("RecordTx", ctx, mock.Anything, suite.tenantID, &voucher.ID, models.AuditActionModified,
		mock.Anything, mock.Anything, mock.Anything).Return(nil)
	suite.expectCommit()

	result, err := suite.service.Update(ctx, voucher.ID, UpdateVoucherInput{
		Amount: decimalPtr(decimal.RequireFromString("750.25")),
	})

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "750.25", result.Amount.StringFixed(2))
	suite.signatureSvc.AssertExpectations(suite.T())
}

func (suite *VoucherServiceTestSuite) TestUpdate_DescriptionOnlySkipsResign() {
	ctx := suite.ctxWithRole(workflow.RoleClerk)
	voucher := suite.pendingVoucher()

	suite.voucherRepo.On("GetByID", ctx, suite.tenantID, voucher.ID).Return(voucher, nil)
	suite.voucherRepo.On("UpdateTx", ctx, mock.Anything, voucher, 1).Return(nil)
	suite.auditSvc.On("RecordTx", ctx, mock.Anything, suite.tenantID, &voucher.ID, models.AuditActionModified,
		mock.Anything, mock.Anything, mock.Anything).Return(nil)
	suite.expectCommit()

	_, err := suite.service.Update(ctx, voucher.ID, UpdateVoucherInput{
		Description: stringPtr("updated note"),
	})

	assert.NoError(suite.T(), err)
	suite.signatureSvc.AssertNotCalled(suite.T(), "Sign", mock.Anything, mock.Anything)
}

func (suite *VoucherServiceTestSuite) TestUpdate_VersionConflict() {
	ctx := suite.ctxWithRole(workflow.RoleClerk)
	voucher := suite.pendingVoucher()

	suite.voucherRepo.On("GetByID", ctx, suite.tenantID, voucher.ID).Return(voucher, nil)
	suite.signatureSvc.On("Sign", ctx, voucher).Return(nil)
	suite.voucherRepo.On("UpdateTx", ctx, mock.Anything, voucher, 1).Return(repositories.ErrVersionConflict)
	suite.expectRollback()

	_, err := suite.service.Update(ctx, voucher.ID, UpdateVoucherInput{
		Amount: decimalPtr(decimal.RequireFromString("321.00")),
	})

	assert.Equal(suite.T(), common.CodeConflict, common.CodeOf(err))
}

func (suite *VoucherServiceTestSuite) TestReject_RequiresReason() {
	ctx := suite.ctxWithRole(workflow.RoleApprover)

	_, err := suite.service.Reject(ctx, uuid.New(), "   ")

	assert.Equal(suite.T(), common.CodeValidation, common.CodeOf(err))
	suite.voucherRepo.AssertNotCalled(suite.T(), "GetByID", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *VoucherServiceTestSuite) TestReject_Success() {
	ctx := suite.ctxWithRole(workflow.RoleApprover)
	voucher := suite.pendingVoucher()

	suite.voucherRepo.On("GetByID", ctx, suite.tenantID, voucher.ID).Return(voucher, nil)
	suite.voucherRepo.On("UpdateTx", ctx, mock.Anything, voucher, 1).Return(nil)
	suite.auditSvc.On("RecordTx", ctx, mock.Anything, suite.tenantID, &voucher.ID, models.AuditActionRejected,
		mock.Anything, mock.Anything, mock.Anything).Return(nil)
	suite.expectCommit()

	result, err := suite.service.Reject(ctx, voucher.ID, "insufficient documentation")

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), workflow.StateRejected.String(), result.Status)
	assert.Equal(suite.T(), "insufficient documentation", *result.RejectionReason)
}

func (suite *VoucherServiceTestSuite) TestCancel_TerminalStateRefused() {
	ctx := suite.ctxWithRole(workflow.RoleApprover)
	voucher := suite.pendingVoucher()
	voucher.Status = workflow.StateCompleted.String()

	suite.voucherRepo.On("GetByID", ctx, suite.tenantID, voucher.ID).Return(voucher, nil)

	_, err := suite.service.Cancel(ctx, voucher.ID, "no longer needed")

	assert.Equal(suite.T(), common.CodeInvalidTransition, common.CodeOf(err))
}

func (suite *VoucherServiceTestSuite) TestDelete_OnlyDraft() {
	ctx := suite.ctxWithRole(workflow.RoleClerk)
	voucher := suite.pendingVoucher()

	suite.voucherRepo.On("GetByID", ctx, suite.tenantID, voucher.ID).Return(voucher, nil)

	err := suite.service.Delete(ctx, voucher.ID)

	assert.Equal(suite.T(), common.CodeInvalidTransition, common.CodeOf(err))
	suite.voucherRepo.AssertNotCalled(suite.T(), "DeleteTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *VoucherServiceTestSuite) TestDelete_DraftSuccess() {
	ctx := suite.ctxWithRole(workflow.RoleClerk)
	voucher := suite.pendingVoucher()
	voucher.Status = workflow.StateDraft.String()

	suite.voucherRepo.On("GetByID", ctx, suite.tenantID, voucher.ID).Return(voucher, nil)
	suite.voucherRepo.On("DeleteTx", ctx, mock.Anything, suite.tenantID, voucher.ID, 1).Return(nil)
	suite.auditSvc.On("RecordTx", ctx, mock.Anything, suite.tenantID, &voucher.ID, models.AuditActionDeleted,
		mock.Anything, (*string)(nil), models.JSONB(nil)).Return(nil)
	suite.expectCommit()

	err := suite.service.Delete(ctx, voucher.ID)

	assert.NoError(suite.T(), err)
	suite.voucherRepo.AssertExpectations(suite.T())
}

func (suite *VoucherServiceTestSuite) TestRequestCode_MetersSMSCredits() {
	ctx := suite.ctxWithRole(workflow.RoleApprover)
	voucher := suite.pendingVoucher()
	voucher.Status = workflow.StateApproved.String()

	suite.voucherRepo.On("GetByID", ctx, suite.tenantID, voucher.ID).Return(voucher, nil)
	suite.licenseSvc.On("Authorize", ctx, suite.tenantID, models.CounterSMS, "10.0.0.1").
		Return(&models.License{Status: models.LicenseStatusActive}, nil)
	suite.otpSvc.On("RequestCode", ctx, "payee:"+voucher.PayeeID.String()).Return("session-1", nil)
	suite.voucherRepo.On("UpdateTx", ctx, mock.Anything, voucher, 1).Return(nil)
	suite.auditSvc.On("RecordTx", ctx, mock.Anything, suite.tenantID, &voucher.ID, models.AuditActionOTPSent,
		mock.Anything, mock.Anything, mock.Anything).Return(nil)
	suite.expectCommit()

	result, err := suite.service.RequestCode(ctx, voucher.ID)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "session-1", *result.OTPSessionID)
	assert.NotNil(suite.T(), result.OTPSentAt)
	suite.licenseSvc.AssertExpectations(suite.T())
}

func (suite *VoucherServiceTestSuite) TestRequestCode_SMSQuotaExhausted() {
	ctx := suite.ctxWithRole(workflow.RoleApprover)
	voucher := suite.pendingVoucher()
	voucher.Status = workflow.StateApproved.String()

	suite.voucherRepo.On("GetByID", ctx, suite.tenantID, voucher.ID).Return(voucher, nil)
	suite.licenseSvc.On("Authorize", ctx, suite.tenantID, models.CounterSMS, "10.0.0.1").
		Return(nil, common.ErrQuotaExceeded("SMS", "basic", 50))

	_, err := suite.service.RequestCode(ctx, voucher.ID)

	assert.Equal(suite.T(), common.CodeQuotaExceeded, common.CodeOf(err))
	suite.otpSvc.AssertNotCalled(suite.T(), "RequestCode", mock.Anything, mock.Anything)
}

func (suite *VoucherServiceTestSuite) TestConfirmCode_Success() {
	ctx := suite.ctxWithRole(workflow.RoleApprover)
	voucher := suite.pendingVoucher()
	voucher.Status = workflow.StateApproved.String()
	sentAt := time.Now().Add(-2 * time.Minute)
	voucher.OTPSessionID = stringPtr("session-1")
	voucher.OTPSentAt = &sentAt

	suite.voucherRepo.On("GetByID", ctx, suite.tenantID, voucher.ID).Return(voucher, nil)
	suite.otpSvc.On("VerifyCode", ctx, "session-1", "482913").Return(true, nil)
	suite.voucherRepo.On("UpdateTx", ctx, mock.Anything, voucher, 1).Return(nil)
	suite.auditSvc.On("RecordTx", ctx, mock.Anything, suite.tenantID, &voucher.ID, models.AuditActionCompleted,
		mock.Anything, mock.Anything, mock.Anything).Return(nil)
	suite.expectCommit()

	result, err := suite.service.ConfirmCode(ctx, voucher.ID, "482913")

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), workflow.StateCompleted.String(), result.Status)
	assert.NotNil(suite.T(), result.CompletedAt)
}

func (suite *VoucherServiceTestSuite) TestConfirmCode_ExpiredWindow() {
	ctx := suite.ctxWithRole(workflow.RoleApprover)
	voucher := suite.pendingVoucher()
	voucher.Status = workflow.StateApproved.String()
	sentAt := time.Now().Add(-11 * time.Minute)
	voucher.OTPSessionID = stringPtr("session-1")
	voucher.OTPSentAt = &sentAt

	suite.voucherRepo.On("GetByID", ctx, suite.tenantID, voucher.ID).Return(voucher, nil)

	_, err := suite.service.ConfirmCode(ctx, voucher.ID, "482913")

	assert.Equal(suite.T(), common.CodeOtpExpired, common.CodeOf(err))
	suite.otpSvc.AssertNotCalled(suite.T(), "VerifyCode", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *VoucherServiceTestSuite) TestConfirmCode_WrongCode() {
	ctx := suite.ctxWithRole(workflow.RoleApprover)
	voucher := suite.pendingVoucher()
	voucher.Status = workflow.StateApproved.String()
	sentAt := time.Now().Add(-time.Minute)
	voucher.OTPSessionID = stringPtr("session-1")
	voucher.OTPSentAt = &sentAt

	suite.voucherRepo.On("GetByID", ctx, suite.tenantID, voucher.ID).Return(voucher, nil)
	suite.otpSvc.On("VerifyCode", ctx, "session-1", "000000").Return(false, nil)

	_, err := suite.service.ConfirmCode(ctx, voucher.ID, "000000")

	assert.Equal(suite.T(), common.CodeOtpInvalid, common.CodeOf(err))
	suite.voucherRepo.AssertNotCalled(suite.T(), "UpdateTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *VoucherServiceTestSuite) TestConfirmCode_NoSessionRequested() {
	ctx := suite.ctxWithRole(workflow.RoleApprover)
	voucher := suite.pendingVoucher()
	voucher.Status = workflow.StateApproved.String()

	suite.voucherRepo.On("GetByID", ctx, suite.tenantID, voucher.ID).Return(voucher, nil)

	_, err := suite.service.ConfirmCode(ctx, voucher.ID, "482913")

	assert.Equal(suite.T(), common.CodeOtpInvalid, common.CodeOf(err))
}

func (suite *VoucherServiceTestSuite) TestVerifySignature_MismatchRaisesSecurityEvent() {
	ctx := suite.ctxWithRole(workflow.RoleAuditor)
	voucher := suite.pendingVoucher()

	suite.voucherRepo.On("GetByID", ctx, suite.tenantID, voucher.ID).Return(voucher, nil)
	suite.signatureSvc.On("Verify", ctx, voucher).Return(false, nil)
	suite.auditSvc.On("RecordSecurityEvent", ctx, suite.tenantID, &voucher.ID,
		models.AuditActionTampering, mock.Anything).Return(nil)

	valid, err := suite.service.VerifySignature(ctx, voucher.ID)

	assert.NoError(suite.T(), err)
	assert.False(suite.T(), valid)
	suite.auditSvc.AssertExpectations(suite.T())
}

func (suite *VoucherServiceTestSuite) TestPublicSignatureStatus_ExposesPrefixOnly() {
	voucher := suite.pendingVoucher()

	suite.voucherRepo.On("GetAnyByID", mock.Anything, voucher.ID).Return(voucher, nil)

	status, err := suite.service.PublicSignatureStatus(context.Background(), voucher.ID)

	assert.NoError(suite.T(), err)
	assert.True(suite.T(), status.Signed)
	assert.Len(suite.T(), status.SignaturePrefix, 8)
	assert.Equal(suite.T(), (*voucher.DigitalSignature)[:8], status.SignaturePrefix)
}

func (suite *VoucherServiceTestSuite) TestPublicSignatureStatus_TruncatedStoredSignature() {
	voucher := suite.pendingVoucher()
	short := "ab12"
	voucher.DigitalSignature = &short

	suite.voucherRepo.On("GetAnyByID", mock.Anything, voucher.ID).Return(voucher, nil)

	status, err := suite.service.PublicSignatureStatus(context.Background(), voucher.ID)

	assert.NoError(suite.T(), err)
	assert.True(suite.T(), status.Signed)
	assert.Empty(suite.T(), status.SignaturePrefix)
}

func TestVoucherServiceTestSuite(t *testing.T) {
	suite.Run(t, new(VoucherServiceTestSuite))
}
