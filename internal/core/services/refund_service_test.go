package services_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/manan0901/Vibecoder-sub000/internal/apperrors"
	"github.com/manan0901/Vibecoder-sub000/internal/core/domain"
	"github.com/manan0901/Vibecoder-sub000/internal/core/ports/external"
	"github.com/manan0901/Vibecoder-sub000/internal/dto"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type RefundServiceTestSuite struct {
	PaymentTestSuite
}

func (suite *RefundServiceTestSuite) TestRefund_Full() {
	purchase := suite.settled("order_1", "pay_1")
	suite.expectRefund("pay_1", testPrice)

	res, err := suite.refunds.Refund(suite.ctx, purchase.TransactionID, dto.RefundRequest{Reason: "buyer request"}, "admin-1")

	suite.Require().NoError(err)
	suite.Equal(domain.StatusRefunded, res.Original.Status)
	suite.NotNil(res.Original.RefundedAt)
	suite.Equal(domain.KindRefund, res.Refund.Kind)
	suite.Equal(testPrice, res.Refund.Amount)
	suite.Equal(domain.StatusCompleted, res.Refund.Status)
	suite.Equal("order_1", *res.Refund.ParentTransactionID)
	suite.Equal("rfnd_pay_1", res.Refund.Metadata[domain.MetaGatewayRefundID])

	suite.Equal(domain.StatusRefunded, suite.row("order_1").Status)
	suite.Len(childrenOfKind(suite.children("order_1"), domain.KindRefund), 1)
	suite.notifier.AssertCalled(suite.T(), "Notify", mock.Anything, external.EventPurchaseRefunded, mock.Anything)
	suite.gateway.AssertExpectations(suite.T())
}

func (suite *RefundServiceTestSuite) TestRefund_Partial() {
	purchase := suite.settled("order_1", "pay_1")
	suite.expectRefund("pay_1", 100000)
	amount := int64(100000)

	res, err := suite.refunds.Refund(suite.ctx, purchase.TransactionID, dto.RefundRequest{Amount: &amount, Reason: "partial"}, "admin-1")

	suite.Require().NoError(err)
	suite.Equal(int64(100000), res.Refund.Amount)
	suite.Equal(domain.StatusRefunded, res.Original.Status)
	suite.Equal(testPrice, res.Original.Amount, "purchase amount is never rewritten")
}

func (suite *RefundServiceTestSuite) TestRefund_RejectsBadAmounts() {
	purchase := suite.settled("order_1", "pay_1")

	for _, amount := range []int64{0, -5, testPrice + 1} {
		suite.Run(fmt.Sprintf("amount %d", amount), func() {
			a := amount
			_, err := suite.refunds.Refund(suite.ctx, purchase.TransactionID, dto.RefundRequest{Amount: &a, Reason: "x"}, "admin-1")
			suite.ErrorIs(err, apperrors.ErrValidation)
		})
	}
	suite.gateway.AssertNotCalled(suite.T(), "Refund", mock.Anything, mock.Anything)
	suite.Equal(domain.StatusCompleted, suite.row("order_1").Status)
}

func (suite *RefundServiceTestSuite) TestRefund_AlreadyRefunded() {
	purchase := suite.settled("order_1", "pay_1")
	suite.expectRefund("pay_1", testPrice)
	_, err := suite.refunds.Refund(suite.ctx, purchase.TransactionID, dto.RefundRequest{Reason: "first"}, "admin-1")
	suite.Require().NoError(err)

	_, err = suite.refunds.Refund(suite.ctx, purchase.TransactionID, dto.RefundRequest{Reason: "second"}, "admin-1")

	suite.ErrorIs(err, domain.ErrAlreadyRefunded)
	suite.gateway.AssertNumberOfCalls(suite.T(), "Refund", 1)
	suite.Len(childrenOfKind(suite.children("order_1"), domain.KindRefund), 1)
}

func (suite *RefundServiceTestSuite) TestRefund_PendingPurchaseNotRefundable() {
	suite.openOrder("order_1")

	_, err := suite.refunds.Refund(suite.ctx, "order_1", dto.RefundRequest{Reason: "x"}, "admin-1")

	suite.ErrorIs(err, domain.ErrNotRefundable)
	suite.gateway.AssertNotCalled(suite.T(), "Refund", mock.Anything, mock.Anything)
}

func (suite *RefundServiceTestSuite) TestRefund_CommissionRowNotRefundable() {
	suite.settled("order_1", "pay_1")
	commissions := childrenOfKind(suite.children("order_1"), domain.KindCommission)
	suite.Require().Len(commissions, 1)

	_, err := suite.refunds.Refund(suite.ctx, commissions[0].TransactionID, dto.RefundRequest{Reason: "x"}, "admin-1")

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *RefundServiceTestSuite) TestRefund_NotFound() {
	_, err := suite.refunds.Refund(suite.ctx, "nope", dto.RefundRequest{Reason: "x"}, "admin-1")
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *RefundServiceTestSuite) TestRefund_GatewayRejectionKeepsPurchase() {
	purchase := suite.settled("order_1", "pay_1")
	suite.gateway.On("Refund", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("refund amount exceeds captured: %w", external.ErrGatewayRejected)).Once()

	_, err := suite.refunds.Refund(suite.ctx, purchase.TransactionID, dto.RefundRequest{Reason: "x"}, "admin-1")

	suite.ErrorIs(err, domain.ErrRefundRejected)
	suite.ErrorIs(err, apperrors.ErrRefund)
	suite.Equal(domain.StatusCompleted, suite.row("order_1").Status)
	suite.Empty(childrenOfKind(suite.children("order_1"), domain.KindRefund))
}

func (suite *RefundServiceTestSuite) TestRefund_GatewayOutage() {
	purchase := suite.settled("order_1", "pay_1")
	suite.gateway.On("Refund", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused")).Once()

	_, err := suite.refunds.Refund(suite.ctx, purchase.TransactionID, dto.RefundRequest{Reason: "x"}, "admin-1")

	suite.ErrorIs(err, apperrors.ErrGateway)
	suite.Equal(domain.StatusCompleted, suite.row("order_1").Status)
}

func TestRefundServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RefundServiceTestSuite))
}
