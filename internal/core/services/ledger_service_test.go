package services_test

import (
	"testing"

	"github.com/manan0901/Vibecoder-sub000/internal/apperrors"
	"github.com/manan0901/Vibecoder-sub000/internal/core/domain"
	"github.com/manan0901/Vibecoder-sub000/internal/dto"
	"github.com/stretchr/testify/suite"
)

type LedgerServiceTestSuite struct {
	PaymentTestSuite
}

func (suite *LedgerServiceTestSuite) TestGetStatus_ReadsThroughCache() {
	suite.openOrder("order_1")
	_, err := suite.settlement.MarkPaymentFailed(suite.ctx, "order_1", "pay_1", "card declined")
	suite.Require().NoError(err)

	first, err := suite.ledger.GetStatus(suite.ctx, "order_1")
	suite.Require().NoError(err)
	suite.Equal(domain.StatusFailed, first.Status)

	_, err = suite.ledger.GetStatus(suite.ctx, "order_1")
	suite.Require().NoError(err)
	suite.Equal(1, suite.cache.hits)
}

func (suite *LedgerServiceTestSuite) TestGetStatus_LiveRowsAreNotCached() {
	suite.openOrder("order_1")

	pending, err := suite.ledger.GetStatus(suite.ctx, "order_1")
	suite.Require().NoError(err)
	suite.Equal(domain.StatusPending, pending.Status)
	_, cached, err := suite.cache.Get(suite.ctx, "order_1")
	suite.Require().NoError(err)
	suite.False(cached)

	suite.capturedPayment("order_1", "pay_1")
	_, err = suite.settlement.Settle(suite.ctx, suite.settleRequest("order_1", "pay_1"))
	suite.Require().NoError(err)

	completed, err := suite.ledger.GetStatus(suite.ctx, "order_1")
	suite.Require().NoError(err)
	suite.Equal(domain.StatusCompleted, completed.Status)
	suite.Zero(suite.cache.hits)
}

func (suite *LedgerServiceTestSuite) TestGetStatus_InvalidatedBySettlement() {
	suite.openOrder("order_1")
	_, err := suite.ledger.GetStatus(suite.ctx, "order_1")
	suite.Require().NoError(err)

	suite.capturedPayment("order_1", "pay_1")
	_, err = suite.settlement.Settle(suite.ctx, suite.settleRequest("order_1", "pay_1"))
	suite.Require().NoError(err)

	got, err := suite.ledger.GetStatus(suite.ctx, "order_1")
	suite.Require().NoError(err)
	suite.Equal(domain.StatusCompleted, got.Status)
}

func (suite *LedgerServiceTestSuite) TestGetStatus_NotFound() {
	_, err := suite.ledger.GetStatus(suite.ctx, "missing")
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *LedgerServiceTestSuite) TestGetTransactionDetails_AccessControl() {
	suite.settled("order_1", "pay_1")

	buyerView, err := suite.ledger.GetTransactionDetails(suite.ctx, "order_1", suite.buyerID, domain.RoleBuyer)
	suite.Require().NoError(err)
	suite.Empty(childrenOfKind(buyerView.Children, domain.KindCommission), "buyers do not see the platform cut")

	sellerView, err := suite.ledger.GetTransactionDetails(suite.ctx, "order_1", suite.sellerID, domain.RoleSeller)
	suite.Require().NoError(err)
	suite.Len(childrenOfKind(sellerView.Children, domain.KindCommission), 1)

	adminView, err := suite.ledger.GetTransactionDetails(suite.ctx, "order_1", "admin-1", domain.RoleAdmin)
	suite.Require().NoError(err)
	suite.Len(adminView.Children, 1)

	_, err = suite.ledger.GetTransactionDetails(suite.ctx, "order_1", "stranger", domain.RoleBuyer)
	suite.ErrorIs(err, apperrors.ErrForbidden)
}

func (suite *LedgerServiceTestSuite) TestListTransactions() {
	suite.settled("order_1", "pay_1")

	buyerPage, err := suite.ledger.ListTransactions(suite.ctx, suite.buyerID, domain.RoleBuyer, dto.ListTransactionsParams{})
	suite.Require().NoError(err)
	suite.Equal(1, buyerPage.Total)
	suite.Equal(1, buyerPage.Page)
	suite.Equal(20, buyerPage.Limit)
	suite.Equal("order_1", buyerPage.Transactions[0].TransactionID)

	sellerPage, err := suite.ledger.ListTransactions(suite.ctx, suite.sellerID, domain.RoleSeller, dto.ListTransactionsParams{Page: 1, Limit: 1})
	suite.Require().NoError(err)
	suite.Equal(2, sellerPage.Total)
	suite.Len(sellerPage.Transactions, 1)
}

func (suite *LedgerServiceTestSuite) TestListTransactions_Validation() {
	_, err := suite.ledger.ListTransactions(suite.ctx, suite.buyerID, domain.RoleBuyer, dto.ListTransactionsParams{Limit: 101})
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.ledger.ListTransactions(suite.ctx, suite.buyerID, domain.UserRole("owner"), dto.ListTransactionsParams{})
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.ledger.ListTransactions(suite.ctx, "", domain.RoleSeller, dto.ListTransactionsParams{})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}
