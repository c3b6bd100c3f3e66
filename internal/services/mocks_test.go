package services

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockCheckoutClient struct {
	mock.Mock
}

func (m *MockCheckoutClient) CreateSession(ctx context.Context, p CheckoutParams) (*CheckoutRedirect, error) {
	args := m.Called(p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CheckoutRedirect), args.Error(1)
}

type MockCreditLedger struct {
	mock.Mock
}

func (m *MockCreditLedger) Credit(ctx context.Context, userID int, premium, amountCents int64, stripeSessionID string) (CreditOutcome, error) {
	args := m.Called(userID, premium, amountCents, stripeSessionID)
	return args.Get(0).(CreditOutcome), args.Error(1)
}
