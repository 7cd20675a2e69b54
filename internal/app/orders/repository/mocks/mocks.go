package mocks

import (
	"context"

	"furnibles/internal/app/orders/entity"
	"furnibles/internal/app/orders/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockOrderRepository мок для OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *entity.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByOrderNumber(ctx context.Context, number string, forUpdate bool) (*entity.Order, error) {
	args := m.Called(ctx, number, forUpdate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByBuyerID(ctx context.Context, buyerID uuid.UUID) ([]entity.Order, error) {
	args := m.Called(ctx, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, order *entity.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) FindCompletedPurchase(ctx context.Context, buyerID, productID uuid.UUID) (*entity.Order, *entity.OrderItem, error) {
	args := m.Called(ctx, buyerID, productID)
	var order *entity.Order
	var item *entity.OrderItem
	if args.Get(0) != nil {
		order = args.Get(0).(*entity.Order)
	}
	if args.Get(1) != nil {
		item = args.Get(1).(*entity.OrderItem)
	}
	return order, item, args.Error(2)
}

// MockCartRepository мок для CartRepository
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) Upsert(ctx context.Context, item *entity.CartItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockCartRepository) GetByBuyerID(ctx context.Context, buyerID uuid.UUID) ([]entity.CartItem, error) {
	args := m.Called(ctx, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.CartItem), args.Error(1)
}

func (m *MockCartRepository) Remove(ctx context.Context, buyerID, productID uuid.UUID) error {
	args := m.Called(ctx, buyerID, productID)
	return args.Error(0)
}

func (m *MockCartRepository) Clear(ctx context.Context, buyerID uuid.UUID) error {
	args := m.Called(ctx, buyerID)
	return args.Error(0)
}

// MockDownloadTokenRepository мок для DownloadTokenRepository
type MockDownloadTokenRepository struct {
	mock.Mock
}

func (m *MockDownloadTokenRepository) Create(ctx context.Context, token *entity.DownloadToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockDownloadTokenRepository) GetByToken(ctx context.Context, token string) (*entity.DownloadToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.DownloadToken), args.Error(1)
}

func (m *MockDownloadTokenRepository) GetByOrderAndProduct(ctx context.Context, orderID, productID uuid.UUID) (*entity.DownloadToken, error) {
	args := m.Called(ctx, orderID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.DownloadToken), args.Error(1)
}

func (m *MockDownloadTokenRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]entity.DownloadToken, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.DownloadToken), args.Error(1)
}

func (m *MockDownloadTokenRepository) ConsumeDownload(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}

func (m *MockDownloadTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockTransactionRepository мок для TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) CreateBatch(ctx context.Context, transactions []entity.Transaction) error {
	args := m.Called(ctx, transactions)
	return args.Error(0)
}

func (m *MockTransactionRepository) ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]entity.Transaction, error) {
	args := m.Called(ctx, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Transaction), args.Error(1)
}

// MockStore мок для Store. InTx просто вызывает fn с тем же набором моков:
// достаточно для проверки бизнес-логики без реальной БД.
type MockStore struct {
	OrderRepo         *MockOrderRepository
	CartRepo          *MockCartRepository
	DownloadTokenRepo *MockDownloadTokenRepository
	TransactionRepo   *MockTransactionRepository
}

func NewMockStore() *MockStore {
	return &MockStore{
		OrderRepo:         new(MockOrderRepository),
		CartRepo:          new(MockCartRepository),
		DownloadTokenRepo: new(MockDownloadTokenRepository),
		TransactionRepo:   new(MockTransactionRepository),
	}
}

func (s *MockStore) Orders() repository.OrderRepository {
	return s.OrderRepo
}

func (s *MockStore) Carts() repository.CartRepository {
	return s.CartRepo
}

func (s *MockStore) DownloadTokens() repository.DownloadTokenRepository {
	return s.DownloadTokenRepo
}

func (s *MockStore) Transactions() repository.TransactionRepository {
	return s.TransactionRepo
}

func (s *MockStore) InTx(ctx context.Context, fn func(repository.Store) error) error {
	return fn(s)
}

func (s *MockStore) AssertExpectations(t mock.TestingT) {
	s.OrderRepo.AssertExpectations(t)
	s.CartRepo.AssertExpectations(t)
	s.DownloadTokenRepo.AssertExpectations(t)
	s.TransactionRepo.AssertExpectations(t)
}
