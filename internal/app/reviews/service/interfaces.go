package service

import (
	"context"

	ordersentity "furnibles/internal/app/orders/entity"
	"furnibles/internal/app/reviews/entity"

	"github.com/google/uuid"
)

// PurchaseVerifier проверяет завершённую покупку товара покупателем.
// Реализуется сервисом заказов: отзыв можно оставить только
// на купленный чертёж.
type PurchaseVerifier interface {
	VerifyPurchase(ctx context.Context, buyerID, productID uuid.UUID) (*ordersentity.Order, *ordersentity.OrderItem, error)
}

// ReviewServiceInterface определяет контракт сервиса отзывов
type ReviewServiceInterface interface {
	CreateReview(ctx context.Context, buyerID uuid.UUID, req *entity.CreateReviewRequest) (*entity.Review, error)
	UpdateReview(ctx context.Context, reviewID string, buyerID uuid.UUID, req *entity.UpdateReviewRequest) (*entity.Review, error)
	ModerateReview(ctx context.Context, reviewID string, req *entity.ModerateReviewRequest) (*entity.Review, error)
	RespondToReview(ctx context.Context, reviewID string, sellerID uuid.UUID, req *entity.RespondToReviewRequest) (*entity.ReviewResponse, error)
	VoteReview(ctx context.Context, reviewID string, userID uuid.UUID, req *entity.VoteReviewRequest) (*entity.Review, error)
	GetProductReviews(ctx context.Context, productID string) (*entity.ProductReviewsResponse, error)
	GetProductRating(ctx context.Context, productID string) (*entity.ProductRating, error)
	GetSellerRating(ctx context.Context, sellerID string) (*entity.SellerRating, error)
	GetUserReviews(ctx context.Context, buyerID uuid.UUID) ([]entity.Review, error)
}
