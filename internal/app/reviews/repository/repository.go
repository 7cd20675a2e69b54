package repository

import (
	"context"
	"errors"

	"furnibles/internal/app/reviews/entity"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// Стандартные ошибки репозитория для обработки в service layer
	ErrReviewNotFound   = errors.New("review not found")
	ErrDuplicateReview  = errors.New("review already exists for this buyer and product")
	ErrResponseNotFound = errors.New("review response not found")
	ErrRatingNotFound   = errors.New("rating not found")
)

type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	GetByID(ctx context.Context, id string) (*entity.Review, error)
	GetByBuyerAndProduct(ctx context.Context, buyerID, productID string) (*entity.Review, error)
	GetPublishedByProductID(ctx context.Context, productID string) ([]entity.Review, error)
	GetByBuyerID(ctx context.Context, buyerID string) ([]entity.Review, error)
	Update(ctx context.Context, review *entity.Review) error
	UpdateVoteCounts(ctx context.Context, id primitive.ObjectID, helpful, notHelpful int64) error
	// ListPublished возвращает опубликованные отзывы по фильтру
	// product_id или seller_id для пересчёта агрегатов
	ListPublishedByProduct(ctx context.Context, productID string) ([]entity.Review, error)
	ListPublishedBySeller(ctx context.Context, sellerID string) ([]entity.Review, error)
}

type ResponseRepository interface {
	// Upsert создает или обновляет ответ продавца, один ответ на отзыв
	Upsert(ctx context.Context, response *entity.ReviewResponse) error
	GetByReviewID(ctx context.Context, reviewID primitive.ObjectID) (*entity.ReviewResponse, error)
	GetByReviewIDs(ctx context.Context, reviewIDs []primitive.ObjectID) ([]entity.ReviewResponse, error)
}

type VoteRepository interface {
	// Upsert записывает голос, перезаписывая предыдущий голос пользователя
	Upsert(ctx context.Context, vote *entity.ReviewVote) error
	// CountByReview считает голоса каждого типа по отзыву
	CountByReview(ctx context.Context, reviewID primitive.ObjectID) (helpful, notHelpful int64, err error)
}

type RatingRepository interface {
	UpsertProductRating(ctx context.Context, rating *entity.ProductRating) error
	GetProductRating(ctx context.Context, productID string) (*entity.ProductRating, error)
	UpsertSellerRating(ctx context.Context, rating *entity.SellerRating) error
	GetSellerRating(ctx context.Context, sellerID string) (*entity.SellerRating, error)
}
