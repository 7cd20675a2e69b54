package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"furnibles/internal/app/reviews/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ratingRepository struct {
	products *mongo.Collection
	sellers  *mongo.Collection
}

// NewRatingRepository создает репозиторий агрегированных рейтингов.
// Рейтинги хранятся по одному документу на товар/продавца,
// ключом служит _id, отдельных индексов не нужно.
func NewRatingRepository(db *mongo.Database) RatingRepository {
	return &ratingRepository{
		products: db.Collection("product_ratings"),
		sellers:  db.Collection("seller_ratings"),
	}
}

// UpsertProductRating записывает пересчитанный рейтинг товара
func (r *ratingRepository) UpsertProductRating(ctx context.Context, rating *entity.ProductRating) error {
	rating.UpdatedAt = time.Now()

	filter := bson.M{"_id": rating.ProductID}
	update := bson.M{
		"$set": bson.M{
			"total_reviews":       rating.TotalReviews,
			"average_rating":      rating.AverageRating,
			"histogram":           rating.Histogram,
			"recommendation_rate": rating.RecommendationRate,
			"updated_at":          rating.UpdatedAt,
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.products.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert product rating: %w", err)
	}

	return nil
}

// GetProductRating получает рейтинг товара
func (r *ratingRepository) GetProductRating(ctx context.Context, productID string) (*entity.ProductRating, error) {
	var rating entity.ProductRating
	err := r.products.FindOne(ctx, bson.M{"_id": productID}).Decode(&rating)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRatingNotFound
		}
		return nil, fmt.Errorf("failed to get product rating: %w", err)
	}

	return &rating, nil
}

// UpsertSellerRating записывает пересчитанный рейтинг продавца
func (r *ratingRepository) UpsertSellerRating(ctx context.Context, rating *entity.SellerRating) error {
	rating.UpdatedAt = time.Now()

	filter := bson.M{"_id": rating.SellerID}
	update := bson.M{
		"$set": bson.M{
			"total_reviews":       rating.TotalReviews,
			"average_rating":      rating.AverageRating,
			"histogram":           rating.Histogram,
			"recommendation_rate": rating.RecommendationRate,
			"updated_at":          rating.UpdatedAt,
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.sellers.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert seller rating: %w", err)
	}

	return nil
}

// GetSellerRating получает рейтинг продавца
func (r *ratingRepository) GetSellerRating(ctx context.Context, sellerID string) (*entity.SellerRating, error) {
	var rating entity.SellerRating
	err := r.sellers.FindOne(ctx, bson.M{"_id": sellerID}).Decode(&rating)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRatingNotFound
		}
		return nil, fmt.Errorf("failed to get seller rating: %w", err)
	}

	return &rating, nil
}
