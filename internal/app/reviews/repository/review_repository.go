package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"furnibles/internal/app/reviews/entity"
	"furnibles/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type reviewRepository struct {
	collection *mongo.Collection
}

// NewReviewRepository создает новый репозиторий отзывов.
// Уникальный индекс (buyer_id, product_id) - защита от дублей
// при конкурентном создании, составные индексы ускоряют выборки
// по товару и продавцу.
func NewReviewRepository(db *mongo.Database) ReviewRepository {
	collection := db.Collection("reviews")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "buyer_id", Value: 1},
				{Key: "product_id", Value: 1},
			},
			Options: options.Index().SetName("buyer_product_unique_idx").SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "product_id", Value: 1},
				{Key: "status", Value: 1},
			},
			Options: options.Index().SetName("product_status_idx"),
		},
		{
			Keys: bson.D{
				{Key: "seller_id", Value: 1},
				{Key: "status", Value: 1},
			},
			Options: options.Index().SetName("seller_status_idx"),
		},
	}

	// Ошибка не прерывает работу - индексы могут уже существовать
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Warn().Err(err).Msg("Failed to create review indexes")
	}

	return &reviewRepository{
		collection: collection,
	}
}

// Create создает новый отзыв в MongoDB.
// Нарушение уникального индекса (buyer_id, product_id) возвращает ErrDuplicateReview.
func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) error {
	review.CreatedAt = time.Now()
	review.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, review)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateReview
		}
		return fmt.Errorf("failed to create review: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		review.ID = oid
	}

	return nil
}

// GetByID получает отзыв по ID
func (r *reviewRepository) GetByID(ctx context.Context, id string) (*entity.Review, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrReviewNotFound
	}

	var review entity.Review
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&review)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return &review, nil
}

// GetByBuyerAndProduct получает отзыв покупателя о товаре
func (r *reviewRepository) GetByBuyerAndProduct(ctx context.Context, buyerID, productID string) (*entity.Review, error) {
	filter := bson.M{"buyer_id": buyerID, "product_id": productID}

	var review entity.Review
	err := r.collection.FindOne(ctx, filter).Decode(&review)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return &review, nil
}

// GetPublishedByProductID получает опубликованные отзывы по товару,
// новые сверху. Использует индекс product_status_idx.
func (r *reviewRepository) GetPublishedByProductID(ctx context.Context, productID string) ([]entity.Review, error) {
	filter := bson.M{"product_id": productID, "status": entity.ReviewStatusPublished}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	return r.findReviews(ctx, filter, opts)
}

// GetByBuyerID получает все отзывы покупателя
func (r *reviewRepository) GetByBuyerID(ctx context.Context, buyerID string) ([]entity.Review, error) {
	filter := bson.M{"buyer_id": buyerID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	return r.findReviews(ctx, filter, opts)
}

// Update обновляет содержимое и статус отзыва
func (r *reviewRepository) Update(ctx context.Context, review *entity.Review) error {
	review.UpdatedAt = time.Now()

	filter := bson.M{"_id": review.ID}
	update := bson.M{
		"$set": bson.M{
			"rating":     review.Rating,
			"title":      review.Title,
			"comment":    review.Comment,
			"pros":       review.Pros,
			"cons":       review.Cons,
			"status":     review.Status,
			"updated_at": review.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrReviewNotFound
	}

	return nil
}

// UpdateVoteCounts записывает пересчитанные счётчики голосов
func (r *reviewRepository) UpdateVoteCounts(ctx context.Context, id primitive.ObjectID, helpful, notHelpful int64) error {
	filter := bson.M{"_id": id}
	update := bson.M{
		"$set": bson.M{
			"helpful_count":     helpful,
			"not_helpful_count": notHelpful,
			"updated_at":        time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update vote counts: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrReviewNotFound
	}

	return nil
}

// ListPublishedByProduct возвращает опубликованные отзывы товара для пересчёта агрегатов
func (r *reviewRepository) ListPublishedByProduct(ctx context.Context, productID string) ([]entity.Review, error) {
	filter := bson.M{"product_id": productID, "status": entity.ReviewStatusPublished}
	return r.findReviews(ctx, filter, options.Find())
}

// ListPublishedBySeller возвращает опубликованные отзывы продавца для пересчёта агрегатов
func (r *reviewRepository) ListPublishedBySeller(ctx context.Context, sellerID string) ([]entity.Review, error) {
	filter := bson.M{"seller_id": sellerID, "status": entity.ReviewStatusPublished}
	return r.findReviews(ctx, filter, options.Find())
}

func (r *reviewRepository) findReviews(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]entity.Review, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reviews: %w", err)
	}
	defer cursor.Close(ctx)

	var reviews []entity.Review
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}

	return reviews, nil
}
