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

type responseRepository struct {
	collection *mongo.Collection
}

// NewResponseRepository создает репозиторий ответов продавцов.
// Уникальный индекс по review_id гарантирует один ответ на отзыв.
func NewResponseRepository(db *mongo.Database) ResponseRepository {
	collection := db.Collection("review_responses")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "review_id", Value: 1}},
		Options: options.Index().SetName("review_id_unique_idx").SetUnique(true),
	}

	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		logger.Warn().Err(err).Msg("Failed to create review response index")
	}

	return &responseRepository{
		collection: collection,
	}
}

// Upsert создает или обновляет ответ продавца на отзыв
func (r *responseRepository) Upsert(ctx context.Context, response *entity.ReviewResponse) error {
	now := time.Now()
	response.UpdatedAt = now

	filter := bson.M{"review_id": response.ReviewID}
	update := bson.M{
		"$set": bson.M{
			"seller_id":  response.SellerID,
			"comment":    response.Comment,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"created_at": now,
		},
	}

	opts := options.Update().SetUpsert(true)
	result, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert review response: %w", err)
	}

	if oid, ok := result.UpsertedID.(primitive.ObjectID); ok {
		response.ID = oid
		response.CreatedAt = now
	}

	return nil
}

// GetByReviewID получает ответ продавца на отзыв
func (r *responseRepository) GetByReviewID(ctx context.Context, reviewID primitive.ObjectID) (*entity.ReviewResponse, error) {
	var response entity.ReviewResponse
	err := r.collection.FindOne(ctx, bson.M{"review_id": reviewID}).Decode(&response)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrResponseNotFound
		}
		return nil, fmt.Errorf("failed to get review response: %w", err)
	}

	return &response, nil
}

// GetByReviewIDs получает ответы продавцов на набор отзывов одним запросом
func (r *responseRepository) GetByReviewIDs(ctx context.Context, reviewIDs []primitive.ObjectID) ([]entity.ReviewResponse, error) {
	if len(reviewIDs) == 0 {
		return nil, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"review_id": bson.M{"$in": reviewIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to find review responses: %w", err)
	}
	defer cursor.Close(ctx)

	var responses []entity.ReviewResponse
	if err := cursor.All(ctx, &responses); err != nil {
		return nil, fmt.Errorf("failed to decode review responses: %w", err)
	}

	return responses, nil
}
