package repository

import (
	"context"
	"fmt"
	"time"

	"furnibles/internal/app/reviews/entity"
	"furnibles/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type voteRepository struct {
	collection *mongo.Collection
}

// NewVoteRepository создает репозиторий голосов за полезность.
// Уникальный индекс (review_id, user_id) - один голос на пользователя,
// повторный голос перезаписывает предыдущий через upsert.
func NewVoteRepository(db *mongo.Database) VoteRepository {
	collection := db.Collection("review_votes")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "review_id", Value: 1},
			{Key: "user_id", Value: 1},
		},
		Options: options.Index().SetName("review_user_unique_idx").SetUnique(true),
	}

	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		logger.Warn().Err(err).Msg("Failed to create review vote index")
	}

	return &voteRepository{
		collection: collection,
	}
}

// Upsert записывает голос пользователя, перезаписывая предыдущий
func (r *voteRepository) Upsert(ctx context.Context, vote *entity.ReviewVote) error {
	now := time.Now()
	vote.UpdatedAt = now

	filter := bson.M{"review_id": vote.ReviewID, "user_id": vote.UserID}
	update := bson.M{
		"$set": bson.M{
			"vote":       vote.Vote,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"created_at": now,
		},
	}

	opts := options.Update().SetUpsert(true)
	result, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert review vote: %w", err)
	}

	if oid, ok := result.UpsertedID.(primitive.ObjectID); ok {
		vote.ID = oid
		vote.CreatedAt = now
	}

	return nil
}

// CountByReview считает голоса каждого типа по отзыву.
// Счётчики всегда пересчитываются от множества голосов,
// инкрементов "на месте" нет - повторный голос не задваивается.
func (r *voteRepository) CountByReview(ctx context.Context, reviewID primitive.ObjectID) (int64, int64, error) {
	helpful, err := r.collection.CountDocuments(ctx, bson.M{
		"review_id": reviewID,
		"vote":      entity.VoteHelpful,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count helpful votes: %w", err)
	}

	notHelpful, err := r.collection.CountDocuments(ctx, bson.M{
		"review_id": reviewID,
		"vote":      entity.VoteNotHelpful,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count not helpful votes: %w", err)
	}

	return helpful, notHelpful, nil
}
