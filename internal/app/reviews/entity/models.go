package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReviewStatus представляет статусы отзыва в цикле модерации
type ReviewStatus string

const (
	ReviewStatusPending   ReviewStatus = "pending_moderation" // Ожидает авто-модерации
	ReviewStatusPublished ReviewStatus = "published"          // Опубликован, учитывается в рейтингах
	ReviewStatusFlagged   ReviewStatus = "flagged"            // Помечен для ручной модерации
	ReviewStatusRemoved   ReviewStatus = "removed"            // Снят модератором
)

// Review представляет отзыв покупателя о купленном чертеже.
// Создаётся только после подтверждённой покупки,
// в рейтинги попадают только опубликованные отзывы.
type Review struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OrderID         string             `json:"order_id" bson:"order_id"`     // UUID заказа из Order Core
	ProductID       string             `json:"product_id" bson:"product_id"` // UUID товара
	BuyerID         string             `json:"buyer_id" bson:"buyer_id"`     // UUID покупателя из Auth
	SellerID        string             `json:"seller_id" bson:"seller_id"`   // UUID продавца
	Rating          int                `json:"rating" bson:"rating"`         // Оценка от 1 до 5
	Title           string             `json:"title" bson:"title"`
	Comment         string             `json:"comment" bson:"comment"`
	Pros            []string           `json:"pros,omitempty" bson:"pros,omitempty"`
	Cons            []string           `json:"cons,omitempty" bson:"cons,omitempty"`
	Status          ReviewStatus       `json:"status" bson:"status"`
	IsVerified      bool               `json:"is_verified" bson:"is_verified"` // Покупка подтверждена Order Core
	HelpfulCount    int64              `json:"helpful_count" bson:"helpful_count"`
	NotHelpfulCount int64              `json:"not_helpful_count" bson:"not_helpful_count"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}

// ReviewResponse представляет ответ продавца на отзыв.
// Не более одного ответа на отзыв, отвечает только продавец товара.
type ReviewResponse struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ReviewID  primitive.ObjectID `json:"review_id" bson:"review_id"`
	SellerID  string             `json:"seller_id" bson:"seller_id"`
	Comment   string             `json:"comment" bson:"comment"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// VoteValue представляет голос за полезность отзыва
type VoteValue string

const (
	VoteHelpful    VoteValue = "helpful"
	VoteNotHelpful VoteValue = "not_helpful"
)

// ReviewVote - голос пользователя за полезность отзыва.
// Одна запись на пару (отзыв, пользователь), повторный голос перезаписывает.
type ReviewVote struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ReviewID  primitive.ObjectID `json:"review_id" bson:"review_id"`
	UserID    string             `json:"user_id" bson:"user_id"`
	Vote      VoteValue          `json:"vote" bson:"vote"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// ProductRating - агрегированный рейтинг товара по опубликованным отзывам.
// RecommendationRate - доля отзывов с оценкой >= 4.
type ProductRating struct {
	ProductID          string    `json:"product_id" bson:"_id"`
	TotalReviews       int64     `json:"total_reviews" bson:"total_reviews"`
	AverageRating      float64   `json:"average_rating" bson:"average_rating"`
	Histogram          [5]int64  `json:"histogram" bson:"histogram"` // Индекс 0 = одна звезда
	RecommendationRate float64   `json:"recommendation_rate" bson:"recommendation_rate"`
	UpdatedAt          time.Time `json:"updated_at" bson:"updated_at"`
}

// SellerRating - агрегированный рейтинг продавца по опубликованным отзывам
type SellerRating struct {
	SellerID           string    `json:"seller_id" bson:"_id"`
	TotalReviews       int64     `json:"total_reviews" bson:"total_reviews"`
	AverageRating      float64   `json:"average_rating" bson:"average_rating"`
	Histogram          [5]int64  `json:"histogram" bson:"histogram"`
	RecommendationRate float64   `json:"recommendation_rate" bson:"recommendation_rate"`
	UpdatedAt          time.Time `json:"updated_at" bson:"updated_at"`
}

// ReviewEvent представляет событие отзыва для Kafka
type ReviewEvent struct {
	EventType string       `json:"event_type"` // REVIEW_PUBLISHED, REVIEW_MODERATED
	ReviewID  string       `json:"review_id"`
	ProductID string       `json:"product_id"`
	SellerID  string       `json:"seller_id"`
	BuyerID   string       `json:"buyer_id"`
	Rating    int          `json:"rating"`
	Status    ReviewStatus `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
}
