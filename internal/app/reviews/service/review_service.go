package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	ordersservice "furnibles/internal/app/orders/service"
	"furnibles/internal/app/reviews/entity"
	"furnibles/internal/app/reviews/repository"
	"furnibles/internal/infrastructure"
	"furnibles/pkg/logger"
	"furnibles/pkg/metrics"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// bannedTerms - стоп-слова авто-модерации. Отзыв с любым из них
// помечается flagged и ждёт ручного решения модератора.
var bannedTerms = []string{
	"scam",
	"fraud",
	"counterfeit",
	"stolen",
	"spam",
}

// ReviewService обрабатывает бизнес-логику отзывов и рейтингов.
// Координирует репозитории MongoDB, проверку покупок в Order Core и Kafka.
type ReviewService struct {
	reviewRepo    repository.ReviewRepository
	responseRepo  repository.ResponseRepository
	voteRepo      repository.VoteRepository
	ratingRepo    repository.RatingRepository
	purchases     PurchaseVerifier
	kafkaProducer infrastructure.MessagePublisher
}

// NewReviewService создает новый сервис отзывов с внедрением зависимостей
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	responseRepo repository.ResponseRepository,
	voteRepo repository.VoteRepository,
	ratingRepo repository.RatingRepository,
	purchases PurchaseVerifier,
	kafkaProducer infrastructure.MessagePublisher,
) *ReviewService {
	return &ReviewService{
		reviewRepo:    reviewRepo,
		responseRepo:  responseRepo,
		voteRepo:      voteRepo,
		ratingRepo:    ratingRepo,
		purchases:     purchases,
		kafkaProducer: kafkaProducer,
	}
}

// CreateReview создает отзыв о купленном чертеже.
// 1. Проверяет завершённую покупку через Order Core
// 2. Отклоняет повторный отзыв той же пары (покупатель, товар)
// 3. Прогоняет авто-модерацию: published или flagged
// 4. При публикации пересчитывает рейтинги товара и продавца
func (s *ReviewService) CreateReview(ctx context.Context, buyerID uuid.UUID, req *entity.CreateReviewRequest) (*entity.Review, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, ErrNotPurchased
	}

	order, item, err := s.purchases.VerifyPurchase(ctx, buyerID, productID)
	if err != nil {
		// Отказ в праве на отзыв - только при отсутствии покупки;
		// сбой хранилища заказов не маскируем под 403
		if errors.Is(err, ordersservice.ErrNotPurchased) {
			return nil, ErrNotPurchased
		}
		return nil, fmt.Errorf("failed to verify purchase: %w", err)
	}

	review := &entity.Review{
		OrderID:    order.ID.String(),
		ProductID:  req.ProductID,
		BuyerID:    buyerID.String(),
		SellerID:   item.SellerID.String(),
		Rating:     req.Rating,
		Title:      req.Title,
		Comment:    req.Comment,
		Pros:       req.Pros,
		Cons:       req.Cons,
		IsVerified: true,
		Status:     entity.ReviewStatusPending,
	}
	// Авто-модерация разрешает pending синхронно, до записи в хранилище
	review.Status = moderate(review)

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicateReview) {
			return nil, ErrDuplicateReview
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	metrics.ReviewsCreated.Inc()
	metrics.ReviewsModerated.WithLabelValues(string(review.Status)).Inc()

	if review.Status == entity.ReviewStatusPublished {
		s.recomputeRatings(ctx, review.ProductID, review.SellerID)
		s.publishReviewEvent(ctx, "REVIEW_PUBLISHED", review)
	}

	return review, nil
}

// UpdateReview обновляет отзыв автора.
// Изменённый текст заново проходит авто-модерацию, рейтинги пересчитываются.
func (s *ReviewService) UpdateReview(ctx context.Context, reviewID string, buyerID uuid.UUID, req *entity.UpdateReviewRequest) (*entity.Review, error) {
	review, err := s.getReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	if review.BuyerID != buyerID.String() {
		return nil, ErrNotAuthor
	}

	// Обновляем только переданные поля
	if req.Rating > 0 {
		review.Rating = req.Rating
	}
	if req.Title != "" {
		review.Title = req.Title
	}
	if req.Comment != "" {
		review.Comment = req.Comment
	}
	if req.Pros != nil {
		review.Pros = req.Pros
	}
	if req.Cons != nil {
		review.Cons = req.Cons
	}

	wasPublished := review.Status == entity.ReviewStatusPublished
	review.Status = moderate(review)

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	metrics.ReviewsModerated.WithLabelValues(string(review.Status)).Inc()

	// Пересчёт нужен при любом изменении видимого отзыва:
	// публикация, снятие с публикации или смена оценки
	if wasPublished || review.Status == entity.ReviewStatusPublished {
		s.recomputeRatings(ctx, review.ProductID, review.SellerID)
	}

	if !wasPublished && review.Status == entity.ReviewStatusPublished {
		s.publishReviewEvent(ctx, "REVIEW_PUBLISHED", review)
	}

	return review, nil
}

// ModerateReview - явное решение модератора: publish, flag или remove.
// Рейтинги пересчитываются при любом переходе в published или из него.
func (s *ReviewService) ModerateReview(ctx context.Context, reviewID string, req *entity.ModerateReviewRequest) (*entity.Review, error) {
	review, err := s.getReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	wasPublished := review.Status == entity.ReviewStatusPublished
	review.Status = req.Status

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to moderate review: %w", err)
	}

	metrics.ReviewsModerated.WithLabelValues(string(review.Status)).Inc()

	isPublished := review.Status == entity.ReviewStatusPublished
	if wasPublished != isPublished {
		s.recomputeRatings(ctx, review.ProductID, review.SellerID)
	}

	s.publishReviewEvent(ctx, "REVIEW_MODERATED", review)

	return review, nil
}

// RespondToReview - ответ продавца на отзыв о его товаре.
// Upsert: повторный ответ заменяет предыдущий.
func (s *ReviewService) RespondToReview(ctx context.Context, reviewID string, sellerID uuid.UUID, req *entity.RespondToReviewRequest) (*entity.ReviewResponse, error) {
	review, err := s.getReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	if review.SellerID != sellerID.String() {
		return nil, ErrNotSeller
	}

	response := &entity.ReviewResponse{
		ReviewID: review.ID,
		SellerID: sellerID.String(),
		Comment:  req.Comment,
	}

	if err := s.responseRepo.Upsert(ctx, response); err != nil {
		return nil, fmt.Errorf("failed to save review response: %w", err)
	}

	return response, nil
}

// VoteReview записывает голос за полезность отзыва.
// Счётчики пересчитываются от множества голосов: повторный голос
// того же пользователя меняет значение, а не добавляет новый.
func (s *ReviewService) VoteReview(ctx context.Context, reviewID string, userID uuid.UUID, req *entity.VoteReviewRequest) (*entity.Review, error) {
	review, err := s.getReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	vote := &entity.ReviewVote{
		ReviewID: review.ID,
		UserID:   userID.String(),
		Vote:     req.Vote,
	}

	if err := s.voteRepo.Upsert(ctx, vote); err != nil {
		return nil, fmt.Errorf("failed to save vote: %w", err)
	}

	helpful, notHelpful, err := s.voteRepo.CountByReview(ctx, review.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}

	if err := s.reviewRepo.UpdateVoteCounts(ctx, review.ID, helpful, notHelpful); err != nil {
		return nil, fmt.Errorf("failed to update vote counts: %w", err)
	}

	metrics.ReviewVotes.WithLabelValues(string(req.Vote)).Inc()

	review.HelpfulCount = helpful
	review.NotHelpfulCount = notHelpful

	return review, nil
}

// GetProductReviews возвращает опубликованные отзывы товара с ответами продавца
func (s *ReviewService) GetProductReviews(ctx context.Context, productID string) (*entity.ProductReviewsResponse, error) {
	reviews, err := s.reviewRepo.GetPublishedByProductID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}

	result := &entity.ProductReviewsResponse{Reviews: reviews}
	if len(reviews) == 0 {
		return result, nil
	}

	reviewIDs := make([]primitive.ObjectID, 0, len(reviews))
	for i := range reviews {
		reviewIDs = append(reviewIDs, reviews[i].ID)
	}

	responses, err := s.responseRepo.GetByReviewIDs(ctx, reviewIDs)
	if err != nil {
		// Отзывы важнее ответов: отдаём их без ответов продавца
		logger.Warn().Err(err).Str("product_id", productID).Msg("Failed to load review responses")
		return result, nil
	}

	if len(responses) > 0 {
		result.Responses = make(map[string]entity.ReviewResponse, len(responses))
		for i := range responses {
			result.Responses[responses[i].ReviewID.Hex()] = responses[i]
		}
	}

	return result, nil
}

// GetProductRating возвращает агрегированный рейтинг товара
func (s *ReviewService) GetProductRating(ctx context.Context, productID string) (*entity.ProductRating, error) {
	rating, err := s.ratingRepo.GetProductRating(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrRatingNotFound) {
			return nil, ErrRatingNotFound
		}
		return nil, fmt.Errorf("failed to get product rating: %w", err)
	}
	return rating, nil
}

// GetSellerRating возвращает агрегированный рейтинг продавца
func (s *ReviewService) GetSellerRating(ctx context.Context, sellerID string) (*entity.SellerRating, error) {
	rating, err := s.ratingRepo.GetSellerRating(ctx, sellerID)
	if err != nil {
		if errors.Is(err, repository.ErrRatingNotFound) {
			return nil, ErrRatingNotFound
		}
		return nil, fmt.Errorf("failed to get seller rating: %w", err)
	}
	return rating, nil
}

// GetUserReviews возвращает все отзывы покупателя
func (s *ReviewService) GetUserReviews(ctx context.Context, buyerID uuid.UUID) ([]entity.Review, error) {
	reviews, err := s.reviewRepo.GetByBuyerID(ctx, buyerID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get user reviews: %w", err)
	}
	return reviews, nil
}

func (s *ReviewService) getReview(ctx context.Context, reviewID string) (*entity.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return review, nil
}

// moderate выполняет авто-модерацию: оценка в диапазоне и отсутствие
// стоп-слов публикуют отзыв, стоп-слово помечает его flagged
func moderate(review *entity.Review) entity.ReviewStatus {
	if review.Rating < 1 || review.Rating > 5 {
		return entity.ReviewStatusFlagged
	}

	texts := []string{review.Title, review.Comment}
	texts = append(texts, review.Pros...)
	texts = append(texts, review.Cons...)

	for _, text := range texts {
		lower := strings.ToLower(text)
		for _, term := range bannedTerms {
			if strings.Contains(lower, term) {
				return entity.ReviewStatusFlagged
			}
		}
	}

	return entity.ReviewStatusPublished
}

// recomputeRatings пересчитывает агрегаты товара и продавца одним проходом
// по опубликованным отзывам. Ошибки не прерывают вызвавшую операцию:
// рейтинг сойдётся при следующем пересчёте.
func (s *ReviewService) recomputeRatings(ctx context.Context, productID, sellerID string) {
	productReviews, err := s.reviewRepo.ListPublishedByProduct(ctx, productID)
	if err != nil {
		logger.Warn().Err(err).Str("product_id", productID).Msg("Failed to recompute product rating")
	} else {
		rating := &entity.ProductRating{ProductID: productID}
		fillAggregate(productReviews, &rating.TotalReviews, &rating.AverageRating, &rating.Histogram, &rating.RecommendationRate)
		if err := s.ratingRepo.UpsertProductRating(ctx, rating); err != nil {
			logger.Warn().Err(err).Str("product_id", productID).Msg("Failed to save product rating")
		}
	}

	sellerReviews, err := s.reviewRepo.ListPublishedBySeller(ctx, sellerID)
	if err != nil {
		logger.Warn().Err(err).Str("seller_id", sellerID).Msg("Failed to recompute seller rating")
		return
	}

	rating := &entity.SellerRating{SellerID: sellerID}
	fillAggregate(sellerReviews, &rating.TotalReviews, &rating.AverageRating, &rating.Histogram, &rating.RecommendationRate)
	if err := s.ratingRepo.UpsertSellerRating(ctx, rating); err != nil {
		logger.Warn().Err(err).Str("seller_id", sellerID).Msg("Failed to save seller rating")
	}
}

// fillAggregate считает количество, среднее, гистограмму и долю рекомендаций
// (оценка >= 4) за один проход по отзывам
func fillAggregate(reviews []entity.Review, total *int64, average *float64, histogram *[5]int64, recommendationRate *float64) {
	*total = int64(len(reviews))
	if *total == 0 {
		*average = 0
		*recommendationRate = 0
		return
	}

	var sum, recommended int64
	for i := range reviews {
		rating := reviews[i].Rating
		sum += int64(rating)
		if rating >= 1 && rating <= 5 {
			histogram[rating-1]++
		}
		if rating >= 4 {
			recommended++
		}
	}

	*average = float64(sum) / float64(*total)
	*recommendationRate = float64(recommended) / float64(*total)
}

// publishReviewEvent отправляет событие об отзыве в Kafka.
// Ошибки публикации не прерывают выполнение: отзыв уже сохранён.
func (s *ReviewService) publishReviewEvent(ctx context.Context, eventType string, review *entity.Review) {
	if s.kafkaProducer == nil {
		return
	}

	event := entity.ReviewEvent{
		EventType: eventType,
		ReviewID:  review.ID.Hex(),
		ProductID: review.ProductID,
		SellerID:  review.SellerID,
		BuyerID:   review.BuyerID,
		Rating:    review.Rating,
		Status:    review.Status,
		Timestamp: time.Now(),
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Str("event_type", eventType).Msg("Failed to marshal review event")
		return
	}

	// Ключ = ReviewID для партиционирования
	if err := s.kafkaProducer.PublishMessage(ctx, event.ReviewID, eventData); err != nil {
		logger.Warn().Err(err).Str("event_type", eventType).Str("review_id", event.ReviewID).Msg("Failed to publish review event")
	}
}
