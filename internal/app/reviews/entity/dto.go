package entity

// CreateReviewRequest - запрос на создание отзыва о купленном чертеже
type CreateReviewRequest struct {
	ProductID string   `json:"product_id" validate:"required,uuid"`
	Rating    int      `json:"rating" validate:"required,min=1,max=5"`
	Title     string   `json:"title" validate:"required,max=120"`
	Comment   string   `json:"comment" validate:"required,max=4000"`
	Pros      []string `json:"pros,omitempty" validate:"max=10,dive,max=200"`
	Cons      []string `json:"cons,omitempty" validate:"max=10,dive,max=200"`
}

// UpdateReviewRequest - запрос на изменение отзыва автором.
// Изменение заново проходит авто-модерацию.
type UpdateReviewRequest struct {
	Rating  int      `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Title   string   `json:"title,omitempty" validate:"omitempty,max=120"`
	Comment string   `json:"comment,omitempty" validate:"omitempty,max=4000"`
	Pros    []string `json:"pros,omitempty" validate:"max=10,dive,max=200"`
	Cons    []string `json:"cons,omitempty" validate:"max=10,dive,max=200"`
}

// ModerateReviewRequest - решение модератора по отзыву
type ModerateReviewRequest struct {
	Status ReviewStatus `json:"status" validate:"required,oneof=published flagged removed"`
}

// RespondToReviewRequest - ответ продавца на отзыв
type RespondToReviewRequest struct {
	Comment string `json:"comment" validate:"required,max=2000"`
}

// VoteReviewRequest - голос за полезность отзыва
type VoteReviewRequest struct {
	Vote VoteValue `json:"vote" validate:"required,oneof=helpful not_helpful"`
}

// ProductReviewsResponse - опубликованные отзывы с ответами продавца
type ProductReviewsResponse struct {
	Reviews   []Review                  `json:"reviews"`
	Responses map[string]ReviewResponse `json:"responses,omitempty"` // Ключ - hex ID отзыва
}

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse - стандартный ответ об успехе
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
