package service

import "errors"

var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrNotPurchased    = errors.New("no completed purchase of this product")
	ErrDuplicateReview = errors.New("review already exists for this product")
	ErrNotAuthor       = errors.New("review belongs to another user")
	ErrNotSeller       = errors.New("only the seller of the product can respond")
	ErrRatingNotFound  = errors.New("rating not found")
)
