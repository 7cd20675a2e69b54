package service

import "errors"

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrOrderNotPayable      = errors.New("order is not awaiting payment")
	ErrOrderNotCancellable  = errors.New("order cannot be cancelled")
	ErrForbidden            = errors.New("order belongs to another user")
	ErrDownloadNotFound     = errors.New("download token not found")
	ErrDownloadExpired      = errors.New("download token expired")
	ErrDownloadLimitReached = errors.New("download limit reached")
	ErrNotPurchased         = errors.New("no completed purchase of this product")
)
