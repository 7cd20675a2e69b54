package infrastructure

import (
	"context"
)

// MessagePublisher публикует доменные события маркетплейса
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}
