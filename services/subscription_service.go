//go:generate go run go.uber.org/mock/mockgen -source=subscription_service.go -destination=../mocks/mock_subscription_service.go -package=mocks
package services

import (
	"chat-rooms/domain/notification"
	"chat-rooms/errors"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ISubscriptionService interface {
	PublicKey() string
	Save(ctx context.Context, identity string, subscription notification.Subscription) error
}

// Subscriber stores the push subscription of an identity.
type Subscriber interface {
	Subscribe(ctx context.Context, identity string, subscription notification.Subscription) error
}

type SubscriptionService struct {
	log        *slog.Logger
	subscriber Subscriber
	validate   *validator.Validate
	publicKey  string
}

func NewSubscriptionService(log *slog.Logger, subscriber Subscriber, publicKey string) *SubscriptionService {
	return &SubscriptionService{
		log:        log,
		subscriber: subscriber,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		publicKey:  publicKey,
	}
}

// PublicKey is the VAPID application server key handed to browsers.
func (s *SubscriptionService) PublicKey() string {
	return s.publicKey
}

// Save replaces any subscription previously stored for identity.
func (s *SubscriptionService) Save(ctx context.Context, identity string, subscription notification.Subscription) error {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return errors.Detailed(errors.ErrInvalidPayload, "Username is required")
	}
	if err := s.validate.Struct(subscription); err != nil {
		s.log.Debug("Rejected subscription", "identity", identity, "error", err)
		return errors.Detailed(errors.ErrInvalidPayload, "Invalid subscription")
	}
	if err := s.subscriber.Subscribe(ctx, identity, subscription); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStoreFailure, err)
	}
	s.log.Info("Subscription saved", "identity", identity)
	return nil
}
