package services

import (
	"chat-rooms/domain/notification"
	"chat-rooms/errors"
	"chat-rooms/mocks"
	"context"
	stderrors "errors"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func validSubscription() notification.Subscription {
	return notification.Subscription{
		Endpoint: "https://fcm.googleapis.com/fcm/send/abc",
		Keys:     notification.Keys{P256dh: "BNc...", Auth: "tBH..."},
	}
}

func TestSubscriptionService_Save(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	subscriber := mocks.NewMockSubscriber(ctrl)
	service := NewSubscriptionService(log, subscriber, "public-key")

	subscriber.EXPECT().Subscribe(gomock.Any(), "bob", validSubscription()).Return(nil)

	req.NoError(service.Save(context.Background(), " bob ", validSubscription()))
	req.Equal("public-key", service.PublicKey())
}

func TestSubscriptionService_Save_Rejects_Invalid_Input(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	subscriber := mocks.NewMockSubscriber(ctrl)
	service := NewSubscriptionService(log, subscriber, "public-key")
	subscriber.EXPECT().Subscribe(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	noEndpoint := validSubscription()
	noEndpoint.Endpoint = ""
	badEndpoint := validSubscription()
	badEndpoint.Endpoint = "not a url"
	noKeys := validSubscription()
	noKeys.Keys = notification.Keys{}

	cases := map[string]struct {
		identity     string
		subscription notification.Subscription
	}{
		"missing identity": {"", validSubscription()},
		"missing endpoint": {"bob", noEndpoint},
		"invalid endpoint": {"bob", badEndpoint},
		"missing keys":     {"bob", noKeys},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := service.Save(context.Background(), tc.identity, tc.subscription)
			require.ErrorIs(t, err, errors.ErrInvalidPayload)
		})
	}
}

func TestSubscriptionService_Save_Store_Failure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	subscriber := mocks.NewMockSubscriber(ctrl)
	service := NewSubscriptionService(log, subscriber, "public-key")

	subscriber.EXPECT().Subscribe(gomock.Any(), gomock.Any(), gomock.Any()).Return(stderrors.New("disk full"))

	err := service.Save(context.Background(), "bob", validSubscription())
	req.ErrorIs(err, errors.ErrStoreFailure)
}
