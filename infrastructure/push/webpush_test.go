package push

import (
	"chat-rooms/domain/notification"
	"chat-rooms/errors"
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func browserSubscription(t *testing.T, endpoint string) notification.Subscription {
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	auth := make([]byte, 16)
	_, err = rand.Read(auth)
	require.NoError(t, err)
	return notification.Subscription{
		Endpoint: endpoint,
		Keys: notification.Keys{
			P256dh: base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
			Auth:   base64.RawURLEncoding.EncodeToString(auth),
		},
	}
}

func newPusher(t *testing.T) *WebPusher {
	vapid, err := GenerateVAPID()
	require.NoError(t, err)
	vapid.Subject = "mailto:admin@chat.example"
	return NewWebPusher(logs.GetLoggerFromLevel(slog.LevelDebug), http.DefaultClient, vapid, time.Hour)
}

func TestWebPusher_Push_Accepted(t *testing.T) {
	req := require.New(t)
	var authorization atomic.Value
	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer endpoint.Close()

	pusher := newPusher(t)
	req.Equal("admin@chat.example", pusher.vapid.Subject)

	err := pusher.Push(context.Background(), browserSubscription(t, endpoint.URL), []byte(`{"title":"Team","body":"alice: hi"}`))
	req.NoError(err)
	req.True(strings.HasPrefix(authorization.Load().(string), "vapid "))
}

func TestWebPusher_Push_Gone(t *testing.T) {
	req := require.New(t)
	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer endpoint.Close()

	err := newPusher(t).Push(context.Background(), browserSubscription(t, endpoint.URL), []byte(`{}`))
	req.ErrorIs(err, errors.ErrDeliveryFailure)
}

func TestWebPusher_Push_Unreachable(t *testing.T) {
	req := require.New(t)
	endpoint := httptest.NewServer(http.NotFoundHandler())
	url := endpoint.URL
	endpoint.Close()

	err := newPusher(t).Push(context.Background(), browserSubscription(t, url), []byte(`{}`))
	req.ErrorIs(err, errors.ErrDeliveryFailure)
}

func TestGenerateVAPID(t *testing.T) {
	req := require.New(t)
	vapid, err := GenerateVAPID()
	req.NoError(err)
	req.NotEmpty(vapid.PublicKey)
	req.NotEmpty(vapid.PrivateKey)
	req.NotEqual(vapid.PublicKey, vapid.PrivateKey)
}
