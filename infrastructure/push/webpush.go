// Package push delivers notifications through the Web Push protocol with VAPID.
package push

import (
	"chat-rooms/contract"
	"chat-rooms/domain/notification"
	"chat-rooms/errors"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
)

var _ contract.Pusher = (*WebPusher)(nil)

type VAPID struct {
	PublicKey  string
	PrivateKey string
	// Subject is the contact address given to push services.
	Subject string
}

// WebPusher sends one encrypted payload per call. It never retries.
type WebPusher struct {
	log    *slog.Logger
	client *http.Client
	vapid  VAPID
	ttl    time.Duration
}

func NewWebPusher(log *slog.Logger, client *http.Client, vapid VAPID, ttl time.Duration) *WebPusher {
	vapid.Subject = strings.TrimPrefix(vapid.Subject, "mailto:")
	return &WebPusher{log: log, client: client, vapid: vapid, ttl: ttl}
}

// Push reports any transport error or non-2xx answer as a delivery failure.
func (p *WebPusher) Push(ctx context.Context, subscription notification.Subscription, payload []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: subscription.Endpoint,
		Keys: webpush.Keys{
			P256dh: subscription.Keys.P256dh,
			Auth:   subscription.Keys.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      p.client,
		Subscriber:      p.vapid.Subject,
		TTL:             int(p.ttl.Seconds()),
		VAPIDPublicKey:  p.vapid.PublicKey,
		VAPIDPrivateKey: p.vapid.PrivateKey,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrDeliveryFailure, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: push service answered %d", errors.ErrDeliveryFailure, resp.StatusCode)
	}
	p.log.Debug("Push accepted", "status", resp.StatusCode)
	return nil
}

// GenerateVAPID creates a fresh application server key pair.
func GenerateVAPID() (VAPID, error) {
	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		return VAPID{}, err
	}
	return VAPID{PublicKey: publicKey, PrivateKey: privateKey}, nil
}
