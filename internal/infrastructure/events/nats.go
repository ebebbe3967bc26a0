package events

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/nats-io/nats.go/jetstream"

	"campus_auction/internal/domain/entity"
)

type StreamOptions struct {
	Name    string
	Subject string
	MaxAge  time.Duration
}

// JetStreamPublisher пишет события в durable-поток JetStream для архивации и аналитики.
type JetStreamPublisher struct {
	js      jetstream.JetStream
	subject string
}

// NewJetStreamPublisher создаёт поток, если его ещё нет.
func NewJetStreamPublisher(ctx context.Context, js jetstream.JetStream, opts StreamOptions) (*JetStreamPublisher, error) {
	if opts.Name == "" {
		opts.Name = "AUCTION_EVENTS"
	}
	if opts.Subject == "" {
		opts.Subject = "auction.events"
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 7 * 24 * time.Hour //nolint:mnd
	}

	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        opts.Name,
		Description: "Auction lifecycle events",
		Subjects:    []string{opts.Subject + ".>"},
		Storage:     jetstream.FileStorage,
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      opts.MaxAge,
		Replicas:    1,
	})
	if err != nil {
		return nil, fmt.Errorf("js.CreateOrUpdateStream: %w", err)
	}

	logger(ctx).Info("jetstream stream ready",
		slog.String("stream", opts.Name),
		slog.String("subject", opts.Subject),
	)

	return &JetStreamPublisher{js: js, subject: opts.Subject}, nil
}

// Subject возвращает тему события: <subject>.<type>.<item_id>.
func (p *JetStreamPublisher) Subject(event entity.AuctionEvent) string {
	return p.subject + "." + event.Type.String() + "." + strconv.FormatInt(event.ItemID, 10)
}

func (p *JetStreamPublisher) Publish(ctx context.Context, event entity.AuctionEvent) error {
	payload, err := jsoniter.Marshal(event)
	if err != nil {
		return fmt.Errorf("jsoniter.Marshal: %w", err)
	}

	// ID события служит ключом дедупликации JetStream.
	if _, err := p.js.Publish(ctx, p.Subject(event), payload, jetstream.WithMsgID(event.ID)); err != nil {
		return fmt.Errorf("js.Publish: %w", err)
	}

	return nil
}
