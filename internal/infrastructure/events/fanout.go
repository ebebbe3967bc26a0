package events

import (
	"context"
	"errors"
	"fmt"

	"campus_auction/internal/domain/entity"
	"campus_auction/internal/domain/service/auction"
)

type namedPublisher struct {
	name      string
	publisher auction.Publisher
}

// Fanout доставляет событие всем подключённым публикаторам. Ошибка одного
// не мешает остальным.
type Fanout struct {
	publishers []namedPublisher
}

func NewFanout() *Fanout {
	return &Fanout{}
}

func (f *Fanout) Add(name string, publisher auction.Publisher) *Fanout {
	f.publishers = append(f.publishers, namedPublisher{name: name, publisher: publisher})
	return f
}

func (f *Fanout) Len() int {
	return len(f.publishers)
}

func (f *Fanout) Publish(ctx context.Context, event entity.AuctionEvent) error {
	var errs []error

	for _, p := range f.publishers {
		if err := p.publisher.Publish(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.name, err))
		}
	}

	return errors.Join(errs...)
}
