package auction_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"git.appkode.ru/pub/go/failure"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"campus_auction/internal/domain"
	"campus_auction/internal/domain/entity"
	"campus_auction/internal/domain/service/auction"
	"campus_auction/internal/infrastructure/memstore"
)

const (
	sellerID int64 = 1
	userA    int64 = 2
	userB    int64 = 3
	userC    int64 = 4
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) //nolint:gochecknoglobals

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

type recordingScheduler struct {
	mu        sync.Mutex
	scheduled map[int64]time.Time
	calls     int
	cancelled []int64
}

func (s *recordingScheduler) Schedule(_ context.Context, itemID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduled == nil {
		s.scheduled = make(map[int64]time.Time)
	}
	s.scheduled[itemID] = at
	s.calls++

	return nil
}

func (s *recordingScheduler) Cancel(_ context.Context, itemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelled = append(s.cancelled, itemID)
	delete(s.scheduled, itemID)

	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []entity.AuctionEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event entity.AuctionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)

	return nil
}

func (p *recordingPublisher) Events() []entity.AuctionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]entity.AuctionEvent(nil), p.events...)
}

type fixture struct {
	svc    *auction.Service
	store  *memstore.Store
	clock  *clock
	sched  *recordingScheduler
	events *recordingPublisher
}

func newFixture() *fixture {
	f := &fixture{
		store:  memstore.New(),
		clock:  &clock{now: t0},
		sched:  &recordingScheduler{},
		events: &recordingPublisher{},
	}

	f.svc = auction.NewService(f.store).
		WithClock(f.clock.Now).
		WithScheduler(f.sched).
		WithPublisher(f.events)

	return f
}

// createItem выставляет лот продавца на час, начиная с t0.
func (f *fixture) createItem(t *testing.T, startingPrice, buyoutPrice string) *entity.Item {
	t.Helper()

	params := auction.NewItem{
		OwnerID:       sellerID,
		Title:         "Calculus textbook",
		Category:      "books",
		Condition:     "used",
		StartingPrice: d(startingPrice),
		EndTime:       t0.Add(time.Hour),
	}
	if buyoutPrice != "" {
		params.BuyoutPrice = d(buyoutPrice)
	}

	item, err := f.svc.CreateItem(context.Background(), params)
	require.NoError(t, err)

	return item
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireCode(t *testing.T, err error, code failure.ErrorCode) {
	t.Helper()

	require.Error(t, err)
	got, ok := domain.GetCode(err)
	require.True(t, ok, "not a domain error: %v", err)
	require.Equal(t, code, got, "unexpected code for %v", err)
}
