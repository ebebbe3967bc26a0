package auction

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"campus_auction/internal/domain/entity"
)

// Tx — транзакционный контекст одного изменения состояния лота.
// Все методы действуют в рамках одной атомарной фиксации.
type Tx interface {
	// LockItem блокирует лот до конца транзакции. Изменения одного лота
	// сериализуются этой блокировкой, разные лоты друг друга не ждут.
	LockItem(ctx context.Context, itemID int64) (*entity.Item, error)
	// HighestBid возвращает текущую лучшую ставку или nil, если ставок нет.
	HighestBid(ctx context.Context, itemID int64) (*entity.Bid, error)
	// InsertBid сохраняет ставку и заполняет её ID.
	InsertBid(ctx context.Context, bid *entity.Bid) error
	UpdateCurrentPrice(ctx context.Context, itemID int64, price decimal.Decimal) error
	// CloseItem выполняет условный переход is_active true → false.
	// false означает, что лот уже был закрыт кем-то другим.
	CloseItem(ctx context.Context, itemID int64) (bool, error)
	// InsertTransaction сохраняет сделку и заполняет её ID.
	InsertTransaction(ctx context.Context, txn *entity.Transaction) error
	// Credit зачисляет сумму на баланс пользователя.
	Credit(ctx context.Context, userID int64, amount decimal.Decimal) error
	UpsertAutobid(ctx context.Context, agreement *entity.AutobidAgreement) error
	DeleteAutobids(ctx context.Context, itemID int64) error
}

// Store — хранилище состояния аукционов и журнала ставок.
type Store interface {
	// InTx выполняет fn в одной транзакции: либо фиксируется всё, либо ничего.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	CreateItem(ctx context.Context, item *entity.Item) error
	GetItem(ctx context.Context, itemID int64) (*entity.Item, error)
	// ListOpenItems возвращает активные лоты с ID > afterID по возрастанию ID.
	ListOpenItems(ctx context.Context, afterID int64, limit int) ([]entity.Item, error)
	// ListDueItemIDs возвращает активные лоты, у которых end_time <= now.
	ListDueItemIDs(ctx context.Context, now time.Time, limit int) ([]int64, error)

	GetHighestBid(ctx context.Context, itemID int64) (*entity.Bid, error)
	ListBids(ctx context.Context, itemID int64) ([]entity.Bid, error)

	// ListAutobids возвращает поручения по лоту по возрастанию user_id.
	ListAutobids(ctx context.Context, itemID int64) ([]entity.AutobidAgreement, error)

	GetTransaction(ctx context.Context, transactionID int64) (*entity.Transaction, error)
	GetTransactionByItem(ctx context.Context, itemID int64) (*entity.Transaction, error)
	GetBalance(ctx context.Context, userID int64) (*entity.Balance, error)
}

// Scheduler регистрирует и отменяет дедлайны финализации.
type Scheduler interface {
	Schedule(ctx context.Context, itemID int64, at time.Time) error
	Cancel(ctx context.Context, itemID int64) error
}

// Publisher доставляет события аукциона внешним подписчикам.
type Publisher interface {
	Publish(ctx context.Context, event entity.AuctionEvent) error
}

type nopScheduler struct{}

func (nopScheduler) Schedule(context.Context, int64, time.Time) error { return nil }
func (nopScheduler) Cancel(context.Context, int64) error              { return nil }

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, entity.AuctionEvent) error { return nil }
