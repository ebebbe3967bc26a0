package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"git.appkode.ru/pub/go/failure"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"campus_auction/internal/domain"
	"campus_auction/internal/domain/entity"
	"campus_auction/internal/domain/service/auction"
	"campus_auction/pkg/errcodes"
)

var _ auction.Store = (*AuctionRepository)(nil)

// AuctionRepository хранит лоты, журнал ставок, поручения и сделки в PostgreSQL.
// Изменения одного лота сериализуются блокировкой строки items (FOR UPDATE).
type AuctionRepository struct {
	db *sqlx.DB
}

func NewAuctionRepository(db *sqlx.DB) *AuctionRepository {
	return &AuctionRepository{db: db}
}

func (r *AuctionRepository) InTx(ctx context.Context, fn func(ctx context.Context, tx auction.Tx) error) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(ctx, &auctionTx{tx: tx})
	})
}

func (r *AuctionRepository) CreateItem(ctx context.Context, item *entity.Item) error {
	query := `
		INSERT INTO items (
			owner_id, title, description, category, condition, image_url,
			starting_price, current_price, buyout_price, start_time, end_time, is_active, created_at
		) VALUES (
			:owner_id, :title, :description, :category, :condition, :image_url,
			:starting_price, :current_price, :buyout_price, :start_time, :end_time, :is_active, :created_at
		)
		RETURNING id`

	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	if err := ensureUsers(ctx, r.db, item.OwnerID); err != nil {
		return err
	}

	rows, err := r.db.NamedQueryContext(ctx, query, fromItem(item))
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return domain.NewNotFoundError(errcodes.UserNotFound, "owner not found")
		}
		return domain.WrapError(err, errcodes.InternalServerError, "failed to create item")
	}
	defer rows.Close()

	if !rows.Next() {
		return domain.WrapError(errors.Join(rows.Err(), sql.ErrNoRows), errcodes.InternalServerError, "failed to read item id")
	}

	if err := rows.Scan(&item.ID); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to scan item id")
	}

	return nil
}

func (r *AuctionRepository) GetItem(ctx context.Context, itemID int64) (*entity.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	var schema itemSchema
	if err := r.db.GetContext(ctx, &schema, query, itemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError(errcodes.ItemNotFound, "item not found")
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get item")
	}

	return schema.toDomain(), nil
}

func (r *AuctionRepository) ListOpenItems(ctx context.Context, afterID int64, limit int) ([]entity.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE is_active AND id > $1
		ORDER BY id
		LIMIT $2`

	var schemas []itemSchema
	if err := r.db.SelectContext(ctx, &schemas, query, afterID, limit); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list open items")
	}

	items := make([]entity.Item, 0, len(schemas))
	for i := range schemas {
		items = append(items, *schemas[i].toDomain())
	}

	return items, nil
}

func (r *AuctionRepository) ListDueItemIDs(ctx context.Context, now time.Time, limit int) ([]int64, error) {
	query := `
		SELECT id
		FROM items
		WHERE is_active AND end_time <= $1
		ORDER BY end_time, id
		LIMIT $2`

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, now, limit); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list due items")
	}

	return ids, nil
}

func (r *AuctionRepository) GetHighestBid(ctx context.Context, itemID int64) (*entity.Bid, error) {
	return highestBid(ctx, r.db, itemID)
}

func (r *AuctionRepository) ListBids(ctx context.Context, itemID int64) ([]entity.Bid, error) {
	query := `
		SELECT ` + bidColumns + `
		FROM bids
		WHERE item_id = $1
		ORDER BY amount DESC, id DESC`

	var schemas []bidSchema
	if err := r.db.SelectContext(ctx, &schemas, query, itemID); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list bids")
	}

	bids := make([]entity.Bid, 0, len(schemas))
	for i := range schemas {
		bids = append(bids, schemas[i].toDomain())
	}

	return bids, nil
}

func (r *AuctionRepository) ListAutobids(ctx context.Context, itemID int64) ([]entity.AutobidAgreement, error) {
	query := `
		SELECT user_id, item_id, max_bid, increment, updated_at
		FROM autobids
		WHERE item_id = $1
		ORDER BY user_id`

	var agreements []entity.AutobidAgreement
	if err := r.db.SelectContext(ctx, &agreements, query, itemID); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list autobids")
	}

	return agreements, nil
}

func (r *AuctionRepository) GetTransaction(ctx context.Context, transactionID int64) (*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return getTransaction(ctx, r.db, query, transactionID)
}

func (r *AuctionRepository) GetTransactionByItem(ctx context.Context, itemID int64) (*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE item_id = $1`
	return getTransaction(ctx, r.db, query, itemID)
}

func (r *AuctionRepository) GetBalance(ctx context.Context, userID int64) (*entity.Balance, error) {
	query := `SELECT user_id, amount FROM balances WHERE user_id = $1`

	var balance entity.Balance
	if err := r.db.GetContext(ctx, &balance, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError(errcodes.BalanceNotFound, "balance not found")
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get balance")
	}

	return &balance, nil
}

// auctionTx выполняет операции над лотом внутри одной транзакции БД.
type auctionTx struct {
	tx *sqlx.Tx
}

func (t *auctionTx) LockItem(ctx context.Context, itemID int64) (*entity.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1 FOR UPDATE`

	var schema itemSchema
	if err := t.tx.GetContext(ctx, &schema, query, itemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError(errcodes.ItemNotFound, "item not found")
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to lock item")
	}

	return schema.toDomain(), nil
}

func (t *auctionTx) HighestBid(ctx context.Context, itemID int64) (*entity.Bid, error) {
	return highestBid(ctx, t.tx, itemID)
}

func (t *auctionTx) InsertBid(ctx context.Context, bid *entity.Bid) error {
	query := `
		INSERT INTO bids (item_id, bidder_id, amount, is_proxy, placed_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	if err := ensureUsers(ctx, t.tx, bid.BidderID); err != nil {
		return err
	}

	err := t.tx.QueryRowxContext(ctx, query, bid.ItemID, bid.BidderID, bid.Amount, bid.IsProxy, bid.PlacedAt).
		Scan(&bid.ID)
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return domain.NewNotFoundError(errcodes.UserNotFound, "bidder not found")
		}
		return domain.WrapError(err, errcodes.InternalServerError, "failed to insert bid")
	}

	return nil
}

func (t *auctionTx) UpdateCurrentPrice(ctx context.Context, itemID int64, price decimal.Decimal) error {
	query := `UPDATE items SET current_price = $1 WHERE id = $2`

	res, err := t.tx.ExecContext(ctx, query, price, itemID)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to update current price")
	}

	return expectAffected(res, errcodes.ItemNotFound, "item not found")
}

func (t *auctionTx) CloseItem(ctx context.Context, itemID int64) (bool, error) {
	query := `UPDATE items SET is_active = FALSE WHERE id = $1 AND is_active`

	res, err := t.tx.ExecContext(ctx, query, itemID)
	if err != nil {
		return false, domain.WrapError(err, errcodes.InternalServerError, "failed to close item")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.WrapError(err, errcodes.InternalServerError, "failed to get affected rows")
	}

	return n == 1, nil
}

func (t *auctionTx) InsertTransaction(ctx context.Context, txn *entity.Transaction) error {
	query := `
		INSERT INTO transactions (item_id, buyer_id, seller_id, price, kind, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	if err := ensureUsers(ctx, t.tx, txn.BuyerID, txn.SellerID); err != nil {
		return err
	}

	err := t.tx.QueryRowxContext(ctx, query,
		txn.ItemID, txn.BuyerID, txn.SellerID, txn.Price, txn.Kind.String(), txn.OccurredAt,
	).Scan(&txn.ID)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return domain.NewConflictError(errcodes.AuctionClosed, "item already has a transaction")
		}
		return domain.WrapError(err, errcodes.InternalServerError, "failed to insert transaction")
	}

	return nil
}

func (t *auctionTx) Credit(ctx context.Context, userID int64, amount decimal.Decimal) error {
	query := `
		INSERT INTO balances (user_id, amount)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET amount = balances.amount + EXCLUDED.amount`

	if _, err := t.tx.ExecContext(ctx, query, userID, amount); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to credit balance")
	}

	return nil
}

func (t *auctionTx) UpsertAutobid(ctx context.Context, agreement *entity.AutobidAgreement) error {
	query := `
		INSERT INTO autobids (user_id, item_id, max_bid, increment, updated_at)
		VALUES (:user_id, :item_id, :max_bid, :increment, :updated_at)
		ON CONFLICT (user_id, item_id) DO UPDATE
		SET max_bid = EXCLUDED.max_bid, increment = EXCLUDED.increment, updated_at = EXCLUDED.updated_at`

	if err := ensureUsers(ctx, t.tx, agreement.UserID); err != nil {
		return err
	}

	if _, err := t.tx.NamedExecContext(ctx, query, agreement); err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return domain.NewNotFoundError(errcodes.UserNotFound, "user not found")
		}
		return domain.WrapError(err, errcodes.InternalServerError, "failed to upsert autobid")
	}

	return nil
}

func (t *auctionTx) DeleteAutobids(ctx context.Context, itemID int64) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM autobids WHERE item_id = $1`, itemID); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to delete autobids")
	}
	return nil
}

func highestBid(ctx context.Context, q sqlx.QueryerContext, itemID int64) (*entity.Bid, error) {
	query := `
		SELECT ` + bidColumns + `
		FROM bids
		WHERE item_id = $1
		ORDER BY amount DESC, id DESC
		LIMIT 1`

	var schema bidSchema
	if err := sqlx.GetContext(ctx, q, &schema, query, itemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil //nolint:nilnil
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get highest bid")
	}

	bid := schema.toDomain()
	return &bid, nil
}

func getTransaction(ctx context.Context, q sqlx.QueryerContext, query string, arg any) (*entity.Transaction, error) {
	var schema transactionSchema
	if err := sqlx.GetContext(ctx, q, &schema, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError(errcodes.TransactionNotFound, "transaction not found")
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get transaction")
	}

	return schema.toDomain(), nil
}

func expectAffected(res sql.Result, code failure.ErrorCode, message string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to get affected rows")
	}
	if n == 0 {
		return domain.NewNotFoundError(code, message)
	}
	return nil
}
