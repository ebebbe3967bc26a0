package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"campus_auction/internal/domain/entity"
	"campus_auction/internal/domain/value"
	"campus_auction/pkg/logx"
)

const queueSize = 100

// TelegramBot сообщает в операторский чат о закрытии аукционов.
type TelegramBot struct {
	bot    *telego.Bot
	chatID int64
	events chan entity.AuctionEvent
}

func NewTelegramBot(token string, chatID int64, opts ...telego.BotOption) (*TelegramBot, error) {
	bot, err := telego.NewBot(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	return &TelegramBot{
		bot:    bot,
		chatID: chatID,
		events: make(chan entity.AuctionEvent, queueSize),
	}, nil
}

// Publish ставит событие в очередь отправки и никогда не блокирует движок.
// Ставки в чат не попадают, только закрытия.
func (b *TelegramBot) Publish(ctx context.Context, event entity.AuctionEvent) error {
	if event.Type != value.EventAuctionClosed {
		return nil
	}

	select {
	case b.events <- event:
	default:
		logger(ctx).Warn("notifier queue is full, event dropped",
			slog.Int64(logx.FieldItemID, event.ItemID),
		)
	}

	return nil
}

// Run отправляет события из очереди до отмены контекста.
func (b *TelegramBot) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-b.events:
			if err := b.SendClosed(ctx, event); err != nil {
				logger(ctx).Error("failed to send auction result", logx.Error(err))
			}
		}
	}
}

func (b *TelegramBot) SendClosed(ctx context.Context, event entity.AuctionEvent) error {
	msg := tu.Message(
		tu.ID(b.chatID),
		closedText(event),
	).WithParseMode(telego.ModeHTML)

	_, err := b.bot.SendMessage(ctx, msg)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	return nil
}

func closedText(event entity.AuctionEvent) string {
	switch {
	case event.Transaction != nil && event.Transaction.Kind == value.SaleKindBuyout:
		return fmt.Sprintf(
			"⚡ <b>Buyout</b>\n\n"+
				"🎁 <b>Item:</b> #%d\n"+
				"💰 <b>Price:</b> %s\n"+
				"👤 <b>Buyer:</b> %d",
			event.ItemID,
			event.Transaction.Price.StringFixed(2),
			event.Transaction.BuyerID,
		)
	case event.Transaction != nil:
		return fmt.Sprintf(
			"🔨 <b>Sold</b>\n\n"+
				"🎁 <b>Item:</b> #%d\n"+
				"💰 <b>Price:</b> %s\n"+
				"👤 <b>Winner:</b> %d",
			event.ItemID,
			event.Transaction.Price.StringFixed(2),
			event.Transaction.BuyerID,
		)
	default:
		return fmt.Sprintf("🕸 <b>Closed without bids</b>\n\n🎁 <b>Item:</b> #%d", event.ItemID)
	}
}
