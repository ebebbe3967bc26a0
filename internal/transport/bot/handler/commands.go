package handler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"campus_auction/internal/domain/service/auction"
	"campus_auction/internal/domain/value"
	"campus_auction/internal/transport/bot/view"
)

const (
	openPageSize = 10
	bidsShown    = 10
)

func (h *Handler) OnStart(ctx *th.Context, msg telego.Message) error {
	return h.sendHTML(ctx, msg.Chat.ID, view.StartMessage)
}

func (h *Handler) OnStatus(ctx *th.Context, msg telego.Message) error {
	status := "🔴 остановлена"
	if h.reconciler.IsRunning() {
		status = "🟢 работает"
	}

	return h.sendHTML(ctx, msg.Chat.ID, fmt.Sprintf(view.StatusTemplate, status))
}

func (h *Handler) OnOpen(ctx *th.Context, msg telego.Message) error {
	text, keyboard, err := h.openPage(ctx, 0)
	if err != nil {
		return h.sendHTML(ctx, msg.Chat.ID, fmt.Sprintf(view.ErrorMessage, err))
	}

	params := &telego.SendMessageParams{
		ChatID:    telego.ChatID{ID: msg.Chat.ID},
		Text:      text,
		ParseMode: telego.ModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	_, err = ctx.Bot().SendMessage(ctx, params)
	return err
}

func (h *Handler) OnItem(ctx *th.Context, msg telego.Message) error {
	itemID, ok := parseID(msg.Text)
	if !ok {
		return h.sendHTML(ctx, msg.Chat.ID, view.UsageItem)
	}

	item, err := h.svc.GetItem(ctx, itemID)
	if err != nil {
		return h.sendHTML(ctx, msg.Chat.ID, fmt.Sprintf(view.ErrorMessage, err))
	}

	best := "—"
	bid, err := h.svc.GetHighestBid(ctx, itemID)
	if err != nil {
		return h.sendHTML(ctx, msg.Chat.ID, fmt.Sprintf(view.ErrorMessage, err))
	}
	if bid != nil {
		best = fmt.Sprintf("%s (%d)", bid.Amount.StringFixed(2), bid.BidderID)
	}

	buyout := "нет"
	if item.HasBuyout() {
		buyout = item.BuyoutPrice.StringFixed(2)
	}

	status := "🟢 открыт"
	if !item.IsActive {
		status = "🔴 закрыт"
	}

	return h.sendHTML(ctx, msg.Chat.ID, fmt.Sprintf(view.ItemTemplate,
		item.Title,
		item.ID,
		item.OwnerID,
		item.CurrentPrice.StringFixed(2),
		buyout,
		best,
		item.EndTime.UTC().Format(time.DateTime),
		status,
	))
}

func (h *Handler) OnBids(ctx *th.Context, msg telego.Message) error {
	itemID, ok := parseID(msg.Text)
	if !ok {
		return h.sendHTML(ctx, msg.Chat.ID, view.UsageBids)
	}

	bids, err := h.svc.ListBids(ctx, itemID)
	if err != nil {
		return h.sendHTML(ctx, msg.Chat.ID, fmt.Sprintf(view.ErrorMessage, err))
	}

	if len(bids) == 0 {
		return h.sendHTML(ctx, msg.Chat.ID, view.BidsEmpty)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(view.BidsHeader, itemID))

	for _, bid := range bids[:min(len(bids), bidsShown)] {
		proxy := ""
		if bid.IsProxy {
			proxy = " 🤖"
		}
		sb.WriteString(fmt.Sprintf(view.BidLine,
			bid.Amount.StringFixed(2),
			bid.BidderID,
			proxy,
			bid.PlacedAt.UTC().Format(time.TimeOnly),
		))
	}

	return h.sendHTML(ctx, msg.Chat.ID, sb.String())
}

// OnFinalize закрывает лот вручную. Лот, время которого не вышло, остаётся открытым.
func (h *Handler) OnFinalize(ctx *th.Context, msg telego.Message) error {
	itemID, ok := parseID(msg.Text)
	if !ok {
		return h.sendHTML(ctx, msg.Chat.ID, view.UsageFinalize)
	}

	result, err := h.svc.Finalize(ctx, itemID)
	if err != nil {
		return h.sendHTML(ctx, msg.Chat.ID, fmt.Sprintf(view.ErrorMessage, err))
	}

	return h.sendHTML(ctx, msg.Chat.ID, finalizeText(result))
}

func (h *Handler) OnSweep(ctx *th.Context, msg telego.Message) error {
	h.reconciler.Sweep(ctx)

	return h.sendHTML(ctx, msg.Chat.ID, view.SweepDone)
}

func (h *Handler) OnStartSweep(ctx *th.Context, msg telego.Message) error {
	if h.reconciler.IsRunning() {
		return h.send(ctx, msg.Chat.ID, view.SweepRunning)
	}

	if err := h.reconciler.Start(h.baseCtx); err != nil {
		return h.send(ctx, msg.Chat.ID, fmt.Sprintf(view.SweepStartFailed, err))
	}

	return h.send(ctx, msg.Chat.ID, view.SweepStarted)
}

func (h *Handler) OnStopSweep(ctx *th.Context, msg telego.Message) error {
	if !h.reconciler.IsRunning() {
		return h.send(ctx, msg.Chat.ID, view.SweepNotRunning)
	}

	h.reconciler.Stop()

	return h.send(ctx, msg.Chat.ID, view.SweepStopped)
}

// Вспомогательные методы

func parseID(text string) (int64, bool) {
	args := strings.Fields(text)
	if len(args) < 2 { //nolint:mnd
		return 0, false
	}

	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}

	return id, true
}

func (h *Handler) sendHTML(ctx *th.Context, chatID int64, text string) error {
	_, err := ctx.Bot().SendMessage(ctx, &telego.SendMessageParams{
		ChatID:    telego.ChatID{ID: chatID},
		Text:      text,
		ParseMode: telego.ModeHTML,
	})
	return err
}

func (h *Handler) send(ctx *th.Context, chatID int64, text string) error {
	_, err := ctx.Bot().SendMessage(ctx, &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: chatID},
		Text:   text,
	})
	return err
}

func finalizeText(result auction.FinalizeResult) string {
	itemID := result.ItemID

	switch result.Outcome {
	case value.OutcomeSold:
		return fmt.Sprintf(view.FinalizeSold, itemID, result.Transaction.Price.StringFixed(2), result.Transaction.BuyerID)
	case value.OutcomeNoSale:
		return fmt.Sprintf(view.FinalizeNoSale, itemID)
	case value.OutcomeNotDue:
		return fmt.Sprintf(view.FinalizeNotDue, itemID, result.EndTime.UTC().Format(time.DateTime))
	default:
		return fmt.Sprintf(view.FinalizeClosed, itemID)
	}
}
