package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"campus_auction/internal/transport/bot/view"
)

const openPagePrefix = "open_after:"

func (h *Handler) OnOpenCallback(ctx *th.Context, query telego.CallbackQuery) error {
	// Формат: "open_after:<id последнего лота предыдущей страницы>"
	var afterID int64
	if _, err := fmt.Sscanf(query.Data, openPagePrefix+"%d", &afterID); err != nil || afterID < 0 {
		afterID = 0
	}

	text, keyboard, err := h.openPage(ctx, afterID)
	if err != nil {
		_ = ctx.Bot().AnswerCallbackQuery(ctx, tu.CallbackQuery(query.ID).
			WithText("❌ Ошибка получения данных").WithShowAlert())
		return err
	}

	// Если страница не изменилась, Telegram вернёт ошибку; её можно не учитывать.
	_, _ = ctx.Bot().EditMessageText(ctx, &telego.EditMessageTextParams{
		ChatID:      tu.ID(query.Message.GetChat().ID),
		MessageID:   query.Message.GetMessageID(),
		Text:        text,
		ParseMode:   telego.ModeHTML,
		ReplyMarkup: keyboard,
	})

	_ = ctx.Bot().AnswerCallbackQuery(ctx, tu.CallbackQuery(query.ID))

	return nil
}

// openPage запрашивает на один лот больше страницы, чтобы понять, есть ли следующая.
func (h *Handler) openPage(ctx context.Context, afterID int64) (string, *telego.InlineKeyboardMarkup, error) {
	items, err := h.svc.ListOpenItems(ctx, afterID, openPageSize+1)
	if err != nil {
		return "", nil, err
	}

	if len(items) == 0 {
		return view.OpenEmpty, nil, nil
	}

	hasNext := len(items) > openPageSize
	items = items[:min(len(items), openPageSize)]

	var sb strings.Builder
	sb.WriteString(view.OpenHeader)

	for _, item := range items {
		sb.WriteString(fmt.Sprintf(view.OpenItemLine,
			item.ID,
			item.Title,
			item.CurrentPrice.StringFixed(2),
			item.EndTime.UTC().Format(time.DateTime),
		))
	}

	buttons := []telego.InlineKeyboardButton{
		tu.InlineKeyboardButton("⏮").WithCallbackData(openPagePrefix + "0"),
	}
	if hasNext {
		buttons = append(buttons, tu.InlineKeyboardButton("➡️").
			WithCallbackData(fmt.Sprintf("%s%d", openPagePrefix, items[len(items)-1].ID)))
	}

	return sb.String(), tu.InlineKeyboard(tu.InlineKeyboardRow(buttons...)), nil
}
