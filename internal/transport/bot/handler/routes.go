package handler

import (
	th "github.com/mymmrac/telego/telegohandler"

	"campus_auction/internal/transport/bot/middleware"
)

func (h *Handler) RegisterRoutes(bh *th.BotHandler, adminID int64) {
	// Все команды доступны только оператору
	adminGroup := bh.Group(th.AnyMessage())
	adminGroup.Use(middleware.AdminOnly(adminID))

	adminGroup.HandleMessage(h.OnStart, th.CommandEqual("start"))
	adminGroup.HandleMessage(h.OnStatus, th.CommandEqual("status"))
	adminGroup.HandleMessage(h.OnOpen, th.CommandEqual("open"))
	adminGroup.HandleMessage(h.OnItem, th.CommandEqual("item"))
	adminGroup.HandleMessage(h.OnBids, th.CommandEqual("bids"))
	adminGroup.HandleMessage(h.OnFinalize, th.CommandEqual("finalize"))
	adminGroup.HandleMessage(h.OnSweep, th.CommandEqual("sweep"))
	adminGroup.HandleMessage(h.OnStartSweep, th.CommandEqual("startsweep"))
	adminGroup.HandleMessage(h.OnStopSweep, th.CommandEqual("stopsweep"))

	cbGroup := bh.Group(th.AnyCallbackQuery())
	cbGroup.Use(middleware.AdminOnly(adminID))

	cbGroup.HandleCallbackQuery(h.OnOpenCallback, th.CallbackDataPrefix(openPagePrefix))
}
