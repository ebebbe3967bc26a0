package view

const StartMessage = `🔨 <b>Campus Auction: консоль оператора</b>

/status — состояние сверки
/open — открытые лоты
/item <code>ID</code> — карточка лота
/bids <code>ID</code> — последние ставки
/finalize <code>ID</code> — закрыть лот, если время вышло
/sweep — сверка прямо сейчас
/startsweep, /stopsweep — фоновая сверка`

const (
	UsageItem     = "❌ Использование: /item <code>ID</code>"
	UsageBids     = "❌ Использование: /bids <code>ID</code>"
	UsageFinalize = "❌ Использование: /finalize <code>ID</code>"
	InvalidID     = "❌ Неверный формат ID"

	OpenEmpty    = "📭 Открытых лотов нет"
	OpenHeader   = "📚 <b>Открытые лоты</b>\n\n"
	OpenItemLine = "#<code>%d</code> %s · %s · до %s\n"

	ItemTemplate = `🎁 <b>%s</b> #<code>%d</code>

👤 <b>Продавец:</b> %d
💰 <b>Текущая цена:</b> %s
⚡ <b>Выкуп:</b> %s
🏷 <b>Лучшая ставка:</b> %s
⏰ <b>Окончание:</b> %s
📌 <b>Статус:</b> %s`

	BidsHeader = "📈 <b>Ставки по лоту #%d</b>\n\n"
	BidLine    = "%s · %d%s · %s\n"
	BidsEmpty  = "Ставок пока нет"

	FinalizeSold   = "🔨 Лот #%d продан за %s пользователю %d"
	FinalizeNoSale = "🕸 Лот #%d закрыт без ставок"
	FinalizeClosed = "ℹ️ Лот #%d уже закрыт"
	FinalizeNotDue = "⏳ Лот #%d открыт до %s"

	SweepDone        = "✅ Сверка выполнена"
	SweepRunning     = "Фоновая сверка уже запущена!"
	SweepNotRunning  = "Фоновая сверка не запущена!"
	SweepStarted     = "Фоновая сверка запущена!"
	SweepStopped     = "Фоновая сверка остановлена!"
	SweepStartFailed = "Ошибка запуска сверки: %v"
	StatusTemplate   = "📊 <b>Статус системы</b>\n\n🔄 <b>Фоновая сверка:</b> %s"
	ErrorMessage     = "❌ Ошибка: %v"
)
