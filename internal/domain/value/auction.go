package value

// SaleKind — способ, которым лот был продан.
type SaleKind string

const (
	SaleKindAuction SaleKind = "auction"
	SaleKindBuyout  SaleKind = "buyout"
)

func (k SaleKind) String() string {
	return string(k)
}

// Outcome — результат попытки финализации.
type Outcome string

const (
	OutcomeSold          Outcome = "sold"
	OutcomeNoSale        Outcome = "no_sale"
	OutcomeAlreadyClosed Outcome = "already_closed"
	OutcomeNotDue        Outcome = "not_due"
)

func (o Outcome) String() string {
	return string(o)
}

// EventType — тип события аукциона.
type EventType string

const (
	EventBidPlaced     EventType = "bid.placed"
	EventAuctionClosed EventType = "auction.closed"
)

func (t EventType) String() string {
	return string(t)
}
