package connectors

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/samber/lo"

	"campus_auction/pkg/logx"
)

type Nats struct {
	value         *nats.Conn
	URL           string
	Name          string
	ReconnectWait time.Duration
	init          sync.Once
}

func (n *Nats) Client(ctx context.Context) *nats.Conn {
	n.init.Do(func() {
		n.value = lo.Must(nats.Connect(n.URL,
			nats.Name(n.Name),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(lo.Ternary(n.ReconnectWait > 0, n.ReconnectWait, 2*time.Second)), //nolint:mnd
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				if err != nil {
					logger(ctx).Warn("nats disconnected", logx.Error(err))
				}
			}),
			nats.ReconnectHandler(func(c *nats.Conn) {
				logger(ctx).Info("nats reconnected", slog.String("url", c.ConnectedUrlRedacted()))
			}),
		))

		logger(ctx).Info(
			"nats connected",
			slog.String("url", n.value.ConnectedUrlRedacted()),
		)
	})

	return n.value
}

// Ping сообщает об ошибке, пока соединение не восстановлено.
func (n *Nats) Ping(ctx context.Context) error {
	conn := n.Client(ctx)
	if !conn.IsConnected() {
		return fmt.Errorf("nats status: %s", conn.Status())
	}
	return nil
}

func (n *Nats) Close(ctx context.Context) {
	if err := n.value.Drain(); err != nil {
		logger(ctx).Error("natsConn.Drain", logx.Error(err))
	}

	logger(ctx).Info("nats disconnected")
}
