// Package ticker periodically refreshes the market snapshot and broadcasts
// it to websocket clients. It is a purely additive realtime feed; the REST
// endpoints are unaffected by it.
package ticker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/coindeck/coindeck/internal/market"
	"github.com/coindeck/coindeck/internal/models"
	"github.com/coindeck/coindeck/internal/ws"
)

// Ticker drives the periodic market broadcast
type Ticker struct {
	client   *market.Client
	hub      *ws.Hub
	interval time.Duration
	log      *zap.SugaredLogger
	stop     chan struct{}
}

// New creates a ticker broadcasting at the given interval
func New(client *market.Client, hub *ws.Hub, interval time.Duration, log *zap.SugaredLogger) *Ticker {
	return &Ticker{
		client:   client,
		hub:      hub,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
	}
}

// Start runs the broadcast loop until Stop is called
func (t *Ticker) Start() {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.log.Infow("market ticker started", "interval", t.interval)
	for {
		select {
		case <-ticker.C:
			t.tick()
		case <-t.stop:
			t.log.Info("market ticker stopped")
			return
		}
	}
}

// Stop halts the broadcast loop
func (t *Ticker) Stop() {
	close(t.stop)
}

func (t *Ticker) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), t.interval)
	defer cancel()

	snapshot := t.client.Snapshot(ctx)
	t.hub.Broadcast(models.Message{Type: "market", Content: snapshot})
}
