package ticker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pbxwatch/backend/internal/metrics"
	"github.com/pbxwatch/backend/internal/websocket"
	"github.com/rs/zerolog"
)

// StatusMessage is the periodic stream-status update sent to clients
type StatusMessage struct {
	Timestamp string                         `json:"timestamp"`
	Streams   map[string]metrics.StreamStats `json:"streams"`
}

// Ticker periodically broadcasts ingest status updates to the hub
type Ticker struct {
	hub      *websocket.Hub
	interval time.Duration
	logger   zerolog.Logger
}

// NewTicker creates a new Ticker
func NewTicker(hub *websocket.Hub, interval time.Duration, logger zerolog.Logger) *Ticker {
	return &Ticker{
		hub:      hub,
		interval: interval,
		logger:   logger,
	}
}

// Start begins broadcasting status updates
func (t *Ticker) Start(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.logger.Info().Dur("interval", t.interval).Msg("status ticker started")

	for {
		select {
		case <-ctx.Done():
			t.logger.Info().Msg("status ticker stopped")
			return

		case now := <-ticker.C:
			message := StatusMessage{
				Timestamp: now.Format(time.RFC3339),
				Streams:   metrics.Get().GetStreamStats(),
			}

			data, err := json.Marshal(message)
			if err != nil {
				t.logger.Error().Err(err).Msg("failed to marshal status message")
				continue
			}

			t.hub.Broadcast(data)
			t.logger.Debug().
				Int("streams", len(message.Streams)).
				Int("clients", t.hub.ClientCount()).
				Msg("broadcasted stream status")
		}
	}
}
