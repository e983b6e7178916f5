package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"mesh-adventure-be/internal/dto"
	"mesh-adventure-be/internal/pkg/chunker"
	"mesh-adventure-be/internal/pkg/logger"
	"mesh-adventure-be/pkg/meshcore"
)

const (
	interPartDelay    = 500 * time.Millisecond
	broadcastInterval = 30 * time.Second
	statsInterval     = 5 * time.Minute
	healthTimeout     = 5 * time.Second
)

type Config struct {
	BotServerURL string
	// ChannelIdx restricts forwarding to one channel; -1 forwards all.
	ChannelIdx int
	Timeout    time.Duration
}

type stats struct {
	received  atomic.Int64
	forwarded atomic.Int64
	failed    atomic.Int64
	sent      atomic.Int64
}

// Gateway is the radio-only half of the transport split: it owns the
// serial link, forwards decoded messages to the bot server over HTTP and
// transmits whatever comes back. All game state lives on the server, so
// a gateway restart loses nothing.
type Gateway struct {
	cfg    Config
	link   *meshcore.Link
	client *http.Client
	log    logger.ILogger
	stats  stats
}

func New(cfg Config, link *meshcore.Link, log logger.ILogger) *Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.BotServerURL = strings.TrimRight(cfg.BotServerURL, "/")
	return &Gateway{
		cfg:    cfg,
		link:   link,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}
}

// Run processes radio messages until ctx is cancelled. A failed health
// probe is only a warning: the server may come up after the gateway.
func (g *Gateway) Run(ctx context.Context) {
	if err := g.probeHealth(ctx); err != nil {
		g.log.Warn("gateway", "bot server unreachable, starting anyway", map[string]interface{}{"url": g.cfg.BotServerURL, "error": err.Error()})
	} else {
		g.log.Info("gateway", "connected to bot server", map[string]interface{}{"url": g.cfg.BotServerURL})
	}

	broadcastTicker := time.NewTicker(broadcastInterval)
	statsTicker := time.NewTicker(statsInterval)
	defer broadcastTicker.Stop()
	defer statsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			g.logStats("final stats")
			return
		case m, ok := <-g.link.Messages():
			if !ok {
				g.logStats("final stats")
				return
			}
			g.handleMessage(ctx, m)
		case <-broadcastTicker.C:
			g.pollBroadcast(ctx)
		case <-statsTicker.C:
			g.logStats("stats")
		}
	}
}

func (g *Gateway) handleMessage(ctx context.Context, m meshcore.Message) {
	g.stats.received.Add(1)

	if g.cfg.ChannelIdx >= 0 && m.ChannelIdx != g.cfg.ChannelIdx {
		g.log.Debug("gateway", "message outside listened channel ignored", map[string]interface{}{"channel": m.ChannelIdx, "listening": g.cfg.ChannelIdx})
		return
	}

	g.log.Info("gateway", "message received", map[string]interface{}{"sender": m.Sender, "channel": m.ChannelIdx})

	reply, err := g.forward(ctx, m)
	if err != nil {
		// No retry queue: the next radio message re-probes connectivity.
		g.stats.failed.Add(1)
		g.log.Error("gateway", "forward to bot server failed", map[string]interface{}{"sender": m.Sender, "error": err.Error()})
		return
	}
	if reply == nil {
		return
	}

	g.stats.forwarded.Add(1)
	g.sendParts(ctx, *reply, m.ChannelIdx)
	g.stats.sent.Add(1)
}

func (g *Gateway) forward(ctx context.Context, m meshcore.Message) (*string, error) {
	payload := dto.MessageRequest{
		Sender:     m.Sender,
		Content:    m.Content,
		ChannelIdx: m.ChannelIdx,
		Timestamp:  float64(m.Timestamp.Unix()),
		SNR:        m.SNR,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BotServerURL+"/api/message", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bot server returned status %d", resp.StatusCode)
	}

	var out dto.MessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("invalid response from bot server: %w", err)
	}
	return out.Response, nil
}

// pollBroadcast fetches at most one bot-initiated announcement per tick.
func (g *Gateway) pollBroadcast(ctx context.Context) {
	reqCtx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, g.cfg.BotServerURL+"/api/broadcast", nil)
	if err != nil {
		return
	}
	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Debug("gateway", "broadcast poll failed", map[string]interface{}{"error": err.Error()})
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return
	}

	var out dto.BroadcastResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return
	}
	if out.Message == "" {
		return
	}
	if g.cfg.ChannelIdx >= 0 && out.ChannelIdx != g.cfg.ChannelIdx {
		return
	}
	g.sendParts(ctx, out.Message, out.ChannelIdx)
}

func (g *Gateway) sendParts(ctx context.Context, text string, channelIdx int) {
	parts := strings.Split(text, chunker.PartSeparator)
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if err := g.link.Send(ctx, channelIdx, part); err != nil {
			g.log.Error("gateway", "radio send failed", map[string]interface{}{"channel": channelIdx, "error": err.Error()})
			return
		}
		if i < len(parts)-1 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(interPartDelay):
			}
		}
	}
}

func (g *Gateway) probeHealth(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, g.cfg.BotServerURL+"/api/health", nil)
	if err != nil {
		return err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

func (g *Gateway) logStats(label string) {
	g.log.Info("gateway", label, map[string]interface{}{
		"received":  g.stats.received.Load(),
		"forwarded": g.stats.forwarded.Load(),
		"failed":    g.stats.failed.Load(),
		"sent":      g.stats.sent.Load(),
	})
}
