package service

import (
	"context"
	"encoding/json"
	"sync"

	"mesh-adventure-be/internal/entity"
	"mesh-adventure-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const msgAutoReset = "Resetting all adventures after 24 hours of runtime. A new tale may begin!"

// Broadcast is one bot-initiated announcement waiting for the gateway to
// pick it up and transmit.
type Broadcast struct {
	Message    string
	ChannelIdx int
}

type IBroadcastService interface {
	Consume(ctx context.Context) error
	// Next pops the oldest pending broadcast; ok=false when the queue is
	// empty.
	Next() (Broadcast, bool)
}

// broadcastService turns session lifecycle events into radio
// announcements. Players on a mesh channel otherwise never learn that
// their story was hard-reset while nobody was talking; the gateway polls
// the queue and transmits on the session's channel.
type broadcastService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	log       logger.ILogger

	mu    sync.Mutex
	queue []Broadcast
}

func NewBroadcastService(pubSub *gochannel.GoChannel, topicName string, log logger.ILogger) IBroadcastService {
	return &broadcastService{
		pubSub:    pubSub,
		topicName: topicName,
		log:       log,
	}
}

func (bs *broadcastService) Consume(ctx context.Context) error {
	messages, err := bs.pubSub.Subscribe(ctx, bs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			bs.processMessage(msg)
		}
	}()

	return nil
}

func (bs *broadcastService) processMessage(msg *message.Message) {
	defer msg.Ack()

	var ev entity.SessionEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		bs.log.Warn("broadcast", "unreadable session event dropped", map[string]interface{}{"error": err.Error()})
		return
	}

	bs.log.Info("broadcast", "session event", map[string]interface{}{"kind": string(ev.Kind), "key": ev.Key})

	// Only resets are announced, and only on mesh channels. Finishes
	// already produced a reply in-band, and expiries are silent so a
	// dormant channel isn't woken by housekeeping.
	if ev.Kind != entity.EventSessionReset || ev.ChannelIdx < 0 {
		return
	}

	bs.mu.Lock()
	bs.queue = append(bs.queue, Broadcast{Message: msgAutoReset, ChannelIdx: ev.ChannelIdx})
	bs.mu.Unlock()
}

func (bs *broadcastService) Next() (Broadcast, bool) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	if len(bs.queue) == 0 {
		return Broadcast{}, false
	}
	b := bs.queue[0]
	bs.queue = bs.queue[1:]
	return b, true
}
