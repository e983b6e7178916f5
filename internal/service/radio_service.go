package service

import (
	"context"
	"strings"
	"time"

	"mesh-adventure-be/internal/entity"
	"mesh-adventure-be/internal/pkg/chunker"
	"mesh-adventure-be/internal/pkg/logger"
	"mesh-adventure-be/pkg/meshcore"
)

const interPartDelay = 500 * time.Millisecond

type IRadioService interface {
	Run(ctx context.Context)
}

// radioService bridges the radio link to the command router when both
// run in the same process (no gateway split). It also drains the
// broadcast queue onto the radio so single-process deployments get the
// same announcements distributed ones do.
type radioService struct {
	link       *meshcore.Link
	game       IGameService
	broadcasts IBroadcastService
	log        logger.ILogger
}

func NewRadioService(link *meshcore.Link, game IGameService, broadcasts IBroadcastService, log logger.ILogger) IRadioService {
	return &radioService{
		link:       link,
		game:       game,
		broadcasts: broadcasts,
		log:        log,
	}
}

func (s *radioService) Run(ctx context.Context) {
	broadcastTicker := time.NewTicker(30 * time.Second)
	defer broadcastTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-s.link.Messages():
			if !ok {
				return
			}
			s.handle(ctx, m)
		case <-broadcastTicker.C:
			s.drainBroadcasts(ctx)
		}
	}
}

func (s *radioService) handle(ctx context.Context, m meshcore.Message) {
	msg := &entity.InboundMessage{
		Sender:     m.Sender,
		Content:    m.Content,
		ChannelIdx: m.ChannelIdx,
		Timestamp:  m.Timestamp,
		SNR:        m.SNR,
	}

	reply, err := s.game.HandleMessage(ctx, msg)
	if err != nil {
		s.log.Error("radio", "message handling failed", map[string]interface{}{"sender": m.Sender, "error": err.Error()})
		return
	}
	if reply == nil {
		return
	}
	s.sendParts(ctx, *reply, m.ChannelIdx)
}

func (s *radioService) drainBroadcasts(ctx context.Context) {
	for {
		b, ok := s.broadcasts.Next()
		if !ok {
			return
		}
		s.sendParts(ctx, b.Message, b.ChannelIdx)
	}
}

// sendParts splits a multi-part reply and transmits the pieces with a
// short gap so the radio can drain its queue between sends.
func (s *radioService) sendParts(ctx context.Context, text string, channelIdx int) {
	parts := strings.Split(text, chunker.PartSeparator)
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if err := s.link.Send(ctx, channelIdx, part); err != nil {
			s.log.Error("radio", "send failed", map[string]interface{}{"channel": channelIdx, "error": err.Error()})
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
