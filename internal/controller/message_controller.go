package controller

import (
	"time"

	"mesh-adventure-be/internal/dto"
	"mesh-adventure-be/internal/entity"
	"mesh-adventure-be/internal/pkg/serverutils"
	"mesh-adventure-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IMessageController interface {
	RegisterRoutes(r fiber.Router)
	Handle(ctx *fiber.Ctx) error
}

type messageController struct {
	gameService service.IGameService
}

func NewMessageController(gameService service.IGameService) IMessageController {
	return &messageController{
		gameService: gameService,
	}
}

func (c *messageController) RegisterRoutes(r fiber.Router) {
	r.Post("/message", c.Handle)
}

// Handle is the gateway's forwarding target. The response shape is flat
// {"response": ...} — the gateway reads that key directly, so no envelope.
func (c *messageController) Handle(ctx *fiber.Ctx) error {
	var req dto.MessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	ts := time.Now()
	if req.Timestamp > 0 {
		ts = time.Unix(int64(req.Timestamp), 0)
	}
	msg := &entity.InboundMessage{
		Sender:     req.Sender,
		Content:    req.Content,
		ChannelIdx: req.ChannelIdx,
		Timestamp:  ts,
		SNR:        req.SNR,
	}

	reply, err := c.gameService.HandleMessage(ctx.Context(), msg)
	if err != nil {
		return err
	}

	return ctx.JSON(dto.MessageResponse{Response: reply})
}
