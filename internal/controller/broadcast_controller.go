package controller

import (
	"mesh-adventure-be/internal/dto"
	"mesh-adventure-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IBroadcastController interface {
	RegisterRoutes(r fiber.Router)
	Poll(ctx *fiber.Ctx) error
}

type broadcastController struct {
	broadcastService service.IBroadcastService
}

func NewBroadcastController(broadcastService service.IBroadcastService) IBroadcastController {
	return &broadcastController{
		broadcastService: broadcastService,
	}
}

func (c *broadcastController) RegisterRoutes(r fiber.Router) {
	r.Get("/broadcast", c.Poll)
}

// Poll hands the gateway at most one pending announcement per call; an
// empty message means the queue is drained.
func (c *broadcastController) Poll(ctx *fiber.Ctx) error {
	b, ok := c.broadcastService.Next()
	if !ok {
		return ctx.JSON(dto.BroadcastResponse{})
	}
	return ctx.JSON(dto.BroadcastResponse{Message: b.Message, ChannelIdx: b.ChannelIdx})
}
