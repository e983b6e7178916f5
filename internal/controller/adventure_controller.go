package controller

import (
	"mesh-adventure-be/internal/dto"
	"mesh-adventure-be/internal/pkg/serverutils"
	"mesh-adventure-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAdventureController interface {
	RegisterRoutes(r fiber.Router)
	Themes(ctx *fiber.Ctx) error
	Start(ctx *fiber.Ctx) error
	Choice(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
	Quit(ctx *fiber.Ctx) error
}

// adventureController is the web-facing session API: unlike the mesh
// path, web clients address sessions by explicit id rather than by
// radio channel.
type adventureController struct {
	gameService service.IGameService
}

func NewAdventureController(gameService service.IGameService) IAdventureController {
	return &adventureController{
		gameService: gameService,
	}
}

func (c *adventureController) RegisterRoutes(r fiber.Router) {
	r.Get("/themes", c.Themes)

	h := r.Group("/adventure")
	h.Post("/start", c.Start)
	h.Post("/choice", c.Choice)
	h.Get("/status", c.Status)
	h.Post("/quit", c.Quit)
}

func (c *adventureController) Themes(ctx *fiber.Ctx) error {
	return ctx.JSON(dto.ThemesResponse{Themes: c.gameService.Themes()})
}

func (c *adventureController) Start(ctx *fiber.Ctx) error {
	var req dto.StartAdventureRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	res, err := c.gameService.StartWeb(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *adventureController) Choice(ctx *fiber.Ctx) error {
	var req dto.ChoiceRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.gameService.ChoiceWeb(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *adventureController) Status(ctx *fiber.Ctx) error {
	sessionId := ctx.Query("session_id")
	if sessionId == "" {
		return fiber.NewError(fiber.StatusBadRequest, "session_id is required")
	}

	res, err := c.gameService.StatusWeb(sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *adventureController) Quit(ctx *fiber.Ctx) error {
	var req dto.QuitRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.gameService.QuitWeb(&req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}
