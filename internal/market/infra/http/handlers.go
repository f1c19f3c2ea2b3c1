// Package http exposes the matching engine over a JSON API. Handlers stay
// thin: parse, validate, call the service, map domain errors to status
// codes.
package http

import (
	"errors"
	"fmt"
	"time"

	"github.com/agrimandi/procurement-engine/internal/market/application"
	"github.com/agrimandi/procurement-engine/internal/market/domain"
	"github.com/agrimandi/procurement-engine/internal/shared/logger"
	userdomain "github.com/agrimandi/procurement-engine/internal/user/domain"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

type Handlers struct {
	service  application.MarketService
	users    userdomain.Repository
	validate *validator.Validate
}

func NewHandlers(service application.MarketService, users userdomain.Repository) *Handlers {
	return &Handlers{
		service:  service,
		users:    users,
		validate: validator.New(),
	}
}

// RegisterRoutes mounts the API under /api/v1.
func (h *Handlers) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Post("/users", h.RegisterUser)

	api.Post("/lots", h.RequireActor, h.CreateLot)
	api.Get("/lots", h.ListLots)
	api.Get("/lots/:id", h.GetLot)
	api.Post("/lots/:id/publish", h.RequireActor, h.PublishLot)
	api.Delete("/lots/:id", h.RequireActor, h.WithdrawLot)
	api.Post("/lots/:id/bids", h.RequireActor, h.PlaceBid)

	api.Post("/bids/:id/accept", h.RequireActor, h.AcceptBid)
	api.Post("/bids/:id/reject", h.RequireActor, h.RejectBid)
	api.Delete("/bids/:id", h.RequireActor, h.WithdrawBid)

	api.Get("/my/bids", h.RequireActor, h.MyBids)
}

// writeError maps the domain error taxonomy onto HTTP status codes:
// 422 validation, 404 not found, 403 unauthorized, 409 invariant conflict.
func writeError(c *fiber.Ctx, err error) error {
	var status int
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrLotNotFound), errors.Is(err, domain.ErrBidNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		status = fiber.StatusForbidden
	case errors.Is(err, domain.ErrLotNotOpen),
		errors.Is(err, domain.ErrBidNotPending),
		errors.Is(err, domain.ErrAlreadyResolved):
		status = fiber.StatusConflict
	default:
		log.Error("unhandled error", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func parseIDParam(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id", domain.ErrValidation)
	}
	return id, nil
}

func (h *Handlers) RegisterUser(c *fiber.Ctx) error {
	var req RegisterUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}
	if !userdomain.ValidRole(userdomain.Role(req.Role)) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "unknown role"})
	}

	user := &userdomain.User{
		ID:        uuid.New(),
		Name:      req.Name,
		Role:      userdomain.Role(req.Role),
		CreatedAt: time.Now(),
	}
	if err := h.users.Create(c.Context(), user); err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":   user.ID,
		"name": user.Name,
		"role": string(user.Role),
	})
}

func (h *Handlers) CreateLot(c *fiber.Ctx) error {
	var req CreateLotRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	publish := true
	if req.Publish != nil {
		publish = *req.Publish
	}
	lot, err := h.service.CreateLot(c.Context(), application.CreateLotCmd{
		SellerID:  actor(c),
		CropType:  req.CropType,
		Variety:   req.Variety,
		Quantity:  req.Quantity,
		Unit:      req.Unit,
		BasePrice: req.BasePrice,
		Expiry:    req.Expiry,
		Publish:   publish,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toLotResponse(lot))
}

func (h *Handlers) ListLots(c *fiber.Ctx) error {
	filter := domain.LotFilter{
		Status:   domain.LotStatus(c.Query("status")),
		CropType: c.Query("crop"),
	}
	if filter.Status != "" && !domain.ValidLotStatus(filter.Status) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "unknown status"})
	}
	if raw := c.Query("seller"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "invalid seller id"})
		}
		filter.SellerID = id
	}
	if raw := c.Query("min_price"); raw != "" {
		p, err := decimal.NewFromString(raw)
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "invalid min_price"})
		}
		filter.MinPrice = &p
	}
	if raw := c.Query("max_price"); raw != "" {
		p, err := decimal.NewFromString(raw)
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "invalid max_price"})
		}
		filter.MaxPrice = &p
	}

	lots, err := h.service.ListLots(c.Context(), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toLotResponses(lots))
}

// GetLot returns the lot, with its bids when the requester is the seller.
// The actor header is optional here: anonymous browsing gets the lot only.
func (h *Handlers) GetLot(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return writeError(c, err)
	}

	actorID := uuid.Nil
	if raw := c.Get("X-User-ID"); raw != "" {
		if parsed, perr := uuid.Parse(raw); perr == nil {
			actorID = parsed
		}
	}

	lot, bids, err := h.service.GetLotWithBids(c.Context(), id, actorID)
	if err != nil {
		return writeError(c, err)
	}
	resp := LotDetailResponse{Lot: toLotResponse(lot)}
	if bids != nil {
		resp.Bids = toBidResponses(bids)
	}
	return c.JSON(resp)
}

func (h *Handlers) PublishLot(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return writeError(c, err)
	}
	lot, err := h.service.PublishLot(c.Context(), id, actor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toLotResponse(lot))
}

func (h *Handlers) WithdrawLot(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return writeError(c, err)
	}
	lot, err := h.service.WithdrawLot(c.Context(), id, actor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toLotResponse(lot))
}

func (h *Handlers) PlaceBid(c *fiber.Ctx) error {
	lotID, err := parseIDParam(c)
	if err != nil {
		return writeError(c, err)
	}
	var req PlaceBidRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	bid, err := h.service.PlaceBid(c.Context(), lotID, actor(c), req.Amount)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toBidResponse(bid))
}

func (h *Handlers) AcceptBid(c *fiber.Ctx) error {
	bidID, err := parseIDParam(c)
	if err != nil {
		return writeError(c, err)
	}
	// the path only names the bid; resolve its lot first
	bid, err := h.service.GetBid(c.Context(), bidID)
	if err != nil {
		return writeError(c, err)
	}

	lot, accepted, err := h.service.AcceptBid(c.Context(), bid.LotID, bidID, actor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(AcceptBidResponse{Lot: toLotResponse(lot), Bid: toBidResponse(accepted)})
}

func (h *Handlers) RejectBid(c *fiber.Ctx) error {
	bidID, err := parseIDParam(c)
	if err != nil {
		return writeError(c, err)
	}
	bid, err := h.service.GetBid(c.Context(), bidID)
	if err != nil {
		return writeError(c, err)
	}

	rejected, err := h.service.RejectBid(c.Context(), bid.LotID, bidID, actor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toBidResponse(rejected))
}

func (h *Handlers) WithdrawBid(c *fiber.Ctx) error {
	bidID, err := parseIDParam(c)
	if err != nil {
		return writeError(c, err)
	}
	bid, err := h.service.WithdrawBid(c.Context(), bidID, actor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toBidResponse(bid))
}

func (h *Handlers) MyBids(c *fiber.Ctx) error {
	bids, err := h.service.ListBidderBids(c.Context(), actor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toBidResponses(bids))
}
