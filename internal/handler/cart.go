package handler

import (
	"net/http"

	"cart-service/internal/dto"
	"cart-service/internal/service"

	"github.com/labstack/echo/v4"
)

type CartHandler struct {
	cartService service.CartService
}

func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
	}
}

func (h *CartHandler) GetCart(c echo.Context) error {
	ctx := c.Request().Context()

	cart, err := h.cartService.GetCart(ctx, c.Param("username"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) AddItem(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.AddItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	owner := c.Param("username")
	if err := h.cartService.AddItem(ctx, owner, req.ItemID); err != nil {
		return err
	}

	cart, err := h.cartService.GetCart(ctx, owner)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, cart)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.cartService.RemoveItem(ctx, c.Param("username"), c.Param("itemId")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.cartService.ClearCart(ctx, c.Param("username")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
