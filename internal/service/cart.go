package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"cart-service/internal/dto"
	"cart-service/internal/model"
	"cart-service/internal/repository"

	"github.com/shopspring/decimal"
)

// CartService mutates carts with one optimistic attempt per call.
// Conflicts are returned as ErrConcurrentModification and never retried here.
type CartService interface {
	AddItem(ctx context.Context, owner, sku string) error
	RemoveItem(ctx context.Context, owner, sku string) error
	ClearCart(ctx context.Context, owner string) error
	GetCart(ctx context.Context, owner string) (*dto.CartResponse, error)
}

type cartServiceImpl struct {
	cartRepo repository.CartRepository
	catalog  CatalogService
	logger   *slog.Logger
}

func NewCartService(
	cartRepo repository.CartRepository,
	catalog CatalogService,
	logger *slog.Logger,
) CartService {
	return &cartServiceImpl{
		cartRepo: cartRepo,
		catalog:  catalog,
		logger:   logger,
	}
}

func (s *cartServiceImpl) AddItem(ctx context.Context, owner, sku string) error {
	if owner == "" || sku == "" {
		return fmt.Errorf("%w: owner and item id are required", ErrInvalidInput)
	}

	cart, err := s.cartRepo.GetCart(ctx, owner)
	if errors.Is(err, repository.ErrNotFound) {
		cart, err = s.cartRepo.CreateCart(ctx, owner)
	}
	if err != nil {
		return fmt.Errorf("resolve cart: %w", err)
	}

	item, err := s.cartRepo.GetItem(ctx, cart.ID, sku)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		price, err := s.catalog.FindPrice(ctx, sku)
		if err != nil {
			return err
		}

		item = &model.CartItem{
			CartID:    cart.ID,
			Sku:       sku,
			Quantity:  1,
			UnitPrice: price,
		}
		err = s.cartRepo.PutItem(ctx, item, 0)
		return s.translate(ctx, "add item", owner, sku, err)

	case err != nil:
		return fmt.Errorf("get item: %w", err)

	default:
		if item.Quantity >= math.MaxInt32 {
			return fmt.Errorf("%w: %s", ErrQuantityLimit, sku)
		}

		expected := item.Version
		item.Quantity++
		err = s.cartRepo.PutItem(ctx, item, expected)
		return s.translate(ctx, "add item", owner, sku, err)
	}
}

func (s *cartServiceImpl) RemoveItem(ctx context.Context, owner, sku string) error {
	cart, err := s.cartRepo.GetCart(ctx, owner)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrCartNotFound
	}
	if err != nil {
		return fmt.Errorf("get cart: %w", err)
	}

	item, err := s.cartRepo.GetItem(ctx, cart.ID, sku)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get item: %w", err)
	}

	err = s.cartRepo.DeleteItem(ctx, cart.ID, sku, item.Version)
	return s.translate(ctx, "remove item", owner, sku, err)
}

func (s *cartServiceImpl) ClearCart(ctx context.Context, owner string) error {
	cart, err := s.cartRepo.GetCart(ctx, owner)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get cart: %w", err)
	}

	err = s.cartRepo.DeleteCart(ctx, owner, cart.Version)
	if errors.Is(err, repository.ErrNotFound) {
		// cleared by someone else in between, the end state is the same
		return nil
	}
	return s.translate(ctx, "clear cart", owner, "", err)
}

func (s *cartServiceImpl) GetCart(ctx context.Context, owner string) (*dto.CartResponse, error) {
	resp := &dto.CartResponse{
		Owner: owner,
		Items: []*dto.CartItemResponse{},
		Total: decimal.Zero,
	}

	cart, err := s.cartRepo.Snapshot(ctx, owner)
	if errors.Is(err, repository.ErrNotFound) {
		return resp, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}

	for _, item := range cart.Items {
		subtotal := item.UnitPrice.Mul(decimal.NewFromInt32(item.Quantity))
		resp.Items = append(resp.Items, &dto.CartItemResponse{
			ItemID:    item.Sku,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  subtotal,
		})
		resp.Total = resp.Total.Add(subtotal)
	}

	return resp, nil
}

// translate maps store outcomes onto the service error taxonomy.
func (s *cartServiceImpl) translate(ctx context.Context, op, owner, sku string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrConflict):
		s.logger.InfoContext(ctx, "optimistic write lost", "op", op, "owner", owner, "sku", sku)
		return ErrConcurrentModification
	case errors.Is(err, repository.ErrNotFound):
		return ErrCartNotFound
	case errors.Is(err, repository.ErrInvalidQuantity):
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
