package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"cart-service/internal/client"
	"cart-service/internal/config"
	"cart-service/internal/logger"
	"cart-service/internal/model"
	"cart-service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := client.InitDBClient(config.Database{
		Driver: "sqlite",
		URL:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

type cartFixture struct {
	db       *gorm.DB
	cartRepo repository.CartRepository
	svc      CartService
}

func newCartFixture(t *testing.T) *cartFixture {
	t.Helper()

	db := openTestDB(t)
	require.NoError(t, db.Create(&[]model.Product{
		{Sku: "A", Name: "Apple", Price: decimal.RequireFromString("2.50"), Currency: "USD"},
		{Sku: "B", Name: "Banana", Price: decimal.RequireFromString("1.25"), Currency: "USD"},
	}).Error)

	cartRepo := repository.NewCartRepository(db)
	catalog := NewCatalogService(repository.NewProductRepository(db), nil, logger.Discard())

	return &cartFixture{
		db:       db,
		cartRepo: cartRepo,
		svc:      NewCartService(cartRepo, catalog, logger.Discard()),
	}
}

func (f *cartFixture) withStore(repo repository.CartRepository) CartService {
	catalog := NewCatalogService(repository.NewProductRepository(f.db), nil, logger.Discard())
	return NewCartService(repo, catalog, logger.Discard())
}

func TestCartService_AddRemoveClearScenario(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)

	require.NoError(t, f.svc.AddItem(ctx, "alice", "A"))

	cart, err := f.svc.GetCart(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.Equal(t, "A", cart.Items[0].ItemID)
	require.Equal(t, "Apple", cart.Items[0].Name)
	require.Equal(t, int32(1), cart.Items[0].Quantity)
	require.True(t, decimal.RequireFromString("2.50").Equal(cart.Items[0].UnitPrice))

	// a later catalog price change must not re-price the line
	require.NoError(t, f.db.Model(&model.Product{}).
		Where("sku = ?", "A").
		Update("price", decimal.RequireFromString("9.00")).Error)

	require.NoError(t, f.svc.AddItem(ctx, "alice", "A"))

	cart, err = f.svc.GetCart(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.Equal(t, int32(2), cart.Items[0].Quantity)
	require.True(t, decimal.RequireFromString("2.50").Equal(cart.Items[0].UnitPrice))
	require.True(t, decimal.RequireFromString("5.00").Equal(cart.Total))

	require.NoError(t, f.svc.RemoveItem(ctx, "alice", "A"))

	cart, err = f.svc.GetCart(ctx, "alice")
	require.NoError(t, err)
	require.Empty(t, cart.Items)

	require.NoError(t, f.svc.ClearCart(ctx, "alice"))
	_, err = f.cartRepo.GetCart(ctx, "alice")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCartService_ClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)

	require.NoError(t, f.svc.AddItem(ctx, "alice", "A"))
	require.NoError(t, f.svc.AddItem(ctx, "alice", "B"))

	require.NoError(t, f.svc.ClearCart(ctx, "alice"))
	require.NoError(t, f.svc.ClearCart(ctx, "alice"))

	cart, err := f.svc.GetCart(ctx, "alice")
	require.NoError(t, err)
	require.Empty(t, cart.Items)
	require.True(t, cart.Total.IsZero())
}

func TestCartService_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown sku", func(t *testing.T) {
		f := newCartFixture(t)
		err := f.svc.AddItem(ctx, "alice", "ZZZ")
		require.ErrorIs(t, err, ErrItemNotFound)
	})

	t.Run("remove on missing cart", func(t *testing.T) {
		f := newCartFixture(t)
		err := f.svc.RemoveItem(ctx, "alice", "A")
		require.ErrorIs(t, err, ErrCartNotFound)
	})

	t.Run("remove absent item is a no-op", func(t *testing.T) {
		f := newCartFixture(t)
		require.NoError(t, f.svc.AddItem(ctx, "alice", "A"))
		require.NoError(t, f.svc.RemoveItem(ctx, "alice", "B"))

		cart, err := f.svc.GetCart(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
	})

	t.Run("empty input", func(t *testing.T) {
		f := newCartFixture(t)
		require.ErrorIs(t, f.svc.AddItem(ctx, "alice", ""), ErrInvalidInput)
	})

	t.Run("quantity limit", func(t *testing.T) {
		f := newCartFixture(t)
		cart, err := f.cartRepo.CreateCart(ctx, "alice")
		require.NoError(t, err)
		require.NoError(t, f.cartRepo.PutItem(ctx, &model.CartItem{
			CartID:    cart.ID,
			Sku:       "A",
			Quantity:  math.MaxInt32,
			UnitPrice: decimal.RequireFromString("2.50"),
		}, 0))

		err = f.svc.AddItem(ctx, "alice", "A")
		require.ErrorIs(t, err, ErrQuantityLimit)
		require.NotErrorIs(t, err, ErrInvalidInput)

		item, err := f.cartRepo.GetItem(ctx, cart.ID, "A")
		require.NoError(t, err)
		require.Equal(t, int32(math.MaxInt32), item.Quantity)
		require.Equal(t, int64(1), item.Version)
	})

	t.Run("storage fault is not a conflict", func(t *testing.T) {
		f := newCartFixture(t)
		boom := errors.New("disk on fire")
		svc := f.withStore(&faultyStore{CartRepository: f.cartRepo, err: boom})

		err := svc.AddItem(ctx, "alice", "A")
		require.ErrorIs(t, err, boom)
		require.NotErrorIs(t, err, ErrConcurrentModification)
	})

	t.Run("stale read surfaces as concurrent modification", func(t *testing.T) {
		f := newCartFixture(t)
		require.NoError(t, f.svc.AddItem(ctx, "alice", "A"))

		svc := f.withStore(&staleStore{CartRepository: f.cartRepo})
		require.ErrorIs(t, svc.AddItem(ctx, "alice", "A"), ErrConcurrentModification)
		require.ErrorIs(t, svc.RemoveItem(ctx, "alice", "A"), ErrConcurrentModification)
		require.ErrorIs(t, svc.ClearCart(ctx, "alice"), ErrConcurrentModification)
	})
}

func TestCartService_ConcurrentAddsNeverLoseUpdates(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)

	const n = 25
	var successes atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			err := f.svc.AddItem(gctx, "alice", "A")
			switch {
			case err == nil:
				successes.Add(1)
				return nil
			case errors.Is(err, ErrConcurrentModification):
				return nil
			default:
				return err
			}
		})
	}
	require.NoError(t, g.Wait())
	require.Positive(t, successes.Load())

	cart, err := f.svc.GetCart(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.Equal(t, successes.Load(), cart.Items[0].Quantity)
}

func TestCartService_ConcurrentFirstAdd(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)

	cart, err := f.cartRepo.CreateCart(ctx, "alice")
	require.NoError(t, err)

	// both writers observe the item as absent before either inserts
	gate := &gatedStore{CartRepository: f.cartRepo}
	gate.wg.Add(2)
	svc := f.withStore(gate)

	errs := make([]error, 2)
	var g errgroup.Group
	for i := range errs {
		i := i
		g.Go(func() error {
			errs[i] = svc.AddItem(ctx, "alice", "B")
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrConcurrentModification):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, 1, conflicts)

	item, err := f.cartRepo.GetItem(ctx, cart.ID, "B")
	require.NoError(t, err)
	require.Equal(t, int32(1), item.Quantity)

	// the loser resubmits and lands as an update
	require.NoError(t, f.svc.AddItem(ctx, "alice", "B"))
	item, err = f.cartRepo.GetItem(ctx, cart.ID, "B")
	require.NoError(t, err)
	require.Equal(t, int32(2), item.Quantity)
}

func TestCartService_AddAfterConcurrentClear(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)
	require.NoError(t, f.svc.AddItem(ctx, "alice", "A"))

	// the cart disappears between the add's read and its write
	svc := f.withStore(&clearingStore{CartRepository: f.cartRepo})
	require.ErrorIs(t, svc.AddItem(ctx, "alice", "A"), ErrCartNotFound)

	cart, err := f.svc.GetCart(ctx, "alice")
	require.NoError(t, err)
	require.Empty(t, cart.Items)
}

var (
	_ repository.CartRepository = (*gatedStore)(nil)
	_ repository.CartRepository = (*faultyStore)(nil)
	_ repository.CartRepository = (*staleStore)(nil)
	_ repository.CartRepository = (*clearingStore)(nil)
)

// gatedStore holds every GetItem caller until wg reaches zero.
type gatedStore struct {
	repository.CartRepository
	wg sync.WaitGroup
}

func (s *gatedStore) GetItem(ctx context.Context, cartID uint, sku string) (*model.CartItem, error) {
	item, err := s.CartRepository.GetItem(ctx, cartID, sku)
	s.wg.Done()
	s.wg.Wait()
	return item, err
}

type faultyStore struct {
	repository.CartRepository
	err error
}

func (s *faultyStore) PutItem(context.Context, *model.CartItem, int64) error {
	return s.err
}

// staleStore reports versions one behind what is stored.
type staleStore struct {
	repository.CartRepository
}

func (s *staleStore) GetCart(ctx context.Context, owner string) (*model.Cart, error) {
	cart, err := s.CartRepository.GetCart(ctx, owner)
	if err == nil {
		cart.Version--
	}
	return cart, err
}

func (s *staleStore) GetItem(ctx context.Context, cartID uint, sku string) (*model.CartItem, error) {
	item, err := s.CartRepository.GetItem(ctx, cartID, sku)
	if err == nil {
		item.Version--
	}
	return item, err
}

// clearingStore deletes the owner's cart right after the item read.
type clearingStore struct {
	repository.CartRepository
	owner string
}

func (s *clearingStore) GetCart(ctx context.Context, owner string) (*model.Cart, error) {
	s.owner = owner
	return s.CartRepository.GetCart(ctx, owner)
}

func (s *clearingStore) GetItem(ctx context.Context, cartID uint, sku string) (*model.CartItem, error) {
	item, err := s.CartRepository.GetItem(ctx, cartID, sku)
	if cart, cerr := s.CartRepository.GetCart(ctx, s.owner); cerr == nil {
		if derr := s.CartRepository.DeleteCart(ctx, s.owner, cart.Version); derr != nil {
			return nil, derr
		}
	}
	return item, err
}
