package catalog

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/bookstore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	"github.com/angelmondragon/bookstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type memoryCache struct {
	mu   sync.Mutex
	data map[string]string
	gets int
	sets int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string]string{}}
}

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	v, ok := m.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	default:
		m.data[key] = fmt.Sprint(v)
	}
	return nil
}

func (m *memoryCache) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryCache) CacheKey(parts ...string) string {
	key := "test:cache"
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

type fixture struct {
	db    *gorm.DB
	cache *memoryCache
	svc   Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t)
	cache := newMemoryCache()
	svc, err := NewService(ServiceParams{
		Repository: NewRepository(conn),
		Cache:      cache,
		Logger:     logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Clock:      func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return &fixture{db: conn, cache: cache, svc: svc}
}

type itemSeed struct {
	name     string
	price    int
	sale     *int
	salePct  *int
	stock    int
	inactive bool
	age      time.Duration
}

func (f *fixture) seed(t *testing.T, s itemSeed) models.Item {
	t.Helper()
	item := models.Item{
		Name:           s.name,
		PriceCents:     s.price,
		SalePriceCents: s.sale,
		SalePercentage: s.salePct,
		OnSale:         s.sale != nil,
		Stock:          s.stock,
		Active:         !s.inactive,
		CreatedAt:      fixedNow.Add(-s.age),
	}
	require.NoError(t, f.db.Create(&item).Error)
	return item
}

func intPtr(v int) *int { return &v }

func names(items []models.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}

func TestListHidesInactiveFromCustomers(t *testing.T) {
	f := newFixture(t)
	f.seed(t, itemSeed{name: "Emma", price: 1000, stock: 2, age: 2 * time.Hour})
	f.seed(t, itemSeed{name: "Persuasion", price: 1200, stock: 1, inactive: true, age: time.Hour})

	res, err := f.svc.List(context.Background(), ListInput{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Emma"}, names(res.Items))

	res, err = f.svc.List(context.Background(), ListInput{IsAdmin: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Persuasion", "Emma"}, names(res.Items))
}

func TestListFiltersAndSorts(t *testing.T) {
	f := newFixture(t)
	f.seed(t, itemSeed{name: "The Hobbit", price: 1500, stock: 3, age: 3 * time.Hour})
	f.seed(t, itemSeed{name: "Hobbit Companion", price: 900, stock: 0, age: 2 * time.Hour})
	f.seed(t, itemSeed{name: "Beloved", price: 1100, stock: 4, age: time.Hour})
	ctx := context.Background()

	res, err := f.svc.List(ctx, ListInput{Filters: ListFilters{Query: "hobbit"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hobbit Companion", "The Hobbit"}, names(res.Items))

	res, err = f.svc.List(ctx, ListInput{Filters: ListFilters{Stock: enums.StockFilterInStock, Sort: enums.CatalogSortPriceLow}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Beloved", "The Hobbit"}, names(res.Items))

	res, err = f.svc.List(ctx, ListInput{Filters: ListFilters{Stock: enums.StockFilterOutOfStock}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hobbit Companion"}, names(res.Items))

	res, err = f.svc.List(ctx, ListInput{Filters: ListFilters{Sort: enums.CatalogSortName}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Beloved", "Hobbit Companion", "The Hobbit"}, names(res.Items))

	res, err = f.svc.List(ctx, ListInput{Filters: ListFilters{Sort: enums.CatalogSortPriceHigh}})
	require.NoError(t, err)
	assert.Equal(t, []string{"The Hobbit", "Beloved", "Hobbit Companion"}, names(res.Items))
}

func TestListQueryTreatsWildcardsLiterally(t *testing.T) {
	f := newFixture(t)
	f.seed(t, itemSeed{name: "100% Human", price: 1000, stock: 1})
	f.seed(t, itemSeed{name: "1000 Years", price: 1000, stock: 1})

	res, err := f.svc.List(context.Background(), ListInput{Filters: ListFilters{Query: "100%"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"100% Human"}, names(res.Items))
}

func TestListPaginates(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		f.seed(t, itemSeed{name: fmt.Sprintf("Volume %d", i), price: 1000, stock: 1, age: time.Duration(i) * time.Minute})
	}
	ctx := context.Background()

	res, err := f.svc.List(ctx, ListInput{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Volume 0", "Volume 1"}, names(res.Items))
	assert.True(t, res.HasMore)

	res, err = f.svc.List(ctx, ListInput{Page: 3, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Volume 4"}, names(res.Items))
	assert.False(t, res.HasMore)
}

func TestListRejectsUnknownFilters(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.List(context.Background(), ListInput{Filters: ListFilters{Stock: "some"}})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = f.svc.List(context.Background(), ListInput{Filters: ListFilters{Sort: enums.CatalogSortDiscount}})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestListOnSale(t *testing.T) {
	f := newFixture(t)
	f.seed(t, itemSeed{name: "Half Off", price: 2000, sale: intPtr(1000), salePct: intPtr(50), stock: 2})
	f.seed(t, itemSeed{name: "Quarter Off", price: 2000, sale: intPtr(1500), salePct: intPtr(25), stock: 2})
	f.seed(t, itemSeed{name: "Sold Out Sale", price: 2000, sale: intPtr(1200), salePct: intPtr(40), stock: 0})
	f.seed(t, itemSeed{name: "Full Price", price: 900, stock: 9})
	ctx := context.Background()

	res, err := f.svc.ListOnSale(ctx, SaleInput{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Half Off", "Quarter Off"}, names(res.Items))

	res, err = f.svc.ListOnSale(ctx, SaleInput{Filters: SaleFilters{Sort: enums.CatalogSortPriceHigh, Stock: enums.StockFilterAll}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Quarter Off", "Sold Out Sale", "Half Off"}, names(res.Items))

	res, err = f.svc.ListOnSale(ctx, SaleInput{Filters: SaleFilters{MinPriceCents: intPtr(1100), MaxPriceCents: intPtr(1600)}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Quarter Off"}, names(res.Items))

	_, err = f.svc.ListOnSale(ctx, SaleInput{Filters: SaleFilters{MinPriceCents: intPtr(10), MaxPriceCents: intPtr(5)}})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestGetDetail(t *testing.T) {
	f := newFixture(t)
	item := f.seed(t, itemSeed{name: "Dune", price: 1500, stock: 2, age: 5 * time.Hour})
	f.seed(t, itemSeed{name: "Near", price: 1900, stock: 1, age: 4 * time.Hour})
	f.seed(t, itemSeed{name: "Too Far", price: 2100, stock: 1, age: 3 * time.Hour})
	f.seed(t, itemSeed{name: "Hidden", price: 1500, stock: 1, inactive: true, age: 2 * time.Hour})

	detail, err := f.svc.Get(context.Background(), item.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "Dune", detail.Item.Name)
	assert.Equal(t, "Dune's Author", detail.Metadata.Author)
	assert.Len(t, detail.Metadata.Reviews, 3)
	assert.Equal(t, []string{"Near"}, names(detail.Related))
}

func TestGetPrefersStoredAuthor(t *testing.T) {
	f := newFixture(t)
	author := "Frank Herbert"
	item := models.Item{Name: "Dune", Author: &author, PriceCents: 1500, Stock: 1, Active: true}
	require.NoError(t, f.db.Create(&item).Error)

	detail, err := f.svc.Get(context.Background(), item.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "Frank Herbert", detail.Metadata.Author)
}

func TestGetInactiveVisibleOnlyToAdmins(t *testing.T) {
	f := newFixture(t)
	item := f.seed(t, itemSeed{name: "Draft", price: 1000, inactive: true})

	_, err := f.svc.Get(context.Background(), item.ID, false)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	detail, err := f.svc.Get(context.Background(), item.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "Draft", detail.Item.Name)
	assert.Zero(t, f.cache.sets, "inactive items are never cached")
}

func TestGetMissingItem(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Get(context.Background(), uuid.New(), true)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	_, err = f.svc.Get(context.Background(), uuid.Nil, true)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestGetServesFromCache(t *testing.T) {
	f := newFixture(t)
	item := f.seed(t, itemSeed{name: "Cached", price: 1000, stock: 1})
	ctx := context.Background()

	first, err := f.svc.Get(ctx, item.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.sets)

	require.NoError(t, f.db.Model(&models.Item{}).Where("id = ?", item.ID).Update("name", "Renamed").Error)

	second, err := f.svc.Get(ctx, item.ID, false)
	require.NoError(t, err)
	assert.Equal(t, first.Item.Name, second.Item.Name)

	require.NoError(t, f.svc.Invalidate(ctx, item.ID))
	third, err := f.svc.Get(ctx, item.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", third.Item.Name)
}

type countingRepo struct {
	Repository
	mu    sync.Mutex
	finds int
	gate  chan struct{}
}

func (c *countingRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	c.mu.Lock()
	c.finds++
	c.mu.Unlock()
	<-c.gate
	return c.Repository.FindByID(ctx, id)
}

func TestGetCollapsesConcurrentMisses(t *testing.T) {
	conn := dbtest.Open(t)
	item := models.Item{Name: "Popular", PriceCents: 1000, Stock: 1, Active: true}
	require.NoError(t, conn.Create(&item).Error)

	repo := &countingRepo{Repository: NewRepository(conn), gate: make(chan struct{})}
	svc, err := NewService(ServiceParams{
		Repository: repo,
		Logger:     logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)

	const callers = 5
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Get(context.Background(), item.ID, false)
			errs <- err
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(repo.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Less(t, repo.finds, callers)
}

func TestNewServiceRequiresDeps(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)

	_, err = NewService(ServiceParams{Repository: NewRepository(nil)})
	assert.Error(t, err)
}
