package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/coindeck/coindeck/internal/api"
	"github.com/coindeck/coindeck/internal/auth"
	"github.com/coindeck/coindeck/internal/chat"
	"github.com/coindeck/coindeck/internal/config"
	"github.com/coindeck/coindeck/internal/contract"
	"github.com/coindeck/coindeck/internal/db"
	"github.com/coindeck/coindeck/internal/market"
	"github.com/coindeck/coindeck/internal/storage"
)

// newTestServer wires a real server over in-memory storage, with an upstream
// that counts hits so cache behavior is observable.
func newTestServer(t *testing.T) (*Client, *auth.Service, *int64) {
	t.Helper()

	var upstreamHits int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&upstreamHits, 1)
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/coins/markets" {
			w.Write([]byte(`[{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":100000,"price_change_percentage_24h":1.0,"market_cap":2000000000000}]`))
			return
		}
		w.Write([]byte(`{"prices":[[1700000000000,90000]]}`))
	}))
	t.Cleanup(upstream.Close)

	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	store := storage.New(gormDB)
	log := zap.NewNop().Sugar()

	cfg := &config.Config{
		Session: config.SessionConfig{
			SecretKey:  "test_secret",
			TTL:        time.Hour,
			CookieName: "session_id",
		},
		Market: config.MarketConfig{BaseURL: upstream.URL, Timeout: 2 * time.Second},
	}
	service := auth.NewService(store, []byte(cfg.Session.SecretKey))
	router := api.SetupRouter(api.Deps{
		Store:       store,
		Market:      market.NewClient(cfg.Market, log),
		AuthService: service,
		Sessions:    auth.NewMemorySessionStore(cfg.Session.TTL),
		Responder:   chat.NewSeededResponder(1),
		Config:      cfg,
		Log:         log,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	c, err := New(server.URL)
	require.NoError(t, err)
	return c, service, &upstreamHits
}

func (c *Client) mustLogin(t *testing.T, service *auth.Service, username string) {
	t.Helper()
	_, err := service.Register(context.Background(), username, "", "pw")
	require.NoError(t, err)
	_, err = c.Login(context.Background(), username, "pw")
	require.NoError(t, err)
}

func TestMarketSnapshotIsCached(t *testing.T) {
	c, _, hits := newTestServer(t)
	ctx := context.Background()

	first, err := c.Market(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := c.Market(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, atomic.LoadInt64(hits), "second read must come from cache")
}

func TestHistoryCachedPerCoin(t *testing.T) {
	c, _, hits := newTestServer(t)
	ctx := context.Background()

	_, err := c.History(ctx, "bitcoin")
	require.NoError(t, err)
	_, err = c.History(ctx, "bitcoin")
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt64(hits))

	_, err = c.History(ctx, "ethereum")
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt64(hits), "different coin is a different cache key")
}

func TestFavoritesWriteInvalidatesList(t *testing.T) {
	c, service, _ := newTestServer(t)
	ctx := context.Background()
	c.mustLogin(t, service, "alice")

	favorites, err := c.Favorites(ctx)
	require.NoError(t, err)
	assert.Empty(t, favorites)

	created, err := c.AddFavorite(ctx, contract.InsertFavorite{Symbol: "bitcoin", Name: "Bitcoin"})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	// The mutation invalidated the cached list; this read refetches and
	// observes the write.
	favorites, err = c.Favorites(ctx)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, "bitcoin", favorites[0].Symbol)

	require.NoError(t, c.RemoveFavorite(ctx, created.ID))
	favorites, err = c.Favorites(ctx)
	require.NoError(t, err)
	assert.Empty(t, favorites)
}

func TestScenariosWriteInvalidatesList(t *testing.T) {
	c, service, _ := newTestServer(t)
	ctx := context.Background()
	c.mustLogin(t, service, "alice")

	created, err := c.CreateScenario(ctx, contract.InsertScenario{
		CoinID:           "bitcoin",
		Date:             "2020-01-01T00:00:00Z",
		InvestmentAmount: "1000.50",
	})
	require.NoError(t, err)
	assert.Equal(t, "1000.50", created.InvestmentAmount)

	scenarios, err := c.Scenarios(ctx)
	require.NoError(t, err)
	require.Len(t, scenarios, 1)
	assert.Equal(t, "1000.50", scenarios[0].InvestmentAmount)

	require.NoError(t, c.DeleteScenario(ctx, created.ID))
	scenarios, err = c.Scenarios(ctx)
	require.NoError(t, err)
	assert.Empty(t, scenarios)
}

func TestClientValidatesBeforeSending(t *testing.T) {
	c, _, _ := newTestServer(t)

	_, err := c.AddFavorite(context.Background(), contract.InsertFavorite{Symbol: "bitcoin"})
	require.Error(t, err)

	var validationErr *contract.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "name", validationErr.Field)
}

func TestUnauthenticatedReadsFail(t *testing.T) {
	c, _, _ := newTestServer(t)

	_, err := c.Favorites(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nauthorized")
}

func TestBearerTokenClient(t *testing.T) {
	c, service, _ := newTestServer(t)
	ctx := context.Background()

	user, err := service.Register(ctx, "bob", "", "pw")
	require.NoError(t, err)
	token, err := service.IssueToken(user)
	require.NoError(t, err)

	c.SetToken(token)
	favorites, err := c.Favorites(ctx)
	require.NoError(t, err)
	assert.Empty(t, favorites)
}
