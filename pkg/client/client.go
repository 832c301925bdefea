// Package client is a typed Go client for the coindeck API: one method per
// route, schema validation on inputs, and a pull-based cache with the same
// freshness windows the web client uses. Writes invalidate the matching list
// query, so the next read observes the write.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/coindeck/coindeck/internal/contract"
	"github.com/coindeck/coindeck/internal/models"
)

// Cache keys, one per list query.
const (
	keyMarket     = "market"
	keyFavorites  = "favorites"
	keyScenarios  = "scenarios"
	historyPrefix = "history:"
)

// Freshness windows matching the web client.
const (
	marketTTL  = time.Minute
	historyTTL = 5 * time.Minute
)

// invalidations is the explicit mutation-to-cache rule table: each mutating
// route lists the cache keys it stales.
var invalidations = map[contract.Route][]string{
	contract.API.FavoritesCreate: {keyFavorites},
	contract.API.FavoritesDelete: {keyFavorites},
	contract.API.ScenariosCreate: {keyScenarios},
	contract.API.ScenariosDelete: {keyScenarios},
}

// Client talks to a coindeck server
type Client struct {
	http  *resty.Client
	cache *queryCache
}

// New creates a client for the given base URL. Session cookies set by Login
// are kept in an in-memory jar.
func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetCookieJar(jar)
	return &Client{http: httpClient, cache: newQueryCache()}, nil
}

// SetToken switches the client to bearer authentication instead of cookies
func (c *Client) SetToken(token string) {
	c.http.SetAuthToken(token)
}

// Login opens a session; subsequent requests carry the session cookie
func (c *Client) Login(ctx context.Context, username, password string) (*models.TokenResponse, error) {
	var token models.TokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(models.LoginRequest{Username: username, Password: password}).
		SetResult(&token).
		Post(contract.API.Login.Path)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return &token, nil
}

// Logout closes the session and drops all cached user data
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Post(contract.API.Logout.Path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}
	c.cache.invalidate(keyFavorites, keyScenarios)
	return nil
}

// Market returns the market snapshot, cached for one minute
func (c *Client) Market(ctx context.Context) ([]models.Coin, error) {
	if cached, ok := c.cache.get(keyMarket); ok {
		return cached.([]models.Coin), nil
	}

	var coins []models.Coin
	resp, err := c.http.R().SetContext(ctx).SetResult(&coins).Get(contract.API.CryptoMarket.Path)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	c.cache.set(keyMarket, coins, marketTTL)
	return coins, nil
}

// History returns the 30-day price series for one asset, cached five minutes
func (c *Client) History(ctx context.Context, id string) (*models.PriceHistory, error) {
	key := historyPrefix + id
	if cached, ok := c.cache.get(key); ok {
		return cached.(*models.PriceHistory), nil
	}

	var history models.PriceHistory
	url := contract.BuildURL(contract.API.CryptoHistory.Path, map[string]interface{}{"id": id})
	resp, err := c.http.R().SetContext(ctx).SetResult(&history).Get(url)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	c.cache.set(key, &history, historyTTL)
	return &history, nil
}

// Favorites returns the current user's favorites, cached until a favorite
// mutation invalidates the list
func (c *Client) Favorites(ctx context.Context) ([]models.Favorite, error) {
	if cached, ok := c.cache.get(keyFavorites); ok {
		return cached.([]models.Favorite), nil
	}

	var favorites []models.Favorite
	resp, err := c.http.R().SetContext(ctx).SetResult(&favorites).Get(contract.API.FavoritesList.Path)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	c.cache.set(keyFavorites, favorites, 0)
	return favorites, nil
}

// AddFavorite creates a favorite and invalidates the favorites list
func (c *Client) AddFavorite(ctx context.Context, input contract.InsertFavorite) (*models.Favorite, error) {
	if err := contract.Validate(input); err != nil {
		return nil, err
	}

	var favorite models.Favorite
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(input).
		SetResult(&favorite).
		Post(contract.API.FavoritesCreate.Path)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	c.cache.invalidate(invalidations[contract.API.FavoritesCreate]...)
	return &favorite, nil
}

// RemoveFavorite deletes a favorite by id and invalidates the favorites list
func (c *Client) RemoveFavorite(ctx context.Context, id uint) error {
	url := contract.BuildURL(contract.API.FavoritesDelete.Path, map[string]interface{}{"id": id})
	resp, err := c.http.R().SetContext(ctx).Delete(url)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}
	c.cache.invalidate(invalidations[contract.API.FavoritesDelete]...)
	return nil
}

// Scenarios returns the current user's scenarios, cached until a scenario
// mutation invalidates the list
func (c *Client) Scenarios(ctx context.Context) ([]models.Scenario, error) {
	if cached, ok := c.cache.get(keyScenarios); ok {
		return cached.([]models.Scenario), nil
	}

	var scenarios []models.Scenario
	resp, err := c.http.R().SetContext(ctx).SetResult(&scenarios).Get(contract.API.ScenariosList.Path)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	c.cache.set(keyScenarios, scenarios, 0)
	return scenarios, nil
}

// CreateScenario creates a scenario and invalidates the scenarios list
func (c *Client) CreateScenario(ctx context.Context, input contract.InsertScenario) (*models.Scenario, error) {
	if err := contract.Validate(input); err != nil {
		return nil, err
	}

	var scenario models.Scenario
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(input).
		SetResult(&scenario).
		Post(contract.API.ScenariosCreate.Path)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	c.cache.invalidate(invalidations[contract.API.ScenariosCreate]...)
	return &scenario, nil
}

// DeleteScenario deletes a scenario by id and invalidates the scenarios list
func (c *Client) DeleteScenario(ctx context.Context, id uint) error {
	url := contract.BuildURL(contract.API.ScenariosDelete.Path, map[string]interface{}{"id": id})
	resp, err := c.http.R().SetContext(ctx).Delete(url)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}
	c.cache.invalidate(invalidations[contract.API.ScenariosDelete]...)
	return nil
}

// apiError converts a non-2xx response into an error carrying the server's
// message when one was sent
func apiError(resp *resty.Response) error {
	var body contract.ErrorResponse
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Message != "" {
		if resp.StatusCode() == http.StatusUnauthorized {
			return fmt.Errorf("unauthorized: %s", body.Message)
		}
		return fmt.Errorf("request failed (%d): %s", resp.StatusCode(), body.Message)
	}
	return fmt.Errorf("request failed with status %d", resp.StatusCode())
}
