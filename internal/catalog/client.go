package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

var errLoggerRequired = errors.New("catalog logger is required")

// Client fetches products and categories from the remote catalog service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logger.Logger
	metrics    *metrics.ClientMetrics
}

// NewClient builds a catalog client against the configured base URL.
func NewClient(cfg config.APIConfig, logg *logger.Logger, m *metrics.ClientMetrics) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("catalog base url is required")
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    baseURL,
		logger:     logg,
		metrics:    m,
	}, nil
}

// Products returns the full catalog snapshot.
func (c *Client) Products(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.getJSON(ctx, "products", "/products", &products); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "could not fetch products")
	}
	if err := validateProducts(products); err != nil {
		return nil, err
	}
	return products, nil
}

// Categories returns the category labels known to the remote service.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := c.getJSON(ctx, "categories", "/products/categories", &categories); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "could not fetch categories")
	}
	return categories, nil
}

// ProductsByCategory returns the catalog filtered to one category. The
// category label travels as a path segment and so gets escaped.
func (c *Client) ProductsByCategory(ctx context.Context, category string) ([]Product, error) {
	ctx = c.logger.WithCategory(ctx, category)
	var products []Product
	path := "/products/category/" + url.PathEscape(category)
	if err := c.getJSON(ctx, "products_by_category", path, &products); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err,
			fmt.Sprintf("could not fetch products for category %s", category))
	}
	if err := validateProducts(products); err != nil {
		return nil, err
	}
	return products, nil
}

// ProductByID returns a single product, or a not-found error for an unknown id.
func (c *Client) ProductByID(ctx context.Context, id int64) (*Product, error) {
	ctx = c.logger.WithProductID(ctx, id)
	var product Product
	err := c.getJSON(ctx, "product_by_id", fmt.Sprintf("/products/%d", id), &product)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %d not found", id))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("could not fetch product %d", id))
	}
	// The remote replies 200 with a null/empty body for unknown ids.
	if product.ID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %d not found", id))
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, dest any) error {
	ctx = c.logger.WithRequestID(ctx, uuid.NewString())
	started := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		c.metrics.IncFailure(endpoint)
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.IncFailure(endpoint)
		c.logger.Error(ctx, "remote request failed", err)
		return err
	}
	defer resp.Body.Close()

	c.metrics.ObserveRequest(endpoint, time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.IncFailure(endpoint)
		code := pkgerrors.FromStatus(resp.StatusCode)
		err := pkgerrors.New(code, fmt.Sprintf("remote returned status %d", resp.StatusCode))
		c.logger.Error(ctx, "remote request rejected", err)
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		c.metrics.IncFailure(endpoint)
		c.logger.Error(ctx, "decoding remote response", err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "malformed remote response")
	}

	c.metrics.IncSuccess(endpoint)
	c.logger.Debug(ctx, "remote request completed")
	return nil
}

func validateProducts(products []Product) error {
	for _, product := range products {
		if err := product.Validate(); err != nil {
			return err
		}
	}
	return nil
}
