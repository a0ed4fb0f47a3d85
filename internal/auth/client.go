package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

const invalidCredentialsMessage = "invalid username or password"

// Client performs credential verification against the remote auth endpoint.
// It only verifies; installing the session is the Manager's job.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logger.Logger
	metrics    *metrics.ClientMetrics
}

// NewClient builds an auth client against the configured base URL.
func NewClient(cfg config.APIConfig, logg *logger.Logger, m *metrics.ClientMetrics) (*Client, error) {
	if logg == nil {
		return nil, errors.New("auth logger is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("auth base url is required")
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    baseURL,
		logger:     logg,
		metrics:    m,
	}, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login posts the credentials and returns the bearer token on success.
// Rejected credentials surface as an unauthorized error with a stable
// message; transport and server failures keep their own messages.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	ctx = c.logger.WithRequestID(ctx, uuid.NewString())
	ctx = c.logger.WithUsername(ctx, username)
	started := time.Now()

	payload, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding login request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building login request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.IncFailure("login")
		c.logger.Error(ctx, "login request failed", err)
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "login failed, please try again later")
	}
	defer resp.Body.Close()

	c.metrics.ObserveRequest("login", time.Since(started))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest:
		c.metrics.IncFailure("login")
		c.logger.Warn(ctx, "login rejected")
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		c.metrics.IncFailure("login")
		err := pkgerrors.New(pkgerrors.FromStatus(resp.StatusCode),
			fmt.Sprintf("login failed with status %d", resp.StatusCode))
		c.logger.Error(ctx, "login request rejected", err)
		return "", err
	}

	var decoded loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.metrics.IncFailure("login")
		c.logger.Error(ctx, "decoding login response", err)
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "malformed login response")
	}
	if decoded.Token == "" {
		c.metrics.IncFailure("login")
		return "", pkgerrors.New(pkgerrors.CodeDependency, "login succeeded but no token received")
	}

	c.metrics.IncSuccess("login")
	c.logger.Info(ctx, "login succeeded")
	return decoded.Token, nil
}
