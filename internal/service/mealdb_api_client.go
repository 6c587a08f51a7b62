package service

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/kapu/recipe-telegram-bot-go/internal/constants"
	"github.com/kapu/recipe-telegram-bot-go/pkg/errors"
	"go.uber.org/zap"
)

type MealDBRequester interface {
	DoRequest(ctx context.Context, path string, params url.Values) ([]byte, error)
	IsCircuitOpen() bool
}

// MealDBAPIClient performs HTTP requests against TheMealDB with retry,
// exponential backoff and a failure-threshold circuit breaker. The public v1
// API is unauthenticated, so there is no key handling.
type MealDBAPIClient struct {
	httpClient       *http.Client
	baseURL          string
	logger           *zap.Logger
	failureCount     int
	failureMu        sync.Mutex
	circuitOpenUntil *time.Time
	circuitMu        sync.RWMutex
}

func NewMealDBAPIClient(httpClient *http.Client, baseURL string, logger *zap.Logger) *MealDBAPIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: constants.APIConfig.MealDBTimeout}
	}
	return &MealDBAPIClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		logger:     logger,
	}
}

func (c *MealDBAPIClient) DoRequest(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if c.IsCircuitOpen() {
		c.circuitMu.RLock()
		var remainingMs int64
		if c.circuitOpenUntil != nil {
			remainingMs = time.Until(*c.circuitOpenUntil).Milliseconds()
		}
		c.circuitMu.RUnlock()

		c.logger.Warn("Circuit breaker is open", zap.Int64("retry_after_ms", remainingMs))
		return nil, errors.NewAPIError("Circuit breaker open", 503, map[string]any{
			"retry_after_ms": remainingMs,
		})
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var lastErr error

	for attempt := 0; attempt < constants.RetryConfig.MaxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			count := c.incrementFailureCount()

			if count >= constants.CircuitBreakerConfig.FailureThreshold {
				c.openCircuit()
				break
			}

			if attempt < constants.RetryConfig.MaxAttempts-1 {
				delay := c.computeDelay(attempt)
				c.logger.Warn("Request failed, retrying",
					zap.Error(err),
					zap.Int("attempt", attempt+1),
					zap.Duration("delay", delay),
				)
				time.Sleep(delay)
				continue
			}
			break
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()

		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 || resp.StatusCode == 429 {
			count := c.incrementFailureCount()
			c.logger.Warn("Server error",
				zap.Int("status", resp.StatusCode),
				zap.Int("failure_count", count),
			)

			if count >= constants.CircuitBreakerConfig.FailureThreshold {
				c.openCircuit()
				break
			}

			if attempt < constants.RetryConfig.MaxAttempts-1 {
				delay := c.computeDelay(attempt)
				time.Sleep(delay)
				continue
			}

			return nil, errors.NewAPIError(fmt.Sprintf("Server error: %d", resp.StatusCode), resp.StatusCode, nil)
		}

		if resp.StatusCode >= 400 {
			return nil, errors.NewAPIError(fmt.Sprintf("Client error: %d", resp.StatusCode), resp.StatusCode, map[string]any{
				"url":  reqURL,
				"body": string(body),
			})
		}

		c.resetCircuit()
		return body, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}

	return nil, errors.NewAPIError("mealdb request failed", 503, map[string]any{"url": reqURL})
}

func (c *MealDBAPIClient) IsCircuitOpen() bool {
	c.circuitMu.RLock()
	defer c.circuitMu.RUnlock()

	if c.circuitOpenUntil == nil {
		return false
	}

	if time.Now().After(*c.circuitOpenUntil) {
		return false
	}

	return true
}

func (c *MealDBAPIClient) openCircuit() {
	c.circuitMu.Lock()
	defer c.circuitMu.Unlock()

	resetTime := time.Now().Add(constants.CircuitBreakerConfig.ResetTimeout)
	c.circuitOpenUntil = &resetTime
	c.failureCount = 0

	c.logger.Error("MealDB circuit breaker opened",
		zap.Duration("reset_timeout", constants.CircuitBreakerConfig.ResetTimeout),
	)
}

func (c *MealDBAPIClient) resetCircuit() {
	c.circuitMu.Lock()
	defer c.circuitMu.Unlock()

	c.failureCount = 0
	c.circuitOpenUntil = nil
}

func (c *MealDBAPIClient) incrementFailureCount() int {
	c.failureMu.Lock()
	defer c.failureMu.Unlock()

	c.failureCount++
	return c.failureCount
}

func (c *MealDBAPIClient) computeDelay(attempt int) time.Duration {
	base := constants.RetryConfig.BaseDelay * time.Duration(math.Pow(2, float64(attempt)))
	jitter := time.Duration(rand.Float64() * float64(constants.RetryConfig.Jitter))
	return base + jitter
}
