package convert

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/plancheck/plancheck/internal/errors"
	"github.com/plancheck/plancheck/internal/logging"
)

// Package-level logger specific to the conversion service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "convert.log")
	serviceLevelVar.Set(slog.LevelDebug)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "convert", serviceLevelVar)
	if err != nil {
		// Fallback: disable service logging but keep a usable logger
		log.Printf("Failed to initialize convert file logger at %s: %v. Service logging disabled.", logFilePath, err)
		logger = logging.NewDiscardLogger("convert", serviceLevelVar)
		closeLogger = func() error { return nil }
	}
}

// MetricsRecorder receives conversion outcomes for observability.
// Satisfied by *metrics.ConversionMetrics.
type MetricsRecorder interface {
	RecordRequest(status string)
	RecordDuration(seconds float64)
	RecordCacheHit()
	RecordCacheMiss()
}

// Client converts binary CAD drawings to DXF via the remote conversion API.
// Results are cached by content hash so repeated uploads of the same
// drawing skip the remote round trip.
type Client struct {
	config     Config
	httpClient *http.Client
	cache      *cache.Cache
	metricsRec MetricsRecorder

	metrics struct {
		apiCalls    int64
		cacheHits   int64
		cacheMisses int64
		apiErrors   int64
		mu          sync.RWMutex
	}
}

// NewClient creates a new conversion API client
func NewClient(config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, errors.Newf("conversion API key is required").
			Category(errors.CategoryConfiguration).
			Component("convert").
			Build()
	}

	// Use defaults for missing config values
	if config.BaseURL == "" {
		config.BaseURL = DefaultConfig().BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if config.PollInterval == 0 {
		config.PollInterval = DefaultConfig().PollInterval
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = DefaultConfig().CacheTTL
	}

	client := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		cache: cache.New(config.CacheTTL, config.CacheTTL*2),
	}

	logger.Info("conversion client initialized",
		"base_url", config.BaseURL,
		"timeout", config.Timeout,
		"cache_ttl", config.CacheTTL,
		"api_key_configured", config.APIKey != "")

	return client, nil
}

// SetMetrics attaches a metrics recorder to the client.
func (c *Client) SetMetrics(rec MetricsRecorder) {
	c.metricsRec = rec
}

// Close cleans up client resources
func (c *Client) Close() {
	logger.Info("closing conversion client")
	if closeLogger != nil {
		if err := closeLogger(); err != nil {
			log.Printf("Error closing convert logger: %v", err)
		}
	}
}

// Convert submits the drawing bytes for conversion and returns the DXF
// output. The call blocks until the conversion job finishes, the context is
// cancelled, or the client timeout elapses.
func (c *Client) Convert(ctx context.Context, drawing []byte) ([]byte, error) {
	sum := sha256.Sum256(drawing)
	cacheKey := hex.EncodeToString(sum[:])

	if cached, found := c.cache.Get(cacheKey); found {
		if dxfBytes, ok := cached.([]byte); ok {
			c.metrics.mu.Lock()
			c.metrics.cacheHits++
			c.metrics.mu.Unlock()
			if c.metricsRec != nil {
				c.metricsRec.RecordCacheHit()
			}

			logger.Debug("conversion cache hit",
				"content_hash", cacheKey,
				"size", len(dxfBytes))
			return dxfBytes, nil
		}
	}

	c.metrics.mu.Lock()
	c.metrics.cacheMisses++
	c.metrics.mu.Unlock()
	if c.metricsRec != nil {
		c.metricsRec.RecordCacheMiss()
	}

	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	jobID, err := c.submit(reqCtx, drawing)
	if err != nil {
		c.recordOutcome("error", start)
		return nil, err
	}

	if err := c.awaitJob(reqCtx, jobID); err != nil {
		c.recordOutcome("error", start)
		return nil, err
	}

	result, err := c.fetchResult(reqCtx, jobID)
	if err != nil {
		c.recordOutcome("error", start)
		return nil, err
	}

	c.recordOutcome("success", start)
	c.cache.Set(cacheKey, result, cache.DefaultExpiration)

	logger.Info("drawing converted",
		"job_id", jobID,
		"input_size", len(drawing),
		"output_size", len(result))

	return result, nil
}

// submit uploads the drawing and returns the conversion job id.
func (c *Client) submit(ctx context.Context, drawing []byte) (string, error) {
	url := fmt.Sprintf("%s/convert", c.config.BaseURL)

	var job jobResponse
	err := c.doRequestWithRetry(ctx, http.MethodPost, url, drawing, &job)
	if err != nil {
		return "", err
	}
	if job.ID == "" {
		return "", errors.Newf("conversion service returned no job id").
			Category(errors.CategoryConversion).
			Context("url", url).
			Component("convert").
			Build()
	}

	logger.Debug("conversion job submitted",
		"job_id", job.ID,
		"input_size", len(drawing))

	return job.ID, nil
}

// awaitJob polls the job resource until it reaches a terminal status.
func (c *Client) awaitJob(ctx context.Context, jobID string) error {
	url := fmt.Sprintf("%s/jobs/%s", c.config.BaseURL, jobID)

	for {
		var job jobResponse
		if err := c.doRequestWithRetry(ctx, http.MethodGet, url, nil, &job); err != nil {
			return err
		}

		switch job.Status {
		case StatusDone:
			return nil
		case StatusFailed:
			logger.Warn("conversion job failed",
				"job_id", jobID,
				"error", job.Error)
			return errors.Newf("conversion failed: %s", job.Error).
				Category(errors.CategoryConversion).
				Context("job_id", jobID).
				Component("convert").
				Build()
		case StatusPending, StatusProcessing:
			// keep polling
		default:
			return errors.Newf("conversion job in unknown state %q", job.Status).
				Category(errors.CategoryConversion).
				Context("job_id", jobID).
				Context("status", job.Status).
				Component("convert").
				Build()
		}

		select {
		case <-time.After(c.config.PollInterval):
		case <-ctx.Done():
			return errors.New(ctx.Err()).
				Category(errors.CategoryTimeout).
				Context("job_id", jobID).
				Component("convert").
				Build()
		}
	}
}

// fetchResult downloads the converted DXF bytes for a finished job.
func (c *Client) fetchResult(ctx context.Context, jobID string) ([]byte, error) {
	url := fmt.Sprintf("%s/jobs/%s/result", c.config.BaseURL, jobID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Newf("failed to create HTTP request: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", url).
			Component("convert").
			Build()
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.trackError()
		return nil, errors.Newf("HTTP request failed: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", url).
			Component("convert").
			Build()
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		c.trackError()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, errors.Newf("conversion result fetch failed (status %d)", resp.StatusCode).
			Category(categoryForStatus(resp.StatusCode)).
			Context("status_code", resp.StatusCode).
			Context("url", url).
			Context("response_preview", string(body)).
			Component("convert").
			Build()
	}

	result, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Newf("failed to read conversion result: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", url).
			Component("convert").
			Build()
	}

	return result, nil
}

// doRequest performs a single JSON API request.
func (c *Client) doRequest(ctx context.Context, method, url string, body []byte, result any) error {
	c.metrics.mu.Lock()
	c.metrics.apiCalls++
	c.metrics.mu.Unlock()

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		c.trackError()
		return errors.Newf("failed to create HTTP request: %w", err).
			Category(errors.CategoryNetwork).
			Context("method", method).
			Context("url", url).
			Component("convert").
			Build()
	}

	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/octet-stream")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.trackError()
		logger.Error("conversion API request failed",
			"error", err,
			"method", method,
			"url", url)
		return errors.Newf("HTTP request failed: %w", err).
			Category(errors.CategoryNetwork).
			Context("method", method).
			Context("url", url).
			Component("convert").
			Build()
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		c.trackError()
		return errors.Newf("failed to read response body: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", url).
			Context("status_code", resp.StatusCode).
			Component("convert").
			Build()
	}

	if resp.StatusCode >= 400 {
		c.trackError()

		var apiErr Error
		if jsonErr := json.Unmarshal(bodyBytes, &apiErr); jsonErr == nil && apiErr.Detail != "" {
			logger.Warn("conversion API error response",
				"status_code", resp.StatusCode,
				"error_title", apiErr.Title,
				"error_detail", apiErr.Detail,
				"url", url)
			return errors.Newf("conversion API error: %s", apiErr.Detail).
				Category(categoryForStatus(resp.StatusCode)).
				Context("status_code", resp.StatusCode).
				Context("url", url).
				Component("convert").
				Build()
		}

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			logger.Error("conversion API authentication failed",
				"status_code", resp.StatusCode,
				"url", url,
				"api_key_configured", c.config.APIKey != "")
		}
		return errors.Newf("conversion API error (status %d): %s", resp.StatusCode, string(bodyBytes)).
			Category(categoryForStatus(resp.StatusCode)).
			Context("status_code", resp.StatusCode).
			Context("url", url).
			Component("convert").
			Build()
	}

	if result != nil {
		if err := json.Unmarshal(bodyBytes, result); err != nil {
			return errors.Newf("failed to parse response: %w", err).
				Category(errors.CategoryFileParsing).
				Context("url", url).
				Context("response_size", len(bodyBytes)).
				Component("convert").
				Build()
		}
	}

	return nil
}

// doRequestWithRetry wraps doRequest with retry for transient failures.
// Client errors other than 429 are not retried.
func (c *Client) doRequestWithRetry(ctx context.Context, method, url string, body []byte, result any) error {
	const maxRetries = 3
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := c.doRequest(ctx, method, url, body, result)
		if err == nil {
			return nil
		}

		var enhancedErr *errors.EnhancedError
		if errors.As(err, &enhancedErr) {
			if enhancedErr.Category == errors.CategoryConfiguration ||
				enhancedErr.Category == errors.CategoryValidation ||
				enhancedErr.Category == errors.CategoryNotFound {
				return err
			}
			if statusCode, ok := enhancedErr.Context["status_code"].(int); ok {
				if statusCode >= 400 && statusCode < 500 && statusCode != http.StatusTooManyRequests {
					return err
				}
			}
		}

		lastErr = err

		if ctx.Err() != nil {
			return lastErr
		}

		delay := time.Duration(attempt+1) * 500 * time.Millisecond
		if attempt < maxRetries-1 {
			logger.Warn("conversion API request failed, retrying",
				"attempt", attempt+1,
				"max_retries", maxRetries,
				"delay_ms", delay.Milliseconds(),
				"url", url,
				"error", err.Error())

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return lastErr
}

// recordOutcome reports one conversion round trip to the metrics recorder.
func (c *Client) recordOutcome(status string, start time.Time) {
	if c.metricsRec == nil {
		return
	}
	c.metricsRec.RecordRequest(status)
	c.metricsRec.RecordDuration(time.Since(start).Seconds())
}

func (c *Client) trackError() {
	c.metrics.mu.Lock()
	c.metrics.apiErrors++
	c.metrics.mu.Unlock()
}

// categoryForStatus maps an HTTP status code to an error category.
func categoryForStatus(statusCode int) errors.ErrorCategory {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return errors.CategoryConfiguration
	case statusCode == http.StatusNotFound:
		return errors.CategoryNotFound
	case statusCode >= 400 && statusCode < 500:
		return errors.CategoryValidation
	default:
		return errors.CategoryHTTP
	}
}

// ClearCache drops all cached conversion results
func (c *Client) ClearCache() {
	c.cache.Flush()
	logger.Info("conversion cache cleared")
}

// Stats returns request and cache counters for observability.
func (c *Client) Stats() (apiCalls, cacheHits, cacheMisses, apiErrors int64) {
	c.metrics.mu.RLock()
	defer c.metrics.mu.RUnlock()
	return c.metrics.apiCalls, c.metrics.cacheHits, c.metrics.cacheMisses, c.metrics.apiErrors
}
