package convert

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plancheck/plancheck/internal/errors"
)

const testBaseURL = "https://convert.test/v1"

func newTestClient(t *testing.T) *Client {
	t.Helper()

	client, err := NewClient(Config{
		BaseURL:      testBaseURL,
		APIKey:       "test-key",
		Timeout:      5 * time.Second,
		PollInterval: time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(func() { client.ClearCache() })

	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)

	return client
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	client, err := NewClient(Config{BaseURL: testBaseURL})

	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "API key")
}

func TestNewClient_AppliesDefaults(t *testing.T) {
	client, err := NewClient(Config{APIKey: "k"})

	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().BaseURL, client.config.BaseURL)
	assert.Equal(t, DefaultConfig().Timeout, client.config.Timeout)
	assert.Equal(t, DefaultConfig().PollInterval, client.config.PollInterval)
}

func TestConvert_Success(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/convert",
		httpmock.NewJsonResponderOrPanic(http.StatusAccepted, jobResponse{ID: "job-1", Status: StatusPending}))
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/jobs/job-1",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, jobResponse{ID: "job-1", Status: StatusDone}))
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/jobs/job-1/result",
		httpmock.NewStringResponder(http.StatusOK, "0\nEOF\n"))

	result, err := client.Convert(context.Background(), []byte("dwg-bytes"))

	require.NoError(t, err)
	assert.Equal(t, "0\nEOF\n", string(result))
}

func TestConvert_PollsUntilDone(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/convert",
		httpmock.NewJsonResponderOrPanic(http.StatusAccepted, jobResponse{ID: "job-2", Status: StatusPending}))

	var polls atomic.Int32
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/jobs/job-2",
		func(req *http.Request) (*http.Response, error) {
			if polls.Add(1) < 3 {
				return httpmock.NewJsonResponse(http.StatusOK, jobResponse{ID: "job-2", Status: StatusProcessing})
			}
			return httpmock.NewJsonResponse(http.StatusOK, jobResponse{ID: "job-2", Status: StatusDone})
		})
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/jobs/job-2/result",
		httpmock.NewStringResponder(http.StatusOK, "converted"))

	result, err := client.Convert(context.Background(), []byte("dwg"))

	require.NoError(t, err)
	assert.Equal(t, "converted", string(result))
	assert.GreaterOrEqual(t, polls.Load(), int32(3))
}

func TestConvert_JobFailure(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/convert",
		httpmock.NewJsonResponderOrPanic(http.StatusAccepted, jobResponse{ID: "job-3", Status: StatusPending}))
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/jobs/job-3",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, jobResponse{ID: "job-3", Status: StatusFailed, Error: "unsupported DWG version"}))

	result, err := client.Convert(context.Background(), []byte("dwg"))

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "unsupported DWG version")

	var enhancedErr *errors.EnhancedError
	require.ErrorAs(t, err, &enhancedErr)
	assert.Equal(t, errors.CategoryConversion, enhancedErr.Category)
}

func TestConvert_AuthFailureNotRetried(t *testing.T) {
	client := newTestClient(t)

	var calls atomic.Int32
	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/convert",
		func(req *http.Request) (*http.Response, error) {
			calls.Add(1)
			return httpmock.NewJsonResponse(http.StatusUnauthorized, Error{Title: "Unauthorized", Status: 401, Detail: "invalid API key"})
		})

	_, err := client.Convert(context.Background(), []byte("dwg"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid API key")
	assert.Equal(t, int32(1), calls.Load())
}

func TestConvert_TransientErrorRetried(t *testing.T) {
	client := newTestClient(t)

	var calls atomic.Int32
	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/convert",
		func(req *http.Request) (*http.Response, error) {
			if calls.Add(1) == 1 {
				return httpmock.NewStringResponse(http.StatusBadGateway, "upstream error"), nil
			}
			return httpmock.NewJsonResponse(http.StatusAccepted, jobResponse{ID: "job-4", Status: StatusPending})
		})
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/jobs/job-4",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, jobResponse{ID: "job-4", Status: StatusDone}))
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/jobs/job-4/result",
		httpmock.NewStringResponder(http.StatusOK, "converted"))

	result, err := client.Convert(context.Background(), []byte("dwg"))

	require.NoError(t, err)
	assert.Equal(t, "converted", string(result))
	assert.Equal(t, int32(2), calls.Load())
}

func TestConvert_CachesByContentHash(t *testing.T) {
	client := newTestClient(t)

	var submits atomic.Int32
	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/convert",
		func(req *http.Request) (*http.Response, error) {
			submits.Add(1)
			return httpmock.NewJsonResponse(http.StatusAccepted, jobResponse{ID: "job-5", Status: StatusPending})
		})
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/jobs/job-5",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, jobResponse{ID: "job-5", Status: StatusDone}))
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/jobs/job-5/result",
		httpmock.NewStringResponder(http.StatusOK, "converted"))

	drawing := []byte("same-dwg-content")

	first, err := client.Convert(context.Background(), drawing)
	require.NoError(t, err)

	second, err := client.Convert(context.Background(), drawing)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), submits.Load(), "second conversion should be served from cache")

	_, hits, misses, _ := client.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestConvert_MissingJobID(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/convert",
		httpmock.NewJsonResponderOrPanic(http.StatusAccepted, jobResponse{Status: StatusPending}))

	_, err := client.Convert(context.Background(), []byte("dwg"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no job id")
}

func TestConvert_ContextCancelledDuringPoll(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/convert",
		httpmock.NewJsonResponderOrPanic(http.StatusAccepted, jobResponse{ID: "job-6", Status: StatusPending}))
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/jobs/job-6",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, jobResponse{ID: "job-6", Status: StatusProcessing}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Convert(ctx, []byte("dwg"))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
