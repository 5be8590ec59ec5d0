package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/uiflow/llm"
	"github.com/BaSui01/uiflow/llm/providers/openai"
)

func testConfig(endpoint string) llm.ProviderConfig {
	return llm.ProviderConfig{
		Provider: "openai",
		APIKey:   "test-key",
		Model:    "gpt-4o-mini",
		Endpoint: endpoint,
	}
}

func sseBody(contents ...string) string {
	var body string
	for _, c := range contents {
		body += fmt.Sprintf("data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", c)
	}
	return body + "data: [DONE]\n\n"
}

func collect(t *testing.T, ch <-chan llm.StreamChunk) (string, *llm.Error) {
	t.Helper()
	var text string
	var lastErr *llm.Error
	sawDone := false
	for chunk := range ch {
		require.False(t, sawDone, "chunks after the terminal chunk")
		if chunk.Done {
			sawDone = true
		}
		if chunk.Err != nil {
			lastErr = chunk.Err
		}
		text += chunk.Content
	}
	require.True(t, sawDone, "stream ended without a terminal chunk")
	return text, lastErr
}

func TestNewClientValidation(t *testing.T) {
	t.Run("nil format", func(t *testing.T) {
		_, err := NewClient(testConfig(""), nil, nil)
		require.Error(t, err)
	})

	t.Run("missing api key", func(t *testing.T) {
		cfg := testConfig("")
		cfg.APIKey = "  "
		_, err := NewClient(cfg, openai.New(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "api key is required")
	})
}

func TestClientStream(t *testing.T) {
	var gotAuth, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseBody("{\"root\"", ": {\"id\": \"a\"}}"))
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL), openai.New(), nil)
	require.NoError(t, err)

	text, streamErr := collect(t, c.Stream(context.Background(), []llm.Message{
		{Role: llm.RoleUser, Content: "build"},
	}))
	require.Nil(t, streamErr)
	assert.Equal(t, `{"root": {"id": "a"}}`, text)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "text/event-stream", gotAccept)
}

func TestClientStreamWithoutDoneSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The connection just closes after the last record.
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"hi\"}}]}\n\n")
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL), openai.New(), nil)
	require.NoError(t, err)

	text, streamErr := collect(t, c.Stream(context.Background(), nil))
	require.Nil(t, streamErr)
	assert.Equal(t, "hi", text)
}

func TestClientStreamHTTPError(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCode  llm.ErrorCode
		retryable bool
	}{
		{
			name:     "unauthorized",
			status:   http.StatusUnauthorized,
			body:     `{"error": {"message": "bad key", "type": "auth"}}`,
			wantCode: llm.ErrUnauthorized,
		},
		{
			name:      "rate limited",
			status:    http.StatusTooManyRequests,
			body:      "slow down",
			wantCode:  llm.ErrRateLimited,
			retryable: true,
		},
		{
			name:     "quota keywords on 400",
			status:   http.StatusBadRequest,
			body:     `{"error": {"message": "insufficient quota"}}`,
			wantCode: llm.ErrQuotaExceeded,
		},
		{
			name:      "model overloaded",
			status:    529,
			body:      "overloaded",
			wantCode:  llm.ErrModelOverloaded,
			retryable: true,
		},
		{
			name:      "bad gateway",
			status:    http.StatusBadGateway,
			body:      "upstream down",
			wantCode:  llm.ErrUpstreamError,
			retryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			c, err := NewClient(testConfig(srv.URL), openai.New(), nil)
			require.NoError(t, err)

			text, streamErr := collect(t, c.Stream(context.Background(), nil))
			assert.Empty(t, text)
			require.NotNil(t, streamErr)
			assert.Equal(t, tt.wantCode, streamErr.Code)
			assert.Equal(t, tt.status, streamErr.HTTPStatus)
			assert.Equal(t, tt.retryable, streamErr.Retryable)
			assert.Equal(t, "openai", streamErr.Provider)
		})
	}
}

func TestClientStreamConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens anymore

	c, err := NewClient(testConfig(srv.URL), openai.New(), nil)
	require.NoError(t, err)

	_, streamErr := collect(t, c.Stream(context.Background(), nil))
	require.NotNil(t, streamErr)
	assert.Equal(t, llm.ErrUpstreamError, streamErr.Code)
	assert.True(t, streamErr.Retryable)
}

func TestClientComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sseBody("one ", "two ", "three"))
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL), openai.New(), nil)
	require.NoError(t, err)

	text, err := c.Complete(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "go"}})
	require.NoError(t, err)
	assert.Equal(t, "one two three", text)
}

func TestClientCompleteSurfacesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error": {"message": "bad key"}}`)
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL), openai.New(), nil)
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), nil)
	require.Error(t, err)
	var llmErr *llm.Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, llm.ErrUnauthorized, llmErr.Code)
}

func TestClientHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/models", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		c, err := NewClient(testConfig(srv.URL), openai.New(), nil)
		require.NoError(t, err)
		assert.NoError(t, c.HealthCheck(context.Background()))
	})

	t.Run("unhealthy", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c, err := NewClient(testConfig(srv.URL), openai.New(), nil)
		require.NoError(t, err)
		err = c.HealthCheck(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status=500")
	})
}

func TestClientRateLimiterApplies(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, sseBody("ok"))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.RPS = 20
	c, err := NewClient(cfg, openai.New(), nil)
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, cErr := c.Complete(context.Background(), nil)
		require.NoError(t, cErr)
	}
	// Burst 1 at 20 rps: the second and third calls wait ~50ms each.
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
	assert.Equal(t, 3, hits)
}
