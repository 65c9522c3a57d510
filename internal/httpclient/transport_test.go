// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package httpclient

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/mia-platform/utilkit/internal/logger"
)

func newTokenServer(t *testing.T, tokenRequests *atomic.Int64) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		tokenRequests.Add(1)
		clientID, clientSecret, ok := r.BasicAuth()
		if !ok || clientID != "client-id" || clientSecret != "client-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "secret-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("GET /protected", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte("hello"))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestClientCredentials(t *testing.T) {
	t.Parallel()

	t.Run("token is requested once and sent as bearer", func(t *testing.T) {
		t.Parallel()

		tokenRequests := new(atomic.Int64)
		server := newTokenServer(t, tokenRequests)
		client := New(
			WithFailOnStatus(true),
			WithClientCredentials(server.URL+"/token", "client-id", "client-secret"),
		)

		for range 3 {
			body, err := client.Get(t.Context(), server.URL+"/protected")
			require.NoError(t, err)
			assert.Equal(t, "hello", string(body))
		}
		assert.Equal(t, int64(1), tokenRequests.Load())
	})

	t.Run("wrong credentials are a transport failure", func(t *testing.T) {
		t.Parallel()

		tokenRequests := new(atomic.Int64)
		server := newTokenServer(t, tokenRequests)
		client := New(WithClientCredentials(server.URL+"/token", "client-id", "wrong"))

		body, err := client.Get(t.Context(), server.URL+"/protected")
		require.ErrorIs(t, err, ErrTransport)
		assert.Nil(t, body)

		var retrieveErr *oauth2.RetrieveError
		require.ErrorAs(t, err, &retrieveErr)
		assert.Equal(t, http.StatusUnauthorized, retrieveErr.Response.StatusCode)
	})

	t.Run("custom transport is used for token and requests", func(t *testing.T) {
		t.Parallel()

		tokenRequests := new(atomic.Int64)
		server := newTokenServer(t, tokenRequests)
		transport := new(recordingTransport)
		client := New(
			WithTransport(transport),
			WithClientCredentials(server.URL+"/token", "client-id", "client-secret"),
		)

		body, err := client.Get(t.Context(), server.URL+"/protected")
		require.NoError(t, err)
		assert.Equal(t, "hello", string(body))
		assert.Equal(t, int64(2), transport.count.Load())
	})
}

func TestNewTransport(t *testing.T) {
	t.Parallel()

	custom := new(recordingTransport)
	testCases := map[string]struct {
		opts          []Option
		expectNil     bool
		expectCustom  bool
		expectOAuth2  bool
		expectBaseSet bool
	}{
		"no options keeps the resty transport": {
			expectNil: true,
		},
		"custom transport without credentials": {
			opts:         []Option{WithTransport(custom)},
			expectCustom: true,
		},
		"credentials wrap the default transport": {
			opts:         []Option{WithClientCredentials("http://localhost/token", "id", "secret")},
			expectOAuth2: true,
		},
		"credentials wrap the custom transport": {
			opts: []Option{
				WithTransport(custom),
				WithClientCredentials("http://localhost/token", "id", "secret"),
			},
			expectOAuth2:  true,
			expectBaseSet: true,
		},
		"incomplete credentials are ignored": {
			opts:      []Option{WithClientCredentials("http://localhost/token", "", "secret")},
			expectNil: true,
		},
	}

	for testName, test := range testCases {
		t.Run(testName, func(t *testing.T) {
			t.Parallel()

			s := defaultSettings()
			for _, opt := range test.opts {
				opt(&s)
			}

			transport := newTransport(t.Context(), s)
			switch {
			case test.expectNil:
				assert.Nil(t, transport)
			case test.expectCustom:
				assert.Same(t, custom, transport)
			case test.expectOAuth2:
				oauthTransport, ok := transport.(*oauth2.Transport)
				require.True(t, ok)
				assert.NotNil(t, oauthTransport.Source)
				if test.expectBaseSet {
					assert.Same(t, custom, oauthTransport.Base)
				} else {
					assert.Nil(t, oauthTransport.Base)
				}
			}
		})
	}
}

func TestRestyLogger(t *testing.T) {
	t.Parallel()

	buffer := new(bytes.Buffer)
	log := logger.NewLogger(buffer)
	log.SetLevel(logger.DEBUG)

	adapter := restyLogger{log: log}
	adapter.Errorf("failed %d times", 3)
	adapter.Warnf("retrying %s", "request")
	adapter.Debugf("debug %v", true)

	lines := bytes.Split(bytes.TrimSpace(buffer.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)

	expected := []struct {
		level   string
		message string
	}{
		{level: "error", message: "failed 3 times"},
		{level: "warn", message: "retrying request"},
		{level: "debug", message: "debug true"},
	}
	for i, line := range lines {
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(line, &decoded))
		assert.Equal(t, expected[i].level, decoded["@level"])
		assert.Equal(t, expected[i].message, decoded["@message"])
	}
}
