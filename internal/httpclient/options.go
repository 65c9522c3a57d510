// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package httpclient

import (
	"context"
	"net/http"
	"time"

	"github.com/mia-platform/utilkit/internal/logger"
)

// Option customizes a Client built with New.
type Option func(*settings)

type settings struct {
	timeout      time.Duration
	userAgent    string
	failOnStatus bool
	transport    http.RoundTripper
	logger       logger.Logger
	credentials  *clientCredentials
}

type clientCredentials struct {
	tokenURL     string
	clientID     string
	clientSecret string
}

func defaultSettings() settings {
	return settings{
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
		logger:    logger.FromContext(context.Background()),
	}
}

// WithTimeout replaces the whole request timeout, body read included.
func WithTimeout(timeout time.Duration) Option {
	return func(s *settings) {
		s.timeout = timeout
	}
}

// WithUserAgent replaces the User-Agent header sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(s *settings) {
		s.userAgent = userAgent
	}
}

// WithFailOnStatus makes non 2xx responses fail with ErrStatus instead of returning their body.
func WithFailOnStatus(fail bool) Option {
	return func(s *settings) {
		s.failOnStatus = fail
	}
}

// WithTransport replaces the round tripper used to send requests.
func WithTransport(transport http.RoundTripper) Option {
	return func(s *settings) {
		s.transport = transport
	}
}

// WithLogger sets the logger receiving the diagnostics of the underlying client.
// Per request logs go to the logger found in the request context.
func WithLogger(log logger.Logger) Option {
	return func(s *settings) {
		s.logger = log
	}
}

// WithClientCredentials authenticates every request with a token obtained through the
// OAuth2 client credentials flow. Empty values disable authentication.
func WithClientCredentials(tokenURL, clientID, clientSecret string) Option {
	return func(s *settings) {
		if tokenURL == "" || clientID == "" || clientSecret == "" {
			s.credentials = nil
			return
		}

		s.credentials = &clientCredentials{
			tokenURL:     tokenURL,
			clientID:     clientID,
			clientSecret: clientSecret,
		}
	}
}
