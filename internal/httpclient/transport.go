// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package httpclient

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/mia-platform/utilkit/internal/logger"
)

// newTransport returns the round tripper requested by s, or nil to keep the resty default.
func newTransport(ctx context.Context, s settings) http.RoundTripper {
	if s.credentials == nil {
		return s.transport
	}

	config := clientcredentials.Config{
		ClientID:     s.credentials.clientID,
		ClientSecret: s.credentials.clientSecret,
		TokenURL:     s.credentials.tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	if s.transport != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Transport: s.transport})
	}

	return &oauth2.Transport{
		Source: config.TokenSource(ctx),
		Base:   s.transport,
	}
}

// restyLogger forwards the diagnostics of resty to a Logger.
type restyLogger struct {
	log logger.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.log.Error(fmt.Sprintf(format, v...))
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.log.Warn(fmt.Sprintf(format, v...))
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, v...))
}
