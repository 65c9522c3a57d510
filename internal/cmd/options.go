// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mia-platform/utilkit/internal/httpclient"
	"github.com/mia-platform/utilkit/internal/logger"
)

const (
	requestLoggerName = "utilkit:request"

	outputFilePermissions = 0o644
)

// requestOptions holds the options set for the current get or post command.
type requestOptions struct {
	url           string
	payload       json.RawMessage
	outputPath    string
	output        io.Writer
	clientOptions []httpclient.Option
}

// validate validates the request options and returns an error if something is wrong.
func (o *requestOptions) validate() error {
	if o.url == "" {
		return errNoArguments
	}

	return nil
}

// validatePayload validates the options of a request carrying a payload.
func (o *requestOptions) validatePayload() error {
	if err := o.validate(); err != nil {
		return err
	}

	if o.payload == nil {
		return errMissingPayload
	}

	return nil
}

// client builds the HTTP client configured by the options, logging through the context logger.
func (o *requestOptions) client(ctx context.Context) *httpclient.Client {
	opts := append([]httpclient.Option{
		httpclient.WithLogger(logger.Named(ctx, requestLoggerName)),
	}, o.clientOptions...)

	return httpclient.New(opts...)
}

// executeGet fetches the URL and writes the response body.
func (o *requestOptions) executeGet(ctx context.Context) error {
	log := logger.Named(ctx, requestLoggerName)

	body, err := o.client(ctx).Get(ctx, o.url)
	if err != nil {
		return err
	}

	log.Debug("response received", "method", "GET", "url", o.url, "bytes", len(body))
	return o.writeBody(body)
}

// executePost sends the payload to the URL and writes the response body.
func (o *requestOptions) executePost(ctx context.Context) error {
	log := logger.Named(ctx, requestLoggerName)

	body, err := o.client(ctx).PostJSON(ctx, o.url, o.payload)
	if err != nil {
		return err
	}

	log.Debug("response received", "method", "POST", "url", o.url, "bytes", len(body))
	return o.writeBody(body)
}

// writeBody writes body to the output file when set, otherwise to the command output.
func (o *requestOptions) writeBody(body []byte) error {
	if o.outputPath == "" {
		_, err := o.output.Write(body)
		return err
	}

	cleanedPath := filepath.Clean(o.outputPath)
	if err := os.WriteFile(cleanedPath, body, outputFilePermissions); err != nil {
		return fmt.Errorf("output file %q: %w", cleanedPath, unwrappedError(err))
	}

	return nil
}
