// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mia-platform/utilkit/internal/httpclient"
)

const (
	credentialsEnvPrefix = "UTILKIT_"
)

var (
	errNoArguments         = errors.New("no URL provided")
	errTooManyArguments    = errors.New("only one URL can be provided")
	errMissingPayload      = errors.New("one of --data or --data-file is required")
	errConflictingPayload  = errors.New("--data and --data-file cannot be used together")
	errInvalidCredentials  = errors.New("invalid client credentials configuration")
	errUnsupportedYAMLKeys = errors.New("payload file contains non string keys")
)

// credentialsConfig holds the optional OAuth2 client credentials for authenticated origins.
type credentialsConfig struct {
	TokenURL     string `env:"TOKEN_URL"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
}

// handleError will do custom print error handling based on the type of error received.
// it will return nil if the command must return 0 exit code, otherwise it will return
// the original error.
func handleError(cmd *cobra.Command, err error) error {
	switch {
	case errors.Is(err, errNoArguments):
		_ = cmd.Usage() // do not check error as we cannot do much about it
		return nil
	case errors.Is(err, errTooManyArguments),
		errors.Is(err, errMissingPayload),
		errors.Is(err, errConflictingPayload):
		cmd.PrintErrln(err)
		_ = cmd.Usage() // do not check error as we cannot do much about it
		return err
	default:
		cmd.PrintErrln(err)
		return err
	}
}

// unwrappedError returns the unwrapped error if available, otherwise it returns the original error.
func unwrappedError(err error) error {
	if unwrapped := errors.Unwrap(err); unwrapped != nil {
		return unwrapped
	}

	return err
}

// loadCredentials reads the client credentials from the environment and converts them
// into client options. No variable set means anonymous requests.
func loadCredentials() ([]httpclient.Option, error) {
	config, err := env.ParseAsWithOptions[credentialsConfig](env.Options{Prefix: credentialsEnvPrefix})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidCredentials, err)
	}

	switch {
	case config.ClientID == "" && config.ClientSecret == "":
		return nil, nil
	case config.ClientID == "" || config.ClientSecret == "":
		return nil, fmt.Errorf("%w: %sCLIENT_ID and %sCLIENT_SECRET must be set together", errInvalidCredentials, credentialsEnvPrefix, credentialsEnvPrefix)
	case config.TokenURL == "":
		return nil, fmt.Errorf("%w: missing %sTOKEN_URL", errInvalidCredentials, credentialsEnvPrefix)
	}

	return []httpclient.Option{
		httpclient.WithClientCredentials(config.TokenURL, config.ClientID, config.ClientSecret),
	}, nil
}

// loadPayloadFile reads a JSON or YAML payload file. YAML documents, selected by the
// .yaml or .yml extension, are converted to JSON.
func loadPayloadFile(path string) (json.RawMessage, error) {
	cleanedPath := filepath.Clean(path)
	content, err := os.ReadFile(cleanedPath)
	if err != nil {
		return nil, fmt.Errorf("payload file %q: %w", cleanedPath, unwrappedError(err))
	}

	switch strings.ToLower(filepath.Ext(cleanedPath)) {
	case ".yaml", ".yml":
		return yamlToJSON(cleanedPath, content)
	default:
		return json.RawMessage(content), nil
	}
}

func yamlToJSON(path string, content []byte) (json.RawMessage, error) {
	var document any
	if err := yaml.Unmarshal(content, &document); err != nil {
		return nil, fmt.Errorf("payload file %q: %w", path, err)
	}

	converted, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("payload file %q: %w: %w", path, errUnsupportedYAMLKeys, err)
	}

	return converted, nil
}
