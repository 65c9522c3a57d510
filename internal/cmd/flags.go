// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/mia-platform/utilkit/internal/httpclient"
)

const (
	failOnStatusFlagName  = "fail-on-status"
	failOnStatusFlagUsage = "If set, responses with a status code outside of the 2xx range return an error"
	defaultFailOnStatus   = false

	outputFlagName  = "output"
	outputFlagShort = "o"
	outputFlagUsage = "Path of a file where the response body is written instead of stdout"

	dataFlagName  = "data"
	dataFlagShort = "d"
	dataFlagUsage = "Inline JSON payload of the request"

	dataFileFlagName  = "data-file"
	dataFileFlagShort = "f"
	dataFileFlagUsage = "Path to a JSON or YAML file containing the payload of the request"
)

// requestFlags collects the CLI options shared by the get and post commands.
type requestFlags struct {
	failOnStatus bool
	outputPath   string

	data     string
	dataFile string
}

// addFlags registers the CLI flags on cmd.
func (f *requestFlags) addFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.failOnStatus, failOnStatusFlagName, defaultFailOnStatus, failOnStatusFlagUsage)
	cmd.Flags().StringVarP(&f.outputPath, outputFlagName, outputFlagShort, "", outputFlagUsage)
}

// addPayloadFlags registers the payload flags of the post command on cmd.
func (f *requestFlags) addPayloadFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.data, dataFlagName, dataFlagShort, "", dataFlagUsage)
	cmd.Flags().StringVarP(&f.dataFile, dataFileFlagName, dataFileFlagShort, "", dataFileFlagUsage)
	_ = cmd.MarkFlagFilename(dataFileFlagName, "json", "yaml", "yml")
}

// toOptions builds a requestOptions instance from the parsed flags and CLI arguments.
func (f *requestFlags) toOptions(cmd *cobra.Command, args []string) (*requestOptions, error) {
	switch {
	case len(args) == 0:
		return nil, errNoArguments
	case len(args) > 1:
		return nil, errTooManyArguments
	}

	clientOptions, err := loadCredentials()
	if err != nil {
		return nil, err
	}

	clientOptions = append(clientOptions, httpclient.WithFailOnStatus(f.failOnStatus))

	opts := &requestOptions{
		url:           args[0],
		outputPath:    f.outputPath,
		output:        cmd.OutOrStdout(),
		clientOptions: clientOptions,
	}

	switch {
	case f.data != "" && f.dataFile != "":
		return nil, errConflictingPayload
	case f.data != "":
		opts.payload = json.RawMessage(f.data)
	case f.dataFile != "":
		payload, err := loadPayloadFile(f.dataFile)
		if err != nil {
			return nil, err
		}
		opts.payload = payload
	}

	return opts, nil
}
