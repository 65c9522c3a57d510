// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
)

const (
	getCmdUsage = "get URL"
	getCmdShort = "send a GET request and print the response body"
	getCmdLong  = `Send a GET request to URL and print the response body.
	The request uses the shared HTTP client: it waits up to 30 minutes for the
	response and always sends the default Accept, Connection and User-Agent headers.

	By default every response body is printed regardless of its status code,
	use --fail-on-status to fail on responses outside of the 2xx range.`

	getCmdExample = `# Print the body of a page
	utilkit get https://example.com

	# Save the body to a file, failing on a non 2xx status
	utilkit get https://example.com/data.json --fail-on-status -o data.json`

	postCmdUsage = "post URL"
	postCmdShort = "send a JSON payload with a POST request and print the response body"
	postCmdLong  = `Send a JSON payload to URL with a POST request and print the response body.
	The payload is read from --data as an inline JSON document, or from --data-file
	as a JSON or YAML file; YAML documents are converted to JSON before sending.
	A payload that is not valid JSON is rejected before contacting URL.`

	postCmdExample = `# Send an inline payload
	utilkit post https://example.com/api --data '{"a":1}'

	# Send a YAML file as JSON
	utilkit post https://example.com/api --data-file payload.yaml`

	serveCmdUsage = "serve"
	serveCmdShort = "start the local echo server"
	serveCmdLong  = `Start the local echo server until an interrupt or termination signal is received.
	The server answers GET /ok with a fixed body, POST /echo with the received body,
	and GET /headers with the received headers; GET /-/healthz and GET /-/ready report its status.

	The listening address is read from the HTTP_HOST and HTTP_PORT environment variables.`

	serveCmdExample = `# Start the server on port 8080
	HTTP_PORT=8080 utilkit serve`
)

// GetCmd return the "get" cli command for fetching a URL.
func GetCmd() *cobra.Command {
	flags := &requestFlags{}
	cmd := &cobra.Command{
		Use:     getCmdUsage,
		Short:   heredoc.Doc(getCmdShort),
		Long:    heredoc.Doc(getCmdLong),
		Example: heredoc.Doc(getCmdExample),

		SilenceErrors: true,
		SilenceUsage:  true,

		ValidArgsFunction: cobra.NoFileCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.toOptions(cmd, args)
			if err != nil {
				return handleError(cmd, err)
			}

			if err := opts.validate(); err != nil {
				return handleError(cmd, err)
			}

			if err := opts.executeGet(cmd.Context()); err != nil {
				return handleError(cmd, err)
			}

			return nil
		},
	}

	flags.addFlags(cmd)
	return cmd
}

// PostCmd return the "post" cli command for sending a JSON payload.
func PostCmd() *cobra.Command {
	flags := &requestFlags{}
	cmd := &cobra.Command{
		Use:     postCmdUsage,
		Short:   heredoc.Doc(postCmdShort),
		Long:    heredoc.Doc(postCmdLong),
		Example: heredoc.Doc(postCmdExample),

		SilenceErrors: true,
		SilenceUsage:  true,

		ValidArgsFunction: cobra.NoFileCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.toOptions(cmd, args)
			if err != nil {
				return handleError(cmd, err)
			}

			if err := opts.validatePayload(); err != nil {
				return handleError(cmd, err)
			}

			if err := opts.executePost(cmd.Context()); err != nil {
				return handleError(cmd, err)
			}

			return nil
		},
	}

	flags.addFlags(cmd)
	flags.addPayloadFlags(cmd)
	return cmd
}

// ServeCmd return the "serve" cli command for starting the echo server.
func ServeCmd() *cobra.Command {
	opts := &serveOptions{
		serverGetter: newEchoServer,
	}
	cmd := &cobra.Command{
		Use:     serveCmdUsage,
		Short:   heredoc.Doc(serveCmdShort),
		Long:    heredoc.Doc(serveCmdLong),
		Example: heredoc.Doc(serveCmdExample),

		SilenceErrors: true,
		SilenceUsage:  true,

		Args: func(cmd *cobra.Command, args []string) error {
			err := cobra.NoArgs(cmd, args)
			if err != nil {
				cmd.PrintErrln(err)
				_ = cmd.Usage()
			}

			return err
		},
		ValidArgsFunction: cobra.NoFileCompletions,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := opts.execute(ctx); err != nil {
				return handleError(cmd, err)
			}

			return nil
		},
	}

	return cmd
}
