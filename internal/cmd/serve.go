// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"context"
	"sync"

	"github.com/mia-platform/utilkit/internal/logger"
	"github.com/mia-platform/utilkit/internal/server"
)

const (
	serveLoggerName = "utilkit:serve"
)

// serveOptions holds the options set for the current serve command.
type serveOptions struct {
	serverGetter func(context.Context) (server.Server, error)

	lock sync.Mutex
}

// newEchoServer is the default serverGetter, it reads its configuration from the environment.
func newEchoServer(ctx context.Context) (server.Server, error) {
	srv, err := server.NewServer(ctx)
	if err != nil {
		return nil, err
	}
	return srv, nil
}

// execute runs the server until ctx is done or the server stops on its own.
func (o *serveOptions) execute(ctx context.Context) error {
	if !o.lock.TryLock() {
		return nil
	}
	defer o.lock.Unlock()

	log := logger.Named(ctx, serveLoggerName)

	srv, err := o.serverGetter(ctx)
	if err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	log.Info("echo server started")
	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		log.Info("shutting down echo server", "reason", context.Cause(ctx).Error())
	}

	if err := srv.Stop(); err != nil {
		return err
	}

	return <-errChan
}
