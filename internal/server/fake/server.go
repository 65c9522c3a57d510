// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package fake

import (
	"context"
	"sync"
	"testing"

	"github.com/mia-platform/utilkit/internal/server"
)

var _ server.Server = &Server{}

// Server records the lifecycle calls made by the serve command.
// Start blocks until Stop is called, or returns StartErr right away when set.
type Server struct {
	tb       testing.TB
	StartErr error

	startOnce   sync.Once
	stopOnce    sync.Once
	startedChan chan struct{}
	stoppedChan chan struct{}
}

func NewFakeServer(tb testing.TB) *Server {
	tb.Helper()

	return &Server{
		tb:          tb,
		startedChan: make(chan struct{}),
		stoppedChan: make(chan struct{}),
	}
}

func (s *Server) Start() error {
	s.tb.Helper()
	s.startOnce.Do(func() { close(s.startedChan) })
	if s.StartErr != nil {
		return s.StartErr
	}

	<-s.stoppedChan
	return nil
}

func (s *Server) Stop() error {
	s.tb.Helper()
	s.stopOnce.Do(func() { close(s.stoppedChan) })
	return nil
}

func (s *Server) StartAsync(_ context.Context) {
	s.tb.Helper()
	go func() {
		_ = s.Start()
	}()
}

func (s *Server) StartedServer() <-chan struct{} {
	s.tb.Helper()
	return s.startedChan
}

func (s *Server) StoppedServer() <-chan struct{} {
	s.tb.Helper()
	return s.stoppedChan
}
