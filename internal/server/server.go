// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/mia-platform/utilkit/internal/info"
	"github.com/mia-platform/utilkit/internal/logger"
)

const (
	loggerName = "utilkit:server"

	okResponse = "hello"
)

// Server is the lifecycle shared by the echo server and its test doubles.
type Server interface {
	Start() error
	Stop() error
	StartAsync(ctx context.Context)
}

// EchoServer is the fiber application answering the httpclient requests.
type EchoServer struct {
	Config

	app *fiber.App
}

var _ Server = &EchoServer{}

var (
	ErrServerListen   = errors.New("server listen error")
	ErrServerShutdown = errors.New("server shutdown error")
)

// NewServer reads the server configuration from the environment and registers every route.
func NewServer(ctx context.Context) (*EchoServer, error) {
	cfg, err := LoadServerConfig()
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		AppName:               info.AppName,
		DisableStartupMessage: cfg.DisableStartupMessage,
		Immutable:             true,
	})
	app.Use(logger.RequestMiddlewareLogger(logger.Named(ctx, loggerName), []string{"/-/"}))

	statusRoutes(app, info.AppName, info.Version)
	echoRoutes(app)

	return &EchoServer{
		Config: *cfg,
		app:    app,
	}, nil
}

// App returns the underlying fiber application.
func (s *EchoServer) App() *fiber.App {
	return s.app
}

// Address returns the host:port pair the server listens on.
func (s *EchoServer) Address() string {
	return net.JoinHostPort(s.HTTPHost, strconv.Itoa(s.HTTPPort))
}

func (s *EchoServer) Start() error {
	if err := s.app.Listen(s.Address()); err != nil {
		return fmt.Errorf("%w: %w", ErrServerListen, err)
	}
	return nil
}

func (s *EchoServer) Stop() error {
	if err := s.app.Shutdown(); err != nil {
		return fmt.Errorf("%w: %w", ErrServerShutdown, err)
	}
	return nil
}

func (s *EchoServer) StartAsync(ctx context.Context) {
	log := logger.Named(ctx, loggerName)
	go func() {
		if err := s.Start(); err != nil {
			log.Error(err.Error())
		}
	}()
}
