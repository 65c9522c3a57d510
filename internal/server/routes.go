// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package server

import (
	"github.com/gofiber/fiber/v2"
)

type statusResponse struct {
	Status  string `json:"status"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

// statusRoutes registers the probes under the /-/ prefix, excluded from request logging.
func statusRoutes(app *fiber.App, name, version string) {
	status := statusResponse{
		Status:  "OK",
		Name:    name,
		Version: version,
	}

	handler := func(c *fiber.Ctx) error {
		return c.JSON(status)
	}

	app.Get("/-/healthz", handler)
	app.Get("/-/ready", handler)
}

func echoRoutes(app *fiber.App) {
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.SendString(okResponse)
	})

	app.Post("/echo", func(c *fiber.Ctx) error {
		if contentType := c.Get(fiber.HeaderContentType); contentType != "" {
			c.Set(fiber.HeaderContentType, contentType)
		}
		return c.Send(c.Body())
	})

	app.Get("/headers", func(c *fiber.Ctx) error {
		return c.JSON(c.GetReqHeaders())
	})
}
