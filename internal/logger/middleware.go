// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package logger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	forwardedHostHeaderKey = "x-forwarded-host"
	forwardedForHeaderKey  = "x-forwarded-for"
	requestIDHeaderName    = "x-request-id"

	IncomingRequestMessage  = "incoming request"
	RequestCompletedMessage = "request completed"
)

// requestInfo collects the request and response values reported by the middleware.
type requestInfo struct {
	c          *fiber.Ctx
	handlerErr error
}

func removePort(host string) string {
	return strings.Split(host, ":")[0]
}

// GetReqID returns the request id sent by the caller, or a new random one.
func GetReqID(c *fiber.Ctx) string {
	if requestID := c.Get(requestIDHeaderName); requestID != "" {
		return requestID
	}
	// Generate a random uuid string. e.g. 16c9c1f2-c001-40d3-bbfe-48857367e7b5
	requestID, err := uuid.NewRandom()
	if err != nil {
		panic(fmt.Errorf("error generating request id: %w", err))
	}
	return requestID.String()
}

func (r *requestInfo) requestFields() []interface{} {
	return []interface{}{
		"method", r.c.Method(),
		"path", string(r.c.Request().URI().RequestURI()),
		"userAgent", r.c.Get(fiber.HeaderUserAgent),
		"hostname", removePort(string(r.c.Request().Host())),
		"forwardedHost", r.c.Get(forwardedHostHeaderKey),
		"ip", r.c.Get(forwardedForHeaderKey),
	}
}

func (r *requestInfo) fiberError() *fiber.Error {
	var fiberErr *fiber.Error
	if errors.As(r.handlerErr, &fiberErr) {
		return fiberErr
	}
	return nil
}

func (r *requestInfo) bodySize() int {
	if fiberErr := r.fiberError(); fiberErr != nil {
		return len(fiberErr.Error())
	}

	if content := r.c.GetRespHeader(fiber.HeaderContentLength); content != "" {
		if length, err := strconv.Atoi(content); err == nil {
			return length
		}
	}
	return len(r.c.Response().Body())
}

func (r *requestInfo) statusCode() int {
	if fiberErr := r.fiberError(); fiberErr != nil {
		return fiberErr.Code
	}
	return r.c.Response().StatusCode()
}

// RequestMiddlewareLogger is a fiber middleware to log all requests.
// It logs the incoming request at TRACE and the completed request at INFO with its latency.
// Requests whose path starts with one of excludedPrefix are not logged.
func RequestMiddlewareLogger(logger Logger, excludedPrefix []string) func(*fiber.Ctx) error {
	return func(fiberCtx *fiber.Ctx) error {
		for _, prefix := range excludedPrefix {
			if strings.HasPrefix(fiberCtx.Path(), prefix) {
				return fiberCtx.Next()
			}
		}

		start := time.Now()
		info := &requestInfo{c: fiberCtx}

		requestID := GetReqID(fiberCtx)
		loggerWithReqID := logger.WithName("request:" + requestID)
		fiberCtx.SetUserContext(WithContext(fiberCtx.UserContext(), loggerWithReqID))

		loggerWithReqID.Trace(IncomingRequestMessage, info.requestFields()...)

		info.handlerErr = fiberCtx.Next()

		fields := append(info.requestFields(),
			"statusCode", info.statusCode(),
			"bytes", info.bodySize(),
			"responseTime", float64(time.Since(start).Microseconds())/1000,
		)
		loggerWithReqID.Info(RequestCompletedMessage, fields...)

		return info.handlerErr
	}
}
