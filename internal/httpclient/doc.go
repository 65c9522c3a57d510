// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package httpclient exposes a shared HTTP client and two helpers returning raw response
// bodies: Get and PostJSON.
//
// The shared client is created on first use with a 30 minutes timeout and a browser user
// agent, and is reused for the whole process lifetime. Every request it sends carries the
// Accept: */* and Connection: Keep-Alive headers. Clients with different settings can be
// built with New.
//
// Failures are returned as *RequestError values, use errors.Is with ErrTransport,
// ErrStatus, ErrSerialization or ErrBodyRead to know what went wrong.
package httpclient
