// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package server contains the local echo server started by the serve command.
// It answers the requests sent by the httpclient package: status routes for probes,
// a fixed response route, a body echo and a header dump. Every request outside the
// status routes is logged by the request middleware of the logger package.
package server
