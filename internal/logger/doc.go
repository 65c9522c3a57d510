// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package logger wraps the underlying logging stacks behind a consistent interface.
//
// Two implementations of Logger are provided. NewLogger returns a structured JSON logger
// meant for bootstrap and diagnostic output on a plain io.Writer. Init and New return a
// Handle that writes human readable lines to a rotated, buffered file inside a per
// application log directory, duplicating them to the console according to the
// deployment Mode:
//
//	[2006-01-02 15:04:05.000000] T[<name>] INFO [<package path>:<line>] <message>
//
// Loggers travel between components through WithContext and FromContext.
package logger
