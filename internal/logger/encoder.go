// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package logger

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	lineTimeLayout = "2006-01-02 15:04:05.000000"
	unnamed        = "<unnamed>"
)

var linePool = buffer.NewPool()

// lineEncoder renders entries as single human readable lines:
//
//	[2006-01-02 15:04:05.000000] T[name] LEVEL [package/path:line] message key=value
//
// Context fields are collected in the embedded map encoder and appended sorted by key.
type lineEncoder struct {
	*zapcore.MapObjectEncoder
}

func newLineEncoder() zapcore.Encoder {
	return &lineEncoder{MapObjectEncoder: zapcore.NewMapObjectEncoder()}
}

func (e *lineEncoder) Clone() zapcore.Encoder {
	clone := zapcore.NewMapObjectEncoder()
	maps.Copy(clone.Fields, e.Fields)
	return &lineEncoder{MapObjectEncoder: clone}
}

func (e *lineEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	final, _ := e.Clone().(*lineEncoder)
	for _, field := range fields {
		field.AddTo(final)
	}

	module, lineNumber := callerLocation(entry.Caller)

	line := linePool.Get()
	line.AppendByte('[')
	line.AppendString(entry.Time.Format(lineTimeLayout))
	line.AppendString("] T[")
	line.AppendString(orUnnamed(entry.LoggerName))
	line.AppendString("] ")
	line.AppendString(levelName(entry.Level))
	line.AppendString(" [")
	line.AppendString(module)
	line.AppendByte(':')
	line.AppendInt(int64(lineNumber))
	line.AppendString("] ")
	line.AppendString(entry.Message)
	final.appendFields(line)
	if entry.Stack != "" {
		line.AppendByte('\n')
		line.AppendString(entry.Stack)
	}
	line.AppendString(zapcore.DefaultLineEnding)

	return line, nil
}

func (e *lineEncoder) appendFields(line *buffer.Buffer) {
	for _, key := range slices.Sorted(maps.Keys(e.Fields)) {
		line.AppendByte(' ')
		line.AppendString(key)
		line.AppendByte('=')
		line.AppendString(formatValue(e.Fields[key]))
	}
}

func formatValue(value any) string {
	text := fmt.Sprint(value)
	if strings.ContainsAny(text, " \t\n\"") {
		return strconv.Quote(text)
	}
	return text
}

// callerLocation returns the package path and line of the logging call site.
func callerLocation(caller zapcore.EntryCaller) (string, int) {
	if !caller.Defined {
		return unnamed, 0
	}

	return orUnnamed(packagePath(caller.Function)), caller.Line
}

// packagePath strips the function and receiver parts from a fully qualified function name,
// e.g. "github.com/org/repo/pkg.(*T).Method" becomes "github.com/org/repo/pkg".
func packagePath(function string) string {
	slash := strings.LastIndex(function, "/")
	dot := strings.Index(function[slash+1:], ".")
	if dot >= 0 {
		function = function[:slash+1+dot]
	}
	// the linker escapes dots in the last path element, e.g. lumberjack%2ev2
	return strings.ReplaceAll(function, "%2e", ".")
}

func orUnnamed(value string) string {
	if value == "" {
		return unnamed
	}
	return value
}
