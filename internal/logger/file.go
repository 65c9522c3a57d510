// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package logger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	flushBufferSize = 64000
	flushInterval   = 5 * time.Second

	logFileExtension = ".log"
	dirPermissions   = 0o755
)

var (
	ErrInit = errors.New("logger initialization error")
)

// Options configures a file logger. Only Name is required.
type Options struct {
	// Name is the logical application name, used for the log directory and the file name.
	Name string
	// Level is the minimum severity written, e.g. "info" or "debug".
	Level string
	// Mode selects the log directory root and the console duplication policy.
	Mode Mode
	// Root replaces the mode dependent parent directory of the log directory.
	Root string
	// Console receives the duplicated lines, it defaults to os.Stdout.
	Console io.Writer
	// Clock is used for rotation decisions, it defaults to time.Now.
	Clock func() time.Time
}

// Handle owns an active file logger. Buffered lines are written on Flush, periodically,
// or when the handle is closed: keep it alive while logging is needed.
type Handle struct {
	root *fileLogger

	dir      string
	path     string
	base     *zap.Logger
	buffered *zapcore.BufferedWriteSyncer
	file     *rotatingFile

	closeOnce sync.Once
	closeErr  error
}

var _ Logger = &Handle{}

// Init starts a file logger for name at the given level. The log directory is
// log/<name> in Development and /var/log/<name> in Production.
func Init(name, level string, mode Mode) (*Handle, error) {
	return New(Options{Name: name, Level: level, Mode: mode})
}

// New starts a file logger configured by opts.
func New(opts Options) (*Handle, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("%w: empty log name", ErrInit)
	}

	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInit, err)
	}

	dir := opts.Mode.Directory(opts.Name)
	if opts.Root != "" {
		dir = filepath.Join(opts.Root, opts.Name)
	}

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInit, err)
	}

	path := filepath.Join(dir, opts.Name+logFileExtension)
	file, err := openRotatingFile(path, defaultRotationPolicy, clock)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInit, err)
	}

	buffered := &zapcore.BufferedWriteSyncer{
		WS:            file,
		Size:          flushBufferSize,
		FlushInterval: flushInterval,
	}

	atomicLevel := zap.NewAtomicLevelAt(level.zapLevel())
	consoleLevel := opts.Mode.consoleLevel().zapLevel()
	consoleEnabler := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return atomicLevel.Enabled(l) && l >= consoleLevel
	})

	core := zapcore.NewTee(
		zapcore.NewCore(newLineEncoder(), buffered, atomicLevel),
		zapcore.NewCore(newLineEncoder(), zapcore.Lock(consoleWriter{console}), consoleEnabler),
	)
	base := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(callerSkip))

	return &Handle{
		root: &fileLogger{
			base:  base,
			log:   base.WithOptions(zap.AddCallerSkip(1)),
			level: atomicLevel,
		},
		dir:      dir,
		path:     path,
		base:     base,
		buffered: buffered,
		file:     file,
	}, nil
}

// WithName returns a logger writing name in the T[...] slot of each line.
func (h *Handle) WithName(name string) Logger {
	return h.root.WithName(name)
}

// SetLevel changes the minimum level of every logger created from the Handle.
func (h *Handle) SetLevel(level Level) {
	h.root.SetLevel(level)
}

func (h *Handle) Trace(msg string, args ...interface{}) {
	h.root.Trace(msg, args...)
}

func (h *Handle) Debug(msg string, args ...interface{}) {
	h.root.Debug(msg, args...)
}

func (h *Handle) Info(msg string, args ...interface{}) {
	h.root.Info(msg, args...)
}

func (h *Handle) Warn(msg string, args ...interface{}) {
	h.root.Warn(msg, args...)
}

func (h *Handle) Error(msg string, args ...interface{}) {
	h.root.Error(msg, args...)
}

// Dir returns the directory holding the active and the rotated log files.
func (h *Handle) Dir() string {
	return h.dir
}

// Path returns the path of the active log file.
func (h *Handle) Path() string {
	return h.path
}

// Flush writes the buffered lines to the active log file.
func (h *Handle) Flush() error {
	return h.base.Sync()
}

// Close flushes pending lines, stops the periodic flush and closes the active file.
// Calling Close more than once returns the result of the first call.
func (h *Handle) Close() error {
	h.closeOnce.Do(func() {
		h.closeErr = errors.Join(
			h.buffered.Stop(),
			h.file.Close(),
		)
	})
	return h.closeErr
}

// consoleWriter hides Sync from terminals and pipes, syncing them returns errors on most platforms.
type consoleWriter struct {
	io.Writer
}

func (consoleWriter) Sync() error {
	return nil
}

// callerSkip accounts for the Logger method and fileLogger.write frames.
const callerSkip = 2

// fileLogger is the zap backed Logger returned by Handle.WithName.
type fileLogger struct {
	base  *zap.Logger
	log   *zap.Logger
	level zap.AtomicLevel
}

var _ Logger = &fileLogger{}

// WithName returns a logger writing name in the T[...] slot of each line.
func (f *fileLogger) WithName(name string) Logger {
	return &fileLogger{
		base:  f.base,
		log:   f.base.Named(name),
		level: f.level,
	}
}

// SetLevel changes the minimum level of every logger sharing the same Handle.
func (f *fileLogger) SetLevel(level Level) {
	f.level.SetLevel(level.zapLevel())
}

func (f *fileLogger) Trace(msg string, args ...interface{}) {
	f.write(traceLevel, msg, args)
}

func (f *fileLogger) Debug(msg string, args ...interface{}) {
	f.write(zapcore.DebugLevel, msg, args)
}

func (f *fileLogger) Info(msg string, args ...interface{}) {
	f.write(zapcore.InfoLevel, msg, args)
}

func (f *fileLogger) Warn(msg string, args ...interface{}) {
	f.write(zapcore.WarnLevel, msg, args)
}

func (f *fileLogger) Error(msg string, args ...interface{}) {
	f.write(zapcore.ErrorLevel, msg, args)
}

func (f *fileLogger) write(level zapcore.Level, msg string, args []interface{}) {
	if entry := f.log.Check(level, msg); entry != nil {
		entry.Write(keyValueFields(args)...)
	}
}

// keyValueFields converts alternating key/value arguments into zap fields.
func keyValueFields(args []interface{}) []zap.Field {
	fields := make([]zap.Field, 0, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		if i+1 == len(args) {
			fields = append(fields, zap.Any("EXTRA_VALUE_AT_END", args[i]))
			break
		}

		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		fields = append(fields, zap.Any(key, args[i+1]))
	}
	return fields
}
