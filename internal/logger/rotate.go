// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package logger

import (
	"errors"
	"io/fs"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	rotateMaxAge    = 24 * time.Hour
	rotateMaxBytes  = 10_000_000
	rotateKeepFiles = 30

	// lumberjackMaxSize is the lumberjack limit in megabytes. It only bounds the size of a
	// single write, rotation by size is decided by rotationPolicy.maxBytes.
	lumberjackMaxSize = 1024
)

// rotationPolicy holds the thresholds that close the active file and open a new one.
type rotationPolicy struct {
	// daily rotates as soon as the local calendar day differs from the one the file was started on.
	daily     bool
	maxAge    time.Duration
	maxBytes  int64
	keepFiles int
}

var defaultRotationPolicy = rotationPolicy{
	daily:     true,
	maxAge:    rotateMaxAge,
	maxBytes:  rotateMaxBytes,
	keepFiles: rotateKeepFiles,
}

// expired reports whether a file started at opened is too old at now.
func (p rotationPolicy) expired(opened, now time.Time) bool {
	if p.daily {
		openedYear, openedMonth, openedDay := opened.Local().Date()
		year, month, day := now.Local().Date()
		if openedYear != year || openedMonth != month || openedDay != day {
			return true
		}
	}

	return p.maxAge > 0 && now.Sub(opened) >= p.maxAge
}

// rotatingFile decides when the active file must be rotated, by age or by size,
// and delegates renaming, timestamp naming and cleanup of old files to lumberjack.
type rotatingFile struct {
	file   *lumberjack.Logger
	policy rotationPolicy
	now    func() time.Time

	lock   sync.Mutex
	size   int64
	opened time.Time
}

// openRotatingFile opens path in append mode, creating it and its directory when missing.
// The age of a non empty existing file starts from its last modification time, so that
// restarts do not postpone age rotation.
func openRotatingFile(path string, policy rotationPolicy, now func() time.Time) (*rotatingFile, error) {
	var size int64
	opened := now()
	info, err := os.Stat(path)
	switch {
	case err == nil:
		size = info.Size()
		if size > 0 {
			opened = info.ModTime()
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    lumberjackMaxSize,
		MaxBackups: policy.keepFiles,
		LocalTime:  true,
	}

	// an empty write forces lumberjack to open the file now instead of on the first line
	if _, err := file.Write(nil); err != nil {
		_ = file.Close()
		return nil, err
	}

	return &rotatingFile{
		file:   file,
		policy: policy,
		now:    now,
		size:   size,
		opened: opened,
	}, nil
}

func (r *rotatingFile) Write(p []byte) (int, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.shouldRotate(int64(len(p))) {
		if err := r.rotateLocked(); err != nil {
			return 0, err
		}
	}

	n, err := r.file.Write(p)
	r.size += int64(n)
	return n, err
}

func (r *rotatingFile) Sync() error {
	return nil
}

func (r *rotatingFile) Close() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.file.Close()
}

func (r *rotatingFile) shouldRotate(incoming int64) bool {
	if r.size == 0 {
		return false
	}

	return r.size+incoming > r.policy.maxBytes || r.policy.expired(r.opened, r.now())
}

// rotateLocked closes the active file, renames it with a timestamp and opens a new one.
func (r *rotatingFile) rotateLocked() error {
	if err := r.file.Rotate(); err != nil {
		return err
	}

	r.size = 0
	r.opened = r.now()
	return nil
}
