// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock safe for concurrent reads.
type fakeClock struct {
	lock sync.Mutex
	now  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, time.January, 1, 12, 0, 0, 0, time.Local)}
}

func (c *fakeClock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
}

func backupFiles(t *testing.T, dir, name string) []string {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(dir, name+"-*"+logFileExtension))
	require.NoError(t, err)
	return matches
}

func testPolicy() rotationPolicy {
	return rotationPolicy{
		maxAge:    time.Hour,
		maxBytes:  10,
		keepFiles: 3,
	}
}

func TestDefaultRotationPolicy(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 24*time.Hour, defaultRotationPolicy.maxAge)
	assert.Equal(t, int64(10_000_000), defaultRotationPolicy.maxBytes)
	assert.Equal(t, 30, defaultRotationPolicy.keepFiles)
}

func TestRotatingFileBySize(t *testing.T) {
	t.Parallel()

	t.Run("no rotation while the file stays within the limit", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		file, err := openRotatingFile(filepath.Join(dir, "app.log"), testPolicy(), newFakeClock().Now)
		require.NoError(t, err)
		defer file.Close()

		_, err = file.Write([]byte("12345"))
		require.NoError(t, err)
		_, err = file.Write([]byte("67890"))
		require.NoError(t, err)

		assert.Empty(t, backupFiles(t, dir, "app"))
	})

	t.Run("rotation when a write would exceed the limit", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "app.log")
		file, err := openRotatingFile(path, testPolicy(), newFakeClock().Now)
		require.NoError(t, err)

		_, err = file.Write([]byte("12345678"))
		require.NoError(t, err)
		_, err = file.Write([]byte("abc"))
		require.NoError(t, err)
		require.NoError(t, file.Close())

		backups := backupFiles(t, dir, "app")
		require.Len(t, backups, 1)

		rotated, err := os.ReadFile(backups[0])
		require.NoError(t, err)
		assert.Equal(t, "12345678", string(rotated))

		active, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "abc", string(active))
	})

	t.Run("existing content counts toward the limit", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "app.log")
		require.NoError(t, os.WriteFile(path, []byte("123456789"), 0o600))

		file, err := openRotatingFile(path, testPolicy(), newFakeClock().Now)
		require.NoError(t, err)
		defer file.Close()

		_, err = file.Write([]byte("ab"))
		require.NoError(t, err)

		assert.Len(t, backupFiles(t, dir, "app"), 1)
	})

	t.Run("default policy rotates once ten million bytes are exceeded", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		file, err := openRotatingFile(filepath.Join(dir, "app.log"), defaultRotationPolicy, newFakeClock().Now)
		require.NoError(t, err)
		defer file.Close()

		chunk := bytes.Repeat([]byte("x"), 100_000)
		for range 100 {
			_, err := file.Write(chunk)
			require.NoError(t, err)
		}
		assert.Empty(t, backupFiles(t, dir, "app"))

		_, err = file.Write([]byte("y"))
		require.NoError(t, err)
		assert.Len(t, backupFiles(t, dir, "app"), 1)
	})
}

func TestRotatingFileByAge(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	clock := newFakeClock()
	file, err := openRotatingFile(filepath.Join(dir, "app.log"), testPolicy(), clock.Now)
	require.NoError(t, err)
	defer file.Close()

	_, err = file.Write([]byte("a"))
	require.NoError(t, err)

	clock.Advance(59 * time.Minute)
	_, err = file.Write([]byte("b"))
	require.NoError(t, err)
	assert.Empty(t, backupFiles(t, dir, "app"))

	clock.Advance(time.Minute)
	_, err = file.Write([]byte("c"))
	require.NoError(t, err)
	assert.Len(t, backupFiles(t, dir, "app"), 1)
}

func TestRotatingFileRetention(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file, err := openRotatingFile(filepath.Join(dir, "app.log"), testPolicy(), newFakeClock().Now)
	require.NoError(t, err)
	defer file.Close()

	for range 6 {
		_, err := file.Write([]byte("0123456789"))
		require.NoError(t, err)
		// rotated files are named with millisecond precision
		time.Sleep(5 * time.Millisecond)
	}

	// old files are removed asynchronously by lumberjack
	require.Eventually(t, func() bool {
		return len(backupFiles(t, dir, "app")) == testPolicy().keepFiles
	}, 5*time.Second, 20*time.Millisecond)
}

func TestRotatingFileAppends(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o600))

	file, err := openRotatingFile(path, defaultRotationPolicy, time.Now)
	require.NoError(t, err)

	_, err = file.Write([]byte("new\n"))
	require.NoError(t, err)
	require.NoError(t, file.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old\nnew\n", string(content))
}

func TestRotatingFileAgeAcrossRestarts(t *testing.T) {
	t.Parallel()

	t.Run("existing file from two days ago rotates on the first write", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "app.log")
		require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o600))
		twoDaysAgo := time.Now().Add(-48 * time.Hour)
		require.NoError(t, os.Chtimes(path, twoDaysAgo, twoDaysAgo))

		file, err := openRotatingFile(path, defaultRotationPolicy, time.Now)
		require.NoError(t, err)

		_, err = file.Write([]byte("new\n"))
		require.NoError(t, err)
		require.NoError(t, file.Close())

		backups := backupFiles(t, dir, "app")
		require.Len(t, backups, 1)
		rotated, err := os.ReadFile(backups[0])
		require.NoError(t, err)
		assert.Equal(t, "old\n", string(rotated))

		active, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "new\n", string(active))
	})

	t.Run("existing file written today keeps growing", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "app.log")
		require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o600))

		clock := newFakeClock()
		modified := clock.Now().Add(-time.Hour)
		require.NoError(t, os.Chtimes(path, modified, modified))

		file, err := openRotatingFile(path, defaultRotationPolicy, clock.Now)
		require.NoError(t, err)
		defer file.Close()

		_, err = file.Write([]byte("new\n"))
		require.NoError(t, err)
		assert.Empty(t, backupFiles(t, dir, "app"))
	})
}

func TestRotatingFileDaily(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	clock := newFakeClock()
	clock.Advance(11*time.Hour + 30*time.Minute) // 23:30
	file, err := openRotatingFile(filepath.Join(dir, "app.log"), defaultRotationPolicy, clock.Now)
	require.NoError(t, err)
	defer file.Close()

	_, err = file.Write([]byte("a"))
	require.NoError(t, err)

	clock.Advance(20 * time.Minute)
	_, err = file.Write([]byte("b"))
	require.NoError(t, err)
	assert.Empty(t, backupFiles(t, dir, "app"))

	clock.Advance(20 * time.Minute)
	_, err = file.Write([]byte("c"))
	require.NoError(t, err)
	assert.Len(t, backupFiles(t, dir, "app"), 1)
}

func TestRotatingFileLargeLine(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	file, err := openRotatingFile(path, defaultRotationPolicy, newFakeClock().Now)
	require.NoError(t, err)

	_, err = file.Write([]byte("first\n"))
	require.NoError(t, err)

	line := bytes.Repeat([]byte("x"), 11*1024*1024)
	n, err := file.Write(line)
	require.NoError(t, err)
	assert.Equal(t, len(line), n)
	require.NoError(t, file.Close())

	assert.Len(t, backupFiles(t, dir, "app"), 1)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(len(line)), info.Size())
}
