// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package logger

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var ErrInvalidMode = errors.New("invalid deployment mode")

// Mode selects where log files live and how much is echoed on the console.
type Mode int

const (
	Development Mode = iota
	Production
)

const (
	developmentRoot = "log"
	productionRoot  = "/var/log"
)

// ParseMode converts a textual deployment mode into a Mode.
func ParseMode(mode string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "development", "dev", "debug":
		return Development, nil
	case "production", "prod", "release":
		return Production, nil
	default:
		return Development, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
}

func (m Mode) String() string {
	switch m {
	case Development:
		return "development"
	case Production:
		return "production"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler so Mode can be read from env and flags.
func (m *Mode) UnmarshalText(text []byte) error {
	mode, err := ParseMode(string(text))
	if err != nil {
		return err
	}

	*m = mode
	return nil
}

// root returns the parent directory for the per application log directory.
func (m Mode) root() string {
	if m == Production {
		return productionRoot
	}
	return developmentRoot
}

// consoleLevel is the minimum level echoed on the console.
func (m Mode) consoleLevel() Level {
	if m == Production {
		return ERROR
	}
	return TRACE
}

// Directory returns the log directory used for name in this mode.
func (m Mode) Directory(name string) string {
	return filepath.Join(m.root(), name)
}

// Set implements pflag.Value.
func (m *Mode) Set(value string) error {
	return m.UnmarshalText([]byte(value))
}

// Type implements pflag.Value.
func (m *Mode) Type() string {
	return "mode"
}
