// Package manipulator holds the response-manipulation configuration the
// shell edits and the Modbus server consults when producing responses.
package manipulator

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects how the server alters outgoing responses.
type Mode string

const (
	ModeNormal  Mode = "normal"
	ModeError   Mode = "error"
	ModeDelayed Mode = "delayed"
	ModeEmpty   Mode = "empty"
	ModeStray   Mode = "stray"
)

// Modes lists the allowed response types, in the order shown to users.
var Modes = []Mode{ModeNormal, ModeError, ModeDelayed, ModeEmpty, ModeStray}

var ErrInvalidMode = errors.New("manipulator: invalid response type")

func ParseMode(raw string) (Mode, error) {
	m := Mode(strings.TrimSpace(raw))
	for _, known := range Modes {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, raw)
}

// ModeNames renders the allowed set for error messages.
func ModeNames() string {
	names := make([]string, len(Modes))
	for i, m := range Modes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// Option is a manipulator command option name.
type Option string

const (
	OptResponseType Option = "response_type"
	OptErrorCode    Option = "error_code"
	OptDelayBy      Option = "delay_by"
	OptClearAfter   Option = "clear_after"
	OptDataLen      Option = "data_len"
)

// Options lists the recognized option set.
var Options = []Option{OptResponseType, OptErrorCode, OptDelayBy, OptClearAfter, OptDataLen}

// KnownOption reports whether name is a recognized option.
func KnownOption(name string) bool {
	for _, o := range Options {
		if Option(name) == o {
			return true
		}
	}
	return false
}

// Update is the validated option mapping produced by the shell's
// argument parser. Values are Mode for response_type and int for the
// numeric options.
type Update map[Option]any

// Config is the full manipulation state. DelayBy is in seconds;
// ClearAfter zero means the manipulation never auto-clears.
type Config struct {
	Mode       Mode `json:"response_type"`
	ErrorCode  int  `json:"error_code"`
	DelayBy    int  `json:"delay_by"`
	ClearAfter int  `json:"clear_after"`
	DataLen    int  `json:"data_len"`
}

const defaultStrayLen = 10

func DefaultConfig() Config {
	return Config{Mode: ModeNormal, DataLen: defaultStrayLen}
}

// FromUpdate builds a complete config from defaults plus the update's
// fields. Options absent from the update keep their default value.
func FromUpdate(u Update) Config {
	cfg := DefaultConfig()
	if v, ok := u[OptResponseType]; ok {
		cfg.Mode = v.(Mode)
	}
	if v, ok := u[OptErrorCode]; ok {
		cfg.ErrorCode = v.(int)
	}
	if v, ok := u[OptDelayBy]; ok {
		cfg.DelayBy = v.(int)
	}
	if v, ok := u[OptClearAfter]; ok {
		cfg.ClearAfter = v.(int)
	}
	if v, ok := u[OptDataLen]; ok {
		cfg.DataLen = v.(int)
	}
	return cfg
}

// StrayLen returns the stray payload length, never below one byte.
func (c Config) StrayLen() int {
	if c.DataLen <= 0 {
		return 1
	}
	return c.DataLen
}

func (c Config) String() string {
	switch c.Mode {
	case ModeError:
		return fmt.Sprintf("response_type=error error_code=%d clear_after=%d", c.ErrorCode, c.ClearAfter)
	case ModeDelayed:
		return fmt.Sprintf("response_type=delayed delay_by=%d clear_after=%d", c.DelayBy, c.ClearAfter)
	case ModeStray:
		return fmt.Sprintf("response_type=stray data_len=%d clear_after=%d", c.DataLen, c.ClearAfter)
	case ModeEmpty:
		return fmt.Sprintf("response_type=empty clear_after=%d", c.ClearAfter)
	default:
		return "response_type=normal"
	}
}
