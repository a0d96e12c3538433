package manipulator

import (
	"errors"
	"testing"
)

func TestParseMode(t *testing.T) {
	for _, raw := range []string{"normal", "error", "delayed", "empty", "stray"} {
		mode, err := ParseMode(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if string(mode) != raw {
			t.Fatalf("unexpected mode: %q", mode)
		}
	}

	_, err := ParseMode("bogus")
	if !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
}

func TestFromUpdateKeepsDefaultsForOmittedOptions(t *testing.T) {
	cfg := FromUpdate(Update{OptResponseType: ModeError, OptErrorCode: 3})
	if cfg.Mode != ModeError {
		t.Fatalf("unexpected mode: %q", cfg.Mode)
	}
	if cfg.ErrorCode != 3 {
		t.Fatalf("unexpected error code: %d", cfg.ErrorCode)
	}
	if cfg.ClearAfter != 0 {
		t.Fatalf("expected indefinite clear_after, got %d", cfg.ClearAfter)
	}
	if cfg.DataLen != DefaultConfig().DataLen {
		t.Fatalf("unexpected data_len: %d", cfg.DataLen)
	}
}

func TestStoreReplaceIsWholesale(t *testing.T) {
	s := NewStore()
	s.Replace(Update{OptResponseType: ModeError, OptErrorCode: 4})
	cfg := s.Replace(Update{OptResponseType: ModeDelayed, OptDelayBy: 5})
	if cfg.Mode != ModeDelayed || cfg.DelayBy != 5 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	// error_code from the previous replace must not leak through
	if cfg.ErrorCode != 0 {
		t.Fatalf("stale error_code survived replace: %d", cfg.ErrorCode)
	}
}

func TestStoreReplaceIdempotentForNormal(t *testing.T) {
	s := NewStore()
	first := s.Replace(Update{OptResponseType: ModeNormal})
	second := s.Replace(Update{OptResponseType: ModeNormal})
	if first != second {
		t.Fatalf("normal replace not idempotent: %+v vs %+v", first, second)
	}
	if second != s.Current() {
		t.Fatalf("current diverged: %+v", s.Current())
	}
}

func TestStoreNextCountsDownClearAfter(t *testing.T) {
	s := NewStore()
	s.Replace(Update{OptResponseType: ModeError, OptErrorCode: 2, OptClearAfter: 2})

	if cfg := s.Next(); cfg.Mode != ModeError {
		t.Fatalf("first response should be manipulated, got %q", cfg.Mode)
	}
	if cfg := s.Next(); cfg.Mode != ModeError {
		t.Fatalf("second response should be manipulated, got %q", cfg.Mode)
	}
	if cfg := s.Next(); cfg.Mode != ModeNormal {
		t.Fatalf("third response should have reverted, got %q", cfg.Mode)
	}
	if cfg := s.Current(); cfg.Mode != ModeNormal {
		t.Fatalf("store should report normal after auto-clear, got %q", cfg.Mode)
	}
}

func TestStoreNextIndefiniteWithoutClearAfter(t *testing.T) {
	s := NewStore()
	s.Replace(Update{OptResponseType: ModeEmpty})
	for i := 0; i < 10; i++ {
		if cfg := s.Next(); cfg.Mode != ModeEmpty {
			t.Fatalf("response %d: expected empty mode, got %q", i, cfg.Mode)
		}
	}
}

func TestStoreNextNormalDoesNotCount(t *testing.T) {
	s := NewStore()
	for i := 0; i < 3; i++ {
		if cfg := s.Next(); cfg.Mode != ModeNormal {
			t.Fatalf("expected normal, got %q", cfg.Mode)
		}
	}
	s.Replace(Update{OptResponseType: ModeStray, OptDataLen: 4, OptClearAfter: 1})
	if cfg := s.Next(); cfg.Mode != ModeStray {
		t.Fatalf("expected stray, got %q", cfg.Mode)
	}
	if cfg := s.Next(); cfg.Mode != ModeNormal {
		t.Fatalf("expected reverted normal, got %q", cfg.Mode)
	}
}

func TestConfigStrayLenFloor(t *testing.T) {
	cfg := Config{Mode: ModeStray, DataLen: 0}
	if got := cfg.StrayLen(); got != 1 {
		t.Fatalf("expected floor of 1, got %d", got)
	}
	cfg.DataLen = 11
	if got := cfg.StrayLen(); got != 11 {
		t.Fatalf("expected 11, got %d", got)
	}
}
