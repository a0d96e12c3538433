package shell

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/danmuck/modbusctl/internal/manipulator"
	"github.com/danmuck/modbusctl/internal/testutil/testlog"
)

type fakeCollaborator struct {
	updates []manipulator.Update
	stops   int
}

func (f *fakeCollaborator) UpdateManipulator(u manipulator.Update) manipulator.Config {
	f.updates = append(f.updates, u)
	return manipulator.FromUpdate(u)
}

func (f *fakeCollaborator) Stop(ctx context.Context) error {
	f.stops++
	return nil
}

func newTestShell(t *testing.T) (*Shell, *fakeCollaborator, *bytes.Buffer) {
	t.Helper()
	testlog.Start(t)
	collab := &fakeCollaborator{}
	out := &bytes.Buffer{}
	return New(collab, Config{Out: out}), collab, out
}

func TestDispatchEmptyLineIsNoOp(t *testing.T) {
	sh, collab, out := newTestShell(t)
	if sh.dispatch("") || sh.dispatch("   \t ") {
		t.Fatalf("blank lines must not exit")
	}
	if out.Len() != 0 {
		t.Fatalf("blank line produced output: %q", out.String())
	}
	if len(collab.updates) != 0 {
		t.Fatalf("blank line pushed an update")
	}
}

func TestDispatchInvalidCommandLeavesConfigUnchanged(t *testing.T) {
	sh, collab, out := newTestShell(t)
	if sh.dispatch("restart now") {
		t.Fatalf("invalid command must not exit")
	}
	if !strings.Contains(out.String(), "invalid command") ||
		!strings.Contains(out.String(), "restart") {
		t.Fatalf("error should name the offending token: %q", out.String())
	}
	if len(collab.updates) != 0 {
		t.Fatalf("invalid command must not touch the config")
	}
}

func TestDispatchManipulatorPushesValidUpdate(t *testing.T) {
	sh, collab, out := newTestShell(t)
	sh.dispatch("manipulator response_type=error error_code=3 clear_after=4")
	if len(collab.updates) != 1 {
		t.Fatalf("expected one update, got %d", len(collab.updates))
	}
	u := collab.updates[0]
	if u[manipulator.OptResponseType] != manipulator.ModeError {
		t.Fatalf("unexpected response_type: %v", u)
	}
	if u[manipulator.OptErrorCode] != 3 || u[manipulator.OptClearAfter] != 4 {
		t.Fatalf("unexpected numeric options: %v", u)
	}
	if !strings.Contains(out.String(), "manipulator config set") {
		t.Fatalf("expected confirmation message, got %q", out.String())
	}
}

func TestDispatchManipulatorWithoutArgsPrintsUsage(t *testing.T) {
	sh, collab, out := newTestShell(t)
	sh.dispatch("manipulator")
	if !strings.Contains(out.String(), "usage:") {
		t.Fatalf("expected usage message, got %q", out.String())
	}
	if len(collab.updates) != 0 {
		t.Fatalf("bare manipulator must not push an update")
	}
}

func TestDispatchManipulatorAllInvalidPushesNothing(t *testing.T) {
	sh, collab, out := newTestShell(t)
	sh.dispatch("manipulator response_type=bogus")
	if len(collab.updates) != 0 {
		t.Fatalf("empty validated mapping must not be pushed")
	}
	if !strings.Contains(out.String(), "bogus") {
		t.Fatalf("error should name the invalid value: %q", out.String())
	}
}

func TestDispatchManipulatorMissingValueAborts(t *testing.T) {
	sh, collab, out := newTestShell(t)
	sh.dispatch("manipulator response_type=error error_code")
	if len(collab.updates) != 0 {
		t.Fatalf("aborted parse must not push an update")
	}
	if !strings.Contains(out.String(), "missing value") {
		t.Fatalf("expected missing value error, got %q", out.String())
	}
}

func TestDispatchExitAndSingleStop(t *testing.T) {
	sh, collab, _ := newTestShell(t)
	if !sh.dispatch("exit") {
		t.Fatalf("exit must leave the loop")
	}
	sh.shutdown()
	sh.shutdown()
	if collab.stops != 1 {
		t.Fatalf("expected exactly one stop, got %d", collab.stops)
	}
}

func TestDispatchHelpAndClear(t *testing.T) {
	sh, _, out := newTestShell(t)
	sh.dispatch("help")
	if !strings.Contains(out.String(), "manipulator") ||
		!strings.Contains(out.String(), "response_type") {
		t.Fatalf("help should list the manipulator command: %q", out.String())
	}
	out.Reset()
	sh.dispatch("clear")
	if !strings.Contains(out.String(), "\x1b[2J") {
		t.Fatalf("clear should emit the clear-screen sequence")
	}
}
