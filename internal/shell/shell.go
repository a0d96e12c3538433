// Package shell implements the interactive operator shell: a readline
// loop that edits the manipulation config of the Modbus server it
// fronts.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"
	"github.com/danmuck/modbusctl/internal/manipulator"
	"github.com/rs/zerolog/log"
)

// Collaborator is the server the shell controls.
type Collaborator interface {
	UpdateManipulator(u manipulator.Update) manipulator.Config
	Stop(ctx context.Context) error
}

type Config struct {
	Prompt      string
	HistoryFile string
	StopTimeout time.Duration
	Out         io.Writer
}

func (c Config) withDefaults() Config {
	if c.Prompt == "" {
		c.Prompt = "modbusctl> "
	}
	if c.HistoryFile == "" {
		c.HistoryFile = "/tmp/modbusctl_history"
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = 5 * time.Second
	}
	c.Out = writerFallback(c.Out)
	return c
}

type Shell struct {
	cfg      Config
	collab   Collaborator
	out      io.Writer
	stopOnce sync.Once
}

func New(collab Collaborator, cfg Config) *Shell {
	cfg = cfg.withDefaults()
	return &Shell{cfg: cfg, collab: collab, out: cfg.Out}
}

// Run owns the read-eval loop until exit, end of input, or interrupt.
// Bad commands never terminate the loop.
func (s *Shell) Run() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.cfg.Prompt,
		HistoryFile:     s.cfg.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer(),
	})
	if err != nil {
		return fmt.Errorf("readline init: %w", err)
	}
	defer rl.Close()

	s.clearScreen()
	s.renderTitle()
	s.infof("Modbus server active; manipulator changes apply to the next responses.")

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				break
			}
			s.warnf("Bye Bye!!!")
			s.shutdown()
			return err
		}
		if s.dispatch(line) {
			break
		}
	}

	s.warnf("Bye Bye!!!")
	s.shutdown()
	return nil
}

// dispatch maps one input line to an action and reports whether the
// loop should shut down.
func (s *Shell) dispatch(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "exit":
		return true
	case "clear":
		s.clearScreen()
	case "help":
		s.renderHelp()
	case "manipulator":
		s.handleManipulator(fields[1:])
	default:
		s.errorf("invalid command: %q", fields[0])
	}
	return false
}

func (s *Shell) handleManipulator(args []string) {
	if len(args) == 0 {
		s.errorf("usage: %s", manipulatorUsage)
		return
	}

	update, issues, err := ParseManipulatorArgs(args)
	for _, issue := range issues {
		s.errorf("%s", issue.Error())
	}
	if err != nil {
		s.errorf("%v", err)
		return
	}
	if len(update) == 0 {
		return
	}

	cfg := s.collab.UpdateManipulator(update)
	s.infof("manipulator config set: %s", cfg)
}

// shutdown stops the collaborator exactly once.
func (s *Shell) shutdown() {
	s.stopOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.StopTimeout)
		defer cancel()
		if err := s.collab.Stop(ctx); err != nil {
			log.Warn().Err(err).Msg("collaborator stop failed")
		}
	})
}

func completer() readline.AutoCompleter {
	manipulatorItems := make([]readline.PrefixCompleterInterface, 0, len(manipulator.Options)+len(manipulator.Modes))
	for _, mode := range manipulator.Modes {
		manipulatorItems = append(manipulatorItems,
			readline.PcItem(string(manipulator.OptResponseType)+"="+string(mode)))
	}
	for _, opt := range manipulator.Options {
		if opt == manipulator.OptResponseType {
			continue
		}
		manipulatorItems = append(manipulatorItems, readline.PcItem(string(opt)+"="))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("manipulator", manipulatorItems...),
		readline.PcItem("help"),
		readline.PcItem("clear"),
		readline.PcItem("exit"),
	)
}
