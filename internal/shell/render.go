package shell

import (
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"
)

const (
	ansiReset  = "\x1b[0m"
	ansiDim    = "\x1b[2m"
	ansiCyan   = "\x1b[36m"
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
)

var bannerLines = []string{
	` __  __  ___  ____  ____  _   _ ____   ____ _____ _     `,
	`|  \/  |/ _ \|  _ \| __ )| | | / ___| / ___|_   _| |    `,
	`| |\/| | | | | | | |  _ \| | | \___ \| |     | | | |    `,
	`| |  | | |_| | |_| | |_) | |_| |___) | |___  | | | |___ `,
	`|_|  |_|\___/|____/|____/ \___/|____/ \____| |_| |_____|`,
}

const compactTitle = "modbusctl :: Modbus response manipulator"

const hintToolbar = "manipulator response_type=<type> [options] | help | clear | exit"

const manipulatorUsage = "manipulator response_type=<normal|error|delayed|empty|stray> " +
	"[error_code=<int>] [delay_by=<int>] [clear_after=<int>] [data_len=<int>]"

func (s *Shell) infof(format string, args ...any) {
	fmt.Fprintf(s.out, ansiCyan+format+ansiReset+"\n", args...)
}

func (s *Shell) warnf(format string, args ...any) {
	fmt.Fprintf(s.out, ansiYellow+format+ansiReset+"\n", args...)
}

func (s *Shell) errorf(format string, args ...any) {
	fmt.Fprintf(s.out, ansiRed+format+ansiReset+"\n", args...)
}

func (s *Shell) clearScreen() {
	fmt.Fprint(s.out, "\x1b[2J\x1b[H")
}

// renderTitle prints the large banner when the terminal can hold it
// without wrapping, otherwise the compact title.
func (s *Shell) renderTitle() {
	width := terminalWidth()
	if width >= len(bannerLines[0]) {
		for _, line := range bannerLines {
			fmt.Fprintln(s.out, ansiCyan+line+ansiReset)
		}
	} else {
		fmt.Fprintln(s.out, ansiCyan+compactTitle+ansiReset)
	}
	fmt.Fprintln(s.out, ansiDim+hintToolbar+ansiReset)
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

func (s *Shell) renderHelp() {
	table := tablewriter.NewWriter(s.out)
	table.SetHeader([]string{"Command", "Arguments", "Effect"})
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	table.Append([]string{
		"manipulator",
		"response_type=<normal|error|delayed|empty|stray>",
		"replace the manipulation config",
	})
	table.Append([]string{"", "error_code=<int>", "exception code for response_type=error"})
	table.Append([]string{"", "delay_by=<int>", "seconds to delay for response_type=delayed"})
	table.Append([]string{"", "clear_after=<int>", "revert to normal after N manipulated responses"})
	table.Append([]string{"", "data_len=<int>", "stray payload length in bytes"})
	table.Append([]string{"help", "", "print this table"})
	table.Append([]string{"clear", "", "clear the terminal"})
	table.Append([]string{"exit", "", "stop the server and leave the shell"})
	table.Render()
	fmt.Fprintln(s.out, ansiDim+hintToolbar+ansiReset)
}

// writerFallback keeps render output usable when no writer was given.
func writerFallback(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
