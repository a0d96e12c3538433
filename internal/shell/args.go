package shell

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/danmuck/modbusctl/internal/manipulator"
)

// ErrMissingValue aborts parsing when a bare option name is the last
// token and no value follows.
var ErrMissingValue = errors.New("shell: missing value")

// ParseIssue is one non-fatal parse problem: an unrecognized option or
// a value that failed validation. The offending option is dropped from
// the result and parsing continues.
type ParseIssue struct {
	Option string
	Value  string
	Reason string
}

func (p ParseIssue) Error() string {
	if p.Value == "" {
		return fmt.Sprintf("invalid option %q: %s", p.Option, p.Reason)
	}
	return fmt.Sprintf("invalid value %q for %s: %s", p.Value, p.Option, p.Reason)
}

// ParseManipulatorArgs turns the tokens after the manipulator command
// into a validated option mapping. Both "key=value" and "key value"
// forms are accepted. Unrecognized options and invalid values are
// reported through issues and skipped; the returned update holds only
// the options that passed validation. A bare key with no value aborts
// the whole parse.
func ParseManipulatorArgs(tokens []string) (manipulator.Update, []ParseIssue, error) {
	update := manipulator.Update{}
	var issues []ParseIssue

	for i := 0; i < len(tokens); i++ {
		key, value, ok := strings.Cut(tokens[i], "=")
		if !ok {
			if i+1 >= len(tokens) {
				return nil, issues, fmt.Errorf("%w for option %q", ErrMissingValue, key)
			}
			i++
			value = tokens[i]
		}

		opt := manipulator.Option(key)
		switch opt {
		case manipulator.OptResponseType:
			mode, err := manipulator.ParseMode(value)
			if err != nil {
				issues = append(issues, ParseIssue{
					Option: key,
					Value:  value,
					Reason: "must be one of " + manipulator.ModeNames(),
				})
				continue
			}
			update[opt] = mode
		case manipulator.OptErrorCode, manipulator.OptDelayBy,
			manipulator.OptClearAfter, manipulator.OptDataLen:
			n, err := strconv.Atoi(value)
			if err != nil {
				issues = append(issues, ParseIssue{
					Option: key,
					Value:  value,
					Reason: "not an integer",
				})
				continue
			}
			update[opt] = n
		default:
			issues = append(issues, ParseIssue{
				Option: key,
				Reason: "unrecognized option",
			})
		}
	}

	return update, issues, nil
}
