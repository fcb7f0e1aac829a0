package action

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/pflag"

	"github.com/cjungmann/ate/pkg/array"
	"github.com/cjungmann/ate/pkg/shell"
	"github.com/cjungmann/ate/pkg/table"
)

const (
	DefaultValueName = "ATE_VALUE"
	DefaultArrayName = "ATE_ARRAY"

	hostedArrayStem = "ATE_HOSTED_ARRAY_"
	keyArrayStem    = "ATE_KEY_ARRAY_"
	rowArrayStem    = "ATE_ROW_"
	resultStem      = "ATE_RESULT_"
)

// Config holds the defaults of a Session.
type Config struct {
	// ValueName receives scalar results when -v is not given.
	ValueName string
	// ArrayName receives array results when -a is not given.
	ArrayName string
	// MaxElements caps the size of any array an action grows. Zero means
	// no limit.
	MaxElements int
}

// DefaultConfig returns the standard result variable names and no element
// limit.
func DefaultConfig() Config {
	return Config{ValueName: DefaultValueName, ArrayName: DefaultArrayName}
}

// Session runs actions against the variables of one environment.
type Session struct {
	env    *shell.Environment
	cfg    Config
	logger log.Logger
}

// NewSession creates a session. Empty result names fall back to the
// defaults and a nil logger discards output.
func NewSession(env *shell.Environment, cfg Config, logger log.Logger) *Session {
	if cfg.ValueName == "" {
		cfg.ValueName = DefaultValueName
	}
	if cfg.ArrayName == "" {
		cfg.ArrayName = DefaultArrayName
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Session{env: env, cfg: cfg, logger: logger}
}

// Env returns the session's environment.
func (s *Session) Env() *shell.Environment { return s.env }

// Do runs the action name with args. Failures are recorded in the
// environment's last-error slot.
func (s *Session) Do(name string, args []string) error {
	a, ok := lookup(name)
	if !ok {
		err := fmt.Errorf("%w: unknown action '%s'", table.ErrUsage, name)
		s.fail(name, err)
		return err
	}

	level.Debug(s.logger).Log("msg", "running action", "action", name, "args", len(args))
	if err := a.run(s, args); err != nil {
		err = fmt.Errorf("%s: %w", name, err)
		s.fail(name, err)
		return err
	}
	return nil
}

func (s *Session) fail(name string, err error) {
	s.env.SetLastError(err.Error())
	kind := table.KindOf(err)
	logger := level.Debug(s.logger)
	if kind == table.KindCorrupt || kind == table.KindInternal {
		logger = level.Warn(s.logger)
	}
	logger.Log("msg", "action failed", "action", name, "kind", kind, "err", err)
}

// ExitCode maps an action error to a process exit status.
func ExitCode(err error) int {
	switch table.KindOf(err) {
	case table.KindNone:
		return 0
	case table.KindUsage:
		return 2
	case table.KindTypeMismatch:
		return 3
	case table.KindCorrupt:
		return 4
	case table.KindAlloc:
		return 5
	case table.KindNotFound:
		return 127
	default:
		return 1
	}
}

func newFlags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false
	return fs
}

// parseArgs parses args and splits the remaining arguments at "--" into
// positional arguments and callback extras.
func parseArgs(fs *pflag.FlagSet, args []string) (positional, extras []string, err error) {
	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", table.ErrUsage, err)
	}
	rest := fs.Args()
	if at := fs.ArgsLenAtDash(); at >= 0 {
		return rest[:at], rest[at:], nil
	}
	return rest, nil, nil
}

// expect checks that pos holds at least min and at most len(names)
// arguments.
func expect(pos []string, min int, names ...string) error {
	if len(pos) < min {
		return fmt.Errorf("%w: missing %s", table.ErrUsage, names[len(pos)])
	}
	if len(pos) > len(names) {
		return fmt.Errorf("%w: unexpected argument '%s'", table.ErrUsage, pos[len(names)])
	}
	return nil
}

func parseInt(what, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s '%s'", table.ErrUsage, what, s)
	}
	return n, nil
}

func (s *Session) head(name string) (*table.Head, error) {
	v, ok := s.env.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: handle '%s'", table.ErrNotFound, name)
	}
	h, ok := v.Special.(*table.Head)
	if v.Kind != shell.KindSpecial || !ok {
		return nil, fmt.Errorf("%w: '%s' is not a table handle", table.ErrTypeMismatch, name)
	}
	return h, nil
}

func (s *Session) array(name string) (*array.Array, error) {
	v, ok := s.env.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: array '%s'", table.ErrNotFound, name)
	}
	if v.Kind != shell.KindArray {
		return nil, fmt.Errorf("%w: '%s' is not an array", table.ErrTypeMismatch, name)
	}
	return v.Array, nil
}

func (s *Session) function(name string) (shell.Function, error) {
	v, ok := s.env.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: function '%s'", table.ErrNotFound, name)
	}
	if v.Kind != shell.KindFunction {
		return nil, fmt.Errorf("%w: '%s' is not a function", table.ErrTypeMismatch, name)
	}
	return v.Func, nil
}

// claim verifies that name may be bound to kind without discarding a
// variable of another kind.
func (s *Session) claim(name string, kind shell.Kind) error {
	if name == "" {
		return fmt.Errorf("%w: empty variable name", table.ErrUsage)
	}
	if v, ok := s.env.Lookup(name); ok && v.Kind != kind {
		return fmt.Errorf("%w: '%s' is already a %s variable", table.ErrUsage, name, v.Kind)
	}
	return nil
}

func (s *Session) bindHead(name string, h *table.Head) error {
	if err := s.claim(name, shell.KindSpecial); err != nil {
		return err
	}
	s.env.BindSpecial(name, h)
	return nil
}

func (s *Session) setValue(name, value string) error {
	if err := s.claim(name, shell.KindString); err != nil {
		return err
	}
	s.env.BindString(name, value)
	return nil
}

func (s *Session) setArray(name string, values []string) error {
	if err := s.claim(name, shell.KindArray); err != nil {
		return err
	}
	if v, ok := s.env.Lookup(name); ok {
		return fill(v.Array, values)
	}
	s.env.BindArray(name, array.FromValues(values...))
	return nil
}

// reserve fails when growing an array of size current by adding elements
// would pass the configured limit.
func (s *Session) reserve(current, adding int) error {
	if s.cfg.MaxElements > 0 && current+adding > s.cfg.MaxElements {
		return fmt.Errorf("%w: %d elements exceed the limit of %d", table.ErrAlloc, current+adding, s.cfg.MaxElements)
	}
	return nil
}

func fill(arr *array.Array, values []string) error {
	arr.Flush()
	return arr.Append(values...)
}
