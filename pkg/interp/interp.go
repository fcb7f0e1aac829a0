// Package interp runs ate command lines: host builtins for variables,
// functions and data files plus the ate verb itself.
package interp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/cjungmann/ate/pkg/action"
	"github.com/cjungmann/ate/pkg/script"
	"github.com/cjungmann/ate/pkg/shell"
	"github.com/cjungmann/ate/pkg/table"
)

// ExitError is returned by the exit builtin.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit %d", e.Code)
}

// Options configures an interpreter.
type Options struct {
	Out    io.Writer
	Err    io.Writer
	Stdin  io.Reader
	Action action.Config
	Logger log.Logger
	// KeepGoing reports failed lines of a script and continues with the
	// next one instead of stopping.
	KeepGoing bool
}

// Interp holds the variables and settings of one ate session.
type Interp struct {
	env       *shell.Environment
	session   *action.Session
	out       io.Writer
	errw      io.Writer
	stdin     io.Reader
	logger    log.Logger
	limit     int
	keepGoing bool
	status    int
}

// New creates an interpreter with an empty environment.
func New(opts Options) *Interp {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Err == nil {
		opts.Err = io.Discard
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNopLogger()
	}
	env := shell.New(opts.Out)
	return &Interp{
		env:       env,
		session:   action.NewSession(env, opts.Action, opts.Logger),
		out:       opts.Out,
		errw:      opts.Err,
		stdin:     opts.Stdin,
		logger:    opts.Logger,
		limit:     opts.Action.MaxElements,
		keepGoing: opts.KeepGoing,
	}
}

// Env returns the interpreter's variables.
func (in *Interp) Env() *shell.Environment { return in.env }

// Status returns the exit status of the last command.
func (in *Interp) Status() int { return in.status }

// Exec runs one logical line. Commands separated by ';' run in order and
// the first failure stops the line.
func (in *Interp) Exec(line string) error {
	line = strings.TrimSpace(line)
	if name, body, ok := functionDefinition(line); ok {
		return in.record(in.define(name, body))
	}
	cmds, err := tokenize(line)
	if err != nil {
		return in.record(err)
	}
	for _, cmd := range cmds {
		if err := in.record(in.call(in.expand(cmd))); err != nil {
			return err
		}
	}
	return nil
}

func (in *Interp) record(err error) error {
	var exit *ExitError
	switch {
	case err == nil:
		in.status = 0
	case errors.As(err, &exit):
		in.status = exit.Code
	default:
		in.status = action.ExitCode(err)
	}
	return err
}

func (in *Interp) call(args []string) error {
	b, ok := builtins[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command '%s'", table.ErrNotFound, args[0])
	}
	return b.run(in, args[1:])
}

// define compiles body and binds it as a function.
func (in *Interp) define(name, body string) error {
	if name == "" {
		return fmt.Errorf("%w: function needs a name", table.ErrUsage)
	}
	if v, ok := in.env.Lookup(name); ok && v.Kind != shell.KindFunction {
		return fmt.Errorf("%w: '%s' is already a %s variable", table.ErrUsage, name, v.Kind)
	}
	fn, err := script.Compile(name, body)
	if err != nil {
		return fmt.Errorf("%w: %v", table.ErrUsage, err)
	}
	in.env.BindFunction(name, fn)
	level.Debug(in.logger).Log("msg", "defined function", "name", name)
	return nil
}

// functionDefinition splits "function NAME { BODY }". The braces are
// optional on a single line.
func functionDefinition(line string) (name, body string, ok bool) {
	rest, found := strings.CutPrefix(line, "function")
	if !found || (rest != "" && rest[0] != ' ' && rest[0] != '\t') {
		return "", "", false
	}
	rest = strings.TrimSpace(rest)
	end := strings.IndexAny(rest, " \t\n{")
	if end < 0 {
		return rest, "", true
	}
	name, body = rest[:end], strings.TrimSpace(rest[end:])
	if strings.HasPrefix(body, "{") && strings.HasSuffix(body, "}") {
		body = strings.TrimSpace(body[1 : len(body)-1])
	}
	return name, body, true
}

// Run executes the lines read from r. A failing line stops the run unless
// the interpreter keeps going, in which case the error is reported and
// the last failure is returned at the end.
func (in *Interp) Run(r io.Reader, name string) error {
	var last error
	err := readLines(r, name, func(n int, line string) error {
		err := in.Exec(line)
		if err == nil {
			return nil
		}
		var exit *ExitError
		if errors.As(err, &exit) {
			return err
		}
		err = &LineError{Source: name, Line: n, Err: err}
		if !in.keepGoing {
			return err
		}
		fmt.Fprintln(in.errw, err)
		last = err
		return nil
	})
	if err != nil {
		return err
	}
	return last
}

// Validate parses the lines read from r without running them.
func Validate(r io.Reader, name string) error {
	var errs []error
	err := readLines(r, name, func(n int, line string) error {
		if err := check(line); err != nil {
			errs = append(errs, &LineError{Source: name, Line: n, Err: err})
		}
		return nil
	})
	if err != nil {
		return err
	}
	return errors.Join(errs...)
}

func check(line string) error {
	line = strings.TrimSpace(line)
	if name, body, ok := functionDefinition(line); ok {
		if name == "" {
			return fmt.Errorf("function needs a name")
		}
		_, err := script.Compile(name, body)
		return err
	}
	cmds, err := tokenize(line)
	if err != nil {
		return err
	}
	for _, cmd := range cmds {
		if cmd[0][0].expand && strings.Contains(cmd[0][0].text, "$") {
			continue
		}
		name := cmd[0][0].text
		if _, ok := builtins[name]; !ok {
			return fmt.Errorf("unknown command '%s'", name)
		}
		if name == "ate" && len(cmd) > 1 {
			verb := cmd[1][0].text
			if _, ok := action.Describe(verb); !ok && !strings.Contains(verb, "$") {
				return fmt.Errorf("unknown action '%s'", verb)
			}
		}
	}
	return nil
}

// LineError locates a failure in a script.
type LineError struct {
	Source string
	Line   int
	Err    error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Source, e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// readLines calls fn with each logical line of r. A line that opens more
// braces than it closes continues on the following lines.
func readLines(r io.Reader, name string, fn func(n int, line string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		buf   strings.Builder
		start int
		depth int
		n     int
	)
	for scanner.Scan() {
		n++
		text := scanner.Text()
		if buf.Len() == 0 {
			if strings.TrimSpace(text) == "" {
				continue
			}
			start = n
		} else {
			buf.WriteByte('\n')
		}
		buf.WriteString(text)
		depth += strings.Count(text, "{") - strings.Count(text, "}")
		if depth > 0 {
			continue
		}
		line := buf.String()
		buf.Reset()
		depth = 0
		if err := fn(start, line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if buf.Len() > 0 {
		return &LineError{Source: name, Line: start, Err: fmt.Errorf("%w: unterminated '{'", table.ErrUsage)}
	}
	return nil
}
