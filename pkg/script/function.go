// Package script implements the small language host functions are written
// in. A function body is a sequence of statements:
//
//	set $1 = cmp($2[0], $3[0])
//	echo $2, $1[0]
//	return $1[1] > 30
//
// $N is the Nth positional argument. Assigning to $N sets the variable the
// argument names, and $N[i] reads element i of the array it names. A
// return of a true condition is status 0.
package script

import (
	"fmt"
	"strings"

	"github.com/cjungmann/ate/pkg/shell"
)

// Function is a compiled script function.
type Function struct {
	name    string
	source  string
	program *Program
}

// Compile parses source as the body of the function name.
func Compile(name, source string) (*Function, error) {
	source = strings.TrimSpace(source)
	prog, err := scriptParser.ParseString(name, source)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", name, err)
	}
	return &Function{name: name, source: source, program: prog}, nil
}

// CompileCondition compiles a single expression as a function returning
// its value.
func CompileCondition(name, expr string) (*Function, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("empty expression")
	}
	return Compile(name, "return "+expr)
}

// Name returns the function name.
func (f *Function) Name() string { return f.name }

// Source returns the function body.
func (f *Function) Source() string { return f.source }

// Invoke runs the function with positional arguments args.
func (f *Function) Invoke(env *shell.Environment, args []string) (int, error) {
	fr := &frame{env: env, name: f.name, args: args}
	for _, s := range f.program.Statements {
		code, done, err := fr.exec(s)
		if err != nil {
			return 1, fmt.Errorf("%s: %w", f.name, err)
		}
		if done {
			return code, nil
		}
	}
	return 0, nil
}
