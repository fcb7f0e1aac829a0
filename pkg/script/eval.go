package script

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cjungmann/ate/pkg/shell"
	"github.com/cjungmann/ate/pkg/table"
)

type valueKind int

const (
	textValue valueKind = iota
	numberValue
	boolValue
)

type value struct {
	kind valueKind
	text string
	num  float64
	b    bool
}

func text(s string) value    { return value{kind: textValue, text: s} }
func number(f float64) value { return value{kind: numberValue, num: f} }
func boolean(b bool) value   { return value{kind: boolValue, b: b} }
func integer(n int) value    { return number(float64(n)) }

func (v value) String() string {
	switch v.kind {
	case numberValue:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case boolValue:
		if v.b {
			return "1"
		}
		return "0"
	}
	return v.text
}

func (v value) number() (float64, bool) {
	switch v.kind {
	case numberValue:
		return v.num, true
	case boolValue:
		if v.b {
			return 1, true
		}
		return 0, true
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64)
	return f, err == nil
}

func (v value) truthy() bool {
	switch v.kind {
	case boolValue:
		return v.b
	case numberValue:
		return v.num != 0
	}
	return v.text != ""
}

// code converts a returned value to an exit status. A true condition is
// status 0, as in a shell.
func (v value) code() (int, error) {
	switch v.kind {
	case boolValue:
		if v.b {
			return 0, nil
		}
		return 1, nil
	case numberValue:
		return int(v.num), nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v.text))
	if err != nil {
		return 0, fmt.Errorf("return value %q is not a number", v.text)
	}
	return n, nil
}

// frame is the evaluation context of one invocation.
type frame struct {
	env  *shell.Environment
	name string
	args []string
}

func (f *frame) param(p string) string {
	n, err := strconv.Atoi(strings.TrimPrefix(p, "$"))
	if err != nil {
		return ""
	}
	if n == 0 {
		return f.name
	}
	if n > len(f.args) {
		return ""
	}
	return f.args[n-1]
}

// exec runs a statement. done is set by return.
func (f *frame) exec(s *Statement) (code int, done bool, err error) {
	switch {
	case s.Set != nil:
		v, err := f.eval(s.Set.Value)
		if err != nil {
			return 0, false, err
		}
		return 0, false, f.assign(s.Set.Target, v)
	case s.Echo != nil:
		parts := make([]string, 0, len(s.Echo.Args))
		for _, a := range s.Echo.Args {
			v, err := f.eval(a)
			if err != nil {
				return 0, false, err
			}
			parts = append(parts, v.String())
		}
		_, err := fmt.Fprintln(f.env.Out(), strings.Join(parts, " "))
		return 0, false, err
	case s.Return != nil:
		v, err := f.eval(s.Return)
		if err != nil {
			return 0, false, err
		}
		code, err := v.code()
		return code, true, err
	}
	return 0, false, nil
}

// target returns the variable name a reference designates. A positional
// argument designates the variable it names.
func (f *frame) target(r *Ref) string {
	if r.Param != nil {
		return f.param(*r.Param)
	}
	return *r.Name
}

func (f *frame) assign(r *Ref, v value) error {
	name := f.target(r)
	if name == "" {
		return fmt.Errorf("assignment to an empty variable name")
	}
	if r.Index == nil {
		f.env.BindString(name, v.String())
		return nil
	}

	idx, err := f.index(r.Index)
	if err != nil {
		return err
	}
	variable, ok := f.env.Lookup(name)
	if !ok {
		variable = f.env.BindArray(name, nil)
	}
	if variable.Kind != shell.KindArray {
		return fmt.Errorf("'%s' is not an array", name)
	}
	return variable.Array.Insert(idx, v.String())
}

func (f *frame) index(e *Expression) (int64, error) {
	v, err := f.eval(e)
	if err != nil {
		return 0, err
	}
	n, ok := v.number()
	if !ok {
		return 0, fmt.Errorf("subscript %q is not a number", v.String())
	}
	return int64(n), nil
}

func (f *frame) read(r *Ref) (value, error) {
	if r.Index == nil {
		if r.Param != nil {
			return text(f.param(*r.Param)), nil
		}
		if v, ok := f.env.Lookup(*r.Name); ok {
			return text(v.Text()), nil
		}
		return text(""), nil
	}

	name := f.target(r)
	idx, err := f.index(r.Index)
	if err != nil {
		return value{}, err
	}
	v, ok := f.env.Lookup(name)
	if !ok {
		return text(""), nil
	}
	if v.Kind != shell.KindArray {
		return value{}, fmt.Errorf("'%s' is not an array", name)
	}
	s, _ := v.Array.Get(idx)
	return text(s), nil
}

func (f *frame) eval(e *Expression) (value, error) {
	if len(e.Or) == 1 {
		return f.conjunction(e.Or[0])
	}
	for _, c := range e.Or {
		v, err := f.conjunction(c)
		if err != nil {
			return value{}, err
		}
		if v.truthy() {
			return boolean(true), nil
		}
	}
	return boolean(false), nil
}

func (f *frame) conjunction(c *Conjunction) (value, error) {
	if len(c.And) == 1 {
		return f.comparison(c.And[0])
	}
	for _, cmp := range c.And {
		v, err := f.comparison(cmp)
		if err != nil {
			return value{}, err
		}
		if !v.truthy() {
			return boolean(false), nil
		}
	}
	return boolean(true), nil
}

func (f *frame) comparison(c *Comparison) (value, error) {
	left, err := f.sum(c.Left)
	if err != nil || c.Right == nil {
		return left, err
	}
	right, err := f.sum(c.Right)
	if err != nil {
		return value{}, err
	}

	n := compare(left, right)
	switch c.Op {
	case "==":
		return boolean(n == 0), nil
	case "!=":
		return boolean(n != 0), nil
	case "<":
		return boolean(n < 0), nil
	case "<=":
		return boolean(n <= 0), nil
	case ">":
		return boolean(n > 0), nil
	case ">=":
		return boolean(n >= 0), nil
	}
	return value{}, fmt.Errorf("unknown operator %q", c.Op)
}

// compare orders two values numerically when both are numbers and as text
// otherwise.
func compare(a, b value) int {
	x, okA := a.number()
	y, okB := b.number()
	if okA && okB {
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	return strings.Compare(a.String(), b.String())
}

func (f *frame) sum(s *Sum) (value, error) {
	acc, err := f.unary(s.Left)
	if err != nil {
		return value{}, err
	}
	for _, term := range s.Rest {
		v, err := f.unary(term.Operand)
		if err != nil {
			return value{}, err
		}
		x, okA := acc.number()
		y, okB := v.number()
		switch {
		case okA && okB && term.Op == "+":
			acc = number(x + y)
		case okA && okB:
			acc = number(x - y)
		case term.Op == "+":
			acc = text(acc.String() + v.String())
		default:
			return value{}, fmt.Errorf("cannot subtract %q from %q", v.String(), acc.String())
		}
	}
	return acc, nil
}

func (f *frame) unary(u *Unary) (value, error) {
	v, err := f.primary(u.Primary)
	if err != nil {
		return value{}, err
	}
	switch u.Op {
	case "!":
		return boolean(!v.truthy()), nil
	case "-":
		n, ok := v.number()
		if !ok {
			return value{}, fmt.Errorf("cannot negate %q", v.String())
		}
		return number(-n), nil
	}
	return v, nil
}

func (f *frame) primary(p *Primary) (value, error) {
	switch {
	case p.Number != nil:
		return number(*p.Number), nil
	case p.Text != nil:
		return text(*p.Text), nil
	case p.Call != nil:
		return f.call(p.Call)
	case p.Ref != nil:
		return f.read(p.Ref)
	case p.Group != nil:
		return f.eval(p.Group)
	}
	return value{}, fmt.Errorf("empty expression")
}

func (f *frame) call(c *Call) (value, error) {
	args := make([]value, 0, len(c.Args))
	for _, a := range c.Args {
		v, err := f.eval(a)
		if err != nil {
			return value{}, err
		}
		args = append(args, v)
	}

	want := func(n int) error {
		if len(args) != n {
			return fmt.Errorf("%s() takes %d arguments, got %d", c.Name, n, len(args))
		}
		return nil
	}

	switch c.Name {
	case "cmp":
		if err := want(2); err != nil {
			return value{}, err
		}
		return integer(strings.Compare(args[0].String(), args[1].String())), nil
	case "icmp", "natcmp":
		if err := want(2); err != nil {
			return value{}, err
		}
		order := table.KeyOrder{Mode: table.KeyInteger}
		if c.Name == "natcmp" {
			order.Mode = table.KeyNatural
		}
		return integer(order.Compare(args[0].String(), args[1].String())), nil
	case "ncmp":
		if err := want(2); err != nil {
			return value{}, err
		}
		x, okA := args[0].number()
		y, okB := args[1].number()
		if !okA || !okB {
			return value{}, fmt.Errorf("ncmp() of non-numbers %q and %q", args[0].String(), args[1].String())
		}
		return integer(compare(number(x), number(y))), nil
	case "num":
		if err := want(1); err != nil {
			return value{}, err
		}
		n, ok := args[0].number()
		if !ok {
			return value{}, fmt.Errorf("%q is not a number", args[0].String())
		}
		return number(n), nil
	case "len":
		if err := want(1); err != nil {
			return value{}, err
		}
		return integer(utf8.RuneCountInString(args[0].String())), nil
	case "lower":
		if err := want(1); err != nil {
			return value{}, err
		}
		return text(strings.ToLower(args[0].String())), nil
	case "upper":
		if err := want(1); err != nil {
			return value{}, err
		}
		return text(strings.ToUpper(args[0].String())), nil
	case "contains":
		if err := want(2); err != nil {
			return value{}, err
		}
		return boolean(strings.Contains(args[0].String(), args[1].String())), nil
	case "concat":
		var b strings.Builder
		for _, a := range args {
			b.WriteString(a.String())
		}
		return text(b.String()), nil
	case "count":
		if err := want(1); err != nil {
			return value{}, err
		}
		v, ok := f.env.Lookup(args[0].String())
		if !ok || v.Kind != shell.KindArray {
			return integer(0), nil
		}
		return integer(v.Array.Len()), nil
	}
	return value{}, fmt.Errorf("unknown function %s()", c.Name)
}
