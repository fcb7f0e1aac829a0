package interp

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/cjungmann/ate/pkg/shell"
)

var (
	lineLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Comment", Pattern: `#[^\n]*`},
		{Name: "Double", Pattern: `"(\\.|[^"\\])*"`},
		{Name: "Single", Pattern: `'[^']*'`},
		{Name: "Semi", Pattern: `;`},
		{Name: "Word", Pattern: `[^\s"';#][^\s"';]*`},
		{Name: "Whitespace", Pattern: `\s+`},
	})

	tokenTypes = lineLexer.Symbols()

	variableRef = regexp.MustCompile(`\$(\?|[A-Za-z_][A-Za-z0-9_]*|\{[A-Za-z_][A-Za-z0-9_]*(\[[0-9]+\])?\})`)
)

// segment is a piece of a word. Single-quoted text is not expanded.
type segment struct {
	text   string
	expand bool
}

type word []segment

type command []word

// tokenize splits line into commands separated by ';'. Adjacent tokens
// with no space between them form one word.
func tokenize(line string) ([]command, error) {
	lex, err := lineLexer.LexString("", line)
	if err != nil {
		return nil, err
	}
	tokens, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, err
	}

	var (
		cmds []command
		cur  command
		end  = -1
	)
	flush := func() {
		if len(cur) > 0 {
			cmds = append(cmds, cur)
			cur = nil
		}
	}
	for _, t := range tokens {
		if t.EOF() {
			break
		}
		var seg segment
		switch t.Type {
		case tokenTypes["Comment"]:
			flush()
			return cmds, nil
		case tokenTypes["Whitespace"]:
			end = -1
			continue
		case tokenTypes["Semi"]:
			flush()
			end = -1
			continue
		case tokenTypes["Single"]:
			seg = segment{text: t.Value[1 : len(t.Value)-1]}
		case tokenTypes["Double"]:
			seg = segment{text: unescape(t.Value[1 : len(t.Value)-1]), expand: true}
		case tokenTypes["Word"]:
			seg = segment{text: t.Value, expand: true}
		default:
			return nil, fmt.Errorf("unexpected token %q", t.Value)
		}
		if end == t.Pos.Offset && len(cur) > 0 {
			cur[len(cur)-1] = append(cur[len(cur)-1], seg)
		} else {
			cur = append(cur, word{seg})
		}
		end = t.Pos.Offset + len(t.Value)
	}
	flush()
	return cmds, nil
}

func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '"', '\\':
				i++
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			case 't':
				b.WriteByte('\t')
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// expand resolves variable references in the words of cmd.
func (in *Interp) expand(cmd command) []string {
	args := make([]string, len(cmd))
	for i, w := range cmd {
		var b strings.Builder
		for _, seg := range w {
			if !seg.expand {
				b.WriteString(seg.text)
				continue
			}
			b.WriteString(variableRef.ReplaceAllStringFunc(seg.text, in.reference))
		}
		args[i] = b.String()
	}
	return args
}

func (in *Interp) reference(ref string) string {
	name := strings.TrimSuffix(strings.TrimPrefix(ref[1:], "{"), "}")
	if name == "?" {
		return fmt.Sprint(in.status)
	}
	index := -1
	if open := strings.IndexByte(name, '['); open >= 0 {
		fmt.Sscanf(name[open:], "[%d]", &index)
		name = name[:open]
	}
	v, ok := in.env.Lookup(name)
	if !ok {
		return ""
	}
	if index >= 0 {
		if v.Kind != shell.KindArray {
			return ""
		}
		s, _ := v.Array.Get(int64(index))
		return s
	}
	return v.Text()
}
