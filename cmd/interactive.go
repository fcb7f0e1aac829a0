package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/cjungmann/ate/pkg/interp"
)

var (
	errorColor  = color.New(color.FgRed, color.Bold)
	statusColor = color.New(color.FgYellow)
)

// RunInteractive reads commands from a prompt until exit, quit or EOF.
// A line that opens a function body keeps reading until the body closes.
func RunInteractive(in *interp.Interp) error {
	fmt.Println("Interactive mode enabled. Type 'help' for commands, 'exit' or 'quit' to leave.")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "ate> ",
		HistoryFile:     settings.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	var (
		pending strings.Builder
		depth   int
	)
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 && pending.Len() == 0 {
				break
			}
			pending.Reset()
			depth = 0
			rl.SetPrompt("ate> ")
			continue
		} else if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		if pending.Len() > 0 {
			pending.WriteByte('\n')
		} else if trimmed := strings.TrimSpace(line); trimmed == "" {
			continue
		} else if strings.EqualFold(trimmed, "quit") {
			break
		}
		pending.WriteString(line)
		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if depth > 0 {
			rl.SetPrompt("...> ")
			continue
		}

		cmdline := pending.String()
		pending.Reset()
		depth = 0
		rl.SetPrompt("ate> ")

		if err := in.Exec(cmdline); err != nil {
			var exit *interp.ExitError
			if errors.As(err, &exit) {
				if exit.Code == 0 {
					return nil
				}
				return err
			}
			errorColor.Fprintf(os.Stderr, "Error: %v\n", err)
			statusColor.Fprintf(os.Stderr, "status %d\n", in.Status())
		}
	}
	return nil
}
