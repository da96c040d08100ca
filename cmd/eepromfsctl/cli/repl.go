package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
)

// runREPL starts an interactive shell over env, grounded on the
// teacher's cmd/sloty REPL: a liner.State prompt loop with persisted
// history, dispatching each line's first word as a command name.
func runREPL(ctx context.Context, env *Env, o *IO) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(prefix string) []string {
		var matches []string
		for _, c := range commands {
			if strings.HasPrefix(c.Name(), prefix) {
				matches = append(matches, c.Name())
			}
		}
		return matches
	})

	historyPath := historyFile()
	if f, err := os.Open(historyPath); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}

	fmt.Fprintf(o.Out, "eepromfsctl - %s\n", env.Path)
	fmt.Fprintln(o.Out, "Type 'help' for available commands, 'exit' to quit.")

	for {
		input, err := line.Prompt("eepromfs> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Fprintln(o.Out, "\nbye")
				break
			}
			return fmt.Errorf("reading input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		fields := strings.Fields(input)
		name, args := fields[0], fields[1:]

		switch name {
		case "exit", "quit", "q":
			fmt.Fprintln(o.Out, "bye")
			saveHistory(line, historyPath)
			return env.Driver.Flush()
		case "help", "?":
			PrintUsage(o.Out)
			continue
		}

		cmd := lookup(name)
		if cmd == nil {
			fmt.Fprintf(o.Err, "unknown command %q\n", name)
			continue
		}
		if err := cmd.Run(ctx, env, o, args); err != nil {
			fmt.Fprintf(o.Err, "error: %v\n", err)
		}
	}

	saveHistory(line, historyPath)
	return env.Driver.Flush()
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".eepromfsctl_history")
}

func saveHistory(line *liner.State, path string) {
	if path == "" {
		return
	}
	if f, err := os.Create(path); err == nil { //nolint:gosec // fixed history file path
		_, _ = line.WriteHistory(f)
		f.Close()
	}
}
