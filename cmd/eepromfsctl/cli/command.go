// Package cli implements eepromfsctl's subcommand dispatch, grounded on
// the teacher's internal/cli package: a small Command type pairing a
// pflag.FlagSet with an Exec function, dispatched by name from main.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/CJxD/avr-eeprom-fs/pkg/eepromfs"
	"github.com/CJxD/avr-eeprom-fs/pkg/eepromfs/filedriver"
)

// IO bundles a command's output streams.
type IO struct {
	Out io.Writer
	Err io.Writer
}

func (o *IO) Printf(format string, a ...any)    { fmt.Fprintf(o.Out, format, a...) }
func (o *IO) Println(a ...any)                  { fmt.Fprintln(o.Out, a...) }
func (o *IO) ErrPrintf(format string, a ...any) { fmt.Fprintf(o.Err, format, a...) }

// Env carries the open image that every subcommand operates against.
type Env struct {
	Path   string
	Cfg    eepromfs.Config
	Driver *filedriver.Driver
	FS     *eepromfs.FS
}

// Command defines a CLI subcommand, mirroring the teacher's
// internal/cli.Command shape.
type Command struct {
	Flags *flag.FlagSet
	Usage string
	Short string
	Exec  func(ctx context.Context, env *Env, o *IO, args []string) error
}

func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

// Run parses args against c.Flags and runs Exec against env.
func (c *Command) Run(ctx context.Context, env *Env, o *IO, args []string) error {
	c.Flags.SetOutput(&strings.Builder{})

	if err := c.Flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			o.Println("Usage:", c.Usage)
			return nil
		}
		return err
	}

	return c.Exec(ctx, env, o, c.Flags.Args())
}

// commands is the registry of known subcommands, populated by the
// init-time registrations in commands.go.
var commands []*Command

func register(c *Command) { commands = append(commands, c) }

func lookup(name string) *Command {
	for _, c := range commands {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// PrintUsage prints the top-level usage summary to w.
func PrintUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: eepromfsctl <image> <command> [args...]")
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", c.Name(), c.Short)
	}
	fmt.Fprintln(w, "  repl       Interactive shell")
}

// Dispatch opens imagePath (creating it if absent, using the default
// configuration unless a .json sibling config exists) and runs the named
// command, or starts a REPL if cmdName is "repl".
func Dispatch(ctx context.Context, out, errOut io.Writer, imagePath, cmdName string, args []string) error {
	env, err := openEnv(imagePath)
	if err != nil {
		return err
	}
	defer func() { _ = env.Driver.Close() }()

	o := &IO{Out: out, Err: errOut}

	if cmdName == "repl" {
		return runREPL(ctx, env, o)
	}

	cmd := lookup(cmdName)
	if cmd == nil {
		return fmt.Errorf("unknown command %q", cmdName)
	}

	if err := cmd.Run(ctx, env, o, args); err != nil {
		return err
	}

	return env.Driver.Flush()
}

func openEnv(imagePath string) (*Env, error) {
	cfg := eepromfs.DefaultConfig()
	if loaded, err := eepromfs.LoadConfig(imagePath + ".json"); err == nil {
		cfg = loaded
	}

	drv, err := filedriver.Open(imagePath, cfg.FSSize)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}

	fs := eepromfs.New(cfg, drv, nil)
	if err := fs.Init(context.Background()); err != nil {
		return nil, fmt.Errorf("initializing filesystem: %w", err)
	}

	return &Env{Path: imagePath, Cfg: cfg, Driver: drv, FS: fs}, nil
}
