package cli

import (
	"context"
	"fmt"
	"strconv"

	flag "github.com/spf13/pflag"

	"github.com/CJxD/avr-eeprom-fs/pkg/eepromfs"
)

func parseName(arg string) (eepromfs.FileName, error) {
	n, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid file name %q: %w", arg, err)
	}
	return eepromfs.FileName(n), nil
}

func init() {
	formatFlags := flag.NewFlagSet("format", flag.ContinueOnError)
	mode := formatFlags.String("mode", "full", "format mode: full, quick, or wipe")

	register(&Command{
		Flags: formatFlags,
		Usage: "format [--mode full|quick|wipe]",
		Short: "(Re)initialize the image",
		Exec: func(ctx context.Context, env *Env, o *IO, _ []string) error {
			var m eepromfs.FormatMode
			switch *mode {
			case "full":
				m = eepromfs.FormatFull
			case "quick":
				m = eepromfs.FormatQuick
			case "wipe":
				m = eepromfs.FormatWipe
			default:
				return fmt.Errorf("unknown format mode %q", *mode)
			}
			if err := env.FS.Format(ctx, m); err != nil {
				return err
			}
			o.Println("formatted")
			return nil
		},
	})
}

func init() {
	register(&Command{
		Flags: flag.NewFlagSet("write", flag.ContinueOnError),
		Usage: "write <name> <data>",
		Short: "Write data, replacing any existing file",
		Exec: func(ctx context.Context, env *Env, o *IO, args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("usage: write <name> <data>")
			}
			name, err := parseName(args[0])
			if err != nil {
				return err
			}

			h := env.FS.OpenForWrite(name)
			if err := env.FS.Write(ctx, h, []byte(args[1])); err != nil {
				return err
			}
			if err := env.FS.Close(ctx, h); err != nil {
				return err
			}
			o.Printf("wrote %d bytes to file %d\n", h.FileSize, h.Name)
			return nil
		},
	})
}

func init() {
	register(&Command{
		Flags: flag.NewFlagSet("append", flag.ContinueOnError),
		Usage: "append <name> <data>",
		Short: "Append data to an existing (or new) file",
		Exec: func(ctx context.Context, env *Env, o *IO, args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("usage: append <name> <data>")
			}
			name, err := parseName(args[0])
			if err != nil {
				return err
			}

			h := env.FS.OpenForAppend(name)
			if err := env.FS.Write(ctx, h, []byte(args[1])); err != nil {
				return err
			}
			if err := env.FS.Close(ctx, h); err != nil {
				return err
			}
			o.Printf("file %d is now %d bytes\n", h.Name, h.FileSize)
			return nil
		},
	})
}

func init() {
	register(&Command{
		Flags: flag.NewFlagSet("read", flag.ContinueOnError),
		Usage: "read <name>",
		Short: "Print a file's contents",
		Exec: func(ctx context.Context, env *Env, o *IO, args []string) error {
			if len(args) < 1 {
				return fmt.Errorf("usage: read <name>")
			}
			name, err := parseName(args[0])
			if err != nil {
				return err
			}

			h, err := env.FS.OpenForRead(name)
			if err != nil {
				return err
			}

			buf := make([]byte, h.FileSize)
			if err := env.FS.Read(ctx, h, buf); err != nil {
				return err
			}
			o.Printf("%s\n", buf)
			return nil
		},
	})
}

func init() {
	register(&Command{
		Flags: flag.NewFlagSet("delete", flag.ContinueOnError),
		Usage: "delete <name>",
		Short: "Remove a file",
		Exec: func(ctx context.Context, env *Env, o *IO, args []string) error {
			if len(args) < 1 {
				return fmt.Errorf("usage: delete <name>")
			}
			name, err := parseName(args[0])
			if err != nil {
				return err
			}
			if err := env.FS.Delete(ctx, name); err != nil {
				return err
			}
			o.Printf("deleted file %d\n", name)
			return nil
		},
	})
}

func init() {
	register(&Command{
		Flags: flag.NewFlagSet("dump", flag.ContinueOnError),
		Usage: "dump",
		Short: "Hex-dump the whole image",
		Exec: func(ctx context.Context, env *Env, o *IO, _ []string) error {
			return env.FS.Dump(ctx, o.Out)
		},
	})
}

func init() {
	register(&Command{
		Flags: flag.NewFlagSet("wipe", flag.ContinueOnError),
		Usage: "wipe",
		Short: "Zero the entire image",
		Exec: func(ctx context.Context, env *Env, o *IO, _ []string) error {
			if err := env.FS.Wipe(ctx); err != nil {
				return err
			}
			o.Println("wiped")
			return nil
		},
	})
}
