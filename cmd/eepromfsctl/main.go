// eepromfsctl is a CLI for inspecting and manipulating an eepromfs image
// stored in a regular file, grounded on the teacher's cmd/sloty tool:
// a dispatcher over pflag-defined subcommands, plus an interactive REPL
// mode backed by peterh/liner (SPEC_FULL.md §B).
//
// Usage:
//
//	eepromfsctl <image> <command> [args...]
//	eepromfsctl <image> repl
//
// Commands:
//
//	format [--mode full|quick|wipe]   (Re)initialize the image
//	write <name> <data>               Write data, replacing any existing file
//	append <name> <data>               Append data to an existing (or new) file
//	read <name>                        Print a file's contents
//	delete <name>                      Remove a file
//	dump                               Hex-dump the whole image
//	wipe                               Zero the entire image
//	repl                               Interactive shell over the above
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/CJxD/avr-eeprom-fs/cmd/eepromfsctl/cli"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 3 {
		cli.PrintUsage(os.Stderr)
		return fmt.Errorf("usage: eepromfsctl <image> <command> [args...]")
	}

	imagePath := os.Args[1]
	cmdName := os.Args[2]
	args := os.Args[3:]

	ctx := context.Background()
	return cli.Dispatch(ctx, os.Stdout, os.Stderr, imagePath, cmdName, args)
}
