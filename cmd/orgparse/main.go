// This CLI utility runs a command listed below to parse an outline source
// file and dump its syntax tree.
//
// Usage:
//
//	orgparse [command]
//
// Available Commands:
//
//	dump        Parse a file and dump its syntax tree
//
// Flags:
//
//	-h, --help   help for orgparse
//
// Use "orgparse [command] --help" for more information about a command.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"time"

	"github.com/sanity-io/litter"
	"github.com/spf13/cobra"

	"github.com/rasendubi/braindump"
)

func prefix(msg string, err error) error {
	return errors.New(msg + err.Error())
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "orgparse",
		Short: "parse outline source files and dump their syntax tree",
		Long: `This CLI utility runs a command listed below to parse an
outline source file and dump its syntax tree.`,
	}

	var outputfile string
	var debug bool
	var timeout time.Duration
	prefixDump := "(dump) "
	dumpCmd := &cobra.Command{
		Use:   "dump [input] [-o output]",
		Short: "parse a file and dump its syntax tree",
		Long: `This command parses an outline source file and writes its
abstract syntax tree to the output, as indented JSON by default or as a
Go-syntax dump with --debug.

If no input file is specified, input is read from standard input.
Similarly, if no output argument is specified, output is written to
standard output.`,
		Args:                  cobra.MaximumNArgs(1),
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			src := os.Stdin
			var err error
			if len(args) != 0 {
				src, err = os.Open(args[0])
				if err != nil {
					return prefix(prefixDump, err)
				}
			}
			defer src.Close()

			out := os.Stdout
			if len(outputfile) != 0 {
				out, err = os.Create(outputfile)
				if err != nil {
					return prefix(prefixDump, err)
				}
			}
			defer out.Close()

			text, err := io.ReadAll(src)
			if err != nil {
				return prefix(prefixDump, err)
			}

			ctx := context.Background()
			opts := []braindump.Option{}
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
				opts = append(opts, braindump.WithContext(ctx))
			}

			doc, err := braindump.Parse(string(text), opts...)
			if err != nil {
				return prefix(prefixDump, err)
			}

			if debug {
				if _, err := io.WriteString(out, litter.Sdump(doc)); err != nil {
					return prefix(prefixDump, err)
				}
				return nil
			}

			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(doc); err != nil {
				return prefix(prefixDump, err)
			}
			return nil
		},
	}
	dumpCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		if err != nil {
			return prefix(prefixDump, err)
		}
		return nil
	})
	dumpCmd.Flags().StringVarP(&outputfile, "output", "o", "", "``name of the output file")
	dumpCmd.Flags().BoolVar(&debug, "debug", false, "dump the tree as Go syntax instead of JSON")
	dumpCmd.Flags().DurationVar(&timeout, "timeout", 0, "``timeout used to halt parsing for long-running inputs")
	dumpCmd.Flags().Lookup("timeout").DefValue = "0"

	rootCmd.AddCommand(dumpCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
