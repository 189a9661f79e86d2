// Command thirdvm hosts the thirdvm embeddable Forth engine as a REPL:
// read lines from a script or stdin, feed them to a VM, and print its
// output, with optional trace logging and a post-run dictionary dump.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/jcorbin/thirdvm"
	"github.com/jcorbin/thirdvm/internal/logio"
	"github.com/jcorbin/thirdvm/internal/panicerr"
	"github.com/spf13/cobra"
)

var (
	traceFlag bool
	dumpFlag  bool
	dictBytes int
)

func main() {
	log := logio.Logger{}
	log.SetOutput(os.Stderr)
	defer func() { os.Exit(log.ExitCode()) }()

	root := &cobra.Command{
		Use:   "thirdvm [script]",
		Short: "run a thirdvm script, or read one interactively from stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(&log, args)
		},
	}
	root.PersistentFlags().BoolVar(&traceFlag, "trace", false, "log one line per executed word")
	root.PersistentFlags().BoolVar(&dumpFlag, "dump", false, "print a dictionary/stack dump after the run")
	root.PersistentFlags().IntVar(&dictBytes, "dict-size", 0, "override the dictionary arena size in bytes")

	dumpCmd := &cobra.Command{
		Use:   "dump [script]",
		Short: "run a script then print a dump, regardless of --dump",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dumpFlag = true
			return runScript(&log, args)
		},
	}
	root.AddCommand(dumpCmd)

	if err := root.Execute(); err != nil {
		log.Errorf("%v", err)
	}
}

func runScript(log *logio.Logger, args []string) error {
	var in *os.File
	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	} else {
		in = os.Stdin
	}

	return panicerr.Recover("thirdvm", func() error {
		var opts []thirdvm.VMOption[struct{}]
		if dictBytes > 0 {
			opts = append(opts, thirdvm.WithDictionarySize[struct{}](dictBytes))
		}
		if traceFlag {
			opts = append(opts, thirdvm.WithLogf[struct{}](log.Leveledf("TRACE")))
		}

		vm, err := thirdvm.New(opts...)
		if err != nil {
			return err
		}

		sc := bufio.NewScanner(in)
		for sc.Scan() {
			vm.Input.SetLine(sc.Text())
			if err := vm.ProcessLine(); err != nil {
				fmt.Fprintln(os.Stdout, string(vm.Output.Bytes()))
				vm.Output.Reset()
				log.Errorf("%v", err)
				continue
			}
			fmt.Fprint(os.Stdout, string(vm.Output.Bytes()))
			vm.Output.Reset()
		}
		if err := sc.Err(); err != nil {
			return err
		}

		if dumpFlag {
			return vm.Dump(os.Stdout)
		}
		return nil
	})
}
