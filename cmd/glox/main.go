// Command glox is the command-line front end for the glox virtual machine:
// run a script, disassemble its compiled bytecode, or drop into an
// interactive REPL. cobra and pflag cover flag parsing and subcommand
// dispatch, and chzyer/readline gives the REPL line editing and history.
package main

import (
	"fmt"
	"os"

	"github.com/chzyer/readline"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/glox-lang/glox/pkg/bytecode"
	"github.com/glox-lang/glox/pkg/compiler"
	"github.com/glox-lang/glox/pkg/vm"
)

// Exit codes mirror the three-way InterpretResult, the same convention
// clox's own main() uses.
const (
	exitOK           = 0
	exitCompileError = 65
	exitRuntimeError = 70
)

var log = logrus.New()

func main() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	root := &cobra.Command{
		Use:           "glox",
		Short:         "glox runs and inspects programs for a small class-based scripting language",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var trace, stressGC bool
	root.PersistentFlags().BoolVar(&trace, "trace", false, "print each instruction and the stack before executing it")
	root.PersistentFlags().BoolVar(&stressGC, "stress-gc", false, "run a collection before every allocation")
	var verbose bool
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log VM lifecycle events to stderr")

	root.AddCommand(
		runCmd(&trace, &stressGC, &verbose),
		replCmd(&trace, &stressGC, &verbose),
		disassembleCmd(),
		versionCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCompileError)
	}
}

func newVM(trace, stressGC, verbose bool) *vm.VM {
	v := vm.New()
	v.Trace = trace
	v.StressGC = stressGC
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
	return v
}

func runCmd(trace, stressGC, verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "run <file>",
		Short: "Compile and run a glox source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			os.Exit(runFile(args[0], *trace, *stressGC, *verbose))
			return nil
		},
	}
}

func runFile(path string, trace, stressGC, verbose bool) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "glox: %v\n", err)
		return exitCompileError
	}

	v := newVM(trace, stressGC, verbose)
	log.WithField("file", path).Debug("compiling")

	fn, cerr := compiler.Compile(string(source), v)
	if cerr != nil {
		fmt.Fprintln(os.Stderr, cerr)
		return exitCompileError
	}

	log.WithField("file", path).Debug("running")
	if result := v.Interpret(fn); result == vm.InterpretRuntimeError {
		fmt.Fprintln(os.Stderr, v.LastError())
		return exitRuntimeError
	}
	return exitOK
}

func disassembleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disassemble <file>",
		Short: "Compile a glox source file and print its bytecode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			v := vm.New()
			fn, cerr := compiler.Compile(string(source), v)
			if cerr != nil {
				fmt.Fprintln(os.Stderr, cerr)
				os.Exit(exitCompileError)
			}
			disassembleFunction(fn, args[0])
			return nil
		},
	}
}

// disassembleFunction walks a compiled function and its nested function
// constants recursively, matching clox's disassembleChunk-of-everything
// debug output.
func disassembleFunction(fn *bytecode.ObjFunction, label string) {
	name := label
	if fn.Name != nil {
		name = fn.Name.Chars
	}
	bytecode.Disassemble(os.Stdout, fn.Chunk, name)
	for _, c := range fn.Chunk.Constants {
		if c.IsObjType(bytecode.ObjTypeFunction) {
			disassembleFunction(c.Obj.(*bytecode.ObjFunction), "")
		}
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the glox version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("glox " + Version)
		},
	}
}

// Version is the glox release identifier, overridable at build time with
// -ldflags "-X main.Version=...".
var Version = "0.1.0"

func replCmd(trace, stressGC, verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive glox session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(*trace, *stressGC, *verbose)
		},
	}
}

// runREPL hosts an interactive session against one long-lived VM so
// globals persist across lines; readline supplies history and line
// editing.
func runREPL(trace, stressGC, verbose bool) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "glox> ",
		HistoryFile:     "",
		InterruptPrompt: "^C",
		EOFPrompt:       "",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	v := newVM(trace, stressGC, verbose)
	fmt.Printf("glox %s\n", Version)

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil {
			return nil
		}
		if line == "" {
			continue
		}

		fn, cerr := compiler.Compile(line, v)
		if cerr != nil {
			fmt.Fprintln(os.Stderr, cerr)
			continue
		}
		if result := v.Interpret(fn); result == vm.InterpretRuntimeError {
			fmt.Fprintln(os.Stderr, v.LastError())
		}
	}
}
