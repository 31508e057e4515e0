package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/tos-network/abiderive"
)

func main() {
	os.Exit(mainAux(os.Args[1:]))
}

func mainAux(args []string) int {
	if handled, code := dispatchSubcommand(args); handled {
		return code
	}
	if len(args) == 0 {
		printRootUsage()
		return 1
	}
	fmt.Printf("unknown subcommand %q\n", args[0])
	printRootUsage()
	return 1
}

// newLogger returns a development logger for --verbose and a no-op otherwise.
func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return zap.NewNop()
	}
	abiderive.SetLogger(l)
	return l
}
