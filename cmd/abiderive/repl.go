package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/tos-network/abiderive/derive/signature"
)

var errQuit = errors.New("quit")

func cmdRepl(args []string) int {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: abiderive repl")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}
	rl, err := readline.New("abi> ")
	if err != nil {
		fmt.Println(err.Error())
		return 1
	}
	defer rl.Close()
	doREPL(rl)
	return 0
}

func doREPL(rl *readline.Instance) {
	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or readline.ErrInterrupt
			return
		}
		out, err := evalLine(line)
		if err == errQuit {
			return
		}
		if err != nil {
			fmt.Println(err)
			continue
		}
		if out != "" {
			fmt.Println(out)
		}
	}
}

// evalLine handles one REPL input: a method signature, "event <signature>"
// for a topic, or "quit".
func evalLine(line string) (string, error) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return "", nil
	case line == "quit" || line == "exit":
		return "", errQuit
	case strings.HasPrefix(line, "event "):
		canonical, err := signature.ParseSignature(strings.TrimPrefix(line, "event "))
		if err != nil {
			return "", err
		}
		topic := signature.Topic(canonical)
		return "0x" + hex.EncodeToString(topic[:]) + "  " + canonical, nil
	default:
		return selectorLine(line)
	}
}
