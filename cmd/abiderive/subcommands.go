package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/tos-network/abiderive"
	"github.com/tos-network/abiderive/derive/manifest"
	"github.com/tos-network/abiderive/derive/signature"
)

func dispatchSubcommand(args []string) (bool, int) {
	if len(args) == 0 {
		return false, 0
	}
	switch args[0] {
	case "compile":
		return true, cmdCompile(args[1:])
	case "selector":
		return true, cmdSelector(args[1:])
	case "inspect":
		return true, cmdInspect(args[1:])
	case "repl":
		return true, cmdRepl(args[1:])
	case "--version", "version":
		fmt.Println(abiderive.PackageCopyRight)
		return true, 0
	case "--help", "-h", "help":
		printRootUsage()
		return true, 0
	default:
		return false, 0
	}
}

func printRootUsage() {
	fmt.Print(`Usage:
  abiderive <subcommand> [flags] <inputs...>

Subcommands:
  compile   compile an interface description and write its JSON manifest
  selector  print the selectors of method signatures
  inspect   print the annotated interface model of a description
  repl      compute selectors and event topics interactively

Global:
  --version print version
  --help    print this help
`)
}

func cmdCompile(args []string) int {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var targetDir, endpoint, clientName string
	var dump, noManifest, verbose bool
	fs.StringVar(&targetDir, "target-dir", "", "build output directory (default $"+abiderive.TargetDirEnv+" or "+abiderive.DefaultTargetDir+")")
	fs.StringVar(&endpoint, "endpoint", abiderive.DefaultEndpoint, "dispatcher endpoint name")
	fs.StringVar(&clientName, "client", "", "client name; empty disables the client")
	fs.BoolVar(&dump, "dump", false, "print the annotated interface model")
	fs.BoolVar(&noManifest, "no-manifest", false, "do not write the JSON manifest")
	fs.BoolVar(&verbose, "verbose", false, "log compilation details")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: abiderive compile [--target-dir <dir>] [--endpoint <name>] [--client <name>] [options] <description.yaml>")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "compile requires exactly one description file")
		fs.Usage()
		return 1
	}

	if strings.TrimSpace(targetDir) == "" {
		targetDir = abiderive.TargetDirFromEnv()
	}
	log := newLogger(verbose)
	defer func() { _ = log.Sync() }()

	opts := abiderive.Options{
		Endpoint: endpoint,
		Client:   clientName,
		Logger:   log,
	}
	if !noManifest {
		opts.Manifest = manifest.DirSink{TargetDir: targetDir}
	}
	a, err := abiderive.CompileFile(fs.Arg(0), opts)
	if err != nil {
		fmt.Println(err.Error())
		return 1
	}
	if dump {
		fmt.Print(a.Interface.String())
	}
	if a.ManifestPath != "" {
		fmt.Println(a.ManifestPath)
	}
	return 0
}

func cmdSelector(args []string) int {
	fs := flag.NewFlagSet("selector", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: abiderive selector <signature>...   e.g. "transfer(address,u256)"`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 1
	}
	status := 0
	for _, text := range fs.Args() {
		line, err := selectorLine(text)
		if err != nil {
			fmt.Println(err.Error())
			status = 1
			continue
		}
		fmt.Println(line)
	}
	return status
}

func selectorLine(text string) (string, error) {
	canonical, err := signature.ParseSignature(text)
	if err != nil {
		return "", err
	}
	return signature.SelectorHex(signature.Selector(canonical)) + "  " + canonical, nil
}

func cmdInspect(args []string) int {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var asJSON bool
	fs.BoolVar(&asJSON, "json", false, "print the manifest as JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: abiderive inspect [--json] <description.yaml>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "inspect requires exactly one description file")
		fs.Usage()
		return 1
	}

	a, err := abiderive.CompileFile(fs.Arg(0), abiderive.Options{Endpoint: abiderive.DefaultEndpoint})
	if err != nil {
		fmt.Println(err.Error())
		return 1
	}
	if asJSON {
		b, err := json.MarshalIndent(a.Manifest, "", "  ")
		if err != nil {
			fmt.Println(err.Error())
			return 1
		}
		fmt.Println(string(b))
		return 0
	}
	fmt.Print(a.Interface.String())
	return 0
}
