package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
)

type command struct {
	summary string
	run     func(ctx context.Context, args []string) error
}

var commands = map[string]command{
	"import":  {summary: "download model documents listed in the model list", run: runImport},
	"list":    {summary: "list compiled nodes", run: runList},
	"inspect": {summary: "print the compiled binding of one node as JSON", run: runInspect},
	"lint":    {summary: "validate model documents", run: runLint},
	"catalog": {summary: "render the node catalog as markdown or html", run: runCatalog},
	"run":     {summary: "invoke a node", run: runNode},
	"serve":   {summary: "serve the node HTTP API", run: runServe},
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("nodegen: ")

	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	name := flag.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.run(ctx, flag.Args()[1:]); err != nil {
		if err == errLintFailed {
			os.Exit(1)
		}
		log.Fatalf("%s: %v", name, err)
	}
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: %s <command> [flags]\n\nCommands:\n", filepath.Base(os.Args[0]))
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-8s %s\n", name, commands[name].summary)
	}
	fmt.Fprintf(out, "\nRun '%s <command> -h' for command flags.\n", filepath.Base(os.Args[0]))
}
