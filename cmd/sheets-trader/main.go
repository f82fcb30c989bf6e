package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/feltham/sheets-trader/commands"
)

type command interface {
	Name() string
	Description() string
	Usage() string
	Help()
	FlagSet() *flag.FlagSet
	Execute(args ...interface{}) error
}

var cli = []command{
	&commands.RunCmd,
	&commands.CheckCmd,
	&commands.GetCmd,
	&commands.PutCmd,
	&commands.VersionCmd,
}

var options = commands.Options{
	Debug: false,
}

func main() {
	flag.BoolVar(&options.Debug, "debug", options.Debug, "Enable debugging information")
	flag.Parse()

	args := flag.Args()

	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	if args[0] == "help" {
		help(args[1:])
		return
	}

	for _, cmd := range cli {
		if cmd.Name() == args[0] {
			flagset := cmd.FlagSet()
			if err := flagset.Parse(args[1:]); err != nil {
				fmt.Printf("\nError parsing command line: %v\n\n", err)
				os.Exit(1)
			}

			if err := cmd.Execute(&options); err != nil {
				log.Fatalf("%-5s %v", "FATAL", err)
			}

			return
		}
	}

	fmt.Printf("\nInvalid command '%s'\n\n", args[0])
	usage()
	os.Exit(1)
}

func usage() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] <command> [options]\n", commands.APP)
	fmt.Println()
	fmt.Println("  Commands:")
	fmt.Println()

	for _, cmd := range cli {
		fmt.Printf("    %-9s %s\n", cmd.Name(), cmd.Description())
	}

	fmt.Println("    help      Displays this message, or the help for a specific command")
	fmt.Println()
}

func help(args []string) {
	if len(args) == 0 {
		usage()
		return
	}

	for _, cmd := range cli {
		if cmd.Name() == args[0] {
			cmd.Help()
			return
		}
	}

	fmt.Printf("\nInvalid command '%s'\n\n", args[0])
	usage()
}
