package commands

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
)

const APP = "sheets-trader"
const VERSION = "v0.1.0"

// Options are the 'global' flags shared by all commands.
type Options struct {
	Debug bool
}

// command holds the Google Sheets configuration common to all commands. The
// defaults come from the environment so that the flagless cron invocation
// works - the flags exist for running commands by hand.
type command struct {
	credentials     string
	credentialsJSON string
	url             string
	id              string
	name            string
	worksheet       string
	debug           bool
}

func (c *command) flagset(name string) *flag.FlagSet {
	flagset := flag.NewFlagSet(name, flag.ExitOnError)

	flagset.StringVar(&c.credentials, "credentials", c.credentials, "Path for the service account 'credentials.json' file")
	flagset.StringVar(&c.url, "url", c.url, "Spreadsheet URL")
	flagset.StringVar(&c.id, "id", c.id, "Spreadsheet ID. Defaults to the SHEET_ID environment variable")
	flagset.StringVar(&c.name, "name", c.name, "Spreadsheet name, used when neither --url nor --id is set. Defaults to the SHEET_NAME environment variable")
	flagset.StringVar(&c.worksheet, "worksheet", c.worksheet, "Worksheet title. Defaults to the WORKSHEET_NAME environment variable")

	return flagset
}

func helpOptions(flagset *flag.FlagSet) {
	flagset.VisitAll(func(f *flag.Flag) {
		fmt.Printf("    --%-13s %s\n", f.Name, f.Usage)
	})

	fmt.Println()
	fmt.Println("  Options:")
	fmt.Println()
	fmt.Println("    --debug   Displays internal information for diagnosing errors")
}

func envvar(name string, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}

	return fallback
}

func normalise(v string) string {
	return strings.ToLower(strings.ReplaceAll(v, " ", ""))
}

func debugf(format string, args ...any) {
	log.Printf("%-5s %s", "DEBUG", fmt.Sprintf(format, args...))
}

func infof(format string, args ...any) {
	log.Printf("%-5s %s", "INFO", fmt.Sprintf(format, args...))
}

func warnf(format string, args ...any) {
	log.Printf("%-5s %s", "WARN", fmt.Sprintf(format, args...))
}
