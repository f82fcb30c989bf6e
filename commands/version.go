package commands

import (
	"flag"
	"fmt"
)

// VersionCmd is an initialized Version command for the main() command list
var VersionCmd = Version{}

// Version is a CLI command implementation that displays the CLI version information.
type Version struct {
}

func (cmd *Version) FlagSet() *flag.FlagSet {
	return flag.NewFlagSet("version", flag.ExitOnError)
}

// Execute prints the current 'sheets-trader' version
func (cmd *Version) Execute(...interface{}) error {
	fmt.Printf("%s\n", VERSION)

	return nil
}

// Returns 'version'
func (cmd *Version) Name() string {
	return "version"
}

// Description returns the 'version' command short form help
func (cmd *Version) Description() string {
	return "Displays the current version"
}

// Usage returns the string describing the additional options for the 'version' command
func (cmd *Version) Usage() string {
	return ""
}

// Help returns the 'version' command long form help
func (cmd *Version) Help() {
	fmt.Printf("Displays the %s version in the format v<major>.<minor>.<build> e.g. v1.00.10\n", APP)
	fmt.Println()
}
