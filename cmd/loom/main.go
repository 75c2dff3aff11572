// Command loom is the developer tool for loom projects: it scaffolds
// new projects, serves the template tree for markup preview, and
// statically checks the hypermedia surface against the route table.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "loom",
	Short: "Developer tool for loom hypermedia projects",
	Long: `loom is the companion tool for the loom web framework.

  loom new <name>    scaffold a project with templates and config
  loom run           preview the template tree with hot reload
  loom check         validate htmx attributes against the route table

Commands read loom.yaml from the working directory; LOOM_* environment
variables override single values.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "loom:", err)
		os.Exit(1)
	}
}
