package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var newMinimal bool

var newCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Scaffold a new loom project",
	Long: `new creates <name>/ with a loom.yaml, a main.go wired to the
framework, an htmlview template tree, and a static directory.

With --minimal only the config, main.go, and a single page are
generated.

After scaffolding:

  cd <name>
  go mod tidy
  go run .`,
	Args: cobra.ExactArgs(1),
	RunE: runNew,
}

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().BoolVar(&newMinimal, "minimal", false, "skip example styles and static assets")
}

func runNew(cmd *cobra.Command, args []string) error {
	name := args[0]
	if err := os.Mkdir(name, 0o755); err != nil {
		return fmt.Errorf("create project directory: %w", err)
	}

	cfg := defaultConfig()
	cfg.Name = name
	cfg.Debug = true
	cfg.Routes = []RouteEntry{{Method: "GET", Pattern: "/"}}
	if newMinimal {
		cfg.Static = ""
	}
	if err := cfg.write(name); err != nil {
		return err
	}

	files := scaffoldFiles(name, newMinimal)
	for path, content := range files {
		full := filepath.Join(name, path)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", filepath.Dir(full), err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", full, err)
		}
	}

	fmt.Printf("Created %s with %d files.\n\n", name, len(files)+1)
	fmt.Printf("Next steps:\n  cd %s\n  go mod tidy\n  go run .\n", name)
	return nil
}
