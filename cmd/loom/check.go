package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/loom/pkg/check"
)

var (
	checkTemplates string
	checkExt       string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Statically validate the project's hypermedia surface",
	Long: `check scans the template tree for htmx attributes and reports
problems: requests no route would serve, malformed target selectors,
unknown swap strategies, out-of-band swaps without an id, and
duplicate element ids.

Requests are cross-referenced against the routes table in loom.yaml:

  routes:
    - {method: GET, pattern: /contacts/{id:int}}
    - {method: POST, pattern: /contacts}

Without a routes table only template-local checks run. The exit code
is non-zero when any error-severity finding is reported, so check can
gate CI.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkTemplates, "templates", "", "template directory (overrides loom.yaml)")
	checkCmd.Flags().StringVar(&checkExt, "ext", ".html", "template file extension")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	dir := cfg.Templates
	if checkTemplates != "" {
		dir = checkTemplates
	}
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("template directory %q: %w", dir, err)
	}

	opts := []check.Option{check.WithExtension(checkExt)}
	if len(cfg.Routes) > 0 {
		routes := make([]check.Route, len(cfg.Routes))
		for i, r := range cfg.Routes {
			routes[i] = check.Route{Method: strings.ToUpper(r.Method), Pattern: r.Pattern}
		}
		opts = append(opts, check.WithRoutes(routes))
	}

	report, err := check.Scan(os.DirFS(dir), opts...)
	if err != nil {
		return err
	}

	var errs, warns int
	for _, f := range report.Findings {
		fmt.Println(f)
		switch f.Severity {
		case check.SeverityError:
			errs++
		case check.SeverityWarning:
			warns++
		}
	}

	if report.HasErrors() {
		return fmt.Errorf("%d errors, %d warnings", errs, warns)
	}
	if len(report.Findings) == 0 {
		fmt.Println("no findings")
	} else {
		fmt.Printf("%d warnings, no errors\n", warns)
	}
	return nil
}
