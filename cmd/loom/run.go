package main

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/loom"
	"github.com/dmitrymomot/loom/pkg/htmlview"
)

var (
	runHost string
	runPort int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Preview the project's template tree",
	Long: `run starts a development server that renders every page under
the template directory at its own URL: pages/index.html at /,
pages/contacts/index.html at /contacts, and so on. Static files are
served under /static, and templates hot-reload on save.

Only templates are rendered; the application's own handlers are not
loaded. Use it to iterate on markup before the Go side is wired.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runHost, "host", "", "listen host (overrides loom.yaml)")
	runCmd.Flags().IntVar(&runPort, "port", 0, "listen port (overrides loom.yaml)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	if runHost != "" {
		cfg.Host = runHost
	}
	if runPort != 0 {
		cfg.Port = runPort
	}

	if _, err := os.Stat(cfg.Templates); err != nil {
		return fmt.Errorf("template directory %q: %w", cfg.Templates, err)
	}

	views := htmlview.New(os.DirFS(cfg.Templates), htmlview.WithReload(cfg.Templates))
	pages, err := views.Pages()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	if len(pages) == 0 {
		return fmt.Errorf("no pages under %s/pages", cfg.Templates)
	}

	app := loom.New(
		loom.WithTemplates(views),
		loom.WithDebug(cfg.Debug),
		loom.WithLogger("preview"),
	)
	for _, name := range pages {
		app.GET(previewRoute(name), func(c loom.Context) (any, error) {
			return loom.Page(name, loom.M{"Title": cfg.Name}), nil
		})
	}
	if cfg.Static != "" {
		if _, err := os.Stat(cfg.Static); err == nil {
			app.Static("/static", os.DirFS("."), cfg.Static)
		}
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	fmt.Printf("Previewing %d pages on http://%s\n", len(pages), addr)
	return app.Run(addr)
}

// previewRoute maps a page name onto its preview URL. Index pages
// collapse onto their directory, so "contacts/index" serves at
// /contacts and the top-level "index" at /.
func previewRoute(page string) string {
	route := strings.TrimSuffix("/"+page, "/index")
	if route == "" {
		return "/"
	}
	return route
}
