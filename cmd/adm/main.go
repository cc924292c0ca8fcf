package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/adminkit/internal/app"
	"github.com/alfredjeanlab/adminkit/internal/config"
	"github.com/alfredjeanlab/adminkit/internal/events"
	"github.com/alfredjeanlab/adminkit/internal/query"
	"github.com/alfredjeanlab/adminkit/internal/rest"
	"github.com/alfredjeanlab/adminkit/internal/schema"
	"github.com/alfredjeanlab/adminkit/internal/ui"
)

var (
	apiURL     string
	schemaPath string
	jsonOutput bool
	verbose    bool

	cfg         *config.Config
	logger      *slog.Logger
	application *app.Application
	reader      *query.Reader
	writer      *query.Writer
	publisher   events.Publisher
)

// loadConfig reads the environment, then applies the active remote and the
// command line flags on top of it.
func loadConfig() (*config.Config, error) {
	c, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	if r, ok := activeRemote(); ok {
		if c.APIURL == "" {
			c.APIURL = r.URL
		}
		if os.Getenv("ADMIN_SCHEMA") == "" && r.Schema != "" {
			c.Schema = r.Schema
		}
		if c.NATSURL == "" {
			c.NATSURL = r.NATSURL
		}
	}
	if apiURL != "" {
		c.APIURL = apiURL
	}
	if schemaPath != "" {
		c.Schema = schemaPath
	}
	if verbose {
		c.LogLevel = slog.LevelDebug
	}
	return c, nil
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// setup loads the configuration and schema and wires the REST reader and
// writer used by the entry commands.
func setup(cmd *cobra.Command, args []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c
	logger = newLogger(c.LogLevel)
	if !ui.ShouldUseColor() {
		ui.ForceNoColor()
	}

	s, err := schema.Load(c.Schema)
	if err != nil {
		return fmt.Errorf("loading schema: %w", err)
	}
	application, err = schema.Build(s)
	if err != nil {
		return err
	}

	publisher = &events.NoopPublisher{}
	if c.NATSURL != "" {
		p, err := events.NewNATSPublisher(c.NATSURL)
		if err != nil {
			logger.Warn("event publishing disabled", "nats_url", c.NATSURL, "err", err)
		} else {
			publisher = p
		}
	}

	transport := rest.NewHTTPClient(c.APIURL, &http.Client{Timeout: c.Timeout}, logger)
	reader = query.NewReader(application, transport, logger, c.Concurrency)
	writer = query.NewWriter(application, transport, publisher, logger, c.Concurrency)
	return nil
}

func teardown(cmd *cobra.Command, args []string) {
	if publisher != nil {
		publisher.Close()
	}
}

var rootCmd = &cobra.Command{
	Use:               "adm <command>",
	Short:             "Administer a REST API described by an admin schema",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: teardown,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "REST API base URL (overrides ADMIN_API_URL)")
	rootCmd.PersistentFlags().StringVar(&schemaPath, "schema", "", "schema file (overrides ADMIN_SCHEMA)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log REST requests")

	rootCmd.AddGroup(
		&cobra.Group{ID: "entries", Title: "Entries:"},
		&cobra.Group{ID: "data", Title: "Data:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Entries
	rootCmd.AddCommand(entitiesCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)

	// Data
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(snapshotsCmd)
	rootCmd.AddCommand(watchCmd)

	// System
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
