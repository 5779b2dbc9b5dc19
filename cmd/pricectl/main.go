// pricectl prices product batches from the command line.
//
// Usage:
//
//	pricectl price --input products.json [--format table]
//	pricectl demo --format xlsx --output demo.xlsx
//	pricectl competitors seed --dsn user:pass@tcp(localhost:3306)/pricing
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/Lixing-Zhang/dynamic-pricing/internal/app"
	"github.com/Lixing-Zhang/dynamic-pricing/internal/competitor"
	"github.com/Lixing-Zhang/dynamic-pricing/internal/config"
	"github.com/Lixing-Zhang/dynamic-pricing/internal/models"
	"github.com/Lixing-Zhang/dynamic-pricing/internal/report"
	"github.com/Lixing-Zhang/dynamic-pricing/internal/service"
	"github.com/Lixing-Zhang/dynamic-pricing/pkg/logger"
)

// exitPartialFailure is returned when some products in a partial batch failed.
const exitPartialFailure = 2

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "pricectl",
		Usage:   "Run pricing decisions against product batches",
		Version: app.Version,

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "estimator",
				Usage: "Demand estimator (formula, linear, remote)",
			},
			&cli.StringFlag{
				Name:  "model-path",
				Usage: "Linear demand model file",
			},
			&cli.StringFlag{
				Name:  "model-url",
				Usage: "Remote demand model base URL",
			},
			&cli.StringFlag{
				Name:  "competitor-source",
				Usage: "Competitor price source (static, feed, mysql, remote)",
			},
			&cli.StringSliceFlag{
				Name:  "competitor-feed",
				Usage: "Competitor feed file or URL, repeatable",
			},
			&cli.StringFlag{
				Name:  "policy",
				Usage: "Batch failure policy (fail, partial)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Maximum concurrent pricing workers",
			},
		},

		Commands: []*cli.Command{
			priceCommand(),
			demoCommand(),
			competitorsCommand(),
		},
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   report.FormatJSON,
		Usage:   "Output format (json, table, xlsx)",
	}
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Write output to a file instead of stdout",
	}
}

// =============================================================================
// PRICE COMMAND
// =============================================================================

func priceCommand() *cli.Command {
	return &cli.Command{
		Name:  "price",
		Usage: "Price a JSON array of products",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Path to a JSON array of products, - for stdin",
				Required: true,
			},
			formatFlag(),
			outputFlag(),
		},
		Action: runPrice,
	}
}

func runPrice(c *cli.Context) error {
	inputs, err := readInputs(c, c.String("input"))
	if err != nil {
		return err
	}

	a, err := buildApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.Pricing.Process(c.Context, inputs)
	if err != nil {
		return err
	}
	return writeResult(c, result)
}

func readInputs(c *cli.Context, path string) ([]models.ProductInput, error) {
	var r io.Reader = c.App.Reader
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	var inputs []models.ProductInput
	if err := json.NewDecoder(r).Decode(&inputs); err != nil {
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}
	return inputs, nil
}

// =============================================================================
// DEMO COMMAND
// =============================================================================

func demoCommand() *cli.Command {
	return &cli.Command{
		Name:   "demo",
		Usage:  "Price the built-in demo catalog",
		Flags:  []cli.Flag{formatFlag(), outputFlag()},
		Action: runDemo,
	}
}

func runDemo(c *cli.Context) error {
	a, err := buildApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.Products.PriceCatalog(c.Context)
	if err != nil {
		return err
	}
	return writeResult(c, result)
}

// =============================================================================
// COMPETITORS COMMAND
// =============================================================================

func competitorsCommand() *cli.Command {
	return &cli.Command{
		Name:  "competitors",
		Usage: "Inspect and manage competitor prices",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List prices from the configured competitor source",
				Action: runCompetitorsList,
			},
			{
				Name:  "seed",
				Usage: "Upsert competitor prices into MySQL",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "dsn",
						Usage:   "MySQL DSN",
						EnvVars: []string{"COMPETITOR_MYSQL_DSN"},
					},
					&cli.StringFlag{
						Name:  "feed",
						Usage: "CSV feed to load instead of the built-in fixture",
					},
				},
				Action: runCompetitorsSeed,
			},
		},
	}
}

func runCompetitorsList(c *cli.Context) error {
	a, err := buildApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	lister, ok := a.Competitors.(competitor.Lister)
	if !ok {
		return competitor.ErrListUnsupported
	}
	prices, err := lister.List(c.Context)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(prices)
}

func runCompetitorsSeed(c *cli.Context) error {
	dsn := c.String("dsn")
	if dsn == "" {
		return cli.Exit("--dsn or COMPETITOR_MYSQL_DSN is required", 1)
	}

	rows := competitor.DefaultFixture()
	if path := c.String("feed"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open feed: %w", err)
		}
		rows, err = competitor.ParseFeed(f)
		f.Close()
		if err != nil {
			return err
		}
	}

	store, err := competitor.OpenMySQL(dsn)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Upsert(c.Context, rows); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "seeded %d competitor prices\n", len(rows))
	return nil
}

// =============================================================================
// SHARED
// =============================================================================

// buildApp reads configuration from the environment, applies global flag
// overrides, validates the result once and wires the pricing components.
func buildApp(c *cli.Context) (*app.App, error) {
	if err := config.LoadEnvFile(); err != nil {
		return nil, err
	}
	cfg := config.FromEnv()

	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("estimator") {
		cfg.Demand.Estimator = enumFlag(c, "estimator")
	}
	if c.IsSet("model-path") {
		cfg.Demand.ModelPath = c.String("model-path")
	}
	if c.IsSet("model-url") {
		cfg.Demand.URL = c.String("model-url")
	}
	if c.IsSet("competitor-source") {
		cfg.Competitor.Source = enumFlag(c, "competitor-source")
	}
	if c.IsSet("competitor-feed") {
		cfg.Competitor.FeedURLs = c.StringSlice("competitor-feed")
	}
	if c.IsSet("policy") {
		cfg.Pricing.FailurePolicy = enumFlag(c, "policy")
	}
	if c.IsSet("workers") {
		cfg.Pricing.Workers = c.Int("workers")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.NewWithWriter(c.App.ErrWriter, cfg.LogLevel)
	return app.New(c.Context, cfg, log)
}

// enumFlag normalizes a flag holding one of a fixed set of lowercase names.
func enumFlag(c *cli.Context, name string) string {
	return strings.ToLower(strings.TrimSpace(c.String(name)))
}

func writeResult(c *cli.Context, result *service.BatchResult) error {
	w := c.App.Writer
	if path := c.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := report.Write(w, c.String("format"), result.Items); err != nil {
		return err
	}

	if failed := result.Failed(); failed > 0 {
		return cli.Exit(fmt.Sprintf("batch %s: %d of %d products failed", result.BatchID, failed, len(result.Items)), exitPartialFailure)
	}
	return nil
}
