// Command fpserver serves template extraction over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/cobra"

	"github.com/high-horse/fpextract"
	"github.com/high-horse/fpextract/config"
	"github.com/high-horse/fpextract/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		addr       string
		configPath string
		logFile    string
		bodyLimit  int
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:           "fpserver",
		Short:         "Serve fingerprint template extraction over HTTP",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			l, err := logging.New("fpserver ", logging.Options{File: logFile, Verbose: verbose})
			if err != nil {
				return err
			}
			defer l.Close()

			cfg := config.Default()
			if configPath != "" {
				if cfg, err = config.Load(configPath); err != nil {
					return err
				}
			}

			app, err := newApp(cfg, l, bodyLimit)
			if err != nil {
				return err
			}
			l.Println("Server starting on", addr)
			return app.Listen(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":9090", "listen address")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML or YAML configuration file")
	cmd.Flags().StringVar(&logFile, "log-file", "", "also log to this file, rotated daily")
	cmd.Flags().IntVar(&bodyLimit, "body-limit", 16<<20, "maximum request body in bytes")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every extraction")
	return cmd
}

func newApp(cfg *config.Config, l *logging.Logger, bodyLimit int) (*fiber.App, error) {
	extractor, err := fpextract.NewExtractor(cfg, nil)
	if err != nil {
		return nil, err
	}
	s := &server{extractor: extractor, log: l}

	app := fiber.New(fiber.Config{
		ErrorHandler:          s.errorHandler,
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
	})

	app.Use(logger.New(logger.Config{Output: l.Writer()}))
	app.Use(cors.New())

	app.Get("/health", s.health)
	app.Post("/extract", s.extract)
	return app, nil
}
