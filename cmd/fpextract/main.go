// Command fpextract prints the Base64 template of a fingerprint image.
//
//	fpextract <image> [dpi]
package main

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/high-horse/fpextract"
	"github.com/high-horse/fpextract/config"
	"github.com/high-horse/fpextract/fault"
	"github.com/high-horse/fpextract/internal/logging"
	"github.com/high-horse/fpextract/template"
	"github.com/high-horse/fpextract/transparency"
)

func main() {
	cmd := newRootCmd(os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

type flags struct {
	config       string
	format       string
	transparency string
	logFile      string
	verbose      bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "fpextract <image> [dpi]",
		Short:         "Extract a fingerprint minutiae template",
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, args []string) error {
			return run(stdout, stderr, f, args)
		},
	}

	cmd.Flags().StringVarP(&f.config, "config", "c", "", "TOML or YAML configuration file")
	cmd.Flags().StringVarP(&f.format, "format", "f", "binary", "template format: binary or cbor")
	cmd.Flags().StringVar(&f.transparency, "transparency", "", "write intermediate results to this directory")
	cmd.Flags().StringVar(&f.logFile, "log-file", "", "also log to this file, rotated daily")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "log stage details")
	return cmd
}

func run(stdout, stderr io.Writer, f flags, args []string) error {
	logger, err := logging.NewWithWriter(stderr, "fpextract ", logging.Options{File: f.logFile, Verbose: f.verbose})
	if err != nil {
		return err
	}
	defer logger.Close()

	cfg := config.Default()
	if f.config != "" {
		if cfg, err = config.Load(f.config); err != nil {
			return err
		}
		logger.Debugf("loaded %s", f.config)
	}

	format, err := template.ParseFormat(f.format)
	if err != nil {
		return err
	}

	opts := fpextract.ImageOptions{}
	if len(args) == 2 {
		dpi, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fault.Invalid(fault.StageConfig, "dpi %q is not a number", args[1])
		}
		opts = opts.WithDPI(dpi)
	}

	var sink transparency.Logger = transparency.Discard
	if f.transparency != "" {
		if sink, err = transparency.NewDir(f.transparency); err != nil {
			return err
		}
	}

	extractor, err := fpextract.NewExtractor(cfg, sink)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrapf(err, "read %s", args[0])
	}
	logger.Debugf("read %d bytes from %s", len(data), args[0])

	b, err := extractor.ExtractFormat(data, opts, format)
	if err != nil {
		return err
	}
	logger.Debugf("%s template is %d bytes", format, len(b))

	_, err = fmt.Fprintln(stdout, base64.StdEncoding.EncodeToString(b))
	return err
}
