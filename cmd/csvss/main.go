// Command csvss sanitizes HTML note columns in CSV files and builds
// static, script-free heatmap reports from them.
//
// Usage:
//
//	csvss sanitize -in data/data.csv -out data/data.sanitized.csv [-col note_html] [-inplace]
//	csvss report   -spec data/spec.csv -data data/data.csv -out report.html
//	csvss audit    -in report.html
//
// Settings come from the environment (see internal/config), optionally a
// .env file, and are overlaid by flags.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/robertej19/csvss"
	"github.com/robertej19/csvss/internal/audit"
	"github.com/robertej19/csvss/internal/config"
	"github.com/robertej19/csvss/internal/notes"
	"github.com/robertej19/csvss/internal/report"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	policy, err := buildPolicy(cfg)
	if err != nil {
		logger.Error("invalid policy", slog.Any("err", err))
		os.Exit(2)
	}

	switch os.Args[1] {
	case "sanitize":
		err = runSanitize(cfg, policy, logger, os.Args[2:])
	case "report":
		err = runReport(policy, logger, os.Args[2:])
	case "audit":
		err = runAudit(logger, os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("command failed", slog.String("cmd", os.Args[1]), slog.Any("err", err))
		os.Exit(1)
	}
}

func buildPolicy(cfg config.Config) (*csvss.Policy, error) {
	pc := csvss.DefaultPolicyConfig()
	pc.MaxInputBytes = cfg.MaxNoteBytes
	return csvss.NewPolicy(pc)
}

func runSanitize(cfg config.Config, policy *csvss.Policy, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("sanitize", flag.ExitOnError)
	in := fs.String("in", "data/data.csv", "input CSV")
	out := fs.String("out", "data/data.sanitized.csv", "output CSV")
	col := fs.String("col", cfg.NoteColumn, "HTML column to sanitize")
	inplace := fs.Bool("inplace", false, "overwrite the input file")
	workers := fs.Int("workers", cfg.Workers, "concurrent rows (0 = one per CPU)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inplace {
		*out = *in
	}

	b := &notes.Batch{Policy: policy, Column: *col, Workers: *workers}
	stats, err := b.RunFile(context.Background(), *in, *out)
	if err != nil {
		return err
	}
	logger.Info("sanitized",
		slog.String("in", *in),
		slog.String("out", *out),
		slog.Int("rows", stats.RowsTotal),
		slog.Int("changed", stats.RowsChanged),
		slog.Int("chars_before", stats.CharsBefore),
		slog.Int("chars_after", stats.CharsAfter))
	return nil
}

func runReport(policy *csvss.Policy, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	specPath := fs.String("spec", "data/spec.csv", "sectioned spec CSV")
	dataPath := fs.String("data", "data/data.csv", "data CSV")
	outPath := fs.String("out", "report.html", "output HTML file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	specFile, err := os.Open(*specPath)
	if err != nil {
		return err
	}
	spec, err := report.ReadSpec(specFile)
	specFile.Close()
	if err != nil {
		return err
	}

	dataFile, err := os.Open(*dataPath)
	if err != nil {
		return err
	}
	cells, err := report.ReadData(dataFile, spec)
	dataFile.Close()
	if err != nil {
		return err
	}

	out, err := os.Create(*outPath)
	if err != nil {
		return err
	}
	b := &report.Builder{Policy: policy, Log: logger}
	if err := b.Build(out, spec, cells); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	logger.Info("report written", slog.String("out", *outPath))
	return nil
}

func runAudit(logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	in := fs.String("in", "report.html", "HTML file to audit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := os.Open(*in)
	if err != nil {
		return err
	}
	defer f.Close()

	findings, err := audit.Scan(f)
	if err != nil {
		return err
	}
	for _, finding := range findings {
		logger.Warn("finding", slog.String("detail", finding.String()))
	}
	if len(findings) > 0 {
		return fmt.Errorf("audit: %d finding(s) in %s", len(findings), *in)
	}
	logger.Info("audit clean", slog.String("in", *in))
	return nil
}

func usage() {
	fmt.Fprint(os.Stderr, `csvss — sanitize CSV note HTML and build static reports

commands:
  sanitize   sanitize one HTML column of a CSV file
  report     build a heatmap report from spec + data CSVs
  audit      check a produced HTML page for unsafe content

run "csvss <command> -h" for flags.
`)
}
