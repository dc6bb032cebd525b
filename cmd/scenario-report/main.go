package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/analysis"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/config"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/exposure"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/reports/export"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/pkg/storage"
)

func main() {
	if err := run(context.Background(), os.Args, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "scenario-report:", err)
		os.Exit(1)
	}
}

type options struct {
	input        string
	industry     string
	scenarios    []string
	format       string
	output       string
	policy       string
	title        string
	organisation string
	logLevel     string
	bucket       string
	region       string
}

func newCommand(stdout io.Writer) *cli.Command {
	var opts options

	return &cli.Command{
		Name:  "scenario-report",
		Usage: "Score an exposure file against climate scenarios and write an ASRS report",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "input",
				Aliases:     []string{"i"},
				Usage:       "Exposure file (.csv or .xlsx)",
				Required:    true,
				Destination: &opts.input,
			},
			&cli.StringFlag{
				Name:        "industry",
				Usage:       "Industry used to pick recommended scenarios",
				Destination: &opts.industry,
			},
			&cli.StringSliceFlag{
				Name:        "scenario",
				Usage:       "Scenario to assess (repeatable); overrides the industry defaults",
				Destination: &opts.scenarios,
			},
			&cli.StringFlag{
				Name:        "format",
				Aliases:     []string{"f"},
				Usage:       "Report format: pdf, xlsx or csv",
				Value:       string(export.FormatPDF),
				Destination: &opts.format,
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "Output path; '-' writes to stdout (default: generated file name)",
				Destination: &opts.output,
			},
			&cli.StringFlag{
				Name:        "policy",
				Usage:       "Invalid row policy: reject_row or reject_upload",
				Sources:     cli.EnvVars("UPLOAD_POLICY"),
				Value:       string(exposure.RejectRow),
				Destination: &opts.policy,
			},
			&cli.StringFlag{
				Name:        "title",
				Usage:       "Report title",
				Value:       config.Default().Report.Title,
				Destination: &opts.title,
			},
			&cli.StringFlag{
				Name:        "organisation",
				Usage:       "Reporting entity shown on the report",
				Sources:     cli.EnvVars("REPORT_ORGANISATION"),
				Destination: &opts.organisation,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "Log level: debug, info, warn, error",
				Sources:     cli.EnvVars("LOG_LEVEL"),
				Value:       "warn",
				Destination: &opts.logLevel,
			},
			&cli.StringFlag{
				Name:        "archive-bucket",
				Usage:       "Also upload the report to this S3 bucket",
				Sources:     cli.EnvVars("REPORT_ARCHIVE_BUCKET"),
				Destination: &opts.bucket,
			},
			&cli.StringFlag{
				Name:        "aws-region",
				Usage:       "AWS region of the archive bucket",
				Sources:     cli.EnvVars("AWS_REGION"),
				Value:       config.Default().Archive.Region,
				Destination: &opts.region,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return generate(ctx, opts, stdout)
		},
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	return newCommand(stdout).Run(ctx, args)
}

func generate(ctx context.Context, opts options, stdout io.Writer) error {
	logger, err := config.LoggingConfig{Level: opts.logLevel}.NewLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	policy, err := exposure.ParsePolicy(opts.policy)
	if err != nil {
		return err
	}

	var archive storage.ReportArchive = storage.NewNoopArchive()
	if opts.bucket != "" {
		s3Archive, err := storage.NewS3Archive(ctx, storage.S3Options{
			Bucket:        opts.bucket,
			Region:        opts.region,
			Prefix:        config.Default().Archive.Prefix,
			PresignExpiry: config.Default().Archive.PresignExpiry.Std(),
		}, logger)
		if err != nil {
			return err
		}
		archive = s3Archive
	}

	file, err := os.Open(opts.input)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer file.Close()

	// A one-shot run keeps its single analysis for the life of the process
	store := analysis.NewSessionStore(24*time.Hour, logger)
	service := analysis.NewService(store, archive, analysis.ServiceConfig{
		Title:        opts.title,
		Organisation: opts.organisation,
	}, logger)

	result, err := service.Run(ctx, analysis.Request{
		FileName:  filepath.Base(opts.input),
		Data:      file,
		Industry:  opts.industry,
		Scenarios: opts.scenarios,
		Policy:    policy,
	})
	if err != nil {
		return err
	}
	for _, verr := range result.Rejected {
		logger.Warn("Row excluded from report", zap.Error(verr))
	}

	report, err := service.Export(ctx, result.ID, format, archive.Enabled())
	if err != nil {
		return err
	}

	if opts.output == "-" {
		_, err := stdout.Write(report.Data)
		return err
	}

	path := opts.output
	if path == "" {
		path = report.FileName
	}
	if err := os.WriteFile(path, report.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	fmt.Fprintf(stdout, "Wrote %s report to %s (%d scenario(s), %d exposure row(s), %d rejected)\n",
		report.Format, path, len(result.Scenarios), len(result.Exposures), len(result.Rejected))
	if report.Archive != nil {
		fmt.Fprintf(stdout, "Archived to s3://%s/%s\nDownload: %s\n", report.Archive.Bucket, report.Archive.Key, report.Archive.DownloadURL)
	}
	return nil
}
