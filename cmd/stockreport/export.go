package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ruslano69/stockreport/internal/infra"
	"github.com/ruslano69/stockreport/pkg/objstore"
	"github.com/ruslano69/stockreport/pkg/report"
	"github.com/ruslano69/stockreport/pkg/xlsx"
)

// runExport writes one report to an XLSX file, sorted like the dashboard.
func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	dev := fs.Bool("dev", false, "export from the in-memory demo store")
	configPath := fs.String("config", "", "path to config file")
	name := fs.String("report", "inventory", "report: inventory or sales")
	filter := fs.String("filter", string(report.FilterAll), "sales date filter: all, today, yesterday, month")
	sortCol := fs.String("sort", "", "sort column key (default: report default)")
	dir := fs.String("dir", "asc", "sort direction: asc or desc")
	out := fs.String("out", "", "output file (default: <report>-YYYYMMDD.xlsx)")
	s3URL := fs.String("s3", "", "also upload to s3://bucket/prefix (overrides export.s3)")
	s3Endpoint := fs.String("s3-endpoint", "", "S3-compatible endpoint, e.g. http://localhost:9000")
	timeout := fs.Duration("timeout", time.Minute, "query timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := infra.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	infra.SetupLogger(cfg.Log, *dev)
	opts, err := cfg.Dashboard.ReportOptions()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	inf, err := infra.Setup(ctx, cfg, *dev)
	if err != nil {
		return err
	}
	defer inf.Close()

	if *s3URL != "" {
		cfg.Export.S3.Bucket, cfg.Export.S3.Prefix, err = objstore.ParseS3URL(*s3URL)
		if err != nil {
			return err
		}
	}
	if *s3Endpoint != "" {
		cfg.Export.S3.Endpoint = *s3Endpoint
	}

	q := url.Values{}
	if *sortCol != "" {
		q.Set("sort", *sortCol)
		q.Set("dir", *dir)
	}
	stamp := time.Now().Format("20060102")

	switch *name {
	case "inventory":
		schema := report.InventorySchema(opts)
		rows, err := inf.Store.Inventory(ctx)
		if err != nil {
			return fmt.Errorf("query inventory: %w", err)
		}
		rows = schema.Sort(rows, report.ParseSortState(q, schema.DefaultSort))
		path := orDefault(*out, fmt.Sprintf("inventory-%s.xlsx", stamp))
		if err := xlsx.SaveReport(path, schema, rows, ""); err != nil {
			return err
		}
		log.Info().Str("file", path).Int("rows", len(rows)).Msg("inventory exported")
		return upload(ctx, cfg.Export.S3, path)

	case "sales":
		f := report.ParseDateFilter(*filter)
		schema := report.SalesSchema(opts)
		rows, err := inf.Store.Sales(ctx, f)
		if err != nil {
			return fmt.Errorf("query sales: %w", err)
		}
		rows = schema.Sort(rows, report.ParseSortState(q, schema.DefaultSort))
		path := orDefault(*out, fmt.Sprintf("sales-report-%s-%s.xlsx", f, stamp))
		if err := xlsx.SaveReport(path, schema, rows, ""); err != nil {
			return err
		}
		log.Info().Str("file", path).Str("filter", string(f)).Int("rows", len(rows)).Msg("sales report exported")
		return upload(ctx, cfg.Export.S3, path)

	default:
		return fmt.Errorf("unknown report %q (want inventory or sales)", *name)
	}
}

// upload copies the exported file to object storage when a bucket is set.
func upload(ctx context.Context, cfg objstore.S3Config, path string) error {
	if cfg.Bucket == "" {
		return nil
	}
	s, err := objstore.NewS3(ctx, cfg)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	key, err := s.Put(ctx, filepath.Base(path), f, xlsxContentType)
	if err != nil {
		return err
	}
	log.Info().Str("bucket", cfg.Bucket).Str("key", key).Msg("export uploaded")
	return nil
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
