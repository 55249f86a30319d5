// Package main is a one-shot export of lifetime LVR totals per pool to a
// CSV file. It shares the gateway and allow-list with the server but has
// no caching: each run issues a single full-range query.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"brontes-lvr/internal/lvr"
	chstore "brontes-lvr/internal/storage/clickhouse"
)

func main() {
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	outputPath := flag.String("output", "brontes_total_lvr.csv", "Output CSV path")
	poolsFlag := flag.String("pools", os.Getenv("POOL_ADDRESSES"), "Comma-separated pool address allow-list (default: built-in list)")
	flag.Parse()

	if *clickhouseDSN == "" {
		fmt.Fprintln(os.Stderr, "Error: --clickhouse-dsn is required")
		os.Exit(1)
	}

	pools := lvr.DefaultPools
	if *poolsFlag != "" {
		pools = nil
		for _, p := range strings.Split(*poolsFlag, ",") {
			if p = strings.TrimSpace(p); p != "" {
				pools = append(pools, p)
			}
		}
	}

	ctx := context.Background()

	conn, err := chstore.NewConn(ctx, *clickhouseDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to clickhouse: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	source := chstore.NewBrontesSource(conn, chstore.SourceOptions{Pools: pools})

	totals, err := source.TotalLVRByPool(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching totals: %v\n", err)
		os.Exit(1)
	}

	f, err := os.Create(*outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", *outputPath, err)
		os.Exit(1)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"pool_address", "lvr_extracted"}); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing header: %v\n", err)
		os.Exit(1)
	}
	for _, t := range totals {
		record := []string{t.PoolAddress, strconv.FormatFloat(t.LVRExtracted, 'f', -1, 64)}
		if err := w.Write(record); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing row: %v\n", err)
			os.Exit(1)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		fmt.Fprintf(os.Stderr, "Error flushing csv: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d rows to %s\n", len(totals), *outputPath)
}
