package clickhouse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"brontes-lvr/internal/domain"
	"brontes-lvr/internal/storage"
)

// Retry defaults. The delay is flat: the upstream is a single analytical
// cluster and the refresh interval already rate-limits pressure on it.
const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 5 * time.Second

	// DefaultWindowRows bounds the trailing median window per pool.
	DefaultWindowRows = 1000
)

// zeroAddress marks rows where brontes could not attribute a pool.
const zeroAddress = "0x0000000000000000000000000000000000000000"

// BrontesSource implements storage.LVRSource over the brontes.block_analysis
// table.
type BrontesSource struct {
	conn        *Conn
	pools       []string
	maxAttempts int
	retryDelay  time.Duration
	windowRows  int
	logger      *log.Logger
}

// SourceOptions contains configuration for creating a BrontesSource.
type SourceOptions struct {
	// Pools is the pool address allow-list. Required.
	Pools []string

	// MaxAttempts is the total attempt budget per query (default 3).
	MaxAttempts int

	// RetryDelay is the fixed delay between attempts (default 5s).
	RetryDelay time.Duration

	// WindowRows is the per-pool trailing median window (default 1000).
	WindowRows int

	Logger *log.Logger
}

// NewBrontesSource creates a new BrontesSource.
func NewBrontesSource(conn *Conn, opts SourceOptions) *BrontesSource {
	maxAttempts := opts.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = DefaultMaxAttempts
	}

	retryDelay := opts.RetryDelay
	if retryDelay == 0 {
		retryDelay = DefaultRetryDelay
	}

	windowRows := opts.WindowRows
	if windowRows == 0 {
		windowRows = DefaultWindowRows
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &BrontesSource{
		conn:        conn,
		pools:       opts.Pools,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		windowRows:  windowRows,
		logger:      logger,
	}
}

// Compile-time interface check.
var _ storage.LVRSource = (*BrontesSource)(nil)

// FetchBlockLVRSince returns per-block summed LVR for blocks strictly
// greater than since, ascending by block number.
func (s *BrontesSource) FetchBlockLVRSince(ctx context.Context, since uint64) ([]domain.BlockLVR, error) {
	query := fmt.Sprintf(`
		SELECT
			block_number,
			sum(p.profit_amt + p.revenue_amt) AS total_lvr
		FROM brontes.block_analysis
		ARRAY JOIN cex_dex_arbed_pool_all AS p
		WHERE p.profit != ? AND p.profit != '' AND
			p.revenue != ? AND p.revenue != '' AND
			p.profit IN (%s) AND
			block_number > ?
		GROUP BY block_number
		ORDER BY block_number
	`, placeholders(len(s.pools)))

	args := make([]any, 0, len(s.pools)+3)
	args = append(args, zeroAddress, zeroAddress)
	for _, pool := range s.pools {
		args = append(args, pool)
	}
	args = append(args, since)

	var rows []domain.BlockLVR
	err := s.withRetry(ctx, "fetch block lvr", func() error {
		result, err := s.conn.Query(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("query block lvr: %w", err)
		}
		defer result.Close()

		rows = rows[:0]
		for result.Next() {
			var r domain.BlockLVR
			if err := result.Scan(&r.BlockNumber, &r.TotalLVR); err != nil {
				return fmt.Errorf("scan block lvr row: %w", err)
			}
			rows = append(rows, r)
		}
		return result.Err()
	})
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// FetchMedianLVRSince returns each pool's exact median over its latest
// windowRows rows at or above since.
func (s *BrontesSource) FetchMedianLVRSince(ctx context.Context, since uint64) ([]domain.PoolMedian, error) {
	query := fmt.Sprintf(`
		WITH pool_data AS (
			SELECT
				p.profit AS pool_address,
				p.profit_amt + p.revenue_amt AS lvr,
				block_number,
				ROW_NUMBER() OVER (PARTITION BY p.profit ORDER BY block_number DESC) AS rn
			FROM brontes.block_analysis
			ARRAY JOIN cex_dex_arbed_pool_all AS p
			WHERE p.profit != ? AND
				p.revenue != ? AND
				p.profit IN (%s) AND
				block_number >= ?
		)
		SELECT
			pool_address,
			quantileExact(0.5)(lvr) AS median_lvr,
			MAX(block_number) AS max_block_num
		FROM pool_data
		WHERE rn <= ?
		GROUP BY pool_address
	`, placeholders(len(s.pools)))

	args := make([]any, 0, len(s.pools)+4)
	args = append(args, zeroAddress, zeroAddress)
	for _, pool := range s.pools {
		args = append(args, pool)
	}
	args = append(args, since, uint64(s.windowRows))

	var rows []domain.PoolMedian
	err := s.withRetry(ctx, "fetch median lvr", func() error {
		result, err := s.conn.Query(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("query median lvr: %w", err)
		}
		defer result.Close()

		rows = rows[:0]
		for result.Next() {
			var r domain.PoolMedian
			if err := result.Scan(&r.PoolAddress, &r.MedianLVR, &r.MaxBlock); err != nil {
				return fmt.Errorf("scan median lvr row: %w", err)
			}
			rows = append(rows, r)
		}
		return result.Err()
	})
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// TotalLVRByPool returns lifetime LVR per pool, descending by total.
func (s *BrontesSource) TotalLVRByPool(ctx context.Context) ([]domain.PoolTotal, error) {
	query := fmt.Sprintf(`
		SELECT
			p.profit AS pool_address,
			sum(p.profit_amt + p.revenue_amt) AS lvr_extracted
		FROM brontes.block_analysis
		ARRAY JOIN cex_dex_arbed_pool_all AS p
		WHERE p.profit != ? AND p.profit != '' AND
			p.revenue != ? AND p.revenue != '' AND
			p.profit IN (%s)
		GROUP BY pool_address
		ORDER BY lvr_extracted DESC
	`, placeholders(len(s.pools)))

	args := make([]any, 0, len(s.pools)+2)
	args = append(args, zeroAddress, zeroAddress)
	for _, pool := range s.pools {
		args = append(args, pool)
	}

	var rows []domain.PoolTotal
	err := s.withRetry(ctx, "fetch total lvr", func() error {
		result, err := s.conn.Query(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("query total lvr: %w", err)
		}
		defer result.Close()

		rows = rows[:0]
		for result.Next() {
			var r domain.PoolTotal
			if err := result.Scan(&r.PoolAddress, &r.LVRExtracted); err != nil {
				return fmt.Errorf("scan total lvr row: %w", err)
			}
			rows = append(rows, r)
		}
		return result.Err()
	})
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// withRetry runs fn up to the attempt budget with a fixed ctx-aware delay
// between attempts. Non-retryable errors abort immediately; an exhausted
// budget surfaces storage.ErrUnavailable.
func (s *BrontesSource) withRetry(ctx context.Context, op string, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}

		lastErr = err
		s.logger.Printf("%s: attempt %d/%d failed: %v", op, attempt, s.maxAttempts, err)

		if attempt < s.maxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.retryDelay):
			}
		}
	}

	return fmt.Errorf("%s after %d attempts: %w: %v", op, s.maxAttempts, storage.ErrUnavailable, lastErr)
}

// isRetryable classifies transport and upstream-protocol failures as
// retryable. Context cancellation and everything else (bad query, scan
// mismatch) is fatal for the attempt.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var ex *clickhouse.Exception
	if errors.As(err, &ex) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

// placeholders returns n comma-separated bind markers for an IN list.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
