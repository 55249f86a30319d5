package clickhouse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"brontes-lvr/internal/storage"
)

func TestPlaceholders(t *testing.T) {
	cases := map[int]string{
		0: "",
		1: "?",
		3: "?, ?, ?",
	}
	for n, want := range cases {
		if got := placeholders(n); got != want {
			t.Errorf("placeholders(%d): expected %q, got %q", n, want, got)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	retryable := []error{
		io.EOF,
		io.ErrUnexpectedEOF,
		syscall.ECONNRESET,
		syscall.EPIPE,
		fmt.Errorf("query: %w", io.EOF),
	}
	for _, err := range retryable {
		if !isRetryable(err) {
			t.Errorf("expected %v to be retryable", err)
		}
	}

	fatal := []error{
		context.Canceled,
		context.DeadlineExceeded,
		errors.New("scan mismatch"),
	}
	for _, err := range fatal {
		if isRetryable(err) {
			t.Errorf("expected %v to be fatal", err)
		}
	}
}

func TestWithRetry_ExhaustedBudget(t *testing.T) {
	source := NewBrontesSource(nil, SourceOptions{
		MaxAttempts: 3,
		RetryDelay:  time.Millisecond,
		Logger:      log.New(io.Discard, "", 0),
	})

	attempts := 0
	err := source.withRetry(context.Background(), "test op", func() error {
		attempts++
		return io.EOF
	})

	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if !errors.Is(err, storage.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable after exhausted budget, got: %v", err)
	}
}

func TestWithRetry_FatalErrorAbortsImmediately(t *testing.T) {
	source := NewBrontesSource(nil, SourceOptions{
		MaxAttempts: 3,
		RetryDelay:  time.Millisecond,
		Logger:      log.New(io.Discard, "", 0),
	})

	fatal := errors.New("bad query")
	attempts := 0
	err := source.withRetry(context.Background(), "test op", func() error {
		attempts++
		return fatal
	})

	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
	if !errors.Is(err, fatal) {
		t.Errorf("expected the fatal error unwrapped, got: %v", err)
	}
	if errors.Is(err, storage.ErrUnavailable) {
		t.Error("fatal errors must not be wrapped as ErrUnavailable")
	}
}

func TestWithRetry_SucceedsAfterTransientFailure(t *testing.T) {
	source := NewBrontesSource(nil, SourceOptions{
		MaxAttempts: 3,
		RetryDelay:  time.Millisecond,
		Logger:      log.New(io.Discard, "", 0),
	})

	attempts := 0
	err := source.withRetry(context.Background(), "test op", func() error {
		attempts++
		if attempts < 2 {
			return io.ErrUnexpectedEOF
		}
		return nil
	})

	if err != nil {
		t.Errorf("expected success on second attempt, got: %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestWithRetry_ContextCancelledDuringDelay(t *testing.T) {
	source := NewBrontesSource(nil, SourceOptions{
		MaxAttempts: 3,
		RetryDelay:  time.Hour,
		Logger:      log.New(io.Discard, "", 0),
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := source.withRetry(ctx, "test op", func() error {
		return io.EOF
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got: %v", err)
	}
}

// --- integration tests below ---

var testPools = []string{
	"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
	"0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
}

// setupTestDB creates a ClickHouse container with the brontes schema and
// returns a connection. Returns a cleanup function that must be called
// when done.
func setupTestDB(t *testing.T) (*Conn, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "clickhouse/clickhouse-server:24.1-alpine",
		ExposedPorts: []string{"9000/tcp", "8123/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForLog("Application: Ready for connections").
				WithStartupTimeout(60 * time.Second),
			wait.ForListeningPort("9000/tcp"),
		),
		Env: map[string]string{
			"CLICKHOUSE_DB":       "brontes",
			"CLICKHOUSE_USER":     "default",
			"CLICKHOUSE_PASSWORD": "",
		},
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	dsn := fmt.Sprintf("clickhouse://%s:%s/brontes", host, port.Port())

	conn, err := NewConn(ctx, dsn)
	require.NoError(t, err)

	err = conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS brontes.block_analysis (
			block_number UInt64,
			cex_dex_arbed_pool_all Nested(
				profit String,
				revenue String,
				profit_amt Float64,
				revenue_amt Float64
			)
		) ENGINE = MergeTree ORDER BY block_number
	`)
	require.NoError(t, err)

	cleanup := func() {
		conn.Close()
		_ = container.Terminate(ctx)
	}

	return conn, cleanup
}

// insertBlock inserts one block_analysis row with the given arbed pools.
func insertBlock(t *testing.T, conn *Conn, block uint64, pools []string, profitAmts, revenueAmts []float64) {
	t.Helper()

	revenues := make([]string, len(pools))
	copy(revenues, pools)

	err := conn.Exec(context.Background(), `
		INSERT INTO brontes.block_analysis (
			block_number,
			cex_dex_arbed_pool_all.profit,
			cex_dex_arbed_pool_all.revenue,
			cex_dex_arbed_pool_all.profit_amt,
			cex_dex_arbed_pool_all.revenue_amt
		) VALUES (?, ?, ?, ?, ?)
	`, block, pools, revenues, profitAmts, revenueAmts)
	require.NoError(t, err)
}

func newIntegrationSource(conn *Conn) *BrontesSource {
	return &BrontesSource{
		conn:        conn,
		pools:       testPools,
		maxAttempts: 1,
		retryDelay:  time.Millisecond,
		windowRows:  1000,
		logger:      log.New(io.Discard, "", 0),
	}
}

func TestBrontesSource_FetchBlockLVRSince(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	source := newIntegrationSource(conn)

	// Two allow-listed pools in one block sum together.
	insertBlock(t, conn, 1000, testPools, []float64{1.0, 2.0}, []float64{0.5, 0.5})
	// Zero-address and unlisted pools are filtered out.
	insertBlock(t, conn, 1001,
		[]string{zeroAddress, "0xcccccccccccccccccccccccccccccccccccccccc", testPools[0]},
		[]float64{100.0, 100.0, 3.0},
		[]float64{100.0, 100.0, 1.0})

	rows, err := source.FetchBlockLVRSince(ctx, 999)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, uint64(1000), rows[0].BlockNumber)
	assert.InDelta(t, 4.0, rows[0].TotalLVR, 0.0001)
	assert.Equal(t, uint64(1001), rows[1].BlockNumber)
	assert.InDelta(t, 4.0, rows[1].TotalLVR, 0.0001)

	// The bound is strict: block 1000 itself is excluded.
	rows, err = source.FetchBlockLVRSince(ctx, 1000)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, uint64(1001), rows[0].BlockNumber)

	rows, err = source.FetchBlockLVRSince(ctx, 1001)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestBrontesSource_FetchMedianLVRSince(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	source := newIntegrationSource(conn)

	// Three rows for one pool: medians over {1.0, 2.0, 9.0} → 2.0.
	insertBlock(t, conn, 2000, []string{testPools[0]}, []float64{0.5}, []float64{0.5})
	insertBlock(t, conn, 2001, []string{testPools[0]}, []float64{1.0}, []float64{1.0})
	insertBlock(t, conn, 2002, []string{testPools[0]}, []float64{4.5}, []float64{4.5})

	rows, err := source.FetchMedianLVRSince(ctx, 2000)
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, testPools[0], rows[0].PoolAddress)
	assert.InDelta(t, 2.0, rows[0].MedianLVR, 0.0001)
	assert.Equal(t, uint64(2002), rows[0].MaxBlock)

	// The bound is inclusive: a window starting at the max block still
	// covers that block.
	rows, err = source.FetchMedianLVRSince(ctx, 2002)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.InDelta(t, 9.0, rows[0].MedianLVR, 0.0001)
}

func TestBrontesSource_TotalLVRByPool(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	source := newIntegrationSource(conn)

	insertBlock(t, conn, 3000, testPools, []float64{1.0, 10.0}, []float64{1.0, 10.0})
	insertBlock(t, conn, 3001, []string{testPools[0]}, []float64{1.0}, []float64{1.0})

	totals, err := source.TotalLVRByPool(ctx)
	require.NoError(t, err)

	require.Len(t, totals, 2)
	// Descending by lifetime total.
	assert.Equal(t, testPools[1], totals[0].PoolAddress)
	assert.InDelta(t, 20.0, totals[0].LVRExtracted, 0.0001)
	assert.Equal(t, testPools[0], totals[1].PoolAddress)
	assert.InDelta(t, 6.0, totals[1].LVRExtracted, 0.0001)
}
