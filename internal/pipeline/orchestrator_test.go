package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/rampworks/rampgen/internal/datagen"
	"github.com/rampworks/rampgen/internal/generate"
	"github.com/rampworks/rampgen/internal/state"
)

// fakeSink is an in-memory Sink for orchestrator tests.
type fakeSink struct {
	activeUsers []string
	appended    map[string][][]any
	filled      []generate.Order

	failTable   string
	resetCalls  int
	ensureCalls int
	deletedDays []time.Time
}

func newFakeSink(users ...string) *fakeSink {
	return &fakeSink{
		activeUsers: users,
		appended:    make(map[string][][]any),
	}
}

func (f *fakeSink) EnsureSchema(ctx context.Context) error {
	f.ensureCalls++
	return nil
}

func (f *fakeSink) Reset(ctx context.Context) error {
	f.resetCalls++
	f.appended = make(map[string][][]any)
	return nil
}

func (f *fakeSink) Append(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if table == f.failTable {
		return 0, fmt.Errorf("copy into %s rejected", table)
	}
	f.appended[table] = append(f.appended[table], rows...)
	return int64(len(rows)), nil
}

func (f *fakeSink) ActiveUserIDs(ctx context.Context, limit int) ([]string, error) {
	if len(f.activeUsers) > limit {
		return f.activeUsers[:limit], nil
	}
	return f.activeUsers, nil
}

func (f *fakeSink) FilledOrders(ctx context.Context, day time.Time) ([]generate.Order, error) {
	return f.filled, nil
}

func (f *fakeSink) DeleteTradesForDay(ctx context.Context, day time.Time) (int64, error) {
	f.deletedDays = append(f.deletedDays, day)
	n := int64(len(f.appended[generate.TableTrades]))
	f.appended[generate.TableTrades] = nil
	return n, nil
}

func (f *fakeSink) TableCounts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for table, rows := range f.appended {
		counts[table] = int64(len(rows))
	}
	return counts, nil
}

func (f *fakeSink) UserCount(ctx context.Context) (int64, error) {
	return int64(len(f.appended[generate.TableUsers])), nil
}

// staticProvider serves fixed market data without any I/O.
type staticProvider struct{}

func (staticProvider) CryptoPrices(ctx context.Context) map[string]float64 {
	return map[string]float64{"bitcoin": 65000, "ethereum": 3500}
}

func (staticProvider) FXRates(ctx context.Context) map[string]float64 {
	return map[string]float64{"USD": 1.0, "EUR": 0.92}
}

func testOrchestrator(t *testing.T, sink *fakeSink, historyDays int) *Orchestrator {
	t.Helper()

	tracker := state.New(filepath.Join(t.TempDir(), "last_run.json"), historyDays)
	gen := generate.NewGenerator(datagen.NewFakerWithSeed(7), generate.Config{
		Fiat:           []string{"USD", "EUR"},
		Crypto:         []string{"bitcoin", "ethereum"},
		PaymentMethods: []string{"credit_card", "sepa"},
	})

	return New(tracker, staticProvider{}, sink, gen, nil, Config{
		BootstrapUsers:    50,
		DepositsPerDay:    20,
		WithdrawalsPerDay: 15,
		OrdersPerDay:      100,
		RampPerDay:        25,
		UserPoolLimit:     1000,
	})
}

func today() time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRunOnceLoadsFullDay(t *testing.T) {
	sink := newFakeSink("user-a", "user-b", "user-c")
	o := testOrchestrator(t, sink, 90)

	result, err := o.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if result.CaughtUp {
		t.Fatal("First run must not be caught up")
	}

	want := today().AddDate(0, 0, -90)
	if !result.Date.Equal(want) {
		t.Errorf("Batch date %v, want %v", result.Date, want)
	}

	if result.RowsLoaded[generate.TableDeposits] != 20 {
		t.Errorf("Deposits loaded %d, want 20", result.RowsLoaded[generate.TableDeposits])
	}
	if result.RowsLoaded[generate.TableOrders] != 100 {
		t.Errorf("Orders loaded %d, want 100", result.RowsLoaded[generate.TableOrders])
	}
	if result.RowsLoaded[generate.TableTrades] == 0 {
		t.Error("Expected some trades from 100 orders")
	}
	if result.Total() == 0 {
		t.Error("Total must be positive")
	}

	last, ok := o.state.LastProcessedDate()
	if !ok {
		t.Fatal("State was not committed")
	}
	if !last.Equal(want) {
		t.Errorf("Committed date %v, want %v", last, want)
	}
}

func TestRunOnceDoesNotCommitOnSinkFailure(t *testing.T) {
	sink := newFakeSink("user-a")
	sink.failTable = generate.TableOrders
	o := testOrchestrator(t, sink, 90)

	_, err := o.RunOnce(context.Background())
	if err == nil {
		t.Fatal("Expected failure when the orders copy is rejected")
	}
	if _, ok := o.state.LastProcessedDate(); ok {
		t.Fatal("State must not advance on a failed run")
	}

	// The retry picks up the same date and succeeds.
	sink.failTable = ""
	result, err := o.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	want := today().AddDate(0, 0, -90)
	if !result.Date.Equal(want) {
		t.Errorf("Retry processed %v, want the original date %v", result.Date, want)
	}
}

func TestRunOnceEmptyPool(t *testing.T) {
	sink := newFakeSink()
	o := testOrchestrator(t, sink, 90)

	_, err := o.RunOnce(context.Background())
	if !errors.Is(err, generate.ErrEmptyUserPool) {
		t.Fatalf("Expected ErrEmptyUserPool, got %v", err)
	}
}

func TestCatchUpProcessesWholeHistory(t *testing.T) {
	sink := newFakeSink("user-a", "user-b")
	o := testOrchestrator(t, sink, 90)

	results, err := o.CatchUp(context.Background())
	if err != nil {
		t.Fatalf("CatchUp failed: %v", err)
	}

	// 90 days back through today inclusive.
	if len(results) != 91 {
		t.Fatalf("Expected 91 runs, got %d", len(results))
	}
	for i, r := range results {
		want := today().AddDate(0, 0, -90+i)
		if !r.Date.Equal(want) {
			t.Errorf("Run %d processed %v, want %v", i, r.Date, want)
		}
	}

	// Once caught up, nothing more happens.
	result, err := o.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce after catch-up failed: %v", err)
	}
	if !result.CaughtUp {
		t.Error("Expected caught-up result")
	}

	more, err := o.CatchUp(context.Background())
	if err != nil {
		t.Fatalf("Second CatchUp failed: %v", err)
	}
	if len(more) != 0 {
		t.Errorf("Second CatchUp ran %d batches, want 0", len(more))
	}
}

func TestCatchUpStopsOnCancelledContext(t *testing.T) {
	sink := newFakeSink("user-a")
	o := testOrchestrator(t, sink, 90)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.CatchUp(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}

func TestBootstrap(t *testing.T) {
	sink := newFakeSink()
	o := testOrchestrator(t, sink, 90)
	ctx := context.Background()

	n, err := o.Bootstrap(ctx, false)
	if err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	if n != 50 {
		t.Errorf("Bootstrapped %d users, want 50", n)
	}
	if sink.ensureCalls == 0 {
		t.Error("Bootstrap must ensure the schema")
	}

	// A second bootstrap without force refuses.
	if _, err := o.Bootstrap(ctx, false); !errors.Is(err, ErrAlreadyBootstrapped) {
		t.Fatalf("Expected ErrAlreadyBootstrapped, got %v", err)
	}

	// With force the warehouse is reset and reloaded.
	n, err = o.Bootstrap(ctx, true)
	if err != nil {
		t.Fatalf("Forced bootstrap failed: %v", err)
	}
	if n != 50 {
		t.Errorf("Forced bootstrap loaded %d users, want 50", n)
	}
	if sink.resetCalls != 1 {
		t.Errorf("Reset called %d times, want 1", sink.resetCalls)
	}
	count, _ := sink.UserCount(ctx)
	if count != 50 {
		t.Errorf("UserCount after forced bootstrap = %d, want 50", count)
	}
}

func TestRelink(t *testing.T) {
	sink := newFakeSink("user-a")
	o := testOrchestrator(t, sink, 90)
	ctx := context.Background()
	day := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)

	price := 64000.0
	sink.filled = []generate.Order{
		{OrderID: "o1", UserID: "user-a", Timestamp: day.Add(time.Hour), Status: "filled",
			OrderType: "limit", LimitPrice: &price, BaseAmount: 1, FilledAmount: 1,
			TradingPair: "bitcoin/USD", BaseCurrency: "bitcoin", QuoteCurrency: "USD", Side: "buy"},
		{OrderID: "o2", UserID: "user-a", Timestamp: day.Add(2 * time.Hour), Status: "partially_filled",
			OrderType: "market", BaseAmount: 2, FilledAmount: 0.5,
			TradingPair: "ethereum/USD", BaseCurrency: "ethereum", QuoteCurrency: "USD", Side: "sell"},
	}

	n, err := o.Relink(ctx, day)
	if err != nil {
		t.Fatalf("Relink failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Relinked %d trades, want 2", n)
	}
	if len(sink.deletedDays) != 1 || !sink.deletedDays[0].Equal(day) {
		t.Errorf("Expected trades of %v to be deleted first, got %v", day, sink.deletedDays)
	}

	// Relinking again replaces rather than duplicates.
	if _, err := o.Relink(ctx, day); err != nil {
		t.Fatalf("Second relink failed: %v", err)
	}
	counts, _ := sink.TableCounts(ctx)
	if counts[generate.TableTrades] != 2 {
		t.Errorf("Trades after double relink = %d, want 2", counts[generate.TableTrades])
	}
}

func TestStatus(t *testing.T) {
	sink := newFakeSink("user-a")
	o := testOrchestrator(t, sink, 90)
	ctx := context.Background()

	s, err := o.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if s.HasRun {
		t.Error("Fresh pipeline must report HasRun=false")
	}
	if s.CaughtUp {
		t.Error("Fresh pipeline has 90 days pending")
	}
	if want := today().AddDate(0, 0, -90); !s.NextBatch.Equal(want) {
		t.Errorf("NextBatch %v, want %v", s.NextBatch, want)
	}

	if _, err := o.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	s, err = o.Status(ctx)
	if err != nil {
		t.Fatalf("Status after run failed: %v", err)
	}
	if !s.HasRun {
		t.Error("Expected HasRun after a committed batch")
	}
	if want := today().AddDate(0, 0, -90); !s.LastProcessed.Equal(want) {
		t.Errorf("LastProcessed %v, want %v", s.LastProcessed, want)
	}
	if s.TableCounts[generate.TableDeposits] != 20 {
		t.Errorf("Status deposits count = %d, want 20", s.TableCounts[generate.TableDeposits])
	}
}
