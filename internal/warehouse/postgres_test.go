package warehouse

import (
	"context"
	"testing"
	"time"

	"github.com/rampworks/rampgen/internal/datagen"
	"github.com/rampworks/rampgen/internal/generate"
	"github.com/rampworks/rampgen/internal/market"
	"github.com/rampworks/rampgen/internal/testutil"
)

func setupTestSink(t *testing.T) (*Postgres, context.Context) {
	t.Helper()

	baseConnStr := testutil.SkipIfNoPostgres(t)
	connStr := testutil.CreateTestDB(t, baseConnStr, "warehouse")
	dbName := testutil.GetDBNameFromConnStr(connStr)

	cleanup := testutil.NewTestCleanup(t, baseConnStr, dbName)
	t.Cleanup(cleanup.Cleanup)

	pool := testutil.ConnectTestDB(t, connStr)
	cleanup.SetPool(pool)

	ctx := context.Background()
	sink := NewPostgres(pool)
	if err := sink.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	return sink, ctx
}

func testGenerator() *generate.Generator {
	return generate.NewGenerator(datagen.NewFakerWithSeed(1), generate.Config{
		Fiat:           []string{"USD", "EUR"},
		Crypto:         []string{"bitcoin", "ethereum"},
		PaymentMethods: []string{"credit_card", "sepa"},
	})
}

func snapshotFixture() market.Snapshot {
	return market.Snapshot{
		CryptoPrices: map[string]float64{"bitcoin": 65000, "ethereum": 3500},
		FXRates:      map[string]float64{"USD": 1.0, "EUR": 0.92},
	}
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	sink, ctx := setupTestSink(t)

	// A second run against existing tables must succeed.
	if err := sink.EnsureSchema(ctx); err != nil {
		t.Fatalf("Second EnsureSchema failed: %v", err)
	}
}

func TestAppendAndCount(t *testing.T) {
	sink, ctx := setupTestSink(t)
	g := testGenerator()
	now := time.Now().UTC()

	users := g.Users(50, now)
	n, err := sink.Append(ctx, generate.TableUsers, generate.UserColumns, generate.UserRows(users))
	if err != nil {
		t.Fatalf("Append users failed: %v", err)
	}
	if n != 50 {
		t.Errorf("Appended %d users, want 50", n)
	}

	count, err := sink.UserCount(ctx)
	if err != nil {
		t.Fatalf("UserCount failed: %v", err)
	}
	if count != 50 {
		t.Errorf("UserCount = %d, want 50", count)
	}

	// Appends accumulate; nothing is replaced.
	if _, err := sink.Append(ctx, generate.TableUsers, generate.UserColumns, generate.UserRows(g.Users(25, now))); err != nil {
		t.Fatalf("Second append failed: %v", err)
	}
	count, _ = sink.UserCount(ctx)
	if count != 75 {
		t.Errorf("UserCount after second append = %d, want 75", count)
	}
}

func TestAppendEmptyBatch(t *testing.T) {
	sink, ctx := setupTestSink(t)

	n, err := sink.Append(ctx, generate.TableDeposits, generate.DepositColumns, nil)
	if err != nil {
		t.Fatalf("Append of empty batch failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected 0 rows written, got %d", n)
	}
}

func TestActiveUserIDs(t *testing.T) {
	sink, ctx := setupTestSink(t)
	g := testGenerator()
	now := time.Now().UTC()

	users := g.Users(200, now)
	activeCount := 0
	for _, u := range users {
		if u.IsActive {
			activeCount++
		}
	}

	if _, err := sink.Append(ctx, generate.TableUsers, generate.UserColumns, generate.UserRows(users)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	ids, err := sink.ActiveUserIDs(ctx, 1000)
	if err != nil {
		t.Fatalf("ActiveUserIDs failed: %v", err)
	}
	if len(ids) != activeCount {
		t.Errorf("Got %d active ids, want %d", len(ids), activeCount)
	}

	limited, err := sink.ActiveUserIDs(ctx, 10)
	if err != nil {
		t.Fatalf("ActiveUserIDs with limit failed: %v", err)
	}
	if len(limited) != 10 {
		t.Errorf("Got %d ids with limit 10", len(limited))
	}
}

func TestFilledOrdersRoundTrip(t *testing.T) {
	sink, ctx := setupTestSink(t)
	g := testGenerator()
	day := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)
	pool := []string{"8f14e45f-ceea-4e7a-9c3f-000000000001", "8f14e45f-ceea-4e7a-9c3f-000000000002"}

	orders, err := g.Orders(100, day, pool, snapshotFixture())
	if err != nil {
		t.Fatalf("Orders failed: %v", err)
	}
	wantFilled := 0
	for _, o := range orders {
		if o.Status == "filled" || o.Status == "partially_filled" {
			wantFilled++
		}
	}

	if _, err := sink.Append(ctx, generate.TableOrders, generate.OrderColumns, generate.OrderRows(orders)); err != nil {
		t.Fatalf("Append orders failed: %v", err)
	}

	got, err := sink.FilledOrders(ctx, day)
	if err != nil {
		t.Fatalf("FilledOrders failed: %v", err)
	}
	if len(got) != wantFilled {
		t.Errorf("FilledOrders returned %d orders, want %d", len(got), wantFilled)
	}

	byID := make(map[string]generate.Order)
	for _, o := range orders {
		byID[o.OrderID] = o
	}
	for _, o := range got {
		orig, ok := byID[o.OrderID]
		if !ok {
			t.Fatalf("Unknown order id %s", o.OrderID)
		}
		if o.Status != orig.Status {
			t.Errorf("Status %q, want %q", o.Status, orig.Status)
		}
		if (o.LimitPrice == nil) != (orig.LimitPrice == nil) {
			t.Errorf("Limit price nullability lost for order %s", o.OrderID)
		}
	}

	// A different day yields nothing.
	other, err := sink.FilledOrders(ctx, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("FilledOrders for other day failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("Expected no orders on the next day, got %d", len(other))
	}
}

func TestDeleteTradesForDay(t *testing.T) {
	sink, ctx := setupTestSink(t)
	g := testGenerator()
	day := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)
	nextDay := day.AddDate(0, 0, 1)
	pool := []string{"8f14e45f-ceea-4e7a-9c3f-000000000001"}

	for _, d := range []time.Time{day, nextDay} {
		orders, err := g.Orders(50, d, pool, snapshotFixture())
		if err != nil {
			t.Fatalf("Orders failed: %v", err)
		}
		trades := g.DeriveTrades(orders)
		if len(trades) == 0 {
			t.Fatal("Expected some trades")
		}
		if _, err := sink.Append(ctx, generate.TableTrades, generate.TradeColumns, generate.TradeRows(trades)); err != nil {
			t.Fatalf("Append trades failed: %v", err)
		}
	}

	counts, _ := sink.TableCounts(ctx)
	before := counts[generate.TableTrades]

	deleted, err := sink.DeleteTradesForDay(ctx, day)
	if err != nil {
		t.Fatalf("DeleteTradesForDay failed: %v", err)
	}
	if deleted == 0 {
		t.Fatal("Expected deletions on the first day")
	}

	counts, _ = sink.TableCounts(ctx)
	after := counts[generate.TableTrades]
	if after != before-deleted {
		t.Errorf("Count after delete = %d, want %d", after, before-deleted)
	}
	if after == 0 {
		t.Error("Delete must not touch the other day's trades")
	}
}

func TestTableCountsCoversAllTables(t *testing.T) {
	sink, ctx := setupTestSink(t)

	counts, err := sink.TableCounts(ctx)
	if err != nil {
		t.Fatalf("TableCounts failed: %v", err)
	}
	if len(counts) != len(AllTables) {
		t.Errorf("Got counts for %d tables, want %d", len(counts), len(AllTables))
	}
	for _, table := range AllTables {
		if n, ok := counts[table]; !ok {
			t.Errorf("Missing count for %s", table)
		} else if n != 0 {
			t.Errorf("Fresh table %s has %d rows", table, n)
		}
	}
}

func TestReset(t *testing.T) {
	sink, ctx := setupTestSink(t)
	g := testGenerator()

	users := g.Users(10, time.Now().UTC())
	if _, err := sink.Append(ctx, generate.TableUsers, generate.UserColumns, generate.UserRows(users)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	if err := sink.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	count, err := sink.UserCount(ctx)
	if err != nil {
		t.Fatalf("UserCount after reset failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected empty users table after reset, got %d rows", count)
	}
}

func TestFullDayLoad(t *testing.T) {
	sink, ctx := setupTestSink(t)
	g := testGenerator()
	day := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)
	snap := snapshotFixture()

	users := g.Users(20, day)
	if _, err := sink.Append(ctx, generate.TableUsers, generate.UserColumns, generate.UserRows(users)); err != nil {
		t.Fatalf("Append users failed: %v", err)
	}

	pool, err := sink.ActiveUserIDs(ctx, 100)
	if err != nil {
		t.Fatalf("ActiveUserIDs failed: %v", err)
	}
	if len(pool) == 0 {
		t.Fatal("No active users to reference")
	}

	deposits, _ := g.Deposits(30, day, pool)
	withdrawals, _ := g.Withdrawals(30, day, pool)
	orders, _ := g.Orders(40, day, pool, snap)
	trades := g.DeriveTrades(orders)
	ramp, _ := g.RampTransactions(30, day, pool, snap)

	loads := []struct {
		table   string
		columns []string
		rows    [][]any
	}{
		{generate.TableDeposits, generate.DepositColumns, generate.DepositRows(deposits)},
		{generate.TableWithdrawals, generate.WithdrawalColumns, generate.WithdrawalRows(withdrawals)},
		{generate.TableOrders, generate.OrderColumns, generate.OrderRows(orders)},
		{generate.TableTrades, generate.TradeColumns, generate.TradeRows(trades)},
		{generate.TableRamp, generate.RampColumns, generate.RampRows(ramp)},
	}
	for _, load := range loads {
		if _, err := sink.Append(ctx, load.table, load.columns, load.rows); err != nil {
			t.Fatalf("Append %s failed: %v", load.table, err)
		}
	}

	counts, err := sink.TableCounts(ctx)
	if err != nil {
		t.Fatalf("TableCounts failed: %v", err)
	}
	if counts[generate.TableDeposits] != 30 {
		t.Errorf("Deposits count = %d, want 30", counts[generate.TableDeposits])
	}
	if counts[generate.TableOrders] != 40 {
		t.Errorf("Orders count = %d, want 40", counts[generate.TableOrders])
	}
	if counts[generate.TableTrades] != int64(len(trades)) {
		t.Errorf("Trades count = %d, want %d", counts[generate.TableTrades], len(trades))
	}
}
