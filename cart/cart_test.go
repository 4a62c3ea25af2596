package cart

import (
	"context"
	"errors"
	"io"
	"runtime"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/HarshitJain2103/Karigar-Mart-sub001/money"
)

func testLogger() logrus.FieldLogger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}

func inr(units int64) money.Money {
	return money.Money{CurrencyCode: "INR", Units: units}
}

func line(id string, price int64, qty, stock int) Line {
	return Line{
		Product:  ProductRef{ID: id, Price: inr(price), StockQuantity: stock},
		Quantity: qty,
	}
}

// fakeSyncer returns canned responses and records every call.
type fakeSyncer struct {
	mu    sync.Mutex
	calls []string
	resp  []Line
	err   error
}

func (f *fakeSyncer) record(call string) ([]Line, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	return f.resp, f.err
}

func (f *fakeSyncer) UpsertItem(_ context.Context, _, productID string, quantity int) ([]Line, error) {
	return f.record("upsert " + productID)
}

func (f *fakeSyncer) RemoveItem(_ context.Context, _, productID string) ([]Line, error) {
	return f.record("remove " + productID)
}

func (f *fakeSyncer) Empty(_ context.Context, _ string) ([]Line, error) {
	return f.record("empty")
}

func (f *fakeSyncer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func signedIn() string  { return "token-1" }
func signedOut() string { return "" }

func TestAddOrUpdateReplacesMirrorWithServerResponse(t *testing.T) {
	syncer := &fakeSyncer{resp: []Line{line("p1", 500, 2, 5)}}
	s := NewStore(syncer, signedIn, testLogger())

	s.AddOrUpdate(context.Background(), "p1", 2)

	lines := s.Lines()
	if len(lines) != 1 || lines[0].Quantity != 2 {
		t.Fatalf("unexpected mirror: %+v", lines)
	}
	if got := s.Subtotal(); got.Units != 1000 {
		t.Fatalf("unexpected subtotal: %+v", got)
	}
}

func TestMutationSkippedWhenNotSignedIn(t *testing.T) {
	syncer := &fakeSyncer{resp: []Line{line("p1", 500, 2, 5)}}
	s := NewStore(syncer, signedOut, testLogger())

	s.AddOrUpdate(context.Background(), "p1", 2)
	s.Remove(context.Background(), "p1")
	s.Clear(context.Background())

	if n := syncer.callCount(); n != 0 {
		t.Fatalf("expected no network calls, got %d", n)
	}
	if len(s.Lines()) != 0 {
		t.Fatal("mirror should stay empty")
	}
}

func TestSetQuantityBelowOneIsNoOp(t *testing.T) {
	syncer := &fakeSyncer{resp: []Line{line("p1", 500, 2, 5)}}
	s := NewStore(syncer, signedIn, testLogger())

	s.SetQuantity(context.Background(), "p1", 0)
	s.SetQuantity(context.Background(), "p1", -3)

	if n := syncer.callCount(); n != 0 {
		t.Fatalf("expected no network calls, got %d", n)
	}
	if len(s.Lines()) != 0 {
		t.Fatal("cart must be unchanged")
	}
}

func TestSetQuantityIsIdempotent(t *testing.T) {
	syncer := &fakeSyncer{resp: []Line{line("p1", 500, 3, 5)}}
	s := NewStore(syncer, signedIn, testLogger())

	s.SetQuantity(context.Background(), "p1", 3)
	first := s.Lines()
	s.SetQuantity(context.Background(), "p1", 3)
	second := s.Lines()

	if len(first) != 1 || len(second) != 1 || first[0] != second[0] {
		t.Fatalf("expected identical state, got %+v then %+v", first, second)
	}
}

func TestFailedMutationLeavesMirrorUntouched(t *testing.T) {
	syncer := &fakeSyncer{resp: []Line{line("p1", 500, 2, 5)}}
	s := NewStore(syncer, signedIn, testLogger())
	s.AddOrUpdate(context.Background(), "p1", 2)

	syncer.err = errors.New("cart service unavailable")
	syncer.resp = nil
	s.AddOrUpdate(context.Background(), "p1", 4)

	lines := s.Lines()
	if len(lines) != 1 || lines[0].Quantity != 2 {
		t.Fatalf("mirror changed after failed mutation: %+v", lines)
	}
}

func TestRemoveAndClear(t *testing.T) {
	syncer := &fakeSyncer{resp: []Line{line("p1", 500, 2, 5)}}
	s := NewStore(syncer, signedIn, testLogger())
	s.AddOrUpdate(context.Background(), "p1", 2)

	syncer.resp = nil
	s.Remove(context.Background(), "p1")
	if len(s.Lines()) != 0 {
		t.Fatal("expected empty mirror after remove")
	}

	s.Clear(context.Background())
	if got := s.Subtotal(); !money.IsZero(got) {
		t.Fatalf("expected zero subtotal, got %+v", got)
	}
}

// gatedSyncer blocks each upsert until the test delivers its response,
// letting the test resolve in-flight requests out of order.
type gatedSyncer struct {
	gates map[int]chan []Line // keyed by requested quantity
}

func (g *gatedSyncer) UpsertItem(_ context.Context, _, _ string, quantity int) ([]Line, error) {
	return <-g.gates[quantity], nil
}

func (g *gatedSyncer) RemoveItem(context.Context, string, string) ([]Line, error) {
	return nil, nil
}

func (g *gatedSyncer) Empty(context.Context, string) ([]Line, error) { return nil, nil }

// Two in-flight mutations resolving out of order must converge on the
// last-issued mutation's response.
func TestStaleResponseDiscarded(t *testing.T) {
	syncer := &gatedSyncer{gates: map[int]chan []Line{
		1: make(chan []Line, 1),
		9: make(chan []Line, 1),
	}}
	s := NewStore(syncer, signedIn, testLogger())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.AddOrUpdate(context.Background(), "p1", 1)
	}()
	// Let the first request take its sequence number before the second is
	// issued; its response stays blocked on the gate.
	for s.seq.Load() == 0 {
		runtime.Gosched()
	}
	go func() {
		defer wg.Done()
		s.AddOrUpdate(context.Background(), "p1", 9)
	}()
	for s.seq.Load() != 2 {
		runtime.Gosched()
	}

	// Complete the later request first, then the earlier one.
	syncer.gates[9] <- []Line{line("p1", 500, 9, 50)}
	syncer.gates[1] <- []Line{line("p1", 500, 1, 5)}
	wg.Wait()

	lines := s.Lines()
	if len(lines) != 1 || lines[0].Quantity != 9 {
		t.Fatalf("stale response overwrote newer state: %+v", lines)
	}
}

func TestRegistryLifecycle(t *testing.T) {
	reg := NewRegistry(&fakeSyncer{}, testLogger())
	a := reg.ForSession("s1", signedOut)
	b := reg.ForSession("s1", signedIn)
	if a != b {
		t.Fatal("expected the same store for one session")
	}
	reg.EndSession("s1")
	c := reg.ForSession("s1", signedIn)
	if a == c {
		t.Fatal("expected a fresh store after session end")
	}
}
