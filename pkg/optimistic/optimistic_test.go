package optimistic_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/ylk14/SmartPlant-sub000/pkg/optimistic"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type item struct {
	Status string
	Tags   []string
}

func cloneItem(i item) item {
	i.Tags = append([]string(nil), i.Tags...)
	return i
}

type recorder struct {
	mu     sync.Mutex
	events []optimistic.Event
	values []item
}

func (r *recorder) observe(_ string, v item, e optimistic.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	r.values = append(r.values, v)
}

func (r *recorder) snapshot() ([]optimistic.Event, []item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]optimistic.Event(nil), r.events...), append([]item(nil), r.values...)
}

func newCoordinator(timeout time.Duration) *optimistic.Coordinator[string, item] {
	return optimistic.New[string](optimistic.Config[item]{
		PersistTimeout: timeout,
		Clone:          cloneItem,
	})
}

func setStatus(status string) optimistic.MutateFunc[item] {
	return func(current item) (item, error) {
		current.Status = status
		current.Tags = append(current.Tags, status)
		return current, nil
	}
}

func TestApplyCommits(t *testing.T) {
	c := newCoordinator(time.Second)
	rec := &recorder{}
	cancel := c.Subscribe(rec.observe)
	defer cancel()

	if err := c.Track("a", item{Status: "pending"}); err != nil {
		t.Fatalf("track: %v", err)
	}

	var persisted item
	got, err := c.Apply(context.Background(), "a", setStatus("verified"), func(ctx context.Context, next item) error {
		persisted = next
		return nil
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if got.Status != "verified" || persisted.Status != "verified" {
		t.Errorf("status: got %q, persisted %q, want verified", got.Status, persisted.Status)
	}

	v, ok := c.Get("a")
	if !ok || v.Status != "verified" {
		t.Errorf("view: got %+v, want verified", v)
	}
	if c.InFlight("a") {
		t.Error("key still in flight after commit")
	}

	events, _ := rec.snapshot()
	want := []optimistic.Event{optimistic.EventTracked, optimistic.EventApplied, optimistic.EventCommitted}
	if len(events) != len(want) {
		t.Fatalf("events: got %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d: got %s, want %s", i, events[i], want[i])
		}
	}
}

func TestApplyRollsBackOnPersistFailure(t *testing.T) {
	c := newCoordinator(time.Second)
	rec := &recorder{}
	defer c.Subscribe(rec.observe)()

	original := item{Status: "pending", Tags: []string{"seed"}}
	if err := c.Track("a", original); err != nil {
		t.Fatalf("track: %v", err)
	}

	persistErr := errors.New("network down")
	_, err := c.Apply(context.Background(), "a", setStatus("verified"), func(ctx context.Context, next item) error {
		return persistErr
	})
	if !errors.Is(err, persistErr) {
		t.Fatalf("error: got %v, want %v", err, persistErr)
	}

	v, _ := c.Get("a")
	if v.Status != "pending" || len(v.Tags) != 1 {
		t.Errorf("view after rollback: got %+v, want %+v", v, original)
	}

	events, values := rec.snapshot()
	if events[len(events)-2] != optimistic.EventApplied {
		t.Errorf("expected applied before rollback, got %v", events)
	}
	if values[len(values)-2].Status != "verified" {
		t.Errorf("applied value: got %q, want verified", values[len(values)-2].Status)
	}
	if events[len(events)-1] != optimistic.EventRolledBack {
		t.Errorf("last event: got %s, want rolled_back", events[len(events)-1])
	}
	if last := values[len(values)-1]; last.Status != "pending" || len(last.Tags) != 1 {
		t.Errorf("rolled back value: got %+v", last)
	}
}

func TestApplyRejectsBusyKey(t *testing.T) {
	c := newCoordinator(time.Second)
	if err := c.Track("a", item{Status: "pending"}); err != nil {
		t.Fatalf("track: %v", err)
	}

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		_, err := c.Apply(context.Background(), "a", setStatus("verified"), func(ctx context.Context, next item) error {
			close(started)
			<-release
			return nil
		})
		done <- err
	}()

	<-started

	calls := 0
	_, err := c.Apply(context.Background(), "a", setStatus("rejected"), func(ctx context.Context, next item) error {
		calls++
		return nil
	})
	if !errors.Is(err, optimistic.ErrBusy) {
		t.Errorf("second apply: got %v, want ErrBusy", err)
	}
	if calls != 0 {
		t.Errorf("busy apply persisted %d times", calls)
	}
	if err := c.Track("a", item{Status: "stale"}); !errors.Is(err, optimistic.ErrBusy) {
		t.Errorf("track while busy: got %v, want ErrBusy", err)
	}

	v, _ := c.Get("a")
	if v.Status != "verified" {
		t.Errorf("view while in flight: got %q, want verified", v.Status)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first apply: %v", err)
	}
}

func TestApplyIndependentKeys(t *testing.T) {
	c := newCoordinator(time.Second)
	for _, k := range []string{"a", "b"} {
		if err := c.Track(k, item{Status: "pending"}); err != nil {
			t.Fatalf("track %s: %v", k, err)
		}
	}

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := c.Apply(context.Background(), "a", setStatus("verified"), func(ctx context.Context, next item) error {
			close(started)
			<-release
			return nil
		})
		done <- err
	}()
	<-started

	if _, err := c.Apply(context.Background(), "b", setStatus("rejected"), func(ctx context.Context, next item) error {
		return nil
	}); err != nil {
		t.Errorf("apply on independent key: %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("apply a: %v", err)
	}
}

func TestApplyUntracked(t *testing.T) {
	c := newCoordinator(time.Second)
	_, err := c.Apply(context.Background(), "missing", setStatus("verified"), func(ctx context.Context, next item) error {
		t.Error("persist called for untracked key")
		return nil
	})
	if !errors.Is(err, optimistic.ErrUntracked) {
		t.Errorf("got %v, want ErrUntracked", err)
	}
}

func TestApplyMutateErrorPublishesNothing(t *testing.T) {
	c := newCoordinator(time.Second)
	rec := &recorder{}
	defer c.Subscribe(rec.observe)()

	if err := c.Track("a", item{Status: "verified"}); err != nil {
		t.Fatalf("track: %v", err)
	}

	guard := errors.New("not pending")
	_, err := c.Apply(context.Background(), "a",
		func(current item) (item, error) { return current, guard },
		func(ctx context.Context, next item) error {
			t.Error("persist called after mutate error")
			return nil
		},
	)
	if !errors.Is(err, guard) {
		t.Fatalf("got %v, want %v", err, guard)
	}

	events, _ := rec.snapshot()
	if len(events) != 1 || events[0] != optimistic.EventTracked {
		t.Errorf("events: got %v, want only tracked", events)
	}
	if c.InFlight("a") {
		t.Error("key left in flight after mutate error")
	}
}

func TestApplyTimeoutRollsBack(t *testing.T) {
	c := newCoordinator(20 * time.Millisecond)
	if err := c.Track("a", item{Status: "pending"}); err != nil {
		t.Fatalf("track: %v", err)
	}

	release := make(chan struct{})
	_, err := c.Apply(context.Background(), "a", setStatus("verified"), func(ctx context.Context, next item) error {
		<-release
		return nil
	})
	if !errors.Is(err, optimistic.ErrTimeout) {
		t.Fatalf("got %v, want ErrTimeout", err)
	}

	v, _ := c.Get("a")
	if v.Status != "pending" {
		t.Errorf("view after timeout: got %q, want pending", v.Status)
	}
	if !c.InFlight("a") {
		t.Error("key released before persist returned")
	}

	close(release)

	deadline := time.Now().Add(time.Second)
	for c.InFlight("a") {
		if time.Now().After(deadline) {
			t.Fatal("key never released after persist returned")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestApplyPersistIgnoresCallerCancellation(t *testing.T) {
	c := newCoordinator(time.Second)
	if err := c.Track("a", item{Status: "pending"}); err != nil {
		t.Fatalf("track: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Apply(ctx, "a", setStatus("verified"), func(pctx context.Context, next item) error {
		return pctx.Err()
	})
	if err != nil {
		t.Errorf("persist saw cancellation: %v", err)
	}
}

func TestMutateReceivesPrivateCopy(t *testing.T) {
	c := newCoordinator(time.Second)
	if err := c.Track("a", item{Status: "pending", Tags: []string{"x"}}); err != nil {
		t.Fatalf("track: %v", err)
	}

	_, err := c.Apply(context.Background(), "a",
		func(current item) (item, error) {
			current.Tags[0] = "mutated"
			return current, nil
		},
		func(ctx context.Context, next item) error { return errors.New("fail") },
	)
	if err == nil {
		t.Fatal("expected persist failure")
	}

	v, _ := c.Get("a")
	if v.Tags[0] != "x" {
		t.Errorf("snapshot aliased by mutate: got %q", v.Tags[0])
	}
}

func TestForgetKeepsInFlightKeys(t *testing.T) {
	c := newCoordinator(time.Second)
	if err := c.Track("a", item{}); err != nil {
		t.Fatalf("track: %v", err)
	}

	c.Forget("a")
	if _, ok := c.Get("a"); ok {
		t.Error("forgotten key still present")
	}

	if err := c.Track("b", item{}); err != nil {
		t.Fatalf("track: %v", err)
	}
	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Apply(context.Background(), "b", setStatus("x"), func(ctx context.Context, next item) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	c.Forget("b")
	if _, ok := c.Get("b"); !ok {
		t.Error("in-flight key dropped by Forget")
	}

	close(release)
	<-done
}

func TestSubscribeCancel(t *testing.T) {
	c := newCoordinator(time.Second)
	rec := &recorder{}
	cancel := c.Subscribe(rec.observe)
	cancel()

	if err := c.Track("a", item{}); err != nil {
		t.Fatalf("track: %v", err)
	}
	if events, _ := rec.snapshot(); len(events) != 0 {
		t.Errorf("cancelled observer received %v", events)
	}
}

func TestApplyFreshDropsSettledKey(t *testing.T) {
	c := newCoordinator(time.Second)
	rec := &recorder{}
	defer c.Subscribe(rec.observe)()

	got, err := c.ApplyFresh(context.Background(), "a", item{Status: "pending"}, setStatus("verified"),
		func(ctx context.Context, next item) error { return nil })
	if err != nil {
		t.Fatalf("apply fresh: %v", err)
	}
	if got.Status != "verified" {
		t.Errorf("status: got %q, want verified", got.Status)
	}
	if _, ok := c.Get("a"); ok {
		t.Error("settled key still in view")
	}

	events, _ := rec.snapshot()
	want := []optimistic.Event{optimistic.EventTracked, optimistic.EventApplied, optimistic.EventCommitted}
	if len(events) != len(want) {
		t.Fatalf("events: got %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d: got %s, want %s", i, events[i], want[i])
		}
	}
}

func TestApplyFreshBusyKeepsInFlightValue(t *testing.T) {
	c := newCoordinator(time.Second)

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := c.ApplyFresh(context.Background(), "a", item{Status: "pending"}, setStatus("verified"),
			func(ctx context.Context, next item) error {
				close(started)
				<-release
				return nil
			})
		done <- err
	}()
	<-started

	_, err := c.ApplyFresh(context.Background(), "a", item{Status: "stale"}, setStatus("rejected"),
		func(ctx context.Context, next item) error { return nil })
	if !errors.Is(err, optimistic.ErrBusy) {
		t.Fatalf("second caller: got %v, want ErrBusy", err)
	}
	if v, _ := c.Get("a"); v.Status != "verified" {
		t.Errorf("busy caller replaced the view: got %q", v.Status)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first caller: %v", err)
	}
}

func TestApplyFreshTimeoutDropsKeyAfterLatePersist(t *testing.T) {
	c := newCoordinator(20 * time.Millisecond)

	release := make(chan struct{})
	_, err := c.ApplyFresh(context.Background(), "a", item{Status: "pending"}, setStatus("verified"),
		func(ctx context.Context, next item) error {
			<-release
			return nil
		})
	if !errors.Is(err, optimistic.ErrTimeout) {
		t.Fatalf("got %v, want ErrTimeout", err)
	}
	if v, ok := c.Get("a"); !ok || v.Status != "pending" {
		t.Errorf("view while persist outstanding: got %+v, %v", v, ok)
	}

	close(release)

	deadline := time.Now().Add(time.Second)
	for c.InFlight("a") {
		if time.Now().After(deadline) {
			t.Fatal("key never released after persist returned")
		}
		time.Sleep(time.Millisecond)
	}
	if v, ok := c.Get("a"); ok {
		t.Errorf("rolled back snapshot left in view: %+v", v)
	}
}

func TestApplyFreshConcurrentCallers(t *testing.T) {
	c := newCoordinator(time.Second)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes = map[string]int{}
	)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 500 {
				_, err := c.ApplyFresh(context.Background(), "a", item{Status: "pending"}, setStatus("verified"),
					func(ctx context.Context, next item) error { return nil })

				key := "ok"
				switch {
				case err == nil:
				case errors.Is(err, optimistic.ErrBusy):
					key = "busy"
				default:
					key = err.Error()
				}
				mu.Lock()
				outcomes[key]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	for k, n := range outcomes {
		if k != "ok" && k != "busy" {
			t.Errorf("unexpected outcome %q (%d times)", k, n)
		}
	}
	if outcomes["ok"] == 0 {
		t.Error("no caller ever committed")
	}
	if _, ok := c.Get("a"); ok || c.InFlight("a") {
		t.Error("key left behind after every caller settled")
	}
}
