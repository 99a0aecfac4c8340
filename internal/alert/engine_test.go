package alert

import (
	"context"
	"errors"
	"pricewatch/internal/model"
	"sync"
	"testing"
	"time"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
	err   error
}

type notifyCall struct {
	webhook string
	n       model.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, webhookURL string, n model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, notifyCall{webhook: webhookURL, n: n})
	return r.err
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) tick()          { c.t = c.t.Add(time.Minute) }

func newTestEngine(defaultWebhook string) (*Engine, *recordingNotifier, *clock) {
	n := &recordingNotifier{}
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	e := NewEngine(n, func() string { return defaultWebhook }, nil)
	e.SetClock(c.now)
	return e, n, c
}

var subject = Subject{SourceID: "src", ProductName: "Switch", StoreName: "Amazon", Currency: "USD"}

func TestCreateStartsActive(t *testing.T) {
	e, _, _ := newTestEngine("")
	a, err := e.Create("prod", "src", 50, "")
	if err != nil {
		t.Fatal(err)
	}
	if a.State != model.StateActive || a.TriggeredAt != nil {
		t.Errorf("new alert = %+v", a)
	}
	if isActive, isTriggered := a.Flags(); !isActive || isTriggered {
		t.Errorf("flags = %v %v", isActive, isTriggered)
	}
}

func TestCreateValidation(t *testing.T) {
	e, _, _ := newTestEngine("")
	tests := []struct {
		product, source string
		target          float64
	}{
		{"", "src", 10},
		{"prod", "", 10},
		{"prod", "src", 0},
		{"prod", "src", -5},
	}
	for _, tt := range tests {
		if _, err := e.Create(tt.product, tt.source, tt.target, ""); !model.IsValidation(err) {
			t.Errorf("Create(%q, %q, %v) err = %v", tt.product, tt.source, tt.target, err)
		}
	}
	if len(e.List()) != 0 {
		t.Error("rejected alerts were stored")
	}
}

func TestTriggerFiresExactlyOnce(t *testing.T) {
	e, n, c := newTestEngine("https://ntfy.sh/default")
	a, _ := e.Create("prod", "src", 50, "")

	var firedAt *time.Time
	for _, price := range []float64{60, 55, 45, 40} {
		c.tick()
		deliveries := e.EvaluateAndNotify(context.Background(), subject, price)
		switch price {
		case 45:
			if len(deliveries) != 1 {
				t.Fatalf("price 45 produced %d deliveries", len(deliveries))
			}
			got, _ := e.Get(a.ID)
			firedAt = got.TriggeredAt
		default:
			if len(deliveries) != 0 {
				t.Fatalf("price %v produced %d deliveries", price, len(deliveries))
			}
		}
	}

	if n.count() != 1 {
		t.Fatalf("notifier called %d times", n.count())
	}
	call := n.calls[0]
	if call.n.CurrentPrice != 45 || call.n.TargetPrice != 50 || call.webhook != "https://ntfy.sh/default" {
		t.Errorf("notification = %+v via %s", call.n, call.webhook)
	}
	got, _ := e.Get(a.ID)
	if got.State != model.StateTriggered || got.TriggeredAt == nil || !got.TriggeredAt.Equal(*firedAt) {
		t.Errorf("triggeredAt changed: %v vs %v", got.TriggeredAt, firedAt)
	}
}

func TestTriggerAtExactTarget(t *testing.T) {
	e, _, _ := newTestEngine("")
	_, _ = e.Create("prod", "src", 50, "")
	if got := e.Evaluate("src", 50); len(got) != 1 {
		t.Errorf("price equal to target did not trigger")
	}
}

func TestEditReArms(t *testing.T) {
	e, n, _ := newTestEngine("")
	a, _ := e.Create("prod", "src", 50, "https://hooks.example/a")
	e.EvaluateAndNotify(context.Background(), subject, 45)

	edited, err := e.Edit(a.ID, 30, nil)
	if err != nil {
		t.Fatal(err)
	}
	if edited.State != model.StateActive || edited.TriggeredAt != nil || edited.WebhookURL != "https://hooks.example/a" {
		t.Fatalf("edited = %+v", edited)
	}

	e.EvaluateAndNotify(context.Background(), subject, 35)
	if n.count() != 1 {
		t.Fatalf("price above new target notified")
	}
	e.EvaluateAndNotify(context.Background(), subject, 30)
	e.EvaluateAndNotify(context.Background(), subject, 20)
	if n.count() != 2 {
		t.Errorf("notifier called %d times, want 2", n.count())
	}
}

func TestEditChangesWebhookAndValidates(t *testing.T) {
	e, _, _ := newTestEngine("")
	a, _ := e.Create("prod", "src", 50, "https://old")
	hook := " https://new "
	edited, _ := e.Edit(a.ID, 40, &hook)
	if edited.WebhookURL != "https://new" || edited.TargetPrice != 40 {
		t.Errorf("edited = %+v", edited)
	}
	if _, err := e.Edit(a.ID, 0, nil); !model.IsValidation(err) {
		t.Errorf("Edit with 0 target err = %v", err)
	}
	if got, _ := e.Get(a.ID); got.TargetPrice != 40 {
		t.Errorf("rejected edit mutated alert: %+v", got)
	}
	if _, err := e.Edit("missing", 10, nil); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Edit missing err = %v", err)
	}
}

func TestPausedAlertIsInert(t *testing.T) {
	e, n, _ := newTestEngine("")
	a, _ := e.Create("prod", "src", 50, "")
	if _, err := e.Pause(a.ID); err != nil {
		t.Fatal(err)
	}
	for _, price := range []float64{49, 1, 0} {
		e.EvaluateAndNotify(context.Background(), subject, price)
	}
	got, _ := e.Get(a.ID)
	if got.State != model.StatePaused || n.count() != 0 {
		t.Errorf("paused alert moved to %v after %d notifications", got.State, n.count())
	}

	_, _ = e.Resume(a.ID)
	if len(e.Evaluate("src", 10)) != 1 {
		t.Error("resumed alert did not trigger")
	}
}

func TestPauseTogglesActiveOnTriggered(t *testing.T) {
	e, n, c := newTestEngine("")
	a, _ := e.Create("prod", "src", 50, "")
	e.EvaluateAndNotify(context.Background(), subject, 45)
	triggered, _ := e.Get(a.ID)

	c.tick()
	paused, _ := e.Pause(a.ID)
	if isActive, isTriggered := paused.Flags(); isActive || !isTriggered {
		t.Errorf("paused triggered alert flags = (%v, %v), want (false, true)", isActive, isTriggered)
	}
	if paused.State.String() != "triggered" || !paused.TriggeredAt.Equal(*triggered.TriggeredAt) {
		t.Errorf("pause changed the trigger: %+v", paused)
	}
	if restored := model.StateFromFlags(paused.Flags()); restored != paused.State {
		t.Errorf("flags round trip gave %v, want %v", restored, paused.State)
	}

	resumed, _ := e.Resume(a.ID)
	if isActive, isTriggered := resumed.Flags(); !isActive || !isTriggered {
		t.Errorf("resumed triggered alert flags = (%v, %v), want (true, true)", isActive, isTriggered)
	}
	e.EvaluateAndNotify(context.Background(), subject, 40)
	if n.count() != 1 {
		t.Errorf("notifications = %d, want 1", n.count())
	}

	_, _ = e.Pause(a.ID)
	edited, _ := e.Edit(a.ID, 30, nil)
	if edited.State != model.StateActive || edited.TriggeredAt != nil {
		t.Errorf("edit did not re-arm paused triggered alert: %+v", edited)
	}
}

func TestNotifyFailureKeepsTrigger(t *testing.T) {
	e, n, _ := newTestEngine("")
	n.err = errors.New("webhook down")
	a, _ := e.Create("prod", "src", 50, "https://down")

	deliveries := e.EvaluateAndNotify(context.Background(), subject, 10)
	if len(deliveries) != 1 || deliveries[0].Err == nil {
		t.Fatalf("deliveries = %+v", deliveries)
	}
	got, _ := e.Get(a.ID)
	if got.State != model.StateTriggered {
		t.Errorf("failed delivery rolled back state to %v", got.State)
	}
	if d := e.EvaluateAndNotify(context.Background(), subject, 5); len(d) != 0 {
		t.Error("failed delivery re-fired on next evaluation")
	}
}

func TestEvaluateOnlyTouchesItsSource(t *testing.T) {
	e, _, _ := newTestEngine("")
	other, _ := e.Create("prod", "other", 50, "")
	_, _ = e.Create("prod", "src", 50, "")

	e.Evaluate("src", 1)
	if got, _ := e.Get(other.ID); got.State != model.StateActive {
		t.Errorf("alert of another source changed to %v", got.State)
	}
}

func TestDeleteAndDeleteBySource(t *testing.T) {
	e, _, _ := newTestEngine("")
	a1, _ := e.Create("prod", "src", 50, "")
	_, _ = e.Create("prod", "src", 40, "")
	keep, _ := e.Create("prod", "other", 40, "")

	if err := e.Delete(a1.ID); err != nil {
		t.Fatal(err)
	}
	if err := e.Delete(a1.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
	if removed := e.DeleteBySource("src"); len(removed) != 1 {
		t.Errorf("DeleteBySource removed %v", removed)
	}
	if len(e.Evaluate("src", 1)) != 0 {
		t.Error("deleted alerts still evaluated")
	}
	if all := e.List(); len(all) != 1 || all[0].ID != keep.ID {
		t.Errorf("List = %+v", all)
	}
}

func TestListOrderingAndFilters(t *testing.T) {
	e, _, c := newTestEngine("")
	first, _ := e.Create("p1", "s1", 10, "")
	c.tick()
	second, _ := e.Create("p2", "s2", 10, "")

	all := e.List()
	if len(all) != 2 || all[0].ID != second.ID || all[1].ID != first.ID {
		t.Errorf("List not newest first: %+v", all)
	}
	if got := e.ListByProduct("p1"); len(got) != 1 || got[0].ID != first.ID {
		t.Errorf("ListByProduct = %+v", got)
	}
	if got := e.ListBySource("s2"); len(got) != 1 || got[0].ID != second.ID {
		t.Errorf("ListBySource = %+v", got)
	}
}

func TestRestore(t *testing.T) {
	e, _, _ := newTestEngine("")
	at := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	e.Restore([]model.Alert{
		{ID: "a", ProductID: "p", SourceID: "s", TargetPrice: 10, State: model.StateTriggered, TriggeredAt: &at},
		{ID: "b", ProductID: "p", SourceID: "s", TargetPrice: 10, State: model.StateActive},
	})
	triggers := e.Evaluate("s", 5)
	if len(triggers) != 1 || triggers[0].Alert.ID != "b" {
		t.Errorf("restored triggered alert re-fired: %+v", triggers)
	}
}

func TestConcurrentEvaluateFiresOnce(t *testing.T) {
	e, n, _ := newTestEngine("")
	_, _ = e.Create("prod", "src", 50, "")

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.EvaluateAndNotify(context.Background(), subject, 10)
		}()
	}
	wg.Wait()
	if n.count() != 1 {
		t.Errorf("notifier called %d times under concurrency", n.count())
	}
}
