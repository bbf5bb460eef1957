package status

import (
	"errors"
	"testing"

	"github.com/matheus3301/jobdesk/internal/bus"
)

func TestInitialState(t *testing.T) {
	m := NewMachine(nil)
	if m.Current() != Booting {
		t.Errorf("initial state = %s, want BOOTING", m.Current())
	}
	if m.Serving() {
		t.Error("a booting session is not serving")
	}
}

func TestValidTransitions(t *testing.T) {
	tests := []struct {
		from State
		to   State
	}{
		{Booting, Unauthenticated},
		{Booting, Connecting},
		{Unauthenticated, Connecting},
		{Connecting, Ready},
		{Connecting, Degraded},
		{Ready, Degraded},
		{Degraded, Ready},
		{Ready, Stopped},
		{Stopped, Booting},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			m := NewMachine(nil)
			walkTo(t, m, tt.from)
			if err := m.Transition(tt.to); err != nil {
				t.Errorf("Transition(%s -> %s) error = %v", tt.from, tt.to, err)
			}
			if m.Current() != tt.to {
				t.Errorf("state = %s, want %s", m.Current(), tt.to)
			}
		})
	}
}

func TestInvalidTransition(t *testing.T) {
	m := NewMachine(nil)
	if err := m.Transition(Ready); err == nil {
		t.Error("Transition(BOOTING -> READY) should fail")
	}
	_ = m.Transition(Unauthenticated)
	if err := m.Transition(Ready); err == nil {
		t.Error("Transition(UNAUTHENTICATED -> READY) should fail; must connect first")
	}
}

func TestTransitionEmitsEvent(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe(bus.NamespaceSession, 10)
	defer unsub()

	m := NewMachine(b)
	if err := m.Transition(Connecting); err != nil {
		t.Fatal(err)
	}

	evt := <-ch
	if evt.Kind != bus.KindStatusChanged {
		t.Errorf("event kind = %q, want %s", evt.Kind, bus.KindStatusChanged)
	}
	change, ok := evt.Payload.(StatusChange)
	if !ok {
		t.Fatalf("payload type = %T, want StatusChange", evt.Payload)
	}
	if change.From != Booting || change.To != Connecting {
		t.Errorf("change = %v -> %v, want BOOTING -> CONNECTING", change.From, change.To)
	}
}

func TestSettleFollowsRefreshOutcome(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe(bus.NamespaceSession, 10)
	defer unsub()

	m := NewMachine(b)
	walkTo(t, m, Connecting)
	for len(ch) > 0 {
		<-ch
	}

	steps := []struct {
		err  error
		want State
	}{
		{nil, Ready},
		{nil, Ready},
		{errors.New("timeout"), Degraded},
		{errors.New("timeout"), Degraded},
		{nil, Ready},
	}
	for i, s := range steps {
		if err := m.Settle(s.err); err != nil {
			t.Fatalf("step %d: Settle: %v", i, err)
		}
		if m.Current() != s.want {
			t.Fatalf("step %d: state = %s, want %s", i, m.Current(), s.want)
		}
	}
	if !m.Serving() {
		t.Error("READY session should be serving")
	}
	if got := len(ch); got != 3 {
		t.Errorf("events = %d, want 3 (repeated outcomes are not transitions)", got)
	}
}

func TestSettleBeforeConnectFails(t *testing.T) {
	m := NewMachine(nil)
	_ = m.Transition(Unauthenticated)
	if err := m.Settle(nil); err == nil {
		t.Error("Settle from UNAUTHENTICATED should fail")
	}
}

func walkTo(t *testing.T, m *Machine, target State) {
	t.Helper()
	paths := map[State][]State{
		Booting:         {},
		Unauthenticated: {Unauthenticated},
		Connecting:      {Connecting},
		Ready:           {Connecting, Ready},
		Degraded:        {Connecting, Degraded},
		Stopped:         {Stopped},
	}
	for _, s := range paths[target] {
		if err := m.Transition(s); err != nil {
			t.Fatalf("walkTo(%s): %v", target, err)
		}
	}
}
