package tracker

import (
	"context"
	"reflect"
	"testing"
	"time"

	"ircnotify/pkg/types"
)

type fakeClock struct {
	nextID    int
	schedules map[int]func()
	cancelled map[int]func()
	intervals []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{schedules: make(map[int]func()), cancelled: make(map[int]func())}
}

func (c *fakeClock) Every(interval time.Duration, fn func()) int {
	c.nextID++
	c.schedules[c.nextID] = fn
	c.intervals = append(c.intervals, interval)
	return c.nextID
}

func (c *fakeClock) Cancel(id int) {
	if fn, ok := c.schedules[id]; ok {
		c.cancelled[id] = fn
		delete(c.schedules, id)
	}
}

func (c *fakeClock) fireAll() {
	for _, fn := range c.schedules {
		fn()
	}
}

type fakeNetworks struct {
	states []types.ServerState
}

func (n *fakeNetworks) Networks() []types.ServerState { return n.states }

func (n *fakeNetworks) setAway(network string, away bool) {
	for i := range n.states {
		if n.states[i].Network == network {
			n.states[i].Away = away
		}
	}
}

type countingClearer struct {
	count int
}

func (c *countingClearer) Clear(context.Context) { c.count++ }

func TestTickDetectsReturn(t *testing.T) {
	nets := &fakeNetworks{states: []types.ServerState{
		{Network: "libera", Away: true, Nick: "bob"},
		{Network: "oftc", Away: true, Nick: "bob"},
	}}
	clearer := &countingClearer{}
	tr := New(context.Background(), newFakeClock(), nets, clearer)

	// 第一次观察只记录
	if tr.Tick(context.Background()) {
		t.Fatal("first observation must not count as a transition")
	}
	want := map[string]bool{"libera": true, "oftc": true}
	if got := tr.Memory(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Memory() = %v, want %v", got, want)
	}

	if tr.Tick(context.Background()) || clearer.count != 0 {
		t.Fatalf("unchanged tick sent %d clears, want 0", clearer.count)
	}
	if got := tr.Memory(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Memory() after unchanged tick = %v, want %v", got, want)
	}

	nets.setAway("libera", false)
	if !tr.Tick(context.Background()) {
		t.Fatal("expected clear on return")
	}
	if clearer.count != 1 {
		t.Fatalf("clears = %d, want 1", clearer.count)
	}
	want = map[string]bool{"libera": false, "oftc": true}
	if got := tr.Memory(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Memory() = %v, want %v", got, want)
	}

	if tr.Tick(context.Background()) || clearer.count != 1 {
		t.Fatalf("second present tick sent extra clear, total %d", clearer.count)
	}
}

func TestTickClearsOncePerTick(t *testing.T) {
	nets := &fakeNetworks{states: []types.ServerState{
		{Network: "a", Away: true},
		{Network: "b", Away: true},
		{Network: "c", Away: true},
	}}
	clearer := &countingClearer{}
	tr := New(context.Background(), newFakeClock(), nets, clearer)
	tr.Tick(context.Background())

	for _, n := range []string{"a", "b", "c"} {
		nets.setAway(n, false)
	}
	tr.Tick(context.Background())

	if clearer.count != 1 {
		t.Errorf("clears = %d, want exactly 1 for a tick with three returns", clearer.count)
	}
}

func TestTickFirstSeenPresentIsNotReturn(t *testing.T) {
	nets := &fakeNetworks{states: []types.ServerState{{Network: "libera", Away: true}}}
	clearer := &countingClearer{}
	tr := New(context.Background(), newFakeClock(), nets, clearer)
	tr.Tick(context.Background())

	// 新出现的网络直接是在线状态
	nets.states = append(nets.states, types.ServerState{Network: "oftc", Away: false})
	tr.Tick(context.Background())

	if clearer.count != 0 {
		t.Errorf("clears = %d, want 0", clearer.count)
	}
}

func TestSetEnabledKeepsSingleSchedule(t *testing.T) {
	clock := newFakeClock()
	nets := &fakeNetworks{states: []types.ServerState{{Network: "libera", Away: true}}}
	clearer := &countingClearer{}
	tr := New(context.Background(), clock, nets, clearer)

	for _, enabled := range []bool{false, true, false, true} {
		tr.SetEnabled(enabled)
		if got := tr.Active(); got != enabled {
			t.Fatalf("Active() = %v after SetEnabled(%v)", got, enabled)
		}
	}

	if len(clock.schedules) != 1 {
		t.Fatalf("live schedules = %d, want 1", len(clock.schedules))
	}
	for _, d := range clock.intervals {
		if d != PollInterval {
			t.Errorf("interval = %s, want %s", d, PollInterval)
		}
	}

	// 已取消调度的回调即使被延迟执行也不生效
	for _, fn := range clock.cancelled {
		fn()
	}
	if got := tr.Memory(); len(got) != 0 {
		t.Fatalf("cancelled schedule polled networks: %v", got)
	}

	clock.fireAll()
	if got := tr.Memory(); !got["libera"] {
		t.Fatalf("live schedule did not poll, memory = %v", got)
	}

	tr.SetEnabled(false)
	if len(clock.schedules) != 0 {
		t.Fatalf("live schedules = %d after disable, want 0", len(clock.schedules))
	}
}

func TestSetEnabledTwiceReplacesSchedule(t *testing.T) {
	clock := newFakeClock()
	tr := New(context.Background(), clock, &fakeNetworks{}, &countingClearer{})

	tr.SetEnabled(true)
	tr.SetEnabled(true)

	if len(clock.schedules) != 1 {
		t.Fatalf("live schedules = %d, want 1", len(clock.schedules))
	}
	if len(clock.cancelled) != 1 {
		t.Fatalf("cancelled schedules = %d, want 1", len(clock.cancelled))
	}
}

func TestTickMergesDuplicateNetworks(t *testing.T) {
	nets := &fakeNetworks{states: []types.ServerState{
		{Network: "libera", Away: true, Nick: "bob"},
		{Network: "libera", Away: false, Nick: "bob"},
	}}
	clearer := &countingClearer{}
	tr := New(context.Background(), newFakeClock(), nets, clearer)

	for i := 0; i < 5; i++ {
		tr.Tick(context.Background())
	}
	if clearer.count != 0 {
		t.Fatalf("clears = %d over unchanged ticks, want 0", clearer.count)
	}
	if got := tr.Memory(); !reflect.DeepEqual(got, map[string]bool{"libera": false}) {
		t.Fatalf("Memory() = %v, want libera present", got)
	}

	// 两个会话都离开后再有一个返回，才算一次返回
	nets.states[1].Away = true
	tr.Tick(context.Background())
	nets.states[0].Away = false
	tr.Tick(context.Background())
	tr.Tick(context.Background())
	if clearer.count != 1 {
		t.Fatalf("clears = %d, want 1", clearer.count)
	}
}
