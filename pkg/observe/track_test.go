package observe

import (
	"sync"
	"sync/atomic"
	"testing"
)

// testCounter is a hand-written observed type with one tracked property,
// written against the same accessor contract a generator would target.
type testCounter struct {
	Base
	value int
}

var testCounterValue = KeyFor[testCounter]("value")

func (c *testCounter) Value() int {
	c.Registrar().Access(testCounterValue)
	return c.value
}

func (c *testCounter) SetValue(v int) {
	c.Registrar().WithMutation(testCounterValue, func() {
		c.value = v
	})
}

// testPair has two independently tracked properties.
type testPair struct {
	Base
	a, b int
}

var (
	testPairA = KeyFor[testPair]("a")
	testPairB = KeyFor[testPair]("b")
)

func (p *testPair) A() int {
	p.Registrar().Access(testPairA)
	return p.a
}

func (p *testPair) SetA(v int) {
	p.Registrar().WithMutation(testPairA, func() {
		p.a = v
	})
}

func (p *testPair) B() int {
	p.Registrar().Access(testPairB)
	return p.b
}

func (p *testPair) SetB(v int) {
	p.Registrar().WithMutation(testPairB, func() {
		p.b = v
	})
}

func TestWithTrackingOneShot(t *testing.T) {
	c := &testCounter{}
	fires := 0

	got := WithTracking(func() int {
		return c.Value()
	}, func() {
		fires++
	})
	if got != 0 {
		t.Errorf("expected read block to return 0, got %d", got)
	}

	c.SetValue(1)
	if fires != 1 {
		t.Errorf("expected 1 fire after first mutation, got %d", fires)
	}

	c.SetValue(2)
	if fires != 1 {
		t.Errorf("one-shot callback fired again, got %d fires", fires)
	}

	if n := c.Registrar().pendingObservations(); n != 0 {
		t.Errorf("expected no pending observations after fire, got %d", n)
	}
}

func TestWithTrackingSelectivity(t *testing.T) {
	p := &testPair{}
	fires := 0

	WithTracking(func() int {
		return p.A()
	}, func() {
		fires++
	})

	p.SetB(5)
	if fires != 0 {
		t.Errorf("mutating untracked property fired callback %d times", fires)
	}

	p.SetA(1)
	if fires != 1 {
		t.Errorf("expected 1 fire after tracked mutation, got %d", fires)
	}
}

func TestWithTrackingCoalescing(t *testing.T) {
	p := &testPair{}
	fires := 0

	WithTracking(func() int {
		return p.A() + p.B()
	}, func() {
		fires++
	})

	p.SetA(1)
	p.SetB(2)
	if fires != 1 {
		t.Errorf("expected exactly 1 fire for two tracked mutations, got %d", fires)
	}
}

func TestWithTrackingCrossObject(t *testing.T) {
	x := &testCounter{}
	y := &testPair{}
	fires := 0

	WithTracking(func() int {
		return x.Value() + y.B()
	}, func() {
		fires++
	})

	y.SetB(7)
	if fires != 1 {
		t.Fatalf("expected 1 fire after mutating second object, got %d", fires)
	}

	// Firing through y must tear down the registration on x too.
	if n := x.Registrar().pendingObservations(); n != 0 {
		t.Errorf("expected x's registration removed after firing via y, got %d pending", n)
	}
	x.SetValue(1)
	if fires != 1 {
		t.Errorf("stale registration on first object fired, got %d fires", fires)
	}
}

func TestWithTrackingNestedScopes(t *testing.T) {
	x := &testPair{}
	y := &testPair{}
	outerFires := 0
	innerFires := 0

	WithTracking(func() int {
		v := x.A()
		WithTracking(func() int {
			return x.A() + y.B()
		}, func() {
			innerFires++
		})
		return v
	}, func() {
		outerFires++
	})

	// The inner scope's accesses merge into the outer scope, so the
	// outer callback observes y.b as well.
	y.SetB(1)
	if innerFires != 1 {
		t.Errorf("expected inner callback to fire once, got %d", innerFires)
	}
	if outerFires != 1 {
		t.Errorf("expected outer callback to fire once via merged access, got %d", outerFires)
	}

	// Both scopes already fired; the shared property stays quiet.
	x.SetA(1)
	if innerFires != 1 || outerFires != 1 {
		t.Errorf("one-shot violated after nested fire: inner=%d outer=%d", innerFires, outerFires)
	}
}

func TestWithTrackingNestedSharedProperty(t *testing.T) {
	x := &testPair{}
	outerFires := 0
	innerFires := 0

	WithTracking(func() int {
		v := x.A()
		WithTracking(func() int {
			return x.A()
		}, func() {
			innerFires++
		})
		return v
	}, func() {
		outerFires++
	})

	x.SetA(1)
	if innerFires != 1 {
		t.Errorf("expected inner callback once, got %d", innerFires)
	}
	if outerFires != 1 {
		t.Errorf("expected outer callback once, got %d", outerFires)
	}
}

func TestWithTrackingIndependentScopes(t *testing.T) {
	p := &testPair{}
	aFires := 0
	bFires := 0

	WithTracking(func() int { return p.A() }, func() { aFires++ })
	WithTracking(func() int { return p.B() }, func() { bFires++ })

	p.SetA(1)
	if aFires != 1 || bFires != 0 {
		t.Errorf("after SetA: aFires=%d bFires=%d, want 1 0", aFires, bFires)
	}

	p.SetB(1)
	if aFires != 1 || bFires != 1 {
		t.Errorf("after SetB: aFires=%d bFires=%d, want 1 1", aFires, bFires)
	}
}

func TestWithTrackingRearmFromCallback(t *testing.T) {
	c := &testCounter{}
	var fires atomic.Int64

	var arm func()
	arm = func() {
		WithTracking(func() int {
			return c.Value()
		}, func() {
			fires.Add(1)
			arm()
		})
	}
	arm()

	// Each mutation fires the current registration, whose callback
	// re-arms from inside the delivery path. No deadlock, no missed
	// re-registration.
	for i := 1; i <= 3; i++ {
		c.SetValue(i)
	}
	if got := fires.Load(); got != 3 {
		t.Errorf("expected 3 fires with re-arming callback, got %d", got)
	}
}

func TestStartTrackingCancel(t *testing.T) {
	c := &testCounter{}
	fires := 0

	tracking := StartTracking(func() {
		_ = c.Value()
	}, func() {
		fires++
	})

	tracking.Cancel()
	if n := c.Registrar().pendingObservations(); n != 0 {
		t.Errorf("expected cancel to remove registration, got %d pending", n)
	}

	c.SetValue(1)
	if fires != 0 {
		t.Errorf("cancelled tracking fired %d times", fires)
	}

	// Cancel after cancel is a no-op.
	tracking.Cancel()
}

func TestTrackingCancelAfterFire(t *testing.T) {
	c := &testCounter{}
	fires := 0

	tracking := StartTracking(func() {
		_ = c.Value()
	}, func() {
		fires++
	})

	c.SetValue(1)
	if fires != 1 {
		t.Fatalf("expected 1 fire, got %d", fires)
	}

	tracking.Cancel()
	if fires != 1 {
		t.Errorf("cancel after fire changed fire count to %d", fires)
	}
}

func TestUntracked(t *testing.T) {
	p := &testPair{}
	fires := 0

	WithTracking(func() int {
		v := p.A()
		Untracked(func() {
			_ = p.B()
		})
		return v
	}, func() {
		fires++
	})

	p.SetB(1)
	if fires != 0 {
		t.Errorf("untracked read became a dependency, fires=%d", fires)
	}

	p.SetA(1)
	if fires != 1 {
		t.Errorf("expected tracked read to fire once, got %d", fires)
	}
}

func TestWithTrackingNoReads(t *testing.T) {
	c := &testCounter{}
	fires := 0

	WithTracking(func() int {
		return 42
	}, func() {
		fires++
	})

	c.SetValue(1)
	if fires != 0 {
		t.Errorf("scope with no tracked reads fired %d times", fires)
	}
}

func TestWithTrackingPanicRestoresSlot(t *testing.T) {
	c := &testCounter{}
	fires := 0

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic from read block to propagate")
			}
		}()
		WithTracking(func() int {
			_ = c.Value()
			panic("read block failure")
		}, func() {
			fires++
		})
	}()

	// Slot restored: reads outside any scope record nothing.
	if currentAccessList() != nil {
		t.Error("access list slot not restored after panicking read block")
	}

	// Nothing registered for a scope that failed.
	c.SetValue(1)
	if fires != 0 {
		t.Errorf("panicking scope still armed its callback, fires=%d", fires)
	}
}

func TestWithTrackingNilOnChangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for nil onChange")
		}
	}()
	WithTracking(func() int { return 0 }, nil)
}

func TestWithTrackingConcurrentScopes(t *testing.T) {
	c := &testCounter{}
	var fires atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			WithTracking(func() int {
				return c.Value()
			}, func() {
				fires.Add(1)
			})
		}()
	}
	wg.Wait()

	c.SetValue(1)
	if got := fires.Load(); got != 8 {
		t.Errorf("expected all 8 concurrent scopes to fire once, got %d", got)
	}

	c.SetValue(2)
	if got := fires.Load(); got != 8 {
		t.Errorf("one-shot violated across concurrent scopes, got %d", got)
	}
}
