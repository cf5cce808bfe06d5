package cache

import (
	"testing"
	"time"
)

func TestRegistry_NewInSharesTTL(t *testing.T) {
	reg := NewRegistry(48 * time.Hour)

	products := NewIn[string](reg, "products")
	links := NewIn[string](reg, "links")

	if products.ttl != reg.TTL() || links.ttl != reg.TTL() {
		t.Error("Registry members should share the registry TTL")
	}
}

func TestRegistry_SweepAll(t *testing.T) {
	reg := NewRegistry(time.Minute)
	base := time.Now()

	a := NewIn[string](reg, "a")
	b := NewIn[int](reg, "b")
	a.now = func() time.Time { return base }
	b.now = func() time.Time { return base }

	a.Set("x", "1")
	a.Set("y", "2")
	b.Set("z", 3)

	a.now = func() time.Time { return base.Add(2 * time.Minute) }
	b.now = func() time.Time { return base.Add(2 * time.Minute) }

	removed := reg.SweepAll()
	if removed["a"] != 2 {
		t.Errorf(`removed["a"] = %d, want 2`, removed["a"])
	}
	if removed["b"] != 1 {
		t.Errorf(`removed["b"] = %d, want 1`, removed["b"])
	}
}

func TestRegistry_Stats(t *testing.T) {
	reg := NewRegistry(time.Minute)
	a := NewIn[string](reg, "a")
	NewIn[string](reg, "b")

	a.Set("k", "v")

	stats := reg.Stats()
	if stats["a"] != 1 {
		t.Errorf(`stats["a"] = %d, want 1`, stats["a"])
	}
	if stats["b"] != 0 {
		t.Errorf(`stats["b"] = %d, want 0`, stats["b"])
	}
}

func TestRegistry_CachesAreIndependent(t *testing.T) {
	reg := NewRegistry(time.Minute)
	a := NewIn[string](reg, "a")
	b := NewIn[string](reg, "b")

	a.Set("shared-key", "from-a")
	if _, found := b.Get("shared-key"); found {
		t.Error("Caches in a registry must not share entries")
	}
}
