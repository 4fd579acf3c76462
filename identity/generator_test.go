package identity

import "testing"

func TestGenerateMonotonic(t *testing.T) {
	g := NewGenerator()
	a := g.Generate()
	b := g.Generate()
	if a == Genesis || b == Genesis {
		t.Fatalf("genesis sentinel must never be generated, got %d, %d", a, b)
	}
	if b <= a {
		t.Fatalf("expected monotonically increasing identities, got %d then %d", a, b)
	}
	if !g.Check(a) || !g.Check(b) {
		t.Fatalf("generated identities must be retained")
	}
}

func TestReleaseRecycles(t *testing.T) {
	g := NewGenerator()
	a := g.Generate()
	g.Release(a)
	if g.Check(a) {
		t.Fatalf("released identity should no longer be retained")
	}
	b := g.Generate()
	if b != a {
		t.Fatalf("expected released identity %d to be recycled, got %d", a, b)
	}
}

func TestReleaseUnretainedIsNoop(t *testing.T) {
	g := NewGenerator()
	g.Release(42)
	if g.Check(42) {
		t.Fatalf("releasing an identity never retained must not retain it")
	}
	a := g.Generate()
	if a == 42 {
		t.Fatalf("an unretained release must not be recycled")
	}
}

func TestRetainRaisesLowerBound(t *testing.T) {
	g := NewGenerator()
	g.Retain(100)
	next := g.Generate()
	if next <= 100 {
		t.Fatalf("expected generated identity above retained watermark, got %d", next)
	}
}

func TestIterReflectsRetained(t *testing.T) {
	g := NewGenerator()
	a := g.Generate()
	b := g.Generate()
	seen := map[Thing]bool{}
	for _, t := range g.Iter() {
		seen[t] = true
	}
	if !seen[a] || !seen[b] {
		t.Fatalf("Iter should include all retained identities")
	}
	if g.Len() != 2 {
		t.Fatalf("expected Len 2, got %d", g.Len())
	}
}
