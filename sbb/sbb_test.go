package sbb

import "testing"

func TestHeaderOrderEnforced(t *testing.T) {
	b := NewBoard("e1")
	if err := b.Post("setup:start", map[string]interface{}{"about": "x"}, false); err != nil {
		t.Fatal(err)
	}
	if err := b.Post("setup:voters", nil, false); err != ErrOutOfOrder {
		t.Errorf("expected ErrOutOfOrder, got %v", err)
	}
}

func TestCanonicalIsDeterministic(t *testing.T) {
	b1 := NewBoard("e1")
	_ = b1.Post("setup:start", map[string]interface{}{"b": 2, "a": 1}, false)
	b2 := NewBoard("e1")
	_ = b2.Post("setup:start", map[string]interface{}{"a": 1, "b": 2}, false)

	d1, err := b1.Canonical(2, "")
	if err != nil {
		t.Fatal(err)
	}
	d2, err := b2.Canonical(2, "")
	if err != nil {
		t.Fatal(err)
	}
	if string(d1) != string(d2) {
		t.Errorf("canonical serialization is not key-order independent:\n%s\nvs\n%s", d1, d2)
	}
}

func TestHashChangesWithContent(t *testing.T) {
	b1 := NewBoard("e1")
	_ = b1.Post("setup:start", map[string]interface{}{"about": "x"}, false)
	h1, err := b1.HashThrough(2, "")
	if err != nil {
		t.Fatal(err)
	}

	b2 := NewBoard("e1")
	_ = b2.Post("setup:start", map[string]interface{}{"about": "y"}, false)
	h2, err := b2.HashThrough(2, "")
	if err != nil {
		t.Fatal(err)
	}
	if h1 == h2 {
		t.Errorf("differing transcripts hashed identically")
	}
}

func TestCloseRejectsFurtherPosts(t *testing.T) {
	b := NewBoard("e1")
	for _, h := range Headers[1 : len(Headers)-1] {
		if err := b.Post(h, nil, false); err != nil {
			t.Fatalf("posting %s: %v", h, err)
		}
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if err := b.Post("sbb:open", nil, false); err != ErrClosed {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
