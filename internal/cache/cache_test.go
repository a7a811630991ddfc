package cache

import (
	"testing"
	"time"
)

func TestCache_SetGetDelete(t *testing.T) {
	c := New(time.Minute)

	if _, ok := c.Get("k"); ok {
		t.Fatalf("empty cache returned a value")
	}

	c.Set("k", 42)

	v, ok := c.Get("k")
	if !ok {
		t.Fatalf("value not found after Set")
	}
	if v.(int) != 42 {
		t.Fatalf("got %v, want 42", v)
	}

	c.Delete("k")

	if _, ok := c.Get("k"); ok {
		t.Fatalf("value survived Delete")
	}
}

func TestCache_Expiry(t *testing.T) {
	c := New(20 * time.Millisecond)

	c.Set("k", "v")

	if _, ok := c.Get("k"); !ok {
		t.Fatalf("value missing before expiry")
	}

	time.Sleep(40 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatalf("value survived past its TTL")
	}
}

func TestCache_Clear(t *testing.T) {
	c := New(time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()

	if _, ok := c.Get("a"); ok {
		t.Fatalf("value survived Clear")
	}
	if _, ok := c.Get("b"); ok {
		t.Fatalf("value survived Clear")
	}
}
