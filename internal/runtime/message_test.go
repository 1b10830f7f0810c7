package runtime

import "testing"

func TestMessageIdentityNotPayload(t *testing.T) {
	a := NewMessage(10)
	b := NewMessage(10)
	if a.Equal(b) {
		t.Fatalf("expected distinct ids for equal payloads")
	}
	if !a.Equal(a) {
		t.Fatalf("expected a message to equal itself")
	}
}

func TestMessagePayloadAndRelease(t *testing.T) {
	m := NewMessage("hello")
	if m.Payload() != "hello" {
		t.Fatalf("expected payload 'hello', got %q", m.Payload())
	}
	if m.Release() != "hello" {
		t.Fatalf("expected release 'hello', got %q", m.Release())
	}
}

func TestMessageIDsAreUnique(t *testing.T) {
	seen := make(map[uint64]bool)
	for i := 0; i < 10000; i++ {
		m := NewMessage(i)
		if seen[m.ID()] {
			t.Fatalf("duplicate id observed: %d", m.ID())
		}
		seen[m.ID()] = true
	}
}
