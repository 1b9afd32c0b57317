package mqtt

import (
	"testing"

	"github.com/rs/zerolog"
)

func newTestBuffer(capacity int) *ringBuffer {
	return newRingBuffer(capacity, zerolog.Nop())
}

func TestRingBufferEmptyDrain(t *testing.T) {
	rb := newTestBuffer(10)
	got := rb.drainAll()
	if got != nil {
		t.Errorf("expected nil from empty drain, got %d items", len(got))
	}
}

func TestRingBufferPushAndDrain(t *testing.T) {
	rb := newTestBuffer(10)
	for i := 0; i < 5; i++ {
		rb.push(bufferedMsg{topic: "t", payload: []byte{byte(i)}})
	}

	got := rb.drainAll()
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i := 0; i < 5; i++ {
		if got[i].payload[0] != byte(i) {
			t.Errorf("item %d: expected payload %d, got %d", i, i, got[i].payload[0])
		}
	}

	// Second drain should be empty
	got2 := rb.drainAll()
	if got2 != nil {
		t.Errorf("expected nil from second drain, got %d items", len(got2))
	}
}

func TestRingBufferFillToCapacity(t *testing.T) {
	cap := 10
	rb := newTestBuffer(cap)
	for i := 0; i < cap; i++ {
		rb.push(bufferedMsg{topic: "t", payload: []byte{byte(i)}})
	}

	got := rb.drainAll()
	if len(got) != cap {
		t.Fatalf("expected %d items, got %d", cap, len(got))
	}
	for i := 0; i < cap; i++ {
		if got[i].payload[0] != byte(i) {
			t.Errorf("item %d: expected payload %d, got %d", i, i, got[i].payload[0])
		}
	}
}

func TestRingBufferOverflow(t *testing.T) {
	cap := 5
	rb := newTestBuffer(cap)

	// Push cap+3 items (0..7), buffer should keep the most recent 5 (3..7)
	for i := 0; i < cap+3; i++ {
		rb.push(bufferedMsg{topic: "t", payload: []byte{byte(i)}})
	}

	got := rb.drainAll()
	if len(got) != cap {
		t.Fatalf("expected %d items, got %d", cap, len(got))
	}
	for i := 0; i < cap; i++ {
		want := byte(i + 3) // oldest 3 were dropped
		if got[i].payload[0] != want {
			t.Errorf("item %d: expected payload %d, got %d", i, want, got[i].payload[0])
		}
	}
}

func TestRingBufferLen(t *testing.T) {
	rb := newTestBuffer(10)
	if rb.len() != 0 {
		t.Errorf("empty buffer len: got %d", rb.len())
	}

	rb.push(bufferedMsg{topic: "t"})
	rb.push(bufferedMsg{topic: "t"})
	if rb.len() != 2 {
		t.Errorf("len after 2 pushes: got %d", rb.len())
	}

	rb.drainAll()
	if rb.len() != 0 {
		t.Errorf("len after drain: got %d", rb.len())
	}
}

func TestRingBufferReuseAfterDrain(t *testing.T) {
	rb := newTestBuffer(3)

	rb.push(bufferedMsg{payload: []byte{1}})
	rb.drainAll()

	for i := 10; i < 13; i++ {
		rb.push(bufferedMsg{payload: []byte{byte(i)}})
	}

	got := rb.drainAll()
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}
	for i, msg := range got {
		if msg.payload[0] != byte(10+i) {
			t.Errorf("item %d: expected %d, got %d", i, 10+i, msg.payload[0])
		}
	}
}

func TestRingBufferPreservesMessageFields(t *testing.T) {
	rb := newTestBuffer(5)
	rb.push(bufferedMsg{topic: TopicSystem, payload: []byte("x"), qos: 1, retained: true})

	got := rb.drainAll()
	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	msg := got[0]
	if msg.topic != TopicSystem || msg.qos != 1 || !msg.retained {
		t.Errorf("message fields not preserved: %+v", msg)
	}
}
