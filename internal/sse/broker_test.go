package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// next waits for one frame on ch.
func next(t *testing.T, ch chan []byte) string {
	t.Helper()
	select {
	case msg := <-ch:
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
		return ""
	}
}

// drain collects every frame already queued on ch.
func drain(ch chan []byte) []string {
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func TestClientCountFollowsSubscriptions(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	a, c := b.Subscribe(), b.Subscribe()
	if n := b.ClientCount(); n != 2 {
		t.Fatalf("clients = %d, want 2", n)
	}
	b.Unsubscribe(a)
	if n := b.ClientCount(); n != 1 {
		t.Fatalf("clients = %d after one unsubscribe, want 1", n)
	}
	b.Unsubscribe(c)
	if n := b.ClientCount(); n != 0 {
		t.Fatalf("clients = %d, want 0", n)
	}
}

func TestPublishNote_CreatedFrame(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishNote(NoteChange{Kind: KindCreated, ID: "n1"})

	if got, want := next(t, ch), "event: note.created\ndata: {\"id\":\"n1\"}\n\n"; got != want {
		t.Errorf("frame = %q, want %q", got, want)
	}
	if got := next(t, ch); !strings.HasPrefix(got, "event: notes.invalidated\n") {
		t.Errorf("second frame = %q, want notes.invalidated", got)
	}
}

func TestPublishNote_InvalidationThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Only the first change inside the window invalidates the list.
	b.PublishNote(NoteChange{Kind: KindCreated, ID: "a"})
	b.PublishNote(NoteChange{Kind: KindUpdated, ID: "b"})
	b.PublishNote(NoteChange{Kind: KindDeleted, ID: "a"})
	time.Sleep(50 * time.Millisecond)

	var invalidated, changes int
	for _, msg := range drain(ch) {
		if strings.Contains(msg, "notes.invalidated") {
			invalidated++
		} else {
			changes++
		}
	}
	if changes != 3 {
		t.Errorf("note events = %d, want 3", changes)
	}
	if invalidated != 1 {
		t.Errorf("invalidation events = %d, want 1 (throttled)", invalidated)
	}
}

func TestPublishNote_Toggled(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishNote(NoteChange{Kind: KindToggled, ID: "n1", Item: "milk"})

	s := next(t, ch)
	if !strings.Contains(s, "event: checklist.toggled") {
		t.Errorf("missing event type in %q", s)
	}
	if !strings.Contains(s, `"item":"milk"`) || !strings.Contains(s, `"id":"n1"`) {
		t.Errorf("missing data in %q", s)
	}
}

func TestPublishNote_UnknownKindIgnored(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishNote(NoteChange{Kind: "renamed", ID: "x"})
	select {
	case msg := <-ch:
		t.Errorf("unexpected message %q", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestServeHTTP_StreamsNoteChanges(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for b.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("handler never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	b.PublishNote(NoteChange{Kind: KindDeleted, ID: "gone"})
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
	body := w.Body.String()
	del := strings.Index(body, "event: note.deleted")
	inv := strings.Index(body, "event: notes.invalidated")
	if del < 0 || inv < 0 || inv < del {
		t.Errorf("want note.deleted then notes.invalidated, got %q", body)
	}

	time.Sleep(50 * time.Millisecond)
	if n := b.ClientCount(); n != 0 {
		t.Errorf("clients = %d after disconnect, want 0", n)
	}
}

func TestServeHTTP_ReturnsOnClose(t *testing.T) {
	b := NewBroker(time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	w := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	b.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream still open after Close")
	}
}

func TestPublishNote_SlowClientDoesNotBlock(t *testing.T) {
	b := NewBroker(time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	finished := make(chan struct{})
	go func() {
		for i := 0; i < 500; i++ {
			b.PublishNote(NoteChange{Kind: KindUpdated, ID: "busy"})
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("publishing blocked on a client that never reads")
	}
}

func TestCloseEndsSubscriptions(t *testing.T) {
	b := NewBroker(time.Hour)
	ch := b.Subscribe()

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}
	if n := b.ClientCount(); n != 0 {
		t.Fatalf("clients = %d after close, want 0", n)
	}

	// Publishing after close is a no-op.
	b.PublishNote(NoteChange{Kind: KindUpdated, ID: "x"})
	b.Publish(Event{Type: "note.updated", Data: map[string]string{"id": "x"}})
	if _, ok := <-b.Subscribe(); ok {
		t.Error("subscribe after close should return a closed channel")
	}
}
