package fsm

import (
	"errors"
	"testing"

	"redis3/internal/adapter"
	"redis3/internal/mux"
	"redis3/internal/request"
)

func TestWriterWaitsWhenEmpty(t *testing.T) {
	m := mux.New(nil)
	w := NewWriter(m)
	if _, ok := w.Resume(EventStart{}).(ActionWait); !ok {
		t.Fatalf("expected ActionWait on empty mux")
	}
}

func TestWriterWritesThenCommits(t *testing.T) {
	m := mux.New(nil)
	r := request.New()
	r.Push("PING")
	elem := mux.NewElem(r, &adapter.Tree{}, nil)
	m.Add(elem)

	w := NewWriter(m)
	act := w.Resume(EventStart{})
	write, ok := act.(ActionWrite)
	if !ok {
		t.Fatalf("expected ActionWrite, got %#v", act)
	}
	if string(write.Buf) != "*1\r\n$4\r\nPING\r\n" {
		t.Fatalf("unexpected write buffer: %q", write.Buf)
	}

	act2 := w.Resume(EventWriteComplete{})
	if _, ok := act2.(ActionWait); !ok {
		t.Fatalf("expected ActionWait after commit, got %#v", act2)
	}
	if elem.Status() != mux.Written {
		t.Fatalf("expected element written, got %v", elem.Status())
	}
}

func TestWriterCancelRunOnWriteError(t *testing.T) {
	m := mux.New(nil)
	w := NewWriter(m)
	w.Resume(EventStart{})
	act := w.Resume(EventWriteComplete{Err: errors.New("boom")})
	if _, ok := act.(ActionCancelRun); !ok {
		t.Fatalf("expected ActionCancelRun, got %#v", act)
	}
}

func TestReaderAppendsThenDrains(t *testing.T) {
	m := mux.New(nil)
	buf := mux.NewReadBuffer(64, 0)
	r := NewReader(m, buf)

	if _, ok := r.Resume(EventStart{}).(ActionAppendSome); !ok {
		t.Fatal("expected ActionAppendSome on start")
	}

	prepared, err := r.Prepared()
	if err != nil {
		t.Fatal(err)
	}
	n := copy(prepared, []byte(">2\r\n+one\r\n+two\r\n"))

	act := r.Resume(EventReadComplete{N: n})
	notify, ok := act.(ActionNotifyPushReceiver)
	if !ok {
		t.Fatalf("expected ActionNotifyPushReceiver, got %#v", act)
	}
	if notify.Size == 0 {
		t.Fatal("expected nonzero push size")
	}

	act2 := r.Resume(EventPushDelivered{})
	if _, ok := act2.(ActionAppendSome); !ok {
		t.Fatalf("expected ActionAppendSome after push delivered, got %#v", act2)
	}
}

func TestExecImmediateNotConnected(t *testing.T) {
	m := mux.New(nil)
	r := request.New()
	r.Push("PING")
	r.SetConfig(request.Config{CancelIfNotConnected: true})
	elem := mux.NewElem(r, &adapter.Tree{}, nil)

	x := NewExec(m, elem)
	act := x.Resume(EventExecStart{Connected: false})
	done, ok := act.(ActionDone)
	if !ok || done.Err != ErrNotConnected {
		t.Fatalf("expected ActionDone{ErrNotConnected}, got %#v", act)
	}
}

func TestExecAddsAndNotifiesWriter(t *testing.T) {
	m := mux.New(nil)
	r := request.New()
	r.Push("PING")
	elem := mux.NewElem(r, &adapter.Tree{}, nil)

	x := NewExec(m, elem)
	act := x.Resume(EventExecStart{Connected: true})
	if _, ok := act.(ActionNotifyWriter); !ok {
		t.Fatalf("expected ActionNotifyWriter, got %#v", act)
	}
	if m.Len() != 1 {
		t.Fatalf("expected element added to mux")
	}

	act2 := x.Resume(EventResponseCheck{})
	if _, ok := act2.(ActionWaitForResponse); !ok {
		t.Fatalf("expected ActionWaitForResponse, got %#v", act2)
	}

	m.PrepareWrite()
	m.CommitWrite()
	m.ConsumeNext([]byte("+PONG\r\n"))

	act3 := x.Resume(EventResponseCheck{})
	done, ok := act3.(ActionDone)
	if !ok || done.Err != nil {
		t.Fatalf("expected successful ActionDone, got %#v", act3)
	}
}

func TestExecCancelWhileWaitingRemoves(t *testing.T) {
	m := mux.New(nil)
	r := request.New()
	r.Push("PING")
	elem := mux.NewElem(r, &adapter.Tree{}, nil)

	x := NewExec(m, elem)
	x.Resume(EventExecStart{Connected: true})

	act := x.Resume(EventCancel{})
	done, ok := act.(ActionDone)
	if !ok || done.Err != ErrAborted {
		t.Fatalf("expected ActionDone{ErrAborted}, got %#v", act)
	}
}
