package logfeed

import "testing"

func TestDiscardAcceptsWithoutPanicking(t *testing.T) {
	Discard.Accept(LogEntry{Source: "test", Message: "hello"})
}

func TestMultiFansOutToEverySink(t *testing.T) {
	var a, b []LogEntry
	sinkA := sinkFunc(func(e LogEntry) { a = append(a, e) })
	sinkB := sinkFunc(func(e LogEntry) { b = append(b, e) })

	m := Multi{sinkA, sinkB}
	m.Accept(LogEntry{Source: "test", Message: "one"})

	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("a=%v b=%v, want one entry each", a, b)
	}
}

type sinkFunc func(LogEntry)

func (f sinkFunc) Accept(e LogEntry) { f(e) }
