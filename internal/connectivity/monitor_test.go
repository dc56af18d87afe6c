package connectivity

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

type scriptedProber struct {
	results []error
	calls   int
}

func (p *scriptedProber) Probe(context.Context) error {
	err := p.results[p.calls%len(p.results)]
	p.calls++
	return err
}

func TestCheckReportsTransitionsOnly(t *testing.T) {
	offline := errors.New("unreachable")
	prober := &scriptedProber{results: []error{nil, nil, offline, offline, nil}}
	var seen []bool
	m := NewMonitor(prober, time.Hour, func(_ context.Context, online bool) { seen = append(seen, online) }, nil)

	if !m.Online() {
		t.Fatal("expected online before the first probe")
	}
	for range 5 {
		m.Check(t.Context())
	}
	want := []bool{true, false, true}
	if len(seen) != len(want) {
		t.Fatalf("expected transitions %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("expected transitions %v, got %v", want, seen)
		}
	}
}

func TestTCPProber(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	p := TCPProber{Address: addr, Timeout: time.Second}
	if err := p.Probe(t.Context()); err != nil {
		t.Fatalf("expected probe to succeed: %v", err)
	}
	ln.Close()
	if err := p.Probe(t.Context()); err == nil {
		t.Fatal("expected probe to fail after listener closed")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	prober := &scriptedProber{results: []error{nil}}
	m := NewMonitor(prober, 5*time.Millisecond, nil, nil)
	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run did not stop after cancel")
	}
}
