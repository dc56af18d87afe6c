package connectivity

import (
	"context"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Prober interface {
	Probe(ctx context.Context) error
}

// TCPProber treats a successful TCP handshake with Address as being online.
type TCPProber struct {
	Address string
	Timeout time.Duration
}

func (p TCPProber) Probe(ctx context.Context) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", p.Address)
	if err != nil {
		return err
	}
	return conn.Close()
}

// Monitor polls a Prober and reports transitions between online and offline.
type Monitor struct {
	prober   Prober
	interval time.Duration
	onChange func(ctx context.Context, online bool)
	log      *zap.Logger

	mu     sync.Mutex
	online bool
	known  bool
}

func NewMonitor(prober Prober, interval time.Duration, onChange func(ctx context.Context, online bool), log *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Monitor{prober: prober, interval: interval, onChange: onChange, log: log.Named("connectivity")}
}

// Online reports the last observed state. Before the first probe it assumes
// the network is available.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.known || m.online
}

// Check probes once and fires onChange when the state differs from the last
// observation. The first observation always fires.
func (m *Monitor) Check(ctx context.Context) bool {
	err := m.prober.Probe(ctx)
	online := err == nil

	m.mu.Lock()
	changed := !m.known || m.online != online
	m.online, m.known = online, true
	m.mu.Unlock()

	if changed {
		if online {
			m.log.Info("network online")
		} else {
			m.log.Info("network offline", zap.Error(err))
		}
		if m.onChange != nil {
			m.onChange(ctx, online)
		}
	}
	return online
}

func (m *Monitor) Run(ctx context.Context) {
	m.Check(ctx)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}
