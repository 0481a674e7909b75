package serialdma

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Registry maps port identities to their channel pairs. The set of ports is
// fixed once initialisation is done; lookups may run concurrently with each
// other and with traffic.
type Registry struct {
	mu       sync.RWMutex
	maxPorts int
	ports    map[PortID]*Port
	order    []PortID
	txCap    int
	rxCap    int
	logger   *slog.Logger
	log      *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger used by the registry and its channels.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithDefaultCapacities sets the ring sizes InitPort uses when it is passed
// a zero capacity.
func WithDefaultCapacities(tx, rx int) RegistryOption {
	return func(r *Registry) {
		r.txCap = tx
		r.rxCap = rx
	}
}

// NewRegistry returns an empty registry that accepts up to maxPorts ports.
func NewRegistry(maxPorts int, opts ...RegistryOption) *Registry {
	r := &Registry{
		maxPorts: maxPorts,
		ports:    make(map[PortID]*Port, maxPorts),
		txCap:    DefaultRingSize,
		rxCap:    DefaultRingSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = DefaultLogger()
	}
	r.log = componentLogger(r.logger, ComponentRegistry, "")
	return r
}

// InitPort builds the transmit and receive rings for id, binds engine to the
// new port, registers it and opens reception. A zero capacity selects the
// registry default.
func (r *Registry) InitPort(id PortID, engine Engine, txCapacity, rxCapacity int) (*Port, error) {
	if engine == nil {
		return nil, fmt.Errorf("init port %q: nil engine", id)
	}
	if txCapacity == 0 {
		txCapacity = r.txCap
	}
	if rxCapacity == 0 {
		rxCapacity = r.rxCap
	}
	txRing, err := NewRingBuffer(txCapacity)
	if err != nil {
		return nil, fmt.Errorf("init port %q: tx ring: %w", id, err)
	}
	rxRing, err := NewRingBuffer(rxCapacity)
	if err != nil {
		return nil, fmt.Errorf("init port %q: rx ring: %w", id, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ports[id]; ok {
		return nil, fmt.Errorf("init port %q: %w", id, ErrPortExists)
	}
	if len(r.ports) >= r.maxPorts {
		return nil, fmt.Errorf("init port %q: %w", id, ErrRegistryFull)
	}

	p := &Port{
		id:     id,
		engine: engine,
		tx:     newTxChannel(txRing, engine, componentLogger(r.logger, ComponentTx, id)),
		rx:     newRxChannel(rxRing, engine, componentLogger(r.logger, ComponentRx, id)),
		done:   make(chan struct{}),
	}
	// The port is published only once its engine delivers events to it, so
	// no caller can start a leg whose completion would go nowhere.
	engine.Bind(p)
	p.rx.Start()
	r.ports[id] = p
	r.order = append(r.order, id)

	r.log.Info("port initialised", "port", string(id), "tx_capacity", txCapacity, "rx_capacity", rxCapacity)
	return p, nil
}

// Lookup returns the port registered under id.
func (r *Registry) Lookup(id PortID) (*Port, error) {
	r.mu.RLock()
	p, ok := r.ports[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownPort
	}
	return p, nil
}

// EnqueueTransmit queues b on the port's transmit ring. It returns nil once
// queued, ErrInsufficientSpace if b does not fit, or ErrUnknownPort.
func (r *Registry) EnqueueTransmit(id PortID, b []byte) error {
	p, err := r.Lookup(id)
	if err != nil {
		return err
	}
	_, err = p.Write(b)
	return err
}

// DrainReceive copies up to len(dst) received bytes from the port into dst.
// It returns 0 if nothing is pending or the port is unknown.
func (r *Registry) DrainReceive(id PortID, dst []byte) int {
	p, err := r.Lookup(id)
	if err != nil {
		return 0
	}
	n, _ := p.Read(dst)
	return n
}

// Ports returns the registered identities in registration order.
func (r *Registry) Ports() []PortID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]PortID, len(r.order))
	copy(out, r.order)
	return out
}

// Close closes every registered port and returns the joined errors.
func (r *Registry) Close() error {
	r.mu.RLock()
	ports := make([]*Port, 0, len(r.order))
	for _, id := range r.order {
		ports = append(ports, r.ports[id])
	}
	r.mu.RUnlock()

	var errs []error
	for _, p := range ports {
		if err := p.Close(); err != nil && !errors.Is(err, ErrPortClosed) {
			errs = append(errs, fmt.Errorf("close port %q: %w", p.id, err))
		}
	}
	return errors.Join(errs...)
}
