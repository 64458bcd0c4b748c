package statemachine

import (
	"context"
	"sync"
)

// Machine holds a current state in memory on top of a Definition.
type Machine struct {
	def     *Definition
	initial State
	current State
	mu      sync.RWMutex
}

// Start returns a machine positioned at current.
func (d *Definition) Start(current State) *Machine {
	return &Machine{def: d, initial: current, current: current}
}

func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *Machine) Fire(ctx context.Context, event Event, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := m.def.Fire(ctx, m.current, event, data)
	if err != nil {
		return err
	}
	m.current = next
	return nil
}

func (m *Machine) CanFire(ctx context.Context, event Event, data any) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.def.CanFire(ctx, m.current, event, data)
}

// Reset returns the machine to the state it was started at.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.initial
}
