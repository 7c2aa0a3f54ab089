// internal/register/map.go
package register

import (
	"context"
	"sort"
	"sync"
)

// WriteBack pushes a register value to the device after a field write
type WriteBack interface {
	WriteRegister(ctx context.Context, address, value uint32) error
}

// Map is the in-memory register model. It is safe for concurrent use.
type Map struct {
	mu        sync.RWMutex
	regs      map[uint32]*Register
	writeBack WriteBack
	listeners []func(Register)
}

// New builds a map from a register list. Later duplicates of an address replace earlier ones.
func New(regs []Register) *Map {
	m := &Map{regs: make(map[uint32]*Register, len(regs))}
	m.replace(regs)
	return m
}

// NewDefault builds a map holding the built-in registers
func NewDefault() *Map {
	return New(Defaults())
}

func (m *Map) replace(regs []Register) {
	m.regs = make(map[uint32]*Register, len(regs))
	for _, r := range regs {
		r := r.clone()
		r.Width = normalizeWidth(r.Width)
		r.Value &= widthMask(r.Width)
		m.regs[r.Address] = &r
	}
}

// SetWriteBack installs the device write path used by WriteBitfield
func (m *Map) SetWriteBack(wb WriteBack) {
	m.mu.Lock()
	m.writeBack = wb
	m.mu.Unlock()
}

// OnChange registers a callback invoked after any register value changes
func (m *Map) OnChange(fn func(Register)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// Get returns a copy of the register at address
func (m *Map) Get(address uint32) (Register, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.regs[address]
	if !ok {
		return Register{}, false
	}
	return r.clone(), true
}

// List returns all registers ordered by address
func (m *Map) List() []Register {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Register, 0, len(m.regs))
	for _, r := range m.regs {
		out = append(out, r.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// Len returns the number of registers
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.regs)
}

// SetValue stores a whole-register value, masked to the register width.
// It reports false when no register exists at address.
func (m *Map) SetValue(address, value uint32) bool {
	m.mu.Lock()
	r, ok := m.regs[address]
	if !ok {
		m.mu.Unlock()
		return false
	}
	r.Value = value & widthMask(r.Width)
	snapshot := r.clone()
	listeners := m.listeners
	m.mu.Unlock()

	notify(listeners, snapshot)
	return true
}

// WriteBitfield performs a read-modify-write of one field and returns the new
// register value. Unless the register is read-only, the new value is then
// handed to the write-back. A failed write-back leaves the model updated.
func (m *Map) WriteBitfield(ctx context.Context, address uint32, field string, value uint32) (uint32, error) {
	m.mu.Lock()
	r, ok := m.regs[address]
	if !ok {
		m.mu.Unlock()
		return 0, ErrRegisterNotFound
	}
	f, ok := r.Field(field)
	if !ok {
		m.mu.Unlock()
		return 0, ErrFieldNotFound
	}

	r.Value = ApplyBitfield(r.Value, f.Bit, f.Size, value) & widthMask(r.Width)
	snapshot := r.clone()
	wb := m.writeBack
	listeners := m.listeners
	m.mu.Unlock()

	notify(listeners, snapshot)

	if snapshot.ReadOnly || wb == nil {
		return snapshot.Value, nil
	}
	if err := wb.WriteRegister(ctx, address, snapshot.Value); err != nil {
		return snapshot.Value, &WriteBackError{Address: address, Value: snapshot.Value, Err: err}
	}
	return snapshot.Value, nil
}

func notify(listeners []func(Register), r Register) {
	for _, fn := range listeners {
		fn(r)
	}
}
