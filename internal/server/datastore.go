package server

import (
	"errors"
	"sync"
)

var ErrOutOfRange = errors.New("server: address out of range")

// Block sizes for the simulation datastore. Small on purpose: the tool
// exists to exercise client error handling, not to model a real device.
const (
	coilCount     = 1024
	discreteCount = 1024
	holdingCount  = 1024
	inputCount    = 1024
)

// DataStore is the in-memory register map backing normal responses.
type DataStore struct {
	mu       sync.RWMutex
	coils    []bool
	discrete []bool
	holding  []uint16
	input    []uint16
}

// NewDataStore seeds the blocks with recognizable simulation values:
// even coils on, ramp values in the register blocks.
func NewDataStore() *DataStore {
	ds := &DataStore{
		coils:    make([]bool, coilCount),
		discrete: make([]bool, discreteCount),
		holding:  make([]uint16, holdingCount),
		input:    make([]uint16, inputCount),
	}
	for i := range ds.coils {
		ds.coils[i] = i%2 == 0
	}
	for i := range ds.discrete {
		ds.discrete[i] = i%3 == 0
	}
	for i := range ds.holding {
		ds.holding[i] = uint16(i)
	}
	for i := range ds.input {
		ds.input[i] = uint16(i * 2)
	}
	return ds
}

func (ds *DataStore) ReadCoils(addr, count int) ([]bool, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return readBits(ds.coils, addr, count)
}

func (ds *DataStore) ReadDiscreteInputs(addr, count int) ([]bool, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return readBits(ds.discrete, addr, count)
}

func (ds *DataStore) ReadHoldingRegisters(addr, count int) ([]uint16, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return readWords(ds.holding, addr, count)
}

func (ds *DataStore) ReadInputRegisters(addr, count int) ([]uint16, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return readWords(ds.input, addr, count)
}

func (ds *DataStore) WriteCoil(addr int, value bool) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if addr < 0 || addr >= len(ds.coils) {
		return ErrOutOfRange
	}
	ds.coils[addr] = value
	return nil
}

func (ds *DataStore) WriteCoils(addr int, values []bool) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if addr < 0 || addr+len(values) > len(ds.coils) {
		return ErrOutOfRange
	}
	copy(ds.coils[addr:], values)
	return nil
}

func (ds *DataStore) WriteHoldingRegister(addr int, value uint16) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if addr < 0 || addr >= len(ds.holding) {
		return ErrOutOfRange
	}
	ds.holding[addr] = value
	return nil
}

func (ds *DataStore) WriteHoldingRegisters(addr int, values []uint16) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if addr < 0 || addr+len(values) > len(ds.holding) {
		return ErrOutOfRange
	}
	copy(ds.holding[addr:], values)
	return nil
}

func readBits(block []bool, addr, count int) ([]bool, error) {
	if addr < 0 || count < 1 || addr+count > len(block) {
		return nil, ErrOutOfRange
	}
	out := make([]bool, count)
	copy(out, block[addr:addr+count])
	return out, nil
}

func readWords(block []uint16, addr, count int) ([]uint16, error) {
	if addr < 0 || count < 1 || addr+count > len(block) {
		return nil, ErrOutOfRange
	}
	out := make([]uint16, count)
	copy(out, block[addr:addr+count])
	return out, nil
}
