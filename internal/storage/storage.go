package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/eugenenazirov/fit-simulator/internal/workload"
)

var (
	// ErrInvalidWorkload indicates the provided workload violates validation rules.
	ErrInvalidWorkload = errors.New("invalid workload")
)

var (
	defaultBlocks    = []int{100, 500, 200, 300, 600}
	defaultProcesses = []int{212, 417, 112, 426}
)

// Storage provides access to the default workload used when a simulation
// request omits blocks or processes.
type Storage interface {
	GetWorkload() (workload.Workload, error)
	SetWorkload(w workload.Workload) error
}

// MemoryStorage keeps the workload in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu       sync.RWMutex
	workload workload.Workload
}

// NewMemoryStorage initialises storage with a copy of the default workload.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		workload: DefaultWorkload(),
	}
}

// DefaultWorkload returns a copy of the built-in demo workload.
func DefaultWorkload() workload.Workload {
	return workload.Workload{
		Blocks:    defaultBlocks,
		Processes: defaultProcesses,
	}.Clone()
}

// GetWorkload returns a defensive copy of the stored workload.
func (s *MemoryStorage) GetWorkload() (workload.Workload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.workload.Clone(), nil
}

// SetWorkload validates and stores a copy of w. Sizes keep their order.
func (s *MemoryStorage) SetWorkload(w workload.Workload) error {
	if err := w.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidWorkload, err)
	}

	s.mu.Lock()
	s.workload = w.Clone()
	s.mu.Unlock()

	return nil
}
