package workload

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

const (
	// MaxEntries bounds the number of blocks or processes in one workload.
	MaxEntries = 1000

	// MinGeneratedBlockSize and MaxGeneratedBlockSize bound random block sizes (inclusive).
	MinGeneratedBlockSize = 100
	MaxGeneratedBlockSize = 1099
)

// Workload pairs block capacities with the process sizes to place in them.
type Workload struct {
	Blocks    []int `json:"blocks" yaml:"blocks"`
	Processes []int `json:"processes" yaml:"processes"`
}

// Validate checks both lists.
func (w Workload) Validate() error {
	if err := Validate(w.Blocks); err != nil {
		return fmt.Errorf("blocks: %w", err)
	}
	if err := Validate(w.Processes); err != nil {
		return fmt.Errorf("processes: %w", err)
	}
	return nil
}

// Clone returns a deep copy of the workload.
func (w Workload) Clone() Workload {
	return Workload{
		Blocks:    clone(w.Blocks),
		Processes: clone(w.Processes),
	}
}

// Validate checks that every size is positive and the list is not oversized.
// An empty list is valid.
func Validate(sizes []int) error {
	if len(sizes) > MaxEntries {
		return fmt.Errorf("%w: %d exceeds limit of %d", ErrTooManyEntries, len(sizes), MaxEntries)
	}
	for i, size := range sizes {
		if size <= 0 {
			return fmt.Errorf("%w: entry %d is %d", ErrNonPositiveSize, i+1, size)
		}
	}
	return nil
}

// ParseSizes parses a comma-separated list of positive integers.
// Blank input yields an empty list.
func ParseSizes(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return []int{}, nil
	}

	parts := strings.Split(raw, ",")
	sizes := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		value, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSize, part)
		}
		if value <= 0 {
			return nil, fmt.Errorf("%w: got %d", ErrNonPositiveSize, value)
		}
		sizes = append(sizes, value)
	}
	if err := Validate(sizes); err != nil {
		return nil, err
	}
	return sizes, nil
}

// FormatSizes renders sizes the way ParseSizes reads them.
func FormatSizes(sizes []int) string {
	parts := make([]string, len(sizes))
	for i, size := range sizes {
		parts[i] = strconv.Itoa(size)
	}
	return strings.Join(parts, ", ")
}

// Resolve returns the block layout for a requested block count. When count is
// positive and differs from len(blocks), count random block sizes are
// generated; otherwise blocks is returned unchanged.
func Resolve(count int, blocks []int, rng *rand.Rand) ([]int, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBlockCount, count)
	}
	if count == 0 || count == len(blocks) {
		return clone(blocks), nil
	}
	if count > MaxEntries {
		return nil, fmt.Errorf("%w: %d exceeds limit of %d", ErrTooManyEntries, count, MaxEntries)
	}
	return GenerateBlocks(count, rng), nil
}

// GenerateBlocks returns n block sizes drawn uniformly from
// [MinGeneratedBlockSize, MaxGeneratedBlockSize].
func GenerateBlocks(n int, rng *rand.Rand) []int {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	span := MaxGeneratedBlockSize - MinGeneratedBlockSize + 1
	out := make([]int, n)
	for i := range out {
		out[i] = MinGeneratedBlockSize + rng.Intn(span)
	}
	return out
}

func clone(src []int) []int {
	out := make([]int, len(src))
	copy(out, src)
	return out
}
