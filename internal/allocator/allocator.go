package allocator

import "strconv"

// PreallocatedMarkerSize is the first-process size that triggers the
// IsPreallocated annotation.
const PreallocatedMarkerSize = 80

// selector returns the index of the block chosen for size, or -1.
type selector func(available []int, size int) int

type fitSimulator struct{}

// New creates a Simulator covering the first, best and worst fit policies.
func New() Simulator {
	return &fitSimulator{}
}

func (s *fitSimulator) Simulate(policy Policy, blocks, processes []int) (SimulationResult, error) {
	sel, ok := policy.selector()
	if !ok {
		return SimulationResult{}, ErrUnknownPolicy
	}
	return run(sel, blocks, processes), nil
}

// FirstFit allocates every process to the first block that can hold it.
func FirstFit(blocks, processes []int) SimulationResult {
	return run(selectFirst, blocks, processes)
}

// BestFit allocates every process to the feasible block that leaves the
// smallest leftover. Ties go to the lowest index.
func BestFit(blocks, processes []int) SimulationResult {
	return run(selectBest, blocks, processes)
}

// WorstFit allocates every process to the feasible block that leaves the
// largest leftover. Ties go to the lowest index.
func WorstFit(blocks, processes []int) SimulationResult {
	return run(selectWorst, blocks, processes)
}

func run(sel selector, blocks, processes []int) SimulationResult {
	available := make([]int, len(blocks))
	copy(available, blocks)

	allocations := make([]AllocationRecord, 0, len(processes))
	states := make([][]int, 0, len(processes))

	for i, size := range processes {
		record := AllocationRecord{
			ProcessID:   "P" + strconv.Itoa(i+1),
			ProcessSize: size,
			BlockID:     UnallocatedBlockID,
		}

		if idx := sel(available, size); idx >= 0 {
			available[idx] -= size
			remaining := available[idx]
			index := idx
			record.BlockID = "B" + strconv.Itoa(idx+1)
			record.AllocatedSize = size
			record.RemainingBlockSize = &remaining
			record.BlockIndex = &index
		}

		allocations = append(allocations, record)
		states = append(states, snapshot(available))
	}

	annotatePreallocated(allocations)

	return SimulationResult{
		Allocations: allocations,
		FinalBlocks: available,
		BlockStates: states,
	}
}

func selectFirst(available []int, size int) int {
	for j, capacity := range available {
		if capacity >= size {
			return j
		}
	}
	return -1
}

func selectBest(available []int, size int) int {
	best := -1
	for j, capacity := range available {
		if capacity < size {
			continue
		}
		if best == -1 || capacity-size < available[best]-size {
			best = j
		}
	}
	return best
}

func selectWorst(available []int, size int) int {
	worst := -1
	for j, capacity := range available {
		if capacity < size {
			continue
		}
		if worst == -1 || capacity-size > available[worst]-size {
			worst = j
		}
	}
	return worst
}

// annotatePreallocated flags the first record when the first process has the
// marker size, whether or not it was allocated. This mirrors a demo scenario
// quirk and carries no placement semantics.
func annotatePreallocated(allocations []AllocationRecord) {
	if len(allocations) > 0 && allocations[0].ProcessSize == PreallocatedMarkerSize {
		allocations[0].IsPreallocated = true
	}
}

func snapshot(available []int) []int {
	out := make([]int, len(available))
	copy(out, available)
	return out
}
