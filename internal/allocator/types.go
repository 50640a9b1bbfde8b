package allocator

// UnallocatedBlockID is the block identifier recorded for a process that no
// block could hold at decision time.
const UnallocatedBlockID = "Unallocated"

// AllocationRecord describes the outcome for a single process.
// RemainingBlockSize and BlockIndex are nil when the process was not allocated.
type AllocationRecord struct {
	ProcessID          string `json:"processId" yaml:"processId"`
	ProcessSize        int    `json:"processSize" yaml:"processSize"`
	BlockID            string `json:"blockId" yaml:"blockId"`
	AllocatedSize      int    `json:"allocatedSize,omitempty" yaml:"allocatedSize,omitempty"`
	RemainingBlockSize *int   `json:"remainingBlockSize,omitempty" yaml:"remainingBlockSize,omitempty"`
	BlockIndex         *int   `json:"blockIndex,omitempty" yaml:"blockIndex,omitempty"`
	IsPreallocated     bool   `json:"isPreallocated,omitempty" yaml:"isPreallocated,omitempty"`
}

// Allocated reports whether the process was placed in a block.
func (r AllocationRecord) Allocated() bool {
	return r.BlockIndex != nil
}

// SimulationResult is the output of one policy run.
// BlockStates holds one capacity snapshot per process, taken after the
// process was handled; the last snapshot equals FinalBlocks.
type SimulationResult struct {
	Allocations []AllocationRecord `json:"allocations" yaml:"allocations"`
	FinalBlocks []int              `json:"finalBlocks" yaml:"finalBlocks"`
	BlockStates [][]int            `json:"blockStates" yaml:"blockStates"`
}

// UnallocatedCount returns the number of processes left without a block.
func (r SimulationResult) UnallocatedCount() int {
	count := 0
	for _, rec := range r.Allocations {
		if !rec.Allocated() {
			count++
		}
	}
	return count
}

// Simulator describes the behaviour required from an allocation simulator.
type Simulator interface {
	Simulate(policy Policy, blocks, processes []int) (SimulationResult, error)
}
