package allocator

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	scenarioBlocks    = []int{100, 500, 200, 300, 600}
	scenarioProcesses = []int{212, 417, 112, 426}
)

type expectedRecord struct {
	blockID   string
	remaining int
}

func TestScenario(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		run         func(blocks, processes []int) SimulationResult
		want        []expectedRecord
		finalBlocks []int
	}{
		{
			name: "FirstFit",
			run:  FirstFit,
			want: []expectedRecord{
				{"B2", 288}, {"B5", 183}, {"B2", 176}, {UnallocatedBlockID, 0},
			},
			finalBlocks: []int{100, 176, 200, 300, 183},
		},
		{
			name: "BestFit",
			run:  BestFit,
			want: []expectedRecord{
				{"B4", 88}, {"B2", 83}, {"B3", 88}, {"B5", 174},
			},
			finalBlocks: []int{100, 83, 88, 88, 174},
		},
		{
			name: "WorstFit",
			run:  WorstFit,
			want: []expectedRecord{
				{"B5", 388}, {"B2", 83}, {"B5", 276}, {UnallocatedBlockID, 0},
			},
			finalBlocks: []int{100, 83, 200, 300, 276},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := tc.run(scenarioBlocks, scenarioProcesses)

			require.Len(t, got.Allocations, len(tc.want))
			for i, want := range tc.want {
				rec := got.Allocations[i]
				require.Equal(t, fmt.Sprintf("P%d", i+1), rec.ProcessID)
				require.Equal(t, want.blockID, rec.BlockID, "process %s", rec.ProcessID)
				if want.blockID == UnallocatedBlockID {
					require.False(t, rec.Allocated())
					require.Nil(t, rec.RemainingBlockSize)
					require.Nil(t, rec.BlockIndex)
					require.Zero(t, rec.AllocatedSize)
					continue
				}
				require.True(t, rec.Allocated())
				require.Equal(t, want.remaining, *rec.RemainingBlockSize)
				require.Equal(t, rec.ProcessSize, rec.AllocatedSize)
			}
			require.Equal(t, tc.finalBlocks, got.FinalBlocks)
			checkInvariants(t, scenarioBlocks, scenarioProcesses, got)
		})
	}
}

func TestSimulateDispatchesPolicies(t *testing.T) {
	t.Parallel()

	sim := New()
	direct := map[Policy]func([]int, []int) SimulationResult{
		PolicyFirstFit: FirstFit,
		PolicyBestFit:  BestFit,
		PolicyWorstFit: WorstFit,
	}
	for _, policy := range Policies() {
		got, err := sim.Simulate(policy, scenarioBlocks, scenarioProcesses)
		require.NoError(t, err)
		require.Equal(t, direct[policy](scenarioBlocks, scenarioProcesses), got)
	}

	_, err := sim.Simulate(Policy("next-fit"), scenarioBlocks, scenarioProcesses)
	require.True(t, errors.Is(err, ErrUnknownPolicy))
}

func TestEmptyProcesses(t *testing.T) {
	t.Parallel()

	for _, policy := range Policies() {
		got, err := New().Simulate(policy, scenarioBlocks, nil)
		require.NoError(t, err)
		require.Empty(t, got.Allocations)
		require.Empty(t, got.BlockStates)
		require.Equal(t, scenarioBlocks, got.FinalBlocks)
	}
}

func TestZeroBlocks(t *testing.T) {
	t.Parallel()

	for _, policy := range Policies() {
		got, err := New().Simulate(policy, nil, scenarioProcesses)
		require.NoError(t, err)
		require.NotNil(t, got.FinalBlocks)
		require.Empty(t, got.FinalBlocks)
		require.Len(t, got.Allocations, len(scenarioProcesses))
		require.Equal(t, len(scenarioProcesses), got.UnallocatedCount())
		for _, state := range got.BlockStates {
			require.Empty(t, state)
		}
	}
}

func TestInputsAreNotMutated(t *testing.T) {
	t.Parallel()

	blocks := []int{100, 500, 200, 300, 600}
	processes := []int{212, 417, 112, 426}

	first := WorstFit(blocks, processes)
	require.Equal(t, []int{100, 500, 200, 300, 600}, blocks)
	require.Equal(t, []int{212, 417, 112, 426}, processes)

	second := WorstFit(blocks, processes)
	require.Equal(t, first, second)

	// snapshots must not alias the working copy
	first.BlockStates[0][0] = -1
	require.NotEqual(t, first.BlockStates[0][0], first.BlockStates[1][0])
}

func TestTieBreakPrefersLowestIndex(t *testing.T) {
	t.Parallel()

	blocks := []int{300, 150, 300, 150}

	best := BestFit(blocks, []int{100})
	require.Equal(t, 1, *best.Allocations[0].BlockIndex)

	worst := WorstFit(blocks, []int{100})
	require.Equal(t, 0, *worst.Allocations[0].BlockIndex)
}

func TestExactFitLeavesZero(t *testing.T) {
	t.Parallel()

	got := BestFit([]int{50, 80}, []int{80, 50})
	require.Equal(t, "B2", got.Allocations[0].BlockID)
	require.Equal(t, 0, *got.Allocations[0].RemainingBlockSize)
	require.Equal(t, "B1", got.Allocations[1].BlockID)
	require.Equal(t, []int{0, 0}, got.FinalBlocks)
}

func TestPreallocatedAnnotation(t *testing.T) {
	t.Parallel()

	t.Run("FirstProcessOfMarkerSize", func(t *testing.T) {
		got := FirstFit([]int{100}, []int{80, 80})
		require.True(t, got.Allocations[0].IsPreallocated)
		require.False(t, got.Allocations[1].IsPreallocated)
	})

	t.Run("FlagSetEvenWhenUnallocated", func(t *testing.T) {
		got := BestFit([]int{10}, []int{80})
		require.False(t, got.Allocations[0].Allocated())
		require.True(t, got.Allocations[0].IsPreallocated)
	})

	t.Run("OtherSizes", func(t *testing.T) {
		got := WorstFit([]int{100}, []int{81, 80})
		require.False(t, got.Allocations[0].IsPreallocated)
		require.False(t, got.Allocations[1].IsPreallocated)
	})
}

func TestRandomisedProperties(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 200; iter++ {
		blocks := randomSizes(rng, rng.Intn(8), 1, 600)
		processes := randomSizes(rng, rng.Intn(12), 1, 400)

		for _, policy := range Policies() {
			got, err := New().Simulate(policy, blocks, processes)
			require.NoError(t, err)
			checkInvariants(t, blocks, processes, got)
			checkPolicyChoice(t, policy, blocks, processes, got)

			again, err := New().Simulate(policy, blocks, processes)
			require.NoError(t, err)
			require.Equal(t, got, again)
		}
	}
}

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	cases := map[string]Policy{
		"first-fit": PolicyFirstFit,
		"First Fit": PolicyFirstFit,
		"BEST":      PolicyBestFit,
		"best_fit":  PolicyBestFit,
		" worst ":   PolicyWorstFit,
		"worstfit":  PolicyWorstFit,
	}
	for input, want := range cases {
		got, err := ParsePolicy(input)
		require.NoError(t, err, input)
		require.Equal(t, want, got)
	}

	_, err := ParsePolicy("buddy")
	require.ErrorIs(t, err, ErrUnknownPolicy)
	require.Equal(t, "Best Fit", PolicyBestFit.Title())
}

// checkInvariants verifies snapshot shape, completeness and conservation.
func checkInvariants(t *testing.T, blocks, processes []int, got SimulationResult) {
	t.Helper()

	require.Len(t, got.Allocations, len(processes))
	require.Len(t, got.BlockStates, len(processes))
	require.Len(t, got.FinalBlocks, len(blocks))
	for _, state := range got.BlockStates {
		require.Len(t, state, len(blocks))
	}
	if len(processes) > 0 {
		require.Equal(t, got.FinalBlocks, got.BlockStates[len(processes)-1])
	} else {
		require.Equal(t, len(blocks), len(got.FinalBlocks))
		for i := range blocks {
			require.Equal(t, blocks[i], got.FinalBlocks[i])
		}
	}

	used := make([]int, len(blocks))
	for i, rec := range got.Allocations {
		require.Equal(t, fmt.Sprintf("P%d", i+1), rec.ProcessID)
		require.Equal(t, processes[i], rec.ProcessSize)
		if rec.Allocated() {
			used[*rec.BlockIndex] += rec.AllocatedSize
			require.Equal(t, got.BlockStates[i][*rec.BlockIndex], *rec.RemainingBlockSize)
		}
	}
	for j := range blocks {
		require.Equal(t, blocks[j]-got.FinalBlocks[j], used[j], "block %d", j)
	}
}

// checkPolicyChoice replays the run and checks each decision against the
// capacities seen at decision time.
func checkPolicyChoice(t *testing.T, policy Policy, blocks, processes []int, got SimulationResult) {
	t.Helper()

	available := append([]int(nil), blocks...)
	for i, size := range processes {
		rec := got.Allocations[i]
		if !rec.Allocated() {
			for _, capacity := range available {
				require.Less(t, capacity, size)
			}
			continue
		}

		chosen := *rec.BlockIndex
		require.GreaterOrEqual(t, available[chosen], size)
		leftover := available[chosen] - size
		for j, capacity := range available {
			if capacity < size {
				continue
			}
			other := capacity - size
			switch policy {
			case PolicyFirstFit:
				require.False(t, j < chosen, "first fit skipped feasible block %d", j)
			case PolicyBestFit:
				require.False(t, other < leftover || (other == leftover && j < chosen))
			case PolicyWorstFit:
				require.False(t, other > leftover || (other == leftover && j < chosen))
			}
		}
		available[chosen] -= size
	}
}

func randomSizes(rng *rand.Rand, n, lo, hi int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = lo + rng.Intn(hi-lo+1)
	}
	return out
}

func BenchmarkBestFit(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	blocks := randomSizes(rng, 100, 100, 1099)
	processes := randomSizes(rng, 1000, 1, 200)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		BestFit(blocks, processes)
	}
}

func BenchmarkFirstFit(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	blocks := randomSizes(rng, 100, 100, 1099)
	processes := randomSizes(rng, 1000, 1, 200)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		FirstFit(blocks, processes)
	}
}
