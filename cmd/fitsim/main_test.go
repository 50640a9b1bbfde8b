package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRunTableDefaults(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"--states"}, &out))

	text := out.String()
	for _, title := range []string{"First Fit", "Best Fit", "Worst Fit"} {
		require.Contains(t, text, "== "+title+" ==")
	}
	require.Contains(t, text, "Unallocated")
	require.Contains(t, text, "100, 176, 200, 300, 183")
	require.Contains(t, text, "after P4")
}

func TestRunYAMLSinglePolicy(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"--format", "yaml", "--policy", "worst", "--blocks", "100,500,200,300,600", "--processes", "212,417,112,426"}, &out)
	require.NoError(t, err)

	var decoded struct {
		Blocks  []int `yaml:"blocks"`
		Results []struct {
			Policy      string  `yaml:"policy"`
			FinalBlocks []int   `yaml:"finalBlocks"`
			BlockStates [][]int `yaml:"blockStates"`
			Allocations []struct {
				BlockID string `yaml:"blockId"`
			} `yaml:"allocations"`
		} `yaml:"results"`
	}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &decoded))
	require.Len(t, decoded.Results, 1)
	require.Equal(t, "worst-fit", decoded.Results[0].Policy)
	require.Equal(t, []int{100, 83, 200, 300, 276}, decoded.Results[0].FinalBlocks)
	require.Len(t, decoded.Results[0].BlockStates, 4)
	require.Equal(t, "B5", decoded.Results[0].Allocations[0].BlockID)
}

func TestRunGeneratesSeededBlocks(t *testing.T) {
	args := []string{"--format", "yaml", "--num-blocks", "6", "--seed", "11", "--policy", "first-fit"}

	var first, second bytes.Buffer
	require.NoError(t, run(args, &first))
	require.NoError(t, run(args, &second))
	require.Equal(t, first.String(), second.String())

	var decoded struct {
		Blocks []int `yaml:"blocks"`
	}
	require.NoError(t, yaml.Unmarshal(first.Bytes(), &decoded))
	require.Len(t, decoded.Blocks, 6)
}

func TestRunRejectsBadInput(t *testing.T) {
	var out bytes.Buffer
	require.Error(t, run([]string{"--blocks", "10,0"}, &out))
	require.Error(t, run([]string{"--policy", "buddy"}, &out))
	require.Error(t, run([]string{"--format", "xml"}, &out))

	err := run([]string{"--processes", "a"}, &out)
	require.Error(t, err)
	require.True(t, strings.HasPrefix(err.Error(), "processes"))
}
