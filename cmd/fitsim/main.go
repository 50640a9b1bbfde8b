// Command fitsim runs the allocation policies offline and prints the outcome.
package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/fit-simulator/internal/allocator"
	"github.com/eugenenazirov/fit-simulator/internal/storage"
	"github.com/eugenenazirov/fit-simulator/internal/workload"
)

type options struct {
	blocks     string
	processes  string
	numBlocks  int
	seed       int64
	policies   []string
	format     string
	showStates bool
}

type report struct {
	Blocks    []int          `yaml:"blocks"`
	Processes []int          `yaml:"processes"`
	Results   []policyReport `yaml:"results"`
}

type policyReport struct {
	Policy                     allocator.Policy `yaml:"policy"`
	allocator.SimulationResult `yaml:",inline"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "fitsim:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	defaults := storage.DefaultWorkload()

	var opts options
	app := kingpin.New("fitsim", "Run first, best and worst fit placement over a block and process list")
	app.Flag("blocks", "Comma-separated block capacities").Default(workload.FormatSizes(defaults.Blocks)).StringVar(&opts.blocks)
	app.Flag("processes", "Comma-separated process sizes").Default(workload.FormatSizes(defaults.Processes)).StringVar(&opts.processes)
	app.Flag("num-blocks", "Generate this many random blocks when it differs from the supplied list").Default("0").IntVar(&opts.numBlocks)
	app.Flag("seed", "Seed for random block generation (0 uses the clock)").Default("0").Int64Var(&opts.seed)
	app.Flag("policy", "Policy to run, repeatable (first-fit, best-fit, worst-fit)").StringsVar(&opts.policies)
	app.Flag("format", "Output format").Default("table").EnumVar(&opts.format, "table", "yaml")
	app.Flag("states", "Print the capacity snapshot after each process").BoolVar(&opts.showStates)

	if _, err := app.Parse(args); err != nil {
		return err
	}

	rep, err := simulate(opts)
	if err != nil {
		return err
	}

	if opts.format == "yaml" {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	return writeTable(out, rep, opts.showStates)
}

func simulate(opts options) (report, error) {
	blocks, err := workload.ParseSizes(opts.blocks)
	if err != nil {
		return report{}, fmt.Errorf("blocks: %w", err)
	}
	processes, err := workload.ParseSizes(opts.processes)
	if err != nil {
		return report{}, fmt.Errorf("processes: %w", err)
	}

	seed := opts.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	blocks, err = workload.Resolve(opts.numBlocks, blocks, rand.New(rand.NewSource(seed)))
	if err != nil {
		return report{}, err
	}

	policies := allocator.Policies()
	if len(opts.policies) > 0 {
		policies = policies[:0]
		for _, name := range opts.policies {
			p, err := allocator.ParsePolicy(name)
			if err != nil {
				return report{}, err
			}
			policies = append(policies, p)
		}
	}

	sim := allocator.New()
	rep := report{Blocks: blocks, Processes: processes}
	for _, p := range policies {
		result, err := sim.Simulate(p, blocks, processes)
		if err != nil {
			return report{}, err
		}
		rep.Results = append(rep.Results, policyReport{Policy: p, SimulationResult: result})
	}
	return rep, nil
}

func writeTable(out io.Writer, rep report, showStates bool) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, res := range rep.Results {
		fmt.Fprintf(tw, "== %s ==\n", res.Policy.Title())
		fmt.Fprintln(tw, "PROCESS\tSIZE\tBLOCK\tREMAINING\t")
		for _, rec := range res.Allocations {
			remaining := "-"
			if rec.RemainingBlockSize != nil {
				remaining = strconv.Itoa(*rec.RemainingBlockSize)
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t\n", rec.ProcessID, rec.ProcessSize, rec.BlockID, remaining)
		}
		if showStates {
			for i, state := range res.BlockStates {
				fmt.Fprintf(tw, "after P%d\t%s\t\t\t\n", i+1, workload.FormatSizes(state))
			}
		}
		fmt.Fprintf(tw, "final\t%s\t\t\t\n\n", workload.FormatSizes(res.FinalBlocks))
	}
	return tw.Flush()
}
