package main

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/daireb/reactor-js/reactor"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

// Layered-graph benchmark in the style of the js-reactivity-benchmark
// "dynamic" suite: width sources feed totalLayers rows of derived
// cells, a staticFraction of which always read the same upstream cells
// while the rest drop one input depending on the values they see. Each
// iteration writes one source and reads a readFraction of the leaves,
// which is what actually drives recomputation in a lazy runtime.
func main() {
	log.Print("Starting reactor graph benchmark, please wait...")
	defer log.Print("Finished reactor graph benchmark")

	cfgs := []graphTestConfig{
		{
			name:           "simple component",
			width:          10,
			staticFraction: 1,
			nSources:       2,
			totalLayers:    5,
			readFraction:   0.2,
			iterations:     600000,
		},
		{
			name:           "dynamic component",
			width:          10,
			totalLayers:    10,
			staticFraction: 0.75,
			nSources:       6,
			readFraction:   0.2,
			iterations:     15000,
		},
		{
			name:           "large web app",
			width:          1000,
			totalLayers:    12,
			staticFraction: 0.95,
			nSources:       4,
			readFraction:   1,
			iterations:     7000,
		},
		{
			name:           "wide dense",
			width:          1000,
			totalLayers:    5,
			staticFraction: 1,
			nSources:       25,
			readFraction:   1,
			iterations:     3000,
		},
		{
			name:           "deep",
			width:          5,
			totalLayers:    500,
			staticFraction: 1,
			nSources:       3,
			readFraction:   1,
			iterations:     500,
		},
		{
			name:           "very dynamic",
			width:          100,
			totalLayers:    15,
			staticFraction: 0.5,
			nSources:       6,
			readFraction:   1,
			iterations:     2000,
		},
	}

	type results struct {
		sum      int
		count    int64
		duration time.Duration
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{
		"size", "nSources", "read%", "static%",
		"nTimes", "test", "time",
		"updateRate", "sum", "recomputes", "title",
	})

	testRepeats := 5
	for _, cfg := range cfgs {
		log.Printf("Running '%s' config", cfg.name)
		counter := new(int64)
		graph := makeGraph(&makeGraphConfig{
			counter:        counter,
			width:          cfg.width,
			totalLayers:    cfg.totalLayers,
			nSources:       cfg.nSources,
			staticFraction: cfg.staticFraction,
		})

		runOnce := func() int {
			return runGraph(&runGraphConfig{
				graph:        graph,
				iterations:   cfg.iterations,
				readFraction: cfg.readFraction,
			})
		}
		// run once to warm up
		runOnce()

		best := &results{duration: time.Hour}
		for i := 0; i < testRepeats; i++ {
			log.Printf("Running '%s' config, iteration %d/%d", cfg.name, i+1, testRepeats)
			*counter = 0
			start := time.Now()
			sum := runOnce()
			duration := time.Since(start)

			if duration < best.duration {
				best.duration = duration
				best.sum = sum
				best.count = *counter
			}
		}

		makeTitle := func() string {
			sb := strings.Builder{}
			sb.WriteString(fmt.Sprintf("%dx%d %d sources", cfg.width, cfg.totalLayers, cfg.nSources))
			if cfg.staticFraction < 1 {
				sb.WriteString(" dynamic")
			}
			if cfg.readFraction < 1 {
				sb.WriteString(fmt.Sprintf(" read %0.2f%%", 100*cfg.readFraction))
			}
			return sb.String()
		}

		updateRate := float64(best.count) / (float64(best.duration) / float64(time.Millisecond))

		table.Append([]string{
			fmt.Sprintf("%dx%d", cfg.width, cfg.totalLayers),
			fmt.Sprint(cfg.nSources),
			fmt.Sprint(cfg.readFraction),
			fmt.Sprint(cfg.staticFraction),
			humanize.Comma(cfg.iterations),
			cfg.name,
			fmt.Sprint(best.duration),
			humanize.Comma(int64(updateRate)),
			fmt.Sprint(best.sum),
			humanize.Comma(best.count),
			makeTitle(),
		})
	}
	table.Render()
}

type graphTestConfig struct {
	name           string  // friendly name for the test, should be unique
	width          int64   // width of dependency graph to construct
	totalLayers    int64   // depth of dependency graph to construct
	staticFraction float64 // fraction of nodes with a fixed source set
	nSources       int64   // inputs read by each node in a row
	readFraction   float64 // fraction of last-layer cells read each iteration
	iterations     int64   // number of test iterations
}

type graph struct {
	sources []*reactor.State[int]
	layers  [][]reactor.Reader[int]
}

type makeGraphConfig struct {
	counter                      *int64
	width, totalLayers, nSources int64
	staticFraction               float64
}

func makeGraph(cfg *makeGraphConfig) *graph {
	rctx := reactor.NewReactiveContext()
	sources := make([]*reactor.State[int], cfg.width)
	for i := range sources {
		sources[i] = reactor.NewState(rctx, i)
	}

	g := &graph{sources: sources}
	g.layers = makeDependentRows(&makeDependentRowsConfig{
		rctx:           rctx,
		sources:        sources,
		numRows:        cfg.totalLayers - 1,
		counter:        cfg.counter,
		staticFraction: cfg.staticFraction,
		nSources:       cfg.nSources,
	})
	return g
}

type runGraphConfig struct {
	graph        *graph
	iterations   int64
	readFraction float64
}

// runGraph writes one source per iteration and reads some or all of
// the leaves, returning the sum of the final leaf values.
func runGraph(cfg *runGraphConfig) int {
	random := rand.New(rand.NewSource(0))
	leaves := cfg.graph.layers[len(cfg.graph.layers)-1]
	skipCount := int(math.Round(float64(len(leaves)) * (1 - cfg.readFraction)))
	readLeaves := removeElems(leaves, skipCount, random)

	for i := 0; i < int(cfg.iterations); i++ {
		sourceDex := i % len(cfg.graph.sources)
		cfg.graph.sources[sourceDex].Set(i + sourceDex)

		for _, leaf := range readLeaves {
			leaf.Value()
		}
	}

	sum := 0
	for _, leaf := range readLeaves {
		sum += leaf.Value()
	}
	return sum
}

func removeElems[T any](src []T, rmCount int, rand *rand.Rand) []T {
	copyWithRemovals := make([]T, len(src))
	copy(copyWithRemovals, src)
	for i := 0; i < rmCount; i++ {
		rmDex := rand.Intn(len(copyWithRemovals))
		copyWithRemovals[rmDex] = copyWithRemovals[len(copyWithRemovals)-1]
		copyWithRemovals = copyWithRemovals[:len(copyWithRemovals)-1]
	}
	return copyWithRemovals
}

type makeDependentRowsConfig struct {
	rctx              *reactor.ReactiveContext
	sources           []*reactor.State[int]
	numRows, nSources int64
	counter           *int64
	staticFraction    float64
}

func makeDependentRows(cfg *makeDependentRowsConfig) [][]reactor.Reader[int] {
	prevRow := make([]reactor.Reader[int], len(cfg.sources))
	for i, s := range cfg.sources {
		prevRow[i] = s
	}

	random := rand.New(rand.NewSource(0))
	rows := make([][]reactor.Reader[int], cfg.numRows)
	for l := int64(0); l < cfg.numRows; l++ {
		row := makeRow(&rowConfig{
			rctx:           cfg.rctx,
			sources:        prevRow,
			counter:        cfg.counter,
			staticFraction: cfg.staticFraction,
			nSources:       cfg.nSources,
			rand:           random,
		})
		rows[l] = row
		prevRow = row
	}
	return rows
}

type rowConfig struct {
	rctx           *reactor.ReactiveContext
	sources        []reactor.Reader[int]
	counter        *int64
	staticFraction float64
	nSources       int64
	rand           *rand.Rand
}

func makeRow(cfg *rowConfig) []reactor.Reader[int] {
	row := make([]reactor.Reader[int], len(cfg.sources))

	for myDex := range cfg.sources {
		mySources := make([]reactor.Reader[int], 0, cfg.nSources)
		for sourceDex := 0; sourceDex < int(cfg.nSources); sourceDex++ {
			x := (myDex + sourceDex) % len(cfg.sources)
			mySources = append(mySources, cfg.sources[x])
		}

		staticNode := cfg.rand.Float64() < cfg.staticFraction
		if staticNode {
			// static node, always reads the same sources
			row[myDex] = reactor.NewComputed(cfg.rctx, func() int {
				*cfg.counter++
				sum := 0
				for _, source := range mySources {
					sum += source.Value()
				}
				return sum
			})
		} else {
			// dynamic node, drops one input depending on the first
			first := mySources[0]
			tail := mySources[1:]
			row[myDex] = reactor.NewComputed(cfg.rctx, func() int {
				*cfg.counter++
				sum := first.Value()
				shouldDrop := sum&0x1 > 0
				dropDex := sum % len(tail)

				for i := 0; i < len(tail); i++ {
					if shouldDrop && i == dropDex {
						continue
					}
					sum += tail[i].Value()
				}
				return sum
			})
		}
	}

	return row
}
