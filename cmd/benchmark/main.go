package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/daireb/reactor-js/reactor"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

const (
	itersKey   = "iters"
	profileKey = "profile"
)

var (
	ww = []int{1, 10, 100, 1_000}
	hh = []int{1, 10, 100}
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "propagation benchmarks for the reactor runtime",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  itersKey,
				Usage: "writes per graph shape",
				Value: 100,
			},
			&cli.StringFlag{
				Name:  profileKey,
				Usage: "write a CPU profile to this file",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	iters := int(cmd.Int(itersKey))

	if profile := cmd.String(profileKey); profile != "" {
		f, err := os.Create(profile)
		if err != nil {
			return fmt.Errorf("creating profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("starting profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	log.Printf("warming up")
	benchmarkPropagate(1, 1, iters)

	tbl := table.NewWriter()
	tbl.SetTitle("Reactor")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max", "checksum"})

	for _, w := range ww {
		for _, h := range hh {
			calc, checksum := benchmarkPropagate(w, h, iters)
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("propagate: %d * %d", w, h),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
					fmt.Sprintf("%016x", checksum),
				},
			})
		}
	}

	tbl.Render()
	return nil
}

// benchmarkPropagate builds w parallel chains of h derivations over a
// single source, watches every leaf, and times full write-to-leaf
// sweeps. The xxhash digest of the observed leaf values doubles as a
// determinism check: the same shape and write sequence must always
// produce the same checksum.
func benchmarkPropagate(w, h, iters int) (*tachymeter.Metrics, uint64) {
	rctx := reactor.NewReactiveContext()
	tach := tachymeter.New(&tachymeter.Config{Size: iters})
	digest := xxhash.New()

	src := reactor.NewState(rctx, 1)
	for i := 0; i < w; i++ {
		var last reactor.Reader[int] = src
		for j := 0; j < h; j++ {
			prev := last
			last = reactor.NewComputed(rctx, func() int {
				return prev.Value() + 1
			})
		}
		reactor.Watch(last, func(v int) {
			var buf [8]byte
			binary.LittleEndian.PutUint64(buf[:], uint64(v))
			digest.Write(buf[:])
		})
	}

	for i := 0; i < iters; i++ {
		start := time.Now()
		src.Set(src.Peek() + 1)
		tach.AddTime(time.Since(start))
	}

	return tach.Calc(), digest.Sum64()
}
