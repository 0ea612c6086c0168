// Command heapdemo drives a holeheap.Heap through a scripted sequence of
// allocate/deallocate calls, verifies its accounting, and prints a final
// stats summary.
package main

import (
	"flag"
	"os"

	"github.com/go-freestanding/holeheap/diagnostics"
	"github.com/go-freestanding/holeheap/heap"
	"github.com/go-freestanding/holeheap/utils"
)

func main() {
	regionSize := flag.Uint64("region-size", 1<<20, "size in bytes of the backing region")
	allocSize := flag.Uint64("alloc-size", 256, "size in bytes of each scripted allocation")
	allocAlign := flag.Uint64("alloc-align", 8, "alignment in bytes of each scripted allocation")
	allocCount := flag.Int("alloc-count", 64, "number of scripted allocations to perform")
	snapshotPath := flag.String("snapshot", "", "if set, write a compressed heap snapshot to this path")
	flag.Parse()

	log := utils.DefaultLogger("heapdemo")

	region := make([]byte, *regionSize)
	h := heap.NewFromBytes(region)

	log.Info("heap initialized",
		utils.Uint64("size", uint64(h.Size())),
	)

	addrs := make([]uintptr, 0, *allocCount)

	for i := 0; i < *allocCount; i++ {
		addr, err := h.Allocate(uintptr(*allocSize), uintptr(*allocAlign))
		if err != nil {
			log.Warn("allocation failed, stopping script",
				utils.Int("completed", i),
				utils.Err(err),
			)

			break
		}

		addrs = append(addrs, addr)
	}

	// Free every other allocation to produce a realistically fragmented
	// heap before reporting stats.
	for i, addr := range addrs {
		if i%2 == 0 {
			h.Deallocate(addr, uintptr(*allocSize), uintptr(*allocAlign))
		}
	}

	if err := h.VerifyAccounting(); err != nil {
		log.Error("accounting check failed", utils.Err(err))
		os.Exit(1)
	}

	stats := h.Stats()
	log.Info("final heap stats",
		utils.Uint64("used", uint64(stats.Used)),
		utils.Uint64("free", uint64(stats.Free)),
		utils.Int("holes", stats.HoleCount),
		utils.Uint64("largest_hole", uint64(stats.LargestHole)),
		utils.Float64("fragment_percent", stats.FragmentPercent),
	)

	if *snapshotPath != "" {
		data, err := diagnostics.Snapshot(h)
		if err != nil {
			log.Error("snapshot failed", utils.Err(err))
			os.Exit(1)
		}

		if err := os.WriteFile(*snapshotPath, data, 0o644); err != nil {
			log.Error("writing snapshot failed", utils.Err(err))
			os.Exit(1)
		}

		log.Info("snapshot written",
			utils.String("path", *snapshotPath),
			utils.Int("bytes", len(data)),
		)
	}
}
