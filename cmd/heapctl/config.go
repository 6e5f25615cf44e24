package main

import (
	"github.com/joshuapare/heapkit"
	"github.com/joshuapare/heapkit/heap"
)

func buildManager() (*heapkit.Manager, error) {
	cfg := heap.DefaultConfig
	cfg.SmallSegments = smallSegments
	cfg.MediumSegments = mediumSegments
	cfg.LargeSegments = largeSegments
	return heapkit.New(cfg, managerWorkers, collectorWorkers)
}
