package memspace

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/memlist"
	"github.com/vkngwrapper/memlist/block"
	"github.com/vkngwrapper/memlist/list"
)

// AddStatistics sums this memory space's statistics into the statistics currently present in the
// provided memlist.Statistics object
func (s *MemorySpace) AddStatistics(stats *memlist.Statistics) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	stats.AllocationCount += s.allocatedList.Size()
	stats.FreeRangeCount += s.freeList.Size()

	for _, allocation := range s.allocatedList.Blocks() {
		stats.AllocationBytes += allocation.Length()
	}

	for _, free := range s.freeList.Blocks() {
		stats.FreeBytes += free.Length()
	}
}

// AddDetailedStatistics sums this memory space's statistics into the statistics currently present
// in the provided memlist.DetailedStatistics object
func (s *MemorySpace) AddDetailedStatistics(stats *memlist.DetailedStatistics) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.addDetailedStatistics(stats)
}

func (s *MemorySpace) addDetailedStatistics(stats *memlist.DetailedStatistics) {
	for _, allocation := range s.allocatedList.Blocks() {
		stats.AddAllocation(allocation.Length())
	}

	for _, free := range s.freeList.Blocks() {
		stats.AddFreeRange(free.Length())
	}
}

// BuildStatsString returns a json report on the state of the memory space. If detailed is true,
// every block of both lists is included.
func (s *MemorySpace) BuildStatsString(detailed bool) string {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	writer := jwriter.NewWriter()
	obj := writer.Object()

	var stats memlist.DetailedStatistics
	stats.Clear()
	s.addDetailedStatistics(&stats)

	obj.Name("TotalBytes").Int(s.maxSize)
	obj.Name("Granularity").Int(int(s.granularity))
	obj.Name("Allocations").Int(stats.AllocationCount)
	obj.Name("AllocationBytes").Int(stats.AllocationBytes)
	obj.Name("FreeRanges").Int(stats.FreeRangeCount)
	obj.Name("FreeBytes").Int(stats.FreeBytes)

	if stats.AllocationCount > 0 {
		obj.Name("AllocationSizeMin").Int(stats.AllocationSizeMin)
		obj.Name("AllocationSizeMax").Int(stats.AllocationSizeMax)
	}
	if stats.FreeRangeCount > 0 {
		obj.Name("FreeRangeSizeMin").Int(stats.FreeRangeSizeMin)
		obj.Name("FreeRangeSizeMax").Int(stats.FreeRangeSizeMax)
	}

	if detailed {
		printBlocks(obj.Name("FreeList"), &s.freeList)
		printBlocks(obj.Name("AllocatedList"), &s.allocatedList)
	}

	obj.End()
	return string(writer.Bytes())
}

func printBlocks(writer *jwriter.Writer, blocks *list.List[*block.MemoryBlock]) {
	arr := writer.Array()
	defer arr.End()

	for _, current := range blocks.Blocks() {
		o := arr.Object()
		o.Name("Offset").Int(current.BaseAddress())
		o.Name("Size").Int(current.Length())
		o.End()
	}
}
