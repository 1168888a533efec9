package memspace_test

import (
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/memlist"
	"github.com/vkngwrapper/memlist/block"
	"github.com/vkngwrapper/memlist/list"
	"github.com/vkngwrapper/memlist/memspace"
	mock_memspace "github.com/vkngwrapper/memlist/memspace/mocks"
	"go.uber.org/mock/gomock"
	"golang.org/x/exp/slog"
)

type region struct {
	BaseAddress int
	Length      int
}

func regions(blocks []*block.MemoryBlock) []region {
	out := make([]region, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, region{BaseAddress: b.BaseAddress(), Length: b.Length()})
	}
	return out
}

func newSpace(t *testing.T, maxSize int, options memspace.CreateOptions) *memspace.MemorySpace {
	t.Helper()

	space, err := memspace.New(slog.Default(), maxSize, options)
	require.NoError(t, err)
	require.NoError(t, space.Validate())
	return space
}

func requireLayout(t *testing.T, space *memspace.MemorySpace, free []region, allocated []region) {
	t.Helper()

	require.NoError(t, space.Validate())
	require.Equal(t, free, regions(space.FreeList()))
	require.Equal(t, allocated, regions(space.AllocatedList()))
}

func TestNewMemorySpace(t *testing.T) {
	space := newSpace(t, 100, memspace.CreateOptions{})

	require.Equal(t, 100, space.MaxSize())
	require.True(t, space.IsEmpty())
	requireLayout(t, space, []region{{0, 100}}, []region{})
	require.Equal(t, "(0 , 100) \n", space.String())
}

func TestNewMemorySpaceInvalidOptions(t *testing.T) {
	_, err := memspace.New(nil, 0, memspace.CreateOptions{})
	require.ErrorIs(t, err, memlist.ErrInvalidLength)

	_, err = memspace.New(nil, -10, memspace.CreateOptions{})
	require.ErrorIs(t, err, memlist.ErrInvalidLength)

	_, err = memspace.New(nil, 100, memspace.CreateOptions{Granularity: 3})
	require.ErrorIs(t, err, memlist.PowerOfTwoError)
}

func TestMallocSplitsFreeBlock(t *testing.T) {
	space := newSpace(t, 100, memspace.CreateOptions{})

	address, err := space.Malloc(10)
	require.NoError(t, err)
	require.Equal(t, 0, address)

	address, err = space.Malloc(25)
	require.NoError(t, err)
	require.Equal(t, 10, address)

	requireLayout(t, space, []region{{35, 65}}, []region{{0, 10}, {10, 25}})
	require.Equal(t, "(35 , 65) \n(0 , 10) (10 , 25) ", space.String())
}

func TestMallocExactFitMovesBlock(t *testing.T) {
	space := newSpace(t, 100, memspace.CreateOptions{})

	free := space.FreeList()[0]

	address, err := space.Malloc(100)
	require.NoError(t, err)
	require.Equal(t, 0, address)

	requireLayout(t, space, []region{}, []region{{0, 100}})
	require.Same(t, free, space.AllocatedList()[0])
}

func TestMallocOutOfMemory(t *testing.T) {
	space := newSpace(t, 100, memspace.CreateOptions{})

	_, err := space.Malloc(60)
	require.NoError(t, err)

	_, err = space.Malloc(41)
	require.ErrorIs(t, err, memspace.ErrOutOfMemory)

	requireLayout(t, space, []region{{60, 40}}, []region{{0, 60}})
}

func TestMallocInvalidLength(t *testing.T) {
	space := newSpace(t, 100, memspace.CreateOptions{})

	_, err := space.Malloc(0)
	require.ErrorIs(t, err, memlist.ErrInvalidLength)

	_, err = space.Malloc(-1)
	require.ErrorIs(t, err, memlist.ErrInvalidLength)

	requireLayout(t, space, []region{{0, 100}}, []region{})
}

func TestMallocRoundsUpToGranularity(t *testing.T) {
	space := newSpace(t, 128, memspace.CreateOptions{Granularity: 16})

	address, err := space.Malloc(10)
	require.NoError(t, err)
	require.Equal(t, 0, address)

	address, err = space.Malloc(16)
	require.NoError(t, err)
	require.Equal(t, 16, address)

	requireLayout(t, space, []region{{32, 96}}, []region{{0, 16}, {16, 16}})
}

func TestFree(t *testing.T) {
	space := newSpace(t, 100, memspace.CreateOptions{})

	first, err := space.Malloc(10)
	require.NoError(t, err)
	second, err := space.Malloc(20)
	require.NoError(t, err)

	require.NoError(t, space.Free(first))
	requireLayout(t, space, []region{{30, 70}, {0, 10}}, []region{{10, 20}})

	err = space.Free(first)
	require.ErrorIs(t, err, memspace.ErrUnknownAddress)

	err = space.Free(15)
	require.ErrorIs(t, err, memspace.ErrUnknownAddress)

	require.NoError(t, space.Free(second))
	require.True(t, space.IsEmpty())
	requireLayout(t, space, []region{{30, 70}, {0, 10}, {10, 20}}, []region{})
}

func TestFreedBlockIsReused(t *testing.T) {
	space := newSpace(t, 30, memspace.CreateOptions{})

	first, err := space.Malloc(10)
	require.NoError(t, err)
	_, err = space.Malloc(20)
	require.NoError(t, err)

	_, err = space.Malloc(5)
	require.ErrorIs(t, err, memspace.ErrOutOfMemory)

	require.NoError(t, space.Free(first))

	address, err := space.Malloc(5)
	require.NoError(t, err)
	require.Equal(t, first, address)
	requireLayout(t, space, []region{{5, 5}}, []region{{10, 20}, {0, 5}})
}

func TestDefrag(t *testing.T) {
	space := newSpace(t, 100, memspace.CreateOptions{})

	a, err := space.Malloc(10)
	require.NoError(t, err)
	b, err := space.Malloc(20)
	require.NoError(t, err)
	c, err := space.Malloc(30)
	require.NoError(t, err)

	require.NoError(t, space.Free(b))
	require.NoError(t, space.Free(a))
	requireLayout(t, space, []region{{60, 40}, {10, 20}, {0, 10}}, []region{{30, 30}})

	require.Equal(t, 1, space.Defrag())
	requireLayout(t, space, []region{{0, 30}, {60, 40}}, []region{{30, 30}})

	require.NoError(t, space.Free(c))
	require.Equal(t, 2, space.Defrag())
	requireLayout(t, space, []region{{0, 100}}, []region{})

	require.Equal(t, 0, space.Defrag())
	requireLayout(t, space, []region{{0, 100}}, []region{})
}

func TestDefragFullyAllocated(t *testing.T) {
	space := newSpace(t, 10, memspace.CreateOptions{})

	_, err := space.Malloc(10)
	require.NoError(t, err)

	require.Equal(t, 0, space.Defrag())
	requireLayout(t, space, []region{}, []region{{0, 10}})
}

func TestStrategies(t *testing.T) {
	testCases := map[string]struct {
		Strategy memspace.FitStrategy
		Expected int
	}{
		"Default":   {Strategy: nil, Expected: 70},
		"MinTime":   {Strategy: memspace.AllocationStrategyMinTime, Expected: 70},
		"MinMemory": {Strategy: memspace.AllocationStrategyMinMemory, Expected: 50},
		"MinOffset": {Strategy: memspace.AllocationStrategyMinOffset, Expected: 10},
		"Combined":  {Strategy: memspace.AllocationStrategyMinOffset | memspace.AllocationStrategyMinMemory, Expected: 50},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			space := newSpace(t, 100, memspace.CreateOptions{Strategy: testCase.Strategy})

			for _, length := range []int{10, 30, 10, 20} {
				_, err := space.Malloc(length)
				require.NoError(t, err)
			}
			require.NoError(t, space.Free(10))
			require.NoError(t, space.Free(50))
			requireLayout(t, space, []region{{70, 30}, {10, 30}, {50, 20}}, []region{{0, 10}, {40, 10}})

			address, err := space.Malloc(20)
			require.NoError(t, err)
			require.Equal(t, testCase.Expected, address)
			require.NoError(t, space.Validate())
		})
	}
}

func TestMallocConsultsStrategy(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	strategy := mock_memspace.NewMockFitStrategy(ctrl)
	space := newSpace(t, 100, memspace.CreateOptions{Strategy: strategy, Granularity: 8})

	strategy.EXPECT().SelectFreeBlock(gomock.Any(), 16).DoAndReturn(
		func(freeList *list.List[*block.MemoryBlock], length int) (int, error) {
			require.Equal(t, 1, freeList.Size())
			return 0, nil
		})

	address, err := space.Malloc(13)
	require.NoError(t, err)
	require.Equal(t, 0, address)
	requireLayout(t, space, []region{{16, 84}}, []region{{0, 16}})
}

func TestMallocStrategyFailures(t *testing.T) {
	strategyErr := errors.New("strategy failure")

	testCases := map[string]struct {
		Index    int
		Err      error
		Length   int
		Expected error
	}{
		"StrategyError": {Index: 0, Err: strategyErr, Length: 10, Expected: strategyErr},
		"NotFound":      {Index: list.NotFound, Length: 10, Expected: memspace.ErrOutOfMemory},
		"OutOfRange":    {Index: 3, Length: 10, Expected: memlist.ErrInvalidIndex},
		"TooSmall":      {Index: 0, Length: 200},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			strategy := mock_memspace.NewMockFitStrategy(ctrl)
			space := newSpace(t, 100, memspace.CreateOptions{Strategy: strategy})

			strategy.EXPECT().SelectFreeBlock(gomock.Any(), testCase.Length).Return(testCase.Index, testCase.Err)

			_, err := space.Malloc(testCase.Length)
			require.Error(t, err)
			if testCase.Expected != nil {
				require.ErrorIs(t, err, testCase.Expected)
			}

			requireLayout(t, space, []region{{0, 100}}, []region{})
		})
	}
}

func TestStatistics(t *testing.T) {
	space := newSpace(t, 100, memspace.CreateOptions{})

	for _, length := range []int{10, 20, 30} {
		_, err := space.Malloc(length)
		require.NoError(t, err)
	}
	require.NoError(t, space.Free(10))

	var stats memlist.Statistics
	space.AddStatistics(&stats)
	require.Equal(t, memlist.Statistics{
		AllocationCount: 2,
		AllocationBytes: 40,
		FreeRangeCount:  2,
		FreeBytes:       60,
	}, stats)

	var detailed memlist.DetailedStatistics
	detailed.Clear()
	space.AddDetailedStatistics(&detailed)
	require.Equal(t, memlist.DetailedStatistics{
		Statistics:        stats,
		AllocationSizeMin: 10,
		AllocationSizeMax: 30,
		FreeRangeSizeMin:  20,
		FreeRangeSizeMax:  40,
	}, detailed)
}

func TestBuildStatsString(t *testing.T) {
	space := newSpace(t, 100, memspace.CreateOptions{})

	_, err := space.Malloc(10)
	require.NoError(t, err)
	_, err = space.Malloc(20)
	require.NoError(t, err)

	require.JSONEq(t, `{
		"TotalBytes": 100,
		"Granularity": 1,
		"Allocations": 2,
		"AllocationBytes": 30,
		"FreeRanges": 1,
		"FreeBytes": 70,
		"AllocationSizeMin": 10,
		"AllocationSizeMax": 20,
		"FreeRangeSizeMin": 70,
		"FreeRangeSizeMax": 70
	}`, space.BuildStatsString(false))

	require.JSONEq(t, `{
		"TotalBytes": 100,
		"Granularity": 1,
		"Allocations": 2,
		"AllocationBytes": 30,
		"FreeRanges": 1,
		"FreeBytes": 70,
		"AllocationSizeMin": 10,
		"AllocationSizeMax": 20,
		"FreeRangeSizeMin": 70,
		"FreeRangeSizeMax": 70,
		"FreeList": [{"Offset": 30, "Size": 70}],
		"AllocatedList": [{"Offset": 0, "Size": 10}, {"Offset": 10, "Size": 20}]
	}`, space.BuildStatsString(true))
}

func TestBuildStatsStringEmptyFreeList(t *testing.T) {
	space := newSpace(t, 8, memspace.CreateOptions{})

	_, err := space.Malloc(8)
	require.NoError(t, err)

	require.JSONEq(t, `{
		"TotalBytes": 8,
		"Granularity": 1,
		"Allocations": 1,
		"AllocationBytes": 8,
		"FreeRanges": 0,
		"FreeBytes": 0,
		"AllocationSizeMin": 8,
		"AllocationSizeMax": 8,
		"FreeList": [],
		"AllocatedList": [{"Offset": 0, "Size": 8}]
	}`, space.BuildStatsString(true))
}

func TestDestroy(t *testing.T) {
	space := newSpace(t, 100, memspace.CreateOptions{})

	address, err := space.Malloc(10)
	require.NoError(t, err)

	require.Error(t, space.Destroy())

	require.NoError(t, space.Free(address))
	require.NoError(t, space.Destroy())
}

func TestCreateFlags(t *testing.T) {
	require.Contains(t, memspace.CreateExternallySynchronized.String(), "CreateExternallySynchronized")

	space := newSpace(t, 100, memspace.CreateOptions{Flags: memspace.CreateExternallySynchronized})

	address, err := space.Malloc(50)
	require.NoError(t, err)
	require.NoError(t, space.Free(address))
	requireLayout(t, space, []region{{50, 50}, {0, 50}}, []region{})
}

func TestConcurrentMallocAndFree(t *testing.T) {
	space := newSpace(t, 1024, memspace.CreateOptions{})

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for j := 0; j < 50; j++ {
				address, err := space.Malloc(8)
				if err != nil {
					errs <- err
					return
				}

				err = space.Free(address)
				if err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	require.True(t, space.IsEmpty())
	require.NoError(t, space.Validate())

	space.Defrag()
	requireLayout(t, space, []region{{0, 1024}}, []region{})
}
