package memspace

import (
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/memlist"
	"github.com/vkngwrapper/memlist/block"
	"github.com/vkngwrapper/memlist/internal/utils"
	"golang.org/x/exp/slog"
)

// CreateFlags indicate specific memory space behaviors to activate or deactivate
type CreateFlags int32

var createFlagsMapping = common.NewFlagStringMapping[CreateFlags]()

func (f CreateFlags) Register(str string) {
	createFlagsMapping.Register(f, str)
}
func (f CreateFlags) String() string {
	return createFlagsMapping.FlagsToString(f)
}

const (
	// CreateExternallySynchronized ensures that the memory space will not be synchronized internally.
	// The consumer must guarantee it is used from only one goroutine at a time or is synchronized by
	// some other mechanism.
	CreateExternallySynchronized CreateFlags = 1 << iota
)

func init() {
	CreateExternallySynchronized.Register("CreateExternallySynchronized")
}

const (
	// defaultAddressIndexSize is the initial capacity of the address index
	defaultAddressIndexSize = 42
)

// CreateOptions contains optional settings when creating a MemorySpace. It is valid to leave all
// the fields blank.
type CreateOptions struct {
	// Flags indicates specific memory space behaviors to activate or deactivate
	Flags CreateFlags
	// Granularity is the unit that allocation lengths are rounded up to. It must be a power of two.
	// 0 is treated as 1.
	Granularity uint
	// Strategy chooses which free block satisfies an allocation. If nil, AllocationStrategyMinTime
	// (first fit) is used.
	Strategy FitStrategy
}

// New creates a MemorySpace managing maxSize bytes, all of which start out free as a single block
// at address 0. If logger is nil, slog.Default() is used.
func New(logger *slog.Logger, maxSize int, options CreateOptions) (*MemorySpace, error) {
	err := memlist.CheckLength(maxSize, "maxSize")
	if err != nil {
		return nil, err
	}

	granularity := options.Granularity
	if granularity == 0 {
		granularity = 1
	}
	err = memlist.CheckPow2(granularity, "granularity")
	if err != nil {
		return nil, err
	}

	strategy := options.Strategy
	if strategy == nil {
		strategy = AllocationStrategyMinTime
	}

	if logger == nil {
		logger = slog.Default()
	}

	space := &MemorySpace{
		mutex:                utils.OptionalMutex{UseMutex: options.Flags&CreateExternallySynchronized == 0},
		logger:               logger,
		flags:                options.Flags,
		maxSize:              maxSize,
		granularity:          granularity,
		strategy:             strategy,
		allocationsByAddress: swiss.NewMap[int, *block.MemoryBlock](defaultAddressIndexSize),
	}
	space.freeList.InsertLast(block.New(0, maxSize))

	logger.Debug("MemorySpace::New",
		slog.Int("MaxSize", maxSize),
		slog.Int("Granularity", int(granularity)),
		slog.String("Flags", options.Flags.String()),
	)

	return space, nil
}
