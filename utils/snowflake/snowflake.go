package snowflake

import (
	"errors"
	"sync"
	"time"
)

const (
	// Epoch is the custom epoch (January 1, 2024 00:00:00 UTC), milliseconds.
	Epoch int64 = 1704067200000

	DefaultNodeIDBits   uint8 = 5
	DefaultWorkerIDBits uint8 = 5
	DefaultSequenceBits uint8 = 12
)

var (
	ErrInvalidNodeID        = errors.New("node ID exceeds maximum value")
	ErrInvalidWorkerID      = errors.New("worker ID exceeds maximum value")
	ErrClockMovedBackwards  = errors.New("clock moved backwards")
	ErrInvalidBitAllocation = errors.New("invalid bit allocation: total bits must not exceed 22")
)

// Generator produces unique, time-ordered 63-bit IDs. Message IDs come
// from here so ordering by ID matches ordering by creation time within a
// node.
type Generator struct {
	mu sync.Mutex

	epoch        int64
	nodeID       int64
	workerID     int64
	nodeIDBits   uint8
	workerIDBits uint8
	sequenceBits uint8

	workerIDShift  uint8
	nodeIDShift    uint8
	timestampShift uint8
	sequenceMask   int64
	workerIDMask   int64
	nodeIDMask     int64

	sequence      int64
	lastTimestamp int64
}

// Config holds the generator configuration. Zero bit widths fall back to
// the defaults.
type Config struct {
	Epoch        int64
	NodeID       int64
	WorkerID     int64
	NodeIDBits   uint8
	WorkerIDBits uint8
	SequenceBits uint8
}

func NewGenerator(config Config) (*Generator, error) {
	if config.NodeIDBits == 0 {
		config.NodeIDBits = DefaultNodeIDBits
	}
	if config.WorkerIDBits == 0 {
		config.WorkerIDBits = DefaultWorkerIDBits
	}
	if config.SequenceBits == 0 {
		config.SequenceBits = DefaultSequenceBits
	}
	if config.Epoch == 0 {
		config.Epoch = Epoch
	}

	// 41 timestamp bits plus the sign bit leaves 22 for the rest.
	totalBits := config.NodeIDBits + config.WorkerIDBits + config.SequenceBits
	if totalBits > 22 {
		return nil, ErrInvalidBitAllocation
	}

	g := &Generator{
		epoch:        config.Epoch,
		nodeID:       config.NodeID,
		workerID:     config.WorkerID,
		nodeIDBits:   config.NodeIDBits,
		workerIDBits: config.WorkerIDBits,
		sequenceBits: config.SequenceBits,
	}

	g.workerIDShift = g.sequenceBits
	g.nodeIDShift = g.sequenceBits + g.workerIDBits
	g.timestampShift = g.sequenceBits + g.workerIDBits + g.nodeIDBits

	g.sequenceMask = -1 ^ (-1 << g.sequenceBits)
	g.workerIDMask = -1 ^ (-1 << g.workerIDBits)
	g.nodeIDMask = -1 ^ (-1 << g.nodeIDBits)

	if g.workerID > g.workerIDMask || g.workerID < 0 {
		return nil, ErrInvalidWorkerID
	}
	if g.nodeID > g.nodeIDMask || g.nodeID < 0 {
		return nil, ErrInvalidNodeID
	}

	return g, nil
}

// NextID generates the next unique ID.
func (g *Generator) NextID() (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	timestamp := g.currentTimestamp()
	if timestamp < g.lastTimestamp {
		return 0, ErrClockMovedBackwards
	}

	if timestamp == g.lastTimestamp {
		g.sequence = (g.sequence + 1) & g.sequenceMask
		if g.sequence == 0 {
			timestamp = g.waitNextMillis(g.lastTimestamp)
		}
	} else {
		g.sequence = 0
	}

	g.lastTimestamp = timestamp

	id := ((timestamp - g.epoch) << g.timestampShift) |
		(g.nodeID << g.nodeIDShift) |
		(g.workerID << g.workerIDShift) |
		g.sequence

	return id, nil
}

func (g *Generator) currentTimestamp() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}

func (g *Generator) waitNextMillis(lastTimestamp int64) int64 {
	timestamp := g.currentTimestamp()
	for timestamp <= lastTimestamp {
		timestamp = g.currentTimestamp()
	}
	return timestamp
}

// Parse extracts the components of an ID.
func (g *Generator) Parse(id int64) (timestamp, nodeID, workerID, sequence int64) {
	sequence = id & g.sequenceMask
	workerID = (id >> g.workerIDShift) & g.workerIDMask
	nodeID = (id >> g.nodeIDShift) & g.nodeIDMask
	timestamp = (id >> g.timestampShift) + g.epoch
	return
}

// Timestamp extracts the creation time of an ID in epoch milliseconds.
func (g *Generator) Timestamp(id int64) int64 {
	return (id >> g.timestampShift) + g.epoch
}
