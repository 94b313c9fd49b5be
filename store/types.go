package store

import (
	"strconv"

	"github.com/flashkit/flashkit/internal/format"
)

// RegionIndex is a plain integer handle into the medium's fixed region
// table. Regions reference each other by index only; there are no pointer
// graphs on flash.
type RegionIndex uint32

// NoRegion is the absent region index.
const NoRegion = RegionIndex(format.NoRegion)

func (r RegionIndex) String() string {
	if r == NoRegion {
		return "none"
	}
	return strconv.FormatUint(uint64(r), 10)
}

// CollectionID identifies a collection across the device lifetime. Id 0 is
// reserved and never owned by a collection.
type CollectionID uint64

// WALCollection is the id of the distinguished write-ahead log that
// anchors region 0 at initialization.
const WALCollection CollectionID = 1

// CollectionType tags what kind of collection occupies a region.
type CollectionType = format.CollectionType

const (
	TypeFree  = format.TypeFree
	TypeWAL   = format.TypeWAL
	TypeMap   = format.TypeMap
	TypeQueue = format.TypeQueue
	TypeSet   = format.TypeSet
	TypeLog   = format.TypeLog
)

// RegionInfo is a per-region summary produced by scanning, used by
// inspection tooling and by collections walking their own region chains.
type RegionInfo struct {
	Region     RegionIndex
	Valid      bool
	Sequence   uint64
	Collection CollectionID
	Type       CollectionType
	HeadCount  int
}
