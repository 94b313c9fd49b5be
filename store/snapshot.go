package store

// RootSnapshot is the recovered or current global state: the region that
// holds the authoritative header, the free-list boundaries, and every live
// collection's head. It is a value; mutating a copy has no effect on the
// store.
type RootSnapshot struct {
	// Sequence of the authoritative header.
	Sequence uint64

	// Root is the region holding the authoritative header.
	Root RegionIndex

	// FreeHead is the next region to be handed out, NoRegion when the
	// free list is empty.
	FreeHead RegionIndex

	// FreeTail is the most recently freed region, NoRegion when the free
	// list is empty.
	FreeTail RegionIndex

	// Heads maps each live collection to its registered head region.
	Heads map[CollectionID]RegionIndex
}

// Head returns the registered head region of a collection.
func (r RootSnapshot) Head(id CollectionID) (RegionIndex, bool) {
	region, ok := r.Heads[id]
	return region, ok
}

func (r RootSnapshot) clone() RootSnapshot {
	c := r
	c.Heads = make(map[CollectionID]RegionIndex, len(r.Heads))
	for id, region := range r.Heads {
		c.Heads[id] = region
	}
	return c
}
