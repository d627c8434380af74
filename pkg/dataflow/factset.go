package dataflow

import roaring "github.com/RoaringBitmap/roaring/v2"

// mapFactSet backs a FactSet with a plain map, used below
// coreconfig.Options.BitsetThreshold facts where the bookkeeping a
// bitmap needs isn't worth it.
type mapFactSet struct {
	items map[FactID]struct{}
}

// NewMapFactSet returns an empty map-backed FactSet.
func NewMapFactSet() FactSet {
	return &mapFactSet{items: make(map[FactID]struct{})}
}

func (s *mapFactSet) Add(f FactID)           { s.items[f] = struct{}{} }
func (s *mapFactSet) Contains(f FactID) bool { _, ok := s.items[f]; return ok }

func (s *mapFactSet) Union(other FactSet) bool {
	changed := false
	for _, f := range other.Items() {
		if !s.Contains(f) {
			s.items[f] = struct{}{}
			changed = true
		}
	}
	return changed
}

func (s *mapFactSet) Clone() FactSet {
	out := make(map[FactID]struct{}, len(s.items))
	for f := range s.items {
		out[f] = struct{}{}
	}
	return &mapFactSet{items: out}
}

func (s *mapFactSet) Equal(other FactSet) bool {
	o, ok := other.(*mapFactSet)
	if !ok || len(o.items) != len(s.items) {
		return sameItems(s, other)
	}
	for f := range s.items {
		if _, ok := o.items[f]; !ok {
			return false
		}
	}
	return true
}

func (s *mapFactSet) Items() []FactID {
	out := make([]FactID, 0, len(s.items))
	for f := range s.items {
		out = append(out, f)
	}
	return out
}

// bitsetFactSet backs a FactSet with a Roaring bitmap, used at or above
// coreconfig.Options.BitsetThreshold facts, mirroring the sparse-bitset
// approach panbanda-omen's HierarchicalBitSet uses to keep large
// reachability sets compact.
type bitsetFactSet struct {
	bitmap *roaring.Bitmap
}

// NewBitsetFactSet returns an empty Roaring-bitmap-backed FactSet.
func NewBitsetFactSet() FactSet {
	return &bitsetFactSet{bitmap: roaring.New()}
}

func (s *bitsetFactSet) Add(f FactID)           { s.bitmap.Add(uint32(f)) }
func (s *bitsetFactSet) Contains(f FactID) bool { return s.bitmap.Contains(uint32(f)) }

func (s *bitsetFactSet) Union(other FactSet) bool {
	before := s.bitmap.GetCardinality()
	if o, ok := other.(*bitsetFactSet); ok {
		s.bitmap.Or(o.bitmap)
	} else {
		for _, f := range other.Items() {
			s.bitmap.Add(uint32(f))
		}
	}
	return s.bitmap.GetCardinality() != before
}

func (s *bitsetFactSet) Clone() FactSet {
	return &bitsetFactSet{bitmap: s.bitmap.Clone()}
}

func (s *bitsetFactSet) Equal(other FactSet) bool {
	if o, ok := other.(*bitsetFactSet); ok {
		return s.bitmap.Equals(o.bitmap)
	}
	return sameItems(s, other)
}

func (s *bitsetFactSet) Items() []FactID {
	vals := s.bitmap.ToArray()
	out := make([]FactID, len(vals))
	for i, v := range vals {
		out[i] = FactID(v)
	}
	return out
}

func sameItems(a, b FactSet) bool {
	itemsA, itemsB := a.Items(), b.Items()
	if len(itemsA) != len(itemsB) {
		return false
	}
	seen := make(map[FactID]bool, len(itemsA))
	for _, f := range itemsA {
		seen[f] = true
	}
	for _, f := range itemsB {
		if !seen[f] {
			return false
		}
	}
	return true
}

// FactSetFactory returns the NewFactSet constructor appropriate for a
// universe of the given size, per coreconfig.Options.BitsetThreshold.
func FactSetFactory(universeSize, bitsetThreshold int) func() FactSet {
	if universeSize >= bitsetThreshold {
		return NewBitsetFactSet
	}
	return NewMapFactSet
}
