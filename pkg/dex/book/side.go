package book

import "sort"

// levelIndex is one side of the book: price levels kept in a slice sorted by
// priority (descending prices for bids, ascending for asks), located by binary
// search. Level counts stay small relative to order counts, so a sorted index
// beats a tree on storage overhead and gives a canonical iteration order for
// the codec.
type levelIndex struct {
	levels  []*PriceLevel
	reverse bool // true for the bid side
}

// search returns the slice position for price and whether a level already
// exists there.
func (s *levelIndex) search(price uint64) (int, bool) {
	i := sort.Search(len(s.levels), func(i int) bool {
		if s.reverse {
			return s.levels[i].Price <= price
		}
		return s.levels[i].Price >= price
	})
	if i < len(s.levels) && s.levels[i].Price == price {
		return i, true
	}
	return i, false
}

// upsert returns the level at price, creating it in sorted position if absent.
func (s *levelIndex) upsert(price uint64) *PriceLevel {
	i, ok := s.search(price)
	if ok {
		return s.levels[i]
	}
	l := &PriceLevel{Price: price}
	s.levels = append(s.levels, nil)
	copy(s.levels[i+1:], s.levels[i:])
	s.levels[i] = l
	return l
}

func (s *levelIndex) get(price uint64) *PriceLevel {
	if i, ok := s.search(price); ok {
		return s.levels[i]
	}
	return nil
}

// drop removes the level at price. Callers only drop empty levels.
func (s *levelIndex) drop(price uint64) {
	if i, ok := s.search(price); ok {
		s.levels = append(s.levels[:i], s.levels[i+1:]...)
	}
}

// best returns the highest-priority level, or nil when the side is empty.
func (s *levelIndex) best() *PriceLevel {
	if len(s.levels) == 0 {
		return nil
	}
	return s.levels[0]
}

func (s *levelIndex) empty() bool { return len(s.levels) == 0 }
