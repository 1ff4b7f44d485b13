package feed

import (
	"container/list"
	"time"
)

// SeenSet records entry identities in least recently seen order. Trim drops
// the oldest identities once the limit is exceeded; a limit of zero keeps
// every identity.
type SeenSet struct {
	limit int
	order *list.List
	index map[string]*list.Element
}

type seenEntry struct {
	identity string
	lastSeen time.Time
}

func NewSeenSet(limit int) *SeenSet {
	return &SeenSet{
		limit: limit,
		order: list.New(),
		index: make(map[string]*list.Element),
	}
}

// Touch records the identity as seen at now and reports whether it was new.
func (s *SeenSet) Touch(identity string, now time.Time) bool {
	if elem, ok := s.index[identity]; ok {
		elem.Value.(*seenEntry).lastSeen = now
		s.order.MoveToFront(elem)
		return false
	}

	s.index[identity] = s.order.PushFront(&seenEntry{identity: identity, lastSeen: now})
	return true
}

// Trim evicts least recently seen identities while the set is over its limit.
// The keep most recently touched identities always survive, so a document
// larger than the limit never forgets its own entries.
func (s *SeenSet) Trim(keep int) int {
	if s.limit <= 0 {
		return 0
	}

	limit := max(s.limit, keep)
	evicted := 0
	for s.order.Len() > limit {
		oldest := s.order.Back()
		s.order.Remove(oldest)
		delete(s.index, oldest.Value.(*seenEntry).identity)
		evicted++
	}
	return evicted
}

func (s *SeenSet) Len() int {
	return s.order.Len()
}
