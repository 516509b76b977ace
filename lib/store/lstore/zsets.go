package lstore

import (
	"math"

	"github.com/ValentinKolb/rKV/lib/store"
)

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

// rangeBy returns the elements between the lower bound aboveMin and the upper
// bound belowMax in (reverse) order, restricted by limit
func (z *zsetValue) rangeBy(rev bool, aboveMin, belowMax func(it zitem) bool, limit store.Limit) []zitem {
	if limit.Offset < 0 || limit.Count == 0 {
		return nil
	}
	var (
		out     []zitem
		skipped int64
	)
	visit := func(it zitem) bool {
		first, last := aboveMin, belowMax
		if rev {
			first, last = belowMax, aboveMin
		}
		if !first(it) {
			return true
		}
		if !last(it) {
			return false
		}
		if skipped < limit.Offset {
			skipped++
			return true
		}
		out = append(out, it)
		return limit.Count < 0 || int64(len(out)) < limit.Count
	}
	if rev {
		z.descend(visit)
	} else {
		z.ascend(visit)
	}
	return out
}

// scoreBounds and lexBounds adapt ranges to the element predicates of rangeBy
type (
	scoreBounds store.ScoreRange
	lexBounds   store.LexRange
)

func (r scoreBounds) aboveMin(it zitem) bool { return store.ScoreRange(r).AboveMin(it.score) }
func (r scoreBounds) belowMax(it zitem) bool { return store.ScoreRange(r).BelowMax(it.score) }

func (r lexBounds) aboveMin(it zitem) bool { return store.LexRange(r).AboveMin([]byte(it.member)) }
func (r lexBounds) belowMax(it zitem) bool { return store.LexRange(r).BelowMax([]byte(it.member)) }

// scored converts index elements into copies safe to return
func scored(items []zitem) []store.ScoredMember {
	out := make([]store.ScoredMember, len(items))
	for i, it := range items {
		out[i] = store.ScoredMember{Member: []byte(it.member), Score: it.score}
	}
	return out
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) ZAdd(key []byte, opts store.ZAddOptions, members ...store.ScoredMember) (int64, error) {
	var n int64
	err := modify(s, key, newZSet, func(z *zsetValue) error {
		for _, sm := range members {
			if math.IsNaN(sm.Score) {
				return store.ErrNotFloat
			}
		}
		for _, sm := range members {
			_, exists := z.score(sm.Member)
			if !opts.Mutation.Allows(exists) {
				continue
			}
			added, changed := z.set(sm.Member, sm.Score)
			if added || (opts.CH && changed) {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (s *storeImpl) ZAddIncr(key []byte, opts store.ZAddOptions, delta float64, member []byte) (float64, bool, error) {
	var (
		score float64
		ok    bool
	)
	err := modify(s, key, newZSet, func(z *zsetValue) error {
		current, exists := z.score(member)
		if !opts.Mutation.Allows(exists) {
			return nil
		}
		next := current + delta
		if math.IsNaN(next) {
			return store.ErrNaN
		}
		z.set(member, next)
		score, ok = next, true
		return nil
	})
	return score, ok, err
}

func (s *storeImpl) ZIncrBy(key []byte, delta float64, member []byte) (float64, error) {
	score, _, err := s.ZAddIncr(key, store.ZAddOptions{}, delta, member)
	return score, err
}

func (s *storeImpl) ZRem(key []byte, members ...[]byte) (int64, error) {
	var removed int64
	err := modify(s, key, nil, func(z *zsetValue) error {
		for _, m := range members {
			if z.del(m) {
				removed++
			}
		}
		return nil
	})
	return removed, err
}

func (s *storeImpl) ZCard(key []byte) (int64, error) {
	var n int64
	err := viewTyped(s, key, func(z *zsetValue) error {
		if z != nil {
			n = int64(z.Len())
		}
		return nil
	})
	return n, err
}

func (s *storeImpl) ZScore(key, member []byte) (float64, bool, error) {
	var (
		score  float64
		loaded bool
	)
	err := viewTyped(s, key, func(z *zsetValue) error {
		if z != nil {
			score, loaded = z.score(member)
		}
		return nil
	})
	return score, loaded, err
}

func (s *storeImpl) ZMScore(key []byte, members ...[]byte) ([]store.OptionalScore, error) {
	scores := make([]store.OptionalScore, len(members))
	err := viewTyped(s, key, func(z *zsetValue) error {
		if z == nil {
			return nil
		}
		for i, m := range members {
			scores[i].Score, scores[i].Loaded = z.score(m)
		}
		return nil
	})
	return scores, err
}

func (s *storeImpl) ZCount(key []byte, r store.ScoreRange) (int64, error) {
	var n int64
	err := viewTyped(s, key, func(z *zsetValue) error {
		if z != nil {
			b := scoreBounds(r)
			n = int64(len(z.rangeBy(false, b.aboveMin, b.belowMax, store.NoLimit())))
		}
		return nil
	})
	return n, err
}

func (s *storeImpl) ZLexCount(key []byte, r store.LexRange) (int64, error) {
	var n int64
	err := viewTyped(s, key, func(z *zsetValue) error {
		if z != nil {
			b := lexBounds(r)
			n = int64(len(z.rangeBy(false, b.aboveMin, b.belowMax, store.NoLimit())))
		}
		return nil
	})
	return n, err
}

func (s *storeImpl) ZRange(key []byte, start, stop int64, rev bool) ([]store.ScoredMember, error) {
	members := []store.ScoredMember{}
	err := viewTyped(s, key, func(z *zsetValue) error {
		if z == nil {
			return nil
		}
		from, to, ok := normalizeRange(start, stop, int64(z.Len()))
		if !ok {
			return nil
		}
		var items []zitem
		pos := 0
		visit := func(it zitem) bool {
			if pos >= from {
				items = append(items, it)
			}
			pos++
			return pos < to
		}
		if rev {
			z.descend(visit)
		} else {
			z.ascend(visit)
		}
		members = scored(items)
		return nil
	})
	return members, err
}

func (s *storeImpl) ZRangeByScore(key []byte, r store.ScoreRange, rev bool, limit store.Limit) ([]store.ScoredMember, error) {
	members := []store.ScoredMember{}
	err := viewTyped(s, key, func(z *zsetValue) error {
		if z != nil {
			b := scoreBounds(r)
			members = scored(z.rangeBy(rev, b.aboveMin, b.belowMax, limit))
		}
		return nil
	})
	return members, err
}

func (s *storeImpl) ZRangeByLex(key []byte, r store.LexRange, rev bool, limit store.Limit) ([]store.ScoredMember, error) {
	members := []store.ScoredMember{}
	err := viewTyped(s, key, func(z *zsetValue) error {
		if z != nil {
			b := lexBounds(r)
			members = scored(z.rangeBy(rev, b.aboveMin, b.belowMax, limit))
		}
		return nil
	})
	return members, err
}

func (s *storeImpl) ZRemRangeByScore(key []byte, r store.ScoreRange) (int64, error) {
	b := scoreBounds(r)
	return s.zremRange(key, b.aboveMin, b.belowMax)
}

func (s *storeImpl) ZRemRangeByLex(key []byte, r store.LexRange) (int64, error) {
	b := lexBounds(r)
	return s.zremRange(key, b.aboveMin, b.belowMax)
}

func (s *storeImpl) zremRange(key []byte, aboveMin, belowMax func(it zitem) bool) (int64, error) {
	var removed int64
	err := modify(s, key, nil, func(z *zsetValue) error {
		for _, it := range z.rangeBy(false, aboveMin, belowMax, store.NoLimit()) {
			z.del([]byte(it.member))
			removed++
		}
		return nil
	})
	return removed, err
}

func (s *storeImpl) ZRank(key, member []byte, rev bool) (int64, bool, error) {
	var (
		rank   int64
		loaded bool
	)
	err := viewTyped(s, key, func(z *zsetValue) error {
		if z == nil {
			return nil
		}
		if rank, loaded = z.rank(member); loaded && rev {
			rank = int64(z.Len()) - 1 - rank
		}
		return nil
	})
	return rank, loaded, err
}

func (s *storeImpl) ZScan(key, after []byte, count int, match store.Matcher) ([]store.ScoredMember, error) {
	var start *zitem
	if after != nil {
		score, member, err := store.ParseZMarker(after)
		if err != nil {
			return nil, store.NewError(store.RetCOperationFailed, err.Error())
		}
		start = &zitem{score: score, member: string(member)}
	}

	var members []store.ScoredMember
	err := viewTyped(s, key, func(z *zsetValue) error {
		if z == nil {
			return nil
		}
		visit := func(it zitem) bool {
			if start != nil && it == *start {
				return true
			}
			if match == nil || match.MatchString(it.member) {
				members = append(members, store.ScoredMember{Member: []byte(it.member), Score: it.score})
			}
			return len(members) < count
		}
		if start == nil {
			z.ascend(visit)
		} else {
			z.tree.AscendGreaterOrEqual(*start, visit)
		}
		return nil
	})
	return members, err
}
