package lstore

import (
	"github.com/ValentinKolb/rKV/lib/store"
)

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) SAdd(key []byte, members ...[]byte) (int64, error) {
	var added int64
	err := modify(s, key, newSet, func(set *setValue) error {
		for _, m := range members {
			if set.add(m) {
				added++
			}
		}
		return nil
	})
	return added, err
}

func (s *storeImpl) SRem(key []byte, members ...[]byte) (int64, error) {
	var removed int64
	err := modify(s, key, nil, func(set *setValue) error {
		for _, m := range members {
			if set.del(m) {
				removed++
			}
		}
		return nil
	})
	return removed, err
}

func (s *storeImpl) SCard(key []byte) (int64, error) {
	var n int64
	err := viewTyped(s, key, func(set *setValue) error {
		if set != nil {
			n = int64(set.Len())
		}
		return nil
	})
	return n, err
}

func (s *storeImpl) SIsMember(key, member []byte) (bool, error) {
	var ok bool
	err := viewTyped(s, key, func(set *setValue) error {
		ok = set != nil && set.has(member)
		return nil
	})
	return ok, err
}

func (s *storeImpl) SMIsMember(key []byte, members ...[]byte) ([]bool, error) {
	flags := make([]bool, len(members))
	err := viewTyped(s, key, func(set *setValue) error {
		if set == nil {
			return nil
		}
		for i, m := range members {
			flags[i] = set.has(m)
		}
		return nil
	})
	return flags, err
}

func (s *storeImpl) SMembers(key []byte) ([][]byte, error) {
	members := [][]byte{}
	err := viewTyped(s, key, func(set *setValue) error {
		if set == nil {
			return nil
		}
		for _, m := range set.members() {
			members = append(members, []byte(m))
		}
		return nil
	})
	return members, err
}

func (s *storeImpl) SPop(key []byte, count int64) ([][]byte, error) {
	var members [][]byte
	err := modify(s, key, nil, func(set *setValue) error {
		if count < 0 {
			return store.ErrSampleSize
		}
		all := set.members()
		picks, _ := sample(len(all), count, nil)
		for _, i := range picks {
			set.del([]byte(all[i]))
			members = append(members, []byte(all[i]))
		}
		return nil
	})
	return members, err
}

func (s *storeImpl) SRandMember(key []byte, count int64) ([][]byte, error) {
	var members [][]byte
	err := viewTyped(s, key, func(set *setValue) error {
		if set == nil {
			return nil
		}
		all := set.members()
		picks, err := sample(len(all), count, func(i int) int { return len(all[i]) })
		if err != nil {
			return err
		}
		members = make([][]byte, 0, len(picks))
		for _, i := range picks {
			members = append(members, []byte(all[i]))
		}
		return nil
	})
	return members, err
}

func (s *storeImpl) SScan(key, after []byte, count int, match store.Matcher) ([][]byte, error) {
	var members [][]byte
	err := viewTyped(s, key, func(set *setValue) error {
		if set == nil {
			return nil
		}
		visit := func(m string) bool {
			if after != nil && m == string(after) {
				return true
			}
			if match == nil || match.MatchString(m) {
				members = append(members, []byte(m))
			}
			return len(members) < count
		}
		if after == nil {
			set.tree.Ascend(visit)
		} else {
			set.tree.AscendGreaterOrEqual(string(after), visit)
		}
		return nil
	})
	return members, err
}
