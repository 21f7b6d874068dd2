package storage

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
)

// LockKind orders lock acquisition: roles, then idempotency keys, then
// events, then tickets. An event is always locked before any of its tickets.
type LockKind int

const (
	LockRole LockKind = iota
	LockIdempotency
	LockEvent
	LockTicket
)

// LockKey names one lockable entity.
type LockKey struct {
	Kind LockKind
	ID   string
}

func (k LockKey) String() string {
	switch k.Kind {
	case LockRole:
		return "role:" + k.ID
	case LockIdempotency:
		return "idem:" + k.ID
	case LockEvent:
		return "event:" + k.ID
	case LockTicket:
		return "ticket:" + k.ID
	}
	return fmt.Sprintf("unknown(%d):%s", k.Kind, k.ID)
}

// Hash is a stable 64-bit hash of the key (FNV-64a). Stores use it for lock
// striping and advisory lock ids.
func (k LockKey) Hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte(k.String()))
	return h.Sum64()
}

// LockSet is the statically known set of entities one operation touches.
type LockSet struct {
	keys []LockKey
}

// Locks starts an empty lock set.
func Locks() LockSet {
	return LockSet{}
}

func (s LockSet) Role(identity string) LockSet {
	return s.with(LockKey{Kind: LockRole, ID: identity})
}

func (s LockSet) Idempotency(caller, key string) LockSet {
	if key == "" {
		return s
	}
	return s.with(LockKey{Kind: LockIdempotency, ID: caller + "\x00" + key})
}

func (s LockSet) Event(eventID uint64) LockSet {
	return s.with(LockKey{Kind: LockEvent, ID: strconv.FormatUint(eventID, 10)})
}

func (s LockSet) Ticket(tokenID uint64) LockSet {
	return s.with(LockKey{Kind: LockTicket, ID: strconv.FormatUint(tokenID, 10)})
}

func (s LockSet) with(k LockKey) LockSet {
	keys := make([]LockKey, 0, len(s.keys)+1)
	keys = append(keys, s.keys...)
	keys = append(keys, k)
	return LockSet{keys: keys}
}

// Keys returns the deduplicated keys in acquisition order.
func (s LockSet) Keys() []LockKey {
	seen := make(map[LockKey]bool, len(s.keys))
	out := make([]LockKey, 0, len(s.keys))
	for _, k := range s.keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return lessID(out[i].ID, out[j].ID)
	})
	return out
}

// Contains reports whether k is in the set.
func (s LockSet) Contains(k LockKey) bool {
	for _, have := range s.keys {
		if have == k {
			return true
		}
	}
	return false
}

// lessID orders numeric ids numerically and everything else lexically.
func lessID(a, b string) bool {
	an, aerr := strconv.ParseUint(a, 10, 64)
	bn, berr := strconv.ParseUint(b, 10, 64)
	if aerr == nil && berr == nil {
		return an < bn
	}
	return a < b
}
