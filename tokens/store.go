package tokens

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/cespare/xxhash"
)

// Store holds the authoritative token array and the last-sync time.
// Mutations are serialized by the relay; the lock only guards readers
// that run concurrently with the mutation path (HTTP snapshots, SSE
// catch-up, metrics).
type Store struct {
	lock     sync.RWMutex
	tokens   []Token
	lastSync time.Time
}

func NewStore() *Store {
	return &Store{}
}

// ApplySync replaces the stored set with the incoming one, except that
// stored manual tokens absent from the incoming set survive the
// replacement. Tool-originated tokens are replaced wholesale.
func (s *Store) ApplySync(incoming []Token) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.tokens = MergeSync(s.tokens, incoming)
	s.lastSync = time.Now()
}

// MergeSync is the partition rule shared by the relay store and
// client-side state owners: the incoming set wins, current manual
// tokens not present in it are carried over.
func MergeSync(current, incoming []Token) []Token {
	seen := make(map[string]struct{}, len(incoming))
	next := make([]Token, 0, len(incoming))
	for _, t := range incoming {
		next = append(next, t)
		seen[t.ID] = struct{}{}
	}
	for _, t := range current {
		if t.External() {
			continue
		}
		if _, ok := seen[t.ID]; !ok {
			next = append(next, t)
		}
	}
	return next
}

// ApplyUpdate upserts by id: replace in place when the id matches,
// append otherwise.
func (s *Store) ApplyUpdate(token Token) {
	s.lock.Lock()
	defer s.lock.Unlock()

	for i := range s.tokens {
		if s.tokens[i].ID == token.ID {
			s.tokens[i] = token
			return
		}
	}
	s.tokens = append(s.tokens, token)
}

func (s *Store) ApplyCreate(token Token) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.tokens = append(s.tokens, token)
}

// ApplyDelete removes the token with the given id. Deleting an id that
// is not there is a no-op.
func (s *Store) ApplyDelete(id string) {
	s.lock.Lock()
	defer s.lock.Unlock()

	for i := range s.tokens {
		if s.tokens[i].ID == id {
			s.tokens = append(s.tokens[:i], s.tokens[i+1:]...)
			return
		}
	}
}

// Snapshot returns a copy of the current token array. Callers own the
// returned slice.
func (s *Store) Snapshot() []Token {
	s.lock.RLock()
	defer s.lock.RUnlock()

	snap := make([]Token, len(s.tokens))
	copy(snap, s.tokens)
	return snap
}

func (s *Store) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.tokens)
}

func (s *Store) LastSync() time.Time {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.lastSync
}

// Digest is a cheap fingerprint of the current state, used by polling
// clients to skip re-applying an unchanged snapshot.
func (s *Store) Digest() uint64 {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return DigestOf(s.tokens)
}

func DigestOf(toks []Token) uint64 {
	if len(toks) == 0 {
		return 0
	}
	raw, err := json.Marshal(toks)
	if err != nil {
		return 0
	}
	return xxhash.Sum64(raw)
}
