package config

import (
	"strings"
	"sync"
	"sync/atomic"

	"main/internal/model/enum"
)

// Mapping translates a source ticker to a tradable instrument and the
// default quantity every order for it carries.
type Mapping struct {
	Target   string
	Quantity int
}

// Account is one downstream trading account entry.
type Account struct {
	ID        string
	OrderType enum.OrderType
	Enabled   bool
}

type snapshot struct {
	mappings map[string]Mapping
	accounts []Account
}

// Store holds the active instrument-mapping and account tables.
// Readers load a full snapshot through an atomic value; Reload builds
// the replacement off to the side and publishes it with one swap, so a
// reader sees either the whole old table or the whole new one.
type Store struct {
	mu     sync.Mutex
	active atomic.Value // *snapshot
}

func NewStore(mappings map[string]Mapping, accounts []Account) *Store {
	s := &Store{}
	s.active.Store(buildSnapshot(mappings, accounts))
	return s
}

// Mapping resolves a source ticker. Unmapped tickers resolve to
// themselves with quantity 1, so resolution never fails.
func (s *Store) Mapping(ticker string) Mapping {
	snap := s.active.Load().(*snapshot)
	key := strings.ToUpper(strings.TrimSpace(ticker))
	if m, ok := snap.mappings[key]; ok {
		return m
	}
	return Mapping{Target: ticker, Quantity: 1}
}

// Accounts returns a copy of the active account table. Callers iterate
// it without being affected by a concurrent reload.
func (s *Store) Accounts() []Account {
	snap := s.active.Load().(*snapshot)
	out := make([]Account, len(snap.accounts))
	copy(out, snap.accounts)
	return out
}

// Reload publishes a new snapshot. In-flight readers keep the tables
// they already loaded; new reads see the new tables.
func (s *Store) Reload(mappings map[string]Mapping, accounts []Account) {
	snap := buildSnapshot(mappings, accounts)
	s.mu.Lock()
	s.active.Store(snap)
	s.mu.Unlock()
}

func buildSnapshot(mappings map[string]Mapping, accounts []Account) *snapshot {
	snap := &snapshot{
		mappings: make(map[string]Mapping, len(mappings)),
		accounts: make([]Account, len(accounts)),
	}
	for key, m := range mappings {
		if m.Quantity < 1 {
			m.Quantity = 1
		}
		snap.mappings[strings.ToUpper(strings.TrimSpace(key))] = m
	}
	copy(snap.accounts, accounts)
	return snap
}
