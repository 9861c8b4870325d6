package document

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/roach88/scenekit/internal/blueprint"
)

// snapshot is a deep copy of the path mapping.
type snapshot map[string]blueprint.Blueprint

// Store is the scene document with undo/redo history.
//
// INVARIANTS:
//   - every key equals the path of its blueprint
//   - blueprints held by past/future never alias live ones
//   - seq only grows between Reset/Load calls
type Store struct {
	blueprints map[string]blueprint.Blueprint
	past       []snapshot
	future     []snapshot
	seq        int

	historyLimit int
	logger       *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithHistoryLimit bounds the number of undo steps kept. When exceeded the
// oldest snapshot is dropped. Zero (the default) keeps everything.
func WithHistoryLimit(n int) StoreOption {
	return func(s *Store) {
		s.historyLimit = max(n, 0)
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = l
	}
}

// New returns an empty Store.
func New(opts ...StoreOption) *Store {
	s := &Store{
		blueprints: make(map[string]blueprint.Blueprint),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add inserts bp. The sequence counter advances on success.
func (s *Store) Add(bp blueprint.Blueprint) error {
	p := bp.Header().Path
	if _, ok := s.blueprints[p]; ok {
		return fmt.Errorf("add %q: %w", p, ErrExists)
	}
	s.pushHistory()
	s.blueprints[p] = bp.Clone()
	s.seq++
	s.logger.Debug("blueprint added", "path", p, "kind", bp.Kind())
	return nil
}

// Remove deletes the entity at p and every entity below it. Ancestors are
// untouched.
func (s *Store) Remove(p string) error {
	if _, ok := s.blueprints[p]; !ok {
		return fmt.Errorf("remove %q: %w", p, ErrNotFound)
	}
	s.pushHistory()
	removed := 0
	for key := range s.blueprints {
		if blueprint.IsPathOrDescendant(key, p) {
			delete(s.blueprints, key)
			removed++
		}
	}
	s.logger.Debug("blueprint removed", "path", p, "count", removed)
	return nil
}

// Update replaces the entity at p with a copy carrying c. The result must
// pass blueprint.Validate; a rejected update leaves document and history
// untouched.
func (s *Store) Update(p string, c blueprint.Changes) error {
	bp, ok := s.blueprints[p]
	if !ok {
		return fmt.Errorf("update %q: %w", p, ErrNotFound)
	}
	if bp.Kind() == blueprint.KindGripper {
		return fmt.Errorf("update %q: %w", p, ErrGripperUpdate)
	}
	next, err := blueprint.Apply(bp, c)
	if err != nil {
		return fmt.Errorf("update %q: %w", p, err)
	}
	if err := blueprint.Validate(next); err != nil {
		return fmt.Errorf("update %q: %w", p, err)
	}
	s.pushHistory()
	s.blueprints[p] = next
	return nil
}

// Undo restores the previous snapshot. It reports false when there is
// nothing to undo.
func (s *Store) Undo() bool {
	if len(s.past) == 0 {
		s.logger.Debug("nothing to undo")
		return false
	}
	last := len(s.past) - 1
	s.future = append(s.future, s.current())
	s.blueprints = s.past[last]
	s.past = s.past[:last]
	return true
}

// Redo re-applies the most recently undone snapshot. It reports false when
// there is nothing to redo.
func (s *Store) Redo() bool {
	if len(s.future) == 0 {
		s.logger.Debug("nothing to redo")
		return false
	}
	last := len(s.future) - 1
	s.past = append(s.past, s.current())
	s.blueprints = s.future[last]
	s.future = s.future[:last]
	return true
}

// Reset clears the document, both history stacks and the counter.
func (s *Store) Reset() {
	clear(s.blueprints)
	s.past = nil
	s.future = nil
	s.seq = 0
}

// Load replaces the document with bps, clears history and recomputes the
// counter from the loaded paths.
func (s *Store) Load(bps []blueprint.Blueprint) error {
	next := make(map[string]blueprint.Blueprint, len(bps))
	for _, bp := range bps {
		p := bp.Header().Path
		if _, ok := next[p]; ok {
			return fmt.Errorf("load %q: %w", p, ErrExists)
		}
		next[p] = bp.Clone()
	}
	s.blueprints = next
	s.past = nil
	s.future = nil
	s.RecomputeSequence()
	return nil
}

// NextSequence returns the counter as a zero-padded 4-digit string for use
// in generated names. It does not advance the counter.
func (s *Store) NextSequence() string {
	return fmt.Sprintf("%04d", s.seq)
}

// RecomputeSequence sets the counter to one past the largest trailing
// "_<digits>" found in any path, or to the entity count when no path
// carries one.
func (s *Store) RecomputeSequence() {
	maxSeq, found := 0, false
	for p := range s.blueprints {
		if n, ok := blueprint.TrailingSequence(p); ok {
			if !found || n > maxSeq {
				maxSeq = n
			}
			found = true
		}
	}
	if found {
		s.seq = maxSeq + 1
	} else {
		s.seq = len(s.blueprints)
	}
}

// Get returns a copy of the entity at p.
func (s *Store) Get(p string) (blueprint.Blueprint, error) {
	bp, ok := s.blueprints[p]
	if !ok {
		return nil, fmt.Errorf("get %q: %w", p, ErrNotFound)
	}
	return bp.Clone(), nil
}

// Has reports whether p names an entity.
func (s *Store) Has(p string) bool {
	_, ok := s.blueprints[p]
	return ok
}

// Len returns the number of entities.
func (s *Store) Len() int {
	return len(s.blueprints)
}

// Paths returns all paths in lexicographic order.
func (s *Store) Paths() []string {
	return slices.Sorted(maps.Keys(s.blueprints))
}

// Blueprints returns copies of all entities ordered by path.
func (s *Store) Blueprints() []blueprint.Blueprint {
	paths := s.Paths()
	out := make([]blueprint.Blueprint, len(paths))
	for i, p := range paths {
		out[i] = s.blueprints[p].Clone()
	}
	return out
}

// CanUndo reports whether Undo would change the document.
func (s *Store) CanUndo() bool { return len(s.past) > 0 }

// CanRedo reports whether Redo would change the document.
func (s *Store) CanRedo() bool { return len(s.future) > 0 }

// HistoryDepth returns the sizes of the past and future stacks.
func (s *Store) HistoryDepth() (past, future int) {
	return len(s.past), len(s.future)
}

// pushHistory records the current state before a mutation and invalidates
// the redo stack.
func (s *Store) pushHistory() {
	s.past = append(s.past, s.current())
	if s.historyLimit > 0 && len(s.past) > s.historyLimit {
		s.past = slices.Delete(s.past, 0, len(s.past)-s.historyLimit)
	}
	s.future = nil
}

func (s *Store) current() snapshot {
	snap := make(snapshot, len(s.blueprints))
	for p, bp := range s.blueprints {
		snap[p] = bp.Clone()
	}
	return snap
}
