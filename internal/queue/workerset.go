package queue

import "github.com/google/btree"

// workerSet is the ordered set of idle worker identifiers. Backed by
// google/btree so Min/Delete/Insert are all O(log n) and deterministic: the
// smallest identifier is always picked first, per spec.
type workerSet struct {
	tree *btree.BTreeG[WorkerID]
}

func newWorkerSet() *workerSet {
	return &workerSet{
		tree: btree.NewG(32, func(a, b WorkerID) bool { return a < b }),
	}
}

// add inserts w. A no-op if already present.
func (s *workerSet) add(w WorkerID) {
	s.tree.ReplaceOrInsert(w)
}

// remove deletes w if present. Idempotent.
func (s *workerSet) remove(w WorkerID) {
	s.tree.Delete(w)
}

// has reports membership.
func (s *workerSet) has(w WorkerID) bool {
	_, ok := s.tree.Get(w)
	return ok
}

// removeSmallest pops and returns the smallest id, or false if empty.
func (s *workerSet) removeSmallest() (WorkerID, bool) {
	w, ok := s.tree.Min()
	if !ok {
		return "", false
	}
	s.tree.Delete(w)
	return w, true
}

func (s *workerSet) size() int {
	return s.tree.Len()
}

func (s *workerSet) empty() bool {
	return s.tree.Len() == 0
}
