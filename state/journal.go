package state

import "sync"

// Journal records undo steps for every table write so that a whole call can be
// rolled back. All tables of one deployment share a single Journal.
type Journal struct {
	mu    sync.Mutex
	undo  []func()
	depth int

	call sync.Mutex
}

func NewJournal() *Journal {
	return &Journal{}
}

func (j *Journal) record(fn func()) {
	j.mu.Lock()
	j.undo = append(j.undo, fn)
	j.mu.Unlock()
}

// Snapshot returns an id that RevertTo accepts.
func (j *Journal) Snapshot() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.undo)
}

// RevertTo undoes every write made after the snapshot, newest first.
func (j *Journal) RevertTo(id int) {
	j.mu.Lock()
	steps := j.undo[id:]
	j.undo = j.undo[:id]
	j.mu.Unlock()

	for i := len(steps) - 1; i >= 0; i-- {
		steps[i]()
	}
}

// Commit drops the undo log. Only call it at the outermost call boundary.
func (j *Journal) Commit() {
	j.mu.Lock()
	j.undo = j.undo[:0]
	j.mu.Unlock()
}

// Len is the number of pending undo steps.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.undo)
}

// Atomic runs fn and rolls back every write it made if it returns an error.
// The journal is committed only when the outermost Atomic or Call succeeds.
func (j *Journal) Atomic(fn func() error) error {
	j.mu.Lock()
	snap := len(j.undo)
	j.depth++
	j.mu.Unlock()

	err := fn()

	j.mu.Lock()
	j.depth--
	outermost := j.depth == 0
	j.mu.Unlock()

	if err != nil {
		j.RevertTo(snap)
		return err
	}
	if outermost {
		j.Commit()
	}
	return nil
}

// Call serializes fn against every other Call on the journal and runs it
// atomically. It is not reentrant.
func (j *Journal) Call(fn func() error) error {
	j.call.Lock()
	defer j.call.Unlock()
	return j.Atomic(fn)
}
