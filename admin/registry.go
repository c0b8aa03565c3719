package admin

import (
	"sync"
	"time"
)

// Mode says whether a form creates a new record or edits an existing one.
type Mode uint8

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// FormState is a snapshot of an open form.
type FormState[F any] struct {
	ID     string
	Mode   Mode
	Values F
}

// form is one open create or edit form. original is the record being
// edited; it is the zero value in create mode.
type form[F, R any] struct {
	id       string
	owner    string
	mode     Mode
	original R

	mu         sync.Mutex
	values     F
	submitting bool
	uploading  bool
	touched    time.Time
}

func (f *form[F, R]) state() FormState[F] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FormState[F]{ID: f.id, Mode: f.mode, Values: f.values}
}

func (f *form[F, R]) update(fn func(*F)) F {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(&f.values)
	return f.values
}

func (f *form[F, R]) beginSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitting {
		return false
	}
	f.submitting = true
	return true
}

func (f *form[F, R]) endSubmit() {
	f.mu.Lock()
	f.submitting = false
	f.mu.Unlock()
}

func (f *form[F, R]) beginUpload() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploading {
		return false
	}
	f.uploading = true
	return true
}

func (f *form[F, R]) endUpload() {
	f.mu.Lock()
	f.uploading = false
	f.mu.Unlock()
}

// registry holds open forms keyed by id. Forms idle longer than ttl are
// dropped the next time a form is opened.
type registry[F, R any] struct {
	mu    sync.Mutex
	forms map[string]*form[F, R]
	ttl   time.Duration
	now   func() time.Time
}

func newRegistry[F, R any](ttl time.Duration, now func() time.Time) *registry[F, R] {
	return &registry[F, R]{
		forms: make(map[string]*form[F, R]),
		ttl:   ttl,
		now:   now,
	}
}

func (r *registry[F, R]) open(id, owner string, mode Mode, values F, original R) *form[F, R] {
	now := r.now()
	f := &form[F, R]{
		id:       id,
		owner:    owner,
		mode:     mode,
		original: original,
		values:   values,
		touched:  now,
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for fid, other := range r.forms {
		other.mu.Lock()
		stale := now.Sub(other.touched) > r.ttl && !other.submitting && !other.uploading
		other.mu.Unlock()
		if stale {
			delete(r.forms, fid)
		}
	}
	r.forms[id] = f
	return f
}

// get returns the owner's form id. Forms belonging to other browsers are
// reported as missing.
func (r *registry[F, R]) get(owner, id string) (*form[F, R], error) {
	r.mu.Lock()
	f, ok := r.forms[id]
	r.mu.Unlock()
	if !ok || f.owner != owner {
		return nil, ErrFormNotFound
	}
	now := r.now()
	f.mu.Lock()
	expired := now.Sub(f.touched) > r.ttl
	if !expired {
		f.touched = now
	}
	f.mu.Unlock()
	if expired {
		r.close(id)
		return nil, ErrFormNotFound
	}
	return f, nil
}

func (r *registry[F, R]) close(id string) {
	r.mu.Lock()
	delete(r.forms, id)
	r.mu.Unlock()
}

func (r *registry[F, R]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.forms)
}
