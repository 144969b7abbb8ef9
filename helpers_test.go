package wasmshim

import (
	"context"
	"sync"
)

type record struct {
	ch   Channel
	line string
}

// recorder is a Logger that remembers every line.
type recorder struct {
	mu    sync.Mutex
	lines []record
	err   error
}

func (r *recorder) WriteLine(ch Channel, line string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.lines = append(r.lines, record{ch, line})
	return nil
}

func (r *recorder) get() []record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]record(nil), r.lines...)
}

func (r *recorder) text(ch Channel) []string {
	var lines []string
	for _, rec := range r.get() {
		if rec.ch == ch {
			lines = append(lines, rec.line)
		}
	}
	return lines
}

// program stands in for an instantiated module: it acts on the overlay.
type program func(ov *Overlay) (int, error)

type imports struct {
	id int
}

// fakeGuest runs programs against the overlay it was built with.
type fakeGuest struct {
	ov      *Overlay
	imports *imports
	runs    int
}

func (g *fakeGuest) ImportObject() *imports {
	return g.imports
}

func (g *fakeGuest) Run(_ context.Context, prog program) (int, error) {
	g.runs++
	return prog(g.ov)
}

// fakeGuests counts constructions and keeps every guest built.
type fakeGuests struct {
	built []*fakeGuest
	err   error
}

func (fg *fakeGuests) new(ov *Overlay) (Guest[*imports, program], error) {
	if fg.err != nil {
		return nil, fg.err
	}
	g := &fakeGuest{ov: ov, imports: &imports{id: len(fg.built) + 1}}
	fg.built = append(fg.built, g)
	return g, nil
}

func write(fd int, s string) program {
	return func(ov *Overlay) (int, error) {
		_, err := ov.FS().WriteSync(fd, []byte(s))
		return 0, err
	}
}
