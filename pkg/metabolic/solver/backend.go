package solver

import (
	"runtime"
	"sort"

	"github.com/pkg/errors"
)

const (
	// DefaultBackend is the backend used when nothing else is requested. It exposes a thread knob.
	DefaultBackend = "coinor_cbc"
	// AlternateBackend is single threaded.
	AlternateBackend = "glpk"

	defaultTolerance = 1e-9
)

// Backend solves linear problems.
type Backend interface {
	// Name returns the name the backend was registered under.
	Name() string
	// Configuration returns a copy of the backend settings.
	Configuration() Configuration
	// Solve optimizes p. It only returns an error when p is malformed.
	Solve(p *Problem) (*Result, error)
}

// ThreadSetter is implemented by backends that can spread work over several threads.
type ThreadSetter interface {
	// SetThreads sets the number of threads. A negative value requests every available processor.
	SetThreads(threads int)
}

// Configuration holds backend settings.
type Configuration struct {
	Threads   int
	Tolerance float64
}

// Workers resolves Threads into a usable worker count.
func (c Configuration) Workers() int {
	switch {
	case c.Threads < 0:
		return runtime.NumCPU()
	case c.Threads == 0:
		return 1
	default:
		return c.Threads
	}
}

var registry = map[string]func() Backend{
	DefaultBackend: func() Backend {
		return &ThreadedSimplex{Simplex: Simplex{name: DefaultBackend, cfg: Configuration{Threads: 1, Tolerance: defaultTolerance}}}
	},
	AlternateBackend: func() Backend {
		return &Simplex{name: AlternateBackend, cfg: Configuration{Threads: 1, Tolerance: defaultTolerance}}
	},
}

// New returns a fresh backend registered under name.
func New(name string) (Backend, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownBackend, "%q", name)
	}

	return fn(), nil
}

// MustNew is New for names known at compile time. It panics when name is not registered.
func MustNew(name string) Backend {
	b, err := New(name)
	if err != nil {
		panic(err)
	}

	return b
}

// Names lists the registered backends.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
