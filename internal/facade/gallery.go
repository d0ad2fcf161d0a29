package facade

import (
	"path/filepath"
	"sync"
)

// Screenshot is one captured image. Index is global to the run.
type Screenshot struct {
	Index int
	Label string
	Path  string
}

// Name is the file name without directory.
func (s Screenshot) Name() string { return filepath.Base(s.Path) }

// Gallery is the append-only screenshot index. Indices start at 1 and
// strictly increase.
type Gallery struct {
	mu    sync.Mutex
	shots []Screenshot
}

// NextIndex is the index the next successful capture will receive.
func (g *Gallery) NextIndex() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.shots) + 1
}

func (g *Gallery) add(s Screenshot) {
	g.mu.Lock()
	g.shots = append(g.shots, s)
	g.mu.Unlock()
}

// Shots returns a copy of the index in capture order.
func (g *Gallery) Shots() []Screenshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Screenshot, len(g.shots))
	copy(out, g.shots)
	return out
}
