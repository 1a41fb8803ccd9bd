package storage

import (
	"fmt"
	"os"
	"sync"

	"github.com/crestdex/crest/pkg/dex/events"
)

// WAL is an append-only record of emitted events, one JSON envelope per line.
type WAL interface {
	Append(symbol string, e events.Event)
}

type NopWAL struct{}

func NewNopWAL() *NopWAL                          { return &NopWAL{} }
func (w *NopWAL) Append(_ string, _ events.Event) {}

type FileWAL struct {
	mu sync.Mutex
	f  *os.File
}

func NewFileWAL(path string) (*FileWAL, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileWAL{f: f}, nil
}

func (w *FileWAL) Append(symbol string, e events.Event) {
	data, err := events.Marshal(e)
	if err != nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.f, "%s %s\n", symbol, data)
}

func (w *FileWAL) Close() error { return w.f.Close() }

var _ WAL = (*NopWAL)(nil)
var _ WAL = (*FileWAL)(nil)
