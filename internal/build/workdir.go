package build

import (
	"os"
	"sync"
)

// cwdMutex serializes changes to the process working directory, which is
// shared by every goroutine.
var cwdMutex sync.Mutex

// DirGuard holds the process working directory inside a project until
// Restore is called.
type DirGuard struct {
	previous string
	once     sync.Once
	err      error
}

// EnterDir changes the working directory to dir and returns a guard that
// puts it back. No other EnterDir can proceed until the guard is restored.
func EnterDir(dir string) (*DirGuard, error) {
	cwdMutex.Lock()

	previous, err := os.Getwd()
	if err != nil {
		cwdMutex.Unlock()
		return nil, err
	}
	if err := os.Chdir(dir); err != nil {
		cwdMutex.Unlock()
		return nil, err
	}

	return &DirGuard{previous: previous}, nil
}

// Restore returns to the directory that was current before EnterDir. It is
// safe to call more than once; later calls return the first result.
func (g *DirGuard) Restore() error {
	g.once.Do(func() {
		g.err = os.Chdir(g.previous)
		cwdMutex.Unlock()
	})
	return g.err
}

// Previous is the directory Restore returns to.
func (g *DirGuard) Previous() string {
	return g.previous
}
