// Package file provides file-based persistence for process revisions and
// execution histories. It is the default backend for development and tests.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/prapp/prapp/pkg/persistence"
)

// Persistence implements persistence.Persistence on top of a directory tree:
// processes/<group>/<revision>.json and executions/<id>.json plus
// executions/<id>.history.json.
type Persistence struct {
	root          string
	processRepo   *ProcessRepository
	executionRepo *ExecutionRepository
}

// NewPersistence creates a file persistence rooted at the given directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:          cleanRoot,
		processRepo:   NewProcessRepository(cleanRoot),
		executionRepo: NewExecutionRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file persistence there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) ProcessRepository() persistence.ProcessRepository {
	return fp.processRepo
}

func (fp *Persistence) ExecutionRepository() persistence.ExecutionRepository {
	return fp.executionRepo
}
