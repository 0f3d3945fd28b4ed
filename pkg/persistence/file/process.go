package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/prapp/prapp/pkg/models"
	"github.com/prapp/prapp/pkg/persistence"
)

// ProcessRepository stores process revisions as
// processes/<group>/<revision>.json files.
type ProcessRepository struct {
	root string
}

// NewProcessRepository creates a new process repository under root.
func NewProcessRepository(root string) *ProcessRepository {
	return &ProcessRepository{root: root}
}

func (pr *ProcessRepository) groupDir(groupID string) string {
	return filepath.Join(pr.root, "processes", groupID)
}

func (pr *ProcessRepository) revisionPath(groupID, revision string) string {
	return filepath.Join(pr.groupDir(groupID), revision+".json")
}

// List returns one entry per process group, each being the group's latest
// revision, paginated and sorted in memory.
func (pr *ProcessRepository) List(ctx context.Context, opts persistence.ListProcessesOptions) (*persistence.ProcessListResult, error) {
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 20
	}

	if opts.SortBy == "" {
		opts.SortBy = "created_at"
	}

	if opts.SortOrder == "" {
		opts.SortOrder = "desc"
	}

	allowedSorts := map[string]bool{
		"created_at": true,
		"title":      true,
	}
	if !allowedSorts[opts.SortBy] {
		return nil, fmt.Errorf("%w: %s", persistence.ErrInvalidSortField, opts.SortBy)
	}

	entries, err := os.ReadDir(filepath.Join(pr.root, "processes"))
	if err != nil {
		if os.IsNotExist(err) {
			return &persistence.ProcessListResult{Processes: []*models.Process{}}, nil
		}

		return nil, fmt.Errorf("failed to list process groups: %w", err)
	}

	latest := make([]*models.Process, 0, len(entries))

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		proc, err := pr.Latest(ctx, entry.Name())
		if err != nil {
			if persistence.IsProcessNotFound(err) {
				continue
			}

			return nil, err
		}

		latest = append(latest, proc)
	}

	pr.sortProcesses(latest, opts.SortBy, opts.SortOrder)

	totalCount := int64(len(latest))
	startIdx := opts.Offset
	endIdx := opts.Offset + opts.Limit

	if startIdx >= len(latest) {
		return &persistence.ProcessListResult{
			Processes:  []*models.Process{},
			TotalCount: totalCount,
		}, nil
	}

	if endIdx > len(latest) {
		endIdx = len(latest)
	}

	return &persistence.ProcessListResult{
		Processes:   latest[startIdx:endIdx],
		TotalCount:  totalCount,
		HasNextPage: endIdx < len(latest),
	}, nil
}

func (pr *ProcessRepository) sortProcesses(processes []*models.Process, sortBy, sortOrder string) {
	sort.SliceStable(processes, func(i, j int) bool {
		var less bool

		switch sortBy {
		case "title":
			less = strings.ToLower(processes[i].Title) < strings.ToLower(processes[j].Title)
		default:
			less = processes[i].CreatedAt.Before(processes[j].CreatedAt)
		}

		if sortOrder == "desc" {
			return !less
		}

		return less
	})
}

// Latest returns the newest revision of a process group by CreatedAt.
func (pr *ProcessRepository) Latest(ctx context.Context, groupID string) (*models.Process, error) {
	entries, err := os.ReadDir(pr.groupDir(groupID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewProcessError("Latest", groupID, "", persistence.ErrProcessNotFound)
		}

		return nil, fmt.Errorf("failed to read process group %s: %w", groupID, err)
	}

	var latest *models.Process

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		revision := strings.TrimSuffix(entry.Name(), ".json")

		proc, err := pr.ByRevision(ctx, groupID, revision)
		if err != nil {
			return nil, err
		}

		if latest == nil || proc.CreatedAt.After(latest.CreatedAt) {
			latest = proc
		}
	}

	if latest == nil {
		return nil, persistence.NewProcessError("Latest", groupID, "", persistence.ErrProcessNotFound)
	}

	return latest, nil
}

// ByRevision loads one specific revision of a process group.
func (pr *ProcessRepository) ByRevision(_ context.Context, groupID, revision string) (*models.Process, error) {
	data, err := os.ReadFile(pr.revisionPath(groupID, revision))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewProcessError("ByRevision", groupID, revision, persistence.ErrRevisionNotFound)
		}

		return nil, fmt.Errorf("failed to read revision %s of process %s: %w", revision, groupID, err)
	}

	var proc models.Process
	if err := json.Unmarshal(data, &proc); err != nil {
		return nil, fmt.Errorf("failed to decode revision %s of process %s: %w", revision, groupID, err)
	}

	return &proc, nil
}

// SaveRevision writes a new immutable revision. Overwriting an existing
// revision file is rejected.
func (pr *ProcessRepository) SaveRevision(_ context.Context, proc *models.Process) error {
	path := pr.revisionPath(proc.GroupID, proc.Revision)

	if _, err := os.Stat(path); err == nil {
		return persistence.NewProcessError("SaveRevision", proc.GroupID, proc.Revision, persistence.ErrRevisionAlreadyExists)
	}

	if err := os.MkdirAll(pr.groupDir(proc.GroupID), 0o755); err != nil {
		return fmt.Errorf("failed to create process group directory: %w", err)
	}

	data, err := json.MarshalIndent(proc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode process revision: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write process revision: %w", err)
	}

	return nil
}
