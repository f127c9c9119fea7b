package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"thumbnail-editor-backend/internal/models"
)

// MemoryStore keeps projects and edits in process memory. It backs local
// development without a database and the service tests, and enforces the
// same (project_id, edit_number) uniqueness as the SQL schema.
type MemoryStore struct {
	mu       sync.RWMutex
	projects map[uuid.UUID]models.Project
	edits    map[uuid.UUID][]models.Edit
	last     time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects: make(map[uuid.UUID]models.Project),
		edits:    make(map[uuid.UUID][]models.Edit),
	}
}

// now hands out strictly increasing timestamps so updated_at ordering is
// deterministic even when two writes land in the same clock tick.
func (s *MemoryStore) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func (s *MemoryStore) CreateProject(ctx context.Context, project *models.Project) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := *project
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	s.projects[p.ID] = p

	out := p
	return &out, nil
}

func (s *MemoryStore) ListProjects(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	projects := make([]models.Project, 0)
	for _, p := range s.projects {
		if p.UserID == userID && !p.IsArchived {
			projects = append(projects, p)
		}
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].UpdatedAt.After(projects[j].UpdatedAt)
	})
	return projects, nil
}

func (s *MemoryStore) GetProject(ctx context.Context, projectID, userID uuid.UUID) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[projectID]
	if !ok || p.UserID != userID {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) UpdateProject(ctx context.Context, projectID, userID uuid.UUID, update models.ProjectUpdate) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok || p.UserID != userID {
		return nil, ErrNotFound
	}

	if update.Name != nil {
		p.Name = *update.Name
	}
	if update.Description != nil {
		p.Description.String = *update.Description
		p.Description.Valid = true
	}
	if update.ThumbnailURL != nil {
		p.ThumbnailURL.String = *update.ThumbnailURL
		p.ThumbnailURL.Valid = true
	}
	if update.ProjectSettings != nil {
		p.ProjectSettings = update.ProjectSettings
	}
	if update.IsArchived != nil {
		p.IsArchived = *update.IsArchived
	}
	p.UpdatedAt = s.now()
	s.projects[projectID] = p

	return &p, nil
}

func (s *MemoryStore) DeleteProject(ctx context.Context, projectID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok || p.UserID != userID {
		return ErrNotFound
	}
	delete(s.projects, projectID)
	return nil
}

func (s *MemoryStore) CreateEdit(ctx context.Context, edit *models.Edit) (*models.Edit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[edit.ProjectID]; !ok {
		return nil, ErrNotFound
	}
	for _, existing := range s.edits[edit.ProjectID] {
		if existing.EditNumber == edit.EditNumber {
			return nil, ErrEditNumberTaken
		}
	}

	e := *edit
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = s.now()
	s.edits[e.ProjectID] = append(s.edits[e.ProjectID], e)

	out := e
	return &out, nil
}

func (s *MemoryStore) ListEdits(ctx context.Context, projectID uuid.UUID) ([]models.Edit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	edits := make([]models.Edit, len(s.edits[projectID]))
	copy(edits, s.edits[projectID])
	sort.Slice(edits, func(i, j int) bool {
		return edits[i].EditNumber < edits[j].EditNumber
	})
	return edits, nil
}

func (s *MemoryStore) MaxEditNumber(ctx context.Context, projectID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	max := 0
	for _, e := range s.edits[projectID] {
		if e.EditNumber > max {
			max = e.EditNumber
		}
	}
	return max, nil
}

func (s *MemoryStore) DeleteEdit(ctx context.Context, projectID, editID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	edits := s.edits[projectID]
	for i, e := range edits {
		if e.ID == editID {
			s.edits[projectID] = append(edits[:i:i], edits[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) DeleteProjectEdits(ctx context.Context, projectID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.edits, projectID)
	return nil
}
