package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	stdsync "sync"
	"testing"
	"time"

	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
	"github.com/custodia-labs/remarkable-pocket/internal/core/ports/driven"
	"github.com/custodia-labs/remarkable-pocket/internal/logger"
)

// --- Shared mock implementations ---

var testEpoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testEpoch }

// captureLogs redirects the logger for the duration of the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetTimestamps(false)
	t.Cleanup(func() {
		logger.SetOutput(os.Stderr)
		logger.SetTimestamps(true)
	})
	return &buf
}

// mockExclusionStore implements driven.ExclusionStore.
type mockExclusionStore struct {
	mu      stdsync.Mutex
	entries []domain.Exclusion
	addErr  error
	listErr error
}

func (m *mockExclusionStore) Add(_ context.Context, e domain.Exclusion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return m.addErr
	}
	for _, existing := range m.entries {
		if existing.Title == e.Title {
			return nil
		}
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockExclusionStore) List(_ context.Context) ([]domain.Exclusion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]domain.Exclusion(nil), m.entries...), nil
}

// mockSource implements driven.ArticleSource.
type mockSource struct {
	articles   []domain.Article
	unreadErr  error
	archiveErr map[string]error
	archived   []string
	calls      *[]string
}

func (m *mockSource) Unread(_ context.Context) ([]domain.Article, error) {
	if m.unreadErr != nil {
		return nil, m.unreadErr
	}
	return m.articles, nil
}

func (m *mockSource) Archive(_ context.Context, id string) error {
	if m.calls != nil {
		*m.calls = append(*m.calls, "archive:"+id)
	}
	if err := m.archiveErr[id]; err != nil {
		return err
	}
	m.archived = append(m.archived, id)
	return nil
}

// mockDestination implements driven.Destination.
type mockDestination struct {
	names       []string
	docs        map[string]*domain.RemoteDocument
	artifacts   map[string]string
	listErr     error
	statErr     error
	downloadErr error
	uploadErr   error
	uploaded    []string
	deleted     []string
	ensured     int
	listCalls   int
	calls       *[]string
}

func (m *mockDestination) List(_ context.Context) ([]string, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]string(nil), m.names...), nil
}

func (m *mockDestination) Stat(_ context.Context, name string) (*domain.RemoteDocument, error) {
	if m.statErr != nil {
		return nil, m.statErr
	}
	if doc, ok := m.docs[name]; ok {
		return doc, nil
	}
	return nil, domain.ErrNotFound
}

// Download copies the prepared artifact for name into dir.
func (m *mockDestination) Download(_ context.Context, name, dir string) (string, error) {
	if m.downloadErr != nil {
		return "", m.downloadErr
	}
	src, ok := m.artifacts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(dir, name+".rmdoc")
	if err := os.WriteFile(dst, data, 0o600); err != nil {
		return "", err
	}
	return dst, nil
}

func (m *mockDestination) Upload(_ context.Context, path string) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	m.uploaded = append(m.uploaded, filepath.Base(path))
	return nil
}

func (m *mockDestination) Delete(_ context.Context, name string) error {
	if m.calls != nil {
		*m.calls = append(*m.calls, "delete:"+name)
	}
	m.deleted = append(m.deleted, name)
	for i, n := range m.names {
		if n == name {
			m.names = append(m.names[:i], m.names[i+1:]...)
			break
		}
	}
	return nil
}

func (m *mockDestination) EnsureDir(_ context.Context) error {
	m.ensured++
	return nil
}

// mockConversion implements driven.ConversionService.
type mockConversion struct {
	mu          stdsync.Mutex
	submitErr   error
	statuses    []domain.Job
	statusErr   error
	body        []byte
	downloadErr error
	submitted   []driven.ConversionRequest
	statusCalls int
	now         func() time.Time
	statusTimes []time.Time
}

func (m *mockConversion) Submit(_ context.Context, req driven.ConversionRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.submitErr != nil {
		return "", m.submitErr
	}
	m.submitted = append(m.submitted, req)
	return "job-1", nil
}

// Status replays statuses in order, repeating the last one.
func (m *mockConversion) Status(_ context.Context, id string) (domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCalls++
	if m.now != nil {
		m.statusTimes = append(m.statusTimes, m.now())
	}
	if m.statusErr != nil {
		return domain.Job{}, m.statusErr
	}
	if len(m.statuses) == 0 {
		return domain.Job{ID: id, Progress: 100}, nil
	}
	idx := m.statusCalls - 1
	if idx >= len(m.statuses) {
		idx = len(m.statuses) - 1
	}
	job := m.statuses[idx]
	job.ID = id
	return job, nil
}

func (m *mockConversion) Download(_ context.Context, _ string, w io.Writer) error {
	if m.downloadErr != nil {
		return m.downloadErr
	}
	_, err := w.Write(m.body)
	return err
}

func (m *mockConversion) StatusCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusCalls
}

// mockFormatter implements driven.DocumentFormatter with a plain-text
// artifact: the file contents are the main content resource.
type mockFormatter struct {
	formatErr  error
	inspectErr error
	info       map[string]*driven.ArtifactInfo
	formatted  map[string]string
}

func (m *mockFormatter) Format(path, title string) error {
	if m.formatErr != nil {
		return m.formatErr
	}
	if m.formatted == nil {
		m.formatted = make(map[string]string)
	}
	m.formatted[filepath.Base(path)] = title
	return nil
}

func (m *mockFormatter) ContentText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Inspect looks the archive up by its base name without extension.
func (m *mockFormatter) Inspect(path string) (*driven.ArtifactInfo, error) {
	if m.inspectErr != nil {
		return nil, m.inspectErr
	}
	name := filepath.Base(path)
	name = name[:len(name)-len(filepath.Ext(name))]
	info, ok := m.info[name]
	if !ok {
		return nil, errors.New("no such archive")
	}
	return info, nil
}

// mockSyncRunStore implements driven.SyncRunStore.
type mockSyncRunStore struct {
	runs      []domain.SyncRun
	recordErr error
	pruned    int
}

func (m *mockSyncRunStore) Record(_ context.Context, run *domain.SyncRun) error {
	if m.recordErr != nil {
		return m.recordErr
	}
	m.runs = append(m.runs, *run)
	return nil
}

func (m *mockSyncRunStore) History(_ context.Context, limit int) ([]domain.SyncRun, error) {
	var out []domain.SyncRun
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[i])
	}
	return out, nil
}

func (m *mockSyncRunStore) Prune(_ context.Context, keep int) error {
	m.pruned = keep
	return nil
}
