package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/vbonduro/kissthem/internal/artifactstore"
	"github.com/vbonduro/kissthem/internal/domain"
	"github.com/vbonduro/kissthem/internal/imagegen"
)

var errBoom = errors.New("boom")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubSecrets struct {
	values map[string]string
	calls  int
}

func (s *stubSecrets) Resolve(_ context.Context, name string) (string, error) {
	s.calls++
	v, ok := s.values[name]
	if !ok {
		return "", fmt.Errorf("secret %s unavailable", name)
	}
	return v, nil
}

type stubArtifacts struct {
	mu        sync.Mutex
	objects   map[string][]byte
	types     map[string]string
	putErr    map[string]error // keyed by path prefix
	deleteErr error
	deleted   []string
}

func newStubArtifacts() *stubArtifacts {
	return &stubArtifacts{objects: map[string][]byte{}, types: map[string]string{}, putErr: map[string]error{}}
}

func (s *stubArtifacts) Put(_ context.Context, path, contentType string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for prefix, err := range s.putErr {
		if strings.HasPrefix(path, prefix) {
			return "", err
		}
	}
	s.objects[path] = data
	s.types[path] = contentType
	return "https://cdn.test/" + path, nil
}

func (s *stubArtifacts) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, path)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.objects[path]; !ok {
		return fmt.Errorf("%w: %s", artifactstore.ErrNotFound, path)
	}
	delete(s.objects, path)
	return nil
}

func (s *stubArtifacts) paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.objects))
	for p := range s.objects {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

type stubPhotos struct {
	mu        sync.Mutex
	records   map[string]*domain.Photo
	saveErr   error
	listErr   error
	deleteErr map[string]error
	listCalls int
}

func newStubPhotos() *stubPhotos {
	return &stubPhotos{records: map[string]*domain.Photo{}, deleteErr: map[string]error{}}
}

func (s *stubPhotos) Save(_ context.Context, p *domain.Photo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	cp := *p
	s.records[p.ID] = &cp
	return nil
}

func (s *stubPhotos) Get(_ context.Context, id string) (*domain.Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *stubPhotos) ListByUser(_ context.Context, userID string) ([]*domain.Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []*domain.Photo
	for _, p := range s.records {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *stubPhotos) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.deleteErr[id]; err != nil {
		return err
	}
	delete(s.records, id)
	return nil
}

type stubModel struct {
	name       string
	nameErr    error
	editResult *imagegen.EditResult
	editErr    error

	editInstruction string
	nameRequest     string
}

func (m *stubModel) SuggestName(_ context.Context, _ imagegen.Image, request string) (string, error) {
	m.nameRequest = request
	return m.name, m.nameErr
}

func (m *stubModel) Edit(_ context.Context, instruction string, _ imagegen.Image) (*imagegen.EditResult, error) {
	m.editInstruction = instruction
	return m.editResult, m.editErr
}

type stubProvider struct {
	model   *stubModel
	err     error
	lastKey string
}

func (p *stubProvider) Model(_ context.Context, apiKey string) (imagegen.Model, error) {
	p.lastKey = apiKey
	if p.err != nil {
		return nil, p.err
	}
	return p.model, nil
}

type stubNamer struct{ name string }

func (n stubNamer) SuggestName(context.Context, imagegen.Image, string) (string, error) {
	return n.name, nil
}
