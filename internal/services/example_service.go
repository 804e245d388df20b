package services

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/tbourn/go-roast-backend/internal/domain"
	"github.com/tbourn/go-roast-backend/internal/search"
)

//go:embed examples.yaml
var examplesYAML []byte

// ExampleService serves the curated showcase roasts.
type ExampleService struct {
	// Source is the YAML document; nil means the embedded examples.
	Source []byte

	once     sync.Once
	examples []domain.Example
	index    search.Index
	err      error
}

// NewExampleService returns a service backed by the embedded examples.
func NewExampleService() *ExampleService { return &ExampleService{} }

type examplesDoc struct {
	Examples []domain.Example `yaml:"examples"`
}

// List returns a copy of the curated examples. The document is decoded once.
func (s *ExampleService) List() ([]domain.Example, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	out := make([]domain.Example, len(s.examples))
	copy(out, s.examples)
	return out, nil
}

// Search returns up to limit examples matching query, best match first. An
// empty query returns the catalogue in order. limit <= 0 means no limit.
func (s *ExampleService) Search(query string, limit int) ([]domain.Example, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		n := len(s.examples)
		if limit > 0 && limit < n {
			n = limit
		}
		out := make([]domain.Example, n)
		copy(out, s.examples[:n])
		return out, nil
	}

	hits := s.index.TopK(query, limit)
	out := make([]domain.Example, 0, len(hits))
	for _, h := range hits {
		out = append(out, s.examples[h.Pos])
	}
	return out, nil
}

func (s *ExampleService) load() error {
	s.once.Do(func() {
		src := s.Source
		if src == nil {
			src = examplesYAML
		}
		var doc examplesDoc
		if err := yaml.Unmarshal(src, &doc); err != nil {
			s.err = fmt.Errorf("%w: %v", ErrExamplesUnavailable, err)
			return
		}
		s.examples = doc.Examples

		docs := make([]string, len(doc.Examples))
		for i, ex := range doc.Examples {
			docs[i] = strings.Join([]string{ex.Title, ex.URL, ex.Roast, strings.Join(ex.Jokes, " "), strings.Join(ex.Advice, " ")}, " ")
		}
		s.index = search.NewIndex(docs, search.WithStopwords(search.DefaultStopwords))
	})
	return s.err
}
