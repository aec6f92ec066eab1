package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/crop-risk-service/internal/domain"
)

// FanoutLoader writes each batch to several loaders in order. The first
// failure aborts the batch so the pipeline retries it as a whole; loaders
// must therefore tolerate seeing the same assessment twice.
type FanoutLoader struct {
	loaders []namedLoader
}

type namedLoader struct {
	name   string
	loader BatchLoader
}

// NewFanoutLoader creates an empty FanoutLoader.
func NewFanoutLoader() *FanoutLoader {
	return &FanoutLoader{}
}

// Add appends a loader. The name appears in errors.
func (f *FanoutLoader) Add(name string, l BatchLoader) *FanoutLoader {
	f.loaders = append(f.loaders, namedLoader{name: name, loader: l})
	return f
}

// Len returns the number of loaders.
func (f *FanoutLoader) Len() int {
	return len(f.loaders)
}

func (f *FanoutLoader) LoadBatch(ctx context.Context, assessments []domain.Assessment) error {
	for _, nl := range f.loaders {
		if err := nl.loader.LoadBatch(ctx, assessments); err != nil {
			return fmt.Errorf("load %s: %w", nl.name, err)
		}
	}
	return nil
}
