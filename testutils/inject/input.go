package inject

import (
	"context"

	"go.viam.com/benben/input"
)

// Source is an injectable input source.
type Source struct {
	input.Source
	NameFunc func() string
	ReadFunc func(ctx context.Context) (input.Candidate, error)
}

// Name calls the injected function or the real version.
func (s *Source) Name() string {
	if s.NameFunc == nil {
		return s.Source.Name()
	}
	return s.NameFunc()
}

// Read calls the injected function or the real version.
func (s *Source) Read(ctx context.Context) (input.Candidate, error) {
	if s.ReadFunc == nil {
		return s.Source.Read(ctx)
	}
	return s.ReadFunc(ctx)
}
