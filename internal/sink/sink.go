// Package sink delivers evaluation results to downstream storage.
package sink

import (
	"context"
	"errors"
	"fmt"

	"call-compliance-go/internal/types"
)

type Sink interface {
	Name() string
	Publish(ctx context.Context, res types.CallResult) error
	Close() error
}

// Multi publishes to every sink and joins their errors.
type Multi []Sink

func (m Multi) Name() string { return "multi" }

func (m Multi) Publish(ctx context.Context, res types.CallResult) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, res); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Discard drops every result.
type Discard struct{}

func (Discard) Name() string                                    { return "discard" }
func (Discard) Publish(context.Context, types.CallResult) error { return nil }
func (Discard) Close() error                                    { return nil }
