// Package ingest holds the named review ingestion policies.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"ReviewHarvester/internal/domain"
	"ReviewHarvester/internal/ports"
)

const (
	WatermarkStopName = "watermark-stop"
	PerRecordName     = "per-record"
)

// WatermarkStop walks reviews newest first and halts at the first review
// whose ID equals the watermark. An unknown product aborts the batch.
type WatermarkStop struct{}

var _ ports.ReviewPolicy = WatermarkStop{}

// Name identifies the policy inside the registry.
func (WatermarkStop) Name() string { return WatermarkStopName }

// Apply writes reviews until the watermark is reached.
func (WatermarkStop) Apply(ctx context.Context, w ports.ReviewWriter, watermark int64, reviews []domain.Review) (domain.ReviewUpsertResult, error) {
	var res domain.ReviewUpsertResult
	for _, review := range reviews {
		if review.ReviewID == watermark {
			res.Stopped = true
			return res, nil
		}

		key, err := w.ProductKey(ctx, review.ProductID)
		if err != nil {
			return res, fmt.Errorf("review %d: %w", review.ReviewID, err)
		}

		if err := insert(ctx, w, key, review, &res); err != nil {
			return res, err
		}
	}
	return res, nil
}

// PerRecord checks every review on its own and never stops early.
// Reviews of unknown products are skipped.
type PerRecord struct{}

var _ ports.ReviewPolicy = PerRecord{}

// Name identifies the policy inside the registry.
func (PerRecord) Name() string { return PerRecordName }

// Apply writes every review whose product is known.
func (PerRecord) Apply(ctx context.Context, w ports.ReviewWriter, _ int64, reviews []domain.Review) (domain.ReviewUpsertResult, error) {
	var res domain.ReviewUpsertResult
	for _, review := range reviews {
		key, err := w.ProductKey(ctx, review.ProductID)
		if errors.Is(err, domain.ErrProductNotFound) {
			res.UnknownProduct++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("review %d: %w", review.ReviewID, err)
		}

		if err := insert(ctx, w, key, review, &res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func insert(ctx context.Context, w ports.ReviewWriter, key int64, review domain.Review, res *domain.ReviewUpsertResult) error {
	inserted, err := w.InsertReview(ctx, key, review)
	if err != nil {
		return fmt.Errorf("insert review %d: %w", review.ReviewID, err)
	}
	if inserted {
		res.Inserted++
	} else {
		res.Duplicates++
	}
	return nil
}

// Registry keeps a mapping from policy names to their implementations.
type Registry struct {
	policies map[string]ports.ReviewPolicy
}

// NewRegistry returns a registry holding both built-in policies.
func NewRegistry() *Registry {
	r := &Registry{policies: map[string]ports.ReviewPolicy{}}
	r.Register(WatermarkStop{})
	r.Register(PerRecord{})
	return r
}

// Register adds or replaces a policy implementation.
func (r *Registry) Register(policy ports.ReviewPolicy) {
	if r.policies == nil {
		r.policies = map[string]ports.ReviewPolicy{}
	}
	r.policies[policy.Name()] = policy
}

// Resolve returns a policy by name.
func (r *Registry) Resolve(name string) (ports.ReviewPolicy, error) {
	if policy, ok := r.policies[name]; ok {
		return policy, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnknownPolicy, name)
}
