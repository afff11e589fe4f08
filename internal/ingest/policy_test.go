package ingest

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"ReviewHarvester/internal/domain"
)

type fakeWriter struct {
	products map[string]int64
	stored   map[int64]bool
	inserted []int64
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{
		products: map[string]int64{"P1": 1},
		stored:   map[int64]bool{},
	}
}

func (f *fakeWriter) ProductKey(_ context.Context, productID string) (int64, error) {
	if key, ok := f.products[productID]; ok {
		return key, nil
	}
	return 0, domain.ErrProductNotFound
}

func (f *fakeWriter) InsertReview(_ context.Context, _ int64, review domain.Review) (bool, error) {
	if f.stored[review.ReviewID] {
		return false, nil
	}
	f.stored[review.ReviewID] = true
	f.inserted = append(f.inserted, review.ReviewID)
	return true, nil
}

func reviews(productID string, ids ...int64) []domain.Review {
	out := make([]domain.Review, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Review{ReviewID: id, ProductID: productID})
	}
	return out
}

func TestWatermarkStopHaltsAtWatermark(t *testing.T) {
	t.Parallel()

	w := newFakeWriter()
	res, err := WatermarkStop{}.Apply(context.Background(), w, 100, reviews("P1", 105, 104, 103, 100, 99))
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}

	if want := []int64{105, 104, 103}; !reflect.DeepEqual(w.inserted, want) {
		t.Fatalf("inserted %v, want %v", w.inserted, want)
	}
	if !res.Stopped || res.Inserted != 3 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestWatermarkStopUnknownProductIsFatal(t *testing.T) {
	t.Parallel()

	w := newFakeWriter()
	_, err := WatermarkStop{}.Apply(context.Background(), w, 0, reviews("P404", 5))
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestPerRecordSkipsUnknownAndDuplicates(t *testing.T) {
	t.Parallel()

	w := newFakeWriter()
	w.stored[100] = true

	batch := append(reviews("P1", 105, 100, 99), reviews("P404", 98)...)
	res, err := PerRecord{}.Apply(context.Background(), w, 100, batch)
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}

	if want := []int64{105, 99}; !reflect.DeepEqual(w.inserted, want) {
		t.Fatalf("inserted %v, want %v", w.inserted, want)
	}
	want := domain.ReviewUpsertResult{Inserted: 2, Duplicates: 1, UnknownProduct: 1}
	if res != want {
		t.Fatalf("result %+v, want %+v", res, want)
	}
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	for _, name := range []string{WatermarkStopName, PerRecordName} {
		policy, err := reg.Resolve(name)
		if err != nil {
			t.Fatalf("Resolve(%s): %v", name, err)
		}
		if policy.Name() != name {
			t.Fatalf("Resolve(%s) returned %s", name, policy.Name())
		}
	}

	if _, err := reg.Resolve("newest-only"); !errors.Is(err, domain.ErrUnknownPolicy) {
		t.Fatalf("expected ErrUnknownPolicy, got %v", err)
	}
}
