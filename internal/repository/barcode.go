package repository

import (
	"context"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/verdantlabs/pos-register/internal/domain/catalog"
)

const barcodeFilterFPR = 0.001

// BarcodeFilter wraps a ProductRepository with a bloom-filter negative cache
// over the catalog's barcodes. Register operators scan unknown barcodes all
// day; a definite-negative answer from the filter skips the database round
// trip. False positives simply fall through to the query, and the filter is
// refreshed periodically so newly added products become scannable.
type BarcodeFilter struct {
	inner *ProductRepository
	lg    *zap.Logger

	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

var _ catalog.Repository = (*BarcodeFilter)(nil)

// NewBarcodeFilter wraps inner. The filter starts empty-but-inactive; call
// Refresh (or Start) to activate it.
func NewBarcodeFilter(inner *ProductRepository, lg *zap.Logger) *BarcodeFilter {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &BarcodeFilter{inner: inner, lg: lg}
}

// Refresh rebuilds the filter from the current catalog.
func (f *BarcodeFilter) Refresh(ctx context.Context) error {
	barcodes, err := f.inner.ListBarcodes(ctx)
	if err != nil {
		return errors.Wrap(err, "list barcodes")
	}

	n := uint(len(barcodes))
	if n < 1024 {
		n = 1024
	}
	next := bloom.NewWithEstimates(n, barcodeFilterFPR)
	for _, b := range barcodes {
		next.AddString(b)
	}

	f.mu.Lock()
	f.filter = next
	f.mu.Unlock()

	f.lg.Debug("barcode filter refreshed", zap.Int("barcodes", len(barcodes)))
	return nil
}

// Start refreshes the filter now and then again at every interval until ctx
// is cancelled. Refresh failures keep the previous filter.
func (f *BarcodeFilter) Start(ctx context.Context, interval time.Duration) {
	if err := f.Refresh(ctx); err != nil {
		f.lg.Warn("initial barcode filter build failed", zap.Error(err))
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := f.Refresh(ctx); err != nil {
					f.lg.Warn("barcode filter refresh failed", zap.Error(err))
				}
			}
		}
	}()
}

// mayContain reports whether barcode could be in the catalog. Always true
// while the filter has not been built yet.
func (f *BarcodeFilter) mayContain(barcode string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.filter == nil || f.filter.TestString(barcode)
}

// List delegates to the underlying repository.
func (f *BarcodeFilter) List(ctx context.Context) ([]catalog.Product, error) {
	return f.inner.List(ctx)
}

// Search delegates to the underlying repository.
func (f *BarcodeFilter) Search(ctx context.Context, query string) ([]catalog.Product, error) {
	return f.inner.Search(ctx, query)
}

// GetByID delegates to the underlying repository.
func (f *BarcodeFilter) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	return f.inner.GetByID(ctx, id)
}

// GetByBarcode answers catalog.ErrNotFound without a query when the filter
// rules the barcode out.
func (f *BarcodeFilter) GetByBarcode(ctx context.Context, barcode string) (*catalog.Product, error) {
	if !f.mayContain(barcode) {
		return nil, catalog.ErrNotFound
	}
	return f.inner.GetByBarcode(ctx, barcode)
}
