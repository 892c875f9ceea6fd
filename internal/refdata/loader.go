package refdata

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-checkout/internal/obs"
	"github.com/noah-isme/toko-checkout/internal/resilience"
)

var (
	// ErrMissingRecordsKey is returned when a present dataset lacks its top-level records collection.
	ErrMissingRecordsKey = errors.New("records key not found in dataset")
	// ErrMalformedDataset indicates the records collection is not a list of mappings.
	ErrMalformedDataset = errors.New("malformed dataset")
	// ErrMissingSortKey marks a record skipped because it has no usable identifier.
	ErrMissingSortKey = errors.New("record missing sort key")
)

// Dataset is a parsed reference document. A nil Dataset means the source was absent.
type Dataset map[string]any

// Skipped describes a record dropped during loading.
type Skipped struct {
	Index  int
	Reason error
	Record Record
}

// Load indexes the records stored under recordsKey by the lower-cased value of sortKey.
// Later records with the same identifier replace earlier ones.
func Load(ds Dataset, recordsKey, sortKey string) (Table, []Skipped, error) {
	table := Table{}
	if ds == nil {
		return table, nil, nil
	}
	raw, ok := lookup(ds, recordsKey)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrMissingRecordsKey, recordsKey)
	}
	items, ok := raw.([]any)
	if !ok {
		if raw != nil {
			return nil, nil, fmt.Errorf("%w: %q is not a list", ErrMalformedDataset, recordsKey)
		}
		items = nil
	}
	var skipped []Skipped
	for i, item := range items {
		fields, ok := asMap(item)
		if !ok {
			return nil, nil, fmt.Errorf("%w: record %d under %q is not a mapping", ErrMalformedDataset, i, recordsKey)
		}
		rec := NewRecord(fields)
		value, present := rec.Get(sortKey)
		if !present {
			skipped = append(skipped, Skipped{Index: i, Reason: fmt.Errorf("%w %q", ErrMissingSortKey, sortKey), Record: rec})
			continue
		}
		id, isString := value.(string)
		id = NormalizeKey(id)
		if !isString || id == "" {
			skipped = append(skipped, Skipped{Index: i, Reason: fmt.Errorf("%w %q: value %v is not a name", ErrMissingSortKey, sortKey, value), Record: rec})
			continue
		}
		table[id] = rec
	}
	return table, skipped, nil
}

func lookup(ds Dataset, key string) (any, bool) {
	if v, ok := ds[key]; ok {
		return v, true
	}
	want := NormalizeKey(key)
	for k, v := range ds {
		if strings.EqualFold(strings.TrimSpace(k), want) {
			return v, true
		}
	}
	return nil, false
}

// Source names one reference dataset on disk.
type Source struct {
	Name       string
	Path       string
	RecordsKey string
	SortKey    string
}

// Loader reads reference datasets from disk, optionally through a snapshot cache.
// Breaker, when set, stops consulting the cache while Redis keeps failing.
type Loader struct {
	Logger  zerolog.Logger
	Cache   *Cache
	Breaker *resilience.Breaker
}

// LoadFile reads and indexes the dataset described by src. Skipped records are logged
// and returned; structural problems abort the load.
func (l *Loader) LoadFile(ctx context.Context, src Source) (Table, []Skipped, error) {
	ds, err := l.dataset(ctx, src.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s dataset %s: %w", src.Name, src.Path, err)
	}
	logger := l.logger()
	if ds == nil {
		logger.Debug().Str("dataset", src.Name).Str("path", src.Path).Msg("reference dataset absent")
	}
	table, skipped, err := Load(ds, src.RecordsKey, src.SortKey)
	if err != nil {
		return nil, nil, fmt.Errorf("load %s dataset %s: %w", src.Name, src.Path, err)
	}
	for _, s := range skipped {
		logger.Warn().
			Str("dataset", src.Name).
			Str("path", src.Path).
			Int("index", s.Index).
			Str("sort_key", src.SortKey).
			Err(s.Reason).
			Msg("reference record skipped")
		obs.ObserveSkippedRecord(src.Name)
	}
	return table, skipped, nil
}

func (l *Loader) dataset(ctx context.Context, path string) (Dataset, error) {
	if l == nil || l.Cache == nil {
		ds, _, err := ReadFile(path)
		return ds, err
	}
	info, ok, err := statDataset(path)
	if err != nil || !ok {
		return nil, err
	}
	key := l.Cache.Key(path, info)
	var (
		ds  Dataset
		hit bool
	)
	err = l.Breaker.Do(ctx, func(ctx context.Context) error {
		var getErr error
		ds, hit, getErr = l.Cache.Get(ctx, key)
		return getErr
	})
	switch {
	case errors.Is(err, resilience.ErrOpenCircuit):
		obs.ObserveDatasetCache("bypass")
		ds, _, err = ReadFile(path)
		return ds, err
	case err != nil:
		l.logger().Warn().Err(err).Str("path", path).Msg("reference cache read failed")
	}
	if hit {
		obs.ObserveDatasetCache("hit")
		return ds, nil
	}
	obs.ObserveDatasetCache("miss")
	ds, _, err = ReadFile(path)
	if err != nil {
		return nil, err
	}
	data, err := Encode(ds)
	if err != nil {
		l.logger().Warn().Err(err).Str("path", path).Msg("reference dataset not cacheable")
		return ds, nil
	}
	err = l.Breaker.Do(ctx, func(ctx context.Context) error { return l.Cache.Set(ctx, key, data) })
	if err != nil && !errors.Is(err, resilience.ErrOpenCircuit) {
		l.logger().Warn().Err(err).Str("path", path).Msg("reference cache write failed")
	}
	return ds, nil
}

func (l *Loader) logger() *zerolog.Logger {
	if l == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return &l.Logger
}
