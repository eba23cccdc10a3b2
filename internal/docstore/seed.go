// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

package docstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tomtom215/encore/internal/logging"
)

// seedFile is the YAML layout accepted by Seed:
//
//	collections:
//	  concerts:
//	    - id: spring-gala
//	      title: Spring Gala
//	      dates: ["2026-05-01"]
type seedFile struct {
	Collections map[string][]map[string]any `yaml:"collections"`
}

// SeedFile loads a YAML seed file from disk. See Seed.
func (s *Store) SeedFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return 0, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return s.Seed(ctx, f)
}

// Seed upserts every document of a YAML seed. Each document needs an "id"
// field, which is also kept among its fields. It returns the number of
// documents written.
func (s *Store) Seed(ctx context.Context, r io.Reader) (int, error) {
	var seed seedFile
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, fmt.Errorf("decode seed: %w", err)
	}

	written := 0
	for collection, docs := range seed.Collections {
		for i, fields := range docs {
			id, _ := fields["id"].(string)
			if id == "" {
				return written, fmt.Errorf("seed %s[%d]: missing string id", collection, i)
			}
			if err := s.Put(ctx, collection, Document{ID: id, Fields: normalizeYAML(fields)}); err != nil {
				return written, fmt.Errorf("seed %s/%s: %w", collection, id, err)
			}
			written++
		}
	}

	logging.Info().Int("documents", written).Int("collections", len(seed.Collections)).Msg("Document store seeded")
	return written, nil
}

// normalizeYAML converts yaml.v3 nested maps to map[string]any so documents
// round-trip through JSON.
func normalizeYAML(v map[string]any) map[string]any {
	out := make(map[string]any, len(v))
	for k, val := range v {
		out[k] = normalizeValue(val)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return normalizeYAML(t)
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalizeValue(val)
		}
		return m
	case time.Time:
		return t.Format("2006-01-02")
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeValue(val)
		}
		return out
	}
	return v
}
