// Package status reports the state of the ingested corpus for management
// and health views.
package status

import (
	"context"
	"fmt"
	"sort"

	"github.com/vectorsur/ragserver/internal/vectorstore"
)

// Store is the consumer interface for the vector store used by status (ISP).
type Store interface {
	Info(ctx context.Context) (vectorstore.CollectionInfo, error)
	Sources(ctx context.Context) ([]vectorstore.SourceInfo, error)
}

// Report is the aggregated pipeline state.
type Report struct {
	Enabled     bool            `json:"enabled"`
	Collection  string          `json:"collection"`
	Exists      bool            `json:"exists"`
	PointsCount int             `json:"points_count"`
	VectorSize  int             `json:"vector_size,omitempty"`
	Status      string          `json:"status,omitempty"`
	Categories  []CategoryGroup `json:"categories"`
}

// CategoryGroup lists the sources ingested under one category. Sources
// without a category land under the empty name.
type CategoryGroup struct {
	Category string   `json:"category"`
	Sources  []Source `json:"sources"`
}

// Source is one ingested file or document source.
type Source struct {
	Source string `json:"source"`
	Title  string `json:"title,omitempty"`
}

// Service answers status queries.
type Service struct {
	store      Store
	collection string
	enabled    bool
}

// New creates a status service. The collection name is reported verbatim so
// operators can match it against the vector database.
func New(store Store, collection string, enabled bool) *Service {
	return &Service{store: store, collection: collection, enabled: enabled}
}

// Report returns collection info plus sources grouped by category, both
// sorted for stable output. A disabled pipeline reports without touching the
// store.
func (s *Service) Report(ctx context.Context) (Report, error) {
	report := Report{Enabled: s.enabled, Collection: s.collection, Categories: []CategoryGroup{}}
	if !s.enabled {
		return report, nil
	}

	info, err := s.store.Info(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("collection info: %w", err)
	}
	report.Exists = info.Exists
	report.PointsCount = info.PointsCount
	report.VectorSize = info.VectorSize
	report.Status = info.Status

	if !info.Exists {
		return report, nil
	}

	sources, err := s.store.Sources(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list sources: %w", err)
	}
	report.Categories = groupByCategory(sources)
	return report, nil
}

func groupByCategory(sources []vectorstore.SourceInfo) []CategoryGroup {
	byCategory := make(map[string][]Source)
	for _, src := range sources {
		byCategory[src.Category] = append(byCategory[src.Category], Source{
			Source: src.Source,
			Title:  src.Title,
		})
	}

	groups := make([]CategoryGroup, 0, len(byCategory))
	for category, list := range byCategory {
		sort.Slice(list, func(i, j int) bool { return list[i].Source < list[j].Source })
		groups = append(groups, CategoryGroup{Category: category, Sources: list})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Category < groups[j].Category })
	return groups
}
