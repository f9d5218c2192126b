package retrieve

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vectorsur/ragserver/internal/domain"
	"github.com/vectorsur/ragserver/internal/vectorstore"
)

type mockSearcher struct {
	matches []domain.Match
	err     error
	params  vectorstore.SearchParams
	vector  []float32
	calls   int
}

func (m *mockSearcher) Search(_ context.Context, vector []float32, params vectorstore.SearchParams) ([]domain.Match, error) {
	m.calls++
	m.vector = vector
	m.params = params
	return m.matches, m.err
}

type mockEmbedder struct {
	vec []float32
	err error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

func testConfig() Config {
	return Config{Enabled: true, TopK: 5, ScoreThreshold: 0.3, MaxContextChars: 4000}
}

func match(score float64, text string) domain.Match {
	return domain.Match{Score: score, Payload: domain.Payload{Text: text, Title: "doc"}}
}

// --- Query ---

func TestQuery_Disabled(t *testing.T) {
	svc := New(&mockSearcher{}, &mockEmbedder{}, Config{Enabled: false}, nil)
	_, err := svc.Query(context.Background(), Params{Question: "q"})
	if !errors.Is(err, domain.ErrRAGDisabled) {
		t.Fatalf("expected ErrRAGDisabled, got %v", err)
	}
}

func TestQuery_BlankQuestion(t *testing.T) {
	svc := New(&mockSearcher{}, &mockEmbedder{vec: []float32{1}}, testConfig(), nil)
	_, err := svc.Query(context.Background(), Params{Question: "   "})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestQuery_DefaultsApplied(t *testing.T) {
	searcher := &mockSearcher{matches: []domain.Match{match(0.9, "hit")}}
	svc := New(searcher, &mockEmbedder{vec: []float32{0.5, 0.5}}, testConfig(), nil)

	matches, err := svc.Query(context.Background(), Params{Question: "vacation policy"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 || matches[0].Payload.Text != "hit" {
		t.Fatalf("unexpected matches: %+v", matches)
	}
	if searcher.params.Limit != 5 || searcher.params.ScoreThreshold != 0.3 {
		t.Errorf("defaults not applied: %+v", searcher.params)
	}
	if searcher.params.Category != "" {
		t.Errorf("no department should mean no filter, got %q", searcher.params.Category)
	}
	if len(searcher.vector) != 2 {
		t.Errorf("query embedding not forwarded: %v", searcher.vector)
	}
}

func TestQuery_OverridesAndDepartmentFilter(t *testing.T) {
	searcher := &mockSearcher{}
	svc := New(searcher, &mockEmbedder{vec: []float32{1}}, testConfig(), nil)

	_, err := svc.Query(context.Background(), Params{
		Question:       "q",
		Department:     "hr",
		TopK:           12,
		ScoreThreshold: 0.7,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := vectorstore.SearchParams{Limit: 12, ScoreThreshold: 0.7, Category: "hr"}
	if searcher.params != want {
		t.Errorf("got %+v, want %+v", searcher.params, want)
	}
}

func TestQuery_AllDepartmentDisablesFilter(t *testing.T) {
	searcher := &mockSearcher{}
	svc := New(searcher, &mockEmbedder{vec: []float32{1}}, testConfig(), nil)

	if _, err := svc.Query(context.Background(), Params{Question: "q", Department: "all"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if searcher.params.Category != "" {
		t.Errorf("department \"all\" must not filter, got %q", searcher.params.Category)
	}
}

func TestQuery_SurfacesErrors(t *testing.T) {
	t.Run("embedder", func(t *testing.T) {
		svc := New(&mockSearcher{}, &mockEmbedder{err: domain.ErrEmbeddingProvider}, testConfig(), nil)
		_, err := svc.Query(context.Background(), Params{Question: "q"})
		if !errors.Is(err, domain.ErrEmbeddingProvider) {
			t.Fatalf("expected provider error, got %v", err)
		}
	})
	t.Run("store", func(t *testing.T) {
		svc := New(&mockSearcher{err: domain.ErrVectorStore}, &mockEmbedder{vec: []float32{1}}, testConfig(), nil)
		_, err := svc.Query(context.Background(), Params{Question: "q"})
		if !errors.Is(err, domain.ErrVectorStore) {
			t.Fatalf("expected store error, got %v", err)
		}
	})
}

// --- Context ---

func TestContext_BestEffort(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		searcher *mockSearcher
		embedder *mockEmbedder
		question string
	}{
		{
			name:     "disabled",
			cfg:      Config{Enabled: false},
			searcher: &mockSearcher{},
			embedder: &mockEmbedder{vec: []float32{1}},
			question: "q",
		},
		{
			name:     "blank question",
			cfg:      testConfig(),
			searcher: &mockSearcher{},
			embedder: &mockEmbedder{vec: []float32{1}},
			question: "  \n ",
		},
		{
			name:     "provider failure",
			cfg:      testConfig(),
			searcher: &mockSearcher{},
			embedder: &mockEmbedder{err: errors.New("connection refused")},
			question: "q",
		},
		{
			name:     "store failure",
			cfg:      testConfig(),
			searcher: &mockSearcher{err: errors.New("qdrant down")},
			embedder: &mockEmbedder{vec: []float32{1}},
			question: "q",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := New(tc.searcher, tc.embedder, tc.cfg, nil)
			if got := svc.Context(context.Background(), tc.question, ""); got != "" {
				t.Errorf("expected empty context, got %q", got)
			}
		})
	}
}

func TestContext_RendersMatches(t *testing.T) {
	searcher := &mockSearcher{matches: []domain.Match{
		{Score: 0.92, Payload: domain.Payload{Text: "first", Title: "guide.pdf", Category: "hr", ChunkIndex: 3}},
		{Score: 0.80, Payload: domain.Payload{Text: "second", Source: "notes.txt", ChunkIndex: 0}},
	}}
	svc := New(searcher, &mockEmbedder{vec: []float32{1}}, testConfig(), nil)

	got := svc.Context(context.Background(), "question", "hr")
	want := "[guide.pdf [hr]#3] first\n\n[notes.txt#0] second"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if searcher.params.Category != "hr" {
		t.Errorf("department filter not forwarded: %+v", searcher.params)
	}
}

// --- BuildContext ---

func TestBuildContext_Empty(t *testing.T) {
	if got := BuildContext(nil, 4000); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

func TestBuildContext_SkipsEmptyText(t *testing.T) {
	matches := []domain.Match{
		{Score: 0.9, Payload: domain.Payload{Title: "empty.pdf"}},
		{Score: 0.8, Payload: domain.Payload{Text: "real", Title: "b"}},
	}
	got := BuildContext(matches, 4000)
	if got != "[b#0] real" {
		t.Errorf("got %q", got)
	}
}

func TestBuildContext_CategoryRenderedInBrackets(t *testing.T) {
	matches := []domain.Match{
		{Payload: domain.Payload{Text: "body", Title: "guide.pdf", Category: "hr", ChunkIndex: 3}},
	}
	got := BuildContext(matches, 4000)
	if got != "[guide.pdf [hr]#3] body" {
		t.Errorf("got %q, want %q", got, "[guide.pdf [hr]#3] body")
	}
}

func TestBuildContext_LabelFallback(t *testing.T) {
	tests := []struct {
		name    string
		payload domain.Payload
		want    string
	}{
		{"title wins", domain.Payload{Text: "t", Title: "T", Source: "S", DocID: "D"}, "[T#0] t"},
		{"source next", domain.Payload{Text: "t", Source: "S", DocID: "D"}, "[S#0] t"},
		{"doc id next", domain.Payload{Text: "t", DocID: "D"}, "[D#0] t"},
		{"literal last", domain.Payload{Text: "t"}, "[document#0] t"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := BuildContext([]domain.Match{{Payload: tc.payload}}, 4000)
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBuildContext_BudgetIsRankedPrefix(t *testing.T) {
	long := strings.Repeat("a", 60)
	matches := []domain.Match{
		{Score: 0.9, Payload: domain.Payload{Text: long, Title: "one"}},
		{Score: 0.8, Payload: domain.Payload{Text: long, Title: "two"}},
		{Score: 0.7, Payload: domain.Payload{Text: "tiny", Title: "three"}},
	}

	// Each long entry is "[one#0] " (8 chars) + 60 = 68 chars. With a budget
	// of 100, only the first fits; the second overflows and must also stop
	// the third even though "tiny" alone would fit.
	got := BuildContext(matches, 100)
	if !strings.HasPrefix(got, "[one#0] ") {
		t.Fatalf("first entry missing: %q", got)
	}
	if strings.Contains(got, "two") || strings.Contains(got, "tiny") {
		t.Errorf("budget overflow must stop the scan, got %q", got)
	}
	if len(got) > 100 {
		t.Errorf("context exceeds budget: %d chars", len(got))
	}
}

func TestBuildContext_AccountsSeparator(t *testing.T) {
	// Entries of exactly 10 chars: "[a#0] " is 6 + 4 text chars.
	entry := domain.Match{Payload: domain.Payload{Text: "xxxx", Title: "a"}}
	matches := []domain.Match{entry, entry, entry}

	// total after first: 10+1=11; second entry needs 11+10=21 <= 21, so it
	// fits a 21 budget; third would need 22+10 > 21.
	got := BuildContext(matches, 21)
	if n := strings.Count(got, "[a#0] xxxx"); n != 2 {
		t.Errorf("expected 2 entries within budget, got %d in %q", n, got)
	}
}
