package indexer

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"docquery/internal/domain"
	"docquery/internal/storage"
)

func TestComputeTokenStats(t *testing.T) {
	tests := []struct {
		name        string
		tokenCounts []int
		want        ChunkTokenStats
	}{
		{
			name:        "empty",
			tokenCounts: []int{},
			want:        ChunkTokenStats{},
		},
		{
			name:        "single value",
			tokenCounts: []int{10},
			want:        ChunkTokenStats{Min: 10, Max: 10, Mean: 10.0, P95: 10},
		},
		{
			name:        "unsorted values",
			tokenCounts: []int{30, 5, 20, 10, 15},
			want:        ChunkTokenStats{Min: 5, Max: 30, Mean: 16.0, P95: 30},
		},
		{
			name:        "many values for p95",
			tokenCounts: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20},
			want:        ChunkTokenStats{Min: 1, Max: 20, Mean: 10.5, P95: 20},
		},
		{
			name:        "mean rounded",
			tokenCounts: []int{1, 1, 2},
			want:        ChunkTokenStats{Min: 1, Max: 2, Mean: 1.33, P95: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := computeTokenStats(tt.tokenCounts); got != tt.want {
				t.Errorf("computeTokenStats() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 1},
		{"ab", 1},
		{strings.Repeat("x", 40), 10},
		{strings.Repeat("é", 8), 2},
	}
	for _, tt := range tests {
		if got := estimateTokens(tt.text); got != tt.want {
			t.Errorf("estimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestTokenStats(t *testing.T) {
	chunks := []domain.Chunk{{Text: strings.Repeat("a", 40)}, {Text: strings.Repeat("b", 120)}}
	got := TokenStats(chunks)
	if got.Min != 10 || got.Max != 30 || got.Mean != 20 {
		t.Errorf("TokenStats() = %+v", got)
	}
}

func TestIndexVersion(t *testing.T) {
	a := IndexVersion("text-embedding-004", 1000, 200)
	if len(a) != 16 {
		t.Errorf("IndexVersion() length = %d, want 16", len(a))
	}
	if a != IndexVersion("text-embedding-004", 1000, 200) {
		t.Error("IndexVersion() is not deterministic")
	}
	if a == IndexVersion("text-embedding-004", 800, 200) {
		t.Error("IndexVersion() ignores the window size")
	}
}

func TestPipeline_Coverage(t *testing.T) {
	p, m := newTestPipeline(t, nil)

	m.documents.EXPECT().List(gomock.Any()).Return([]storage.DocumentRecord{{ID: "a"}, {ID: "b"}}, nil)
	m.chunks.EXPECT().ListByDocument(gomock.Any(), "a").Return([]storage.ChunkRecord{
		{Text: strings.Repeat("x", 40)},
		{Text: strings.Repeat("y", 80)},
	}, nil)
	m.chunks.EXPECT().ListByDocument(gomock.Any(), "b").Return([]storage.ChunkRecord{}, nil)

	stats, err := p.Coverage(context.Background(), "v")
	if err != nil {
		t.Fatalf("Coverage() error = %v", err)
	}
	if stats.DocsProcessed != 2 || stats.DocsWith0Chunks != 1 || stats.ChunksIndexed != 2 {
		t.Errorf("Coverage() = %+v", stats)
	}
	if stats.ChunkTokenStats.Mean != 15 || stats.ChunkerVersion != ChunkerVersion || stats.IndexVersion != "v" {
		t.Errorf("Coverage() = %+v", stats)
	}
}

func TestRecordTokenStats(t *testing.T) {
	got := RecordTokenStats([]storage.ChunkRecord{{Text: strings.Repeat("a", 8)}, {Text: strings.Repeat("b", 16)}})
	if got.Min != 2 || got.Max != 4 || got.Mean != 3 {
		t.Errorf("RecordTokenStats() = %+v", got)
	}
	if empty := RecordTokenStats(nil); empty != (ChunkTokenStats{}) {
		t.Errorf("RecordTokenStats(nil) = %+v, want zero", empty)
	}
}
