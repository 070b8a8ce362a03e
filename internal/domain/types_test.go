package domain

import "testing"

func TestChunkID(t *testing.T) {
	if got := ChunkID("doc-1", 3, 12); got != "doc-1_3_12" {
		t.Errorf("ChunkID() = %q, want doc-1_3_12", got)
	}
}

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		in      string
		want    Difficulty
		wantErr bool
	}{
		{"", "", false},
		{"Beginner", Beginner, false},
		{"Intermediate", Intermediate, false},
		{"Advanced", Advanced, false},
		{"advanced", "", true},
		{"Expert", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDifficulty(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDifficulty(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDifficulty(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDocument_PageCount(t *testing.T) {
	doc := &Document{Pages: []Page{{Number: 1}, {Number: 2}}}
	if doc.PageCount() != 2 {
		t.Errorf("PageCount() = %d, want 2", doc.PageCount())
	}
}
