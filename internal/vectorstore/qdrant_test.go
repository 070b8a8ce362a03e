package vectorstore

import (
	"context"
	"testing"

	"github.com/qdrant/go-client/qdrant"
)

func TestGRPCAddress(t *testing.T) {
	tests := []struct {
		name     string
		urlStr   string
		wantErr  bool
		wantHost string
		wantPort int
	}{
		{
			name:     "valid URL",
			urlStr:   "http://localhost:6333",
			wantHost: "localhost",
			wantPort: 6334, // gRPC port is HTTP port + 1
		},
		{
			name:     "URL with custom port",
			urlStr:   "http://qdrant.internal:9000",
			wantHost: "qdrant.internal",
			wantPort: 9001,
		},
		{
			name:    "invalid URL",
			urlStr:  "://invalid",
			wantErr: true,
		},
		{
			name:     "URL without port",
			urlStr:   "http://localhost",
			wantHost: "localhost",
			wantPort: 6334, // Default
		},
		{
			name:     "URL without hostname",
			urlStr:   "http://:6333",
			wantHost: "localhost", // Defaults to localhost
			wantPort: 6334,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port, err := grpcAddress(tt.urlStr)
			if tt.wantErr {
				if err == nil {
					t.Error("grpcAddress() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("grpcAddress() unexpected error: %v", err)
			}
			if host != tt.wantHost {
				t.Errorf("Host = %v, want %v", host, tt.wantHost)
			}
			if port != tt.wantPort {
				t.Errorf("Port = %v, want %v", port, tt.wantPort)
			}
		})
	}
}

// TestNewQdrantStore_InvalidURL tests that invalid URLs return errors.
func TestNewQdrantStore_InvalidURL(t *testing.T) {
	_, err := NewQdrantStore("://invalid")
	if err == nil {
		t.Error("NewQdrantStore() with invalid URL should return error")
	}
}

func TestQdrantStore_Upsert_EmptyPoints(t *testing.T) {
	// Returns before touching the client
	store := &QdrantStore{}

	err := store.Upsert(context.Background(), "test-collection", []Point{})
	if err != nil {
		t.Errorf("Upsert() with empty points should return early without error, got: %v", err)
	}
}

func TestQdrantStore_Delete_EmptyIDs(t *testing.T) {
	store := &QdrantStore{}

	err := store.Delete(context.Background(), "test-collection", []string{})
	if err != nil {
		t.Errorf("Delete() with empty IDs should return early without error, got: %v", err)
	}
}

func TestQdrantStore_DeleteByFilter_EmptyFilter(t *testing.T) {
	store := &QdrantStore{}

	if err := store.DeleteByFilter(context.Background(), "test-collection", Filter{}); err == nil {
		t.Error("DeleteByFilter() with empty filter should return error")
	}
}

func TestQdrantStore_Search_InvalidK(t *testing.T) {
	store := &QdrantStore{}
	ctx := context.Background()

	_, err := store.Search(ctx, "test-collection", []float32{1.0, 2.0}, 0, Filter{})
	if err == nil {
		t.Error("Search() with k=0 should return error")
	}

	_, err = store.Search(ctx, "test-collection", []float32{1.0, 2.0}, -1, Filter{})
	if err == nil {
		t.Error("Search() with k=-1 should return error")
	}

	_, err = store.Scroll(ctx, "test-collection", Filter{}, 0)
	if err == nil {
		t.Error("Scroll() with limit=0 should return error")
	}
}

func TestBuildFilter(t *testing.T) {
	tests := []struct {
		name       string
		filter     Filter
		wantNil    bool
		wantFields []string
	}{
		{name: "empty", filter: Filter{}, wantNil: true},
		{name: "document only", filter: Filter{DocumentID: "doc"}, wantFields: []string{KeyDocumentID}},
		{
			name:       "all fields",
			filter:     Filter{DocumentID: "doc", Difficulty: "Advanced", GlossaryOnly: true, Page: 3},
			wantFields: []string{KeyDocumentID, KeyDifficulty, KeyGlossary, KeyPage},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildFilter(tt.filter)
			if tt.wantNil {
				if got != nil {
					t.Errorf("buildFilter() = %v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("buildFilter() = nil")
			}
			if len(got.Must) != len(tt.wantFields) {
				t.Fatalf("len(Must) = %d, want %d", len(got.Must), len(tt.wantFields))
			}
			for i, cond := range got.Must {
				if key := cond.GetField().GetKey(); key != tt.wantFields[i] {
					t.Errorf("Must[%d] key = %q, want %q", i, key, tt.wantFields[i])
				}
			}
		})
	}
}

func TestConvertPayloadToMap(t *testing.T) {
	result := convertPayloadToMap(nil)
	if result == nil {
		t.Error("convertPayloadToMap() should return empty map, not nil")
	}
	if len(result) != 0 {
		t.Errorf("convertPayloadToMap() with nil should return empty map, got %d items", len(result))
	}

	payload := qdrant.NewValueMap(map[string]any{
		KeyDocumentID: "doc",
		KeyPage:       4,
		KeyGlossary:   true,
	})
	meta := convertPayloadToMap(payload)
	if MetaString(meta, KeyDocumentID) != "doc" {
		t.Errorf("document_id = %v", meta[KeyDocumentID])
	}
	if MetaInt(meta, KeyPage) != 4 {
		t.Errorf("page = %v", meta[KeyPage])
	}
	if !MetaBool(meta, KeyGlossary) {
		t.Errorf("is_glossary = %v", meta[KeyGlossary])
	}
}

func TestPointID(t *testing.T) {
	if got := pointID(nil); got != "" {
		t.Errorf("pointID(nil) = %q", got)
	}
	uuid := "5f1c8c8e-2a57-5b8e-9c1e-1b2f3a4d5e6f"
	if got := pointID(qdrant.NewID(uuid)); got != uuid {
		t.Errorf("pointID(uuid) = %q", got)
	}
	if got := pointID(qdrant.NewIDNum(42)); got != "42" {
		t.Errorf("pointID(num) = %q", got)
	}
}
