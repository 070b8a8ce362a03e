package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"docquery/internal/domain"
)

func testDocument(id string) *DocumentRecord {
	return &DocumentRecord{
		ID:                 id,
		Filename:           id + ".pdf",
		BlobKey:            id + "/" + id + ".pdf",
		PageCount:          2,
		SizeBytes:          2048,
		Language:           "en",
		LanguageName:       "English",
		LanguageConfidence: 0.97,
		Title:              "Cell Biology",
		Author:             "A. Author",
		Keywords:           []string{"cell", "membrane"},
	}
}

func testChunks(documentID string, n int) []ChunkRecord {
	chunks := make([]ChunkRecord, n)
	for i := range chunks {
		page := 1 + i/2
		chunks[i] = NewChunkRecord(domain.Chunk{
			ID:         domain.ChunkID(documentID, page, i),
			DocumentID: documentID,
			Seq:        i,
			Page:       page,
			StartChar:  0,
			EndChar:    10,
			Text:       "chunk text",
			WordCount:  2,
			Difficulty: domain.Beginner,
			IsGlossary: i == 0,
		})
	}
	return chunks
}

func TestDocumentRepo_InsertWithChunks(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewDocumentRepo(db)
	chunkRepo := NewChunkRepo(db)

	doc := testDocument("doc1")
	if err := repo.InsertWithChunks(ctx, doc, testChunks("doc1", 3)); err != nil {
		t.Fatalf("InsertWithChunks() error = %v", err)
	}
	if doc.ChunkCount != 3 {
		t.Errorf("ChunkCount = %d, want 3", doc.ChunkCount)
	}

	got, err := repo.GetByID(ctx, "doc1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Filename != "doc1.pdf" || got.PageCount != 2 || got.ChunkCount != 3 || got.LanguageName != "English" {
		t.Errorf("GetByID() = %+v", got)
	}
	if !reflect.DeepEqual(got.Keywords, []string{"cell", "membrane"}) {
		t.Errorf("Keywords = %v", got.Keywords)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	n, err := chunkRepo.CountByDocument(ctx, "doc1")
	if err != nil || n != 3 {
		t.Errorf("CountByDocument() = %d, %v; want 3", n, err)
	}

	t.Run("duplicate id", func(t *testing.T) {
		err := repo.InsertWithChunks(ctx, testDocument("doc1"), nil)
		if !errors.Is(err, ErrDuplicate) {
			t.Errorf("InsertWithChunks() error = %v, want ErrDuplicate", err)
		}
	})

	t.Run("foreign chunk rolls back", func(t *testing.T) {
		chunks := append(testChunks("doc2", 1), testChunks("other", 1)...)
		if err := repo.InsertWithChunks(ctx, testDocument("doc2"), chunks); err == nil {
			t.Fatal("InsertWithChunks() expected error")
		}
		if _, err := repo.GetByID(ctx, "doc2"); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetByID() error = %v, want ErrNotFound after rollback", err)
		}
		if n, _ := chunkRepo.CountByDocument(ctx, "doc2"); n != 0 {
			t.Errorf("CountByDocument() = %d, want 0 after rollback", n)
		}
	})

	t.Run("nil keywords", func(t *testing.T) {
		doc := testDocument("doc3")
		doc.Keywords = nil
		if err := repo.InsertWithChunks(ctx, doc, nil); err != nil {
			t.Fatalf("InsertWithChunks() error = %v", err)
		}
		got, err := repo.GetByID(ctx, "doc3")
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got.Keywords == nil || len(got.Keywords) != 0 {
			t.Errorf("Keywords = %#v, want empty slice", got.Keywords)
		}
	})
}

func TestDocumentRepo_GetByID_NotFound(t *testing.T) {
	repo := NewDocumentRepo(newTestDB(t))

	doc, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
	if doc != nil {
		t.Errorf("GetByID() = %+v, want nil", doc)
	}
}

func TestDocumentRepo_List(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepo(newTestDB(t))

	docs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("List() on empty db = %d docs", len(docs))
	}

	for _, id := range []string{"a", "b", "c"} {
		if err := repo.InsertWithChunks(ctx, testDocument(id), nil); err != nil {
			t.Fatalf("InsertWithChunks(%s) error = %v", id, err)
		}
	}

	docs, err = repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(docs) != 3 {
		t.Errorf("List() = %d docs, want 3", len(docs))
	}
}

func TestDocumentRepo_Delete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewDocumentRepo(db)
	chunkRepo := NewChunkRepo(db)

	if err := repo.InsertWithChunks(ctx, testDocument("doc1"), testChunks("doc1", 4)); err != nil {
		t.Fatalf("InsertWithChunks() error = %v", err)
	}
	if err := repo.InsertWithChunks(ctx, testDocument("doc2"), testChunks("doc2", 2)); err != nil {
		t.Fatalf("InsertWithChunks() error = %v", err)
	}

	if err := repo.Delete(ctx, "doc1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(ctx, "doc1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v", err)
	}
	if n, _ := chunkRepo.CountByDocument(ctx, "doc1"); n != 0 {
		t.Errorf("chunks left after delete = %d", n)
	}
	if n, _ := chunkRepo.CountByDocument(ctx, "doc2"); n != 2 {
		t.Errorf("other document's chunks = %d, want 2", n)
	}

	if err := repo.Delete(ctx, "doc1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestDocumentRepo_Reserve(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewDocumentRepo(db)

	if err := repo.InsertWithChunks(ctx, testDocument("stored"), testChunks("stored", 1)); err != nil {
		t.Fatalf("InsertWithChunks() error = %v", err)
	}
	if err := repo.Reserve(ctx, "stored"); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Reserve(stored) error = %v, want ErrDuplicate", err)
	}

	if err := repo.Reserve(ctx, "doc1"); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}
	if err := repo.Reserve(ctx, "doc1"); !errors.Is(err, ErrDuplicate) {
		t.Errorf("second Reserve() error = %v, want ErrDuplicate", err)
	}

	if err := repo.Release(ctx, "doc1"); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if err := repo.Release(ctx, "doc1"); err != nil {
		t.Errorf("Release() of a free id error = %v", err)
	}
	if err := repo.Reserve(ctx, "doc1"); err != nil {
		t.Errorf("Reserve() after release error = %v", err)
	}
}

func TestDocumentRepo_ReserveExpires(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewDocumentRepo(db)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	if err := repo.Reserve(ctx, "doc1"); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}

	now = now.Add(ReservationTTL - time.Second)
	if err := repo.Reserve(ctx, "doc1"); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Reserve() within TTL error = %v, want ErrDuplicate", err)
	}

	now = now.Add(2 * time.Second)
	if err := repo.Reserve(ctx, "doc1"); err != nil {
		t.Errorf("Reserve() after TTL error = %v", err)
	}
}

func TestDocumentRepo_InsertClearsReservation(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewDocumentRepo(db)

	if err := repo.Reserve(ctx, "doc1"); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}
	if err := repo.InsertWithChunks(ctx, testDocument("doc1"), testChunks("doc1", 2)); err != nil {
		t.Fatalf("InsertWithChunks() error = %v", err)
	}

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM reservations").Scan(&n); err != nil {
		t.Fatalf("count reservations: %v", err)
	}
	if n != 0 {
		t.Errorf("reservations left after insert = %d", n)
	}

	if err := repo.Delete(ctx, "doc1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Reserve(ctx, "doc1"); err != nil {
		t.Errorf("Reserve() after delete error = %v", err)
	}
}

func TestDocumentRepo_Outline(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewDocumentRepo(db)

	want := domain.Outline{
		Topics: []domain.Topic{{
			Name:          "Cells",
			Description:   "Structure of cells.",
			Difficulty:    domain.Beginner,
			KeyVocabulary: []string{"membrane"},
		}},
		Vocabulary:    []domain.Term{{Word: "membrane", Definition: "Outer layer.", Difficulty: domain.Intermediate}},
		GrammarPoints: []string{},
	}
	doc := testDocument("doc1")
	doc.Outline = &want
	if err := repo.InsertWithChunks(ctx, doc, testChunks("doc1", 1)); err != nil {
		t.Fatalf("InsertWithChunks() error = %v", err)
	}
	if err := repo.InsertWithChunks(ctx, testDocument("plain"), testChunks("plain", 1)); err != nil {
		t.Fatalf("InsertWithChunks() error = %v", err)
	}

	got, err := repo.GetOutline(ctx, "doc1")
	if err != nil {
		t.Fatalf("GetOutline() error = %v", err)
	}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("GetOutline() = %+v, want %+v", *got, want)
	}

	empty, err := repo.GetOutline(ctx, "plain")
	if err != nil {
		t.Fatalf("GetOutline(plain) error = %v", err)
	}
	if !reflect.DeepEqual(*empty, domain.EmptyOutline()) {
		t.Errorf("GetOutline(plain) = %+v, want empty outline", *empty)
	}

	if _, err := repo.GetOutline(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetOutline(missing) error = %v, want ErrNotFound", err)
	}

	if err := repo.Delete(ctx, "doc1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM document_topics").Scan(&n); err != nil {
		t.Fatalf("count outlines: %v", err)
	}
	if n != 0 {
		t.Errorf("outlines left after delete = %d", n)
	}
}
