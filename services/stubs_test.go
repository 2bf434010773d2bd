package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"shreddit/models"
	"shreddit/search"
)

// memStore ist ein map-basierter DocumentStore für Tests.
type memStore struct {
	mu   sync.Mutex
	docs map[int64]models.Document

	findErr error
	saveErr error
}

func newMemStore(docs ...models.Document) *memStore {
	s := &memStore{docs: make(map[int64]models.Document)}
	for _, d := range docs {
		s.docs[d.ID] = d
	}
	return s
}

func (s *memStore) FindByID(ctx context.Context, id int64) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	doc, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: id=%d", ErrDocumentNotFound, id)
	}
	copied := doc
	return &copied, nil
}

func (s *memStore) Save(ctx context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.docs[doc.ID] = *doc
	return nil
}

func (s *memStore) FindAll(ctx context.Context) ([]models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	var out []models.Document
	for _, d := range s.docs {
		out = append(out, d)
	}
	return out, nil
}

func (s *memStore) get(id int64) models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[id]
}

// memBlobs ist ein map-basierter BlobStore für Tests.
type memBlobs struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploaders map[string]string

	downloadErr error
	uploadErr   error
}

func newMemBlobs() *memBlobs {
	return &memBlobs{
		objects:   make(map[string][]byte),
		uploaders: make(map[string]string),
	}
}

func blobKey(bucket, key string) string {
	return bucket + "/" + key
}

func (b *memBlobs) put(bucket, key string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[blobKey(bucket, key)] = data
}

func (b *memBlobs) get(bucket, key string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[blobKey(bucket, key)]
	return data, ok
}

func (b *memBlobs) Upload(ctx context.Context, bucket, key string, data []byte, contentType, username string) error {
	if b.uploadErr != nil {
		return b.uploadErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[blobKey(bucket, key)] = data
	b.uploaders[blobKey(bucket, key)] = username
	return nil
}

func (b *memBlobs) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	if b.downloadErr != nil {
		return nil, b.downloadErr
	}
	data, ok := b.get(bucket, key)
	if !ok {
		return nil, fmt.Errorf("object %s/%s not found", bucket, key)
	}
	return data, nil
}

func (b *memBlobs) Uploader(ctx context.Context, bucket, key string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.uploaders[blobKey(bucket, key)], nil
}

// memIndex ist ein map-basierter Suchindex für Tests. Search liefert
// alle indizierten Dokumente, deren Textfelder die Query enthalten.
type memIndex struct {
	mu   sync.Mutex
	docs map[int64]models.IndexedDocument

	indexErr error
	// down simuliert einen leeren/ausgefallenen Index
	down bool
}

func newMemIndex() *memIndex {
	return &memIndex{docs: make(map[int64]models.IndexedDocument)}
}

func (m *memIndex) Index(ctx context.Context, doc models.IndexedDocument) error {
	if m.indexErr != nil {
		return m.indexErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = doc
	return nil
}

func (m *memIndex) Search(ctx context.Context, query string) ([]search.Hit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return nil, nil
	}
	needle := strings.ToLower(query)
	var hits []search.Hit
	for id, doc := range m.docs {
		for _, field := range []string{doc.Title, doc.Summary, doc.OcrText, doc.Content} {
			if field != "" && strings.Contains(strings.ToLower(field), needle) {
				hits = append(hits, search.Hit{ID: id, Score: 1.0})
				break
			}
		}
	}
	return hits, nil
}

func (m *memIndex) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

func (m *memIndex) get(id int64) (models.IndexedDocument, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	return doc, ok
}

// fakeSummarizer spielt eine Liste vorbereiteter Antworten ab.
type fakeSummarizer struct {
	responses []summarizerResponse
	calls     int
}

type summarizerResponse struct {
	summary string
	err     error
}

func (f *fakeSummarizer) Name() string { return "fake" }

func (f *fakeSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	if f.calls >= len(f.responses) {
		return "", fmt.Errorf("unexpected summarizer call %d", f.calls+1)
	}
	resp := f.responses[f.calls]
	f.calls++
	return resp.summary, resp.err
}

// fakeConverter liefert eine feste Seitenliste ohne externe Prozesse.
type fakeConverter struct {
	pages []string
	err   error
}

func (f *fakeConverter) Convert(ctx context.Context, pdfPath, workDir string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pages, nil
}

// fakeRecognizer mappt Seitenpfade auf Texte.
type fakeRecognizer struct {
	texts map[string]string
	err   error
}

func (f *fakeRecognizer) Recognize(ctx context.Context, imagePath string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.texts[imagePath], nil
}

