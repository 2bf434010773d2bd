package services

import (
	"context"
	"errors"
	"testing"

	"shreddit/models"
	"shreddit/providers"
	"shreddit/queue"

	"go.uber.org/zap"
)

func newSummarizationFixture(sum *fakeSummarizer, docs ...models.Document) (*SummarizationService, *memStore, *memBlobs, *queue.Memory) {
	store := newMemStore(docs...)
	blobs := newMemBlobs()
	q := queue.NewMemory()
	svc := NewSummarizationService(testConfig(), store, blobs, q, sum, zap.NewNop())
	return svc, store, blobs, q
}

func pendingDoc(id int64) models.Document {
	return models.Document{ID: id, Title: "invoice", SummaryStatus: models.StatusPending}
}

func TestSummarizationHappyPath(t *testing.T) {
	sum := &fakeSummarizer{responses: []summarizerResponse{{summary: "Eine Rechnung über 100 Euro."}}}
	svc, store, blobs, q := newSummarizationFixture(sum, pendingDoc(42))
	blobs.put("documents", "documents/42/ocr.txt", []byte("Invoice Total: 100"))

	job := models.GenAiJob{DocumentID: 42, OcrPath: "documents/42/ocr.txt"}
	if err := svc.Process(context.Background(), job); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	doc := store.get(42)
	if doc.SummaryStatus != models.StatusOk {
		t.Errorf("status = %s, want OK", doc.SummaryStatus)
	}
	if doc.Summary != "Eine Rechnung über 100 Euro." {
		t.Errorf("unexpected summary: %q", doc.Summary)
	}
	if doc.OcrText != "Invoice Total: 100" {
		t.Errorf("ocr text not set on document: %q", doc.OcrText)
	}
	if stored, ok := blobs.get("documents", "documents/42/summary.txt"); !ok || string(stored) != doc.Summary {
		t.Error("summary blob missing or wrong")
	}
	if q.Len("indexing-requests") != 1 {
		t.Error("re-indexing job must be emitted")
	}
}

func TestSummarizationRetriesOnceThenSucceeds(t *testing.T) {
	sum := &fakeSummarizer{responses: []summarizerResponse{
		{err: errors.New("transient blip")},
		{summary: "Zweiter Versuch."},
	}}
	svc, store, blobs, _ := newSummarizationFixture(sum, pendingDoc(7))
	blobs.put("documents", "documents/7/ocr.txt", []byte("Text"))

	if err := svc.Process(context.Background(), models.GenAiJob{DocumentID: 7, OcrPath: "documents/7/ocr.txt"}); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if sum.calls != 2 {
		t.Errorf("summarizer calls = %d, want 2", sum.calls)
	}
	if store.get(7).SummaryStatus != models.StatusOk {
		t.Error("document must end in OK after successful retry")
	}
}

func TestSummarizationQuotaExceeded(t *testing.T) {
	sum := &fakeSummarizer{responses: []summarizerResponse{
		{err: providers.ErrQuotaExceeded},
		{err: providers.ErrQuotaExceeded},
	}}
	svc, store, blobs, q := newSummarizationFixture(sum, pendingDoc(42))
	blobs.put("documents", "documents/42/ocr.txt", []byte("Invoice Total: 100"))

	err := svc.Process(context.Background(), models.GenAiJob{DocumentID: 42, OcrPath: "documents/42/ocr.txt"})
	if err == nil {
		t.Fatal("expected error on quota exhaustion")
	}
	if sum.calls != 2 {
		t.Errorf("summarizer calls = %d, want exactly one retry", sum.calls)
	}

	doc := store.get(42)
	if doc.SummaryStatus != models.StatusFailedQuota {
		t.Errorf("status = %s, want FAILED_QUOTA", doc.SummaryStatus)
	}
	if doc.Summary != models.QuotaExceededMessage {
		t.Errorf("summary = %q, want the fixed quota message", doc.Summary)
	}
	if _, ok := blobs.get("documents", "documents/42/summary.txt"); ok {
		t.Error("summary blob must never be written on quota failure")
	}
	if q.Len("indexing-requests") != 0 {
		t.Error("no re-indexing job on failure")
	}
}

func TestSummarizationGenericFailure(t *testing.T) {
	sum := &fakeSummarizer{responses: []summarizerResponse{
		{err: errors.New("boom")},
		{err: errors.New("boom again")},
	}}
	svc, store, blobs, _ := newSummarizationFixture(sum, pendingDoc(8))
	blobs.put("documents", "documents/8/ocr.txt", []byte("Text"))

	if err := svc.Process(context.Background(), models.GenAiJob{DocumentID: 8, OcrPath: "documents/8/ocr.txt"}); err == nil {
		t.Fatal("expected error")
	}
	doc := store.get(8)
	if doc.SummaryStatus != models.StatusFailed {
		t.Errorf("status = %s, want FAILED", doc.SummaryStatus)
	}
	if doc.Summary != "" {
		t.Errorf("summary must stay absent on generic failure, got %q", doc.Summary)
	}
}

func TestSummarizationRejectsBlankSummary(t *testing.T) {
	sum := &fakeSummarizer{responses: []summarizerResponse{{summary: "   "}}}
	svc, store, blobs, _ := newSummarizationFixture(sum, pendingDoc(9))
	blobs.put("documents", "documents/9/ocr.txt", []byte("Text"))

	if err := svc.Process(context.Background(), models.GenAiJob{DocumentID: 9, OcrPath: "documents/9/ocr.txt"}); err == nil {
		t.Fatal("a blank summary must count as failure")
	}
	if store.get(9).SummaryStatus != models.StatusFailed {
		t.Error("document must end in FAILED")
	}
}

func TestSummarizationBlankOcrTextFails(t *testing.T) {
	sum := &fakeSummarizer{}
	svc, store, blobs, _ := newSummarizationFixture(sum, pendingDoc(10))
	blobs.put("documents", "documents/10/ocr.txt", []byte("  \n "))

	if err := svc.Process(context.Background(), models.GenAiJob{DocumentID: 10, OcrPath: "documents/10/ocr.txt"}); err == nil {
		t.Fatal("blank ocr text must fail the stage")
	}
	if sum.calls != 0 {
		t.Error("summarizer must not be called for blank input")
	}
	if store.get(10).SummaryStatus != models.StatusFailed {
		t.Error("document must end in FAILED")
	}
}

func TestSummarizationReindexPublishFailureIsSwallowed(t *testing.T) {
	sum := &fakeSummarizer{responses: []summarizerResponse{{summary: "Zusammenfassung."}}}
	svc, store, blobs, q := newSummarizationFixture(sum, pendingDoc(11))
	blobs.put("documents", "documents/11/ocr.txt", []byte("Text"))
	q.PublishErr["indexing-requests"] = errors.New("broker down")

	if err := svc.Process(context.Background(), models.GenAiJob{DocumentID: 11, OcrPath: "documents/11/ocr.txt"}); err != nil {
		t.Fatalf("re-index publish failure must not fail the stage: %v", err)
	}
	if store.get(11).SummaryStatus != models.StatusOk {
		t.Error("document must still end in OK")
	}
}

func TestSummarizationDoesNotOverwriteExistingOcrText(t *testing.T) {
	doc := pendingDoc(12)
	doc.OcrText = "bereits vorhanden"
	sum := &fakeSummarizer{responses: []summarizerResponse{{summary: "S."}}}
	svc, store, blobs, _ := newSummarizationFixture(sum, doc)
	blobs.put("documents", "documents/12/ocr.txt", []byte("neuer text"))

	if err := svc.Process(context.Background(), models.GenAiJob{DocumentID: 12, OcrPath: "documents/12/ocr.txt"}); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if got := store.get(12).OcrText; got != "bereits vorhanden" {
		t.Errorf("existing ocr text must not be overwritten, got %q", got)
	}
}
