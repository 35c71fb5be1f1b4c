package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yosuketsuboi/kakeibo-app/internal/models"
	"github.com/yosuketsuboi/kakeibo-app/internal/storage"
)

type fakeReceiptStore struct {
	receipt *models.Receipt

	statuses   []models.OCRStatus
	extraction *extractionCall
	parseError []byte
	statusErr  error
}

type extractionCall struct {
	storeName   *string
	totalAmount *float64
	purchasedAt *time.Time
	raw         []byte
}

func (f *fakeReceiptStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Receipt, error) {
	if f.receipt == nil {
		return nil, errors.New("no rows")
	}
	return f.receipt, nil
}

func (f *fakeReceiptStore) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OCRStatus) error {
	f.statuses = append(f.statuses, status)
	return f.statusErr
}

func (f *fakeReceiptStore) UpdateExtraction(ctx context.Context, id uuid.UUID, storeName *string, totalAmount *float64, purchasedAt *time.Time, raw []byte) error {
	f.extraction = &extractionCall{storeName: storeName, totalAmount: totalAmount, purchasedAt: purchasedAt, raw: raw}
	return nil
}

func (f *fakeReceiptStore) MarkParseError(ctx context.Context, id uuid.UUID, raw []byte) error {
	f.parseError = raw
	return nil
}

type fakeItemStore struct {
	items []*models.ReceiptItem
	err   error
}

func (f *fakeItemStore) CreateBatch(ctx context.Context, items []*models.ReceiptItem) error {
	if f.err != nil {
		return f.err
	}
	f.items = append(f.items, items...)
	return nil
}

type fakeCategoryStore struct {
	categories []models.Category
	err        error
}

func (f *fakeCategoryStore) ListByHousehold(ctx context.Context, householdID uuid.UUID) ([]models.Category, error) {
	return f.categories, f.err
}

type fakeExtractor struct {
	text      string
	truncated bool
	err       error

	gotImage      []byte
	gotMediaType  string
	gotCategories []models.Category
}

func (f *fakeExtractor) ExtractReceipt(ctx context.Context, image []byte, mediaType string, categories []models.Category) (string, bool, error) {
	f.gotImage = image
	f.gotMediaType = mediaType
	f.gotCategories = categories
	return f.text, f.truncated, f.err
}

type fakeObjectStore struct {
	data map[string][]byte
}

func (f *fakeObjectStore) Put(ctx context.Context, key, contentType string, body io.Reader) error {
	return errors.New("not implemented")
}

func (f *fakeObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, ok := f.data[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func (f *fakeObjectStore) Delete(ctx context.Context, key string) error { return nil }
func (f *fakeObjectStore) PublicURL(key string) string                  { return "http://test/" + key }

var _ storage.ObjectStore = (*fakeObjectStore)(nil)

func newTestReceipt() *models.Receipt {
	return &models.Receipt{
		ID:          uuid.New(),
		HouseholdID: uuid.New(),
		UserID:      uuid.New(),
		ImagePath:   "hh/123_receipt.jpg",
		OCRStatus:   models.OCRStatusPending,
	}
}

func newExtractionService(receipts *fakeReceiptStore, items *fakeItemStore, cats *fakeCategoryStore, extractor *fakeExtractor, store *fakeObjectStore) *ExtractionService {
	return NewExtractionService(receipts, items, cats, extractor, store, zap.NewNop())
}

func TestProcessHappyPath(t *testing.T) {
	receipt := newTestReceipt()
	catID := uuid.New()
	receipts := &fakeReceiptStore{receipt: receipt}
	items := &fakeItemStore{}
	cats := &fakeCategoryStore{categories: []models.Category{{ID: catID, Name: "食費"}}}
	extractor := &fakeExtractor{
		text: `{"store_name":"スーパー","purchased_at":"2025-01-15","total_amount":500,"items":[{"name":"milk","quantity":1,"unit_price":200,"category_id":"` + catID.String() + `"},{"name":"bread","quantity":2,"unit_price":150}]}`,
	}
	store := &fakeObjectStore{data: map[string][]byte{receipt.ImagePath: []byte("jpeg bytes")}}

	err := newExtractionService(receipts, items, cats, extractor, store).Process(context.Background(), receipt.ID)
	require.NoError(t, err)

	assert.Equal(t, []models.OCRStatus{models.OCRStatusProcessing}, receipts.statuses)
	require.NotNil(t, receipts.extraction)
	assert.Equal(t, "スーパー", *receipts.extraction.storeName)
	assert.Equal(t, float64(500), *receipts.extraction.totalAmount)
	assert.Equal(t, "2025-01-15", receipts.extraction.purchasedAt.Format("2006-01-02"))

	require.Len(t, items.items, 2)
	assert.Equal(t, "milk", items.items[0].Name)
	assert.Equal(t, catID, *items.items[0].CategoryID)
	assert.Equal(t, "bread", items.items[1].Name)
	assert.Nil(t, items.items[1].CategoryID)
	for _, it := range items.items {
		assert.Equal(t, receipt.ID, it.ReceiptID)
	}

	assert.Equal(t, []byte("jpeg bytes"), extractor.gotImage)
	assert.Equal(t, "image/jpeg", extractor.gotMediaType)
	assert.Equal(t, cats.categories, extractor.gotCategories)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(receipts.extraction.raw, &raw))
	_, marked := raw["_truncated"]
	assert.False(t, marked)
}

func TestProcessTruncatedOutputIsRepairedAndMarked(t *testing.T) {
	receipt := newTestReceipt()
	receipts := &fakeReceiptStore{receipt: receipt}
	items := &fakeItemStore{}
	extractor := &fakeExtractor{
		text:      `{"store_name":"store","total_amount":1000,"items":[{"name":"milk","quantity":1,"unit_price":200},{"name":"bread","unit`,
		truncated: true,
	}
	store := &fakeObjectStore{data: map[string][]byte{receipt.ImagePath: []byte("img")}}

	err := newExtractionService(receipts, items, &fakeCategoryStore{}, extractor, store).Process(context.Background(), receipt.ID)
	require.NoError(t, err)

	// Only the fully closed item survives.
	require.Len(t, items.items, 1)
	assert.Equal(t, "milk", items.items[0].Name)

	require.NotNil(t, receipts.extraction)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(receipts.extraction.raw, &raw))
	assert.Equal(t, true, raw["_truncated"])
}

func TestProcessModelReportedTruncationIsMarked(t *testing.T) {
	receipt := newTestReceipt()
	receipts := &fakeReceiptStore{receipt: receipt}
	extractor := &fakeExtractor{
		text:      `{"store_name":"store","items":[]}`,
		truncated: true,
	}
	store := &fakeObjectStore{data: map[string][]byte{receipt.ImagePath: []byte("img")}}

	err := newExtractionService(receipts, &fakeItemStore{}, &fakeCategoryStore{}, extractor, store).Process(context.Background(), receipt.ID)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(receipts.extraction.raw, &raw))
	assert.Equal(t, true, raw["_truncated"])
}

func TestProcessUnparseableOutputKeepsRawText(t *testing.T) {
	receipt := newTestReceipt()
	receipts := &fakeReceiptStore{receipt: receipt}
	items := &fakeItemStore{}
	extractor := &fakeExtractor{text: "読み取れませんでした"}
	store := &fakeObjectStore{data: map[string][]byte{receipt.ImagePath: []byte("img")}}

	err := newExtractionService(receipts, items, &fakeCategoryStore{}, extractor, store).Process(context.Background(), receipt.ID)
	require.NoError(t, err)

	assert.Equal(t, []byte("読み取れませんでした"), receipts.parseError)
	assert.Nil(t, receipts.extraction)
	assert.Empty(t, items.items)
}

func TestProcessImageDownloadFailure(t *testing.T) {
	receipt := newTestReceipt()
	receipts := &fakeReceiptStore{receipt: receipt}
	store := &fakeObjectStore{data: map[string][]byte{}}

	err := newExtractionService(receipts, &fakeItemStore{}, &fakeCategoryStore{}, &fakeExtractor{}, store).Process(context.Background(), receipt.ID)
	require.NoError(t, err)

	assert.Equal(t, []models.OCRStatus{models.OCRStatusProcessing, models.OCRStatusError}, receipts.statuses)
}

func TestProcessVisionFailure(t *testing.T) {
	receipt := newTestReceipt()
	receipts := &fakeReceiptStore{receipt: receipt}
	extractor := &fakeExtractor{err: errors.New("api unavailable")}
	store := &fakeObjectStore{data: map[string][]byte{receipt.ImagePath: []byte("img")}}

	err := newExtractionService(receipts, &fakeItemStore{}, &fakeCategoryStore{}, extractor, store).Process(context.Background(), receipt.ID)
	require.NoError(t, err)

	assert.Equal(t, []models.OCRStatus{models.OCRStatusProcessing, models.OCRStatusError}, receipts.statuses)
}

func TestProcessCategoryLoadFailureIsNotFatal(t *testing.T) {
	receipt := newTestReceipt()
	receipts := &fakeReceiptStore{receipt: receipt}
	cats := &fakeCategoryStore{err: errors.New("db down")}
	extractor := &fakeExtractor{text: `{"store_name":"store","items":[]}`}
	store := &fakeObjectStore{data: map[string][]byte{receipt.ImagePath: []byte("img")}}

	err := newExtractionService(receipts, &fakeItemStore{}, cats, extractor, store).Process(context.Background(), receipt.ID)
	require.NoError(t, err)

	require.NotNil(t, receipts.extraction)
	assert.Empty(t, extractor.gotCategories)
}

func TestProcessMissingReceipt(t *testing.T) {
	receipts := &fakeReceiptStore{}
	store := &fakeObjectStore{}

	err := newExtractionService(receipts, &fakeItemStore{}, &fakeCategoryStore{}, &fakeExtractor{}, store).Process(context.Background(), uuid.New())
	assert.Error(t, err)
	assert.Empty(t, receipts.statuses)
}

func TestMediaTypeForPath(t *testing.T) {
	assert.Equal(t, "image/jpeg", mediaTypeForPath("a/b/123_photo.jpg"))
	assert.Equal(t, "image/jpeg", mediaTypeForPath("a/b/123_photo.JPEG"))
	assert.Equal(t, "image/png", mediaTypeForPath("a/b/shot.png"))
	assert.Equal(t, "image/webp", mediaTypeForPath("a/b/shot.webp"))
	assert.Equal(t, "image/jpeg", mediaTypeForPath("noext"))
}
