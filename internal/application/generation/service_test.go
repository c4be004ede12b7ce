package generation

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"copysmith-ai-api/internal/application/credit"
	"copysmith-ai-api/internal/application/retrieval"
	"copysmith-ai-api/internal/config"
	"copysmith-ai-api/internal/domain/entity"
	"copysmith-ai-api/internal/domain/repository"
	"copysmith-ai-api/internal/workflow/port"
	"copysmith-ai-api/internal/workflow/prompt"
	apperrors "copysmith-ai-api/pkg/errors"
)

// fakeProvider 按调用顺序返回预置的文本响应
type fakeProvider struct {
	mu         sync.Mutex
	responses  []string
	errs       []error
	calls      int
	lastParams port.Params
	// blockUntilCtxDone 为 true 时模拟一个永不返回的后端
	blockUntilCtxDone bool
}

func (f *fakeProvider) Complete(ctx context.Context, _ string, p port.Params) (*port.Completion, error) {
	if f.blockUntilCtxDone {
		<-ctx.Done()
		return nil, apperrors.ErrProviderTimeout.WithError(ctx.Err())
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastParams = p
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i >= len(f.responses) {
		return nil, apperrors.ErrProviderInvalidResponse
	}
	return &port.Completion{
		Content: f.responses[i],
		Usage:   port.Usage{PromptTokens: 10, CompletionTokens: 20},
	}, nil
}

func (f *fakeProvider) Stream(ctx context.Context, prompt string, p port.Params) (<-chan port.TextChunk, <-chan error, error) {
	out, err := f.Complete(ctx, prompt, p)
	if err != nil {
		return nil, nil, err
	}
	chunks := make(chan port.TextChunk, 8)
	errs := make(chan error, 1)
	for i, part := range strings.SplitAfter(out.Content, " ") {
		chunks <- port.TextChunk{Content: part, Index: i}
	}
	close(chunks)
	close(errs)
	return chunks, errs, nil
}

// fakeImageProvider 第 failCall 次调用返回永久性错误，其余调用成功
type fakeImageProvider struct {
	calls    atomic.Int64
	failCall int64
}

func (f *fakeImageProvider) GenerateImage(_ context.Context, _ string, _ port.ImageParams) (string, error) {
	n := f.calls.Add(1)
	if n == f.failCall {
		return "", apperrors.ErrProviderInvalidResponse.WithDetail("no image payload in response")
	}
	return "data:image/png;base64,Zm9v", nil
}

type fakeRecordRepo struct {
	mu      sync.Mutex
	records []*entity.GenerationRecord
}

func (f *fakeRecordRepo) Create(_ context.Context, record *entity.GenerationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
	return nil
}

func (f *fakeRecordRepo) GetByID(_ context.Context, id string) (*entity.GenerationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeRecordRepo) ListByUser(_ context.Context, userID string, _ repository.Pagination) (*repository.PagedResult[*entity.GenerationRecord], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []*entity.GenerationRecord
	for _, r := range f.records {
		if r.UserID == userID {
			items = append(items, r)
		}
	}
	return &repository.PagedResult[*entity.GenerationRecord]{Items: items, Total: int64(len(items))}, nil
}

type fakeLedger struct {
	mu           sync.Mutex
	balances     map[string]int64
	transactions []*entity.CreditTransaction
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{balances: make(map[string]int64)}
}

func (f *fakeLedger) GetBalance(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[userID], nil
}

func (f *fakeLedger) SetBalance(_ context.Context, userID string, balance int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[userID] = balance
	return nil
}

func (f *fakeLedger) AddTransaction(_ context.Context, tx *entity.CreditTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transactions = append(f.transactions, tx)
	return nil
}

func (f *fakeLedger) ListTransactions(_ context.Context, _ string, _ repository.Pagination) (*repository.PagedResult[*entity.CreditTransaction], error) {
	return &repository.PagedResult[*entity.CreditTransaction]{}, nil
}

type fakeTransactor struct{}

func (fakeTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func testPipelineConfig() *config.PipelineConfig {
	return &config.PipelineConfig{
		StageTimeout:   5 * time.Second,
		OverallTimeout: 10 * time.Second,
		ImageRetries:   2,
		ImageCount:     3,
		RetrievalTopK:  2,
	}
}

func testCorpus() []entity.CorpusExample {
	return []entity.CorpusExample{
		{Text: "pricing psychology shapes how buyers perceive value"},
		{Text: "social proof converts better than feature lists"},
	}
}

func newTestService(t *testing.T, provider port.Provider, images port.ImageProvider, ledger *fakeLedger) (*Service, *fakeRecordRepo) {
	t.Helper()
	return newTestServiceWithConfig(t, testPipelineConfig(), provider, images, ledger)
}

func newTestServiceWithConfig(t *testing.T, cfg *config.PipelineConfig, provider port.Provider, images port.ImageProvider, ledger *fakeLedger) (*Service, *fakeRecordRepo) {
	t.Helper()
	orch := NewOrchestrator(
		retrieval.NewRetriever(testCorpus()),
		prompt.NewAssembler(prompt.NewRegistry()),
		NewParser(),
		provider,
		images,
		cfg,
	)
	records := &fakeRecordRepo{}
	gate := credit.NewGate(ledger, fakeTransactor{})
	return NewService(orch, gate, records, nil, cfg), records
}

func joinNotes(notes ...string) string {
	return strings.Join(notes, prompt.ArtifactDelimiter)
}

func TestGenerateShortFormHappyPath(t *testing.T) {
	provider := &fakeProvider{responses: []string{
		// 策展阶段：两条精选参考
		joinNotes("curated example one", "curated example two"),
		// 生成阶段：四条短文案
		joinNotes("note one", "note two", "note three", "note four"),
	}}
	ledger := newFakeLedger()
	ledger.balances["u1"] = 10
	svc, records := newTestService(t, provider, nil, ledger)

	record, err := svc.Generate(context.Background(), &entity.GenerationRequest{
		Topic:  "pricing psychology",
		Mode:   entity.ModeShortForm,
		UserID: "u1",
	})

	require.NoError(t, err)
	assert.Equal(t, entity.GenerationStatusSucceeded, record.Status)
	assert.Len(t, record.Artifacts, 4)
	assert.Equal(t, 2, provider.calls, "curation and generation stages each call the provider once")
	assert.Equal(t, int64(8), ledger.balances["u1"], "cost 2 deducted from balance 10")

	records.mu.Lock()
	defer records.mu.Unlock()
	require.Len(t, records.records, 1)
	assert.Equal(t, record.ID, records.records[0].ID)
}

func TestGenerateInsufficientCreditsNeverCallsProvider(t *testing.T) {
	provider := &fakeProvider{responses: []string{"irrelevant"}}
	ledger := newFakeLedger()
	ledger.balances["u1"] = 1
	svc, records := newTestService(t, provider, nil, ledger)

	_, err := svc.Generate(context.Background(), &entity.GenerationRequest{
		Topic:  "pricing psychology",
		Mode:   entity.ModeShortForm,
		UserID: "u1",
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInsufficientCredits))
	assert.Equal(t, 0, provider.calls)
	assert.Equal(t, int64(1), ledger.balances["u1"])
	assert.Empty(t, records.records)
}

func TestGenerateProviderFailureLeavesBalance(t *testing.T) {
	provider := &fakeProvider{errs: []error{apperrors.ErrProviderInvalidResponse}}
	ledger := newFakeLedger()
	ledger.balances["u1"] = 10
	svc, records := newTestService(t, provider, nil, ledger)

	record, err := svc.Generate(context.Background(), &entity.GenerationRequest{
		Topic:  "pricing psychology",
		Mode:   entity.ModeOutline,
		UserID: "u1",
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeProviderInvalidResponse))
	assert.Equal(t, int64(10), ledger.balances["u1"])
	assert.Equal(t, entity.GenerationStatusFailed, record.Status)
	require.Len(t, records.records, 1, "failed runs are still recorded for history")
}

func TestGenerateTransientErrorRetriedOnce(t *testing.T) {
	provider := &fakeProvider{
		errs:      []error{apperrors.ErrProviderRateLimited},
		responses: []string{"", "the outline content"},
	}
	ledger := newFakeLedger()
	ledger.balances["u1"] = 10
	svc, _ := newTestService(t, provider, nil, ledger)

	record, err := svc.Generate(context.Background(), &entity.GenerationRequest{
		Topic:  "pricing psychology",
		Mode:   entity.ModeOutline,
		UserID: "u1",
	})

	require.NoError(t, err)
	assert.Equal(t, 2, provider.calls)
	assert.Equal(t, entity.GenerationStatusSucceeded, record.Status)
}

func TestGenerateForwardsProviderSelection(t *testing.T) {
	provider := &fakeProvider{responses: []string{"the outline content"}}
	ledger := newFakeLedger()
	ledger.balances["u1"] = 10
	svc, _ := newTestService(t, provider, nil, ledger)

	_, err := svc.Generate(context.Background(), &entity.GenerationRequest{
		Topic:    "pricing psychology",
		Mode:     entity.ModeOutline,
		UserID:   "u1",
		Provider: "deepseek",
		Model:    "deepseek-chat",
	})

	require.NoError(t, err)
	provider.mu.Lock()
	defer provider.mu.Unlock()
	assert.Equal(t, "deepseek", provider.lastParams.Provider, "requested provider reaches the backend call")
	assert.Equal(t, "deepseek-chat", provider.lastParams.Model)
}

func TestGenerateTimeoutLeavesBalance(t *testing.T) {
	provider := &fakeProvider{blockUntilCtxDone: true}
	cfg := testPipelineConfig()
	cfg.OverallTimeout = 50 * time.Millisecond
	ledger := newFakeLedger()
	ledger.balances["u1"] = 10
	svc, _ := newTestServiceWithConfig(t, cfg, provider, nil, ledger)

	_, err := svc.Generate(context.Background(), &entity.GenerationRequest{
		Topic:  "pricing psychology",
		Mode:   entity.ModeLongForm,
		UserID: "u1",
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeProviderTimeout))
	assert.Equal(t, int64(10), ledger.balances["u1"])
}

func TestGenerateImageFanOutPartialFailure(t *testing.T) {
	images := &fakeImageProvider{failCall: 2}
	ledger := newFakeLedger()
	ledger.balances["u1"] = 10
	svc, _ := newTestService(t, &fakeProvider{}, images, ledger)

	record, err := svc.Generate(context.Background(), &entity.GenerationRequest{
		Topic:  "product launch banner",
		Mode:   entity.ModeImage,
		UserID: "u1",
		Count:  3,
	})

	require.NoError(t, err)
	assert.Equal(t, entity.GenerationStatusPartial, record.Status)
	assert.Len(t, record.Artifacts, 2)
	assert.Contains(t, record.ErrorMessage, "unit")
	assert.Equal(t, int64(5), ledger.balances["u1"], "non-zero success still commits credits")
}

func TestGenerateImageFanOutTotalFailure(t *testing.T) {
	// 永久性错误不重试，三个单元各失败一次
	failAll := &failingImageProvider{}
	ledger := newFakeLedger()
	ledger.balances["u1"] = 10
	svc, _ := newTestService(t, &fakeProvider{}, failAll, ledger)

	_, err := svc.Generate(context.Background(), &entity.GenerationRequest{
		Topic:  "product launch banner",
		Mode:   entity.ModeImage,
		UserID: "u1",
		Count:  3,
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeProviderInvalidResponse))
	assert.Equal(t, int64(10), ledger.balances["u1"])
}

type failingImageProvider struct{}

func (failingImageProvider) GenerateImage(context.Context, string, port.ImageParams) (string, error) {
	return "", apperrors.ErrProviderInvalidResponse
}

func TestGenerateStreamDoneAlwaysLast(t *testing.T) {
	provider := &fakeProvider{responses: []string{
		joinNotes("curated one", "curated two"),
		joinNotes("note one", "note two", "note three", "note four"),
	}}
	ledger := newFakeLedger()
	ledger.balances["u1"] = 10
	svc, _ := newTestService(t, provider, nil, ledger)

	var events []Event
	svc.GenerateStream(context.Background(), &entity.GenerationRequest{
		Topic:  "pricing psychology",
		Mode:   entity.ModeShortForm,
		UserID: "u1",
	}, func(e Event) {
		events = append(events, e)
	})

	require.NotEmpty(t, events)
	doneCount := 0
	for _, e := range events {
		if e.Type == EventDone {
			doneCount++
		}
	}
	assert.Equal(t, 1, doneCount, "exactly one done event per stream")
	last := events[len(events)-1]
	assert.Equal(t, EventDone, last.Type, "done must be the final event")
	assert.Equal(t, entity.GenerationStatusSucceeded, last.Status)
	assert.NotEmpty(t, last.RecordID)
	assert.Equal(t, int64(8), ledger.balances["u1"])
}

func TestGenerateStreamFailureStillEmitsDone(t *testing.T) {
	provider := &fakeProvider{errs: []error{apperrors.ErrProviderUnavailable}}
	ledger := newFakeLedger()
	ledger.balances["u1"] = 10
	svc, _ := newTestService(t, provider, nil, ledger)

	var events []Event
	svc.GenerateStream(context.Background(), &entity.GenerationRequest{
		Topic:  "pricing psychology",
		Mode:   entity.ModeOutline,
		UserID: "u1",
	}, func(e Event) {
		events = append(events, e)
	})

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, EventDone, last.Type)
	assert.Equal(t, entity.GenerationStatusFailed, last.Status)
	assert.Equal(t, string(apperrors.CodeProviderUnavailable), last.Code)
	assert.Equal(t, int64(10), ledger.balances["u1"])
}
