package prediction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/database/redis"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/messaging/kafka"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/storage/minio"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/intelligence/admet"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/intelligence/affinity"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/intelligence/prompt"
	pkgerrors "github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/pkg/errors"
)

type mockFetcher struct{ mock.Mock }

func (m *mockFetcher) Fetch(ctx context.Context, smiles []string) (*admet.Report, error) {
	args := m.Called(ctx, smiles)
	if r := args.Get(0); r != nil {
		return r.(*admet.Report), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockScorer struct{ mock.Mock }

func (m *mockScorer) Score(ctx context.Context, protein string, smiles []string) ([]affinity.Result, error) {
	args := m.Called(ctx, protein, smiles)
	if r := args.Get(0); r != nil {
		return r.([]affinity.Result), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockCompleter struct{ mock.Mock }

func (m *mockCompleter) Complete(ctx context.Context, p string) string {
	return m.Called(ctx, p).String(0)
}

type mockArchive struct{ mock.Mock }

func (m *mockArchive) PutReport(ctx context.Context, req *minio.ReportUpload) (*minio.StoredReport, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*minio.StoredReport), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishEvent(ctx context.Context, eventType, key string, payload interface{}) error {
	return m.Called(ctx, eventType, key, payload).Error(0)
}

type recordedPrediction struct {
	task, status string
}

type fakeRecorder struct {
	predictions []recordedPrediction
	cacheHits   []bool
	reports     []string
}

func (f *fakeRecorder) RecordPrediction(task, status string, _ time.Duration) {
	f.predictions = append(f.predictions, recordedPrediction{task, status})
}
func (f *fakeRecorder) RecordPredictionCache(_ string, hit bool) { f.cacheHits = append(f.cacheHits, hit) }
func (f *fakeRecorder) RecordReportStored(status string)         { f.reports = append(f.reports, status) }

func sampleReport(t *testing.T, smiles ...string) *admet.Report {
	t.Helper()
	header := append([]string{"Molecule", "Canonical SMILES"}, admet.KeyColumns()...)
	lines := []string{quoteCSV(header)}
	for i, s := range smiles {
		row := []string{fmt.Sprintf("Molecule %d", i+1), s}
		for range admet.KeyColumns() {
			row = append(row, "ok")
		}
		lines = append(lines, quoteCSV(row))
	}
	r, err := admet.ParseCSV([]byte(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)
	r.SMILES = smiles
	return r
}

func quoteCSV(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + f + `"`
	}
	return strings.Join(quoted, ",")
}

type fixture struct {
	fetcher   *mockFetcher
	scorer    *mockScorer
	llm       *mockCompleter
	archive   *mockArchive
	publisher *mockPublisher
	recorder  *fakeRecorder
	svc       Service
}

func newFixture(t *testing.T, cache ResultCache) *fixture {
	t.Helper()
	prompts, err := prompt.NewRegistry("", nil)
	require.NoError(t, err)

	f := &fixture{
		fetcher:   new(mockFetcher),
		scorer:    new(mockScorer),
		llm:       new(mockCompleter),
		archive:   new(mockArchive),
		publisher: new(mockPublisher),
		recorder:  &fakeRecorder{},
	}
	f.publisher.On("PublishEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	svc, err := NewService(Deps{
		ADMET:    f.fetcher,
		Affinity: f.scorer,
		LLM:      f.llm,
		Prompts:  prompts,
		Cache:    cache,
		Reports:  f.archive,
		Events:   f.publisher,
		Metrics:  f.recorder,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func newCache(t *testing.T) redis.Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return redis.NewRedisCache(redis.NewClientFromUniversal(rdb, nil), nil, redis.WithPrefix("test:"))
}

func TestNewService_RequiresCoreDeps(t *testing.T) {
	_, err := NewService(Deps{})
	assert.Error(t, err)
}

func TestParseTask(t *testing.T) {
	for in, want := range map[string]Task{
		"admet":             TaskADMET,
		"@admet_prediction": TaskADMET,
		"Binding":           TaskBindingAffinity,
		"binding_affinity":  TaskBindingAffinity,
	} {
		got, err := ParseTask(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseTask("toxicity")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeUnknownTask))
}

func TestTaskMarkersAndLabels(t *testing.T) {
	assert.Equal(t, "@admet_prediction", TaskADMET.Marker())
	assert.Equal(t, "@binding_affinity", TaskBindingAffinity.Marker())
	assert.Equal(t, "ADMET Prediction", TaskADMET.Label())
	assert.Equal(t, "Binding Affinity Prediction", TaskBindingAffinity.Label())
	assert.Equal(t, []Task{TaskADMET, TaskBindingAffinity}, Tasks())
}

func TestPredictADMET_ExplainsWithLLM(t *testing.T) {
	f := newFixture(t, nil)
	ctx := WithChatID(context.Background(), "chat-1")
	report := sampleReport(t, "CCO")

	f.fetcher.On("Fetch", mock.Anything, []string{"CCO"}).Return(report, nil).Once()
	f.archive.On("PutReport", mock.Anything, mock.MatchedBy(func(r *minio.ReportUpload) bool {
		return r.Task == string(TaskADMET) && r.ChatID == "chat-1" && r.ContentType == "text/csv"
	})).Return(&minio.StoredReport{ObjectKey: "admet_prediction/k.csv"}, nil).Once()
	f.llm.On("Complete", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "SMILES: CCO")
	})).Return("  Ethanol is drug-like.  ").Once()

	out, err := f.svc.PredictADMET(ctx, []string{" CCO ", ""})
	require.NoError(t, err)
	assert.Equal(t, "Ethanol is drug-like.", out)
	assert.Equal(t, []recordedPrediction{{"admet_prediction", "ok"}}, f.recorder.predictions)
	assert.Equal(t, []string{"ok"}, f.recorder.reports)

	f.publisher.AssertCalled(t, "PublishEvent", mock.Anything, kafka.EventPredictionCompleted, "chat-1",
		mock.MatchedBy(func(p kafka.PredictionPayload) bool {
			return p.ReportKey == "admet_prediction/k.csv" && !p.Cached && p.Task == "admet_prediction"
		}))
	f.fetcher.AssertExpectations(t)
	f.llm.AssertExpectations(t)
}

func TestPredictADMET_ArchiveCarriesDepiction(t *testing.T) {
	f := newFixture(t, nil)
	report := sampleReport(t, "CCO")
	report.ImageDataURI = "data:image/svg+xml;base64,PHN2Zz4="

	f.fetcher.On("Fetch", mock.Anything, []string{"CCO"}).Return(report, nil)
	f.archive.On("PutReport", mock.Anything, mock.MatchedBy(func(r *minio.ReportUpload) bool {
		header := strings.SplitN(string(r.Data), "\n", 2)[0]
		return strings.HasSuffix(header, admet.ImageColumn) &&
			strings.Contains(string(r.Data), report.ImageDataURI)
	})).Return(&minio.StoredReport{ObjectKey: "k"}, nil).Once()
	f.llm.On("Complete", mock.Anything, mock.Anything).Return("fine")

	_, err := f.svc.PredictADMET(context.Background(), []string{"CCO"})
	require.NoError(t, err)
	f.archive.AssertExpectations(t)
}

func TestPredictADMET_FallbackWhenLLMEmpty(t *testing.T) {
	f := newFixture(t, nil)
	f.fetcher.On("Fetch", mock.Anything, []string{"CCO"}).Return(sampleReport(t, "CCO"), nil)
	f.archive.On("PutReport", mock.Anything, mock.Anything).Return(nil, errors.New("bucket gone"))
	f.llm.On("Complete", mock.Anything, mock.Anything).Return("")

	out, err := f.svc.PredictADMET(context.Background(), []string{"CCO"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "ADMET Predictions for CCO:\n\n"))
	assert.Contains(t, out, ": ok")
	assert.Equal(t, []string{"error"}, f.recorder.reports)
}

func TestPredictADMET_MultipleMoleculesAreSectioned(t *testing.T) {
	f := newFixture(t, nil)
	f.fetcher.On("Fetch", mock.Anything, []string{"CCO", "c1ccccc1"}).Return(sampleReport(t, "CCO", "c1ccccc1"), nil)
	f.archive.On("PutReport", mock.Anything, mock.Anything).Return(&minio.StoredReport{ObjectKey: "k"}, nil)
	f.llm.On("Complete", mock.Anything, mock.Anything).Return("")

	out, err := f.svc.PredictADMET(context.Background(), []string{"CCO", "c1ccccc1"})
	require.NoError(t, err)
	assert.Contains(t, out, "ADMET Predictions for CCO, c1ccccc1:")
	assert.Contains(t, out, "Molecule 1 (CCO):")
	assert.Contains(t, out, "Molecule 2 (c1ccccc1):")
}

func TestPredictADMET_FetchErrorPublishesFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.fetcher.On("Fetch", mock.Anything, mock.Anything).Return(nil, errors.New("chrome crashed"))

	_, err := f.svc.PredictADMET(context.Background(), []string{"CCO"})
	require.Error(t, err)
	assert.Equal(t, []recordedPrediction{{"admet_prediction", "error"}}, f.recorder.predictions)
	f.publisher.AssertCalled(t, "PublishEvent", mock.Anything, kafka.EventPredictionFailed, "",
		mock.MatchedBy(func(p kafka.PredictionPayload) bool { return strings.Contains(p.Error, "chrome crashed") }))
}

func TestPredictADMET_EmptyInput(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.PredictADMET(context.Background(), []string{" "})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeMoleculeInvalidSMILES))
	f.fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestPredictADMET_CachedSecondCall(t *testing.T) {
	f := newFixture(t, newCache(t))
	f.fetcher.On("Fetch", mock.Anything, []string{"CCO"}).Return(sampleReport(t, "CCO"), nil).Once()
	f.archive.On("PutReport", mock.Anything, mock.Anything).Return(&minio.StoredReport{ObjectKey: "k"}, nil).Once()
	f.llm.On("Complete", mock.Anything, mock.Anything).Return("explained")

	first, err := f.svc.PredictADMET(context.Background(), []string{"CCO"})
	require.NoError(t, err)
	second, err := f.svc.PredictADMET(context.Background(), []string{"CCO"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []bool{false, true}, f.recorder.cacheHits)
	f.fetcher.AssertNumberOfCalls(t, "Fetch", 1)
	f.archive.AssertNumberOfCalls(t, "PutReport", 1)
}

func TestPredictBindingAffinity_Explained(t *testing.T) {
	f := newFixture(t, nil)
	protein := strings.Repeat("MKT", 30)
	f.scorer.On("Score", mock.Anything, protein, []string{"CCO"}).
		Return([]affinity.Result{{NegLog10AffinityM: 6.5, AffinityUM: 0.3162}}, nil)
	f.llm.On("Complete", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, protein[:50]+"...") && strings.Contains(p, "Against 1 molecule(s)")
	})).Return("Moderate binder.")

	out, err := f.svc.PredictBindingAffinity(context.Background(), protein, []string{"CCO"})
	require.NoError(t, err)
	assert.Equal(t, "Binding Affinity Predictions for Protein-Ligand Interactions:\n\nModerate binder.", out)
}

func TestPredictBindingAffinity_PromptCarriesStrengthBands(t *testing.T) {
	f := newFixture(t, nil)
	f.scorer.On("Score", mock.Anything, "MKT", []string{"CCO", "CCN"}).
		Return([]affinity.Result{{NegLog10AffinityM: 7.2, AffinityUM: 0.063}, {NegLog10AffinityM: 4, AffinityUM: 100}}, nil)
	f.llm.On("Complete", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Molecule 1: strong binding (pKd 7.20)") &&
			strings.Contains(p, "Molecule 2: weak binding (pKd 4.00)")
	})).Return("Explained.").Once()

	out, err := f.svc.PredictBindingAffinity(context.Background(), "MKT", []string{"CCO", "CCN"})
	require.NoError(t, err)
	assert.Contains(t, out, "Explained.")
	f.llm.AssertExpectations(t)
}

func TestPredictBindingAffinity_Fallback(t *testing.T) {
	f := newFixture(t, nil)
	f.scorer.On("Score", mock.Anything, "MKT", []string{"CCO", "CCN"}).
		Return([]affinity.Result{{NegLog10AffinityM: 6.5, AffinityUM: 0.31623}, {NegLog10AffinityM: 4, AffinityUM: 100}}, nil)
	f.llm.On("Complete", mock.Anything, mock.Anything).Return("")

	out, err := f.svc.PredictBindingAffinity(context.Background(), "MKT", []string{"CCO", "CCN"})
	require.NoError(t, err)
	want := "Binding Affinity Predictions:\n\n" +
		"Molecule 1 (CCO):\n- pKd (neg_log10_affinity_M): 6.50\n- Affinity (µM): 0.3162\n\n" +
		"Molecule 2 (CCN):\n- pKd (neg_log10_affinity_M): 4.00\n- Affinity (µM): 100.0000\n\n"
	assert.Equal(t, want, out)
}

func TestPredictBindingAffinity_NoResults(t *testing.T) {
	f := newFixture(t, nil)
	f.scorer.On("Score", mock.Anything, "MKT", []string{"CCO"}).Return([]affinity.Result{}, nil)

	_, err := f.svc.PredictBindingAffinity(context.Background(), "MKT", []string{"CCO"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeNoPredictionResult))
}

func TestPredictBindingAffinity_MissingProtein(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.PredictBindingAffinity(context.Background(), "  ", []string{"CCO"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeProteinMissing))
}

func TestRun_FiltersInvalidAndDispatches(t *testing.T) {
	f := newFixture(t, nil)
	f.scorer.On("Score", mock.Anything, "MKT", []string{"CCO"}).
		Return([]affinity.Result{{NegLog10AffinityM: 5, AffinityUM: 10}}, nil)
	f.llm.On("Complete", mock.Anything, mock.Anything).Return("ok")

	_, err := f.svc.Run(context.Background(), Request{Task: TaskBindingAffinity, Protein: "MKT", SMILES: []string{"C((", "CCO"}})
	require.NoError(t, err)
	f.scorer.AssertExpectations(t)

	_, err = f.svc.Run(context.Background(), Request{Task: TaskADMET, SMILES: []string{"C(("}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeMoleculeInvalidSMILES))

	_, err = f.svc.Run(context.Background(), Request{Task: "toxicity", SMILES: []string{"CCO"}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeUnknownTask))
}

func TestCacheKey_DistinguishesInputs(t *testing.T) {
	a := cacheKey(TaskBindingAffinity, "MKT", []string{"CCO"})
	assert.True(t, strings.HasPrefix(a, "prediction:binding_affinity:"))
	assert.NotEqual(t, a, cacheKey(TaskBindingAffinity, "MKTA", []string{"CCO"}))
	assert.NotEqual(t, cacheKey(TaskADMET, "", []string{"CC", "O"}), cacheKey(TaskADMET, "", []string{"CCO"}))
}

func TestTruncateProtein(t *testing.T) {
	assert.Equal(t, "MKT", TruncateProtein("MKT", 3))
	assert.Equal(t, "MK...", TruncateProtein("MKT", 2))
	assert.Equal(t, "ééé...", TruncateProtein("éééé", 3))
	assert.True(t, utf8.ValidString(TruncateProtein(strings.Repeat("ü", 60), displayProteinLength)))
}

//Personal.AI order the ending
