package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/application/prediction"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/config"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/messaging/kafka"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/logging"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/storage/minio"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/pkg/errors"
)

type mockPredictor struct {
	mock.Mock
}

func (m *mockPredictor) PredictADMET(ctx context.Context, smiles []string) (string, error) {
	args := m.Called(ctx, smiles)
	return args.String(0), args.Error(1)
}

func (m *mockPredictor) PredictBindingAffinity(ctx context.Context, protein string, smiles []string) (string, error) {
	args := m.Called(ctx, protein, smiles)
	return args.String(0), args.Error(1)
}

func (m *mockPredictor) Run(ctx context.Context, req prediction.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func usePredictor(t *testing.T, svc prediction.Service, err error) *bool {
	t.Helper()
	cleaned := false
	orig := predictorFactory
	predictorFactory = func(*config.Config, logging.Logger) (prediction.Service, func(), error) {
		if err != nil {
			return nil, nil, err
		}
		return svc, func() { cleaned = true }, nil
	}
	t.Cleanup(func() { predictorFactory = orig })
	return &cleaned
}

func TestPredictCommand_Binding(t *testing.T) {
	p := new(mockPredictor)
	p.On("Run", mock.Anything, prediction.Request{
		Task:    prediction.TaskBindingAffinity,
		Protein: "MKTAYIAK",
		SMILES:  []string{"CCO", "CCN"},
	}).Return("Binding Affinity Prediction Results:", nil)
	cleaned := usePredictor(t, p, nil)

	out, err := executeCommand(t, "predict", "binding", "--protein", "MKTAYIAK", "CCO", "CCN")
	require.NoError(t, err)
	assert.Equal(t, "Binding Affinity Prediction Results:\n", out)
	assert.True(t, *cleaned)
	p.AssertExpectations(t)
}

func TestPredictCommand_UnknownTask(t *testing.T) {
	usePredictor(t, new(mockPredictor), nil)

	_, err := executeCommand(t, "predict", "toxicity", "CCO")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownTask))
}

func TestPredictCommand_FactoryError(t *testing.T) {
	usePredictor(t, nil, errors.New(errors.ErrCodeValidation, "llm api key is required"))

	_, err := executeCommand(t, "predict", "admet", "CCO")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm api key is required")
}

func TestMCPCommand_FactoryError(t *testing.T) {
	usePredictor(t, nil, errors.New(errors.ErrCodeValidation, "llm api key is required"))

	_, err := executeCommand(t, "mcp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm api key is required")
}

func TestValidateCommand(t *testing.T) {
	out, err := executeCommand(t, "validate", "CCO", "c1ccccc1")
	require.NoError(t, err)
	assert.Equal(t, "CCO: valid\nc1ccccc1: valid\n", out)

	out, err = executeCommand(t, "validate", "CCO", "C1CC")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Contains(t, out, "C1CC: invalid (")
	assert.Contains(t, err.Error(), "1 of 2")
}

func TestValidateCommand_JSON(t *testing.T) {
	out, err := executeCommand(t, "-o", "json", "validate", "CCO")
	require.NoError(t, err)

	var results []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "CCO", results[0]["smiles"])
	assert.Equal(t, true, results[0]["is_valid"])
}

type fakeMigrator struct {
	upErr     error
	downSteps int
	version   uint
	dirty     bool
}

func (f *fakeMigrator) Up() error            { return f.upErr }
func (f *fakeMigrator) Down(steps int) error { f.downSteps = steps; return nil }
func (f *fakeMigrator) Status() (uint, bool, error) {
	return f.version, f.dirty, nil
}

func useMigrator(t *testing.T, m *fakeMigrator) {
	t.Helper()
	orig := migrator
	migrator = func(*config.Config) Migrator { return m }
	t.Cleanup(func() { migrator = orig })
}

func TestMigrateCommands(t *testing.T) {
	m := &fakeMigrator{version: 3, dirty: true}
	useMigrator(t, m)

	out, err := executeCommand(t, "migrate", "up")
	require.NoError(t, err)
	assert.Equal(t, "OK: migrations applied\n", out)

	out, err = executeCommand(t, "migrate", "down", "--steps", "2")
	require.NoError(t, err)
	assert.Equal(t, 2, m.downSteps)
	assert.Contains(t, out, "rolled back 2")

	out, err = executeCommand(t, "migrate", "status")
	require.NoError(t, err)
	assert.Equal(t, "version 3 (dirty)\n", out)
}

func TestMigrateUp_Error(t *testing.T) {
	useMigrator(t, &fakeMigrator{upErr: errors.New(errors.ErrCodeDatabaseError, "boom")})

	_, err := executeCommand(t, "migrate", "up")
	assert.Error(t, err)
}

func TestMigrationStatus_String(t *testing.T) {
	assert.Equal(t, "no migrations applied", migrationStatus{}.String())
	assert.Equal(t, "version 2", migrationStatus{Version: 2}.String())
}

func TestEnvelopePrinter(t *testing.T) {
	env, err := kafka.NewEventEnvelope(kafka.EventChatCreated, kafka.EventSource, kafka.ChatCreatedPayload{ChatID: "c1", Username: "ana"})
	require.NoError(t, err)
	value, err := json.Marshal(env)
	require.NoError(t, err)

	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.WithValue(context.Background(), cliContextKey{}, &CLIContext{OutputFormat: "text"}))

	handler := envelopePrinter(cmd, logging.NewNopLogger())
	require.NoError(t, handler(context.Background(), &kafka.Message{Topic: kafka.TopicChatEvents, Value: value}))
	assert.Contains(t, out.String(), kafka.EventChatCreated)
	assert.Contains(t, out.String(), kafka.TopicChatEvents)
	assert.Contains(t, out.String(), `"chat_id":"c1"`)

	out.Reset()
	require.NoError(t, handler(context.Background(), &kafka.Message{Topic: kafka.TopicChatEvents, Value: []byte("not json")}))
	assert.Empty(t, out.String())
}

type mockReportStore struct {
	mock.Mock
}

func (m *mockReportStore) PutReport(ctx context.Context, req *minio.ReportUpload) (*minio.StoredReport, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*minio.StoredReport), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReportStore) GetReport(ctx context.Context, objectKey string) ([]byte, error) {
	args := m.Called(ctx, objectKey)
	if b := args.Get(0); b != nil {
		return b.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReportStore) PresignReport(ctx context.Context, objectKey string) (string, error) {
	args := m.Called(ctx, objectKey)
	return args.String(0), args.Error(1)
}

func useReportStore(t *testing.T, store minio.ReportStore) *bool {
	t.Helper()
	cleaned := false
	orig := reportStoreFactory
	reportStoreFactory = func(*config.Config, logging.Logger) (minio.ReportStore, func(), error) {
		return store, func() { cleaned = true }, nil
	}
	t.Cleanup(func() { reportStoreFactory = orig })
	return &cleaned
}

const reportKey = "admet_prediction/2026/10/19/abc.csv"

func TestReportGet_Stdout(t *testing.T) {
	store := new(mockReportStore)
	store.On("GetReport", mock.Anything, reportKey).Return([]byte("Molecule,MW\nMolecule 1,46.07\n"), nil)
	cleaned := useReportStore(t, store)

	out, err := executeCommand(t, "report", "get", reportKey)
	require.NoError(t, err)
	assert.Equal(t, "Molecule,MW\nMolecule 1,46.07\n", out)
	assert.True(t, *cleaned)
	store.AssertExpectations(t)
}

func TestReportGet_OutFile(t *testing.T) {
	store := new(mockReportStore)
	store.On("GetReport", mock.Anything, reportKey).Return([]byte("a,b\n"), nil)
	useReportStore(t, store)
	path := filepath.Join(t.TempDir(), "report.csv")

	out, err := executeCommand(t, "report", "get", reportKey, "--out", path)
	require.NoError(t, err)
	assert.Empty(t, out)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))
}

func TestReportGet_NotFound(t *testing.T) {
	store := new(mockReportStore)
	store.On("GetReport", mock.Anything, "missing.csv").Return(nil, minio.ErrObjectNotFound)
	useReportStore(t, store)

	_, err := executeCommand(t, "report", "get", "missing.csv")
	require.Error(t, err)
	assert.ErrorIs(t, err, minio.ErrObjectNotFound)
}

func TestReportURL(t *testing.T) {
	store := new(mockReportStore)
	store.On("PresignReport", mock.Anything, reportKey).Return("http://minio:9000/narcos-reports/"+reportKey+"?X-Amz-Signature=x", nil)
	useReportStore(t, store)

	out, err := executeCommand(t, "report", "url", reportKey)
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000/narcos-reports/"+reportKey+"?X-Amz-Signature=x\n", out)
}

func TestNewReportStore_DisabledArchive(t *testing.T) {
	_, _, err := newReportStore(config.NewDefaultConfig(), logging.NewNopLogger())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeFeatureDisabled))
}

//Personal.AI order the ending
