package prediction

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/messaging/kafka"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/logging"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/storage/minio"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/intelligence/admet"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/intelligence/affinity"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/intelligence/chem"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/intelligence/prompt"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/pkg/errors"
)

// DefaultCacheTTL applies when Deps.CacheTTL is zero.
const DefaultCacheTTL = 24 * time.Hour

// displayProteinLength bounds the protein shown in the explanation prompt.
const displayProteinLength = 50

// Service runs predictions and explains them.
type Service interface {
	PredictADMET(ctx context.Context, smiles []string) (string, error)
	PredictBindingAffinity(ctx context.Context, protein string, smiles []string) (string, error)
	Run(ctx context.Context, req Request) (string, error)
}

// Request is a task-addressed prediction call, as issued by the CLI and MCP tools.
type Request struct {
	Task    Task
	Protein string
	SMILES  []string
}

// Completer produces free text from a prompt. An empty string means no answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) string
}

// PromptRenderer renders a named template.
type PromptRenderer interface {
	Render(name string, data interface{}) (string, error)
}

// ResultCache stores raw model output. redis.Cache satisfies it.
type ResultCache interface {
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error
}

// ReportArchive keeps raw reports. minio.ReportStore satisfies it.
type ReportArchive interface {
	PutReport(ctx context.Context, req *minio.ReportUpload) (*minio.StoredReport, error)
}

// Recorder receives prediction metrics.
type Recorder interface {
	RecordPrediction(task, status string, d time.Duration)
	RecordPredictionCache(task string, hit bool)
	RecordReportStored(status string)
}

// Deps wires the service. ADMET, Affinity, LLM and Prompts are required.
type Deps struct {
	ADMET     admet.Fetcher
	Affinity  affinity.Scorer
	LLM       Completer
	Prompts   PromptRenderer
	Validator chem.Validator
	Cache     ResultCache
	CacheTTL  time.Duration
	Reports   ReportArchive
	Events    kafka.EventPublisher
	Metrics   Recorder
	Logger    logging.Logger
}

type serviceImpl struct {
	admet     admet.Fetcher
	affinity  affinity.Scorer
	llm       Completer
	prompts   PromptRenderer
	validator chem.Validator
	cache     ResultCache
	cacheTTL  time.Duration
	reports   ReportArchive
	events    kafka.EventPublisher
	metrics   Recorder
	logger    logging.Logger
}

// NewService validates deps and fills the optional ones.
func NewService(d Deps) (Service, error) {
	if d.ADMET == nil || d.Affinity == nil || d.LLM == nil || d.Prompts == nil {
		return nil, errors.New(errors.ErrCodeInternal, "prediction service requires ADMET, Affinity, LLM and Prompts")
	}
	s := &serviceImpl{
		admet:     d.ADMET,
		affinity:  d.Affinity,
		llm:       d.LLM,
		prompts:   d.Prompts,
		validator: d.Validator,
		cache:     d.Cache,
		cacheTTL:  d.CacheTTL,
		reports:   d.Reports,
		events:    d.Events,
		metrics:   d.Metrics,
		logger:    d.Logger,
	}
	if s.validator == nil {
		s.validator = chem.NewValidator()
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = DefaultCacheTTL
	}
	if s.events == nil {
		s.events = kafka.NoopPublisher{}
	}
	if s.logger == nil {
		s.logger = logging.NewNopLogger()
	}
	s.logger = s.logger.Named("prediction")
	return s, nil
}

// admetResult is the cached form of one SwissADME run.
type admetResult struct {
	Molecules []admetMolecule `json:"molecules"`
	ReportKey string          `json:"report_key,omitempty"`
}

type admetMolecule struct {
	SMILES      string             `json:"smiles"`
	Predictions []admet.Prediction `json:"predictions"`
}

// affinityResult is the cached form of one scoring call.
type affinityResult struct {
	Results []affinity.Result `json:"results"`
}

func (s *serviceImpl) PredictADMET(ctx context.Context, smiles []string) (out string, err error) {
	smiles = trimAll(smiles)
	if len(smiles) == 0 {
		return "", errors.New(errors.ErrCodeMoleculeInvalidSMILES, "no valid SMILES strings provided for prediction")
	}

	start := time.Now()
	var (
		res    admetResult
		cached bool
	)
	defer func() { s.finish(ctx, TaskADMET, smiles, cached, res.ReportKey, start, err) }()

	cached, err = s.load(ctx, TaskADMET, cacheKey(TaskADMET, "", smiles), &res, func(ctx context.Context) (interface{}, error) {
		return s.runADMET(ctx, smiles)
	})
	if err != nil {
		return "", err
	}
	if len(res.Molecules) == 0 {
		err = errors.New(errors.ErrCodeNoPredictionResult, "Failed to generate ADMET predictions")
		return "", err
	}
	return s.explainADMET(ctx, smiles, res.Molecules), nil
}

func (s *serviceImpl) runADMET(ctx context.Context, smiles []string) (*admetResult, error) {
	report, err := s.admet.Fetch(ctx, smiles)
	if err != nil {
		return nil, err
	}
	res := &admetResult{Molecules: make([]admetMolecule, 0, len(report.Rows))}
	for i := range report.Rows {
		preds, err := report.KeyPredictions(i)
		if err != nil {
			return nil, err
		}
		res.Molecules = append(res.Molecules, admetMolecule{SMILES: report.MoleculeSMILES(i), Predictions: preds})
	}
	raw, err := report.ArchiveCSV()
	if err != nil {
		s.logger.Warn("admet archive encode failed", logging.Err(err))
		raw = report.Raw
	}
	res.ReportKey = s.archive(ctx, TaskADMET, raw)
	return res, nil
}

// archive stores the raw report and returns its key. Failures only cost the archive copy.
func (s *serviceImpl) archive(ctx context.Context, task Task, raw []byte) string {
	if s.reports == nil || len(raw) == 0 {
		return ""
	}
	stored, err := s.reports.PutReport(ctx, &minio.ReportUpload{
		Task:        string(task),
		ChatID:      ChatIDFrom(ctx),
		Data:        raw,
		ContentType: "text/csv",
	})
	if err != nil {
		s.recordReport("error")
		s.logger.Warn("report archive failed", logging.Task(string(task)), logging.Err(err))
		return ""
	}
	s.recordReport("ok")
	return stored.ObjectKey
}

func (s *serviceImpl) explainADMET(ctx context.Context, smiles []string, molecules []admetMolecule) string {
	smilesText := strings.Join(smiles, ", ")
	predText := formatADMET(molecules)

	text, err := s.prompts.Render(prompt.ADMETExplanation, map[string]interface{}{
		"SMILES":      smilesText,
		"Predictions": predText,
	})
	if err == nil {
		if explanation := strings.TrimSpace(s.llm.Complete(ctx, text)); explanation != "" {
			return explanation
		}
	} else {
		s.logger.Warn("admet explanation prompt failed", logging.Err(err))
	}
	return fmt.Sprintf("ADMET Predictions for %s:\n\n%s", smilesText, predText)
}

// formatADMET renders one molecule as plain "name: value" lines and several as
// headed sections.
func formatADMET(molecules []admetMolecule) string {
	if len(molecules) == 1 {
		return admet.FormatPredictions(molecules[0].Predictions)
	}
	sections := make([]string, len(molecules))
	for i, m := range molecules {
		sections[i] = fmt.Sprintf("Molecule %d (%s):\n%s", i+1, m.SMILES, admet.FormatPredictions(m.Predictions))
	}
	return strings.Join(sections, "\n\n")
}

func (s *serviceImpl) PredictBindingAffinity(ctx context.Context, protein string, smiles []string) (out string, err error) {
	protein = strings.TrimSpace(protein)
	smiles = trimAll(smiles)
	if len(smiles) == 0 {
		return "", errors.New(errors.ErrCodeMoleculeInvalidSMILES, "no valid SMILES strings provided for prediction")
	}
	if protein == "" {
		return "", errors.New(errors.ErrCodeProteinMissing, "no protein sequence provided for binding affinity prediction")
	}

	start := time.Now()
	var (
		res    affinityResult
		cached bool
	)
	defer func() { s.finish(ctx, TaskBindingAffinity, smiles, cached, "", start, err) }()

	cached, err = s.load(ctx, TaskBindingAffinity, cacheKey(TaskBindingAffinity, protein, smiles), &res, func(ctx context.Context) (interface{}, error) {
		results, err := s.affinity.Score(ctx, protein, smiles)
		if err != nil {
			return nil, err
		}
		return &affinityResult{Results: results}, nil
	})
	if err != nil {
		return "", err
	}
	if len(res.Results) == 0 {
		err = errors.New(errors.ErrCodeNoPredictionResult, "Failed to generate binding affinity predictions")
		return "", err
	}
	return s.explainAffinity(ctx, protein, smiles, res.Results), nil
}

func (s *serviceImpl) explainAffinity(ctx context.Context, protein string, smiles []string, results []affinity.Result) string {
	predText := FormatAffinity(smiles, results)

	display := TruncateProtein(protein, displayProteinLength)
	text, err := s.prompts.Render(prompt.AffinityExplanation, map[string]interface{}{
		"Protein":     display,
		"Count":       len(results),
		"Predictions": predText,
		"Strengths":   formatBands(results),
	})
	if err == nil {
		if explanation := strings.TrimSpace(s.llm.Complete(ctx, text)); explanation != "" {
			return "Binding Affinity Predictions for Protein-Ligand Interactions:\n\n" + explanation
		}
	} else {
		s.logger.Warn("affinity explanation prompt failed", logging.Err(err))
	}
	return "Binding Affinity Predictions:\n\n" + predText
}

// formatBands lists the qualitative binding strength of each molecule.
func formatBands(results []affinity.Result) string {
	lines := make([]string, len(results))
	for i, r := range results {
		lines[i] = fmt.Sprintf("Molecule %d: %s binding (pKd %.2f)", i+1, r.Band(), r.NegLog10AffinityM)
	}
	return strings.Join(lines, "\n")
}

// TruncateProtein shortens protein to n characters, adding "..." when cut.
func TruncateProtein(protein string, n int) string {
	if utf8.RuneCountInString(protein) <= n {
		return protein
	}
	return string([]rune(protein)[:n]) + "..."
}

// FormatAffinity renders scored molecules in submission order.
func FormatAffinity(smiles []string, results []affinity.Result) string {
	var b strings.Builder
	for i, r := range results {
		molecule := ""
		if i < len(smiles) {
			molecule = smiles[i]
		}
		fmt.Fprintf(&b, "Molecule %d (%s):\n", i+1, molecule)
		fmt.Fprintf(&b, "- pKd (neg_log10_affinity_M): %.2f\n", r.NegLog10AffinityM)
		fmt.Fprintf(&b, "- Affinity (µM): %.4f\n\n", r.AffinityUM)
	}
	return b.String()
}

func (s *serviceImpl) Run(ctx context.Context, req Request) (string, error) {
	valid := chem.FilterValid(s.validator, trimAll(req.SMILES))
	if len(valid) == 0 {
		return "", errors.New(errors.ErrCodeMoleculeInvalidSMILES, "no valid SMILES strings provided for prediction")
	}
	switch req.Task {
	case TaskADMET:
		return s.PredictADMET(ctx, valid)
	case TaskBindingAffinity:
		return s.PredictBindingAffinity(ctx, req.Protein, valid)
	default:
		return "", errors.Newf(errors.ErrCodeUnknownTask, "unknown task %q", req.Task)
	}
}

// load reads through the cache when one is configured and reports whether the value was cached.
func (s *serviceImpl) load(ctx context.Context, task Task, key string, dest interface{}, loader func(context.Context) (interface{}, error)) (bool, error) {
	if s.cache == nil {
		v, err := loader(ctx)
		if err != nil {
			return false, err
		}
		return false, assign(dest, v)
	}

	called := false
	err := s.cache.GetOrSet(ctx, key, dest, s.cacheTTL, func(ctx context.Context) (interface{}, error) {
		called = true
		return loader(ctx)
	})
	if err != nil {
		return false, err
	}
	if s.metrics != nil {
		s.metrics.RecordPredictionCache(string(task), !called)
	}
	return !called, nil
}

func assign(dest, v interface{}) error {
	switch d := dest.(type) {
	case *admetResult:
		*d = *v.(*admetResult)
	case *affinityResult:
		*d = *v.(*affinityResult)
	default:
		return errors.Newf(errors.ErrCodeInternal, "unsupported result type %T", dest)
	}
	return nil
}

func (s *serviceImpl) finish(ctx context.Context, task Task, smiles []string, cached bool, reportKey string, start time.Time, err error) {
	elapsed := time.Since(start)
	status := "ok"
	if err != nil {
		status = "error"
	}
	if s.metrics != nil {
		s.metrics.RecordPrediction(string(task), status, elapsed)
	}

	payload := kafka.PredictionPayload{
		ChatID:     ChatIDFrom(ctx),
		Task:       string(task),
		SMILES:     smiles,
		Cached:     cached,
		ReportKey:  reportKey,
		DurationMs: elapsed.Milliseconds(),
	}
	eventType := kafka.EventPredictionCompleted
	if err != nil {
		eventType = kafka.EventPredictionFailed
		payload.Error = err.Error()
		s.logger.Warn("prediction failed", logging.Task(string(task)), logging.Duration("elapsed", elapsed), logging.Err(err))
	} else {
		s.logger.Info("prediction completed",
			logging.Task(string(task)),
			logging.Int("molecules", len(smiles)),
			logging.Bool("cached", cached),
			logging.Duration("elapsed", elapsed))
	}
	if pubErr := s.events.PublishEvent(ctx, eventType, payload.ChatID, payload); pubErr != nil {
		s.logger.Debug("prediction event dropped", logging.Err(pubErr))
	}
}

func (s *serviceImpl) recordReport(status string) {
	if s.metrics != nil {
		s.metrics.RecordReportStored(status)
	}
}

// cacheKey hashes the task inputs so that long proteins stay out of redis keys.
func cacheKey(task Task, protein string, smiles []string) string {
	h := sha256.New()
	h.Write([]byte(protein))
	for _, s := range smiles {
		h.Write([]byte{0})
		h.Write([]byte(s))
	}
	return "prediction:" + string(task) + ":" + hex.EncodeToString(h.Sum(nil))
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

//Personal.AI order the ending
