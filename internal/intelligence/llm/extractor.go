package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/logging"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/intelligence/prompt"
)

// Failure classifies why an extraction produced no fields.
type Failure int

const (
	FailureNone Failure = iota
	FailureEmptyResponse
	FailureNotJSON
	FailureSchemaMismatch
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureEmptyResponse:
		return "empty_response"
	case FailureNotJSON:
		return "not_json"
	case FailureSchemaMismatch:
		return "schema_mismatch"
	default:
		return "unknown"
	}
}

// SMILESResult is the outcome of ExtractSMILES. SMILES is empty whenever
// Failure is not FailureNone.
type SMILESResult struct {
	SMILES  []string
	Failure Failure
}

// BindingResult is the outcome of ExtractBinding. Both fields are empty
// whenever Failure is not FailureNone.
type BindingResult struct {
	ProteinSequence string
	SMILES          string
	Failure         Failure
}

// Completer produces a single completion, "" on failure.
type Completer interface {
	Complete(ctx context.Context, prompt string) string
}

// FailureRecorder counts extraction failures by kind.
type FailureRecorder interface {
	RecordExtractionFailure(kind string)
}

// Extractor asks the model for structured fields and parses the reply
// strictly: one JSON object, optionally inside a single code fence, with no
// unknown fields and nothing after it.
type Extractor struct {
	llm      Completer
	prompts  PromptRenderer
	logger   logging.Logger
	recorder FailureRecorder
}

// NewExtractor wires an Extractor. recorder may be nil.
func NewExtractor(llm Completer, prompts PromptRenderer, logger logging.Logger, recorder FailureRecorder) *Extractor {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Extractor{llm: llm, prompts: prompts, logger: logger.Named("extractor"), recorder: recorder}
}

type smilesPayload struct {
	SMILES *[]string `json:"smiles"`
}

type bindingPayload struct {
	ProteinSequence *string `json:"protein_sequence"`
	SMILES          *string `json:"smiles"`
}

// ExtractSMILES pulls a list of SMILES strings out of message.
func (e *Extractor) ExtractSMILES(ctx context.Context, message string) SMILESResult {
	reply, ok := e.ask(ctx, prompt.SMILESExtraction, message)
	if !ok {
		return e.failSMILES(FailureEmptyResponse)
	}

	var p smilesPayload
	if f := ParseStrict(reply, &p); f != FailureNone {
		return e.failSMILES(f)
	}
	if p.SMILES == nil {
		return e.failSMILES(FailureSchemaMismatch)
	}

	out := make([]string, 0, len(*p.SMILES))
	for _, s := range *p.SMILES {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return SMILESResult{SMILES: out}
}

// ExtractBinding pulls a protein sequence and one SMILES string out of message.
func (e *Extractor) ExtractBinding(ctx context.Context, message string) BindingResult {
	reply, ok := e.ask(ctx, prompt.BindingExtraction, message)
	if !ok {
		return e.failBinding(FailureEmptyResponse)
	}

	var p bindingPayload
	if f := ParseStrict(reply, &p); f != FailureNone {
		return e.failBinding(f)
	}
	// An absent key means that input was not found in the message.
	return BindingResult{
		ProteinSequence: trimmed(p.ProteinSequence),
		SMILES:          trimmed(p.SMILES),
	}
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func (e *Extractor) ask(ctx context.Context, tmpl, message string) (string, bool) {
	text, err := e.prompts.Render(tmpl, map[string]string{"Message": message})
	if err != nil {
		e.logger.Error("render extraction prompt", logging.String("template", tmpl), logging.Err(err))
		return "", false
	}
	reply := e.llm.Complete(ctx, text)
	return reply, strings.TrimSpace(reply) != ""
}

func (e *Extractor) failSMILES(f Failure) SMILESResult {
	e.record("smiles", f)
	return SMILESResult{Failure: f}
}

func (e *Extractor) failBinding(f Failure) BindingResult {
	e.record("binding", f)
	return BindingResult{Failure: f}
}

func (e *Extractor) record(kind string, f Failure) {
	e.logger.Debug("extraction failed", logging.String("kind", kind), logging.String("failure", f.String()))
	if e.recorder != nil {
		e.recorder.RecordExtractionFailure(f.String())
	}
}

// ParseStrict decodes text into out, which must point to a struct.
func ParseStrict(text string, out interface{}) Failure {
	text = strings.TrimSpace(text)
	if text == "" {
		return FailureEmptyResponse
	}

	body, ok := stripCodeFence(text)
	if !ok {
		return FailureNotJSON
	}
	raw := []byte(body)
	if !json.Valid(raw) {
		return FailureNotJSON
	}
	if !bytes.HasPrefix(raw, []byte("{")) {
		return FailureSchemaMismatch
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return FailureSchemaMismatch
	}
	return FailureNone
}

// stripCodeFence removes one surrounding ``` fence (with optional language
// tag). Text without a fence is returned unchanged.
func stripCodeFence(text string) (string, bool) {
	if !strings.HasPrefix(text, "```") {
		return text, true
	}
	nl := strings.IndexByte(text, '\n')
	if nl < 0 || !strings.HasSuffix(text, "```") || len(text) < nl+4 {
		return "", false
	}
	inner := text[nl+1 : len(text)-3]
	if strings.Contains(inner, "```") {
		return "", false
	}
	return strings.TrimSpace(inner), true
}

//Personal.AI order the ending
