// Package conversation turns inbound chat messages into replies. The Router
// classifies a message as an ADMET request, a binding-affinity request or
// free-form chat and dispatches it; the Service wraps the router with chat
// persistence, events and summaries.
package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/application/prediction"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/domain/session"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/logging"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/intelligence/chem"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/intelligence/llm"
)

// Fixed replies.
const (
	NoProteinReply       = "No protein sequence found. Please provide a valid protein sequence for binding affinity prediction."
	NoBindingSMILESReply = "No valid SMILES string found. Please provide a valid SMILES string for binding affinity prediction."
	NoADMETSMILESReply   = "No valid SMILES strings found. Please provide valid SMILES strings."
	ChatFallbackReply    = "I apologize, but I couldn't generate a response. Please try again."
)

// proteinDisplayLength bounds the protein echoed back in a binding reply.
const proteinDisplayLength = 30

// Intent names used for metrics.
const (
	IntentChat = "chat"
)

// Intent outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
	OutcomeFallback = "fallback"
)

// ADMETPredictor runs the ADMET model on a batch of SMILES strings.
type ADMETPredictor interface {
	PredictADMET(ctx context.Context, smiles []string) (string, error)
}

// AffinityPredictor scores binding affinity between a protein and ligands.
type AffinityPredictor interface {
	PredictBindingAffinity(ctx context.Context, protein string, smiles []string) (string, error)
}

// Extractor pulls structured inputs out of a free-text message.
type Extractor interface {
	ExtractSMILES(ctx context.Context, message string) llm.SMILESResult
	ExtractBinding(ctx context.Context, message string) llm.BindingResult
}

// Responder answers free-form chat given the prior turns.
type Responder interface {
	Respond(ctx context.Context, history []session.Turn, message string) string
}

// IntentRecorder counts routed messages by intent and outcome.
type IntentRecorder interface {
	RecordIntent(intent, outcome string)
}

// RouterDeps wires a Router. Validator, Metrics and Logger are optional.
type RouterDeps struct {
	ADMET     ADMETPredictor
	Affinity  AffinityPredictor
	Extractor Extractor
	Responder Responder
	Validator chem.Validator
	Metrics   IntentRecorder
	Logger    logging.Logger
}

// Router classifies and dispatches one message at a time. It never returns an
// error: every failure is turned into a reply.
type Router struct {
	admet     ADMETPredictor
	affinity  AffinityPredictor
	extractor Extractor
	responder Responder
	validator chem.Validator
	metrics   IntentRecorder
	logger    logging.Logger
}

// NewRouter builds a Router, defaulting the validator and logger.
func NewRouter(d RouterDeps) *Router {
	r := &Router{
		admet:     d.ADMET,
		affinity:  d.Affinity,
		extractor: d.Extractor,
		responder: d.Responder,
		validator: d.Validator,
		metrics:   d.Metrics,
		logger:    d.Logger,
	}
	if r.validator == nil {
		r.validator = chem.NewValidator()
	}
	if r.logger == nil {
		r.logger = logging.NewNopLogger()
	}
	r.logger = r.logger.Named("router")
	return r
}

// Handle records the user turn, routes the message and records the reply as
// an assistant turn. The returned parameter delta is always empty.
func (r *Router) Handle(ctx context.Context, message string, sess *session.Session, mlActivated bool) (string, map[string]session.Value) {
	prior := sess.History()
	sess.AddMessage(session.Turn{Role: session.RoleUser, Content: message})
	sess.SetMLActivation(mlActivated)

	var reply string
	switch task, ok := detectTask(message); {
	case ok && task == prediction.TaskBindingAffinity:
		reply = r.handleBinding(ctx, message, sess)
	case ok && task == prediction.TaskADMET:
		reply = r.handleADMET(ctx, message, sess)
	default:
		reply = r.handleChat(ctx, prior, message)
	}

	sess.AddMessage(session.Turn{Role: session.RoleAssistant, Content: reply})
	return reply, map[string]session.Value{}
}

// detectTask returns the first task whose marker appears in message.
func detectTask(message string) (prediction.Task, bool) {
	lower := strings.ToLower(message)
	for _, t := range prediction.Tasks() {
		if strings.Contains(lower, t.Marker()) {
			return t, true
		}
	}
	return "", false
}

func (r *Router) handleBinding(ctx context.Context, message string, sess *session.Session) string {
	task := prediction.TaskBindingAffinity
	extracted := r.extractor.ExtractBinding(ctx, message)

	smiles := extracted.SMILES
	if smiles != "" && !r.validator.IsValid(smiles) {
		r.logger.Debug("discarding invalid smiles", logging.String("smiles", smiles))
		smiles = ""
	}
	protein := extracted.ProteinSequence

	if protein == "" {
		r.record(string(task), OutcomeRejected)
		return NoProteinReply
	}
	if smiles == "" {
		r.record(string(task), OutcomeRejected)
		return NoBindingSMILESReply
	}

	molecules := []string{smiles}
	result, err := guard(func() (string, error) {
		return r.affinity.PredictBindingAffinity(ctx, protein, molecules)
	})
	if err != nil {
		return r.failed(task, err)
	}
	r.succeeded(task, molecules, result, sess)

	display := prediction.TruncateProtein(protein, proteinDisplayLength)
	return fmt.Sprintf("%s Results:\nProtein: %s\nSMILES: %s\nPrediction: %s", task.Label(), display, smiles, result)
}

func (r *Router) handleADMET(ctx context.Context, message string, sess *session.Session) string {
	task := prediction.TaskADMET
	extracted := r.extractor.ExtractSMILES(ctx, message)

	molecules := chem.FilterValid(r.validator, extracted.SMILES)
	if len(molecules) == 0 {
		r.record(string(task), OutcomeRejected)
		return NoADMETSMILESReply
	}

	result, err := guard(func() (string, error) {
		return r.admet.PredictADMET(ctx, molecules)
	})
	if err != nil {
		return r.failed(task, err)
	}
	r.succeeded(task, molecules, result, sess)

	return fmt.Sprintf("%s Results:\nSMILES: %s\nPrediction: %s", task.Label(), strings.Join(molecules, ", "), result)
}

func (r *Router) handleChat(ctx context.Context, prior []session.Turn, message string) string {
	text := r.responder.Respond(ctx, prior, message)
	if text == "" {
		r.record(IntentChat, OutcomeFallback)
		return ChatFallbackReply
	}
	r.record(IntentChat, OutcomeOK)
	return text
}

func (r *Router) succeeded(task prediction.Task, molecules []string, result string, sess *session.Session) {
	sess.RecordPrediction(session.PredictionRecord{
		Task:   string(task),
		SMILES: molecules,
		Result: result,
	})
	r.record(string(task), OutcomeOK)
}

func (r *Router) failed(task prediction.Task, err error) string {
	r.logger.Warn("prediction model failed", logging.Task(string(task)), logging.Err(err))
	r.record(string(task), OutcomeError)
	return fmt.Sprintf("Error running %s model: %s", task.Label(), err.Error())
}

func (r *Router) record(intent, outcome string) {
	if r.metrics != nil {
		r.metrics.RecordIntent(intent, outcome)
	}
}

// guard runs fn and converts a panic into an error.
func guard(fn func() (string, error)) (result string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%v", p)
		}
	}()
	return fn()
}

//Personal.AI order the ending
