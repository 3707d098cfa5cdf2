package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/domain/session"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/intelligence/llm"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/intelligence/prompt"
)

type mockPredictor struct{ mock.Mock }

func (m *mockPredictor) PredictADMET(ctx context.Context, smiles []string) (string, error) {
	args := m.Called(ctx, smiles)
	return args.String(0), args.Error(1)
}

func (m *mockPredictor) PredictBindingAffinity(ctx context.Context, protein string, smiles []string) (string, error) {
	args := m.Called(ctx, protein, smiles)
	return args.String(0), args.Error(1)
}

type mockExtractor struct{ mock.Mock }

func (m *mockExtractor) ExtractSMILES(ctx context.Context, message string) llm.SMILESResult {
	return m.Called(ctx, message).Get(0).(llm.SMILESResult)
}

func (m *mockExtractor) ExtractBinding(ctx context.Context, message string) llm.BindingResult {
	return m.Called(ctx, message).Get(0).(llm.BindingResult)
}

type mockResponder struct{ mock.Mock }

func (m *mockResponder) Respond(ctx context.Context, history []session.Turn, message string) string {
	return m.Called(ctx, history, message).String(0)
}

type intentCall struct{ intent, outcome string }

type fakeIntents struct{ calls []intentCall }

func (f *fakeIntents) RecordIntent(intent, outcome string) {
	f.calls = append(f.calls, intentCall{intent, outcome})
}

type RouterTestSuite struct {
	suite.Suite
	predictor *mockPredictor
	extractor *mockExtractor
	responder *mockResponder
	intents   *fakeIntents
	router    *Router
	sess      *session.Session
	ctx       context.Context
}

func (s *RouterTestSuite) SetupTest() {
	s.predictor = new(mockPredictor)
	s.extractor = new(mockExtractor)
	s.responder = new(mockResponder)
	s.intents = &fakeIntents{}
	s.router = NewRouter(RouterDeps{
		ADMET:     s.predictor,
		Affinity:  s.predictor,
		Extractor: s.extractor,
		Responder: s.responder,
		Metrics:   s.intents,
	})
	s.sess = session.New(nil)
	s.ctx = context.Background()
}

func (s *RouterTestSuite) TearDownTest() {
	s.predictor.AssertExpectations(s.T())
	s.extractor.AssertExpectations(s.T())
	s.responder.AssertExpectations(s.T())
}

func (s *RouterTestSuite) assertTurns(user, assistant string) {
	h := s.sess.History()
	s.Require().Len(h, 2)
	s.Equal(session.Turn{Role: session.RoleUser, Content: user}, h[0])
	s.Equal(session.Turn{Role: session.RoleAssistant, Content: assistant}, h[1])
}

func (s *RouterTestSuite) TestADMET_Success() {
	msg := "@admet_prediction for CCO and benzene c1ccccc1 please"
	s.extractor.On("ExtractSMILES", s.ctx, msg).Return(llm.SMILESResult{SMILES: []string{"CCO", "C((", "c1ccccc1"}})
	s.predictor.On("PredictADMET", s.ctx, []string{"CCO", "c1ccccc1"}).Return("drug-like", nil)

	reply, delta := s.router.Handle(s.ctx, msg, s.sess, true)

	s.Equal("ADMET Prediction Results:\nSMILES: CCO, c1ccccc1\nPrediction: drug-like", reply)
	s.NotNil(delta)
	s.Empty(delta)
	s.True(s.sess.MLActivated())
	s.assertTurns(msg, reply)

	preds := s.sess.Predictions()
	s.Require().Len(preds, 1)
	s.Equal("admet_prediction", preds[0].Task)
	s.Equal("drug-like", preds[0].Result)
	s.Equal([]intentCall{{"admet_prediction", OutcomeOK}}, s.intents.calls)
}

func (s *RouterTestSuite) TestADMET_PredictorFails() {
	msg := "@ADMET_PREDICTION CCO"
	s.extractor.On("ExtractSMILES", s.ctx, msg).Return(llm.SMILESResult{SMILES: []string{"CCO"}})
	s.predictor.On("PredictADMET", s.ctx, []string{"CCO"}).Return("", errors.New("site down"))

	reply, _ := s.router.Handle(s.ctx, msg, s.sess, false)

	s.Equal("Error running ADMET Prediction model: site down", reply)
	s.assertTurns(msg, reply)
	s.Empty(s.sess.Predictions())
	s.Equal([]intentCall{{"admet_prediction", OutcomeError}}, s.intents.calls)
}

func (s *RouterTestSuite) TestADMET_PredictorPanics() {
	msg := "@admet_prediction CCO"
	s.extractor.On("ExtractSMILES", s.ctx, msg).Return(llm.SMILESResult{SMILES: []string{"CCO"}})
	s.predictor.On("PredictADMET", s.ctx, []string{"CCO"}).Run(func(mock.Arguments) {
		panic("nil report")
	}).Return("", nil)

	var reply string
	s.NotPanics(func() { reply, _ = s.router.Handle(s.ctx, msg, s.sess, false) })
	s.Equal("Error running ADMET Prediction model: nil report", reply)
	s.Len(s.sess.History(), 2)
}

func (s *RouterTestSuite) TestADMET_NoValidSMILES() {
	msg := "@admet_prediction something"
	s.extractor.On("ExtractSMILES", s.ctx, msg).Return(llm.SMILESResult{Failure: llm.FailureNotJSON})

	reply, _ := s.router.Handle(s.ctx, msg, s.sess, false)

	s.Equal(NoADMETSMILESReply, reply)
	s.assertTurns(msg, reply)
	s.predictor.AssertNotCalled(s.T(), "PredictADMET", mock.Anything, mock.Anything)
}

func (s *RouterTestSuite) TestBinding_Success() {
	protein := strings.Repeat("A", 40)
	msg := "@binding_affinity " + protein + " with CCO"
	s.extractor.On("ExtractBinding", s.ctx, msg).Return(llm.BindingResult{ProteinSequence: protein, SMILES: "CCO"})
	s.predictor.On("PredictBindingAffinity", s.ctx, protein, []string{"CCO"}).Return("pKd 6.5", nil)

	reply, _ := s.router.Handle(s.ctx, msg, s.sess, true)

	s.Equal("Binding Affinity Prediction Results:\nProtein: "+strings.Repeat("A", 30)+"...\nSMILES: CCO\nPrediction: pKd 6.5", reply)
	s.assertTurns(msg, reply)
	s.Len(s.sess.Predictions(), 1)
}

func (s *RouterTestSuite) TestBinding_ProteinCutOnCharacters() {
	protein := strings.Repeat("α", 35)
	msg := "@binding_affinity " + protein + " CCO"
	s.extractor.On("ExtractBinding", s.ctx, msg).Return(llm.BindingResult{ProteinSequence: protein, SMILES: "CCO"})
	s.predictor.On("PredictBindingAffinity", s.ctx, protein, []string{"CCO"}).Return("r", nil)

	reply, _ := s.router.Handle(s.ctx, msg, s.sess, true)

	s.Contains(reply, "\nProtein: "+strings.Repeat("α", 30)+"...\n")
	s.True(utf8.ValidString(reply))
}

func (s *RouterTestSuite) TestBinding_ShortProteinShownWhole() {
	msg := "@binding_affinity MKT CCO"
	s.extractor.On("ExtractBinding", s.ctx, msg).Return(llm.BindingResult{ProteinSequence: "MKT", SMILES: "CCO"})
	s.predictor.On("PredictBindingAffinity", s.ctx, "MKT", []string{"CCO"}).Return("r", nil)

	reply, _ := s.router.Handle(s.ctx, msg, s.sess, true)
	s.Contains(reply, "\nProtein: MKT\n")
}

func (s *RouterTestSuite) TestBinding_NoProtein() {
	msg := "@binding_affinity CCO"
	s.extractor.On("ExtractBinding", s.ctx, msg).Return(llm.BindingResult{SMILES: "CCO"})

	reply, _ := s.router.Handle(s.ctx, msg, s.sess, true)

	s.Equal(NoProteinReply, reply)
	s.assertTurns(msg, reply)
	s.predictor.AssertNotCalled(s.T(), "PredictBindingAffinity", mock.Anything, mock.Anything, mock.Anything)
	s.Equal([]intentCall{{"binding_affinity", OutcomeRejected}}, s.intents.calls)
}

func (s *RouterTestSuite) TestBinding_InvalidSMILESDiscarded() {
	msg := "@binding_affinity MKT C(("
	s.extractor.On("ExtractBinding", s.ctx, msg).Return(llm.BindingResult{ProteinSequence: "MKT", SMILES: "C(("})

	reply, _ := s.router.Handle(s.ctx, msg, s.sess, true)

	s.Equal(NoBindingSMILESReply, reply)
	s.assertTurns(msg, reply)
}

func (s *RouterTestSuite) TestBinding_PredictorFails() {
	msg := "@binding_affinity MKT CCO"
	s.extractor.On("ExtractBinding", s.ctx, msg).Return(llm.BindingResult{ProteinSequence: "MKT", SMILES: "CCO"})
	s.predictor.On("PredictBindingAffinity", s.ctx, "MKT", []string{"CCO"}).Return("", errors.New("scorer offline"))

	reply, _ := s.router.Handle(s.ctx, msg, s.sess, true)
	s.Equal("Error running Binding Affinity Prediction model: scorer offline", reply)
}

func (s *RouterTestSuite) TestMarkerOrder_ADMETWins() {
	msg := "@binding_affinity and @admet_prediction CCO"
	s.extractor.On("ExtractSMILES", s.ctx, msg).Return(llm.SMILESResult{SMILES: []string{"CCO"}})
	s.predictor.On("PredictADMET", s.ctx, []string{"CCO"}).Return("ok", nil)

	reply, _ := s.router.Handle(s.ctx, msg, s.sess, false)
	s.True(strings.HasPrefix(reply, "ADMET Prediction Results:"))
}

func (s *RouterTestSuite) TestFreeForm_UsesLLMVerbatim() {
	s.sess.AddMessage(session.Turn{Role: session.RoleUser, Content: "earlier"})
	s.sess.AddMessage(session.Turn{Role: session.RoleAssistant, Content: "reply"})
	prior := s.sess.History()

	s.responder.On("Respond", s.ctx, prior, "What is Lipinski's rule?").Return("  Rule of five.  ")

	reply, _ := s.router.Handle(s.ctx, "What is Lipinski's rule?", s.sess, false)

	s.Equal("  Rule of five.  ", reply)
	h := s.sess.History()
	s.Require().Len(h, 4)
	s.Equal(reply, h[3].Content)
	s.Equal([]intentCall{{IntentChat, OutcomeOK}}, s.intents.calls)
}

func (s *RouterTestSuite) TestFreeForm_Fallback() {
	s.responder.On("Respond", s.ctx, []session.Turn{}, "hi").Return("")

	reply, _ := s.router.Handle(s.ctx, "hi", s.sess, false)

	s.Equal(ChatFallbackReply, reply)
	s.assertTurns("hi", ChatFallbackReply)
	s.Equal([]intentCall{{IntentChat, OutcomeFallback}}, s.intents.calls)
}

func (s *RouterTestSuite) TestMLFlagRecorded() {
	s.responder.On("Respond", s.ctx, mock.Anything, mock.Anything).Return("x")

	s.router.Handle(s.ctx, "a", s.sess, true)
	s.True(s.sess.MLActivated())
	s.router.Handle(s.ctx, "b", s.sess, false)
	s.False(s.sess.MLActivated())
}

type cannedCompleter struct{ reply string }

func (c cannedCompleter) Complete(context.Context, string) string { return c.reply }

func TestRouter_BindingProteinOnlyReply(t *testing.T) {
	prompts, err := prompt.NewRegistry("", nil)
	require.NoError(t, err)
	extractor := llm.NewExtractor(cannedCompleter{`{"protein_sequence": "MKTAYIAKQRQISFVKSHFSRQ"}`}, prompts, nil, nil)

	predictor := new(mockPredictor)
	router := NewRouter(RouterDeps{
		ADMET:     predictor,
		Affinity:  predictor,
		Extractor: extractor,
		Responder: new(mockResponder),
	})
	sess := session.New(nil)

	reply, _ := router.Handle(context.Background(), "@binding_affinity MKTAYIAKQRQISFVKSHFSRQ", sess, true)

	assert.Equal(t, NoBindingSMILESReply, reply)
	assert.Len(t, sess.History(), 2)
	predictor.AssertNotCalled(t, "PredictBindingAffinity", mock.Anything, mock.Anything, mock.Anything)
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func TestDetectTask(t *testing.T) {
	task, ok := detectTask("Run @Binding_Affinity now")
	require.True(t, ok)
	assert.Equal(t, "binding_affinity", string(task))

	_, ok = detectTask("admet_prediction without marker")
	assert.False(t, ok)
}

//Personal.AI order the ending
