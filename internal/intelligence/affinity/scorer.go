// Package affinity scores protein-ligand binding affinity against a remote
// model-serving endpoint.
package affinity

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/logging"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/pkg/errors"
)

// Defaults for the HTTP scorer.
const (
	DefaultURL     = "http://localhost:8501/v1/score"
	DefaultTimeout = 120 * time.Second
)

// Result is the predicted affinity for one ligand.
type Result struct {
	// NegLog10AffinityM is pKd.
	NegLog10AffinityM float64 `json:"neg_log10_affinity_M"`
	AffinityUM        float64 `json:"affinity_uM"`
}

// Band buckets pKd into the qualitative ranges used in explanations.
func (r Result) Band() string {
	switch pkd := r.NegLog10AffinityM; {
	case pkd > 9:
		return "very strong"
	case pkd >= 7:
		return "strong"
	case pkd >= 5:
		return "moderate"
	default:
		return "weak"
	}
}

// Scorer predicts binding affinity of each SMILES against a protein sequence.
// Results are returned in the order of smiles.
type Scorer interface {
	Score(ctx context.Context, protein string, smiles []string) ([]Result, error)
}

type scoreRequest struct {
	ProteinSequence string   `json:"protein_sequence"`
	SMILES          []string `json:"smiles"`
}

type scoreResponse struct {
	Results []Result `json:"results"`
}

// HTTPClient is a Scorer backed by a JSON endpoint.
type HTTPClient struct {
	url    string
	http   *http.Client
	logger logging.Logger
}

// NewHTTPClient builds a scorer for url. A zero timeout selects DefaultTimeout.
func NewHTTPClient(url string, timeout time.Duration, logger logging.Logger) *HTTPClient {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &HTTPClient{
		url:    url,
		http:   &http.Client{Timeout: timeout},
		logger: logger.Named("affinity"),
	}
}

// Score implements Scorer.
func (c *HTTPClient) Score(ctx context.Context, protein string, smiles []string) ([]Result, error) {
	protein = strings.TrimSpace(protein)
	if protein == "" {
		return nil, errors.New(errors.ErrCodeProteinMissing, "protein sequence is required")
	}
	if len(smiles) == 0 {
		return nil, errors.New(errors.ErrCodeMoleculeInvalidSMILES, "at least one SMILES is required")
	}

	body, err := json.Marshal(scoreRequest{ProteinSequence: protein, SMILES: smiles})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "encode score request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeScorerUnavailable, "build score request")
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeScorerUnavailable, "affinity scorer unreachable")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeScorerUnavailable, "read score response")
	}
	c.logger.Debug("affinity scored",
		logging.String("request_id", requestID),
		logging.Int("status", resp.StatusCode),
		logging.Int("ligands", len(smiles)),
		logging.Duration("elapsed", time.Since(start)))

	if resp.StatusCode >= 400 {
		return nil, errors.Newf(errors.ErrCodeScorerUnavailable, "affinity scorer returned HTTP %d", resp.StatusCode).
			WithDetail(strings.TrimSpace(string(respBody)))
	}

	var out scoreResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decode score response")
	}
	if len(out.Results) == 0 {
		return nil, errors.New(errors.ErrCodeNoPredictionResult, "affinity scorer returned no results")
	}
	if len(out.Results) != len(smiles) {
		return nil, errors.Newf(errors.ErrCodePredictionFailed,
			"affinity scorer returned %d results for %d ligands", len(out.Results), len(smiles))
	}
	return out.Results, nil
}

//Personal.AI order the ending
