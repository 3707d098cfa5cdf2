// Package mcp exposes the prediction models and the SMILES checker as Model
// Context Protocol tools, so an MCP-capable assistant can call them directly.
package mcp

import (
	"context"
	"fmt"
	"io"
	"strings"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/application/prediction"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/logging"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/intelligence/chem"
)

const (
	ServerName = "narcos"

	ToolValidateSMILES = "validate_smiles"
)

// Predictor runs a task-addressed prediction. prediction.Service satisfies it.
type Predictor interface {
	Run(ctx context.Context, req prediction.Request) (string, error)
}

// Tools holds the handlers. Tool failures are reported inside the result so the
// calling model can read them; the Go error is reserved for protocol faults.
type Tools struct {
	predictor Predictor
	validator chem.Validator
	logger    logging.Logger
}

// NewTools wires the handlers. validator may be nil.
func NewTools(predictor Predictor, validator chem.Validator, logger logging.Logger) *Tools {
	if validator == nil {
		validator = chem.NewValidator()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Tools{predictor: predictor, validator: validator, logger: logger.Named("mcp")}
}

// NewServer registers every tool on a new MCP server.
func NewServer(version string, tools *Tools) *server.MCPServer {
	s := server.NewMCPServer(ServerName, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.AddTool(mcpgo.NewTool(string(prediction.TaskADMET),
		mcpgo.WithDescription("Predict ADMET properties (absorption, distribution, metabolism, excretion, toxicity) for one or more molecules and explain the results."),
		mcpgo.WithString("smiles", mcpgo.Required(),
			mcpgo.Description("SMILES strings separated by commas or whitespace")),
	), tools.ADMET)

	s.AddTool(mcpgo.NewTool(string(prediction.TaskBindingAffinity),
		mcpgo.WithDescription("Predict the binding affinity between a protein and one or more ligands and explain the results."),
		mcpgo.WithString("protein", mcpgo.Required(),
			mcpgo.Description("Protein amino-acid sequence")),
		mcpgo.WithString("smiles", mcpgo.Required(),
			mcpgo.Description("Ligand SMILES strings separated by commas or whitespace")),
	), tools.BindingAffinity)

	s.AddTool(mcpgo.NewTool(ToolValidateSMILES,
		mcpgo.WithDescription("Check whether strings are syntactically valid SMILES."),
		mcpgo.WithString("smiles", mcpgo.Required(),
			mcpgo.Description("SMILES strings separated by commas or whitespace")),
	), tools.ValidateSMILES)

	return s
}

// ServeStdio serves s over the given streams until ctx ends or stdin closes.
func ServeStdio(ctx context.Context, s *server.MCPServer, stdin io.Reader, stdout io.Writer) error {
	return server.NewStdioServer(s).Listen(ctx, stdin, stdout)
}

func (t *Tools) ADMET(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	raw, err := req.RequireString("smiles")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	return t.run(ctx, prediction.Request{Task: prediction.TaskADMET, SMILES: SplitSMILES(raw)})
}

func (t *Tools) BindingAffinity(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	protein, err := req.RequireString("protein")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("smiles")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	return t.run(ctx, prediction.Request{
		Task:    prediction.TaskBindingAffinity,
		Protein: strings.TrimSpace(protein),
		SMILES:  SplitSMILES(raw),
	})
}

func (t *Tools) ValidateSMILES(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	raw, err := req.RequireString("smiles")
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	candidates := SplitSMILES(raw)
	if len(candidates) == 0 {
		return mcpgo.NewToolResultError("no SMILES strings provided"), nil
	}

	var b strings.Builder
	for _, s := range candidates {
		r := t.validator.Validate(s)
		if r.IsValid {
			fmt.Fprintf(&b, "%s: valid\n", s)
			continue
		}
		fmt.Fprintf(&b, "%s: invalid (%s)\n", s, strings.Join(r.Issues, "; "))
	}
	return mcpgo.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

func (t *Tools) run(ctx context.Context, req prediction.Request) (*mcpgo.CallToolResult, error) {
	out, err := t.predictor.Run(ctx, req)
	if err != nil {
		t.logger.Warn("tool call failed", logging.Task(string(req.Task)), logging.Err(err))
		return mcpgo.NewToolResultError(err.Error()), nil
	}
	return mcpgo.NewToolResultText(out), nil
}

// SplitSMILES splits on commas and whitespace and drops empty fields.
func SplitSMILES(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
}

//Personal.AI order the ending
