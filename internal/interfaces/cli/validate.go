package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/intelligence/chem"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/pkg/errors"
)

// NewValidateCmd checks SMILES strings. The command fails when any is invalid.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate SMILES...",
		Short: "Check SMILES strings for syntax errors",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := chem.NewValidator()
			report := make(validationReport, 0, len(args))
			invalid := 0
			for _, s := range args {
				r := v.Validate(s)
				if !r.IsValid {
					invalid++
				}
				report = append(report, r)
			}
			if err := PrintResult(cmd, report); err != nil {
				return err
			}
			if invalid > 0 {
				return errors.Newf(errors.ErrCodeMoleculeInvalidSMILES, "%d of %d SMILES strings are invalid", invalid, len(args))
			}
			return nil
		},
	}
}

type validationReport []*chem.ValidationResult

func (r validationReport) TableHeaders() []string {
	return []string{"SMILES", "VALID", "ISSUES"}
}

func (r validationReport) TableRows() [][]string {
	rows := make([][]string, 0, len(r))
	for _, v := range r {
		rows = append(rows, []string{v.SMILES, fmt.Sprint(v.IsValid), strings.Join(v.Issues, "; ")})
	}
	return rows
}

func (r validationReport) String() string {
	var b strings.Builder
	for i, v := range r {
		if i > 0 {
			b.WriteString("\n")
		}
		if v.IsValid {
			fmt.Fprintf(&b, "%s: valid", v.SMILES)
		} else {
			fmt.Fprintf(&b, "%s: invalid (%s)", v.SMILES, strings.Join(v.Issues, "; "))
		}
	}
	return b.String()
}

//Personal.AI order the ending
