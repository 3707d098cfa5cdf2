// Package admet obtains ADMET property predictions from the SwissADME web
// tool and maps its CSV export onto the key properties shown to users.
package admet

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/pkg/errors"
)

// Report is the result of one SwissADME run.
type Report struct {
	// SMILES lists the submitted molecules in submission order.
	SMILES []string
	// Columns is the CSV header.
	Columns []string
	// Rows holds one column->value map per molecule.
	Rows []map[string]string
	// Raw is the CSV as downloaded.
	Raw []byte
	// ImageDataURI is the base64 depiction of the first molecule, when the page offered one.
	ImageDataURI string
}

// Prediction is a named property value.
type Prediction struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type keyColumn struct {
	name   string
	column string
}

// keyColumns maps display names onto SwissADME CSV headers, in display order.
var keyColumns = []keyColumn{
	// Physicochemical
	{"Molecular_weight", "MW"},
	{"Formula", "Formula"},
	{"Num_H_donors", "#H-bond donors"},
	{"Num_H_acceptors", "#H-bond acceptors"},
	{"Num_Rotatable_bonds", "#Rotatable bonds"},
	{"Fraction_Csp3", "Fraction Csp3"},
	{"Num_Heavy_atoms", "#Heavy atoms"},
	{"Num_Aromatic_heavy_atoms", "#Aromatic heavy atoms"},
	{"TPSA", "TPSA"},
	{"MR", "MR"},

	// Lipophilicity
	{"iLOGP", "iLOGP"},
	{"XLOGP3", "XLOGP3"},
	{"WLOGP", "WLOGP"},
	{"MLOGP", "MLOGP"},
	{"Silicos_IT_LogP", "Silicos-IT Log P"},
	{"Consensus_LogP", "Consensus Log P"},

	// Water solubility
	{"ESOL_LogS", "ESOL Log S"},
	{"ESOL_Solubility_mg_ml", "ESOL Solubility (mg/ml)"},
	{"ESOL_Class", "ESOL Class"},
	{"Ali_LogS", "Ali Log S"},
	{"Ali_Solubility_mg_ml", "Ali Solubility (mg/ml)"},
	{"Ali_Class", "Ali Class"},
	{"Silicos_IT_LogSw", "Silicos-IT LogSw"},
	{"Silicos_IT_Solubility_mg_ml", "Silicos-IT Solubility (mg/ml)"},
	{"Silicos_IT_Class", "Silicos-IT class"},

	// Pharmacokinetics
	{"GI_absorption", "GI absorption"},
	{"BBB_permeant", "BBB permeant"},
	{"Pgp_substrate", "Pgp substrate"},
	{"CYP1A2_inhibitor", "CYP1A2 inhibitor"},
	{"CYP2C19_inhibitor", "CYP2C19 inhibitor"},
	{"CYP2C9_inhibitor", "CYP2C9 inhibitor"},
	{"CYP2D6_inhibitor", "CYP2D6 inhibitor"},
	{"CYP3A4_inhibitor", "CYP3A4 inhibitor"},
	{"log_Kp", "log Kp (cm/s)"},

	// Drug likeness
	{"Lipinski_violations", "Lipinski #violations"},
	{"Ghose_violations", "Ghose #violations"},
	{"Veber_violations", "Veber #violations"},
	{"Egan_violations", "Egan #violations"},
	{"Muegge_violations", "Muegge #violations"},
	{"Bioavailability_Score", "Bioavailability Score"},

	// Medicinal chemistry
	{"PAINS_alerts", "PAINS #alerts"},
	{"Brenk_alerts", "Brenk #alerts"},
	{"Leadlikeness_violations", "Leadlikeness #violations"},
	{"Synthetic_Accessibility", "Synthetic Accessibility"},
}

// KeyPropertyNames lists the key property names in display order.
func KeyPropertyNames() []string {
	names := make([]string, len(keyColumns))
	for i, kc := range keyColumns {
		names[i] = kc.name
	}
	return names
}

// KeyColumns lists the SwissADME CSV headers the key properties are read from.
func KeyColumns() []string {
	cols := make([]string, len(keyColumns))
	for i, kc := range keyColumns {
		cols[i] = kc.column
	}
	return cols
}

// ParseCSV reads a SwissADME export. Every data row must have exactly as many
// fields as the header.
func ParseCSV(data []byte) (*Report, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))

	header, err := r.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrCodeReportParseFailed, "ADMET report is empty")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReportParseFailed, "read ADMET report header")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	report := &Report{Columns: header, Raw: data}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeReportParseFailed, "read ADMET report row")
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			row[col] = strings.TrimSpace(rec[i])
		}
		report.Rows = append(report.Rows, row)
	}
	if len(report.Rows) == 0 {
		return nil, errors.New(errors.ErrCodeNoPredictionResult, "ADMET report has no rows")
	}
	return report, nil
}

// KeyPredictions extracts the key properties of row i, in display order.
func (r *Report) KeyPredictions(i int) ([]Prediction, error) {
	if i < 0 || i >= len(r.Rows) {
		return nil, errors.Newf(errors.ErrCodeNoPredictionResult, "ADMET report has no row %d", i)
	}
	row := r.Rows[i]
	out := make([]Prediction, 0, len(keyColumns))
	for _, kc := range keyColumns {
		v, ok := row[kc.column]
		if !ok {
			return nil, errors.New(errors.ErrCodeReportParseFailed, "ADMET report is missing a column").
				WithDetail(kc.column)
		}
		out = append(out, Prediction{Name: kc.name, Value: v})
	}
	return out, nil
}

// MoleculeSMILES returns the SMILES for row i: the submitted string when
// known, otherwise the report's own "Canonical SMILES" column.
func (r *Report) MoleculeSMILES(i int) string {
	if i >= 0 && i < len(r.SMILES) {
		return r.SMILES[i]
	}
	if i >= 0 && i < len(r.Rows) {
		return r.Rows[i]["Canonical SMILES"]
	}
	return ""
}

// ImageColumn is the column ArchiveCSV adds for the molecule depiction.
const ImageColumn = "MoleculeImage_Base64"

// ArchiveCSV returns the export to keep on file. When the page offered a
// depiction it is added to every row under ImageColumn; otherwise Raw is
// returned unchanged.
func (r *Report) ArchiveCSV() ([]byte, error) {
	if r.ImageDataURI == "" {
		return r.Raw, nil
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(append(append([]string{}, r.Columns...), ImageColumn)); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReportParseFailed, "write ADMET archive header")
	}
	for _, row := range r.Rows {
		rec := make([]string, 0, len(r.Columns)+1)
		for _, col := range r.Columns {
			rec = append(rec, row[col])
		}
		if err := w.Write(append(rec, r.ImageDataURI)); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeReportParseFailed, "write ADMET archive row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReportParseFailed, "flush ADMET archive")
	}
	return buf.Bytes(), nil
}

// FormatPredictions renders predictions as "name: value" lines.
func FormatPredictions(preds []Prediction) string {
	lines := make([]string, len(preds))
	for i, p := range preds {
		lines[i] = p.Name + ": " + p.Value
	}
	return strings.Join(lines, "\n")
}

//Personal.AI order the ending
