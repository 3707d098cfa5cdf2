// Package chem provides a lightweight syntactic SMILES checker. It does not
// perceive valence or aromaticity; it only rejects strings that no SMILES
// parser would accept.
package chem

import (
	"strconv"
	"strings"
	"unicode"
)

// Validator decides whether a string is plausible SMILES.
type Validator interface {
	IsValid(smiles string) bool
	Validate(smiles string) *ValidationResult
}

// ValidationResult holds the outcome of validating one string.
type ValidationResult struct {
	SMILES  string   `json:"smiles"`
	IsValid bool     `json:"is_valid"`
	Issues  []string `json:"issues,omitempty"`
}

var organicAtoms = map[string]bool{
	"B": true, "C": true, "N": true, "O": true, "P": true, "S": true,
	"F": true, "Cl": true, "Br": true, "I": true,
	"b": true, "c": true, "n": true, "o": true, "p": true, "s": true,
	"*": true,
}

var validElements = map[string]bool{
	"H": true, "He": true, "Li": true, "Be": true, "B": true, "C": true,
	"N": true, "O": true, "F": true, "Ne": true, "Na": true, "Mg": true,
	"Al": true, "Si": true, "P": true, "S": true, "Cl": true, "Ar": true,
	"K": true, "Ca": true, "Sc": true, "Ti": true, "V": true, "Cr": true,
	"Mn": true, "Fe": true, "Co": true, "Ni": true, "Cu": true, "Zn": true,
	"Ga": true, "Ge": true, "As": true, "Se": true, "Br": true, "Kr": true,
	"Rb": true, "Sr": true, "Y": true, "Zr": true, "Nb": true, "Mo": true,
	"Tc": true, "Ru": true, "Rh": true, "Pd": true, "Ag": true, "Cd": true,
	"In": true, "Sn": true, "Sb": true, "Te": true, "I": true, "Xe": true,
	"Cs": true, "Ba": true, "La": true, "Ce": true, "Pr": true, "Nd": true,
	"Pm": true, "Sm": true, "Eu": true, "Gd": true, "Tb": true, "Dy": true,
	"Ho": true, "Er": true, "Tm": true, "Yb": true, "Lu": true, "Hf": true,
	"Ta": true, "W": true, "Re": true, "Os": true, "Ir": true, "Pt": true,
	"Au": true, "Hg": true, "Tl": true, "Pb": true, "Bi": true, "Po": true,
	"At": true, "Rn": true, "Fr": true, "Ra": true, "Ac": true, "Th": true,
	"Pa": true, "U": true, "Np": true, "Pu": true, "Am": true, "Cm": true,
	"Bk": true, "Cf": true, "Es": true, "Fm": true, "Md": true, "No": true,
	"Lr": true, "Rf": true, "Db": true, "Sg": true, "Bh": true, "Hs": true,
	"Mt": true, "Ds": true, "Rg": true, "Cn": true, "Nh": true, "Fl": true,
	"Mc": true, "Lv": true, "Ts": true, "Og": true,
}

// Aromatic symbols allowed inside brackets.
var aromaticBracketAtoms = map[string]bool{
	"b": true, "c": true, "n": true, "o": true, "p": true, "s": true,
	"se": true, "as": true, "te": true,
}

const bondChars = "-=#$:/\\"

type smilesValidator struct{}

// NewValidator returns the default Validator.
func NewValidator() Validator {
	return smilesValidator{}
}

func (v smilesValidator) IsValid(smiles string) bool {
	return v.Validate(smiles).IsValid
}

func (smilesValidator) Validate(smiles string) *ValidationResult {
	result := &ValidationResult{SMILES: smiles, IsValid: true}
	fail := func(issue string) *ValidationResult {
		result.IsValid = false
		result.Issues = append(result.Issues, issue)
		return result
	}

	if smiles == "" {
		return fail("SMILES is empty")
	}
	if strings.IndexFunc(smiles, unicode.IsSpace) >= 0 {
		return fail("SMILES contains whitespace")
	}
	for _, comp := range strings.Split(smiles, ".") {
		if comp == "" {
			return fail("SMILES has an empty component")
		}
		if issue := checkComponent(comp); issue != "" {
			return fail(issue)
		}
	}
	return result
}

// checkComponent scans one dot-free component and returns the first issue
// found, or "" when the component is well formed.
func checkComponent(s string) string {
	var (
		depth       int
		atoms       int
		prevAtom    bool // previous token can carry a bond, branch or ring closure
		pendingBond bool
		openRings   = make(map[string]bool)
	)

	for i := 0; i < len(s); {
		ch := s[i]
		switch {
		case ch == '[':
			end := strings.IndexByte(s[i+1:], ']')
			if end < 0 {
				return "SMILES has unbalanced brackets"
			}
			body := s[i+1 : i+1+end]
			if strings.ContainsRune(body, '[') {
				return "SMILES has nested brackets"
			}
			if !checkBracketAtom(body) {
				return "SMILES contains invalid bracket atom [" + body + "]"
			}
			i += end + 2
			atoms++
			prevAtom, pendingBond = true, false

		case ch == ']':
			return "SMILES has unbalanced brackets"

		case ch == '(':
			if !prevAtom || pendingBond {
				return "SMILES branch does not follow an atom"
			}
			if i+1 < len(s) && s[i+1] == ')' {
				return "SMILES has an empty branch"
			}
			depth++
			i++

		case ch == ')':
			depth--
			if depth < 0 {
				return "SMILES has unbalanced parentheses"
			}
			if pendingBond {
				return "SMILES has a dangling bond"
			}
			i++

		case strings.IndexByte(bondChars, ch) >= 0:
			if !prevAtom && !(i > 0 && s[i-1] == '(') {
				return "SMILES bond does not follow an atom"
			}
			if pendingBond {
				return "SMILES has consecutive bonds"
			}
			pendingBond = true
			i++

		case ch >= '0' && ch <= '9', ch == '%':
			label := string(ch)
			if ch == '%' {
				if i+2 >= len(s) || !isDigit(s[i+1]) || !isDigit(s[i+2]) {
					return "SMILES has a malformed %nn ring closure"
				}
				label = s[i : i+3]
			}
			if !prevAtom {
				return "SMILES ring closure does not follow an atom"
			}
			if openRings[label] {
				delete(openRings, label)
			} else {
				openRings[label] = true
			}
			pendingBond = false
			i += len(label)

		default:
			sym := organicSymbolAt(s, i)
			if sym == "" {
				return "SMILES contains invalid atom symbol at position " + strconv.Itoa(i)
			}
			i += len(sym)
			atoms++
			prevAtom, pendingBond = true, false
		}
	}

	switch {
	case atoms == 0:
		return "SMILES component has no atoms"
	case depth != 0:
		return "SMILES has unbalanced parentheses"
	case pendingBond:
		return "SMILES has a dangling bond"
	case len(openRings) > 0:
		return "SMILES has unmatched ring closure digits"
	}
	return ""
}

// organicSymbolAt returns the organic-subset symbol starting at i, preferring
// the two-letter halogens.
func organicSymbolAt(s string, i int) string {
	if i+1 < len(s) {
		if two := s[i : i+2]; two == "Cl" || two == "Br" {
			return two
		}
	}
	if one := s[i : i+1]; organicAtoms[one] {
		return one
	}
	return ""
}

// checkBracketAtom validates [isotope? symbol chiral? hcount? charge? class?].
func checkBracketAtom(body string) bool {
	i := 0
	for i < len(body) && isDigit(body[i]) {
		i++
	}
	if i >= len(body) {
		return false
	}

	switch {
	case body[i] == '*':
		i++
	case i+1 < len(body) && aromaticBracketAtoms[body[i:i+2]]:
		i += 2
	case body[i] >= 'A' && body[i] <= 'Z':
		if i+1 < len(body) && body[i+1] >= 'a' && body[i+1] <= 'z' && validElements[body[i:i+2]] {
			i += 2
		} else if validElements[body[i:i+1]] {
			i++
		} else {
			return false
		}
	case aromaticBracketAtoms[body[i:i+1]]:
		i++
	default:
		return false
	}

	for i < len(body) && body[i] == '@' {
		i++
	}
	if i < len(body) && body[i] == 'H' {
		i++
		for i < len(body) && isDigit(body[i]) {
			i++
		}
	}
	if i < len(body) && (body[i] == '+' || body[i] == '-') {
		sign := body[i]
		i++
		for i < len(body) && (body[i] == sign || isDigit(body[i])) {
			i++
		}
	}
	if i < len(body) && body[i] == ':' {
		i++
		start := i
		for i < len(body) && isDigit(body[i]) {
			i++
		}
		if i == start {
			return false
		}
	}
	return i == len(body)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// FilterValid returns the entries of candidates accepted by v, in order.
func FilterValid(v Validator, candidates []string) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if v.IsValid(c) {
			out = append(out, c)
		}
	}
	return out
}

//Personal.AI order the ending
