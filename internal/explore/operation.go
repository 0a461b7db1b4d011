// Package explore maps menu operations onto dataset reports, transforms and plots.
package explore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/tabula/internal/frame"
)

// Operation is one entry of the exploration menu.
type Operation int

const (
	OpShape Operation = iota
	OpInformation
	OpDescribe
	OpUnique
	OpMissing
	OpOneHot
	OpBoxplot
	OpHistogram
	OpCountplot
	numOperations
)

// ErrUnknownOperation is returned for names outside the menu.
var ErrUnknownOperation = errors.New("unknown operation")

var opNames = [numOperations]string{
	OpShape:       "shape",
	OpInformation: "information",
	OpDescribe:    "describe",
	OpUnique:      "unique",
	OpMissing:     "missing",
	OpOneHot:      "onehot",
	OpBoxplot:     "boxplot",
	OpHistogram:   "histogram",
	OpCountplot:   "countplot",
}

var opLabels = [numOperations]string{
	OpShape:       "Shape",
	OpInformation: "Information",
	OpDescribe:    "Describe",
	OpUnique:      "Unique",
	OpMissing:     "Missing values",
	OpOneHot:      "One-Hot Encoding",
	OpBoxplot:     "Boxplot",
	OpHistogram:   "Histogram",
	OpCountplot:   "Countplot",
}

func (o Operation) valid() bool { return o >= 0 && o < numOperations }

// String is the machine name used in URLs and flags.
func (o Operation) String() string {
	if !o.valid() {
		return fmt.Sprintf("Operation(%d)", int(o))
	}
	return opNames[o]
}

// Label is the menu text.
func (o Operation) Label() string {
	if !o.valid() {
		return o.String()
	}
	return opLabels[o]
}

// All returns every operation in menu order.
func All() []Operation {
	out := make([]Operation, 0, numOperations)
	for o := OpShape; o < numOperations; o++ {
		out = append(out, o)
	}
	return out
}

// ParseOperation accepts a machine name or menu label, case-insensitively.
// Hyphens, underscores and spaces are ignored, so "one-hot" parses as OpOneHot.
func ParseOperation(s string) (Operation, error) {
	key := normalizeName(s)
	for o := OpShape; o < numOperations; o++ {
		if key == opNames[o] || key == normalizeName(opLabels[o]) {
			return o, nil
		}
	}
	switch key {
	case "info":
		return OpInformation, nil
	case "missingvalues", "na", "dropna":
		return OpMissing, nil
	case "hist":
		return OpHistogram, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOperation, s)
}

func normalizeName(s string) string {
	r := strings.NewReplacer("-", "", "_", "", " ", "")
	return r.Replace(strings.ToLower(strings.TrimSpace(s)))
}

// Action selects how an operation's result is used.
type Action string

const (
	// ActionRun computes and shows the result.
	ActionRun Action = "run"
	// ActionPreview shows a transformed table without keeping it.
	ActionPreview Action = "preview"
	// ActionApply makes the transformed table the working dataset.
	ActionApply Action = "apply"
)

// ParseAction maps "" to ActionRun.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case "":
		return ActionRun, nil
	case ActionRun, ActionPreview, ActionApply:
		return a, nil
	default:
		return "", fmt.Errorf("unknown action %q", s)
	}
}

// Controls describes the inputs an operation needs from the user.
type Controls struct {
	// Column is set when the operation needs a primary column.
	Column bool
	// Kind restricts column candidates; empty accepts any kind.
	Kind frame.Kind
	// Hue is set when an optional grouping column is offered.
	Hue     bool
	Actions []Action
}

// ControlsFor returns the controls shown for op.
func ControlsFor(op Operation) Controls {
	switch op {
	case OpMissing:
		return Controls{Actions: []Action{ActionRun, ActionPreview, ActionApply}}
	case OpOneHot:
		return Controls{Column: true, Kind: frame.KindCategorical, Actions: []Action{ActionPreview, ActionApply}}
	case OpBoxplot:
		return Controls{Column: true, Kind: frame.KindNumeric, Actions: []Action{ActionRun}}
	case OpHistogram:
		return Controls{Column: true, Kind: frame.KindNumeric, Hue: true, Actions: []Action{ActionRun}}
	case OpCountplot:
		return Controls{Column: true, Hue: true, Actions: []Action{ActionRun}}
	default:
		return Controls{Actions: []Action{ActionRun}}
	}
}

// Allows reports whether a is one of the control's actions.
func (c Controls) Allows(a Action) bool {
	for _, x := range c.Actions {
		if x == a {
			return true
		}
	}
	return false
}

// Candidates lists the columns offered by the column picker, columns of the
// wanted kind first. Picking a mismatched column is reported as a warning.
func (c Controls) Candidates(ds *frame.Dataset) []string {
	if !c.Column {
		return nil
	}
	var match, rest []string
	for _, col := range ds.Columns() {
		if c.Kind == "" || col.Kind == c.Kind {
			match = append(match, col.Name)
		} else {
			rest = append(rest, col.Name)
		}
	}
	return append(match, rest...)
}
