package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

var sequences = map[Module][]Status{
	ModuleConsulting: {StatusIntake, StatusDiagnosing, StatusSimulating, StatusPlanning, StatusComplete},
	ModuleAudit:      {StatusSetup, StatusUpload, StatusAnalyzing, StatusReview, StatusComplete},
	ModuleBranding:   {StatusIntake, StatusGenerating, StatusReview, StatusComplete},
	ModuleTaxLegal:   {StatusIntake, StatusAnalyzing, StatusReview, StatusComplete},
}

// MinProblemLength is the shortest problem description the consulting
// intake step accepts.
const MinProblemLength = 20

// Valid reports whether the module has a status sequence.
func (m Module) Valid() bool {
	_, ok := sequences[m]
	return ok
}

// Statuses returns the ordered statuses for a module.
func Statuses(module Module) ([]Status, error) {
	seq, ok := sequences[module]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModule, module)
	}
	out := make([]Status, len(seq))
	copy(out, seq)
	return out, nil
}

// StepIndex maps a status to its position in the module's sequence.
func StepIndex(module Module, status Status) (int, error) {
	seq, ok := sequences[module]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownModule, module)
	}
	for i, s := range seq {
		if s == status {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q in %s", ErrUnknownStatus, status, module)
}

// StatusAt returns the status at a step index.
func StatusAt(module Module, index int) (Status, error) {
	seq, ok := sequences[module]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownModule, module)
	}
	if index < 0 || index >= len(seq) {
		return "", fmt.Errorf("%w: step %d in %s", ErrUnknownStatus, index, module)
	}
	return seq[index], nil
}

// InitialStatus is the first status of a module's sequence.
func InitialStatus(module Module) (Status, error) {
	return StatusAt(module, 0)
}

// Next returns the status after the given one. The final status has no successor.
func Next(module Module, status Status) (Status, int, error) {
	idx, err := StepIndex(module, status)
	if err != nil {
		return "", 0, err
	}
	next, err := StatusAt(module, idx+1)
	if err != nil {
		return "", 0, ErrWrongStep
	}
	return next, idx + 1, nil
}

// Previous returns the status before the given one. The first status has no predecessor.
func Previous(module Module, status Status) (Status, int, error) {
	idx, err := StepIndex(module, status)
	if err != nil {
		return "", 0, err
	}
	prev, err := StatusAt(module, idx-1)
	if err != nil {
		return "", 0, ErrWrongStep
	}
	return prev, idx - 1, nil
}

// StepInputs carries the form fields a step's continue action validates.
type StepInputs struct {
	ProblemDescription string
	Domains            []string
	AuditType          string
	Standard           string
	DatasetIDs         []string
	BusinessName       string
	Jurisdictions      []string
	Question           string
}

// InputsFromSession collects the persisted step fields of a session,
// including the branding and tax intake artifacts when present.
func InputsFromSession(s *Session) StepInputs {
	in := StepInputs{
		ProblemDescription: s.ProblemDescription,
		Domains:            s.Domains,
		AuditType:          s.AuditType,
		Standard:           s.Standard,
		DatasetIDs:         s.DatasetsUsed,
	}
	var brand BrandInput
	if raw := s.Artifact(ArtifactBrandInput); raw != nil && json.Unmarshal(raw, &brand) == nil {
		in.BusinessName = brand.BusinessName
	}
	var tax TaxInput
	if raw := s.Artifact(ArtifactTaxInput); raw != nil && json.Unmarshal(raw, &tax) == nil {
		in.Jurisdictions = tax.Jurisdictions
		in.Question = tax.Question
	}
	return in
}

// CanContinue validates the fields of the current step. It returns nil when
// the continue action may be enabled.
func CanContinue(module Module, status Status, in StepInputs) error {
	if _, err := StepIndex(module, status); err != nil {
		return err
	}

	switch {
	case module == ModuleConsulting && status == StatusIntake:
		if utf8.RuneCountInString(strings.TrimSpace(in.ProblemDescription)) < MinProblemLength {
			return fmt.Errorf("%w: problem description needs at least %d characters", ErrStepNotReady, MinProblemLength)
		}
		if countNonBlank(in.Domains) == 0 {
			return fmt.Errorf("%w: select at least one domain", ErrStepNotReady)
		}
	case module == ModuleAudit && status == StatusSetup:
		if !contains(AuditTypes, in.AuditType) || !contains(AuditStandards, in.Standard) {
			return fmt.Errorf("%w: audit type and standard are required", ErrStepNotReady)
		}
	case module == ModuleAudit && status == StatusUpload:
		if countNonBlank(in.DatasetIDs) == 0 {
			return fmt.Errorf("%w: attach at least one dataset", ErrStepNotReady)
		}
	case module == ModuleBranding && status == StatusIntake:
		if strings.TrimSpace(in.BusinessName) == "" {
			return fmt.Errorf("%w: business name is required", ErrStepNotReady)
		}
	case module == ModuleTaxLegal && status == StatusIntake:
		if countNonBlank(in.Jurisdictions) == 0 {
			return fmt.Errorf("%w: select at least one jurisdiction", ErrStepNotReady)
		}
		if utf8.RuneCountInString(strings.TrimSpace(in.Question)) < MinProblemLength {
			return fmt.Errorf("%w: question needs at least %d characters", ErrStepNotReady, MinProblemLength)
		}
	case status == StatusComplete:
		return ErrWrongStep
	}
	return nil
}

func countNonBlank(values []string) int {
	n := 0
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
