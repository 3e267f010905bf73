package explain

// Flaw is a category of defect in a proof.
type Flaw string

const (
	FlawNone                  Flaw = "none"
	FlawDivisionByZero        Flaw = "division_by_zero"
	FlawCircularReasoning     Flaw = "circular_reasoning"
	FlawInvalidGeneralization Flaw = "invalid_generalization"
	FlawUnjustifiedStep       Flaw = "unjustified_step"
	FlawMissingCase           Flaw = "missing_case"
	FlawAlgebraicError        Flaw = "algebraic_error"
	FlawAppealToIntuition     Flaw = "appeal_to_intuition"
	FlawOther                 Flaw = "other"
)

// Taxonomy lists every flaw with the description shown to the model.
var Taxonomy = []struct {
	Flaw        Flaw
	Description string
}{
	{FlawNone, "no flaw; the argument is sound"},
	{FlawDivisionByZero, "divides by an expression that can be zero"},
	{FlawCircularReasoning, "assumes what it sets out to prove"},
	{FlawInvalidGeneralization, "concludes a general statement from examples"},
	{FlawUnjustifiedStep, "a step does not follow from the previous ones"},
	{FlawMissingCase, "case analysis or induction skips a case"},
	{FlawAlgebraicError, "an identity or calculation is wrong"},
	{FlawAppealToIntuition, "replaces argument with intuition or authority"},
	{FlawOther, "some other defect"},
}

func flawIDs() []string {
	ids := make([]string, len(Taxonomy))
	for i, t := range Taxonomy {
		ids[i] = string(t.Flaw)
	}
	return ids
}
