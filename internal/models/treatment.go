package models

// RemedyStep is a single ordered step in a treatment plan.
type RemedyStep struct {
	StepNumber  int    `json:"step_number"` // Position in the treatment sequence
	Title       string `json:"title"`       // Short step title
	Description string `json:"description"` // Full instructions for the step
}

// TreatmentBundle is the static advisory content associated with one
// disease class label. Loaded from a data file at startup, read-only after.
type TreatmentBundle struct {
	DiseaseName        string       `json:"disease_name"`                // Human-readable disease name
	Cause              string       `json:"cause"`                       // Causative agent
	SeverityLevel      string       `json:"severity_level"`              // Expected impact if untreated
	TimeToCure         string       `json:"time_to_cure"`                // Expected recovery window
	ImmediateActions   []string     `json:"immediate_actions"`           // Ordered first-response actions
	ChemicalTreatment  []RemedyStep `json:"chemical_treatment"`          // Chemical treatment plan
	OrganicTreatment   []RemedyStep `json:"organic_treatment"`           // Organic treatment plan
	PreventiveMeasures []string     `json:"preventive_measures"`         // Long-term prevention
	Dos                []string     `json:"dos"`                         // Recommended practices
	Donts              []string     `json:"donts"`                       // Practices to avoid
	EmergencyContact   string       `json:"emergency_contact,omitempty"` // Who to call for severe outbreaks
}
