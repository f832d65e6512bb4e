package model

// IssueSeverity ranks how serious a quality finding is.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
	SeverityInfo    IssueSeverity = "info"
)

// IssueCategory names the quality dimension a finding belongs to.
type IssueCategory string

const (
	CategoryConfidence   IssueCategory = "confidence"
	CategoryCompleteness IssueCategory = "completeness"
	CategoryValidation   IssueCategory = "validation"
	CategoryConsistency  IssueCategory = "consistency"
)

// QualityIssue is a single structured finding produced during assessment.
//
// Impact is recorded per issue but is not folded into any sub-score; it is an
// extension point for future weighted-issue scoring.
type QualityIssue struct {
	Severity IssueSeverity `json:"severity"`
	Category IssueCategory `json:"category"`
	Field    string        `json:"field"`
	Message  string        `json:"message"`
	Impact   float64       `json:"impact"`
}

// QualityTier is the coarse label derived from the overall score.
type QualityTier string

const (
	TierExcellent QualityTier = "excellent"
	TierGood      QualityTier = "good"
	TierFair      QualityTier = "fair"
	TierPoor      QualityTier = "poor"
)

// QualityReport is the full outcome of one assessment.
//
// ConfidenceScore is reported on a 0-1 scale while the other sub-scores and
// the overall score are 0-100. Downstream consumers depend on this unit
// split; do not normalize it away.
type QualityReport struct {
	OverallScore      float64 `json:"overall_score"`
	ConfidenceScore   float64 `json:"confidence_score"`
	CompletenessScore float64 `json:"completeness_score"`
	ValidationScore   float64 `json:"validation_score"`
	ConsistencyScore  float64 `json:"consistency_score"`

	ValidationErrors []string `json:"validation_errors"`
	Warnings         []string `json:"warnings"`

	QualityTier QualityTier `json:"quality_tier"`

	Issues []QualityIssue `json:"issues,omitempty"`

	// FieldScores is reserved for a future per-field breakdown. It is always
	// present (never nil) and currently always empty.
	FieldScores map[string]float64 `json:"field_scores"`
}
