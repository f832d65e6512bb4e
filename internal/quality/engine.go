package quality

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/donexus/lease-extract/internal/model"
)

// requiredFields are the field paths a lease record must carry. Nested paths
// use dot notation and resolve through the accessor table below.
var requiredFields = []string{
	"tenants",
	"address.street",
	"address.house_number",
	"address.zip_code",
	"address.city",
	"warm_rent",
	"cold_rent",
	"contract_start_date",
	"rent_increase_type",
}

// bonusFields improve completeness but are never individually penalized.
var bonusFields = []string{
	"landlord_name",
	"landlord_address",
	"deposit_amount",
	"notice_period",
	"special_clauses",
	"utilities_included",
	"square_meters",
	"number_of_rooms",
	"parking_rent",
	"utilities_cost",
}

// accessors resolves a field path to its value on a record. Compiled once at
// package init and shared read-only across all assessments.
var accessors = map[string]func(*model.Record) any{
	"tenants":              func(r *model.Record) any { return r.Tenants },
	"address.street":       func(r *model.Record) any { return r.Address.Street },
	"address.house_number": func(r *model.Record) any { return r.Address.HouseNumber },
	"address.zip_code":     func(r *model.Record) any { return r.Address.ZipCode },
	"address.city":         func(r *model.Record) any { return r.Address.City },
	"warm_rent":            func(r *model.Record) any { return r.WarmRent },
	"cold_rent":            func(r *model.Record) any { return r.ColdRent },
	"contract_start_date":  func(r *model.Record) any { return r.ContractStartDate },
	"rent_increase_type":   func(r *model.Record) any { return string(r.RentIncreaseType) },
	"landlord_name":        func(r *model.Record) any { return r.LandlordName },
	"landlord_address":     func(r *model.Record) any { return r.LandlordAddress },
	"deposit_amount":       func(r *model.Record) any { return r.DepositAmount },
	"notice_period":        func(r *model.Record) any { return r.NoticePeriod },
	"special_clauses":      func(r *model.Record) any { return r.SpecialClauses },
	"utilities_included":   func(r *model.Record) any { return r.UtilitiesIncluded },
	"square_meters":        func(r *model.Record) any { return r.SquareMeters },
	"number_of_rooms":      func(r *model.Record) any { return r.NumberOfRooms },
	"parking_rent":         func(r *model.Record) any { return r.ParkingRent },
	"utilities_cost":       func(r *model.Record) any { return r.UtilitiesCost },
}

// issueList accumulates findings for a single Assess call. It is always
// allocated call-locally; the engine holds no mutable state, which keeps a
// shared Engine safe under concurrent Assess calls.
type issueList struct {
	items []model.QualityIssue
}

func (l *issueList) add(sev model.IssueSeverity, cat model.IssueCategory, field, message string, impact float64) {
	l.items = append(l.items, model.QualityIssue{
		Severity: sev,
		Category: cat,
		Field:    field,
		Message:  message,
		Impact:   impact,
	})
}

func (l *issueList) messages(sev model.IssueSeverity) []string {
	out := []string{}
	for _, i := range l.items {
		if i.Severity == sev {
			out = append(out, i.Message)
		}
	}
	return out
}

// Engine scores validated lease records along four weighted metrics. A single
// Engine may be shared by any number of goroutines.
type Engine struct {
	cfg Config
	now func() time.Time
}

// NewEngine creates an Engine with the given rule configuration.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg, now: time.Now}
}

// Assess scores a validated record and returns its quality report. It never
// fails: every rule violation becomes a scored issue in the report.
func (e *Engine) Assess(rec *model.Record) *model.QualityReport {
	reg := &issueList{}

	confidence := e.confidenceScore(rec, reg)
	completeness := e.completenessScore(rec, reg)
	validation := e.validationScore(rec, reg)
	consistency := e.consistencyScore(rec, reg)

	overall := confidence*e.cfg.Weights.Confidence +
		completeness*e.cfg.Weights.Completeness +
		validation*e.cfg.Weights.Validation +
		consistency*e.cfg.Weights.Consistency

	tier := e.tierFor(overall)

	errs := reg.messages(model.SeverityError)
	warns := reg.messages(model.SeverityWarning)

	zap.L().Info("quality: assessment complete",
		zap.Float64("overall", overall),
		zap.String("tier", string(tier)),
		zap.Float64("confidence", confidence),
		zap.Float64("completeness", completeness),
		zap.Float64("validation", validation),
		zap.Float64("consistency", consistency),
		zap.Int("errors", len(errs)),
		zap.Int("warnings", len(warns)),
	)

	return &model.QualityReport{
		OverallScore:      overall,
		ConfidenceScore:   confidence / 100,
		CompletenessScore: completeness,
		ValidationScore:   validation,
		ConsistencyScore:  consistency,
		ValidationErrors:  errs,
		Warnings:          warns,
		QualityTier:       tier,
		Issues:            reg.items,
		FieldScores:       map[string]float64{},
	}
}

// confidenceScore averages the model's reported confidence over the required
// fields. A required field with no confidence entry contributes a neutral 0.5
// so that missing confidence data degrades the score instead of vanishing.
func (e *Engine) confidenceScore(rec *model.Record, reg *issueList) float64 {
	if len(rec.ConfidenceScores) == 0 {
		reg.add(model.SeverityWarning, model.CategoryConfidence, "confidence_scores",
			"No confidence scores provided by AI", 0.3)
		return 50.0
	}

	var confidences []float64
	for _, field := range requiredFields {
		// Nested paths use the parent-level confidence entry.
		key := field
		if i := strings.IndexByte(field, '.'); i >= 0 {
			key = field[:i]
		}

		score, ok := rec.ConfidenceScores[key]
		if !ok {
			confidences = append(confidences, 0.5)
			continue
		}
		confidences = append(confidences, score)

		// Flag low confidence once per top-level field.
		if score < 0.6 && key == field {
			reg.add(model.SeverityWarning, model.CategoryConfidence, key,
				fmt.Sprintf("Low confidence score: %.2f", score), 0.1)
		}
	}

	var sum float64
	for _, c := range confidences {
		sum += c
	}
	return sum / float64(len(confidences)) * 100
}

// completenessScore weighs required-field coverage at 70% and bonus-field
// coverage at 30%.
func (e *Engine) completenessScore(rec *model.Record, reg *issueList) float64 {
	requiredFilled := 0
	for _, field := range requiredFields {
		if fieldFilled(rec, field) {
			requiredFilled++
		} else {
			reg.add(model.SeverityError, model.CategoryCompleteness, field,
				fmt.Sprintf("Required field '%s' is missing or empty", field), 0.2)
		}
	}

	bonusFilled := 0
	for _, field := range bonusFields {
		if fieldFilled(rec, field) {
			bonusFilled++
		}
	}

	requiredPct := float64(requiredFilled) / float64(len(requiredFields))
	bonusPct := float64(bonusFilled) / float64(len(bonusFields))

	return (requiredPct*0.7 + bonusPct*0.3) * 100
}

// validationScore applies the business-rule table. Rules whose subject field
// is absent are skipped, not failed.
func (e *Engine) validationScore(rec *model.Record, reg *issueList) float64 {
	total, passed := 0, 0

	// Rule 1: warm rent covers cold rent.
	total++
	if rec.WarmRent >= rec.ColdRent {
		passed++
	} else {
		reg.add(model.SeverityError, model.CategoryValidation, "rent",
			fmt.Sprintf("Warm rent (€%.2f) < Cold rent (€%.2f)", rec.WarmRent, rec.ColdRent), 0.3)
	}

	// Rule 2: utilities cost matches the warm/cold difference within 10%.
	// Zero counts as absent, same as the other optional amounts below.
	if rec.UtilitiesCost != nil && *rec.UtilitiesCost != 0 {
		total++
		expected := rec.WarmRent - rec.ColdRent
		if rec.ParkingRent != nil {
			expected -= *rec.ParkingRent
		}
		tolerance := expected * 0.10
		if abs(*rec.UtilitiesCost-expected) <= tolerance {
			passed++
		} else {
			reg.add(model.SeverityWarning, model.CategoryValidation, "utilities_cost",
				fmt.Sprintf("Utilities (€%.2f) don't match warm-cold difference", *rec.UtilitiesCost), 0.1)
		}
	}

	// Rule 3: end date strictly after start date.
	if rec.ContractEndDate != nil {
		total++
		if rec.ContractEndDate.After(rec.ContractStartDate) {
			passed++
		} else {
			reg.add(model.SeverityError, model.CategoryValidation, "contract_dates",
				"Contract end date is before start date", 0.2)
		}
	}

	// Rule 4: cold rent within a plausible band.
	total++
	if rec.ColdRent >= 100 && rec.ColdRent <= 10000 {
		passed++
	} else {
		reg.add(model.SeverityWarning, model.CategoryValidation, "cold_rent",
			fmt.Sprintf("Unusual cold rent amount: €%.2f", rec.ColdRent), 0.1)
	}

	// Rule 5: deposit is typically 2-3 months cold rent, +20% headroom.
	if rec.DepositAmount != nil && *rec.DepositAmount != 0 {
		total++
		minDeposit := rec.ColdRent * 2
		maxDeposit := rec.ColdRent * 3 * 1.2
		if *rec.DepositAmount >= minDeposit && *rec.DepositAmount <= maxDeposit {
			passed++
		} else {
			reg.add(model.SeverityInfo, model.CategoryValidation, "deposit_amount",
				fmt.Sprintf("Deposit (€%.2f) unusual for rent (€%.2f)", *rec.DepositAmount, rec.ColdRent), 0.05)
		}
	}

	// Rule 6: at least one tenant.
	total++
	if len(rec.Tenants) > 0 {
		passed++
	} else {
		reg.add(model.SeverityError, model.CategoryValidation, "tenants",
			"No tenants found", 0.3)
	}

	// Rule 7: plausible room count.
	if rec.NumberOfRooms != nil && *rec.NumberOfRooms != 0 {
		total++
		if *rec.NumberOfRooms >= 0.5 && *rec.NumberOfRooms <= 10 {
			passed++
		} else {
			reg.add(model.SeverityWarning, model.CategoryValidation, "number_of_rooms",
				fmt.Sprintf("Unusual number of rooms: %.1f", *rec.NumberOfRooms), 0.05)
		}
	}

	// Rule 8: plausible living area.
	if rec.SquareMeters != nil && *rec.SquareMeters != 0 {
		total++
		if *rec.SquareMeters >= 10 && *rec.SquareMeters <= 500 {
			passed++
		} else {
			reg.add(model.SeverityWarning, model.CategoryValidation, "square_meters",
				fmt.Sprintf("Unusual square meters: %.1fm²", *rec.SquareMeters), 0.05)
		}
	}

	if total == 0 {
		return 100
	}
	return float64(passed) / float64(total) * 100
}

// consistencyScore runs the cross-field checks.
func (e *Engine) consistencyScore(rec *model.Record, reg *issueList) float64 {
	total, passed := 0, 0

	// Check 1: activity flag matches the end date.
	total++
	now := e.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if rec.ContractEndDate != nil {
		end := rec.ContractEndDate.UTC()
		endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
		expectedActive := !endDay.Before(today)
		if rec.IsActive == expectedActive {
			passed++
		} else {
			reg.add(model.SeverityWarning, model.CategoryConsistency, "is_active",
				fmt.Sprintf("is_active=%t inconsistent with end_date=%s",
					rec.IsActive, rec.ContractEndDate.Format("2006-01-02")), 0.1)
		}
	} else {
		// No end date means unlimited, which should be active.
		if rec.IsActive {
			passed++
		} else {
			reg.add(model.SeverityInfo, model.CategoryConsistency, "is_active",
				"Unlimited contract marked as inactive", 0.05)
		}
	}

	// Check 2: increase schedule matches the classification.
	total++
	switch rec.RentIncreaseType {
	case model.RentIncreaseFixedStep:
		if len(rec.RentIncreaseSchedule) > 0 {
			passed++
		} else {
			reg.add(model.SeverityWarning, model.CategoryConsistency, "rent_increase_schedule",
				"Rent type is 'fixed_step' but no schedule provided", 0.15)
		}
	case model.RentIncreaseNone:
		if len(rec.RentIncreaseSchedule) == 0 {
			passed++
		} else {
			reg.add(model.SeverityWarning, model.CategoryConsistency, "rent_increase_schedule",
				"Rent type is 'none' but schedule exists", 0.1)
		}
	default:
		// Index-linked, percentage and unknown leases may or may not
		// carry a schedule.
		passed++
	}

	// Check 3: legacy display names mirror the first tenant.
	if len(rec.Tenants) > 0 {
		total++
		first := rec.Tenants[0]
		if rec.Name == first.FirstName && rec.Surname == first.LastName {
			passed++
		} else {
			reg.add(model.SeverityInfo, model.CategoryConsistency, "name/surname",
				"Legacy name fields don't match first tenant", 0.05)
		}
	}

	// Check 4: Munich postal codes fall in 80000-81999. Other cities are
	// assumed correct; this is intentionally not a general zip validator.
	total++
	city := strings.ToLower(rec.Address.City)
	if strings.Contains(city, "münchen") || strings.Contains(city, "munich") {
		zip, err := strconv.Atoi(rec.Address.ZipCode)
		if err == nil && zip >= 80000 && zip <= 81999 {
			passed++
		} else {
			reg.add(model.SeverityInfo, model.CategoryConsistency, "address",
				fmt.Sprintf("Postal code %s unusual for München", rec.Address.ZipCode), 0.05)
		}
	} else {
		passed++
	}

	// Check 5: parking rent stays below cold rent.
	if rec.ParkingRent != nil {
		total++
		if *rec.ParkingRent < rec.ColdRent {
			passed++
		} else {
			reg.add(model.SeverityWarning, model.CategoryConsistency, "parking_rent",
				fmt.Sprintf("Parking (€%.2f) >= Cold rent (€%.2f)", *rec.ParkingRent, rec.ColdRent), 0.1)
		}
	}

	return float64(passed) / float64(total) * 100
}

// tierFor maps an overall score to its quality tier.
func (e *Engine) tierFor(score float64) model.QualityTier {
	switch {
	case score >= e.cfg.Tiers.Excellent:
		return model.TierExcellent
	case score >= e.cfg.Tiers.Good:
		return model.TierGood
	case score >= e.cfg.Tiers.Fair:
		return model.TierFair
	default:
		return model.TierPoor
	}
}

// fieldFilled reports whether a field path holds meaningful data: strings
// must be non-blank, sequences non-empty, numbers positive, pointers and
// times non-zero.
func fieldFilled(rec *model.Record, field string) bool {
	accessor, ok := accessors[field]
	if !ok {
		return false
	}

	switch v := accessor(rec).(type) {
	case string:
		return strings.TrimSpace(v) != ""
	case []model.Tenant:
		return len(v) > 0
	case []string:
		return len(v) > 0
	case float64:
		return v > 0
	case *float64:
		return v != nil && *v > 0
	case time.Time:
		return !v.IsZero()
	case *time.Time:
		return v != nil && !v.IsZero()
	default:
		return v != nil
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
