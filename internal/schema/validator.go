// Package schema turns an untyped extraction candidate into a typed,
// invariant-checked lease Record. Structural validity is gated here;
// business-plausibility checks (rent ordering, deposit ranges, area bounds)
// are deliberately left to the quality engine, which scores them instead of
// rejecting the document.
package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/donexus/lease-extract/internal/model"
)

var (
	zipCodeRe     = regexp.MustCompile(`^\d{5}$`)
	houseNumberRe = regexp.MustCompile(`^[0-9]+[a-zA-Z]?$`)
)

const dateLayout = "2006-01-02"

// Validate checks an extraction candidate against the lease record schema and
// returns a typed Record. On failure it returns a *ValidationError listing
// every violation found. The returned Record shares no state with the
// validator; ownership passes entirely to the caller.
func Validate(candidate map[string]any) (*model.Record, error) {
	v := &visit{candidate: candidate}

	rec := &model.Record{}
	rec.Tenants = v.tenants()
	rec.Address = v.address()
	rec.WarmRent = v.requiredAmount("warm_rent")
	rec.ColdRent = v.requiredAmount("cold_rent")
	rec.UtilitiesCost = v.optionalAmount("utilities_cost", 0)
	rec.ParkingRent = v.optionalAmount("parking_rent", 0)
	rec.RentIncreaseType = v.rentIncreaseType()
	rec.RentIncreaseSchedule = v.schedule()
	rec.ContractStartDate = v.requiredDate("contract_start_date")
	rec.ContractEndDate = v.optionalDate("contract_end_date")
	rec.IsActive = v.booleanDefault("is_active", true)
	rec.LandlordName = v.optionalString("landlord_name")
	rec.LandlordAddress = v.optionalString("landlord_address")
	rec.DepositAmount = v.optionalAmount("deposit_amount", 0)
	rec.NoticePeriod = v.optionalString("notice_period")
	rec.SpecialClauses = v.stringList("special_clauses")
	rec.UtilitiesIncluded = v.stringList("utilities_included")
	rec.SquareMeters = v.optionalAmount("square_meters", 0)
	rec.NumberOfRooms = v.optionalAmount("number_of_rooms", 0)
	rec.ConfidenceScores = v.confidenceScores()
	rec.AIModelUsed = v.optionalString("ai_model_used")
	rec.ExtractionTimestamp = v.timestamp("extraction_timestamp")

	// Legacy display-name fields mirror the first tenant unless the source
	// explicitly set them.
	rec.Name = v.optionalString("name")
	rec.Surname = v.optionalString("surname")
	if len(rec.Tenants) > 0 {
		if rec.Name == "" {
			rec.Name = rec.Tenants[0].FirstName
		}
		if rec.Surname == "" {
			rec.Surname = rec.Tenants[0].LastName
		}
	}

	if len(v.violations) > 0 {
		return nil, &ValidationError{Fields: v.violations}
	}
	return rec, nil
}

// visit accumulates violations while walking one candidate.
type visit struct {
	candidate  map[string]any
	violations []FieldError
}

func (v *visit) fail(field, msg string) {
	v.violations = append(v.violations, FieldError{Field: field, Message: msg})
}

func (v *visit) tenants() []model.Tenant {
	raw, ok := v.candidate["tenants"]
	if !ok || raw == nil {
		v.fail("tenants", "at least one tenant is required")
		return nil
	}
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		v.fail("tenants", "at least one tenant is required")
		return nil
	}

	tenants := make([]model.Tenant, 0, len(list))
	for i, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			v.fail(fmt.Sprintf("tenants[%d]", i), "tenant entry must be an object")
			continue
		}
		t := model.Tenant{
			FirstName: strings.TrimSpace(asString(entry["first_name"])),
			LastName:  strings.TrimSpace(asString(entry["last_name"])),
		}
		if t.FirstName == "" {
			v.fail(fmt.Sprintf("tenants[%d].first_name", i), "first name is required")
		}
		if t.LastName == "" {
			v.fail(fmt.Sprintf("tenants[%d].last_name", i), "last name is required")
		}
		if raw := asString(entry["birth_date"]); raw != "" {
			bd, err := time.Parse(dateLayout, raw)
			if err != nil {
				v.fail(fmt.Sprintf("tenants[%d].birth_date", i), fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", raw))
			} else {
				t.BirthDate = &bd
			}
		}
		tenants = append(tenants, t)
	}
	return tenants
}

func (v *visit) address() model.Address {
	raw, ok := v.candidate["address"].(map[string]any)
	if !ok {
		v.fail("address", "address object is required")
		return model.Address{}
	}

	addr := model.Address{
		Street:        strings.TrimSpace(asString(raw["street"])),
		HouseNumber:   strings.TrimSpace(asString(raw["house_number"])),
		ZipCode:       strings.TrimSpace(asString(raw["zip_code"])),
		City:          strings.TrimSpace(asString(raw["city"])),
		ApartmentUnit: strings.TrimSpace(asString(raw["apartment_unit"])),
	}

	if addr.Street == "" {
		v.fail("address.street", "street is required")
	}
	if addr.City == "" {
		v.fail("address.city", "city is required")
	}
	if !zipCodeRe.MatchString(addr.ZipCode) {
		v.fail("address.zip_code", fmt.Sprintf("invalid postal code %q, must be exactly 5 digits", addr.ZipCode))
	}
	if !houseNumberRe.MatchString(addr.HouseNumber) {
		v.fail("address.house_number", fmt.Sprintf("invalid house number %q", addr.HouseNumber))
	}
	return addr
}

func (v *visit) requiredAmount(field string) float64 {
	raw, ok := v.candidate[field]
	if !ok || raw == nil {
		v.fail(field, "required monetary field is missing")
		return 0
	}
	amount, err := asDecimal(raw)
	if err != nil {
		v.fail(field, err.Error())
		return 0
	}
	if amount <= 0 {
		v.fail(field, fmt.Sprintf("must be strictly positive, got %v", amount))
	}
	return amount
}

func (v *visit) optionalAmount(field string, min float64) *float64 {
	raw, ok := v.candidate[field]
	if !ok || raw == nil {
		return nil
	}
	amount, err := asDecimal(raw)
	if err != nil {
		v.fail(field, err.Error())
		return nil
	}
	if amount < min {
		v.fail(field, fmt.Sprintf("must be >= %v, got %v", min, amount))
		return nil
	}
	return &amount
}

func (v *visit) rentIncreaseType() model.RentIncreaseType {
	raw, ok := v.candidate["rent_increase_type"]
	if !ok || raw == nil {
		v.fail("rent_increase_type", "rent increase classification is required")
		return ""
	}
	typ := model.RentIncreaseType(strings.TrimSpace(asString(raw)))
	if !typ.IsValid() {
		v.fail("rent_increase_type", fmt.Sprintf("unknown classification %q", typ))
	}
	return typ
}

func (v *visit) schedule() []model.RentIncreaseStep {
	raw, ok := v.candidate["rent_increase_schedule"]
	if !ok || raw == nil {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		v.fail("rent_increase_schedule", "schedule must be a list")
		return nil
	}
	steps := make([]model.RentIncreaseStep, 0, len(list))
	for i, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			v.fail(fmt.Sprintf("rent_increase_schedule[%d]", i), "schedule entry must be an object")
			continue
		}
		step := model.RentIncreaseStep{
			Date:     asString(entry["date"]),
			Increase: asString(entry["increase"]),
		}
		// The source sometimes labels the resulting amount new_cold_rent.
		if na := asString(entry["new_amount"]); na != "" {
			step.NewAmount = na
		} else {
			step.NewAmount = asString(entry["new_cold_rent"])
		}
		steps = append(steps, step)
	}
	return steps
}

func (v *visit) requiredDate(field string) time.Time {
	raw := asString(v.candidate[field])
	if raw == "" {
		v.fail(field, "required date is missing")
		return time.Time{}
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		v.fail(field, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", raw))
		return time.Time{}
	}
	return d
}

func (v *visit) optionalDate(field string) *time.Time {
	raw := asString(v.candidate[field])
	if raw == "" {
		return nil
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		v.fail(field, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", raw))
		return nil
	}
	return &d
}

// booleanDefault reads a boolean field, falling back to def when the key is
// absent or null. A present non-boolean value also falls back rather than
// failing the record.
func (v *visit) booleanDefault(field string, def bool) bool {
	raw, ok := v.candidate[field]
	if !ok || raw == nil {
		return def
	}
	if b, ok := raw.(bool); ok {
		return b
	}
	return def
}

func (v *visit) optionalString(field string) string {
	return strings.TrimSpace(asString(v.candidate[field]))
}

func (v *visit) stringList(field string) []string {
	raw, ok := v.candidate[field]
	if !ok || raw == nil {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		v.fail(field, "must be a list of strings")
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s := strings.TrimSpace(asString(item)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (v *visit) confidenceScores() map[string]float64 {
	raw, ok := v.candidate["confidence_scores"]
	if !ok || raw == nil {
		return nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		v.fail("confidence_scores", "must be a map of field name to score")
		return nil
	}
	scores := make(map[string]float64, len(m))
	for k, val := range m {
		f, err := asDecimal(val)
		if err != nil {
			v.fail("confidence_scores."+k, err.Error())
			continue
		}
		scores[k] = f
	}
	return scores
}

func (v *visit) timestamp(field string) time.Time {
	raw := asString(v.candidate[field])
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// asString renders a scalar candidate value as a string; nil and non-scalar
// values become "".
func asString(raw any) string {
	switch s := raw.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

// asDecimal parses a monetary or numeric candidate value. The extraction
// contract delivers amounts as bare decimal strings, but numbers are
// tolerated too.
func asDecimal(raw any) (float64, error) {
	switch n := raw.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid decimal value %q", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expected a decimal string, got %T", raw)
	}
}
