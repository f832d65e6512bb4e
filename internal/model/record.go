package model

import (
	"strings"
	"time"
)

// RentIncreaseType classifies the rent-increase mechanism of a lease.
type RentIncreaseType string

const (
	RentIncreaseIndexLinked RentIncreaseType = "index-linked"
	RentIncreasePercentage  RentIncreaseType = "percentage"
	RentIncreaseFixedStep   RentIncreaseType = "fixed_step"
	RentIncreaseNone        RentIncreaseType = "none"
	RentIncreaseUnknown     RentIncreaseType = "unknown"
)

// ValidRentIncreaseTypes lists the accepted classification values.
var ValidRentIncreaseTypes = []RentIncreaseType{
	RentIncreaseIndexLinked,
	RentIncreasePercentage,
	RentIncreaseFixedStep,
	RentIncreaseNone,
	RentIncreaseUnknown,
}

// IsValid reports whether t is one of the enumerated classifications.
func (t RentIncreaseType) IsValid() bool {
	for _, v := range ValidRentIncreaseTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Tenant is a single tenant named on the lease.
type Tenant struct {
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
}

// FullName returns "First Last".
func (t Tenant) FullName() string {
	return strings.TrimSpace(t.FirstName + " " + t.LastName)
}

// Address is the rented property's address.
type Address struct {
	Street        string `json:"street"`
	HouseNumber   string `json:"house_number"`
	ZipCode       string `json:"zip_code"`
	City          string `json:"city"`
	ApartmentUnit string `json:"apartment_unit,omitempty"`
}

// RentIncreaseStep is one entry of a fixed-step (Staffelmiete) schedule.
type RentIncreaseStep struct {
	Date      string `json:"date"`
	Increase  string `json:"increase"`
	NewAmount string `json:"new_amount"`
}

// Record is a validated lease extraction. It is created once per successful
// extraction cycle and is read-only thereafter; the quality engine never
// mutates it.
type Record struct {
	Tenants []Tenant `json:"tenants"`

	// Legacy display-name fields, auto-filled from the first tenant at
	// validation time. Kept for downstream consumers that predate the
	// multi-tenant shape.
	Name    string `json:"name,omitempty"`
	Surname string `json:"surname,omitempty"`

	Address Address `json:"address"`

	WarmRent      float64  `json:"warm_rent"`
	ColdRent      float64  `json:"cold_rent"`
	UtilitiesCost *float64 `json:"utilities_cost,omitempty"`
	ParkingRent   *float64 `json:"parking_rent,omitempty"`

	RentIncreaseType     RentIncreaseType   `json:"rent_increase_type"`
	RentIncreaseSchedule []RentIncreaseStep `json:"rent_increase_schedule,omitempty"`

	ContractStartDate time.Time  `json:"contract_start_date"`
	ContractEndDate   *time.Time `json:"contract_end_date,omitempty"`
	IsActive          bool       `json:"is_active"`

	LandlordName      string   `json:"landlord_name,omitempty"`
	LandlordAddress   string   `json:"landlord_address,omitempty"`
	DepositAmount     *float64 `json:"deposit_amount,omitempty"`
	NoticePeriod      string   `json:"notice_period,omitempty"`
	SpecialClauses    []string `json:"special_clauses,omitempty"`
	UtilitiesIncluded []string `json:"utilities_included,omitempty"`
	SquareMeters      *float64 `json:"square_meters,omitempty"`
	NumberOfRooms     *float64 `json:"number_of_rooms,omitempty"`

	ConfidenceScores map[string]float64 `json:"confidence_scores,omitempty"`

	AIModelUsed         string    `json:"ai_model_used"`
	ExtractionTimestamp time.Time `json:"extraction_timestamp"`
}

// PrimaryTenant returns the first tenant, or a zero Tenant if none exist.
// A validated Record always has at least one tenant.
func (r *Record) PrimaryTenant() Tenant {
	if len(r.Tenants) == 0 {
		return Tenant{}
	}
	return r.Tenants[0]
}

// AllTenantNames returns a comma-separated list of tenant full names.
func (r *Record) AllTenantNames() string {
	names := make([]string, 0, len(r.Tenants))
	for _, t := range r.Tenants {
		names = append(names, t.FullName())
	}
	return strings.Join(names, ", ")
}

// ExtractionStatus tracks an extraction record through its lifecycle.
type ExtractionStatus string

const (
	StatusProcessing ExtractionStatus = "processing"
	StatusSuccess    ExtractionStatus = "success"
	StatusPartial    ExtractionStatus = "partial"
	StatusFailed     ExtractionStatus = "failed"
)

// ExtractionResult is one journaled extraction: the input file, the validated
// record (if any), its quality report, and processing metadata.
type ExtractionResult struct {
	ID               string           `json:"id"`
	Filename         string           `json:"filename"`
	Status           ExtractionStatus `json:"status"`
	Record           *Record          `json:"extraction,omitempty"`
	Report           *QualityReport   `json:"quality,omitempty"`
	ProcessingTimeMs int64            `json:"processing_time_ms"`
	ErrorMessage     string           `json:"error_message,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
