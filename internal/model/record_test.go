package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRentIncreaseTypeIsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ  RentIncreaseType
		want bool
	}{
		{RentIncreaseIndexLinked, true},
		{RentIncreasePercentage, true},
		{RentIncreaseFixedStep, true},
		{RentIncreaseNone, true},
		{RentIncreaseUnknown, true},
		{RentIncreaseType("staffelmiete"), false},
		{RentIncreaseType(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.typ.IsValid())
		})
	}
}

func TestTenantFullName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Jane Doe", Tenant{FirstName: "Jane", LastName: "Doe"}.FullName())
	assert.Equal(t, "Jane", Tenant{FirstName: "Jane"}.FullName())
}

func TestRecordPrimaryTenant(t *testing.T) {
	t.Parallel()

	r := &Record{Tenants: []Tenant{
		{FirstName: "Daniela", LastName: "Rudolph"},
		{FirstName: "Hendrik", LastName: "Weber"},
	}}
	assert.Equal(t, "Daniela", r.PrimaryTenant().FirstName)
	assert.Equal(t, "Daniela Rudolph, Hendrik Weber", r.AllTenantNames())

	empty := &Record{}
	assert.Equal(t, Tenant{}, empty.PrimaryTenant())
	assert.Equal(t, "", empty.AllTenantNames())
}

func TestExtractionStatusValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status ExtractionStatus
		want   string
	}{
		{StatusProcessing, "processing"},
		{StatusSuccess, "success"},
		{StatusPartial, "partial"},
		{StatusFailed, "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, string(tt.status))
		})
	}
}

func TestRecordOptionalFieldsOmitted(t *testing.T) {
	t.Parallel()

	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	r := Record{ContractEndDate: &end}
	assert.NotNil(t, r.ContractEndDate)
	assert.Nil(t, r.UtilitiesCost)
	assert.Nil(t, r.DepositAmount)
}
