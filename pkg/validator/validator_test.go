package validator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ProductID uuid.UUID `validate:"uuid_required"`
	Quantity  int       `validate:"required,gt=0"`
	Name      string    `validate:"notblank"`
}

func TestValidateStruct(t *testing.T) {
	errs := ValidateStruct(sample{ProductID: uuid.New(), Quantity: 3, Name: "Cable"})
	assert.Empty(t, errs)

	errs = ValidateStruct(sample{Quantity: 0, Name: "   "})
	require.Len(t, errs, 3)

	tags := map[string]string{}
	for _, e := range errs {
		tags[e.FailedField] = e.Tag
	}
	assert.Equal(t, "uuid_required", tags["sample.ProductID"])
	assert.Equal(t, "required", tags["sample.Quantity"])
	assert.Equal(t, "notblank", tags["sample.Name"])
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "please restock", SanitizeText("  <b>please</b> restock<script>alert(1)</script> "))
	assert.Equal(t, "", SanitizeText("   "))
	assert.Equal(t, "don't mix R&D stock", SanitizeText("don't mix R&D stock"))
}
