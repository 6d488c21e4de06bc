package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name string `binding:"required"`
	Age  int    `binding:"gte=0"`
}

func TestValidate(t *testing.T) {
	assert.Nil(t, Validate(&sample{Name: "x"}))

	errs := Validate(&sample{Age: -1})
	assert.Equal(t, "required", errs["Name"])
	assert.Equal(t, "gte", errs["Age"])
}
