package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type schedulePayload struct {
	Title    string `json:"title" validate:"required,min=3"`
	Priority string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
}

func TestValidateStructPasses(t *testing.T) {
	require.NoError(t, ValidateStruct(&schedulePayload{Title: "Night patrol", Priority: "high"}))
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	err := ValidateStruct(&schedulePayload{Priority: "critical"})
	require.Error(t, err)

	failures, ok := err.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, failures, 2)

	fields := []string{failures[0].Field, failures[1].Field}
	require.Contains(t, fields, "title")
	require.Contains(t, fields, "priority")
}
