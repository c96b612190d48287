package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	Username string `json:"username" validate:"required,min=3"`
	Points   int    `json:"points" validate:"required"`
}

func TestValidateStructCollectsFailures(t *testing.T) {
	err := ValidateStruct(&samplePayload{Username: "ab"})
	require.Error(t, err)

	failures, ok := err.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, failures, 2)
	require.Equal(t, "username", failures[0].Field)
	require.Equal(t, "min", failures[0].Tag)
	require.Equal(t, "points", failures[1].Field)
	require.Equal(t, "required", failures[1].Tag)
}

func TestValidateStructPasses(t *testing.T) {
	require.NoError(t, ValidateStruct(&samplePayload{Username: "alice", Points: 5}))
}
