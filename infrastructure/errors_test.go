package infrastructure

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError_EmptyIsNil(t *testing.T) {
	v := NewValidationError("dialog")
	assert.NoError(t, v.Err())
}

func TestValidationError_JoinsViolations(t *testing.T) {
	v := NewValidationError("dialog")
	v.Add("name is required for dialog type: %s", "group")
	v.Add("duplicate participant: %s", "u1")

	err := v.Err()
	require.Error(t, err)
	assert.Equal(t, "dialog validation failed: name is required for dialog type: group; duplicate participant: u1", err.Error())

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Violations, 2)
}

func TestDeliveryError_Unwrap(t *testing.T) {
	cause := errors.New("apns unreachable")
	derr := &DeliveryError{RecipientID: "u1", Path: "push", Cause: cause}

	assert.ErrorIs(t, derr, cause)
	assert.Equal(t, "delivery to u1 failed over push: apns unreachable", derr.Error())
}
