package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/sokohub/settlement-service/internal/domain/errors"
)

func newAwaitingIntent(t *testing.T) *Intent {
	t.Helper()

	intent, err := NewIntent(1000, "+254712345678")
	require.NoError(t, err)
	require.NoError(t, intent.Request())
	require.NoError(t, intent.Accept("MM-REF-001"))
	return intent
}

func TestNewIntent_Validation(t *testing.T) {
	_, err := NewIntent(0, "+254712345678")
	assert.ErrorIs(t, err, domainErrors.ErrInvalidAmount)

	_, err = NewIntent(-5, "+254712345678")
	assert.ErrorIs(t, err, domainErrors.ErrInvalidAmount)

	_, err = NewIntent(1000, "not-a-phone")
	assert.ErrorIs(t, err, domainErrors.ErrInvalidPhoneNumber)

	intent, err := NewIntent(1000, "+254712345678")
	require.NoError(t, err)
	assert.Equal(t, StateIdle, intent.State())
}

func TestIntent_HappyPath(t *testing.T) {
	intent, err := NewIntent(1000, "254712345678")
	require.NoError(t, err)

	require.NoError(t, intent.Request())
	assert.Equal(t, StateRequested, intent.State())

	require.NoError(t, intent.Accept("MM-REF-001"))
	assert.Equal(t, StateAwaitingConfirmation, intent.State())
	assert.Equal(t, "MM-REF-001", intent.ExternalReference)

	require.NoError(t, intent.Succeed())
	assert.Equal(t, StateSucceeded, intent.State())
	assert.True(t, intent.Terminal())
}

func TestIntent_RejectReturnsToIdle(t *testing.T) {
	intent, err := NewIntent(1000, "+254712345678")
	require.NoError(t, err)
	require.NoError(t, intent.Request())

	require.NoError(t, intent.Reject())
	assert.Equal(t, StateIdle, intent.State())

	// The operator can retry straight away.
	require.NoError(t, intent.Request())
}

func TestIntent_AcceptRequiresReference(t *testing.T) {
	intent, err := NewIntent(1000, "+254712345678")
	require.NoError(t, err)
	require.NoError(t, intent.Request())

	assert.ErrorIs(t, intent.Accept(""), domainErrors.ErrInvalidStateTransition)
}

func TestIntent_SucceedOnlyOnce(t *testing.T) {
	intent := newAwaitingIntent(t)

	require.NoError(t, intent.Succeed())

	// A duplicate confirmation cannot drive a second success.
	assert.ErrorIs(t, intent.Succeed(), domainErrors.ErrInvalidStateTransition)
}

func TestIntent_IllegalTransitions(t *testing.T) {
	intent, err := NewIntent(1000, "+254712345678")
	require.NoError(t, err)

	// Nothing terminal is reachable from Idle.
	assert.ErrorIs(t, intent.Succeed(), domainErrors.ErrInvalidStateTransition)
	assert.ErrorIs(t, intent.Fail("x"), domainErrors.ErrInvalidStateTransition)
	assert.ErrorIs(t, intent.Timeout(), domainErrors.ErrInvalidStateTransition)
	assert.ErrorIs(t, intent.Accept("MM-REF-001"), domainErrors.ErrInvalidStateTransition)
	assert.ErrorIs(t, intent.Reject(), domainErrors.ErrInvalidStateTransition)

	require.NoError(t, intent.Request())
	assert.ErrorIs(t, intent.Request(), domainErrors.ErrInvalidStateTransition)
}

func TestIntent_FailRecordsReason(t *testing.T) {
	intent := newAwaitingIntent(t)

	require.NoError(t, intent.Fail("insufficient funds"))

	assert.Equal(t, StateFailed, intent.State())
	assert.Equal(t, "insufficient funds", intent.FailureReason)
	assert.ErrorIs(t, intent.Timeout(), domainErrors.ErrInvalidStateTransition)
}

func TestIntent_TimeoutIsTerminal(t *testing.T) {
	intent := newAwaitingIntent(t)

	require.NoError(t, intent.Timeout())

	assert.Equal(t, StateTimedOut, intent.State())
	// A late confirmation cannot resurrect the intent.
	assert.ErrorIs(t, intent.Succeed(), domainErrors.ErrInvalidStateTransition)
}

func TestValidMSISDN(t *testing.T) {
	valid := []string{"+254712345678", "254712345678", "123456789", "+123456789012345"}
	for _, phone := range valid {
		assert.True(t, ValidMSISDN(phone), phone)
	}

	invalid := []string{"", "+", "12345678", "1234567890123456", "+2547a2345678", "07-12345678"}
	for _, phone := range invalid {
		assert.False(t, ValidMSISDN(phone), phone)
	}
}
