package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParticipationStatusNormalize(t *testing.T) {
	assert.Equal(t, StatusApproved, ParticipationStatus("agreed").Normalize())
	assert.Equal(t, StatusApproved, StatusAgreed.Normalize())
	assert.Equal(t, StatusPending, ParticipationStatus("pending").Normalize())
	assert.Equal(t, StatusCompleted, ParticipationStatus("Completed").Normalize())
}

func TestParticipationStatusValid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusAgreed.Valid())
	assert.True(t, ParticipationStatus("rejected").Valid())
	assert.False(t, ParticipationStatus("DECLINED").Valid())
	assert.False(t, ParticipationStatus("").Valid())
}

func TestParticipationStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusApproved.Terminal())
	assert.False(t, StatusAgreed.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.True(t, StatusCompleted.Terminal())
}

func TestParticipationStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to ParticipationStatus
		allowed  bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusCompleted, false},
		{StatusApproved, StatusCompleted, true},
		{StatusApproved, StatusRejected, false},
		{StatusApproved, StatusPending, false},
		{StatusRejected, StatusApproved, false},
		{StatusRejected, StatusCompleted, false},
		{StatusCompleted, StatusApproved, false},
		{StatusCompleted, StatusPending, false},
		{StatusAgreed, StatusCompleted, true},
		{StatusPending, StatusPending, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}
