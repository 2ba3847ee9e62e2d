package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name    string
		current string
		next    string
		want    bool
	}{
		{"ordered to accepted", StatusOrdered, StatusAccepted, true},
		{"ordered to rejected", StatusOrdered, StatusRejected, true},
		{"ordered to cancelled", StatusOrdered, StatusCancelled, true},
		{"ordered to ordered", StatusOrdered, StatusOrdered, false},
		{"accepted is terminal", StatusAccepted, StatusRejected, false},
		{"rejected is terminal", StatusRejected, StatusAccepted, false},
		{"cancelled is terminal", StatusCancelled, StatusOrdered, false},
		{"unknown target", StatusOrdered, "Done", false},
		{"unknown source", "Pending", StatusAccepted, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransition(tc.current, tc.next))
		})
	}
}

func TestIsValidStatus(t *testing.T) {
	for _, s := range []string{StatusOrdered, StatusAccepted, StatusRejected, StatusCancelled} {
		assert.True(t, IsValidStatus(s))
	}
	for _, s := range []string{"", "Done", "ordered", "ACCEPTED"} {
		assert.False(t, IsValidStatus(s))
	}
}

func TestIsTerminalStatus(t *testing.T) {
	assert.False(t, IsTerminalStatus(StatusOrdered))
	assert.True(t, IsTerminalStatus(StatusAccepted))
	assert.True(t, IsTerminalStatus(StatusRejected))
	assert.True(t, IsTerminalStatus(StatusCancelled))
	assert.False(t, IsTerminalStatus("Done"))
}
