package inventory_test

import (
	"testing"

	"github.com/rpggio/stocksync/internal/domain/inventory"
	"github.com/stretchr/testify/require"
)

func TestTransition_Valid(t *testing.T) {
	cases := []struct {
		from  inventory.State
		event inventory.Event
		to    inventory.State
	}{
		{inventory.StateActive, inventory.EventDelete, inventory.StateTrashed},
		{inventory.StateTrashed, inventory.EventRestore, inventory.StateActive},
		{inventory.StateTrashed, inventory.EventPurge, inventory.StatePurged},
	}
	for _, tc := range cases {
		got, err := inventory.Transition(tc.from, tc.event)
		require.NoError(t, err)
		require.Equal(t, tc.to, got)
	}
}

func TestTransition_Invalid(t *testing.T) {
	cases := []struct {
		from  inventory.State
		event inventory.Event
	}{
		{inventory.StateActive, inventory.EventPurge},
		{inventory.StateActive, inventory.EventRestore},
		{inventory.StateTrashed, inventory.EventDelete},
		{inventory.StatePurged, inventory.EventRestore},
		{inventory.StatePurged, inventory.EventDelete},
		{inventory.StatePurged, inventory.EventPurge},
		{inventory.StateUnknown, inventory.EventRestore},
	}
	for _, tc := range cases {
		got, err := inventory.Transition(tc.from, tc.event)
		require.ErrorIs(t, err, inventory.ErrInvalidTransition)
		require.Equal(t, tc.from, got)
	}
	require.True(t, inventory.StatePurged.IsTerminal())
	require.False(t, inventory.StateTrashed.IsTerminal())
}
