package amqp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerEventJSON(t *testing.T) {
	event := NewLedgerEvent(42, EntityTransaction, ActionCreated, 7)

	body, err := event.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(body), `"entity":"transaction"`)
	assert.NotContains(t, string(body), "amount", "events carry identifiers only")

	decoded, err := LedgerEventFromJSON(body)
	require.NoError(t, err)
	assert.Equal(t, int64(42), decoded.UserID)
	assert.Equal(t, ActionCreated, decoded.Action)
	assert.Equal(t, int64(7), decoded.EntityID)
	assert.WithinDuration(t, time.Now().UTC(), decoded.Timestamp, time.Minute)
}

func TestLedgerEventFromJSONRejectsGarbage(t *testing.T) {
	_, err := LedgerEventFromJSON([]byte("not json"))
	assert.Error(t, err)
}
