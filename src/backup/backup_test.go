package backup

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atulbakery/ishan-assistant/src/conversation"
)

var at = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func TestSerializeRoundTrip(t *testing.T) {
	msgs := []conversation.Message{
		conversation.NewBotMessage("Good Morning ☀️", at),
		conversation.NewUserMessage("Priya, 9876543210", at),
	}
	blob, err := Serialize(msgs, map[string]string{"ishan-assistant": "be brief"}, at)
	require.NoError(t, err)
	require.Contains(t, string(blob), "\n  \"messages\": [")
	require.Contains(t, string(blob), `"app": "Ishan Assistant AI"`)
	require.Contains(t, string(blob), `"timestamp": "2026-03-14T09:30:00Z"`)

	snap, err := Deserialize(blob)
	require.NoError(t, err)
	require.Equal(t, msgs, snap.Messages)
	require.Equal(t, map[string]string{"ishan-assistant": "be brief"}, snap.Instructions)
}

func TestSerializeEmpty(t *testing.T) {
	blob, err := Serialize(nil, nil, at)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(blob, &doc))
	require.Equal(t, []any{}, doc["messages"])
	require.Equal(t, map[string]any{}, doc["instructions"])
}

func TestDeserializeRejects(t *testing.T) {
	for name, blob := range map[string]string{
		"not json":          `{{`,
		"array top level":   `[]`,
		"string top level":  `"x"`,
		"null":              `null`,
		"missing messages":  `{"instructions":{}}`,
		"messages object":   `{"messages":{"a":1}}`,
		"messages string":   `{"messages":"hello"}`,
		"messages null":     `{"messages":null}`,
		"bad message shape": `{"messages":[1,2]}`,
		"bad instructions":  `{"messages":[],"instructions":["x"]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Deserialize([]byte(blob))
			require.True(t, errors.Is(err, ErrInvalidBackup), err)
			require.Contains(t, err.Error(), "invalid backup file")
		})
	}
}

func TestDeserializeAbsentInstructions(t *testing.T) {
	snap, err := Deserialize([]byte(`{"messages":[],"app":"something else"}`))
	require.NoError(t, err)
	require.NotNil(t, snap.Messages)
	require.Empty(t, snap.Messages)
	require.Nil(t, snap.Instructions)
}

func TestFilename(t *testing.T) {
	require.Equal(t, "ishan_assistant_backup_2026-03-14.json", Filename(at))
}
