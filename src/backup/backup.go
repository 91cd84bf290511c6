package backup

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/atulbakery/ishan-assistant/src/conversation"
)

// AppLabel is written into every backup. It is not checked on restore.
const AppLabel = "Ishan Assistant AI"

// ErrInvalidBackup is returned for any document that cannot be restored.
var ErrInvalidBackup = errors.New("invalid backup file")

// Document is the on-disk backup shape.
type Document struct {
	Messages     []conversation.Message `json:"messages"`
	Instructions map[string]string      `json:"instructions"`
	Timestamp    string                 `json:"timestamp"`
	App          string                 `json:"app"`
}

// Snapshot is what a restore yields. Instructions is nil when the document had none,
// meaning the current overrides stay as they are.
type Snapshot struct {
	Messages     []conversation.Message
	Instructions map[string]string
}

// Serialize writes the conversation and instruction overrides as indented JSON.
func Serialize(messages []conversation.Message, overrides map[string]string, now time.Time) ([]byte, error) {
	if messages == nil {
		messages = []conversation.Message{}
	}
	if overrides == nil {
		overrides = map[string]string{}
	}
	b, err := json.MarshalIndent(Document{
		Messages:     messages,
		Instructions: overrides,
		Timestamp:    now.UTC().Format(time.RFC3339),
		App:          AppLabel,
	}, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode backup")
	}
	return b, nil
}

// Deserialize validates and parses a backup document.
func Deserialize(blob []byte) (Snapshot, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(blob, &top); err != nil || top == nil {
		return Snapshot{}, ErrInvalidBackup
	}

	rawMessages, ok := top["messages"]
	if !ok || !isArray(rawMessages) {
		return Snapshot{}, ErrInvalidBackup
	}
	var messages []conversation.Message
	if err := json.Unmarshal(rawMessages, &messages); err != nil {
		return Snapshot{}, errors.Wrap(ErrInvalidBackup, err.Error())
	}
	restored, ok := conversation.Restore(messages)
	if !ok {
		return Snapshot{}, ErrInvalidBackup
	}

	snap := Snapshot{Messages: restored}
	if rawIns, ok := top["instructions"]; ok && !isNull(rawIns) {
		var ins map[string]string
		if err := json.Unmarshal(rawIns, &ins); err != nil {
			return Snapshot{}, errors.Wrap(ErrInvalidBackup, "instructions")
		}
		if ins == nil {
			ins = map[string]string{}
		}
		snap.Instructions = ins
	}
	return snap, nil
}

// Filename is the suggested download name for a backup taken at now.
func Filename(now time.Time) string {
	return "ishan_assistant_backup_" + now.Format("2006-01-02") + ".json"
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
