package notify

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/debforge/internal/config"
)

func TestNewAnnouncerRejectsDisabled(t *testing.T) {
	_, err := NewAnnouncer(config.NotifyConfig{Enabled: false, URL: "nats://localhost:4222"})
	require.Error(t, err)
}

func TestEventJSONShape(t *testing.T) {
	e := Event{
		Type:         EventBuildFinished,
		BuildID:      "abc",
		Package:      "hello",
		Version:      "1.0-1",
		Architecture: "amd64",
		Distribution: "bookworm",
		Status:       "success",
		Artifacts:    []string{"hello_1.0-1_amd64.deb"},
	}

	data, err := json.Marshal(e)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "build.finished", decoded["type"])
	assert.Equal(t, "abc", decoded["build_id"])
	assert.Contains(t, decoded, "timestamp")
}
