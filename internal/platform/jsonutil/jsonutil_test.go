package jsonutil_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"field-dispatch-service/internal/platform/jsonutil"
)

func TestExtractJSONFromMarkdownFence(t *testing.T) {
	content := "Here is your plan:\n```json\n{\"suggestions\": []}\n```\nLet me know!"
	assert.Equal(t, `{"suggestions": []}`, jsonutil.ExtractJSON(content))
}

func TestExtractJSONBareObject(t *testing.T) {
	content := `Sure thing. {"suggestions": [{"name": "North loop"}]} Hope that helps.`
	assert.Equal(t, `{"suggestions": [{"name": "North loop"}]}`, jsonutil.ExtractJSON(content))
}

func TestExtractJSONCleansArtifacts(t *testing.T) {
	content := "```json\n" +
		"{\n" +
		"  \"suggestions\": [\n" +
		"    {\"name\": \"Loop\", \"url\": \"http://example.com\"}, // main route\n" +
		"  ],\n" +
		"}\n" +
		"```"

	extracted := jsonutil.ExtractJSON(content)

	var parsed struct {
		Suggestions []struct {
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal([]byte(extracted), &parsed))
	require.Len(t, parsed.Suggestions, 1)
	assert.Equal(t, "Loop", parsed.Suggestions[0].Name)
	assert.Equal(t, "http://example.com", parsed.Suggestions[0].URL)
}

func TestExtractJSONNoObject(t *testing.T) {
	assert.Equal(t, "", jsonutil.ExtractJSON("I could not produce a plan."))
}
