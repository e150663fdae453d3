package extract

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const payload = `{"categories":[{"name":"Work","tasks":[0,1],"priority_ranking":4}],"reasoning":"ok"}`

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v), "not JSON: %q", s)
	return v
}

func TestJSON_PlainJSONIsReturnedTrimmed(t *testing.T) {
	inputs := []string{
		payload,
		"  \n" + payload + "\n\t ",
		`[1,2,3]`,
		`{"a":{"b":[{"c":null}]}}`,
	}
	for _, in := range inputs {
		assert.Equal(t, strings.TrimSpace(in), JSON(in))
	}
}

func TestJSON_FenceVariants(t *testing.T) {
	want := decode(t, payload)

	tests := []struct {
		name string
		in   string
	}{
		{"tagged with blank line", "```json  \n" + payload + "\n```"},
		{"tagged", "```json\n" + payload + "\n```"},
		{"untagged with spaces", "```   \n" + payload + "\n```"},
		{"untagged", "```\n" + payload + "\n```"},
		{"tagged inline", "```json" + payload + "```"},
		{"untagged inline", "```" + payload + "```"},
		{"tagged with prose", "Here is the plan:\n```json\n" + payload + "\n```\nLet me know!"},
		{"untagged with prose", "Sure.\n\n```\n" + payload + "\n```\n\nDone."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := JSON(tt.in)
			if diff := cmp.Diff(want, decode(t, got)); diff != "" {
				t.Errorf("JSON() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestJSON_LeadingAndTrailingProse(t *testing.T) {
	in := "Okay, I grouped them for you. " + payload + " Hope this helps {smile}."
	got := JSON(in)
	// Greedy outer braces grab the trailing "{smile}" too, which does not
	// parse, so the raw text comes back.
	assert.Equal(t, in, got)

	in = "Okay, I grouped them for you.\n" + payload + "\nHope this helps."
	got = JSON(in)
	if diff := cmp.Diff(decode(t, payload), decode(t, got)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestJSON_NewlinesInsideFence(t *testing.T) {
	in := "```json\n{\"summary\": \"first line\nsecond line\",\r\n \"total_tasks\": 2}\n```"
	got := JSON(in)
	assert.Equal(t, map[string]any{
		"summary":     "first line second line",
		"total_tasks": float64(2),
	}, decode(t, got))
}

func TestJSON_ProseAroundEmptyCategories(t *testing.T) {
	in := "prose... ```json\n{\"categories\":[]}\n``` ...more prose"
	assert.Equal(t, `{"categories":[]}`, JSON(in))
}

func TestJSON_GarbageIsReturnedUnchanged(t *testing.T) {
	tests := []string{
		"I'm sorry, I can't help with that.",
		"  {not json at all}  ",
		"```json\n{\"a\": }\n```",
		"",
	}
	for _, in := range tests {
		got := JSON(in)
		assert.Equal(t, strings.TrimSpace(in), got)
		assert.False(t, json.Valid([]byte(got)) && got != "", "unexpectedly valid: %q", got)
	}
}
