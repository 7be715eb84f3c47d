package audit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeRedactsSecretKeys(t *testing.T) {
	in := map[string]interface{}{
		"username":    "admin",
		"password":    "hunter2",
		"NewPassword": "hunter3",
		"Token":       "abc",
		"AUTHORIZATION": map[string]interface{}{
			"nested": "value",
		},
		"jwt":    "xyz",
		"secret": "s3cret",
	}

	out, ok := Sanitize(in).(map[string]interface{})
	require.True(t, ok)

	assert.Equal(t, "admin", out["username"])
	assert.Equal(t, "[redacted]", out["password"])
	assert.Equal(t, "[redacted]", out["NewPassword"])
	assert.Equal(t, "[redacted]", out["Token"])
	assert.Equal(t, "[redacted]", out["AUTHORIZATION"])
	assert.Equal(t, "[redacted]", out["jwt"])
	assert.Equal(t, "[redacted]", out["secret"])
}

func TestSanitizeDepthCap(t *testing.T) {
	in := map[string]interface{}{
		"l1": map[string]interface{}{
			"l2": map[string]interface{}{
				"l3": map[string]interface{}{
					"l4": "too deep",
				},
			},
		},
	}

	out := Sanitize(in).(map[string]interface{})
	l1 := out["l1"].(map[string]interface{})
	l2 := l1["l2"].(map[string]interface{})
	assert.Equal(t, "[max-depth]", l2["l3"])
}

func TestSanitizeTruncatesLongStrings(t *testing.T) {
	long := strings.Repeat("á", 250)

	out := Sanitize(long).(string)
	assert.Equal(t, 201, len([]rune(out)))
	assert.True(t, strings.HasSuffix(out, "…"))

	// Exactly at the limit nothing is lost.
	exact := strings.Repeat("x", 200)
	assert.Equal(t, exact, Sanitize(exact))
}

func TestSanitizeCapsArrays(t *testing.T) {
	in := make([]interface{}, 30)
	for i := range in {
		in[i] = i
	}

	out := Sanitize(in).([]interface{})
	assert.Len(t, out, 20)
}

func TestSanitizeScalarsPassThrough(t *testing.T) {
	assert.Nil(t, Sanitize(nil))
	assert.Equal(t, true, Sanitize(true))
	assert.Equal(t, 42.5, Sanitize(42.5))
	assert.Equal(t, "hola", Sanitize("hola"))
}
