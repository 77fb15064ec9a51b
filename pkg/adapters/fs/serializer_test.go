package fs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializers(t *testing.T) {
	doc := []byte(`{"calendar":{"2024-06-01":{"diary":"hi","mood":"sad","tasks":[{"completed":false,"text":"a"}]}},"vision":[]}`)

	for ext, s := range DefaultSerializers() {
		t.Run(ext, func(t *testing.T) {
			encoded, err := s.Encode(doc)
			require.NoError(t, err)

			decoded, err := s.Decode(encoded)
			require.NoError(t, err)
			assert.JSONEq(t, string(doc), string(decoded))
		})
	}
}

func TestYAMLSerializer_HandEdited(t *testing.T) {
	input := `
calendar:
  "2024-06-01":
    tasks:
      - text: Buy food
        completed: true
    mood: happy
vision: []
`
	out, err := YAMLSerializer{}.Decode([]byte(input))
	require.NoError(t, err)
	assert.JSONEq(t, `{"calendar":{"2024-06-01":{"tasks":[{"text":"Buy food","completed":true}],"mood":"happy"}},"vision":[]}`, string(out))
}

func TestJSONSerializer_Invalid(t *testing.T) {
	_, err := JSONSerializer{}.Decode([]byte(`{"calendar":`))
	assert.Error(t, err)

	out, err := JSONSerializer{}.Encode([]byte(`{"vision":[]}`))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(out), "\n"))
}
