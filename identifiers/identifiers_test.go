package identifiers

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func TestParseToolId_Table(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"simple", "text_uppercase", false},
		{"dash", "text-reverse", false},
		{"too long", strings.Repeat("a", 65), true},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"dot not allowed", "tool.name", true},
		{"colon not allowed", "tool:name", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := ParseToolId(c.in)
			if c.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestParseMemoryKey_AllowsDotsAndColons(t *testing.T) {
	k, err := ParseMemoryKey("cache.user:42")
	require.NoError(t, err)
	require.Equal(t, "cache.user:42", k.String())
}

func TestParseMemoryKey_RejectsSlash(t *testing.T) {
	_, err := ParseMemoryKey("key/path")
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, ValidationInvalidChar, ve.Kind)
	require.Equal(t, '/', ve.Char)
}

func TestMemoryKeys_WellKnown(t *testing.T) {
	require.Equal(t, "last_input", MemoryKeys.LastInput().String())
	require.Equal(t, "conversation_history", MemoryKeys.ConversationHistory().String())
}

func TestSessionId_RoundTrip(t *testing.T) {
	id := NewSessionId()
	parsed, err := ParseSessionId(id.String())
	require.NoError(t, err)
	require.Equal(t, id.String(), parsed.String())
}

func TestSessionId_RejectsNonUUID(t *testing.T) {
	_, err := ParseSessionId("not-a-uuid")
	require.Error(t, err)
}

// Identifier totality: ParseToolId succeeds iff s matches the grammar.
func TestToolIdTotality_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("alpha strings within length always parse", prop.ForAll(
		func(s string) bool {
			trimmed := strings.TrimSpace(s)
			_, err := ParseToolId(s)
			if trimmed == "" {
				return err != nil
			}
			if len([]rune(trimmed)) > 64 {
				return err != nil
			}
			return err == nil
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) <= 64 }),
	))

	properties.TestingRun(t)
}
