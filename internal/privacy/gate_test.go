package privacy

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnonymizeRedactsKnownPII(t *testing.T) {
	g := NewGate()

	text := "Call John Smith at 555-123-4567 or email john.smith@example.com"
	redacted, mapping := g.Anonymize(text)

	assert.NotContains(t, redacted, "john.smith@example.com")
	assert.NotContains(t, redacted, "555-123-4567")
	assert.NotContains(t, redacted, "John Smith")
	assert.Len(t, mapping, 3)
}

func TestRoundTrip(t *testing.T) {
	g := NewGate()

	cases := []string{
		"Call John Smith at 555-123-4567 or email john.smith@example.com",
		"no pii here at all",
		"",
		"Two people: Jane Doe and John Smith, two mails a@b.com c@d.org",
		"book something with sarah.connor@skynet.io tomorrow at 3pm",
	}

	for _, text := range cases {
		redacted, mapping := g.Anonymize(text)
		assert.Equal(t, text, g.Deanonymize(redacted, mapping), "round-trip for %q", text)
	}
}

func TestNoPIIEgress(t *testing.T) {
	g := NewGate()

	text := "Meet Alice Walker, alice@walker.dev, cell 4151234567890, then ping Bob Harris"
	redacted, _ := g.Anonymize(text)

	assert.False(t, g.ContainsPII(redacted), "redacted output still matches a PII pattern: %q", redacted)
}

func TestPlaceholderCounterIncreasesAcrossPatterns(t *testing.T) {
	g := NewGate()

	redacted, mapping := g.Anonymize("a@b.com and c@d.com, then John Smith")

	require.Len(t, mapping, 3)
	assert.Contains(t, redacted, "[EMAIL_0]")
	assert.Contains(t, redacted, "[EMAIL_1]")
	assert.Contains(t, redacted, "[NAME_2]")
}

func TestPatternOrderIsDeterministic(t *testing.T) {
	g := NewGate()

	// Same input always yields the same redaction.
	first, _ := g.Anonymize("mail Jane Doe at jane@doe.net")
	for i := 0; i < 10; i++ {
		next, _ := g.Anonymize("mail Jane Doe at jane@doe.net")
		assert.Equal(t, first, next)
	}
}

func TestCustomPatternSet(t *testing.T) {
	g := NewGate(Pattern{Type: "ID", Expr: regexp.MustCompile(`\bID-\d+\b`)})

	redacted, mapping := g.Anonymize("ref ID-1234 and ID-5678")

	assert.Equal(t, "ref [ID_0] and [ID_1]", redacted)
	assert.Equal(t, "ID-1234", mapping["[ID_0]"])
	assert.Equal(t, "ref ID-1234 and ID-5678", g.Deanonymize(redacted, mapping))
}
