package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientID_DeterministicForSameInputs(t *testing.T) {
	a := ClientID("secret", "1.2.3.4", "ua-1")
	b := ClientID("secret", "1.2.3.4", "ua-1")
	assert.Equal(t, a, b)
}

func TestClientID_DifferentInputsDiffer(t *testing.T) {
	a := ClientID("secret", "1.2.3.4", "ua-1")
	b := ClientID("secret", "1.2.3.5", "ua-1")
	assert.NotEqual(t, a, b)
}

func TestClientID_EmptyInputsAreNotDeterministic(t *testing.T) {
	a := ClientID("secret", "", "")
	b := ClientID("secret", "", "")
	assert.NotEqual(t, a, b)
}

// TestAnonymizeIP_ZeroesLowBits covers property 7: stored IPs never carry
// their final octets.
func TestAnonymizeIP_ZeroesLowBits(t *testing.T) {
	assert.Equal(t, "203.0.0.0", AnonymizeIP("203.0.113.42"))
}

func TestAnonymizeIP_V6(t *testing.T) {
	got := AnonymizeIP("2001:db8::ff00:42:8329")
	assert.NotEmpty(t, got)
	assert.NotEqual(t, "2001:db8::ff00:42:8329", got)
}

func TestAnonymizeIP_Unparseable(t *testing.T) {
	assert.Equal(t, "", AnonymizeIP("not-an-ip"))
}

func TestPersistedUserAgent_DropUAWins(t *testing.T) {
	assert.Equal(t, "", PersistedUserAgent("Mozilla/5.0", ParsedUA{Browser: "Chrome", OS: "Windows"}, true))
}

func TestPersistedUserAgent_RareSentinel(t *testing.T) {
	got := PersistedUserAgent("some-weird-bot/1.0", ParsedUA{Browser: "Unknown", OS: "Unknown"}, false)
	assert.Equal(t, RareUserAgentSentinel, got)
}

func TestPersistedUserAgent_PassesThroughKnownUA(t *testing.T) {
	got := PersistedUserAgent("Mozilla/5.0", ParsedUA{Browser: "Chrome", OS: "Windows"}, false)
	assert.Equal(t, "Mozilla/5.0", got)
}
