package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAESSealerRoundTrip(t *testing.T) {
	s := newSealer("correct horse battery staple")

	sealed, err := s.Seal([]byte(`{"cookies":[{"name":"li_at","value":"secret"}]}`))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, "v1:"))
	assert.NotContains(t, sealed, "li_at")

	opened, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, `{"cookies":[{"name":"li_at","value":"secret"}]}`, string(opened))
}

func TestAESSealerWrongKey(t *testing.T) {
	sealed, err := newSealer("key-one").Seal([]byte("payload"))
	require.NoError(t, err)

	_, err = newSealer("key-two").Open(sealed)
	assert.Error(t, err)
}

func TestAESSealerTamperedPayload(t *testing.T) {
	s := newSealer("secret")
	sealed, err := s.Seal([]byte("payload"))
	require.NoError(t, err)

	tampered := sealed[:len(sealed)-2] + "AA"
	if tampered == sealed {
		tampered = sealed[:len(sealed)-2] + "BB"
	}
	_, err = s.Open(tampered)
	assert.Error(t, err)
}

func TestPlainSealerWhenNoKey(t *testing.T) {
	s := newSealer("  ")

	sealed, err := s.Seal([]byte("payload"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, "plain:"))

	opened, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(opened))
}

func TestAESSealerOpensPlainRecords(t *testing.T) {
	// Records written before an encryption key was configured stay readable.
	plain, err := newSealer("").Seal([]byte("legacy"))
	require.NoError(t, err)

	opened, err := newSealer("new-key").Open(plain)
	require.NoError(t, err)
	assert.Equal(t, "legacy", string(opened))
}

func TestSealerRejectsUnknownVersion(t *testing.T) {
	_, err := newSealer("k").Open("v9:whatever")
	assert.Error(t, err)
}
