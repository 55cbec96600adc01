package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"carbon-ledger/internal/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `
[[organization]]
identity  = "acme"
name      = "Acme Forestry"
emissions = 120

[[organization]]
identity = "beta"
name     = "Beta Steel"

[[credit]]
issuer       = "acme"
amount       = 100
project_type = "reforestation"
transfer_to  = "beta"
retire       = true

[[credit]]
issuer       = "acme"
amount       = 40
project_type = "solar"
`

func writeFixture(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "seed.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadSeedFile(t *testing.T) {
	f, err := loadSeedFile(writeFixture(t, fixture))
	require.NoError(t, err)
	require.Len(t, f.Organizations, 2)
	require.Len(t, f.Credits, 2)
	assert.Equal(t, int64(120), f.Organizations[0].Emissions)
	assert.Equal(t, "beta", f.Credits[0].TransferTo)
	assert.True(t, f.Credits[0].Retire)
}

func TestLoadSeedFile_UnknownKey(t *testing.T) {
	_, err := loadSeedFile(writeFixture(t, "[[credit]]\nissuer = \"a\"\ncolour = \"green\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colour")
}

func TestApplySeed(t *testing.T) {
	f, err := loadSeedFile(writeFixture(t, fixture))
	require.NoError(t, err)

	l := ledger.New(ledger.Options{})
	var out bytes.Buffer
	require.NoError(t, applySeed(context.Background(), l, nil, f, &out))

	assert.Equal(t, ledger.Stats{TotalIssued: 140, TotalRetired: 100, Outstanding: 40}, l.Stats())
	assert.Equal(t, int64(100), l.Organization("beta").TotalOffsets)
	assert.Equal(t, int64(-120), l.NetBalance("acme"))
	assert.Equal(t, []ledger.CreditID{2}, l.OwnedBy("acme"))
	assert.Contains(t, out.String(), "issued 140, retired 100, outstanding 40")
	require.NoError(t, l.Verify())

	// replaying skips known organizations but mints the credits again
	out.Reset()
	require.NoError(t, applySeed(context.Background(), l, nil, f, &out))
	assert.Contains(t, out.String(), "organization acme already registered, skipped")
	assert.Equal(t, int64(280), l.Stats().TotalIssued)
}

func TestApplySeed_StopsAtRejectedStep(t *testing.T) {
	f := seedFile{
		Organizations: []seedOrganization{{Identity: "acme", Name: "Acme"}},
		Credits:       []seedCredit{{Issuer: "acme", Amount: 10, ProjectType: "solar", TransferTo: "ghost"}},
	}
	l := ledger.New(ledger.Options{})
	err := applySeed(context.Background(), l, nil, f, &bytes.Buffer{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrNotRegistered)
	assert.Contains(t, err.Error(), "credit #1: transfer")
}

func TestApplySeed_RejectsNegativeEmissions(t *testing.T) {
	f := seedFile{Organizations: []seedOrganization{{Identity: "acme", Name: "Acme", Emissions: -5}}}
	l := ledger.New(ledger.Options{})
	err := applySeed(context.Background(), l, nil, f, &bytes.Buffer{})
	require.ErrorIs(t, err, ledger.ErrInvalidAmount)
	assert.Contains(t, err.Error(), "organization #1 (acme) emissions")
	assert.False(t, l.IsRegistered("acme"))
}
