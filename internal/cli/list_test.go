package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/migsmoke/internal/checks"
)

func TestList_Text(t *testing.T) {
	r := execute(t, mixedSuite, "list")

	require.NoError(t, r.err)
	assert.Equal(t, `Go Module Migration Test Suite (4 checks)
   1. go-ethereum module version
   2. Checksum address conversion
   3. Wei conversion
   4. Solana library import
`, r.stdout)
}

func TestList_DoesNotRunChecks(t *testing.T) {
	r := execute(t, mixedSuite, "list")

	require.NoError(t, r.err)
	assert.NotContains(t, r.stdout, "Testing:")
	assert.NotContains(t, r.stdout, "Results:")
}

func TestList_JSON(t *testing.T) {
	r := execute(t, passingSuite, "list", "--format", "json")
	require.NoError(t, r.err)

	var resp struct {
		Status string      `json:"status"`
		Data   []CheckInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []CheckInfo{
		{Seq: 1, Name: "go-ethereum module version"},
		{Seq: 2, Name: "Checksum address conversion"},
	}, resp.Data)
}

func TestList_DefaultSuite(t *testing.T) {
	r := execute(t, checks.Register, "list", "--format", "json")
	require.NoError(t, r.err)

	var resp struct {
		Data []CheckInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &resp))
	require.Len(t, resp.Data, 12)
	assert.Equal(t, checks.NameModuleVersion, resp.Data[0].Name)
	assert.Equal(t, checks.NameHTTP, resp.Data[11].Name)
}
