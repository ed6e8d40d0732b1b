package region

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGreaterBoston_Membership(t *testing.T) {
	s := GreaterBoston()

	assert.True(t, s.Contains(2134))  // Allston
	assert.True(t, s.Contains(2139))  // Cambridge
	assert.True(t, s.Contains(1701))  // Framingham
	assert.False(t, s.Contains(1002)) // Amherst
	assert.False(t, s.Contains(1060)) // Northampton
	assert.False(t, s.Contains(10001))
}

func TestGreaterBoston_MatchesSource(t *testing.T) {
	s := GreaterBoston()
	for _, zip := range greaterBoston {
		assert.True(t, s.Contains(zip), "zip %05d", zip)
	}
	assert.LessOrEqual(t, s.Len(), len(greaterBoston))
}

func TestParseZIP(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"02134", 2134, true},
		{"2134", 2134, true},
		{" 02134 ", 2134, true},
		{"02134-1234", 2134, true},
		{"", 0, false},
		{"ABCDE", 0, false},
		{"0213A", 0, false},
		{"123456", 0, false},
		{"-1234", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseZIP(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestInRegion_Malformed(t *testing.T) {
	s := NewSet(2134)
	assert.True(t, s.InRegion("02134"))
	assert.False(t, s.InRegion("n/a"))
	assert.False(t, s.InRegion("02135"))
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zips.csv")
	content := "ZIP Code,Type,Common Cities,County\n" +
		"01002,Standard,Amherst,Hampshire County\n" +
		"02134,Standard,Allston,Suffolk County\n" +
		"bogus,Standard,Nowhere,None\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains(1002))
	assert.True(t, s.Contains(2134))
}

func TestLoadCSV_NoZipColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("Town,Region\nBoston,Metro\n"), 0o644))

	_, err := LoadCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no zip column")
}

func TestLoadCSV_Missing(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}
