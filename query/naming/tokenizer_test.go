package naming

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/lightdao"
)

func TestSplitByAnd(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"IdEqAndNameEqAndAgeGt", []string{"IdEq", "NameEq", "AgeGt"}},
		{"AndroidEq", []string{"AndroidEq"}},
		{"NameEq", []string{"NameEq"}},
		{"NameLikeAndIdIn", []string{"NameLike", "IdIn"}},
		{"BrandAndName", []string{"Brand", "Name"}},
		{"NameAndroidAndIdEq", []string{"NameAndroid", "IdEq"}},
		{"AndroidVersionAndName", []string{"AndroidVersion", "Name"}},
		{"IdEqAndAndroidEq", []string{"IdEq", "AndroidEq"}},
		{"NameAnd", []string{"NameAnd"}},
		{"ABAndC", []string{"ABAndC"}},
		{"Age1And2Name", []string{"Age1", "2Name"}},
		{"HandleEq", []string{"HandleEq"}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens, err := SplitByAnd(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, tokens)
		})
	}
}

func TestSplitByAnd_Unicode(t *testing.T) {
	tokens, err := SplitByAnd("名称AndÉtat")
	require.NoError(t, err)
	assert.Equal(t, []string{"名称", "État"}, tokens)

	// An uppercase non-Latin rune before "And" is not a boundary.
	tokens, err = SplitByAnd("ÀAndÉ")
	require.NoError(t, err)
	assert.Equal(t, []string{"ÀAndÉ"}, tokens)

	// A lowercase non-Latin rune after "And" is not a boundary.
	tokens, err = SplitByAnd("NameAndéclat")
	require.NoError(t, err)
	assert.Equal(t, []string{"NameAndéclat"}, tokens)
}

func TestSplitByAnd_Runaway(t *testing.T) {
	input := strings.Repeat("XAnd", MaxScan+1) + "Y"
	_, err := SplitByAnd(input)
	require.Error(t, err)
	assert.True(t, errors.Is(err, lightdao.ErrInitialization))
	assert.True(t, lightdao.IsInitializationError(err))
	assert.Contains(t, err.Error(), "XAndXAnd")

	// Memoized errors are returned again.
	_, err2 := SplitByAnd(input)
	assert.Equal(t, err, err2)
}

func TestSplitByAnd_WithinLimit(t *testing.T) {
	input := strings.Repeat("XAnd", MaxScan-1) + "Y"
	tokens, err := SplitByAnd(input)
	require.NoError(t, err)
	assert.Len(t, tokens, 1)
}

func TestSplitByAnd_MemoIsolation(t *testing.T) {
	tokens, err := SplitByAnd("AAndBb")
	require.NoError(t, err)
	tokens[0] = "mutated"

	again, err := SplitByAnd("AAndBb")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAndBb"}, again)
}

func TestSplitByAnd_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tokens, err := SplitByAnd("StatusEqAndTypeInAndAgeGte")
			assert.NoError(t, err)
			assert.Equal(t, []string{"StatusEq", "TypeIn", "AgeGte"}, tokens)
		}()
	}
	wg.Wait()
}
