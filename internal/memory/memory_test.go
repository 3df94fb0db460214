package memory_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codehealer/autofix-engine/internal/autofix"
	"github.com/codehealer/autofix-engine/internal/memory"
)

func TestSQLiteFixMemory_LookupMissOnEmptyDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fix_memory.db")
	m, err := memory.Open(path)
	require.NoError(t, err)
	defer m.Close()

	_, ok := m.Lookup(autofix.KindName, "memo_index")
	assert.False(t, ok)
}

func TestSQLiteFixMemory_RecordThenLookupHits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fix_memory.db")
	m, err := memory.Open(path)
	require.NoError(t, err)
	defer m.Close()

	patch := autofix.Patch{Pattern: "return memo[0]", Replacement: "return memo[n]"}
	m.Record(autofix.KindLogical, "memo_index", patch)

	got, ok := m.Lookup(autofix.KindLogical, "memo_index")
	require.True(t, ok)
	assert.Equal(t, patch.Pattern, got.Pattern)
	assert.Equal(t, patch.Replacement, got.Replacement)
}

func TestSQLiteFixMemory_RecordTwiceUpdatesReplacement(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fix_memory.db")
	m, err := memory.Open(path)
	require.NoError(t, err)
	defer m.Close()

	m.Record(autofix.KindName, "undefined_func", autofix.Patch{Pattern: "foo()", Replacement: "bar()"})
	m.Record(autofix.KindName, "undefined_func", autofix.Patch{Pattern: "foo()", Replacement: "baz()"})

	got, ok := m.Lookup(autofix.KindName, "undefined_func")
	require.True(t, ok)
	assert.Equal(t, "baz()", got.Replacement)
}
