package orderer

import (
	"testing"

	"github.com/arthur-debert/genlink/pkg/errors"
	"github.com/arthur-debert/genlink/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entriesFor(targets ...string) []types.FileEntry {
	entries := make([]types.FileEntry, len(targets))
	for i, target := range targets {
		entries[i] = types.FileEntry{Target: target, Text: "x", HasText: true}
	}
	return entries
}

func targetsOf(entries []types.FileEntry) []string {
	targets := make([]string, len(entries))
	for i := range entries {
		targets[i] = entries[i].Target
	}
	return targets
}

func TestOrderDescendantsBeforeAncestors(t *testing.T) {
	ordered, err := Order(entriesFor("a/b", "a/b/c", "a"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b/c", "a/b", "a"}, targetsOf(ordered))
}

func TestOrderSiblingsLexicographic(t *testing.T) {
	ordered, err := Order(entriesFor("cfg/zed", "cfg/alpha", "cfg/mid"))
	require.NoError(t, err)
	assert.Equal(t, []string{"cfg/alpha", "cfg/mid", "cfg/zed"}, targetsOf(ordered))
}

func TestOrderDeterministic(t *testing.T) {
	input := entriesFor(".zshrc", "bin/tool", ".config/git/config", "bin", ".config")

	first, err := Order(input)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := Order(input)
		require.NoError(t, err)
		assert.Equal(t, targetsOf(first), targetsOf(again), "run %d", i)
	}

	// every descendant precedes each of its ancestors
	pos := make(map[string]int)
	for i, target := range targetsOf(first) {
		pos[target] = i
	}
	assert.Less(t, pos[".config/git/config"], pos[".config"])
	assert.Less(t, pos["bin/tool"], pos["bin"])
}

func TestOrderDuplicateTargets(t *testing.T) {
	entries := entriesFor(".zshrc", "bin/tool", ".zshrc", "bin/tool", ".gitconfig")

	_, err := Order(entries)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrDuplicateTarget))

	details := errors.GetErrorDetails(err)
	require.NotNil(t, details)
	assert.Equal(t, []string{".zshrc", "bin/tool"}, details["targets"])
}

func TestOrderEmptyAndSingle(t *testing.T) {
	ordered, err := Order(nil)
	require.NoError(t, err)
	assert.Empty(t, ordered)

	ordered, err = Order(entriesFor("only"))
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, targetsOf(ordered))
}

func TestOrderInputNotMutated(t *testing.T) {
	input := entriesFor("a", "a/b")
	_, err := Order(input)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a/b"}, targetsOf(input))
}

func TestBefore(t *testing.T) {
	a := &types.FileEntry{Target: "a/b/c"}
	b := &types.FileEntry{Target: "a/b"}
	assert.True(t, Before(a, b), "descendant before ancestor")
	assert.False(t, Before(b, a))

	s1 := &types.FileEntry{Target: "x/aa"}
	s2 := &types.FileEntry{Target: "x/bb"}
	assert.True(t, Before(s1, s2), "siblings by base name")
	assert.False(t, Before(s2, s1))

	u1 := &types.FileEntry{Target: "x/a"}
	u2 := &types.FileEntry{Target: "y/b"}
	assert.False(t, Before(u1, u2), "different directories are incomparable")
	assert.False(t, Before(u2, u1))
}

func TestOrderPrefixNamesAreNotAncestors(t *testing.T) {
	// "ab" is not inside "a" even though it shares the name prefix
	ordered, err := Order(entriesFor("ab", "a", "a/x"))
	require.NoError(t, err)
	pos := make(map[string]int)
	for i, target := range targetsOf(ordered) {
		pos[target] = i
	}
	assert.Less(t, pos["a/x"], pos["a"])
}
