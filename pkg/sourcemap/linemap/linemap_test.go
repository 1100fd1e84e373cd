package linemap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildAndLookupBasic(t *testing.T) {
	table := Build("abc\ndef")
	require.Equal(t, Table{4, 7}, table)

	line, col := Lookup(table, 0)
	require.Equal(t, 0, line)
	require.Equal(t, 0, col)

	line, col = Lookup(table, 2)
	require.Equal(t, 0, line)
	require.Equal(t, 2, col)

	line, col = Lookup(table, 4)
	require.Equal(t, 1, line)
	require.Equal(t, 0, col)

	line, col = Lookup(table, 6)
	require.Equal(t, 1, line)
	require.Equal(t, 2, col)
}

func TestBuildHandlesCRLFAndCR(t *testing.T) {
	table := Build("ab\r\ncd\rfg")
	require.Len(t, table, 3)

	line, _ := Lookup(table, 5)
	require.Equal(t, 1, line)
}

func TestLookupEmptyTable(t *testing.T) {
	line, col := Lookup(Table{}, 3)
	require.Equal(t, 0, line)
	require.Equal(t, 3, col)
}

func TestBuildSingleLineNoTerminator(t *testing.T) {
	table := Build("hello")
	require.Equal(t, Table{5}, table)
}
