package cfa

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maekoos/dex-ir/decode"
	"github.com/maekoos/dex-ir/dexfile"
)

func decodeAll(t *testing.T, insns []uint16) []decode.Instruction {
	t.Helper()

	q := decode.NewCursor(insns)
	var out []decode.Instruction
	for {
		ins, err := decode.Next(q)
		if errors.Is(err, decode.ErrEOF) {
			break
		}
		require.NoError(t, err)
		out = append(out, ins)
	}
	return out
}

func TestAnalyseBranch(t *testing.T) {
	// if-ne v0, v1 -> +4 words; two straight-line tails.
	insns := decodeAll(t, []uint16{
		0x1033, 0x0004, // if-ne v0, v1, +4
		0x5012, // const/4 v0, #5
		0x000f, // return v0
		0x7012, // const/4 v0, #7
		0x000f, // return v0
	})

	blocks, handlers, err := Analyse(insns, nil)
	require.NoError(t, err)
	require.Empty(t, handlers)
	require.Equal(t, []int{0, 1, 3}, SortedIDs(blocks))

	require.Equal(t, []int{1, 3}, blocks[0].Exits)
	require.Equal(t, []int{0}, blocks[1].Entries)
	require.Equal(t, []int{0}, blocks[3].Entries)
	require.Len(t, blocks[0].Body, 1)
	require.Len(t, blocks[1].Body, 2)
	require.Len(t, blocks[3].Body, 2)

	// Every entry's block lists this block among its exits.
	for id, b := range blocks {
		for _, e := range b.Entries {
			require.Contains(t, blocks[e].Exits, id, "block %d entry %d", id, e)
		}
	}
}

func TestAnalyseBackwardGoto(t *testing.T) {
	insns := decodeAll(t, []uint16{
		0x0112, // const/4 v1, #0
		0x01d8, 0x0100, // add-int/lit8 v1, v0, #1  <- loop head
		0xfe28, // goto -2 (back to the add)
	})

	blocks, _, err := Analyse(insns, nil)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1}, SortedIDs(blocks))

	require.Equal(t, []int{1}, blocks[1].Exits)
	// The loop head is entered from the const block and from the goto.
	require.ElementsMatch(t, []int{0, 1}, blocks[1].Entries)
}

func TestAnalyseTryFolding(t *testing.T) {
	// div-int/lit8 inside a try; handler loads -1 and returns.
	insns := decodeAll(t, []uint16{
		0x00db, 0x0001, // div-int/lit8 v0, v1, #0
		0x000f, // return v0
		0xf012, // const/4 v0, #-1
		0x000f, // return v0
	})

	tries := []dexfile.Try{{
		StartAddr: 0,
		InsnCount: 2,
		Handlers:  []dexfile.TryHandler{{TypeName: "Ljava/lang/ArithmeticException;", Addr: 3}},
	}}

	blocks, handlers, err := Analyse(insns, tries)
	require.NoError(t, err)

	require.Len(t, handlers, 1)
	require.Equal(t, HandlerTable{"Ljava/lang/ArithmeticException;": 2}, handlers[0])

	require.Equal(t, []int{0, 2}, SortedIDs(blocks))
	require.NotNil(t, blocks[0].Handler)
	require.Equal(t, 0, *blocks[0].Handler)
	require.True(t, blocks[2].IsHandler)
	require.Nil(t, blocks[2].Handler)
}

func TestAnalyseOverlappingTries(t *testing.T) {
	insns := decodeAll(t, []uint16{
		0x00db, 0x0001,
		0x000f,
	})

	tries := []dexfile.Try{
		{StartAddr: 0, InsnCount: 2, Handlers: []dexfile.TryHandler{{TypeName: "LA;", Addr: 2}}},
		{StartAddr: 0, InsnCount: 3, Handlers: []dexfile.TryHandler{{TypeName: "LB;", Addr: 2}}},
	}

	_, _, err := Analyse(insns, tries)
	require.Error(t, err)
}

func TestAnalyseExitPastMethodEnd(t *testing.T) {
	// A goto whose target is one past the last instruction: the dangling
	// exit is dropped with a warning, not a failure.
	insns := decodeAll(t, []uint16{
		0x0228, // goto +2
		0x000e,
	})

	blocks, _, err := Analyse(insns, nil)
	require.NoError(t, err)
	require.Equal(t, []int{2}, blocks[0].Exits)
}
