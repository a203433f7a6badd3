package search

import (
	"context"
	"testing"

	"github.com/corvidchess/engine/pkg/board"
	"github.com/corvidchess/engine/pkg/score"
	"github.com/corvidchess/engine/pkg/tt"
	"github.com/stretchr/testify/assert"
)

func TestStoreReplaceSkipsShallowerOverwrite(t *testing.T) {
	table := tt.New(context.Background(), 1<<16)
	hash := board.ZobristHash(123)

	storeReplace(table, hash, tt.Pv, 10, score.Score(50), board.Move{})
	storeReplace(table, hash, tt.Cut, 3, score.Score(-50), board.Move{})

	e := table.Probe(hash)
	assert.Equal(t, 10, e.Depth)
	assert.Equal(t, score.Score(50), e.Score)
}

func TestStoreReplaceOverwritesEqualOrDeeper(t *testing.T) {
	table := tt.New(context.Background(), 1<<16)
	hash := board.ZobristHash(456)

	storeReplace(table, hash, tt.Pv, 5, score.Score(1), board.Move{})
	storeReplace(table, hash, tt.Cut, 5, score.Score(2), board.Move{})

	e := table.Probe(hash)
	assert.Equal(t, tt.Cut, e.NodeType)
	assert.Equal(t, score.Score(2), e.Score)

	storeReplace(table, hash, tt.All, 9, score.Score(3), board.Move{})
	e = table.Probe(hash)
	assert.Equal(t, 9, e.Depth)
	assert.Equal(t, score.Score(3), e.Score)
}
