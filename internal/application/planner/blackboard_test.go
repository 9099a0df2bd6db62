package planner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andrescamacho/autobuild-go/internal/application/planner"
)

func TestBlackboard_TypedReads(t *testing.T) {
	board := planner.NewBlackboard()
	board.Post("workers", 12)
	board.Post("rush", true)
	board.Post("name", "pool")

	assert.Equal(t, 12, board.Int("workers", 0))
	assert.Equal(t, 7, board.Int("missing", 7))
	assert.Equal(t, 7, board.Int("name", 7))
	assert.True(t, board.Bool("rush", false))
	assert.True(t, board.Bool("missing", true))
	assert.Equal(t, []string{"name", "rush", "workers"}, board.Keys())
}

func TestBlackboard_RemoveAndSnapshot(t *testing.T) {
	board := planner.NewBlackboard()
	board.Post("a", 1)
	board.Post("b", 2)

	snap := board.Snapshot()
	board.Remove("a")

	assert.False(t, board.Has("a"))
	assert.True(t, board.Has("b"))
	assert.Equal(t, 1, snap["a"])
}
