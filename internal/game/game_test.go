package game

import (
	"testing"

	"github.com/drop-four/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBotGame(t *testing.T, settings Settings) *Game {
	t.Helper()
	g, err := NewGame("alice", settings)
	require.NoError(t, err)
	require.NoError(t, g.AddPlayer2(BotName, true))
	return g
}

func TestNewGameRejectsBadDimensions(t *testing.T) {
	_, err := NewGame("alice", Settings{Rows: 3, Cols: 7, BaseDepth: 5})
	assert.ErrorIs(t, err, engine.ErrInvalidDimensions)
}

func TestTurnAlternationAndValidation(t *testing.T) {
	g := newBotGame(t, DefaultSettings)

	// Bot may not move first.
	_, _, _, err := g.MakeBotMove()
	assert.ErrorIs(t, err, ErrNotYourTurn)

	row, err := g.MakeMove(engine.PlayerOne, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, row)

	// Same player twice is rejected.
	_, err = g.MakeMove(engine.PlayerOne, 3)
	assert.ErrorIs(t, err, ErrNotYourTurn)

	_, err = g.MakeMove(engine.PlayerTwo, 99)
	assert.ErrorIs(t, err, engine.ErrInvalidColumn)
}

func TestBotMoveRecordsDecision(t *testing.T) {
	g := newBotGame(t, Settings{Rows: 6, Cols: 7, BaseDepth: 3})

	_, err := g.MakeMove(engine.PlayerOne, 0)
	require.NoError(t, err)

	col, row, decision, err := g.MakeBotMove()
	require.NoError(t, err)
	require.NotNil(t, decision)
	assert.Equal(t, decision.Column, col)
	assert.GreaterOrEqual(t, row, 0)

	state := g.GetState()
	assert.Equal(t, 2, state.MoveCount)
	assert.Equal(t, int(engine.PlayerOne), state.CurrentTurn)

	last := g.Moves[len(g.Moves)-1]
	require.NotNil(t, last.Decision)
	assert.Greater(t, last.Decision.Nodes, uint64(0))
}

func TestBotBlocksImmediateThreat(t *testing.T) {
	g := newBotGame(t, Settings{Rows: 6, Cols: 7, BaseDepth: 2})

	// Alice builds a vertical stack; the bot must answer in the same
	// column every time she reaches three.
	for _, col := range []int{0, 0} {
		_, err := g.MakeMove(engine.PlayerOne, col)
		require.NoError(t, err)
		_, _, _, err = g.MakeBotMove()
		require.NoError(t, err)
	}
	if g.GetState().Status != StatusPlaying {
		t.Skip("bot happened to end the game early")
	}
	if g.Board.Cell(2, 0) != engine.Empty {
		t.Skip("bot already occupied the stack column")
	}

	_, err := g.MakeMove(engine.PlayerOne, 0)
	require.NoError(t, err)
	col, _, _, err := g.MakeBotMove()
	require.NoError(t, err)
	assert.Equal(t, 0, col, "bot must block the completed stack")
}

func TestWinEndsGame(t *testing.T) {
	g, err := NewGame("alice", DefaultSettings)
	require.NoError(t, err)
	require.NoError(t, g.AddPlayer2("bob", false))

	// Alice wins on the bottom row while Bob stacks elsewhere.
	for i, col := range []int{0, 1, 2} {
		_, err := g.MakeMove(engine.PlayerOne, col)
		require.NoError(t, err)
		_, err = g.MakeMove(engine.PlayerTwo, 6)
		require.NoError(t, err, "move %d", i)
	}
	_, err = g.MakeMove(engine.PlayerOne, 3)
	require.NoError(t, err)

	state := g.GetState()
	assert.Equal(t, StatusFinished, state.Status)
	assert.Equal(t, "alice", state.Winner)
	assert.Equal(t, string(ResultWinPlayer1), state.Result)

	_, err = g.MakeMove(engine.PlayerTwo, 0)
	assert.ErrorIs(t, err, ErrGameNotInProgress)
}

func TestForfeitAwardsOpponent(t *testing.T) {
	g, err := NewGame("alice", DefaultSettings)
	require.NoError(t, err)
	require.NoError(t, g.AddPlayer2("bob", false))

	g.Forfeit(engine.PlayerOne)
	state := g.GetState()
	assert.Equal(t, StatusFinished, state.Status)
	assert.Equal(t, "bob", state.Winner)
	assert.Equal(t, string(ResultForfeit), state.Result)
}

func TestDisconnectReconnectWindow(t *testing.T) {
	g, err := NewGame("alice", DefaultSettings)
	require.NoError(t, err)
	require.NoError(t, g.AddPlayer2("bob", false))

	g.PlayerDisconnected(engine.PlayerTwo)
	assert.Equal(t, StatusDisconnect, g.GetState().Status)

	// The other player cannot claim the reconnect slot.
	assert.False(t, g.PlayerReconnected(engine.PlayerOne))
	assert.True(t, g.PlayerReconnected(engine.PlayerTwo))
	assert.Equal(t, StatusPlaying, g.GetState().Status)
}

func TestGetStateCarriesBoardDimensions(t *testing.T) {
	g := newBotGame(t, Settings{Rows: 8, Cols: 9, BaseDepth: 2})
	state := g.GetState()
	assert.Equal(t, 8, state.Rows)
	assert.Equal(t, 9, state.Cols)
	assert.Len(t, state.Board, 8)
	assert.Len(t, state.Board[0], 9)
	assert.True(t, state.IsVsBot)
}
