package game

import (
	"errors"
	"sync"
	"time"

	"github.com/drop-four/internal/engine"
	"github.com/google/uuid"
)

// GameStatus represents the current state of the game
type GameStatus string

const (
	StatusWaiting    GameStatus = "waiting"
	StatusPlaying    GameStatus = "playing"
	StatusFinished   GameStatus = "finished"
	StatusDisconnect GameStatus = "disconnected"
)

// GameResult represents the outcome of a game
type GameResult string

const (
	ResultWinPlayer1 GameResult = "player1_win"
	ResultWinPlayer2 GameResult = "player2_win"
	ResultDraw       GameResult = "draw"
	ResultForfeit    GameResult = "forfeit"
)

// BotName is the username the automated player goes by.
const BotName = "BOT"

// Settings configures a game: board dimensions and the engine's base search
// depth. Dimensions outside the engine's accepted range fail at game
// construction.
type Settings struct {
	Rows      int
	Cols      int
	BaseDepth int
}

// DefaultSettings is the classic 6x7 board with a depth-5 engine.
var DefaultSettings = Settings{Rows: 6, Cols: 7, BaseDepth: 5}

// Player represents a player in the game
type Player struct {
	Username    string
	Piece       engine.Piece
	IsBot       bool
	IsConnected bool
}

// Move represents a single move in the game. Bot moves carry the engine's
// decision telemetry.
type Move struct {
	Piece     engine.Piece     `json:"piece"`
	Column    int              `json:"column"`
	Row       int              `json:"row"`
	Timestamp time.Time        `json:"timestamp"`
	Decision  *engine.Decision `json:"decision,omitempty"`
}

// Game represents a Connect Four game instance. It owns the live board;
// the engine only ever sees disposable copies.
type Game struct {
	ID                 string
	Settings           Settings
	Player1            *Player
	Player2            *Player
	Board              *engine.Board
	CurrentTurn        engine.Piece
	Status             GameStatus
	Winner             *Player
	Result             GameResult
	Moves              []Move
	StartTime          time.Time
	EndTime            time.Time
	DisconnectTime     time.Time
	DisconnectedPlayer engine.Piece
	Engine             *engine.Engine
	mu                 sync.RWMutex
}

// NewGame creates a new game instance for the given settings.
func NewGame(player1Username string, settings Settings) (*Game, error) {
	board, err := engine.NewBoard(settings.Rows, settings.Cols)
	if err != nil {
		return nil, err
	}
	return &Game{
		ID:       uuid.New().String(),
		Settings: settings,
		Player1: &Player{
			Username:    player1Username,
			Piece:       engine.PlayerOne,
			IsConnected: true,
		},
		Board:       board,
		CurrentTurn: engine.PlayerOne,
		Status:      StatusWaiting,
		Moves:       make([]Move, 0),
		StartTime:   time.Now(),
	}, nil
}

// AddPlayer2 adds the second player to the game. A bot player gets its own
// engine instance sized to the board.
func (g *Game) AddPlayer2(username string, isBot bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Player2 = &Player{
		Username:    username,
		Piece:       engine.PlayerTwo,
		IsBot:       isBot,
		IsConnected: true,
	}
	g.Status = StatusPlaying

	if isBot {
		eng, err := engine.NewEngine(g.Settings.Rows, g.Settings.Cols, g.Settings.BaseDepth)
		if err != nil {
			return err
		}
		g.Engine = eng
	}
	return nil
}

// MakeMove makes a move for the specified player
func (g *Game) MakeMove(piece engine.Piece, column int) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.applyMove(piece, column, nil)
}

// applyMove places the piece and advances the game. Caller holds the lock.
func (g *Game) applyMove(piece engine.Piece, column int, decision *engine.Decision) (int, error) {
	if g.Status != StatusPlaying {
		return -1, ErrGameNotInProgress
	}
	if g.CurrentTurn != piece {
		return -1, ErrNotYourTurn
	}

	row, err := g.Board.Drop(column, piece)
	if err != nil {
		return -1, err
	}

	g.Moves = append(g.Moves, Move{
		Piece:     piece,
		Column:    column,
		Row:       row,
		Timestamp: time.Now(),
		Decision:  decision,
	})

	if engine.HasFourInARow(g.Board, piece) {
		g.Status = StatusFinished
		g.EndTime = time.Now()
		if piece == engine.PlayerOne {
			g.Winner = g.Player1
			g.Result = ResultWinPlayer1
		} else {
			g.Winner = g.Player2
			g.Result = ResultWinPlayer2
		}
		return row, nil
	}

	if g.Board.IsFull() {
		g.Status = StatusFinished
		g.EndTime = time.Now()
		g.Result = ResultDraw
		return row, nil
	}

	g.CurrentTurn = engine.Opponent(g.CurrentTurn)
	return row, nil
}

// MakeBotMove computes and applies the engine's move, returning the column,
// landing row, and the decision telemetry. The transposition cache is
// cleared first: the board changed since the last decision and the dynamic
// depth bound may differ, so stale entries must not bias this search.
func (g *Game) MakeBotMove() (int, int, *engine.Decision, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Engine == nil || g.CurrentTurn != engine.PlayerTwo {
		return -1, -1, nil, ErrNotYourTurn
	}

	g.Engine.ClearCache()
	decision, err := g.Engine.ChooseMove(g.Board, engine.PlayerTwo)
	if err != nil {
		// ErrNoLegalMove means a full board; applyMove declared the draw
		// when the last piece landed, so this is not reachable in a
		// well-formed game.
		return -1, -1, nil, err
	}

	row, err := g.applyMove(engine.PlayerTwo, decision.Column, &decision)
	if err != nil {
		return -1, -1, nil, err
	}
	return decision.Column, row, &decision, nil
}

// PlayerDisconnected marks a player as disconnected
func (g *Game) PlayerDisconnected(piece engine.Piece) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Status != StatusPlaying {
		return
	}

	g.DisconnectedPlayer = piece
	g.DisconnectTime = time.Now()
	g.Status = StatusDisconnect

	if piece == engine.PlayerOne {
		g.Player1.IsConnected = false
	} else {
		g.Player2.IsConnected = false
	}
}

// PlayerReconnected marks a player as reconnected
func (g *Game) PlayerReconnected(piece engine.Piece) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Status != StatusDisconnect || g.DisconnectedPlayer != piece {
		return false
	}

	// Check if within 30-second window
	if time.Since(g.DisconnectTime) > 30*time.Second {
		return false
	}

	g.Status = StatusPlaying
	g.DisconnectedPlayer = engine.Empty
	g.DisconnectTime = time.Time{}

	if piece == engine.PlayerOne {
		g.Player1.IsConnected = true
	} else {
		g.Player2.IsConnected = true
	}

	return true
}

// Forfeit ends the game with a forfeit
func (g *Game) Forfeit(loser engine.Piece) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Status = StatusFinished
	g.EndTime = time.Now()
	g.Result = ResultForfeit

	if loser == engine.PlayerOne {
		g.Winner = g.Player2
	} else {
		g.Winner = g.Player1
	}
}

// GetState returns the current game state for serialization
func (g *Game) GetState() *GameState {
	g.mu.RLock()
	defer g.mu.RUnlock()

	state := &GameState{
		ID:          g.ID,
		Rows:        g.Settings.Rows,
		Cols:        g.Settings.Cols,
		Board:       g.Board.ToSlice(),
		CurrentTurn: int(g.CurrentTurn),
		Status:      g.Status,
		MoveCount:   len(g.Moves),
	}

	if g.Player1 != nil {
		state.Player1 = g.Player1.Username
	}
	if g.Player2 != nil {
		state.Player2 = g.Player2.Username
		state.IsVsBot = g.Player2.IsBot
	}
	if g.Winner != nil {
		state.Winner = g.Winner.Username
	}
	if len(g.Moves) > 0 {
		lastMove := g.Moves[len(g.Moves)-1]
		state.LastMove = &MoveInfo{
			Column: lastMove.Column,
			Row:    lastMove.Row,
		}
	}
	if g.Result != "" {
		state.Result = string(g.Result)
	}

	return state
}

// GetPlayerByUsername returns the piece for a username, or Empty when the
// username is not part of this game.
func (g *Game) GetPlayerByUsername(username string) engine.Piece {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.Player1 != nil && g.Player1.Username == username {
		return engine.PlayerOne
	}
	if g.Player2 != nil && g.Player2.Username == username {
		return engine.PlayerTwo
	}
	return engine.Empty
}

// GetDuration returns the game duration in seconds
func (g *Game) GetDuration() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.EndTime.IsZero() {
		return int(time.Since(g.StartTime).Seconds())
	}
	return int(g.EndTime.Sub(g.StartTime).Seconds())
}

// GameState represents the serializable game state
type GameState struct {
	ID          string     `json:"id"`
	Player1     string     `json:"player1"`
	Player2     string     `json:"player2"`
	IsVsBot     bool       `json:"isVsBot"`
	Rows        int        `json:"rows"`
	Cols        int        `json:"cols"`
	Board       [][]int    `json:"board"`
	CurrentTurn int        `json:"currentTurn"`
	Status      GameStatus `json:"status"`
	Winner      string     `json:"winner,omitempty"`
	Result      string     `json:"result,omitempty"`
	LastMove    *MoveInfo  `json:"lastMove,omitempty"`
	MoveCount   int        `json:"moveCount"`
}

// MoveInfo represents info about a move
type MoveInfo struct {
	Column int `json:"column"`
	Row    int `json:"row"`
}

// Errors
var (
	ErrGameNotInProgress = errors.New("game is not in progress")
	ErrNotYourTurn       = errors.New("not your turn")
	ErrGameNotFound      = errors.New("game not found")
	ErrPlayerNotFound    = errors.New("player not found")
)
