package websocket

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/drop-four/internal/engine"
	"github.com/drop-four/internal/game"
	"github.com/drop-four/internal/matchmaker"
)

// Message types
const (
	TypeJoin                 = "join"
	TypeMove                 = "move"
	TypeReconnect            = "reconnect"
	TypeWaiting              = "waiting"
	TypeMatched              = "matched"
	TypeState                = "state"
	TypeGameOver             = "gameOver"
	TypeError                = "error"
	TypeOpponentDisconnected = "opponentDisconnected"
	TypeOpponentReconnected  = "opponentReconnected"
)

// Message represents a WebSocket message
type Message struct {
	Type              string           `json:"type"`
	Username          string           `json:"username,omitempty"`
	Column            int              `json:"column,omitempty"`
	Row               int              `json:"row,omitempty"`
	GameID            string           `json:"gameId,omitempty"`
	Opponent          string           `json:"opponent,omitempty"`
	YourTurn          bool             `json:"yourTurn,omitempty"`
	State             *game.GameState  `json:"state,omitempty"`
	Winner            string           `json:"winner,omitempty"`
	Reason            string           `json:"reason,omitempty"`
	Message           string           `json:"message,omitempty"`
	ReconnectDeadline string           `json:"reconnectDeadline,omitempty"`
	PlayerNum         int              `json:"playerNum,omitempty"`
	Decision          *engine.Decision `json:"decision,omitempty"`
}

// IncomingMessage represents a message from the client
type IncomingMessage struct {
	Type     string `json:"type"`
	Column   int    `json:"column,omitempty"`
	GameID   string `json:"gameId,omitempty"`
	Username string `json:"username,omitempty"`
}

// Handler processes WebSocket messages
type Handler struct {
	hub        *Hub
	matchmaker *matchmaker.Matchmaker
}

// NewHandler creates a new message handler
func NewHandler(hub *Hub, mm *matchmaker.Matchmaker) *Handler {
	return &Handler{
		hub:        hub,
		matchmaker: mm,
	}
}

// HandleMessage processes an incoming message
func (h *Handler) HandleMessage(client *Client, data []byte) {
	var msg IncomingMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Debug().Err(err).Str("username", client.username).Msg("unparseable message")
		client.sendMessage(Message{Type: TypeError, Message: "Invalid message format"})
		return
	}

	switch msg.Type {
	case TypeJoin:
		h.handleJoin(client)
	case TypeMove:
		h.handleMove(client, msg.Column)
	case TypeReconnect:
		h.handleReconnect(client, msg.GameID)
	default:
		client.sendMessage(Message{Type: TypeError, Message: "Unknown message type"})
	}
}

// handleJoin handles a player joining the matchmaking queue
func (h *Handler) handleJoin(client *Client) {
	// Check for existing game to reconnect
	existingGame := h.matchmaker.GetGameByPlayer(client.username)
	if existingGame != nil && existingGame.GetState().Status != game.StatusFinished {
		h.handleReconnectToGame(client, existingGame)
		return
	}

	// Notify client they're waiting
	client.sendMessage(Message{
		Type:    TypeWaiting,
		Message: "Looking for opponent...",
	})

	// Join matchmaking queue
	gameChan, err := h.matchmaker.JoinQueue(client.username)
	if err != nil {
		client.sendMessage(Message{Type: TypeError, Message: err.Error()})
		return
	}

	// Wait for match in goroutine
	go func() {
		g := <-gameChan
		if g == nil {
			return
		}

		// Register client to game
		h.hub.RegisterToGame(g.ID, client)

		// Determine opponent
		state := g.GetState()
		opponent := state.Player2
		yourTurn := state.CurrentTurn == int(engine.PlayerOne)
		if client.username == state.Player2 {
			opponent = state.Player1
			yourTurn = state.CurrentTurn == int(engine.PlayerTwo)
		}

		// Send matched message
		client.sendMessage(Message{
			Type:      TypeMatched,
			GameID:    g.ID,
			Opponent:  opponent,
			YourTurn:  yourTurn,
			PlayerNum: int(g.GetPlayerByUsername(client.username)),
			State:     state,
		})
	}()
}

// handleMove handles a player making a move
func (h *Handler) handleMove(client *Client, column int) {
	if client.gameID == "" {
		client.sendMessage(Message{Type: TypeError, Message: "Not in a game"})
		return
	}

	g := h.matchmaker.GetGame(client.gameID)
	if g == nil {
		client.sendMessage(Message{Type: TypeError, Message: "Game not found"})
		return
	}

	piece := g.GetPlayerByUsername(client.username)
	if piece == engine.Empty {
		client.sendMessage(Message{Type: TypeError, Message: "Player not found"})
		return
	}

	row, err := g.MakeMove(piece, column)
	if err != nil {
		client.sendMessage(Message{Type: TypeError, Message: err.Error()})
		return
	}

	log.Debug().
		Str("gameID", g.ID).
		Str("username", client.username).
		Int("column", column).
		Int("row", row).
		Msg("move made")

	// Broadcast updated state
	h.hub.BroadcastGameState(g)

	// Check if game ended
	state := g.GetState()
	if state.Status == game.StatusFinished {
		h.hub.broadcastToGame(g.ID, Message{
			Type:   TypeGameOver,
			Winner: state.Winner,
			Reason: state.Result,
		})
		h.hub.handleGameEnd(g)
		return
	}

	// If next turn is bot, make bot move
	if g.Player2 != nil && g.Player2.IsBot && state.CurrentTurn == int(engine.PlayerTwo) {
		go h.hub.HandleBotMove(g)
	}
}

// handleReconnect handles a player trying to reconnect to a game
func (h *Handler) handleReconnect(client *Client, gameID string) {
	g := h.matchmaker.GetGame(gameID)
	if g == nil {
		// Try to find by player
		g = h.matchmaker.GetGameByPlayer(client.username)
	}

	if g == nil {
		client.sendMessage(Message{Type: TypeError, Message: "Game not found"})
		return
	}

	h.handleReconnectToGame(client, g)
}

// handleReconnectToGame handles reconnection to a specific game
func (h *Handler) handleReconnectToGame(client *Client, g *game.Game) {
	piece := g.GetPlayerByUsername(client.username)
	if piece == engine.Empty {
		client.sendMessage(Message{Type: TypeError, Message: "Not a player in this game"})
		return
	}

	// Try to reconnect
	if !g.PlayerReconnected(piece) {
		state := g.GetState()
		if state.Status == game.StatusFinished {
			client.sendMessage(Message{Type: TypeError, Message: "Game has already ended"})
			return
		}
		client.sendMessage(Message{Type: TypeError, Message: "Reconnection failed"})
		return
	}

	// Register client to game
	h.hub.RegisterToGame(g.ID, client)

	// Notify opponent
	h.hub.broadcastToGame(g.ID, Message{
		Type: TypeOpponentReconnected,
	})

	// Send current state
	state := g.GetState()
	opponent := state.Player2
	yourTurn := state.CurrentTurn == int(engine.PlayerOne)
	if client.username == state.Player2 {
		opponent = state.Player1
		yourTurn = state.CurrentTurn == int(engine.PlayerTwo)
	}

	client.sendMessage(Message{
		Type:      TypeMatched,
		GameID:    g.ID,
		Opponent:  opponent,
		YourTurn:  yourTurn,
		PlayerNum: int(piece),
		State:     state,
	})
}
