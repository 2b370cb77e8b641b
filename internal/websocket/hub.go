package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/drop-four/internal/engine"
	"github.com/drop-four/internal/game"
	"github.com/drop-four/internal/matchmaker"
)

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients by username
	clients map[string]*Client

	// Clients by game ID
	gameClients map[string]map[string]*Client

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Matchmaker reference
	matchmaker *matchmaker.Matchmaker

	// Callbacks
	onGameEnd     func(g *game.Game)
	onBotDecision func(g *game.Game, d *engine.Decision)

	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub(mm *matchmaker.Matchmaker) *Hub {
	return &Hub{
		clients:     make(map[string]*Client),
		gameClients: make(map[string]map[string]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		matchmaker:  mm,
	}
}

// SetOnGameEnd sets the callback for when a game ends
func (h *Hub) SetOnGameEnd(callback func(g *game.Game)) {
	h.onGameEnd = callback
}

// SetOnBotDecision sets the callback invoked with the engine's telemetry
// after every bot move.
func (h *Hub) SetOnBotDecision(callback func(g *game.Game, d *engine.Decision)) {
	h.onBotDecision = callback
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.username] = client
			h.mu.Unlock()
			log.Debug().Str("username", client.username).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.username]; ok {
				delete(h.clients, client.username)
				close(client.send)
			}
			h.mu.Unlock()
			log.Debug().Str("username", client.username).Msg("client unregistered")

			// Handle disconnect for active game
			h.handleDisconnect(client)
		}
	}
}

// handleDisconnect handles a player disconnect
func (h *Hub) handleDisconnect(client *Client) {
	if client.gameID == "" {
		// Player was not in a game, just leave queue
		h.matchmaker.LeaveQueue(client.username)
		return
	}

	g := h.matchmaker.GetGame(client.gameID)
	if g == nil {
		return
	}

	piece := g.GetPlayerByUsername(client.username)
	if piece == engine.Empty {
		return
	}

	// Handle bot game - forfeit immediately since bot doesn't wait
	if g.Player2 != nil && g.Player2.IsBot && piece == engine.PlayerOne {
		g.Forfeit(engine.PlayerOne)
		h.handleGameEnd(g)
		return
	}

	// Mark player as disconnected
	g.PlayerDisconnected(piece)

	// Notify opponent
	h.notifyOpponentDisconnected(g, piece)

	// Start 30-second timeout
	go h.handleReconnectTimeout(g, piece)
}

// handleReconnectTimeout waits 30 seconds for reconnection
func (h *Hub) handleReconnectTimeout(g *game.Game, disconnected engine.Piece) {
	time.Sleep(30 * time.Second)

	state := g.GetState()
	if state.Status == game.StatusDisconnect {
		// Player didn't reconnect, forfeit
		g.Forfeit(disconnected)
		h.handleGameEnd(g)

		// Notify remaining player
		h.broadcastToGame(g.ID, Message{
			Type:   TypeGameOver,
			Winner: g.Winner.Username,
			Reason: "forfeit",
		})
	}
}

// notifyOpponentDisconnected notifies the opponent about disconnect
func (h *Hub) notifyOpponentDisconnected(g *game.Game, disconnected engine.Piece) {
	deadline := time.Now().Add(30 * time.Second)

	h.mu.RLock()
	clients := h.gameClients[g.ID]
	h.mu.RUnlock()

	for username, client := range clients {
		if g.GetPlayerByUsername(username) != disconnected {
			msg := Message{
				Type:              TypeOpponentDisconnected,
				ReconnectDeadline: deadline.Format(time.RFC3339),
			}
			client.sendMessage(msg)
		}
	}
}

// RegisterToGame adds a client to a game's client list
func (h *Hub) RegisterToGame(gameID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.gameClients[gameID] == nil {
		h.gameClients[gameID] = make(map[string]*Client)
	}
	h.gameClients[gameID][client.username] = client
	client.gameID = gameID
}

// BroadcastGameState sends game state to all players in a game
func (h *Hub) BroadcastGameState(g *game.Game) {
	state := g.GetState()
	h.broadcastToGame(g.ID, Message{
		Type:  TypeState,
		State: state,
	})
}

// broadcastToGame sends a message to all clients in a game
func (h *Hub) broadcastToGame(gameID string, msg Message) {
	h.mu.RLock()
	clients := h.gameClients[gameID]
	h.mu.RUnlock()

	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("type", msg.Type).Msg("failed to marshal message")
		return
	}

	for username, client := range clients {
		select {
		case client.send <- data:
		default:
			log.Warn().
				Str("type", msg.Type).
				Str("username", username).
				Msg("dropped message, send buffer full")
		}
	}
}

// SendToClient sends a message to a specific client
func (h *Hub) SendToClient(username string, msg Message) {
	h.mu.RLock()
	client, ok := h.clients[username]
	h.mu.RUnlock()

	if !ok {
		return
	}

	client.sendMessage(msg)
}

// handleGameEnd processes game completion
func (h *Hub) handleGameEnd(g *game.Game) {
	if h.onGameEnd != nil {
		h.onGameEnd(g)
	}

	// Clean up after a delay
	go func() {
		time.Sleep(5 * time.Second)
		h.mu.Lock()
		delete(h.gameClients, g.ID)
		h.mu.Unlock()
		h.matchmaker.RemoveGame(g.ID)
	}()
}

// HandleBotMove computes and applies the engine's move, then broadcasts it
// along with the decision telemetry.
func (h *Hub) HandleBotMove(g *game.Game) {
	if g.Player2 == nil || !g.Player2.IsBot {
		return
	}

	state := g.GetState()
	if state.Status != game.StatusPlaying {
		return
	}
	if state.CurrentTurn != int(engine.PlayerTwo) {
		return
	}

	// Add a small delay to make it feel more natural
	time.Sleep(500 * time.Millisecond)

	col, row, decision, err := g.MakeBotMove()
	if err != nil {
		log.Error().Err(err).Str("gameID", g.ID).Msg("bot move failed")
		return
	}

	log.Info().
		Str("gameID", g.ID).
		Int("column", col).
		Int("row", row).
		Int("score", decision.Score).
		Int("depth", decision.Depth).
		Uint64("nodes", decision.Nodes).
		Dur("elapsed", decision.Elapsed).
		Bool("shortcut", decision.Shortcut).
		Msg("bot played")

	if h.onBotDecision != nil {
		go h.onBotDecision(g, decision)
	}

	// Broadcast the move
	h.broadcastToGame(g.ID, Message{
		Type:     TypeState,
		State:    g.GetState(),
		Column:   col,
		Row:      row,
		Decision: decision,
	})

	// Check if game ended
	newState := g.GetState()
	if newState.Status == game.StatusFinished {
		h.broadcastToGame(g.ID, Message{
			Type:   TypeGameOver,
			Winner: newState.Winner,
			Reason: newState.Result,
		})
		h.handleGameEnd(g)
	}
}

// GetClient returns a client by username
func (h *Hub) GetClient(username string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[username]
}
