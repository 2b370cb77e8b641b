package matchmaker

import (
	"sync"
	"time"

	"github.com/drop-four/internal/game"
	"github.com/rs/zerolog/log"
)

// WaitingPlayer represents a player waiting for a match
type WaitingPlayer struct {
	Username  string
	JoinedAt  time.Time
	MatchChan chan *game.Game
}

// Matchmaker pairs players into games, falling back to a bot opponent when
// nobody shows up within the timeout. All games it creates share the
// configured board settings.
type Matchmaker struct {
	settings     game.Settings
	timeout      time.Duration
	waitingQueue []*WaitingPlayer
	activeGames  map[string]*game.Game // gameID -> game
	playerGames  map[string]string     // username -> gameID
	mu           sync.Mutex
	onGameStart  func(g *game.Game)
}

// NewMatchmaker creates a matchmaker that builds games with the given
// settings and waits timeout before matching against the bot.
func NewMatchmaker(settings game.Settings, timeout time.Duration) *Matchmaker {
	return &Matchmaker{
		settings:     settings,
		timeout:      timeout,
		waitingQueue: make([]*WaitingPlayer, 0),
		activeGames:  make(map[string]*game.Game),
		playerGames:  make(map[string]string),
	}
}

// Settings returns the board settings used for new games.
func (m *Matchmaker) Settings() game.Settings {
	return m.settings
}

// SetOnGameStart sets the callback for when a game starts
func (m *Matchmaker) SetOnGameStart(callback func(g *game.Game)) {
	m.onGameStart = callback
}

// JoinQueue adds a player to the matchmaking queue
// Returns a channel that will receive the game when matched
func (m *Matchmaker) JoinQueue(username string) (<-chan *game.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check if player is already in a game
	if gameID, exists := m.playerGames[username]; exists {
		if g, ok := m.activeGames[gameID]; ok {
			// Return existing game for reconnection
			ch := make(chan *game.Game, 1)
			ch <- g
			return ch, nil
		}
	}

	// Check if there's a waiting player to match with
	if len(m.waitingQueue) > 0 {
		opponent := m.waitingQueue[0]
		m.waitingQueue = m.waitingQueue[1:]

		g, err := game.NewGame(opponent.Username, m.settings)
		if err != nil {
			return nil, err
		}
		if err := g.AddPlayer2(username, false); err != nil {
			return nil, err
		}

		m.activeGames[g.ID] = g
		m.playerGames[opponent.Username] = g.ID
		m.playerGames[username] = g.ID

		// Notify the waiting player
		opponent.MatchChan <- g

		ch := make(chan *game.Game, 1)
		ch <- g

		log.Info().
			Str("gameID", g.ID).
			Str("player1", opponent.Username).
			Str("player2", username).
			Msg("players matched")

		if m.onGameStart != nil {
			go m.onGameStart(g)
		}

		return ch, nil
	}

	// No opponent available, add to queue
	waiting := &WaitingPlayer{
		Username:  username,
		JoinedAt:  time.Now(),
		MatchChan: make(chan *game.Game, 1),
	}
	m.waitingQueue = append(m.waitingQueue, waiting)

	go m.handleMatchmakingTimeout(waiting)

	return waiting.MatchChan, nil
}

// handleMatchmakingTimeout pairs the player with the bot once the wait
// expires.
func (m *Matchmaker) handleMatchmakingTimeout(waiting *WaitingPlayer) {
	time.Sleep(m.timeout)

	m.mu.Lock()
	defer m.mu.Unlock()

	// Check if still in queue
	for i, w := range m.waitingQueue {
		if w == waiting {
			m.waitingQueue = append(m.waitingQueue[:i], m.waitingQueue[i+1:]...)

			g, err := game.NewGame(waiting.Username, m.settings)
			if err != nil {
				log.Error().Err(err).Str("player", waiting.Username).Msg("failed to create bot game")
				close(waiting.MatchChan)
				return
			}
			if err := g.AddPlayer2(game.BotName, true); err != nil {
				log.Error().Err(err).Str("gameID", g.ID).Msg("failed to attach engine")
				close(waiting.MatchChan)
				return
			}

			m.activeGames[g.ID] = g
			m.playerGames[waiting.Username] = g.ID

			log.Info().
				Str("gameID", g.ID).
				Str("player", waiting.Username).
				Int("rows", m.settings.Rows).
				Int("cols", m.settings.Cols).
				Int("depth", m.settings.BaseDepth).
				Msg("bot game created")

			waiting.MatchChan <- g

			if m.onGameStart != nil {
				go m.onGameStart(g)
			}

			return
		}
	}

	// Player was already matched, do nothing
}

// GetGame returns a game by ID
func (m *Matchmaker) GetGame(gameID string) *game.Game {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeGames[gameID]
}

// GetGameByPlayer returns a game by player username
func (m *Matchmaker) GetGameByPlayer(username string) *game.Game {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gameID, exists := m.playerGames[username]; exists {
		return m.activeGames[gameID]
	}
	return nil
}

// RemoveGame removes a completed game from active games
func (m *Matchmaker) RemoveGame(gameID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if g, exists := m.activeGames[gameID]; exists {
		delete(m.playerGames, g.Player1.Username)
		if g.Player2 != nil && !g.Player2.IsBot {
			delete(m.playerGames, g.Player2.Username)
		}
		delete(m.activeGames, gameID)
	}
}

// LeaveQueue removes a player from the waiting queue
func (m *Matchmaker) LeaveQueue(username string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, w := range m.waitingQueue {
		if w.Username == username {
			m.waitingQueue = append(m.waitingQueue[:i], m.waitingQueue[i+1:]...)
			close(w.MatchChan)
			return
		}
	}
}

// GetActiveGameCount returns the number of active games
func (m *Matchmaker) GetActiveGameCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.activeGames)
}

// GetWaitingCount returns the number of players waiting
func (m *Matchmaker) GetWaitingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.waitingQueue)
}
