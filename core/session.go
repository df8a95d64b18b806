package conversation

import (
	"strings"
	"sync"
)

// GameState gates whether raw input is intercepted by the embedded
// rock-paper-scissors game before reaching the language agent.
type GameState string

const (
	GameIdle               GameState = "idle"
	GamePlaying            GameState = "playing"
	GameWaitingForUserMove GameState = "waiting_for_user_move"
)

// Session is the per-client mutable state. Everything except the active-turn
// bookkeeping is mutated only on the session's single logical thread of
// control (at most one turn runs at a time).
type Session struct {
	ID   string
	sink OutputSink

	// startMu serializes turn starts so two concurrent RunTurn calls cannot
	// both observe "no active turn".
	startMu sync.Mutex
	mu      sync.Mutex
	active  *Turn

	gameState GameState
	agentMove string

	// lastResponse is the previous turn's full response, kept for
	// interrupt handling.
	lastResponse string
}

func NewSession(id string, sink OutputSink) *Session {
	return &Session{
		ID:        id,
		sink:      sink,
		gameState: GameIdle,
	}
}

// CancelActiveTurn signals the current turn, if any, to stop. Safe to call
// from the transport's read loop at any time.
func (s *Session) CancelActiveTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		s.active.Cancel()
	}
}

func (s *Session) GameState() GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gameState
}

// LastResponse returns the full text of the most recently finished turn.
func (s *Session) LastResponse() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastResponse
}

// begin installs turn as the session's active turn. If a previous turn is
// still running it is cancelled and begin blocks until its finalize phase
// released it, so turn lifecycles never interleave.
func (s *Session) begin(turn *Turn) {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	s.mu.Lock()
	previous := s.active
	s.mu.Unlock()

	if previous != nil {
		previous.Cancel()
		<-previous.finished
	}

	s.mu.Lock()
	s.active = turn
	s.mu.Unlock()
}

func (s *Session) end(turn *Turn, response string) {
	s.mu.Lock()
	if s.active == turn {
		s.active = nil
	}
	if response != "" {
		s.lastResponse = response
	}
	s.mu.Unlock()

	close(turn.finished)
}

func (s *Session) setGameState(state GameState) {
	s.mu.Lock()
	s.gameState = state
	s.mu.Unlock()
}

func (s *Session) setAgentMove(move string) {
	s.mu.Lock()
	s.agentMove = move
	s.mu.Unlock()
}

func (s *Session) currentAgentMove() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agentMove
}

type inputKind int

const (
	inputConversation inputKind = iota
	inputGameStart
	inputGameMove
)

var gameTriggers = []string{"猜拳", "rock paper scissors", "rock-paper-scissors"}

// classifyInput is a pure decision function of (gameState, text): it decides
// whether input belongs to the normal conversation path or to the game.
func classifyInput(state GameState, text string) inputKind {
	switch state {
	case GameWaitingForUserMove:
		return inputGameMove
	case GamePlaying:
		// Mid-setup input is treated as part of the game exchange.
		return inputGameMove
	}

	lowered := strings.ToLower(text)
	for _, trigger := range gameTriggers {
		if strings.Contains(lowered, trigger) {
			return inputGameStart
		}
	}

	return inputConversation
}
