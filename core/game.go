package conversation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
)

type gameMove string

const (
	moveRock     gameMove = "rock"
	movePaper    gameMove = "paper"
	moveScissors gameMove = "scissors"
)

var moveAliases = map[gameMove][]string{
	moveRock:     {"rock", "石头"},
	movePaper:    {"paper", "布"},
	moveScissors: {"scissors", "剪刀"},
}

func parseGameMove(text string) (gameMove, bool) {
	lowered := strings.ToLower(text)
	for move, aliases := range moveAliases {
		for _, alias := range aliases {
			if strings.Contains(lowered, alias) {
				return move, true
			}
		}
	}
	return "", false
}

func (m gameMove) beats(other gameMove) bool {
	switch m {
	case moveRock:
		return other == moveScissors
	case moveScissors:
		return other == movePaper
	case movePaper:
		return other == moveRock
	}
	return false
}

func randomMove() gameMove {
	moves := []gameMove{moveRock, movePaper, moveScissors}
	return moves[rand.IntN(len(moves))]
}

const (
	gamePickMovePrompt = "We are starting a round of rock-paper-scissors. " +
		"Secretly pick exactly one move and answer with only that word: rock, paper, or scissors."

	gameAskUserMovePrompt = "You already picked your rock-paper-scissors move in secret. " +
		"Now excitedly ask the user to say their move: rock, paper, or scissors. Do not reveal yours."

	gameInvalidMovePrompt = "The user said something that is not a valid rock-paper-scissors move. " +
		"Playfully remind them the only valid moves are rock, paper, or scissors, and ask again."

	gameResultPromptFormat = "The rock-paper-scissors round is over. You played %s, the user played %s, " +
		"so the result is %s. React to the result in character, in one or two short sentences."
)

// startGame begins a rock-paper-scissors round: the agent commits to a move
// before the user is asked for theirs, so the outcome cannot be steered.
func (o *Orchestrator) startGame(ctx context.Context, session *Session, turn *Turn, seq *Sequencer) error {
	ctx, span := tracer.Start(ctx, "game start")
	defer span.End()

	session.setGameState(GamePlaying)

	picked, err := o.collectResponse(ctx, turn, BatchInput{Text: gamePickMovePrompt})
	if err != nil {
		span.RecordError(err)
		session.setGameState(GameIdle)
		return err
	}

	move, ok := parseGameMove(picked)
	if !ok {
		move = randomMove()
	}
	session.setAgentMove(string(move))

	if _, err := o.speakSubTurn(ctx, session, turn, seq, gameAskUserMovePrompt); err != nil {
		span.RecordError(err)
		session.setGameState(GameIdle)
		session.setAgentMove("")
		return err
	}

	session.setGameState(GameWaitingForUserMove)
	return nil
}

// resolveGameMove judges the user's move against the agent's committed one
// and has the agent narrate the outcome. Unparseable input keeps the round
// open and asks again.
func (o *Orchestrator) resolveGameMove(ctx context.Context, session *Session, turn *Turn, seq *Sequencer, inputText string) error {
	ctx, span := tracer.Start(ctx, "game move")
	defer span.End()

	userMove, ok := parseGameMove(inputText)
	if !ok {
		_, err := o.speakSubTurn(ctx, session, turn, seq, gameInvalidMovePrompt)
		if err != nil {
			span.RecordError(err)
		}
		return err
	}

	agentMove := gameMove(session.currentAgentMove())
	if agentMove == "" {
		agentMove = randomMove()
	}

	var outcome string
	switch {
	case agentMove == userMove:
		outcome = "a draw"
	case agentMove.beats(userMove):
		outcome = "your win"
	default:
		outcome = "the user's win"
	}

	prompt := fmt.Sprintf(gameResultPromptFormat, agentMove, userMove, outcome)
	_, err := o.speakSubTurn(ctx, session, turn, seq, prompt)
	if err != nil {
		span.RecordError(err)
	}

	session.setGameState(GameIdle)
	session.setAgentMove("")
	return err
}
