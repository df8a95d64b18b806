package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	commandMarkerWebSearch   = "[web_search]"
	commandFallbackUtterance = "I found some information but had trouble summarizing it."
)

// Orchestrator executes conversation turns against a fixed set of ports. It
// holds no per-session state; sessions are passed into RunTurn.
type Orchestrator struct {
	asr         SpeechToText
	agent       LanguageAgent
	synthesizer SpeechSynthesizer
	translator  Translator
	history     HistoryStore
	commands    CommandHandler
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunTurn executes exactly one conversation turn to completion or
// cancellation: intake, generate, deliver, finalize. It returns the full
// accumulated response text. The finalize phase always runs, so a turn-end
// control message is eventually sent and no audio resources are leaked,
// whatever path the turn took.
func (o *Orchestrator) RunTurn(ctx context.Context, session *Session, input Input) (string, error) {
	ctx, span := tracer.Start(ctx, "conversation turn")
	defer span.End()

	if err := input.validate(); err != nil {
		span.RecordError(err)
		o.send(session, NewErrorMessage(err.Error()))
		return "", err
	}

	turn := newTurn(input)
	session.begin(turn)

	seq := newSequencer(o.synthesizer, session.sink)
	cancelHook := withCancelHook(turn.token, seq.Cancel)

	skipHistory := false
	var turnErr error

	defer func() {
		if turn.token.IsCancelled() {
			seq.Cancel()
		}
		seq.Drain()
		close(cancelHook)

		response := turn.accumulated.String()
		if response != "" && !skipHistory {
			o.appendHistory(ctx, session, turn, RoleAssistant, response)
		}
		o.send(session, newControlMessage(ControlConversationChainEnd))
		session.end(turn, response)
	}()

	o.send(session, newControlMessage(ControlConversationChainStart))
	logger.Info("turn started", "session", session.ID, "turn", turn.ID)

	// Intake is the one phase allowed to block the turn: a response cannot
	// start before the transcription is known.
	inputText := input.Text
	if len(input.Audio) > 0 {
		if o.asr == nil {
			turnErr = &AsrError{Err: errors.New("no speech-to-text configured")}
			span.RecordError(turnErr)
			o.send(session, NewErrorMessage(turnErr.Error()))
			return "", turnErr
		}

		text, err := o.asr.Transcribe(ctx, input.Audio)
		if err != nil {
			turnErr = &AsrError{Err: err}
			span.RecordError(turnErr)
			o.send(session, NewErrorMessage(turnErr.Error()))
			return "", turnErr
		}
		inputText = text
		o.send(session, newTranscriptionMessage(inputText))
	}

	switch classifyInput(session.GameState(), inputText) {
	case inputGameStart:
		skipHistory = true
		return "", o.startGame(ctx, session, turn, seq)
	case inputGameMove:
		skipHistory = true
		return "", o.resolveGameMove(ctx, session, turn, seq, inputText)
	}

	o.appendHistory(ctx, session, turn, RoleUser, inputText)

	interrupted := false
	stream := o.agent.Chat(ctx, BatchInput{Text: inputText, Images: input.Images})
	for output, err := range stream {
		if turn.token.IsCancelled() {
			interrupted = true
			break
		}
		if err != nil {
			// An internal fault, not a user interruption: the agent is not
			// told it was interrupted, the turn just stops here.
			turnErr = &AgentStreamError{Err: err}
			span.RecordError(turnErr)
			logger.Error("agent stream failed mid-turn", "turn", turn.ID, "error", err)
			o.send(session, NewErrorMessage(fmt.Sprintf("error processing agent response: %v", err)))
			break
		}

		o.deliver(ctx, session, turn, seq, output)
	}

	if !interrupted && turnErr == nil && turn.token.IsCancelled() {
		interrupted = true
	}
	if interrupted {
		o.agent.Interrupt(turn.accumulated.String())
	}

	if !interrupted && turnErr == nil {
		o.runCommandFollowUp(ctx, turn, seq)
	}

	return turn.accumulated.String(), turnErr
}

// deliver routes one agent output unit: sentences and pre-rendered audio get
// the next ordering slot, tool status goes straight through.
func (o *Orchestrator) deliver(ctx context.Context, session *Session, turn *Turn, seq *Sequencer, output Output) {
	switch unit := output.(type) {
	case SentenceUnit:
		turn.accumulated.WriteString(unit.DisplayText)
		seq.Submit(ctx, turn.nextSlotIndex(), o.translate(ctx, unit.SynthesisText), unit.DisplayText, unit.Actions)

	case AudioUnit:
		turn.accumulated.WriteString(unit.DisplayText)
		seq.SubmitAudio(turn.nextSlotIndex(), unit.Audio, unit.DisplayText, unit.Actions)

	case ToolStatusUnit:
		o.send(session, newToolStatusMessage(unit))

	default:
		logger.Warn("dropping unexpected agent output unit", "turn", turn.ID, "unit", fmt.Sprintf("%T", output))
	}
}

// runCommandFollowUp handles a reserved command marker in the finished
// response: the command result is summarized by a nested agent sub-turn
// whose output replaces the accumulated response and is spoken through the
// same sequencer, continuing the outer turn's slot numbering. Failures never
// abort the outer turn.
func (o *Orchestrator) runCommandFollowUp(ctx context.Context, turn *Turn, seq *Sequencer) {
	if o.commands == nil {
		return
	}

	response := turn.accumulated.String()
	marker := strings.Index(strings.ToLower(response), commandMarkerWebSearch)
	if marker < 0 {
		return
	}

	ctx, span := tracer.Start(ctx, "command follow-up")
	defer span.End()

	query := strings.TrimSpace(response[marker+len(commandMarkerWebSearch):])
	summary, err := o.summarizeCommand(ctx, turn, query)
	if err != nil {
		span.RecordError(err)
		logger.Error("command follow-up failed, using fallback utterance", "turn", turn.ID, "error", err)
		summary = commandFallbackUtterance
	}

	turn.accumulated.Reset()
	turn.accumulated.WriteString(summary)
	seq.Submit(ctx, turn.nextSlotIndex(), o.translate(ctx, summary), summary, nil)
}

func (o *Orchestrator) summarizeCommand(ctx context.Context, turn *Turn, query string) (string, error) {
	result, err := o.commands.Invoke(ctx, "web_search "+query)
	if err != nil {
		return "", &CommandHandlerError{Err: err}
	}
	if result == nil || len(result.Results) == 0 {
		return "", &CommandHandlerError{Err: errors.New("command produced no results")}
	}

	var prompt strings.Builder
	prompt.WriteString("Based on these search results, provide a natural, conversational summary of the most important and recent findings:\n\n")
	for i, item := range result.Results {
		fmt.Fprintf(&prompt, "%d. %s\n   %s\n\n", i+1, item.Title, item.Body)
	}
	prompt.WriteString("Synthesize this into a clear, engaging summary, starting with the most significant point.")

	summary, err := o.collectResponse(ctx, turn, BatchInput{Text: prompt.String()})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(summary) == "" {
		return "", errors.New("agent produced an empty summary")
	}
	return summary, nil
}

// collectResponse consumes a nested agent sub-turn, accumulating display
// text without speaking it.
func (o *Orchestrator) collectResponse(ctx context.Context, turn *Turn, input BatchInput) (string, error) {
	var full strings.Builder
	for output, err := range o.agent.Chat(ctx, input) {
		if turn.token.IsCancelled() {
			break
		}
		if err != nil {
			return "", &AgentStreamError{Err: err}
		}

		switch unit := output.(type) {
		case SentenceUnit:
			full.WriteString(unit.DisplayText)
		case AudioUnit:
			full.WriteString(unit.DisplayText)
		}
	}
	return full.String(), nil
}

// speakSubTurn consumes a nested agent sub-turn and speaks it through the
// turn's sequencer, continuing the turn's slot numbering and accumulated
// response.
func (o *Orchestrator) speakSubTurn(ctx context.Context, session *Session, turn *Turn, seq *Sequencer, prompt string) (string, error) {
	var full strings.Builder
	for output, err := range o.agent.Chat(ctx, BatchInput{Text: prompt}) {
		if turn.token.IsCancelled() {
			break
		}
		if err != nil {
			return full.String(), &AgentStreamError{Err: err}
		}

		switch unit := output.(type) {
		case SentenceUnit:
			full.WriteString(unit.DisplayText)
			turn.accumulated.WriteString(unit.DisplayText)
			seq.Submit(ctx, turn.nextSlotIndex(), o.translate(ctx, unit.SynthesisText), unit.DisplayText, unit.Actions)
		case AudioUnit:
			full.WriteString(unit.DisplayText)
			turn.accumulated.WriteString(unit.DisplayText)
			seq.SubmitAudio(turn.nextSlotIndex(), unit.Audio, unit.DisplayText, unit.Actions)
		case ToolStatusUnit:
			o.send(session, newToolStatusMessage(unit))
		}
	}
	return full.String(), nil
}

func (o *Orchestrator) translate(ctx context.Context, text string) string {
	if o.translator == nil || strings.TrimSpace(text) == "" {
		return text
	}

	translated, err := o.translator.Translate(ctx, text)
	if err != nil {
		logger.Warn("translation failed, speaking original text", "error", err)
		return text
	}
	return translated
}

func (o *Orchestrator) appendHistory(ctx context.Context, session *Session, turn *Turn, role, content string) {
	if o.history == nil || content == "" {
		return
	}

	if err := o.history.Append(ctx, session.ID, turn.ID, role, content); err != nil {
		logger.Warn("failed to append history", "session", session.ID, "role", role, "error", err)
	}
}

func (o *Orchestrator) send(session *Session, msg Message) {
	if err := session.sink.Send(msg); err != nil {
		logger.Warn("failed to send message", "session", session.ID, "type", string(msg.Type), "error", err)
	}
}
