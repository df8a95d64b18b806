package conversation

// OrchestratorOption configures an Orchestrator at construction time.
type OrchestratorOption func(*Orchestrator)

func WithSpeechToText(client SpeechToText) OrchestratorOption {
	return func(o *Orchestrator) {
		o.asr = client
	}
}

func WithLanguageAgent(agent LanguageAgent) OrchestratorOption {
	return func(o *Orchestrator) {
		o.agent = agent
	}
}

func WithSpeechSynthesizer(synth SpeechSynthesizer) OrchestratorOption {
	return func(o *Orchestrator) {
		o.synthesizer = synth
	}
}

// WithTranslator translates synthesis text right before it is spoken.
// Display text is never translated.
func WithTranslator(translator Translator) OrchestratorOption {
	return func(o *Orchestrator) {
		o.translator = translator
	}
}

func WithHistoryStore(store HistoryStore) OrchestratorOption {
	return func(o *Orchestrator) {
		o.history = store
	}
}

// WithCommandHandler enables command follow-ups for reserved markers in the
// agent's response.
func WithCommandHandler(handler CommandHandler) OrchestratorOption {
	return func(o *Orchestrator) {
		o.commands = handler
	}
}
