package conversation

import "testing"

func TestClassifyInput(t *testing.T) {
	cases := []struct {
		name  string
		state GameState
		text  string
		want  inputKind
	}{
		{"plain conversation", GameIdle, "how was your day?", inputConversation},
		{"english trigger", GameIdle, "let's play rock paper scissors!", inputGameStart},
		{"hyphenated trigger", GameIdle, "Rock-Paper-Scissors?", inputGameStart},
		{"chinese trigger", GameIdle, "我们来猜拳吧", inputGameStart},
		{"awaiting move", GameWaitingForUserMove, "rock", inputGameMove},
		{"awaiting move with chatter", GameWaitingForUserMove, "hmm, I pick rock", inputGameMove},
		{"mid-setup input", GamePlaying, "hurry up", inputGameMove},
		{"trigger word ignored mid-game", GameWaitingForUserMove, "rock paper scissors", inputGameMove},
	}

	for _, tc := range cases {
		if got := classifyInput(tc.state, tc.text); got != tc.want {
			t.Fatalf("%s: classifyInput(%q, %q) = %v, want %v", tc.name, tc.state, tc.text, got, tc.want)
		}
	}
}

func TestCancelTokenIsIdempotent(t *testing.T) {
	token := newCancelToken()
	if token.IsCancelled() {
		t.Fatalf("fresh token must not be cancelled")
	}

	token.Cancel()
	token.Cancel()

	if !token.IsCancelled() {
		t.Fatalf("expected token cancelled")
	}
	select {
	case <-token.Done():
	default:
		t.Fatalf("expected Done channel closed")
	}
}

func TestInputValidate(t *testing.T) {
	cases := []struct {
		name    string
		input   Input
		wantErr bool
	}{
		{"text only", Input{Text: "hi"}, false},
		{"aligned audio", Input{Audio: []byte{0, 0, 0, 0}}, false},
		{"empty", Input{}, true},
		{"both", Input{Text: "hi", Audio: []byte{0, 0}}, true},
		{"misaligned audio", Input{Audio: []byte{0, 0, 0}}, true},
	}

	for _, tc := range cases {
		err := tc.input.validate()
		if tc.wantErr && err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
	}
}
