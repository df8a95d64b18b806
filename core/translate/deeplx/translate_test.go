package deeplx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTranslate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body translateRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if body.TargetLang != "JA" || body.Text != "Hello." {
			t.Errorf("unexpected request %+v", body)
		}
		json.NewEncoder(w).Encode(translateResponse{Code: 200, Data: "こんにちは。"})
	}))
	defer server.Close()

	translated, err := New(server.URL, "JA").Translate(context.Background(), "Hello.")
	if err != nil {
		t.Fatalf("translation failed: %v", err)
	}
	if translated != "こんにちは。" {
		t.Fatalf("unexpected translation %q", translated)
	}
}

func TestTranslateRejectsErrorCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(translateResponse{Code: 500})
	}))
	defer server.Close()

	if _, err := New(server.URL, "JA").Translate(context.Background(), "Hello."); err == nil {
		t.Fatalf("expected translation error")
	}
}
