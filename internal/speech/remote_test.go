package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRemoteSynthesize(t *testing.T) {
	var got remoteRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tts" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte("wav-bytes"))
	}))
	defer server.Close()

	synth := NewRemoteSynth(server.URL)
	audio, err := synth.Synthesize(context.Background(), Request{Text: "Hello.", Voice: "af_heart", Speed: 1.0, Locale: "en-us"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(audio) != "wav-bytes" {
		t.Fatalf("unexpected payload %q", audio)
	}
	if got.Text != "Hello." || got.Voice != "af_heart" || got.Lang != "en-us" {
		t.Fatalf("unexpected request body: %+v", got)
	}
}

func TestRemoteSynthesizeErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	synth := NewRemoteSynth(server.URL)
	if _, err := synth.Synthesize(context.Background(), Request{Text: "Hello."}); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}

func TestRemoteVoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/voices" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(voicesResponse{Voices: []string{"af_heart", "am_adam"}})
	}))
	defer server.Close()

	synth := NewRemoteSynth(server.URL)
	voices, err := synth.Voices(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(voices) != 2 || voices[0] != "af_heart" {
		t.Fatalf("unexpected voices %v", voices)
	}
}
