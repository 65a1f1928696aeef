package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// RemoteSynth talks to a kokoro-style HTTP synthesis service.
type RemoteSynth struct {
	endpoint string
	client   *http.Client
}

type remoteRequest struct {
	Text  string  `json:"text"`
	Voice string  `json:"voice"`
	Speed float64 `json:"speed"`
	Lang  string  `json:"lang"`
}

type voicesResponse struct {
	Voices []string `json:"voices"`
}

// NewRemoteSynth returns a synthesizer backed by the HTTP service at endpoint.
func NewRemoteSynth(endpoint string) *RemoteSynth {
	return &RemoteSynth{endpoint: endpoint, client: http.DefaultClient}
}

func (r *RemoteSynth) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	payload := remoteRequest{
		Text:  req.Text,
		Voice: req.Voice,
		Speed: req.Speed,
		Lang:  req.Locale,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint+"/tts", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("tts backend returned status %s", resp.Status)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("tts backend returned empty payload")
	}
	return audio, nil
}

// Voices lists the voice inventory of the remote service.
func (r *RemoteSynth) Voices(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"/voices", nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("tts backend returned status %s", resp.Status)
	}
	var decoded voicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	return decoded.Voices, nil
}
