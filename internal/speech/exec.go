package speech

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"

	"github.com/mattn/go-shellwords"
)

// execSynth shells out to an on-device synthesis command. The command reads a
// JSON request on stdin and writes a single JSON response line on stdout.
type execSynth struct {
	cmd []string
	mu  sync.Mutex
}

type execRequest struct {
	Text  string  `json:"text"`
	Voice string  `json:"voice"`
	Speed float64 `json:"speed"`
	Lang  string  `json:"lang"`
}

type execResponse struct {
	AudioBase64 string `json:"audio_base64"`
}

func NewExecSynth(command string) (Synthesizer, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse device command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("device command empty")
	}
	return &execSynth{cmd: args}, nil
}

func (e *execSynth) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	payload := execRequest{
		Text:  req.Text,
		Voice: req.Voice,
		Speed: req.Speed,
		Lang:  req.Locale,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	base := e.cmd[0]
	args := append([]string{}, e.cmd[1:]...)
	cmd := exec.CommandContext(ctx, base, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	if _, err := stdin.Write(data); err != nil {
		cmd.Wait()
		return nil, err
	}
	stdin.Close()

	var audio []byte
	scanner := bufio.NewScanner(stdout)
	// The whole clip arrives base64-encoded on a single line, which for audio
	// of any length blows past the scanner's default 64KB token limit.
	scanner.Buffer(make([]byte, 64*1024), 32*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var resp execResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			cmd.Wait()
			return nil, err
		}
		audio, err = base64.StdEncoding.DecodeString(resp.AudioBase64)
		if err != nil {
			cmd.Wait()
			return nil, err
		}
		break
	}
	if err := cmd.Wait(); err != nil {
		return nil, err
	}
	if scanErr := scanner.Err(); scanErr != nil {
		return nil, scanErr
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("device command produced no audio")
	}
	return audio, nil
}
