package runner

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

var (
	ErrConfigInvalid      = errors.New("match config is invalid")
	ErrProcessSpawnFailed = errors.New("failed to spawn simulator")
	ErrProcessTimeout     = errors.New("simulator exceeded its wall-clock timeout")
	ErrProcessCrashed     = errors.New("simulator exited abnormally")
	ErrMalformedOutput    = errors.New("simulator produced no parseable result")
)

const (
	// DefaultTimeout bounds a single match. Long games against slow
	// providers legitimately run for hours.
	DefaultTimeout = 3 * time.Hour

	// Simulator frames can carry full board states.
	maxLineBytes = 4 * 1024 * 1024
)

// Runner drives one external simulation process per match. The simulator is
// a black box: it gets one JSON config on stdin and emits newline-delimited
// output, mixing free text with single-line JSON events.
type Runner struct {
	binPath string
	args    []string
	timeout time.Duration
}

func New(binPath string, args []string, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{binPath: binPath, args: args, timeout: timeout}
}

// envelope is the minimal shape sniffed from each output line before
// dispatching to a typed decode.
type envelope struct {
	Type string `json:"type"`
}

// Run executes one match to completion. With non-nil callbacks, status,
// frame, and chunk events are delivered in receipt order before the final
// result; with nil callbacks it is a plain blocking invocation.
//
// The result is taken from an explicit terminal "result" event when the
// simulator emits one. Older simulators never do, so the last parseable
// JSON object on the stream is kept as a fallback.
func (r *Runner) Run(ctx context.Context, cfg MatchConfig, cb *Callbacks) (*MatchResult, error) {
	cfg.Normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.Command(r.binPath, r.args...)
	// Own process group so a timeout kill takes down simulator children too.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	cmd.Env = os.Environ()
	for key, value := range cfg.Credentials {
		cmd.Env = append(cmd.Env, key+"="+value)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessSpawnFailed, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessSpawnFailed, err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessSpawnFailed, err)
	}

	reaped := make(chan struct{})
	killed := make(chan struct{})
	go func() {
		defer close(killed)
		select {
		case <-reaped:
		case <-ctx.Done():
			// Negative pid targets the whole process group.
			_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
	}()

	if err := json.NewEncoder(stdin).Encode(cfg); err != nil {
		_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		_ = cmd.Wait()
		return nil, fmt.Errorf("%w: writing config: %v", ErrProcessSpawnFailed, err)
	}
	stdin.Close()

	var (
		finalResult *MatchResult
		lastJSON    []byte
	)

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "{") {
			// Free-text progress output; forward as a raw chunk.
			if cb != nil && cb.OnChunk != nil {
				cb.OnChunk(ChunkEvent{Content: line})
			}
			continue
		}

		var env envelope
		if err := json.Unmarshal([]byte(line), &env); err != nil {
			continue
		}
		lastJSON = []byte(line)

		switch env.Type {
		case EventStatus:
			if cb != nil && cb.OnStatus != nil {
				var ev StatusEvent
				if err := json.Unmarshal([]byte(line), &ev); err == nil {
					cb.OnStatus(ev)
				}
			}
		case EventFrame:
			if cb != nil && cb.OnFrame != nil {
				var ev FrameEvent
				if err := json.Unmarshal([]byte(line), &ev); err == nil {
					cb.OnFrame(ev)
				}
			}
		case EventChunk:
			if cb != nil && cb.OnChunk != nil {
				var ev ChunkEvent
				if err := json.Unmarshal([]byte(line), &ev); err == nil {
					cb.OnChunk(ev)
				}
			}
		case EventResult:
			var res MatchResult
			if err := json.Unmarshal([]byte(line), &res); err == nil && res.GameID != "" {
				finalResult = &res
			}
		}
	}
	scanErr := scanner.Err()

	waitErr := cmd.Wait()
	close(reaped)
	<-killed

	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("%w after %s", ErrProcessTimeout, r.timeout)
	}
	if scanErr != nil {
		return nil, fmt.Errorf("%w: reading output: %v", ErrProcessCrashed, scanErr)
	}
	if waitErr != nil {
		return nil, fmt.Errorf("%w: %v: %s", ErrProcessCrashed, waitErr, stderrTail(&stderr))
	}

	if finalResult != nil {
		return finalResult, nil
	}

	// No terminal event: fall back to the last JSON object on the stream.
	if lastJSON != nil {
		var res MatchResult
		if err := json.Unmarshal(lastJSON, &res); err == nil && res.GameID != "" {
			log.Printf("WARN [runner.Run] no terminal result event from simulator, using last JSON line for game %s", res.GameID)
			return &res, nil
		}
	}
	return nil, ErrMalformedOutput
}

func stderrTail(buf *bytes.Buffer) string {
	s := strings.TrimSpace(buf.String())
	if len(s) > 512 {
		s = s[len(s)-512:]
	}
	return s
}
