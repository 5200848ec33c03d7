package bridge

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
)

// maxRequestSize bounds a single request line.
const maxRequestSize = 1 << 20

// Request is one JSON-lines command.
type Request struct {
	ID      string          `json:"id"`
	Command string          `json:"command"`
	Args    json.RawMessage `json:"args,omitempty"`
}

// Response answers one Request. Result is null for commands without output.
type Response struct {
	Result any    `json:"result"`
	ID     string `json:"id"`
	Error  string `json:"error,omitempty"`
	OK     bool   `json:"ok"`
}

// Serve reads newline-delimited requests from r and writes one response per
// request to w, in order. It returns when r is exhausted or ctx is done.
func (b *Bridge) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRequestSize)
	enc := json.NewEncoder(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		resp := b.handleLine(ctx, line)
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("failed to write response: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read request: %w", err)
	}
	return nil
}

func (b *Bridge) handleLine(ctx context.Context, line []byte) Response {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		slog.Warn("malformed request", "error", err)
		return Response{
			ID:    uuid.NewString(),
			Error: fmt.Sprintf("Malformed request: %v", err),
		}
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	result, err := b.Invoke(ctx, req.Command, req.Args)
	if err != nil {
		return Response{ID: req.ID, Error: Message(err)}
	}
	return Response{ID: req.ID, OK: true, Result: result}
}
