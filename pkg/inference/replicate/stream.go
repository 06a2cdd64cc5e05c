package replicate

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-nodegen/pkg/inference"
)

const (
	eventOutput = "output"
	eventError  = "error"
	eventDone   = "done"
)

type sseEvent struct {
	name string
	data string
}

// Stream reads a prediction's server-sent event stream and returns the output
// fragments in arrival order.
func (c *Client) Stream(ctx context.Context, streamURL string) ([]any, error) {
	req, err := c.newRequest(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, inference.WrapError(ctx.Err(), inference.ErrCanceled)
		}
		return nil, inference.WrapError(fmt.Errorf("replicate: stream: %w", err), inference.ErrTransient)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return nil, statusError(resp)
	}

	fragments := make([]any, 0, 16)
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var current sseEvent
	var data []string
	dispatch := func() (bool, error) {
		defer func() {
			current = sseEvent{}
			data = data[:0]
		}()
		if len(data) == 0 && current.name == "" {
			return false, nil
		}
		current.data = strings.Join(data, "\n")
		switch current.name {
		case eventOutput, "":
			fragments = append(fragments, current.data)
		case eventError:
			return true, fmt.Errorf("%w: %s", inference.ErrPredictionFailed, streamErrorMessage(current.data))
		case eventDone:
			return true, doneError(current.data)
		}
		return false, nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			done, err := dispatch()
			if err != nil {
				return nil, err
			}
			if done {
				return fragments, nil
			}
		case strings.HasPrefix(line, ":"):
			// comment / keep-alive
		case strings.HasPrefix(line, "event:"):
			current.name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			value := strings.TrimPrefix(line, "data:")
			data = append(data, strings.TrimPrefix(value, " "))
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return nil, inference.WrapError(ctx.Err(), inference.ErrCanceled)
		}
		return nil, inference.WrapError(fmt.Errorf("replicate: read stream: %w", err), inference.ErrTransient)
	}
	if _, err := dispatch(); err != nil {
		return nil, err
	}
	return fragments, nil
}

func streamErrorMessage(data string) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal([]byte(data), &parsed); err == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return data
}

// doneError maps a done event with a failure reason onto an error.
func doneError(data string) error {
	var parsed struct {
		Reason string `json:"reason"`
	}
	if strings.TrimSpace(data) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(data), &parsed); err != nil {
		return nil
	}
	switch parsed.Reason {
	case "error", StatusCanceled:
		return fmt.Errorf("%w: stream ended with reason %q", inference.ErrPredictionFailed, parsed.Reason)
	default:
		return nil
	}
}
