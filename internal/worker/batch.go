package worker

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/ppiankov/attrib/internal/model"
)

// Attributor attributes a single response. *explain.Engine satisfies it.
type Attributor interface {
	Attribute(ctx context.Context, response string) (*model.Attribution, error)
}

// AttributionJob attributes one response
type AttributionJob struct {
	ID         string
	Response   string
	Attributor Attributor
}

// Execute executes the attribution job
func (j *AttributionJob) Execute(ctx context.Context) Result {
	attribution, err := j.Attributor.Attribute(ctx, j.Response)
	return &BatchResult{
		ID:          j.ID,
		Response:    j.Response,
		Attribution: attribution,
		Error:       err,
	}
}

// BatchResult is the outcome for one response of a batch
type BatchResult struct {
	ID          string             `json:"id"`
	Response    string             `json:"response"`
	Attribution *model.Attribution `json:"attribution,omitempty"`
	Error       error              `json:"-"`
	ErrorText   string             `json:"error,omitempty"`
}

// GetError returns the error from the batch result
func (r *BatchResult) GetError() error {
	return r.Error
}

// BatchProcessor attributes many responses concurrently against one attributor
type BatchProcessor struct {
	attributor  Attributor
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(attributor Attributor, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		attributor:  attributor,
		concurrency: concurrency,
	}
}

// ProcessResponses attributes responses concurrently; results keep input order
func (b *BatchProcessor) ProcessResponses(ctx context.Context, responses []string) []*BatchResult {
	if len(responses) == 0 {
		return []*BatchResult{}
	}

	jobs := make([]Job, len(responses))
	for i, response := range responses {
		jobs[i] = &AttributionJob{
			ID:         uuid.NewString(),
			Response:   response,
			Attributor: b.attributor,
		}
	}

	pool := NewPool(b.concurrency)
	results := pool.Run(ctx, jobs, func(idx int) Result {
		job := jobs[idx].(*AttributionJob)
		return &BatchResult{ID: job.ID, Response: job.Response, Error: ctx.Err()}
	})

	out := make([]*BatchResult, len(results))
	for i, result := range results {
		br := result.(*BatchResult)
		if br.Error != nil {
			br.ErrorText = br.Error.Error()
		}
		out[i] = br
	}

	return out
}

// ReadResponsesFromFile reads responses from a file. A JSON array of strings
// is taken as-is; otherwise each non-empty line not starting with # is one
// response.
func ReadResponsesFromFile(filePath string) ([]string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var responses []string
		if err := json.Unmarshal(trimmed, &responses); err != nil {
			return nil, fmt.Errorf("parse JSON responses: %w", err)
		}
		return responses, nil
	}

	var responses []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		responses = append(responses, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return responses, nil
}
