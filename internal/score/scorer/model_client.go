package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

const defaultTimeout = 30 * time.Second

// ModelClient talks to a model server implementing the KServe v2 inference protocol
// (Triton, TorchServe, KServe). The served model is expected to accept raw text and to
// tokenize it itself, so a single request is one forward pass.
type ModelClient struct {
	base      url.URL
	model     string
	maxLength int
	http      *http.Client
}

// ModelClientOption customizes a ModelClient.
type ModelClientOption func(*ModelClient)

// WithHttpClient replaces the default HTTP client.
func WithHttpClient(client *http.Client) ModelClientOption {
	return func(mc *ModelClient) {
		mc.http = client
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) ModelClientOption {
	return func(mc *ModelClient) {
		mc.http = &http.Client{Timeout: timeout}
	}
}

// WithMaxLength sets the token sequence length the server pads or truncates to.
func WithMaxLength(n int) ModelClientOption {
	return func(mc *ModelClient) {
		mc.maxLength = n
	}
}

// NewModelClient creates a client for the model named model served at baseUrl.
func NewModelClient(baseUrl, model string, opts ...ModelClientOption) (*ModelClient, error) {
	base, err := url.Parse(baseUrl)
	if err != nil {
		return nil, err
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("model server url %q must be absolute", baseUrl)
	}
	if model == "" {
		return nil, errors.New("model name must be specified")
	}

	client := &ModelClient{
		base:      *base,
		model:     model,
		maxLength: 256,
		http:      &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// ModelError is returned when the model server answers with a non-200 status.
type ModelError struct {
	StatusCode int
	Message    string
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model server error code=%d: %s", e.StatusCode, e.Message)
}

type inferTensor struct {
	Name     string `json:"name"`
	Shape    []int  `json:"shape"`
	Datatype string `json:"datatype"`
	Data     []any  `json:"data,omitempty"`
}

type inferRequest struct {
	ID         string         `json:"id"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Inputs     []inferTensor  `json:"inputs"`
}

type outputTensor struct {
	Name     string    `json:"name"`
	Shape    []int     `json:"shape"`
	Datatype string    `json:"datatype"`
	Data     []float64 `json:"data"`
}

type inferResponse struct {
	ModelName string         `json:"model_name"`
	ID        string         `json:"id"`
	Outputs   []outputTensor `json:"outputs"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Infer runs one forward pass on text and returns the first output tensor, flattened.
func (mc *ModelClient) Infer(ctx context.Context, text string) ([]float64, error) {
	id := uuid.NewString()
	req := inferRequest{
		ID: id,
		Parameters: map[string]any{
			"max_length": mc.maxLength,
		},
		Inputs: []inferTensor{{
			Name:     "text",
			Shape:    []int{1},
			Datatype: "BYTES",
			Data:     []any{text},
		}},
	}

	var resp inferResponse
	if err := mc.do(ctx, http.MethodPost, mc.modelPath("infer"), req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Outputs) == 0 {
		return nil, fmt.Errorf("model %s returned no outputs (request %s)", mc.model, id)
	}

	return resp.Outputs[0].Data, nil
}

// Ready reports whether the model is loaded and able to serve requests.
func (mc *ModelClient) Ready(ctx context.Context) error {
	return mc.do(ctx, http.MethodGet, mc.modelPath("ready"), nil, nil)
}

func (mc *ModelClient) modelPath(action string) string {
	return "/v2/models/" + url.PathEscape(mc.model) + "/" + action
}

func (mc *ModelClient) do(ctx context.Context, method, path string, body, out any) error {
	u := mc.base.JoinPath(path)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := mc.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		msg := resp.Status
		var e errorResponse
		if json.Unmarshal(content, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &ModelError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(content, out); err != nil {
		return fmt.Errorf("decode model response: %w", err)
	}

	return nil
}
