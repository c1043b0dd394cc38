// Package openai asks a chat completion model for a structured synthesis
// of what is publicly known about the business.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/synapse-labs/synapse/internal/core/domain"
	"github.com/synapse-labs/synapse/internal/core/ports/driven"
	"github.com/synapse-labs/synapse/internal/sources/httpjson"
)

// Kind is the adapter kind.
const Kind = "openai"

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
)

// Ensure Adapter implements the interface.
var _ driven.SourceAdapter = (*Adapter)(nil)

// synthesisFields are the keys the model is asked to fill.
var synthesisFields = []string{"summary", "industry", "audience", "offerings", "strengths", "risks"}

const systemPrompt = `You are a business analyst. Answer with a single JSON object with the keys ` +
	`"summary" (string), "industry" (string), "audience" (string), "offerings" (array of strings), ` +
	`"strengths" (array of strings) and "risks" (array of strings). Use null for anything you do not know. ` +
	`Do not invent facts.`

// chatCompletionRequest is the OpenAI /chat/completions request format.
type chatCompletionRequest struct {
	Model          string              `json:"model"`
	Messages       []chatCompletionMsg `json:"messages"`
	MaxTokens      int                 `json:"max_tokens,omitempty"`
	Temperature    float64             `json:"temperature"`
	ResponseFormat *responseFormat     `json:"response_format,omitempty"`
}

type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// chatCompletionResponse is the OpenAI /chat/completions response format.
type chatCompletionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Synthesis is the payload: the model's JSON answer plus call metadata.
type Synthesis struct {
	Model    string          `json:"model"`
	Business string          `json:"business"`
	Answer   json.RawMessage `json:"answer"`
	Tokens   int             `json:"tokens"`
}

// Adapter calls the chat completions endpoint.
type Adapter struct {
	client     *httpjson.Client
	baseURL    string
	model      string
	maxTokens  int
	credential httpjson.Credential
}

// New builds an Adapter. Params: model, max_tokens, base_url (for Azure
// OpenAI or compatible APIs).
func New(desc domain.SourceDescriptor, creds driven.CredentialProvider, httpClient *http.Client) (*Adapter, error) {
	maxTokens, err := strconv.Atoi(desc.Param("max_tokens", "600"))
	if err != nil || maxTokens <= 0 {
		return nil, fmt.Errorf("%w: source %s: invalid max_tokens", domain.ErrConfiguration, desc.ID)
	}
	return &Adapter{
		client:     httpjson.NewClient(httpClient, desc.ID),
		baseURL:    strings.TrimRight(desc.Param("base_url", DefaultBaseURL), "/"),
		model:      desc.Param("model", DefaultModel),
		maxTokens:  maxTokens,
		credential: httpjson.ResolveCredential(desc, creds),
	}, nil
}

// Kind returns the adapter kind.
func (a *Adapter) Kind() string {
	return Kind
}

// Fetch asks for the synthesis. Completeness is the share of requested
// keys the model answered.
func (a *Adapter) Fetch(ctx context.Context, q domain.SourceQuery) (domain.RawPayload, error) {
	key, err := a.credential.Require()
	if err != nil {
		return domain.RawPayload{}, err
	}

	req := chatCompletionRequest{
		Model: a.model,
		Messages: []chatCompletionMsg{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(q)},
		},
		MaxTokens:      a.maxTokens,
		Temperature:    0.2,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}
	header := http.Header{"Authorization": []string{"Bearer " + key}}

	var resp chatCompletionResponse
	if err := a.client.PostJSON(ctx, a.baseURL+"/chat/completions", header, req, &resp); err != nil {
		return domain.RawPayload{}, err
	}
	if len(resp.Choices) == 0 {
		return domain.RawPayload{}, fmt.Errorf("%w: no choices in response", domain.ErrMalformedResponse)
	}

	answer := json.RawMessage(strings.TrimSpace(resp.Choices[0].Message.Content))
	completeness, err := httpjson.FieldCompleteness(answer, synthesisFields)
	if err != nil {
		return domain.RawPayload{}, err
	}
	if resp.Choices[0].FinishReason == "length" {
		completeness /= 2
	}

	return domain.NewRawPayload(Synthesis{
		Model:    resp.Model,
		Business: q.Business,
		Answer:   answer,
		Tokens:   resp.Usage.TotalTokens,
	}, completeness)
}

func userPrompt(q domain.SourceQuery) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Business website: %s\n", q.BusinessURL())
	fmt.Fprintf(&b, "Business name: %s\n", q.Param("name", domain.BusinessName(q.Business)))
	if loc := q.Param("location", ""); loc != "" {
		fmt.Fprintf(&b, "Location: %s\n", loc)
	}
	if industry := q.Param("industry", ""); industry != "" {
		fmt.Fprintf(&b, "Industry hint: %s\n", industry)
	}
	return b.String()
}
