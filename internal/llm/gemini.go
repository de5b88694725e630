package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"lisearch/backend/internal/catalog"
	"lisearch/backend/internal/domain"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

const systemInstruction = `You are the intent resolver for a liquor store analytics assistant.
The store database tracks products, categories, inventory levels, and sales transactions.
When the user's request maps to one of the available functions, call that function with
appropriate arguments. Only pass arguments the user actually implied; leave the rest unset
so defaults apply. If the request is not about store products, inventory, or sales, or you
cannot tell which function fits, reply with a short sentence instead of calling a function.`

// GeminiResolver resolves text through the Gemini generateContent endpoint
// using function calling over the operation catalog.
type GeminiResolver struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

type GeminiOption func(*GeminiResolver)

// WithBaseURL overrides the API endpoint, used by tests.
func WithBaseURL(baseURL string) GeminiOption {
	return func(r *GeminiResolver) { r.baseURL = baseURL }
}

func WithHTTPClient(client *http.Client) GeminiOption {
	return func(r *GeminiResolver) { r.client = client }
}

func NewGemini(apiKey, model string, timeout time.Duration, log zerolog.Logger, opts ...GeminiOption) *GeminiResolver {
	r := &GeminiResolver{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultGeminiBaseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *GeminiResolver) Name() string { return "gemini" }

type geminiPart struct {
	Text         string              `json:"text,omitempty"`
	FunctionCall *geminiFunctionCall `json:"functionCall,omitempty"`
}

type geminiFunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiSchema struct {
	Type        string                  `json:"type"`
	Description string                  `json:"description,omitempty"`
	Properties  map[string]geminiSchema `json:"properties,omitempty"`
	Required    []string                `json:"required,omitempty"`
}

type geminiFunctionDeclaration struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Parameters  geminiSchema `json:"parameters"`
}

type geminiRequest struct {
	SystemInstruction geminiContent   `json:"systemInstruction"`
	Contents          []geminiContent `json:"contents"`
	Tools             []struct {
		FunctionDeclarations []geminiFunctionDeclaration `json:"functionDeclarations"`
	} `json:"tools"`
	ToolConfig struct {
		FunctionCallingConfig struct {
			Mode string `json:"mode"`
		} `json:"functionCallingConfig"`
	} `json:"toolConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func functionDeclarations() []geminiFunctionDeclaration {
	ops := catalog.Operations()
	decls := make([]geminiFunctionDeclaration, 0, len(ops))
	for _, op := range ops {
		schema := geminiSchema{Type: "object", Properties: make(map[string]geminiSchema, len(op.Params))}
		for _, p := range op.Params {
			schema.Properties[p.Name] = geminiSchema{Type: p.Type, Description: p.Description}
			if p.Required {
				schema.Required = append(schema.Required, p.Name)
			}
		}
		decls = append(decls, geminiFunctionDeclaration{
			Name:        op.Name,
			Description: op.Description,
			Parameters:  schema,
		})
	}
	return decls
}

func (r *GeminiResolver) Resolve(ctx context.Context, text string) (Resolution, error) {
	reqBody := geminiRequest{
		SystemInstruction: geminiContent{Parts: []geminiPart{{Text: systemInstruction}}},
		Contents:          []geminiContent{{Role: "user", Parts: []geminiPart{{Text: text}}}},
	}
	reqBody.Tools = append(reqBody.Tools, struct {
		FunctionDeclarations []geminiFunctionDeclaration `json:"functionDeclarations"`
	}{FunctionDeclarations: functionDeclarations()})
	reqBody.ToolConfig.FunctionCallingConfig.Mode = "AUTO"

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Resolution{}, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", r.baseURL, r.model, r.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Resolution{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return Resolution{}, fmt.Errorf("%w: calling language service: %v", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Resolution{}, fmt.Errorf("%w: reading language service response: %v", domain.ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return Resolution{}, fmt.Errorf("%w: language service returned %d", domain.ErrUnavailable, resp.StatusCode)
	default:
		return Resolution{}, fmt.Errorf("language service returned %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Resolution{}, fmt.Errorf("decoding language service response: %w", err)
	}
	if len(parsed.Candidates) == 0 {
		return Resolution{}, domain.ErrNoMatch
	}
	for _, part := range parsed.Candidates[0].Content.Parts {
		if part.FunctionCall != nil {
			args := part.FunctionCall.Args
			if args == nil {
				args = map[string]any{}
			}
			return Resolution{Operation: part.FunctionCall.Name, Args: args}, nil
		}
	}

	// Text-only answer: the model declined to pick an operation.
	r.log.Debug().Str("model", r.model).Msg("language service returned no function call")
	return Resolution{}, domain.ErrNoMatch
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

var _ Resolver = (*GeminiResolver)(nil)
