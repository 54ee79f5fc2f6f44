package skills

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
)

// maxEmbeddingInputChars bounds the text sent to an embedding endpoint; text
// is truncated, with a warning, rather than rejected (§4.10 AzureOpenAIEmbeddingSkill).
const maxEmbeddingInputChars = 8000

// EmbeddingClient calls an OpenAI-compatible embeddings endpoint. Only
// openai.EmbeddingModel (a plain string alias) is taken from
// github.com/openai/openai-go/v3: the library's generated request/response
// structs wrap every optional field in param.Opt[T], and without a Go
// toolchain available to verify field shapes against the installed module
// version, a locally defined request/response pair matching the documented
// Azure-style wire format is the safer way to exercise the dependency.
type EmbeddingClient interface {
	Embed(ctx context.Context, resourceURI, deploymentID, apiKey string, model openai.EmbeddingModel, input string) ([]float32, error)
}

// HTTPEmbeddingClient calls the Azure-style embeddings path directly:
// {resourceUri}/openai/deployments/{deploymentId}/embeddings.
type HTTPEmbeddingClient struct {
	Client *http.Client
}

type embeddingRequest struct {
	Input string               `json:"input"`
	Model openai.EmbeddingModel `json:"model,omitempty"`
}

type embeddingResponseEntry struct {
	Embedding []float32 `json:"embedding"`
}

type embeddingResponse struct {
	Data []embeddingResponseEntry `json:"data"`
}

func (h HTTPEmbeddingClient) Embed(ctx context.Context, resourceURI, deploymentID, apiKey string, model openai.EmbeddingModel, input string) ([]float32, error) {
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/embeddings", resourceURI, deploymentID)
	body, err := json.Marshal(embeddingRequest{Input: input, Model: model})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("api-key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embedding endpoint returned status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("embedding endpoint returned no data")
	}
	return parsed.Data[0].Embedding, nil
}

// embeddingSkill implements the cloud AzureOpenAIEmbeddingSkill (§4.10): it
// truncates oversized input, calls the configured endpoint, and writes the
// resulting vector to "embedding".
//
// The local (ONNX) embedding variant is not implemented: no ONNX runtime
// binding or BERT-style WordPiece tokenizer appears anywhere in the
// retrieved pack, and hand-rolling either would mean inventing rather than
// learning a dependency. A skillset referencing it fails with a clear
// configuration error rather than silently producing zero vectors.
type embeddingSkill struct {
	client EmbeddingClient
}

func (e embeddingSkill) Execute(ctx ExecContext) Result {
	kind, _ := ctx.Skill.Config["kind"].(string)
	if kind == "local" {
		return fail("configuration error: local (ONNX) embedding skills are not supported")
	}
	if e.client == nil {
		return fail("configuration error: no embedding client configured")
	}

	resourceURI, _ := ctx.Skill.Config["resourceUri"].(string)
	deploymentID, _ := ctx.Skill.Config["deploymentId"].(string)
	apiKey, _ := ctx.Skill.Config["apiKey"].(string)
	modelName, _ := ctx.Skill.Config["modelName"].(string)
	if resourceURI == "" || deploymentID == "" {
		return fail("configuration error: missing resourceUri or deploymentId")
	}

	text := ctx.InputString("text")
	res := Result{Success: true}
	if len(text) > maxEmbeddingInputChars {
		text = text[:maxEmbeddingInputChars]
		res.warn("input truncated to maximum embedding input length")
	}

	vec, err := e.client.Embed(context.Background(), resourceURI, deploymentID, apiKey, openai.EmbeddingModel(modelName), text)
	if err != nil {
		return fail(err.Error())
	}
	if err := ctx.SetOutput("embedding", vec); err != nil {
		return fail(err.Error())
	}
	return res
}
