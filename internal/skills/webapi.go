package skills

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebAPIClient sends one batch-of-one record to a custom skill endpoint and
// returns the decoded response body (§4.10 CustomWebApi: "batches one record
// per POST"). No REST client library appears anywhere in the retrieved pack,
// so this is a thin net/http wrapper rather than a hand-rolled HTTP/1.1
// implementation — the justified stdlib boundary is the transport call
// itself, not the batching/record-shaping logic around it.
type WebAPIClient interface {
	Do(ctx context.Context, url, method string, headers map[string]string, timeout time.Duration, body []byte) ([]byte, error)
}

// HTTPWebAPIClient is the production WebAPIClient, backed by net/http.
type HTTPWebAPIClient struct {
	Client *http.Client
}

func (c HTTPWebAPIClient) Do(ctx context.Context, url, method string, headers map[string]string, timeout time.Duration, body []byte) ([]byte, error) {
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if method == "" {
		method = http.MethodPost
	}
	req, err := http.NewRequestWithContext(reqCtx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("web api returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

type webAPIRecord struct {
	RecordID string         `json:"recordId"`
	Data     map[string]any `json:"data"`
}

type webAPIRequest struct {
	Values []webAPIRecord `json:"values"`
}

type webAPIResponseRecord struct {
	RecordID string         `json:"recordId"`
	Data     map[string]any `json:"data"`
	Errors   []string       `json:"errors"`
	Warnings []string       `json:"warnings"`
}

type webAPIResponse struct {
	Values []webAPIResponseRecord `json:"values"`
}

// webAPISkill implements CustomWebApi (§4.10): posts the resolved inputs for
// one context as a single-record batch, then writes the response record's
// data back as named outputs.
type webAPISkill struct {
	client WebAPIClient
}

func (w webAPISkill) Execute(ctx ExecContext) Result {
	if w.client == nil {
		return fail("configuration error: no web api client configured")
	}

	url, _ := ctx.Skill.Config["uri"].(string)
	if url == "" {
		return fail("configuration error: missing uri")
	}
	method, _ := ctx.Skill.Config["httpMethod"].(string)
	timeoutSeconds := configInt(ctx.Skill.Config, "timeout", 30)

	headers := map[string]string{}
	if raw, ok := ctx.Skill.Config["httpHeaders"].(map[string]any); ok {
		for k, v := range raw {
			if s, ok := v.(string); ok {
				headers[k] = s
			}
		}
	}

	data := map[string]any{}
	for _, in := range ctx.Skill.Inputs {
		v, ok := ctx.Doc.Get(ctx.resolvePath(in.Source))
		if ok {
			data[in.Name] = v
		}
	}

	reqBody, err := json.Marshal(webAPIRequest{Values: []webAPIRecord{{RecordID: "0", Data: data}}})
	if err != nil {
		return fail(err.Error())
	}

	respBody, err := w.client.Do(context.Background(), url, method, headers, time.Duration(timeoutSeconds)*time.Second, reqBody)
	if err != nil {
		return fail(err.Error())
	}

	var resp webAPIResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return fail("invalid web api response: " + err.Error())
	}
	if len(resp.Values) == 0 {
		return fail("web api response contained no records")
	}
	record := resp.Values[0]

	res := Result{Success: len(record.Errors) == 0}
	res.Errors = append(res.Errors, record.Errors...)
	res.Warnings = append(res.Warnings, record.Warnings...)
	for _, out := range ctx.Skill.Outputs {
		v, ok := record.Data[out.Name]
		if !ok {
			res.warn(fmt.Sprintf("web api response missing output %q", out.Name))
			continue
		}
		if err := ctx.SetOutput(out.Name, v); err != nil {
			res.Errors = append(res.Errors, err.Error())
			res.Success = false
		}
	}
	return res
}
