package api

import "context"

type chatResponse struct {
	Response string `json:"response"`
}

// Chat sends one message to the assistant and returns its reply text.
// An empty reply is possible when the service omits the response field;
// callers supply their own fallback.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	var resp chatResponse
	if err := c.postJSON(ctx, "/api/chat", map[string]string{"message": message}, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}
