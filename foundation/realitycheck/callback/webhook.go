package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
)

// Webhook is a client that posts the final answer to a URL.
type Webhook struct {
	address common.Address
	url     string
	client  *http.Client
}

// NewWebhook constructs a webhook client known by the address.
func NewWebhook(address common.Address, url string, client *http.Client) *Webhook {
	if client == nil {
		client = http.DefaultClient
	}

	return &Webhook{
		address: address,
		url:     url,
		client:  client,
	}
}

// Address returns the account the client is known by.
func (w *Webhook) Address() common.Address {
	return w.address
}

// ReceiveAnswer posts the answer to the webhook.
func (w *Webhook) ReceiveAnswer(ctx context.Context, questionID common.Hash, answer common.Hash) error {
	payload := struct {
		QuestionID common.Hash `json:"question_id"`
		Answer     common.Hash `json:"answer"`
	}{
		QuestionID: questionID,
		Answer:     answer,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook %s: status %d", w.url, resp.StatusCode)
	}

	return nil
}
