package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	pkgerrors "namereg/pkg/errors"
)

// HTTPLedger talks to the payment ledger service over authenticated HTTP.
type HTTPLedger struct {
	baseURL string
	client  *http.Client
}

func NewHTTPLedger(baseURL string) *HTTPLedger {
	return &HTTPLedger{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// remoteError is the ledger's error envelope.
type remoteError struct {
	Code    uint32 `json:"code"`
	Message string `json:"message"`
}

func (l *HTTPLedger) Charge(ctx context.Context, req ChargeRequest) (Receipt, error) {
	var receipt Receipt
	if err := l.post(ctx, "/v1/charges", req, &receipt); err != nil {
		return Receipt{}, err
	}
	return receipt, nil
}

func (l *HTTPLedger) Refund(ctx context.Context, req RefundRequest) error {
	return l.post(ctx, "/v1/refunds", req, nil)
}

func (l *HTTPLedger) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "encode ledger request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "build ledger request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeRemote, "ledger unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var remote remoteError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&remote); decodeErr != nil {
			return pkgerrors.New(pkgerrors.CodeRemote,
				fmt.Sprintf("ledger returned status %d", resp.StatusCode))
		}
		return pkgerrors.Remote(remote.Code, remote.Message)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeRemote, "decode ledger response")
	}
	return nil
}
