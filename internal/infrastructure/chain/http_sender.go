package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"github.com/tonmarket-network/sale-daemon/internal/core/domain"
	"github.com/tonmarket-network/sale-daemon/internal/core/ports"
	"github.com/tonmarket-network/sale-daemon/pkg/circuitbreaker"
	"go.uber.org/ratelimit"
)

const (
	requestTimeout = 15 * time.Second

	// requestsPerSecond caps the submission rate towards the gateway.
	requestsPerSecond = 10
)

// transferRequest is the gateway's submission payload for one outbound
// transfer.
type transferRequest struct {
	RequestID    string `json:"request_id"`
	QueryID      uint64 `json:"query_id"`
	Type         string `json:"type"`
	To           string `json:"to"`
	Amount       uint64 `json:"amount,omitempty"`
	SourceWallet string `json:"source_wallet,omitempty"`
}

type gatewaySender struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	limiter    ratelimit.Limiter
}

// NewGatewaySender returns a ports.TransferSender submitting transfers to
// the gateway's REST API, behind a circuit breaker and a rate limiter.
func NewGatewaySender(baseURL string) ports.TransferSender {
	return &gatewaySender{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		breaker:    circuitbreaker.NewCircuitBreaker("gateway"),
		limiter:    ratelimit.New(requestsPerSecond),
	}
}

func (g *gatewaySender) SendTransfers(
	ctx context.Context, queryID uint64, intents []domain.TransferIntent,
) error {
	for i, intent := range intents {
		req := transferRequest{
			RequestID: requestID(queryID, i, intent),
			QueryID:   queryID,
			Type:      intent.Kind.String(),
			To:        intent.To.String(),
			Amount:    intent.Amount,
		}
		if intent.Kind == domain.TransferJettons {
			req.SourceWallet = intent.SourceWallet.String()
		}

		g.limiter.Take()
		if _, err := g.breaker.Execute(func() (interface{}, error) {
			return nil, g.post(ctx, req)
		}); err != nil {
			return fmt.Errorf("submitting %s transfer to %s: %w", req.Type, req.To, err)
		}
	}
	return nil
}

func (g *gatewaySender) post(ctx context.Context, payload transferRequest) error {
	buf, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, g.baseURL+"/v1/transfers", bytes.NewReader(buf),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("gateway responded with status %d", res.StatusCode)
	}
	return nil
}

// requestID derives a deterministic idempotency id for one transfer so
// that retried submissions dedupe on the gateway side.
func requestID(queryID uint64, index int, intent domain.TransferIntent) string {
	seed := fmt.Sprintf(
		"%d/%d/%s/%s/%d", queryID, index, intent.Kind, intent.To, intent.Amount,
	)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}
