package notary

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/crypto/blake2b"

	dErrors "talentgate/pkg/domain-errors"
)

// accountSeed prefixes account derivation, mirroring the on-chain program's
// PDA seed.
const accountSeed = "employee"

// LedgerSigner is the fallback path: derive a deterministic account address
// from the event, sign a transaction with the operational key, and submit it
// to the ledger RPC endpoint.
//
// The key is process-wide and read-only after load.
type LedgerSigner struct {
	key         ed25519.PrivateKey
	namespace   string
	rpcURL      string
	explorerURL string
	client      *http.Client
}

// NewLedgerSigner decodes the base64 operational key seed. Construction
// fails fast on a bad key so a misconfigured fallback is caught at startup,
// not during the first bridge outage.
func NewLedgerSigner(keySeed, namespace, rpcURL, explorerURL string, timeout time.Duration) (*LedgerSigner, error) {
	seed, err := base64.StdEncoding.DecodeString(keySeed)
	if err != nil {
		return nil, fmt.Errorf("decode operational key: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("operational key must be a %d-byte seed", ed25519.SeedSize)
	}
	return &LedgerSigner{
		key:         ed25519.NewKeyFromSeed(seed),
		namespace:   namespace,
		rpcURL:      rpcURL,
		explorerURL: explorerURL,
		client:      &http.Client{Timeout: timeout},
	}, nil
}

// DeriveAddress computes the deterministic account address for an event:
// blake2b over the program namespace, the account seed, and the sha256 of
// the event payload. Same event, same address — which is what makes the
// account-conflict error meaningful.
func (l *LedgerSigner) DeriveAddress(payload []byte) string {
	eventHash := sha256.Sum256(payload)
	h, _ := blake2b.New256(nil)
	h.Write([]byte(l.namespace))
	h.Write([]byte(accountSeed))
	h.Write(eventHash[:])
	return hex.EncodeToString(h.Sum(nil))
}

type ledgerSubmission struct {
	Address   string `json:"address"`
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
	Namespace string `json:"namespace"`
}

type ledgerResponse struct {
	Signature string `json:"signature"`
	Code      string `json:"code,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Sign derives the account, signs the submission, and submits one ledger
// transaction. Ledger rejections come back as typed gateway errors via the
// central code mapping; transport failures are wrapped as unavailability.
func (l *LedgerSigner) Sign(ctx context.Context, event Event) (*Receipt, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}

	address := l.DeriveAddress(payload)
	signature := hex.EncodeToString(ed25519.Sign(l.key, payload))

	body, err := json.Marshal(ledgerSubmission{
		Address:   address,
		Payload:   base64.StdEncoding.EncodeToString(payload),
		Signature: signature,
		Namespace: l.namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.rpcURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build ledger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "ledger rpc unreachable")
	}
	defer resp.Body.Close()

	var parsed ledgerResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "malformed ledger response")
	}
	if resp.StatusCode != http.StatusOK || parsed.Code != "" {
		if parsed.Code != "" {
			return nil, mapLedgerCode(parsed.Code)
		}
		return nil, dErrors.New(dErrors.CodeUnavailable,
			fmt.Sprintf("ledger rpc returned %d", resp.StatusCode))
	}

	tx := parsed.Signature
	if tx == "" {
		tx = signature
	}
	return &Receipt{
		Signature:   tx,
		ExplorerURL: fmt.Sprintf("%s/tx/%s", l.explorerURL, tx),
		Status:      StatusLocalVerified,
	}, nil
}
