// Package txid derives transaction identifiers for the in-memory ledger.
//
// An identifier is "<payer>@<hash>" where hash is the base58 encoded BLAKE3
// digest of the canonical CBOR encoding of the transaction body.
package txid

import (
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/mr-tron/base58"
	"github.com/zeebo/blake3"

	"ledgerflow.com/internal/domain/entity"
)

var encMode cbor.EncMode

func init() { //nolint:gochecknoinits
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("txid: cbor encoder: %v", err))
	}
}

// Body is the hashed part of a transaction. Sequence makes otherwise
// identical submissions distinct.
type Body struct {
	Payer     string      `cbor:"1,keyasint"`
	Sequence  uint64      `cbor:"2,keyasint"`
	Kind      string      `cbor:"3,keyasint"`
	PublicKey string      `cbor:"4,keyasint,omitempty"`
	Initial   int64       `cbor:"5,keyasint,omitempty"`
	Entries   []bodyEntry `cbor:"6,keyasint,omitempty"`
	MaxFee    int64       `cbor:"7,keyasint"`
}

type bodyEntry struct {
	_       struct{} `cbor:",toarray"`
	Account string
	Amount  int64
}

// ForAccountCreate builds the body of a create-account transaction.
func ForAccountCreate(payer entity.AccountID, seq uint64, req entity.AccountCreate, maxFee entity.Amount) Body {
	return Body{
		Payer:     string(payer),
		Sequence:  seq,
		Kind:      "account_create",
		PublicKey: req.PublicKey,
		Initial:   int64(req.InitialBalance),
		MaxFee:    int64(maxFee),
	}
}

// ForTransfer builds the body of a transfer transaction.
func ForTransfer(payer entity.AccountID, seq uint64, t entity.Transfer, maxFee entity.Amount) Body {
	entries := make([]bodyEntry, 0, len(t.Entries))
	for _, e := range t.Entries {
		entries = append(entries, bodyEntry{Account: string(e.Account), Amount: int64(e.Amount)})
	}
	return Body{
		Payer:    string(payer),
		Sequence: seq,
		Kind:     "transfer",
		Entries:  entries,
		MaxFee:   int64(maxFee),
	}
}

// Encode returns the canonical CBOR encoding of the body.
func (b Body) Encode() ([]byte, error) {
	return encMode.Marshal(b)
}

// ID derives the transaction identifier.
func (b Body) ID() (string, error) {
	raw, err := b.Encode()
	if err != nil {
		return "", fmt.Errorf("failed to encode transaction body: %w", err)
	}
	sum := blake3.Sum256(raw)
	return b.Payer + "@" + base58.Encode(sum[:]), nil
}

// Payer extracts the payer account from a transaction identifier.
func Payer(id string) (entity.AccountID, error) {
	payer, hash, ok := strings.Cut(id, "@")
	if !ok || hash == "" {
		return "", fmt.Errorf("malformed transaction id %q", id)
	}
	if _, err := base58.Decode(hash); err != nil {
		return "", fmt.Errorf("malformed transaction id %q: %w", id, err)
	}
	return entity.ParseAccountID(payer)
}
