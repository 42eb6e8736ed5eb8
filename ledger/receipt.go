package ledger

import (
	"bytes"
	"sort"

	"github.com/forestrie/nimble/signature"
)

// ReceiptEntry is one endorser's contribution to a Receipt: its public key
// and the signature it produced over the verb's canonical message
// (spec.md §3, §6).
type ReceiptEntry struct {
	PublicKey signature.PublicKey
	Signature []byte
}

// Receipt is the ordered collection of (public-key, signature) pairs
// produced by fanning one operation out to a quorum of endorsers (spec.md
// §3). Order is implementation-defined but stable within one receipt; this
// package sorts deterministically by public key bytes, per the
// reproducibility recommendation in spec.md §9.
type Receipt struct {
	Entries []ReceiptEntry
}

// NewReceipt builds a Receipt from unordered entries, sorting them
// deterministically by public key.
func NewReceipt(entries []ReceiptEntry) Receipt {
	sorted := make([]ReceiptEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].PublicKey.Bytes(), sorted[j].PublicKey.Bytes()) < 0
	})
	return Receipt{Entries: sorted}
}

// Len reports how many endorsers contributed to the receipt.
func (r Receipt) Len() int {
	return len(r.Entries)
}
