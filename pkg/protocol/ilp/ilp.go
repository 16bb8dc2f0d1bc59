// Package ilp carries the interledger face of the relay: the packet request
// and reply forms of the business logic server, the reject codes it speaks,
// and the fulfillment arithmetic binding a settled payment to a stored
// event.
package ilp

import (
	"encoding/base64"

	"crosstown.dev/pkg/crypto/sha256"
	"crosstown.dev/pkg/encoders/hex"
)

// The ILP error codes the relay rejects with.
const (
	// CodeBadRequest covers malformed packets: bad base64, undecodable or
	// schema-invalid events, bad signatures, unparseable amounts.
	CodeBadRequest = "F00"
	// CodeInsufficientAmount is an underpaid packet; the metadata reports
	// required versus received.
	CodeInsufficientAmount = "F06"
	// CodeInternalError is a storage or other relay-side failure; the
	// sender may retry, resubmission of the same event is safe.
	CodeInternalError = "T00"
)

// PacketRequest is the body of a handle-packet call: the prepared amount,
// the destination ILP address, and the base64 of the binary encoded event.
type PacketRequest struct {
	Amount        string `json:"amount"`
	Destination   string `json:"destination"`
	Data          string `json:"data"`
	SourceAccount string `json:"sourceAccount,omitempty"`
}

// AcceptMetadata rides along with a fulfillment.
type AcceptMetadata struct {
	EventId   string `json:"eventId"`
	StoredAt  int64  `json:"storedAt"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

// Accept is the success reply: the packet is fulfilled and the event is
// durably stored (or was already).
type Accept struct {
	Accept      bool           `json:"accept"`
	Fulfillment string         `json:"fulfillment"`
	Metadata    AcceptMetadata `json:"metadata"`
}

// RejectMetadata explains an underpayment.
type RejectMetadata struct {
	Required string `json:"required,omitempty"`
	Received string `json:"received,omitempty"`
}

// Reject is the failure reply, code per the constants above.
type Reject struct {
	Accept   bool            `json:"accept"`
	Code     string          `json:"code"`
	Message  string          `json:"message"`
	Metadata *RejectMetadata `json:"metadata,omitempty"`
}

// Fulfillment derives the 32 byte fulfillment for a stored event: the
// SHA256 of the lowercase hex ASCII form of the event id. Hashing the hex
// form rather than the raw id matches what senders construct their
// execution condition over.
func Fulfillment(id []byte) [sha256.Size]byte {
	return sha256.Sum256([]byte(hex.Enc(id)))
}

// FulfillmentB64 is the fulfillment in the base64 form it travels in.
func FulfillmentB64(id []byte) string {
	f := Fulfillment(id)
	return base64.StdEncoding.EncodeToString(f[:])
}

// Condition returns the execution condition matching a fulfillment:
// SHA256(fulfillment).
func Condition(fulfillment [sha256.Size]byte) [sha256.Size]byte {
	return sha256.Sum256(fulfillment[:])
}
