package app

import (
	"encoding/json"
	"net/http"

	"lol.mleku.dev/chk"

	"crosstown.dev/pkg/version"
)

// RelayInfo is the NIP-11 relay information document, extended with the
// payment terms so clients can discover the write policy before paying.
type RelayInfo struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Software      string   `json:"software"`
	Version       string   `json:"version"`
	SupportedNIPs []int    `json:"supported_nips"`
	Payment       *Payment `json:"payment,omitempty"`
}

// Payment describes the write pricing of the relay.
type Payment struct {
	Method           string `json:"method"`
	BasePricePerByte string `json:"base_price_per_byte"`
	Endpoint         string `json:"endpoint"`
}

// HandleRelayInfo serves the relay information document.
func (s *Server) HandleRelayInfo(w http.ResponseWriter, r *http.Request) {
	info := RelayInfo{
		Name:          s.Config.AppName,
		Description:   "payment gated relay: writes settle over interledger, reads are free",
		Software:      "https://crosstown.dev",
		Version:       version.V,
		SupportedNIPs: []int{1, 11},
		Payment: &Payment{
			Method:           "ilp",
			BasePricePerByte: s.Config.BasePricePerByte,
			Endpoint:         "/handle-packet",
		},
	}
	w.Header().Set("Content-Type", "application/nostr+json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	chk.E(json.NewEncoder(w).Encode(info))
}
