package api

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"stakingcore/core/types"
	"stakingcore/staking/registry"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// handleSnapshot returns the committed snapshot's top-level summary (spec.md
// §5: "served from an immutable snapshot taken at block commit").
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := s.manager.Query()
	writeJSON(w, http.StatusOK, toSnapshotSummaryView(snap))
}

// handleValidators lists every registered validator in canonical
// lexicographic td_pubkey order.
func (s *Server) handleValidators(w http.ResponseWriter, r *http.Request) {
	snap := s.manager.Query()
	active := make(map[string]bool, len(snap.ActiveSet))
	for _, k := range snap.ActiveSet {
		active[k.Key()] = true
	}
	keys := make([]string, 0, len(snap.Validators))
	for k := range snap.Validators {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]validatorView, 0, len(keys))
	for _, k := range keys {
		v := snap.Validators[k]
		out = append(out, toValidatorView(v, active, registry.VotingPower(snap, v, s.econ)))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleValidator looks up a single validator by its hex-encoded td_pubkey
// digest (the 20-byte identity, not the full consensus key).
func (s *Server) handleValidator(w http.ResponseWriter, r *http.Request) {
	digest, err := hex.DecodeString(chi.URLParam(r, "tdPubKey"))
	if err != nil || len(digest) != 20 {
		writeError(w, http.StatusBadRequest, "invalid td_pubkey")
		return
	}
	var key types.TdPubKey
	copy(key.Digest[:], digest)

	snap := s.manager.Query()
	v, ok := snap.Validators[key.Key()]
	if !ok {
		writeError(w, http.StatusNotFound, "validator not found")
		return
	}
	active := make(map[string]bool, len(snap.ActiveSet))
	for _, k := range snap.ActiveSet {
		active[k.Key()] = true
	}
	writeJSON(w, http.StatusOK, toValidatorView(v, active, registry.VotingPower(snap, v, s.econ)))
}

// handleDelegations lists every delegation row belonging to a delegator,
// keyed by its hex-encoded 20-byte account address.
func (s *Server) handleDelegations(w http.ResponseWriter, r *http.Request) {
	addrBytes, err := hex.DecodeString(chi.URLParam(r, "address"))
	if err != nil || len(addrBytes) != 20 {
		writeError(w, http.StatusBadRequest, "invalid address")
		return
	}
	var addr [20]byte
	copy(addr[:], addrBytes)

	snap := s.manager.Query()
	keys := make([]string, 0)
	for k, d := range snap.Delegations {
		if d.Delegator == addr {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := make([]delegationView, 0, len(keys))
	for _, k := range keys {
		out = append(out, toDelegationView(snap.Delegations[k]))
	}
	writeJSON(w, http.StatusOK, out)
}

// handlePayouts lists the coinbase's pending PayoutIntent queue in FIFO
// (Seq) order.
func (s *Server) handlePayouts(w http.ResponseWriter, r *http.Request) {
	snap := s.manager.Query()
	queue := append([]types.PayoutIntent(nil), snap.PayoutQueue...)
	sort.Slice(queue, func(i, j int) bool { return queue[i].Seq < queue[j].Seq })
	out := make([]payoutView, 0, len(queue))
	for _, p := range queue {
		out = append(out, toPayoutView(p))
	}
	writeJSON(w, http.StatusOK, out)
}
