package api

import (
	"encoding/hex"
	"encoding/json"
	"net/http"

	"stakingcore/core/types"
)

// signerRequest is the wire shape of one types.Signer: a hex-encoded full
// consensus public key (matching staking/genesis's wire format) plus a
// hex-encoded secp256k1 signature recovered against the operation's
// canonical digest (core/types/digest.go).
type signerRequest struct {
	TdPubKey  string `json:"td_pubkey"`
	Signature string `json:"signature"`
}

func (s signerRequest) toSigner() (types.Signer, error) {
	full, err := hex.DecodeString(s.TdPubKey)
	if err != nil {
		return types.Signer{}, err
	}
	sig, err := hex.DecodeString(s.Signature)
	if err != nil {
		return types.Signer{}, err
	}
	return types.Signer{TdPubKey: types.TdPubKeyFromFull(full), Signature: sig}, nil
}

func toSigners(reqs []signerRequest) ([]types.Signer, error) {
	out := make([]types.Signer, 0, len(reqs))
	for _, r := range reqs {
		signer, err := r.toSigner()
		if err != nil {
			return nil, err
		}
		out = append(out, signer)
	}
	return out, nil
}

func hexTo20(s string) ([20]byte, error) {
	var out [20]byte
	raw, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(raw) != 20 {
		return out, errInvalidLength
	}
	copy(out[:], raw)
	return out, nil
}

var errInvalidLength = jsonError("expected 20-byte hex value")

type jsonError string

func (e jsonError) Error() string { return string(e) }

// submissionRequest is the governance-submission endpoint's envelope: kind
// selects which gated operation the body decodes into (spec.md §4.F names
// ValidatorUpdate, Governance, and FraDistribution; ModulePause is a
// supplemented fourth gated op under the same threshold gate).
type submissionRequest struct {
	Kind string `json:"kind"`

	ValidatorUpdate *validatorUpdateRequest `json:"validator_update,omitempty"`
	Governance      *governanceRequest      `json:"governance,omitempty"`
	FraDistribution *fraDistributionRequest `json:"fra_distribution,omitempty"`
	ModulePause     *modulePauseRequest     `json:"module_pause,omitempty"`
}

type validatorUpdateEntryRequest struct {
	TdPubKey       string `json:"td_pubkey"`
	Remove         bool   `json:"remove"`
	RewardsAddress string `json:"rewards_address"`
	CommissionBps  uint32 `json:"commission_bps"`
	Memo           string `json:"memo"`
}

type validatorUpdateRequest struct {
	Diff    []validatorUpdateEntryRequest `json:"diff"`
	Signers []signerRequest               `json:"signers"`
}

type governanceRequest struct {
	Target      string          `json:"target"`
	FaultKind   uint8           `json:"fault_kind"`
	Height      uint64          `json:"height"`
	EvidenceRef string          `json:"evidence_ref"`
	Signers     []signerRequest `json:"signers"`
}

type fraDistributionEntryRequest struct {
	Address       string `json:"address"`
	Amount        string `json:"amount"`
	ReleaseHeight uint64 `json:"release_height"`
}

type fraDistributionRequest struct {
	Entries []fraDistributionEntryRequest `json:"entries"`
	Signers []signerRequest               `json:"signers"`
}

type modulePauseRequest struct {
	Module  string          `json:"module"`
	Paused  bool            `json:"paused"`
	Signers []signerRequest `json:"signers"`
}

func (req submissionRequest) toOperation() (types.Operation, error) {
	switch req.Kind {
	case "validator_update":
		if req.ValidatorUpdate == nil {
			return types.Operation{}, errInvalidLength
		}
		return req.ValidatorUpdate.toOperation()
	case "governance":
		if req.Governance == nil {
			return types.Operation{}, errInvalidLength
		}
		return req.Governance.toOperation()
	case "fra_distribution":
		if req.FraDistribution == nil {
			return types.Operation{}, errInvalidLength
		}
		return req.FraDistribution.toOperation()
	case "module_pause":
		if req.ModulePause == nil {
			return types.Operation{}, errInvalidLength
		}
		return req.ModulePause.toOperation()
	default:
		return types.Operation{}, jsonError("unknown submission kind " + req.Kind)
	}
}

func (r validatorUpdateRequest) toOperation() (types.Operation, error) {
	diff := make([]types.ValidatorUpdateEntry, 0, len(r.Diff))
	for _, e := range r.Diff {
		full, err := hex.DecodeString(e.TdPubKey)
		if err != nil {
			return types.Operation{}, err
		}
		rewardsAddr, err := hexTo20(e.RewardsAddress)
		if err != nil {
			return types.Operation{}, err
		}
		diff = append(diff, types.ValidatorUpdateEntry{
			TdPubKey:       types.TdPubKeyFromFull(full),
			Remove:         e.Remove,
			RewardsAddress: rewardsAddr,
			CommissionBps:  e.CommissionBps,
			Memo:           e.Memo,
		})
	}
	signers, err := toSigners(r.Signers)
	if err != nil {
		return types.Operation{}, err
	}
	op := types.ValidatorUpdateOp{Diff: diff, Signers: signers}
	return types.Operation{Kind: types.OpValidatorUpdate, ValidatorUpdate: &op}, nil
}

func (r governanceRequest) toOperation() (types.Operation, error) {
	full, err := hex.DecodeString(r.Target)
	if err != nil {
		return types.Operation{}, err
	}
	ref, err := hex.DecodeString(r.EvidenceRef)
	if err != nil {
		return types.Operation{}, err
	}
	signers, err := toSigners(r.Signers)
	if err != nil {
		return types.Operation{}, err
	}
	op := types.GovernanceOp{
		Target:      types.TdPubKeyFromFull(full),
		FaultKind:   types.FaultKind(r.FaultKind),
		Height:      r.Height,
		EvidenceRef: ref,
		Signers:     signers,
	}
	return types.Operation{Kind: types.OpGovernance, Governance: &op}, nil
}

func (r fraDistributionRequest) toOperation() (types.Operation, error) {
	entries := make([]types.FraDistributionEntry, 0, len(r.Entries))
	for _, e := range r.Entries {
		addr, err := hexTo20(e.Address)
		if err != nil {
			return types.Operation{}, err
		}
		amount, err := types.AmountFromString(e.Amount)
		if err != nil {
			return types.Operation{}, err
		}
		entries = append(entries, types.FraDistributionEntry{Address: addr, Amount: amount, ReleaseHeight: e.ReleaseHeight})
	}
	signers, err := toSigners(r.Signers)
	if err != nil {
		return types.Operation{}, err
	}
	op := types.FraDistributionOp{Entries: entries, Signers: signers}
	return types.Operation{Kind: types.OpFraDistribution, FraDistribution: &op}, nil
}

func (r modulePauseRequest) toOperation() (types.Operation, error) {
	signers, err := toSigners(r.Signers)
	if err != nil {
		return types.Operation{}, err
	}
	op := types.ModulePauseOp{Module: r.Module, Paused: r.Paused, Signers: signers}
	return types.Operation{Kind: types.OpModulePause, ModulePause: &op}, nil
}

// handleSubmitGovernance accepts a gated operation for inclusion in the next
// block the driver processes. The JWT gate above this handler authenticates
// the caller; it does not substitute for the on-chain SIG_THRESHOLD check,
// which is enforced when the driver actually applies the op.
func (s *Server) handleSubmitGovernance(w http.ResponseWriter, r *http.Request) {
	var req submissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	op, err := req.toOperation()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	signer := firstSignerKey(req)
	height := s.manager.Query().LastHeight
	if err := s.quota.allow(signer, height); err != nil {
		writeError(w, http.StatusTooManyRequests, err.Error())
		return
	}

	id := s.pending.enqueue(op)
	writeJSON(w, http.StatusAccepted, map[string]string{"queued_id": id})
}

// firstSignerKey identifies the submitting signer for quota accounting. A
// gated op with no signers (only valid pre-genesis, per
// staking/governance.MeetsThreshold) shares a single bucket.
func firstSignerKey(req submissionRequest) string {
	var signers []signerRequest
	switch req.Kind {
	case "validator_update":
		if req.ValidatorUpdate != nil {
			signers = req.ValidatorUpdate.Signers
		}
	case "governance":
		if req.Governance != nil {
			signers = req.Governance.Signers
		}
	case "fra_distribution":
		if req.FraDistribution != nil {
			signers = req.FraDistribution.Signers
		}
	case "module_pause":
		if req.ModulePause != nil {
			signers = req.ModulePause.Signers
		}
	}
	if len(signers) == 0 {
		return "unsigned"
	}
	return signers[0].TdPubKey
}
