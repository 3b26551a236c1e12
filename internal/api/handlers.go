package api

import (
	"encoding/hex"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lasagnafinance/stake-ledger/internal/auth"
	"github.com/lasagnafinance/stake-ledger/internal/services"
	"github.com/lasagnafinance/stake-ledger/internal/types"
)

type handler struct {
	service  *services.Service
	verifier *auth.Verifier
}

func (h *handler) stake(r *http.Request) (any, *types.Error) {
	var req StakeRequest
	if err := parseJSON(r, &req); err != nil {
		return nil, err
	}

	caller, err := h.authenticate(r, auth.OpStake, req.Identity, req.Amount, req.Timestamp, req.Signature)
	if err != nil {
		return nil, err
	}

	view, err := h.service.Stake(r.Context(), caller, req.Amount)
	if err != nil {
		h.releaseOnInternalError(caller, err)
		return nil, err
	}
	return toStakeAccountResponse(view), nil
}

func (h *handler) withdraw(r *http.Request) (any, *types.Error) {
	var req StakeRequest
	if err := parseJSON(r, &req); err != nil {
		return nil, err
	}

	caller, err := h.authenticate(r, auth.OpWithdraw, req.Identity, req.Amount, req.Timestamp, req.Signature)
	if err != nil {
		return nil, err
	}

	view, err := h.service.Withdraw(r.Context(), caller, req.Amount)
	if err != nil {
		h.releaseOnInternalError(caller, err)
		return nil, err
	}
	return toStakeAccountResponse(view), nil
}

func (h *handler) restake(r *http.Request) (any, *types.Error) {
	var req RestakeRequest
	if err := parseJSON(r, &req); err != nil {
		return nil, err
	}

	caller, err := h.authenticate(r, auth.OpRestake, req.Identity, 0, req.Timestamp, req.Signature)
	if err != nil {
		return nil, err
	}

	view, err := h.service.Restake(r.Context(), caller)
	if err != nil {
		h.releaseOnInternalError(caller, err)
		return nil, err
	}
	return toStakeAccountResponse(view), nil
}

func (h *handler) getStakeAccount(r *http.Request) (any, *types.Error) {
	identity, err := types.ParseIdentity(chi.URLParam(r, "identity"))
	if err != nil {
		return nil, types.NewErrorWithMsg(types.BadRequest, "invalid identity: %v", err)
	}

	view, typedErr := h.service.GetStakeAccount(r.Context(), identity)
	if typedErr != nil {
		return nil, typedErr
	}
	return toStakeAccountResponse(view), nil
}

func (h *handler) getStakeStats(r *http.Request) (any, *types.Error) {
	stats, err := h.service.GetStakeStats(r.Context())
	if err != nil {
		return nil, err
	}
	return &StakeStatsResponse{
		Accounts:    stats.Accounts,
		TotalStaked: stats.TotalStaked.String(),
	}, nil
}

func (h *handler) healthcheck(r *http.Request) (any, *types.Error) {
	if err := h.service.Ping(r.Context()); err != nil {
		return nil, types.NewInternalServiceError(err)
	}
	return HealthResponse{Status: "ok"}, nil
}

func (h *handler) authenticate(
	r *http.Request, op auth.Operation, identityStr string, amount uint64, timestamp int64, signatureHex string,
) (*auth.AuthenticatedCaller, *types.Error) {
	identity, err := types.ParseIdentity(identityStr)
	if err != nil {
		return nil, types.NewErrorWithMsg(types.BadRequest, "invalid identity: %v", err)
	}
	signature, err := hex.DecodeString(signatureHex)
	if err != nil {
		return nil, types.NewErrorWithMsg(types.BadRequest, "invalid signature encoding: %v", err)
	}

	return h.verifier.Verify(r.Context(), &auth.SignedRequest{
		Op:        op,
		Identity:  identity,
		Amount:    amount,
		Timestamp: timestamp,
		Signature: signature,
	})
}

// releaseOnInternalError lets the client resend a request that failed before
// it was applied.
func (h *handler) releaseOnInternalError(caller *auth.AuthenticatedCaller, err *types.Error) {
	if err.Code == types.InternalServiceError {
		h.verifier.Release(caller)
	}
}

func toStakeAccountResponse(view *services.StakeAccountView) *StakeAccountResponse {
	return &StakeAccountResponse{
		Identity:            view.Identity.String(),
		Address:             view.Address.String(),
		Amount:              view.Account.Amount,
		LastActionTimestamp: view.Account.LastActionTimestamp,
		CooldownRemaining:   view.CooldownRemaining,
	}
}
