// Package accountgrp maintains the group of handlers for account balances and
// the node's arbitrator.
package accountgrp

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	v1 "github.com/alex-kampa/realitycheck/business/web/v1"
	"github.com/alex-kampa/realitycheck/foundation/nameservice"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/arbitrator"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/state"
	"github.com/alex-kampa/realitycheck/foundation/web"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Handlers manages the set of account endpoints.
type Handlers struct {
	Log        *zap.SugaredLogger
	State      *state.State
	Arbitrator *arbitrator.Arbitrator
	NS         *nameservice.NameService
}

// Balance returns what the oracle owes the account. The account can be an
// address or a name known to the name service.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	account, exists := h.NS.Resolve(web.Param(r, "account"))
	if !exists {
		return v1.NewRequestError(fmt.Errorf("unknown account %q", web.Param(r, "account")), http.StatusBadRequest)
	}

	bal := Balance{
		Account: account,
		Name:    h.NS.Lookup(account),
		Balance: h.State.BalanceOf(account),
	}

	return web.Respond(ctx, w, bal, http.StatusOK)
}

// Balances returns every balance the oracle owes, largest first.
func (h Handlers) Balances(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	sheet := h.State.Balances()

	bals := make([]Balance, 0, len(sheet))
	for account, value := range sheet {
		bals = append(bals, Balance{
			Account: account,
			Name:    h.NS.Lookup(account),
			Balance: value,
		})
	}

	sort.Slice(bals, func(i, j int) bool {
		if bals[i].Balance != bals[j].Balance {
			return bals[i].Balance > bals[j].Balance
		}
		return bals[i].Account.Cmp(bals[j].Account) < 0
	})

	return web.Respond(ctx, w, bals, http.StatusOK)
}

// Withdraw pays out the balance of the signer.
func (h Handlers) Withdraw(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var wd Withdrawal
	account, err := v1.DecodeSigned(r, &wd)
	if err != nil {
		return err
	}

	value, err := h.State.Withdraw(account)
	if err != nil {
		return err
	}

	h.Log.Infow("withdraw", "traceid", web.GetTraceID(ctx), "account", account, "value", value)

	return web.Respond(ctx, w, Withdrawn{Account: account, Value: value}, http.StatusOK)
}

// Claims settles several questions and pays out the balance of the signer.
func (h Handlers) Claims(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var cl Claims
	account, err := v1.DecodeSigned(r, &cl)
	if err != nil {
		return err
	}

	value, err := h.State.ClaimMultipleAndWithdrawBalance(cl.QuestionIDs, cl.Lengths, cl.Replay, account)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, Withdrawn{Account: account, Value: value}, http.StatusOK)
}

// =============================================================================

// QueryArbitrator returns the node's arbitrator and the requests waiting on it.
func (h Handlers) QueryArbitrator(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	arb := Arbitrator{
		Address:   h.Arbitrator.Address(),
		Name:      h.NS.Lookup(h.Arbitrator.Address()),
		Fee:       h.Arbitrator.GetFee(common.Hash{}),
		Collected: h.Arbitrator.Collected(),
		Pending:   h.Arbitrator.Pending(),
	}

	return web.Respond(ctx, w, arb, http.StatusOK)
}

// RequestArbitration pays the node's arbitrator directly for arbitration.
// The arbitrator tells the oracle to stop the clock on the question.
func (h Handlers) RequestArbitration(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var ar ArbitrationRequest
	requester, err := v1.DecodeSigned(r, &ar)
	if err != nil {
		return err
	}

	if err := h.Arbitrator.AcceptRequest(h.State, common.HexToHash(ar.QuestionID), ar.Fee, requester); err != nil {
		return err
	}

	h.Log.Infow("arbitration request", "traceid", web.GetTraceID(ctx), "question", ar.QuestionID, "requester", requester, "fee", ar.Fee)

	return h.QueryArbitrator(ctx, w, r)
}

// SetFee changes the arbitrator's fee. Only the owner can sign this request.
func (h Handlers) SetFee(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var f Fee
	caller, err := v1.DecodeSigned(r, &f)
	if err != nil {
		return err
	}

	switch f.QuestionID {
	case "":
		err = h.Arbitrator.SetFee(f.Fee, caller)
	default:
		err = h.Arbitrator.SetQuestionFee(common.HexToHash(f.QuestionID), f.Fee, caller)
	}
	if err != nil {
		return err
	}

	return h.QueryArbitrator(ctx, w, r)
}

// ArbitratorWithdraw pays the fees collected by the arbitrator. Only the
// owner can sign this request.
func (h Handlers) ArbitratorWithdraw(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var wd Withdrawal
	caller, err := v1.DecodeSigned(r, &wd)
	if err != nil {
		return err
	}

	value, err := h.Arbitrator.Withdraw(h.State, caller)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, Withdrawn{Account: h.Arbitrator.Address(), Value: value}, http.StatusOK)
}
