// Package questiongrp maintains the group of handlers for asking, answering,
// arbitrating and settling questions.
package questiongrp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	v1 "github.com/alex-kampa/realitycheck/business/web/v1"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/arbitrator"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/callback"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/indexer"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/state"
	"github.com/alex-kampa/realitycheck/foundation/web"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

// Handlers manages the set of question endpoints.
type Handlers struct {
	Log        *zap.SugaredLogger
	State      *state.State
	Indexer    *indexer.Indexer
	Arbitrator *arbitrator.Arbitrator
	Callbacks  *callback.Dispatcher
	HTTPClient *http.Client
}

// Ask registers a new question for the signer of the request.
func (h Handlers) Ask(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var nq NewQuestion
	asker, err := v1.DecodeSigned(r, &nq)
	if err != nil {
		return err
	}

	questionID, err := h.State.AskQuestion(nq.Content, common.HexToAddress(nq.Arbitrator), nq.StepDelay, nq.Nonce, nq.Bounty, asker)
	if err != nil {
		return err
	}

	return h.respond(ctx, w, questionID, http.StatusCreated)
}

// Query returns the current state of a question.
func (h Handlers) Query(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	questionID, err := questionID(r)
	if err != nil {
		return err
	}

	return h.respond(ctx, w, questionID, http.StatusOK)
}

// Fund adds to the bounty of a question.
func (h Handlers) Fund(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	questionID, err := questionID(r)
	if err != nil {
		return err
	}

	var f Funding
	funder, err := v1.DecodeSigned(r, &f)
	if err != nil {
		return err
	}

	if err := h.State.FundAnswerBounty(questionID, f.Amount, funder); err != nil {
		return err
	}

	return h.respond(ctx, w, questionID, http.StatusOK)
}

// SubmitAnswer places a bonded answer on top of the question's history.
func (h Handlers) SubmitAnswer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	questionID, err := questionID(r)
	if err != nil {
		return err
	}

	var na NewAnswer
	sender, err := v1.DecodeSigned(r, &na)
	if err != nil {
		return err
	}

	if err := h.State.SubmitAnswer(questionID, common.HexToHash(na.Answer), na.ClaimedTopBond, na.Bond, sender); err != nil {
		return err
	}

	return h.respond(ctx, w, questionID, http.StatusOK)
}

// SubmitCommitment places a bonded commitment on top of the question's
// history.
func (h Handlers) SubmitCommitment(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	questionID, err := questionID(r)
	if err != nil {
		return err
	}

	var nc NewCommitment
	sender, err := v1.DecodeSigned(r, &nc)
	if err != nil {
		return err
	}

	if err := h.State.SubmitAnswerCommitment(questionID, common.HexToHash(nc.CommitmentHash), nc.ClaimedTopBond, nc.Bond, sender); err != nil {
		return err
	}

	return h.respond(ctx, w, questionID, http.StatusOK)
}

// SubmitReveal reveals the answer behind a commitment.
func (h Handlers) SubmitReveal(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	questionID, err := questionID(r)
	if err != nil {
		return err
	}

	var rv Reveal
	sender, err := v1.DecodeSigned(r, &rv)
	if err != nil {
		return err
	}

	if err := h.State.SubmitAnswerReveal(questionID, common.HexToHash(rv.Answer), rv.Nonce, rv.Bond, sender); err != nil {
		return err
	}

	return h.respond(ctx, w, questionID, http.StatusOK)
}

// FinalAnswer returns the final answer once the question is finalized.
func (h Handlers) FinalAnswer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	questionID, err := questionID(r)
	if err != nil {
		return err
	}

	answer, err := h.State.GetFinalAnswer(questionID)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, Final{QuestionID: questionID, Answer: answer}, http.StatusOK)
}

// History returns the records kept for the question by the indexer.
func (h Handlers) History(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	questionID, err := questionID(r)
	if err != nil {
		return err
	}

	if _, err := h.State.QueryQuestion(questionID); err != nil {
		return err
	}

	records, err := h.Indexer.Records(questionID)
	if err != nil {
		return err
	}

	replay, err := h.Indexer.Replay(questionID)
	if err != nil {
		return err
	}

	hist := History{
		Head:    h.Indexer.Head(questionID),
		Records: records,
		Replay:  replay,
	}

	return web.Respond(ctx, w, hist, http.StatusOK)
}

// RequestArbitration pays the node arbitrator's fee to freeze the question.
func (h Handlers) RequestArbitration(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	questionID, err := questionID(r)
	if err != nil {
		return err
	}

	var ar ArbitrationRequest
	requester, err := v1.DecodeSigned(r, &ar)
	if err != nil {
		return err
	}

	if err := h.Arbitrator.RequestArbitration(h.State, questionID, ar.Fee, requester); err != nil {
		return err
	}

	return h.respond(ctx, w, questionID, http.StatusOK)
}

// ArbitrationAnswer records the answer of the node's arbitrator. Only the
// owner of the arbitrator can sign this request.
func (h Handlers) ArbitrationAnswer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	questionID, err := questionID(r)
	if err != nil {
		return err
	}

	var aa ArbitrationAnswer
	caller, err := v1.DecodeSigned(r, &aa)
	if err != nil {
		return err
	}

	if err := h.Arbitrator.SubmitAnswerByArbitrator(h.State, questionID, common.HexToHash(aa.Answer), common.HexToAddress(aa.Payee), caller); err != nil {
		return err
	}

	return h.respond(ctx, w, questionID, http.StatusOK)
}

// Claim settles the question with the replay provided, or with the replay
// rebuilt from the node's history when none is provided. The request does
// not need to be signed since anyone can settle a question.
func (h Handlers) Claim(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	questionID, err := questionID(r)
	if err != nil {
		return err
	}

	var cr ClaimRequest
	if err := web.Decode(r, &cr); err != nil && !errors.Is(err, io.EOF) {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	if cr.Replay == nil {
		rp, err := h.Indexer.Replay(questionID)
		if err != nil {
			return err
		}
		cr.Replay = &rp
	}

	if err := h.State.ClaimWinnings(questionID, *cr.Replay); err != nil {
		return err
	}

	return h.respond(ctx, w, questionID, http.StatusOK)
}

// FundCallback adds to the reward for delivering the final answer to a
// client.
func (h Handlers) FundCallback(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	questionID, err := questionID(r)
	if err != nil {
		return err
	}

	var cf CallbackFunding
	funder, err := v1.DecodeSigned(r, &cf)
	if err != nil {
		return err
	}

	budget, err := time.ParseDuration(cf.Budget)
	if err != nil {
		return v1.NewRequestError(fmt.Errorf("budget: %w", err), http.StatusBadRequest)
	}

	client := common.HexToAddress(cf.Client)

	if cf.URL != "" && client != funder {
		return v1.NewRequestError(errors.New("only the client can register its webhook"), http.StatusForbidden)
	}

	if err := h.Callbacks.FundCallbackRequest(questionID, client, budget, cf.Value); err != nil {
		return err
	}

	if cf.URL != "" {
		h.Callbacks.Register(callback.NewWebhook(client, cf.URL, h.HTTPClient))
	}

	resp := struct {
		Reward uint64 `json:"reward"`
	}{
		Reward: h.Callbacks.Reward(questionID, client, budget),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SendCallback delivers the final answer to a client and pays the reward to
// the signer of the request.
func (h Handlers) SendCallback(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	questionID, err := questionID(r)
	if err != nil {
		return err
	}

	var cs CallbackSend
	caller, err := v1.DecodeSigned(r, &cs)
	if err != nil {
		return err
	}

	budget, err := time.ParseDuration(cs.Budget)
	if err != nil {
		return v1.NewRequestError(fmt.Errorf("budget: %w", err), http.StatusBadRequest)
	}

	client := common.HexToAddress(cs.Client)
	reward := h.Callbacks.Reward(questionID, client, budget)

	if err := h.Callbacks.SendCallback(ctx, questionID, client, budget, cs.MinReward, caller); err != nil {
		return err
	}

	resp := struct {
		Reward  uint64 `json:"reward"`
		Balance uint64 `json:"balance"`
	}{
		Reward:  reward,
		Balance: h.State.BalanceOf(caller),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// =============================================================================

// respond writes the current view of the question.
func (h Handlers) respond(ctx context.Context, w http.ResponseWriter, questionID common.Hash, statusCode int) error {
	q, err := h.State.QueryQuestion(questionID)
	if err != nil {
		return err
	}

	commitments, err := h.State.QueryCommitments(questionID)
	if err != nil {
		return err
	}

	view := Question{
		Question:    q,
		Commitments: commitments,
	}

	claim, open, err := h.State.QueryClaim(questionID)
	if err != nil {
		return err
	}
	if open {
		view.Claim = &claim
	}

	return web.Respond(ctx, w, view, statusCode)
}

// questionID reads the question id from the route.
func questionID(r *http.Request) (common.Hash, error) {
	id := web.Param(r, "id")

	b, err := hexutil.Decode(id)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, v1.NewRequestError(fmt.Errorf("invalid question id %q", id), http.StatusBadRequest)
	}

	return common.BytesToHash(b), nil
}
