package handlers_test

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/alex-kampa/realitycheck/app/services/oracle/handlers"
	"github.com/alex-kampa/realitycheck/app/services/oracle/handlers/v1/accountgrp"
	"github.com/alex-kampa/realitycheck/app/services/oracle/handlers/v1/questiongrp"
	"github.com/alex-kampa/realitycheck/foundation/events"
	"github.com/alex-kampa/realitycheck/foundation/nameservice"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/arbitrator"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/balance"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/callback"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/history"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/indexer"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/indexer/memory"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/signature"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/state"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type node struct {
	t      *testing.T
	mux    http.Handler
	clock  *clock
	arbKey *ecdsa.PrivateKey
}

func newNode(t *testing.T) *node {
	arbKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, crypto.SaveECDSA(dir+"/arbitrator.ecdsa", arbKey))

	ns, err := nameservice.New(dir)
	require.NoError(t, err)

	idx, err := indexer.New(memory.New(), nil)
	require.NoError(t, err)

	clk := clock{now: time.Unix(1_700_000_000, 0)}
	ledger := balance.NewSheet(nil)

	st := state.New(state.Config{
		Now:      clk.Now,
		Ledger:   ledger,
		Recorder: idx,
	})

	arbAccount := crypto.PubkeyToAddress(arbKey.PublicKey)
	arb := arbitrator.New(arbitrator.Config{
		Address: arbAccount,
		Owner:   arbAccount,
		Fee:     100,
		Now:     clk.Now,
	})
	st.RegisterArbitrator(arb)

	mux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown:   make(chan os.Signal, 1),
		Log:        zap.NewNop().Sugar(),
		Registry:   prometheus.NewRegistry(),
		State:      st,
		Indexer:    idx,
		Arbitrator: arb,
		Callbacks:  callback.New(callback.Config{Oracle: st, Ledger: ledger, MaxBudget: time.Second}),
		NS:         ns,
		Evts:       events.New(),
	})

	return &node{t: t, mux: mux, clock: &clk, arbKey: arbKey}
}

func (n *node) do(method string, path string, body any, status int, resp any) {
	n.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(n.t, json.NewEncoder(&buf).Encode(body))
	}

	w := httptest.NewRecorder()
	n.mux.ServeHTTP(w, httptest.NewRequest(method, path, &buf))

	require.Equal(n.t, status, w.Code, w.Body.String())

	if resp != nil {
		require.NoError(n.t, json.NewDecoder(w.Body).Decode(resp))
	}
}

func (n *node) signed(pk *ecdsa.PrivateKey, value any) signature.Signed {
	n.t.Helper()

	sd, err := signature.NewSigned(value, pk)
	require.NoError(n.t, err)

	return sd
}

func newKey(t *testing.T) *ecdsa.PrivateKey {
	pk, err := crypto.GenerateKey()
	require.NoError(t, err)
	return pk
}

// =============================================================================

func TestAnswerAndClaim(t *testing.T) {
	n := newNode(t)
	asker := newKey(t)
	answerer := newKey(t)

	nq := questiongrp.NewQuestion{
		Content:    "Who won the match?",
		Arbitrator: crypto.PubkeyToAddress(n.arbKey.PublicKey).Hex(),
		StepDelay:  10,
		Bounty:     1000,
	}

	var q questiongrp.Question
	n.do(http.MethodPost, "/v1/questions", n.signed(asker, nq), http.StatusCreated, &q)
	require.Equal(t, history.QuestionID(history.ContentHash(nq.Content), crypto.PubkeyToAddress(asker.PublicKey), 0), q.ID)
	require.Equal(t, state.StatusUnanswered, q.Status)

	path := "/v1/questions/" + q.ID.Hex()
	answer := history.AnswerFromUint64(12345)

	na := questiongrp.NewAnswer{Answer: answer.Hex(), Bond: 1}
	n.do(http.MethodPost, path+"/answers", n.signed(answerer, na), http.StatusOK, &q)
	require.Equal(t, state.StatusOpen, q.Status)
	require.Equal(t, uint64(1), q.Bond)

	stale := questiongrp.NewAnswer{Answer: answer.Hex(), ClaimedTopBond: 0, Bond: 2}
	n.do(http.MethodPost, path+"/answers", n.signed(answerer, stale), http.StatusConflict, nil)

	n.do(http.MethodGet, path+"/final", nil, http.StatusPreconditionFailed, nil)

	n.clock.Advance(11 * time.Second)

	var final questiongrp.Final
	n.do(http.MethodGet, path+"/final", nil, http.StatusOK, &final)
	require.Equal(t, answer, final.Answer)

	var hist questiongrp.History
	n.do(http.MethodGet, path+"/history", nil, http.StatusOK, &hist)
	require.Len(t, hist.Records, 1)
	require.Equal(t, q.HistoryHash, hist.Head)

	n.do(http.MethodPost, path+"/claim", nil, http.StatusOK, &q)
	require.True(t, q.Claimed)

	account := crypto.PubkeyToAddress(answerer.PublicKey)

	var bal accountgrp.Balance
	n.do(http.MethodGet, "/v1/balances/"+account.Hex(), nil, http.StatusOK, &bal)
	require.Equal(t, uint64(1001), bal.Balance)

	var bals []accountgrp.Balance
	n.do(http.MethodGet, "/v1/balances", nil, http.StatusOK, &bals)
	require.Equal(t, []accountgrp.Balance{{Account: account, Name: account.Hex(), Balance: 1001}}, bals)

	var wd accountgrp.Withdrawn
	n.do(http.MethodPost, "/v1/withdraw", n.signed(answerer, accountgrp.Withdrawal{TimeStamp: 1}), http.StatusOK, &wd)
	require.Equal(t, account, wd.Account)
	require.Equal(t, uint64(1001), wd.Value)

	n.do(http.MethodPost, "/v1/withdraw", n.signed(answerer, accountgrp.Withdrawal{TimeStamp: 2}), http.StatusBadRequest, nil)
}

func TestArbitrationRoutes(t *testing.T) {
	n := newNode(t)
	asker := newKey(t)
	answerer := newKey(t)
	arbAccount := crypto.PubkeyToAddress(n.arbKey.PublicKey)

	nq := questiongrp.NewQuestion{Content: "Is it raining?", Arbitrator: arbAccount.Hex(), StepDelay: 10}

	var q questiongrp.Question
	n.do(http.MethodPost, "/v1/questions", n.signed(asker, nq), http.StatusCreated, &q)
	path := "/v1/questions/" + q.ID.Hex()

	n.do(http.MethodPost, path+"/answers", n.signed(answerer, questiongrp.NewAnswer{Answer: history.AnswerFromUint64(1).Hex(), Bond: 5}), http.StatusOK, nil)

	n.do(http.MethodPost, path+"/arbitration", n.signed(asker, questiongrp.ArbitrationRequest{Fee: 99}), http.StatusBadRequest, nil)
	n.do(http.MethodPost, path+"/arbitration", n.signed(asker, questiongrp.ArbitrationRequest{Fee: 100}), http.StatusOK, &q)
	require.Equal(t, state.StatusPendingArbitration, q.Status)

	var arb accountgrp.Arbitrator
	n.do(http.MethodGet, "/v1/arbitrator", nil, http.StatusOK, &arb)
	require.Equal(t, arbAccount, arb.Address)
	require.Equal(t, "arbitrator", arb.Name)
	require.Len(t, arb.Pending, 1)

	aa := questiongrp.ArbitrationAnswer{Answer: history.AnswerFromUint64(2).Hex(), Payee: crypto.PubkeyToAddress(asker.PublicKey).Hex()}
	n.do(http.MethodPost, path+"/arbitration/answer", n.signed(asker, aa), http.StatusForbidden, nil)
	n.do(http.MethodPost, path+"/arbitration/answer", n.signed(n.arbKey, aa), http.StatusOK, &q)
	require.Equal(t, state.StatusFinalized, q.Status)

	n.do(http.MethodPost, path+"/claim", nil, http.StatusOK, nil)

	var bal accountgrp.Balance
	n.do(http.MethodGet, "/v1/balances/"+crypto.PubkeyToAddress(asker.PublicKey).Hex(), nil, http.StatusOK, &bal)
	require.Equal(t, uint64(5), bal.Balance)

	n.do(http.MethodGet, "/v1/balances/arbitrator", nil, http.StatusOK, &bal)
	require.Equal(t, uint64(100), bal.Balance)

	var wd accountgrp.Withdrawn
	n.do(http.MethodPost, "/v1/arbitrator/withdraw", n.signed(n.arbKey, accountgrp.Withdrawal{TimeStamp: 1}), http.StatusOK, &wd)
	require.Equal(t, uint64(100), wd.Value)
}

func TestDirectArbitrationRequest(t *testing.T) {
	n := newNode(t)
	asker := newKey(t)
	answerer := newKey(t)
	arbAccount := crypto.PubkeyToAddress(n.arbKey.PublicKey)

	nq := questiongrp.NewQuestion{Content: "Is it snowing?", Arbitrator: arbAccount.Hex(), StepDelay: 10}

	var q questiongrp.Question
	n.do(http.MethodPost, "/v1/questions", n.signed(asker, nq), http.StatusCreated, &q)
	path := "/v1/questions/" + q.ID.Hex()

	n.do(http.MethodPost, path+"/answers", n.signed(answerer, questiongrp.NewAnswer{Answer: history.AnswerFromUint64(1).Hex(), Bond: 5}), http.StatusOK, nil)

	n.do(http.MethodPost, "/v1/arbitrator/requests", n.signed(asker, accountgrp.ArbitrationRequest{QuestionID: q.ID.Hex(), Fee: 99}), http.StatusBadRequest, nil)

	var arb accountgrp.Arbitrator
	n.do(http.MethodPost, "/v1/arbitrator/requests", n.signed(asker, accountgrp.ArbitrationRequest{QuestionID: q.ID.Hex(), Fee: 100}), http.StatusOK, &arb)
	require.Equal(t, uint64(100), arb.Collected)
	require.Len(t, arb.Pending, 1)
	require.Equal(t, crypto.PubkeyToAddress(asker.PublicKey), arb.Pending[0].Requester)

	n.do(http.MethodGet, path, nil, http.StatusOK, &q)
	require.Equal(t, state.StatusPendingArbitration, q.Status)
	require.Equal(t, uint64(0), q.ArbitrationBounty)

	n.do(http.MethodPost, "/v1/arbitrator/requests", n.signed(asker, accountgrp.ArbitrationRequest{QuestionID: q.ID.Hex(), Fee: 100}), http.StatusConflict, nil)

	// The fee was paid to the arbitrator so the oracle owes it nothing.
	n.do(http.MethodPost, path+"/arbitration/answer", n.signed(n.arbKey, questiongrp.ArbitrationAnswer{Answer: history.AnswerFromUint64(1).Hex(), Payee: crypto.PubkeyToAddress(answerer.PublicKey).Hex()}), http.StatusOK, &q)
	require.Equal(t, state.StatusFinalized, q.Status)
	n.do(http.MethodPost, "/v1/arbitrator/withdraw", n.signed(n.arbKey, accountgrp.Withdrawal{TimeStamp: 1}), http.StatusBadRequest, nil)
}

func TestFundCallback(t *testing.T) {
	n := newNode(t)
	asker := newKey(t)
	client := newKey(t)

	nq := questiongrp.NewQuestion{Content: "Will it rain?", Arbitrator: crypto.PubkeyToAddress(n.arbKey.PublicKey).Hex(), StepDelay: 10}

	var q questiongrp.Question
	n.do(http.MethodPost, "/v1/questions", n.signed(asker, nq), http.StatusCreated, &q)
	path := "/v1/questions/" + q.ID.Hex()

	cf := questiongrp.CallbackFunding{
		Client: crypto.PubkeyToAddress(client.PublicKey).Hex(),
		Budget: "500ms",
		Value:  10,
		URL:    "http://localhost:1/hook",
	}

	var resp struct {
		Reward uint64 `json:"reward"`
	}

	// Only the client can name its webhook and a refused request funds nothing.
	n.do(http.MethodPost, path+"/callbacks", n.signed(asker, cf), http.StatusForbidden, nil)

	cf.URL = ""
	n.do(http.MethodPost, path+"/callbacks", n.signed(asker, cf), http.StatusOK, &resp)
	require.Equal(t, uint64(10), resp.Reward)

	cf.Budget = "0s"
	n.do(http.MethodPost, path+"/callbacks", n.signed(asker, cf), http.StatusBadRequest, nil)
}

func TestBadRequests(t *testing.T) {
	n := newNode(t)
	asker := newKey(t)

	nq := questiongrp.NewQuestion{Content: "Is it raining?", Arbitrator: crypto.PubkeyToAddress(n.arbKey.PublicKey).Hex(), StepDelay: 10}

	var q questiongrp.Question
	n.do(http.MethodPost, "/v1/questions", n.signed(asker, nq), http.StatusCreated, &q)
	n.do(http.MethodPost, "/v1/questions", n.signed(asker, nq), http.StatusConflict, nil)
	path := "/v1/questions/" + q.ID.Hex()

	t.Run("validation", func(t *testing.T) {
		n.do(http.MethodPost, path+"/answers", n.signed(asker, questiongrp.NewAnswer{Answer: "yes"}), http.StatusBadRequest, nil)
	})

	t.Run("tampered", func(t *testing.T) {
		sd := n.signed(asker, questiongrp.NewAnswer{Answer: history.AnswerFromUint64(1).Hex(), Bond: 1})
		sd.Data = json.RawMessage(`{"answer":"` + history.AnswerFromUint64(2).Hex() + `","bond":1}`)

		// The signature no longer matches the data so a different account
		// is recovered and the record is not made in the asker's name.
		n.do(http.MethodPost, path+"/answers", sd, http.StatusOK, nil)

		var hist questiongrp.History
		n.do(http.MethodGet, path+"/history", nil, http.StatusOK, &hist)
		require.Len(t, hist.Records, 1)
		require.NotEqual(t, crypto.PubkeyToAddress(asker.PublicKey), hist.Records[0].Addr)
	})

	t.Run("unsigned", func(t *testing.T) {
		sd := signature.Signed{Data: json.RawMessage(`{"fee":100}`)}
		n.do(http.MethodPost, path+"/arbitration", sd, http.StatusForbidden, nil)
	})

	t.Run("bad id", func(t *testing.T) {
		n.do(http.MethodGet, "/v1/questions/0x1234", nil, http.StatusBadRequest, nil)
	})

	t.Run("event filter", func(t *testing.T) {
		n.do(http.MethodGet, "/v1/events?question=0x1234", nil, http.StatusBadRequest, nil)
	})

	t.Run("unknown question", func(t *testing.T) {
		n.do(http.MethodGet, "/v1/questions/"+common.Hash{1}.Hex(), nil, http.StatusNotFound, nil)
	})
}
