// Package commands contains the functionality for the set of commands
// currently supported by the admin tool.
package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/alex-kampa/realitycheck/foundation/realitycheck/history"
	"github.com/alex-kampa/realitycheck/foundation/realitycheck/indexer"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrHelp provides context that help was given.
var ErrHelp = errors.New("provided help")

// Questions prints the questions the indexer holds history for.
func Questions(idx *indexer.Indexer) error {
	for _, questionID := range idx.Questions() {
		records, err := idx.Records(questionID)
		if err != nil {
			return err
		}
		fmt.Printf("Question: %s  Records: %d  Head: %s\n", questionID, len(records), idx.Head(questionID))
	}

	return nil
}

// History prints the records kept for the question followed by the replay a
// claimant presents to settle it.
func History(id string, idx *indexer.Indexer) error {
	if id == "" {
		fmt.Println("help: history <question-id>")
		return ErrHelp
	}

	b, err := hexutil.Decode(id)
	if err != nil || len(b) != common.HashLength {
		return fmt.Errorf("invalid question id %q", id)
	}
	questionID := common.BytesToHash(b)

	records, err := idx.Records(questionID)
	if err != nil {
		return err
	}

	for i, rec := range records {
		kind := "answer"
		if rec.Commitment {
			kind = "commitment"
		}
		fmt.Printf("%3d  %-10s  addr: %s  bond: %d  answer: %s  head: %s\n", i, kind, rec.Addr, rec.Bond, rec.Answer, rec.Hash())
	}

	rp := history.NewReplay(records)
	if err := history.Verify(idx.Head(questionID), rp); err != nil {
		return fmt.Errorf("verifying replay: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(rp)
}
