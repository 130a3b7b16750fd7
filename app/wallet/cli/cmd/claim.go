package cmd

import (
	"log"

	"github.com/alex-kampa/realitycheck/foundation/realitycheck/history"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var questionIDs []string

var claimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Settle one question, or several and withdraw your balance",
	Run:   claimRun,
}

func init() {
	rootCmd.AddCommand(claimCmd)
	claimCmd.Flags().StringSliceVarP(&questionIDs, "question", "q", nil, "Ids of the questions.")
}

func claimRun(cmd *cobra.Command, args []string) {
	switch len(questionIDs) {
	case 0:
		log.Fatal("no question specified")

	case 1:
		// The oracle rebuilds the replay from its own history.
		if err := postRaw("/v1/questions/"+questionIDs[0]+"/claim", struct{}{}); err != nil {
			log.Fatal(err)
		}
		return
	}

	cl := struct {
		QuestionIDs []common.Hash  `json:"question_ids"`
		Lengths     []int          `json:"lengths"`
		Replay      history.Replay `json:"replay"`
	}{}

	for _, id := range questionIDs {
		var hist struct {
			Replay history.Replay `json:"replay"`
		}
		if err := get("/v1/questions/"+id+"/history", &hist); err != nil {
			log.Fatal(err)
		}

		cl.QuestionIDs = append(cl.QuestionIDs, common.HexToHash(id))
		cl.Lengths = append(cl.Lengths, hist.Replay.Len())
		cl.Replay.HistoryHashes = append(cl.Replay.HistoryHashes, hist.Replay.HistoryHashes...)
		cl.Replay.Addrs = append(cl.Replay.Addrs, hist.Replay.Addrs...)
		cl.Replay.Bonds = append(cl.Replay.Bonds, hist.Replay.Bonds...)
		cl.Replay.Answers = append(cl.Replay.Answers, hist.Replay.Answers...)
	}

	if err := post("/v1/claims", cl); err != nil {
		log.Fatal(err)
	}
}
