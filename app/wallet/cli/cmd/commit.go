package cmd

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"log"

	"github.com/alex-kampa/realitycheck/foundation/realitycheck/history"
	"github.com/spf13/cobra"
)

var commitNonce uint64

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Submit a bonded answer hidden behind a commitment",
	Run:   commitRun,
}

var revealCmd = &cobra.Command{
	Use:   "reveal",
	Short: "Reveal the answer behind a commitment",
	Run:   revealRun,
}

func init() {
	rootCmd.AddCommand(commitCmd)
	commitCmd.Flags().StringVarP(&questionID, "question", "q", "", "Id of the question.")
	commitCmd.Flags().StringVarP(&answer, "answer", "v", "", "Answer as a number or a 32 byte hex value.")
	commitCmd.Flags().Uint64VarP(&commitNonce, "nonce", "n", 0, "Nonce hiding the answer, random when not set.")
	commitCmd.Flags().Uint64VarP(&topBond, "top-bond", "t", 0, "Highest bond you have seen on the question.")
	commitCmd.Flags().Uint64VarP(&bond, "bond", "b", 0, "Bond placed with the commitment.")

	rootCmd.AddCommand(revealCmd)
	revealCmd.Flags().StringVarP(&questionID, "question", "q", "", "Id of the question.")
	revealCmd.Flags().StringVarP(&answer, "answer", "v", "", "Answer as a number or a 32 byte hex value.")
	revealCmd.Flags().Uint64VarP(&commitNonce, "nonce", "n", 0, "Nonce used for the commitment.")
	revealCmd.Flags().Uint64VarP(&bond, "bond", "b", 0, "Bond placed with the commitment.")
}

func commitRun(cmd *cobra.Command, args []string) {
	a, err := parseAnswer(answer)
	if err != nil {
		log.Fatal(err)
	}

	if !cmd.Flags().Changed("nonce") {
		var b [8]byte
		if _, err := rand.Read(b[:]); err != nil {
			log.Fatal(err)
		}
		commitNonce = binary.BigEndian.Uint64(b[:])
	}

	nc := struct {
		CommitmentHash string `json:"commitment_hash"`
		ClaimedTopBond uint64 `json:"claimed_top_bond"`
		Bond           uint64 `json:"bond"`
	}{
		CommitmentHash: history.CommitmentHash(a, commitNonce).Hex(),
		ClaimedTopBond: topBond,
		Bond:           bond,
	}

	if err := post("/v1/questions/"+questionID+"/commitments", nc); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Keep the nonce to reveal the answer: %d\n", commitNonce)
}

func revealRun(cmd *cobra.Command, args []string) {
	a, err := parseAnswer(answer)
	if err != nil {
		log.Fatal(err)
	}

	rv := struct {
		Answer string `json:"answer"`
		Nonce  uint64 `json:"nonce"`
		Bond   uint64 `json:"bond"`
	}{
		Answer: a.Hex(),
		Nonce:  commitNonce,
		Bond:   bond,
	}

	if err := post("/v1/questions/"+questionID+"/reveals", rv); err != nil {
		log.Fatal(err)
	}
}
