package cmd

import (
	"log"

	"github.com/spf13/cobra"
)

var (
	content    string
	arbitrator string
	stepDelay  uint64
	nonce      uint64
	bounty     uint64
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask a new question",
	Run:   askRun,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&content, "content", "c", "", "Text of the question.")
	askCmd.Flags().StringVarP(&arbitrator, "arbitrator", "r", "arbitrator", "Address or key name of the arbitrator.")
	askCmd.Flags().Uint64VarP(&stepDelay, "step-delay", "d", 86400, "Seconds without a new answer before the question is final.")
	askCmd.Flags().Uint64VarP(&nonce, "nonce", "n", 0, "Nonce to ask the same question again.")
	askCmd.Flags().Uint64VarP(&bounty, "bounty", "b", 0, "Bounty paid to whoever holds the final answer.")
}

func askRun(cmd *cobra.Command, args []string) {
	arb, err := resolveAccount(arbitrator)
	if err != nil {
		log.Fatal(err)
	}

	nq := struct {
		Content    string `json:"content"`
		Arbitrator string `json:"arbitrator"`
		StepDelay  uint64 `json:"step_delay"`
		Nonce      uint64 `json:"nonce"`
		Bounty     uint64 `json:"bounty"`
	}{
		Content:    content,
		Arbitrator: arb.Hex(),
		StepDelay:  stepDelay,
		Nonce:      nonce,
		Bounty:     bounty,
	}

	if err := post("/v1/questions", nq); err != nil {
		log.Fatal(err)
	}
}
