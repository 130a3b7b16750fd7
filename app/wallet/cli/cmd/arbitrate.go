package cmd

import (
	"log"

	"github.com/spf13/cobra"
)

var (
	fee    uint64
	payee  string
	direct bool
)

var arbitrateCmd = &cobra.Command{
	Use:   "arbitrate",
	Short: "Request arbitration, or answer it with the arbitrator's key",
	Run:   arbitrateRun,
}

func init() {
	rootCmd.AddCommand(arbitrateCmd)
	arbitrateCmd.Flags().StringVarP(&questionID, "question", "q", "", "Id of the question.")
	arbitrateCmd.Flags().Uint64VarP(&fee, "fee", "f", 0, "Fee paid to the arbitrator.")
	arbitrateCmd.Flags().StringVarP(&answer, "answer", "v", "", "Final answer, only for the arbitrator.")
	arbitrateCmd.Flags().StringVarP(&payee, "payee", "y", "", "Address or key name credited with the answer, only for the arbitrator.")
	arbitrateCmd.Flags().BoolVarP(&direct, "direct", "d", false, "Pay the fee to the node's arbitrator instead of the oracle.")
}

func arbitrateRun(cmd *cobra.Command, args []string) {
	if answer == "" && direct {
		ar := struct {
			QuestionID string `json:"question_id"`
			Fee        uint64 `json:"fee"`
		}{
			QuestionID: questionID,
			Fee:        fee,
		}

		if err := post("/v1/arbitrator/requests", ar); err != nil {
			log.Fatal(err)
		}
		return
	}

	if answer == "" {
		ar := struct {
			Fee uint64 `json:"fee"`
		}{
			Fee: fee,
		}

		if err := post("/v1/questions/"+questionID+"/arbitration", ar); err != nil {
			log.Fatal(err)
		}
		return
	}

	a, err := parseAnswer(answer)
	if err != nil {
		log.Fatal(err)
	}

	p, err := resolveAccount(payee)
	if err != nil {
		log.Fatal(err)
	}

	aa := struct {
		Answer string `json:"answer"`
		Payee  string `json:"payee"`
	}{
		Answer: a.Hex(),
		Payee:  p.Hex(),
	}

	if err := post("/v1/questions/"+questionID+"/arbitration/answer", aa); err != nil {
		log.Fatal(err)
	}
}
