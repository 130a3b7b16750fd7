package cmd

import (
	"log"

	"github.com/spf13/cobra"
)

var (
	questionID string
	answer     string
	topBond    uint64
	bond       uint64
)

var answerCmd = &cobra.Command{
	Use:   "answer",
	Short: "Submit a bonded answer",
	Run:   answerRun,
}

func init() {
	rootCmd.AddCommand(answerCmd)
	answerCmd.Flags().StringVarP(&questionID, "question", "q", "", "Id of the question.")
	answerCmd.Flags().StringVarP(&answer, "answer", "v", "", "Answer as a number or a 32 byte hex value.")
	answerCmd.Flags().Uint64VarP(&topBond, "top-bond", "t", 0, "Highest bond you have seen on the question.")
	answerCmd.Flags().Uint64VarP(&bond, "bond", "b", 0, "Bond placed with the answer.")
}

func answerRun(cmd *cobra.Command, args []string) {
	a, err := parseAnswer(answer)
	if err != nil {
		log.Fatal(err)
	}

	na := struct {
		Answer         string `json:"answer"`
		ClaimedTopBond uint64 `json:"claimed_top_bond"`
		Bond           uint64 `json:"bond"`
	}{
		Answer:         a.Hex(),
		ClaimedTopBond: topBond,
		Bond:           bond,
	}

	if err := post("/v1/questions/"+questionID+"/answers", na); err != nil {
		log.Fatal(err)
	}
}
