package cmd

import (
	"log"
	"time"

	"github.com/spf13/cobra"
)

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Withdraw what the oracle owes you",
	Run:   withdrawRun,
}

func init() {
	rootCmd.AddCommand(withdrawCmd)
}

func withdrawRun(cmd *cobra.Command, args []string) {
	wd := struct {
		TimeStamp uint64 `json:"timestamp"`
	}{
		TimeStamp: uint64(time.Now().UnixNano()),
	}

	if err := post("/v1/withdraw", wd); err != nil {
		log.Fatal(err)
	}
}
