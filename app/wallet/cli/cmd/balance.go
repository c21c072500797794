package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

type balance struct {
	Account string  `json:"account"`
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
	Message string  `json:"message"`
}

var balanceCmd = &cobra.Command{
	Use:   "balance [account]",
	Short: "Print the balance of an account.",
	Args:  cobra.ExactArgs(1),
	Run:   balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
}

func balanceRun(cmd *cobra.Command, args []string) {
	resp, err := http.Get(fmt.Sprintf("%s/v1/balances/list/%s", url, args[0]))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	var b balance
	if err := json.NewDecoder(resp.Body).Decode(&b); err != nil {
		log.Fatal(err)
	}

	fmt.Println(b.Message)
}
