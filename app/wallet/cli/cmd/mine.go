package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

var mineCmd = &cobra.Command{
	Use:   "mine [account]",
	Short: "Mine the pending pool into a new block, crediting the reward to the account.",
	Args:  cobra.ExactArgs(1),
	Run:   mineRun,
}

func init() {
	rootCmd.AddCommand(mineCmd)
	mineCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
}

func mineRun(cmd *cobra.Command, args []string) {
	resp, err := http.Post(fmt.Sprintf("%s/v1/mine/%s", url, args[0]), "application/json", nil)
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	var result struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Fatal(err)
	}

	if result.Error != "" {
		log.Fatal(result.Error)
	}
	fmt.Println(result.Status)
}
