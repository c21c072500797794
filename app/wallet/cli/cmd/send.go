package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

var (
	sender    string
	recipient string
	amount    float64
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Submit a transaction to the pending pool.",
	Run:   sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
	sendCmd.Flags().StringVarP(&sender, "from", "f", "", "Sender account.")
	sendCmd.Flags().StringVarP(&recipient, "to", "t", "", "Recipient account.")
	sendCmd.Flags().Float64VarP(&amount, "amount", "v", 0, "Amount to send.")
	sendCmd.MarkFlagRequired("from")
	sendCmd.MarkFlagRequired("to")
	sendCmd.MarkFlagRequired("amount")
}

func sendRun(cmd *cobra.Command, args []string) {
	tx := struct {
		Sender    string  `json:"sender"`
		Recipient string  `json:"recipient"`
		Amount    float64 `json:"amount"`
	}{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
	}

	data, err := json.Marshal(tx)
	if err != nil {
		log.Fatal(err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/tx/add", url), "application/json", bytes.NewBuffer(data))
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
