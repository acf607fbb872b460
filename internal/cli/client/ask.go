package client

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// AskRequest represents the ask API request.
type AskRequest struct {
	Question  string `json:"question"`
	Language  string `json:"language,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// AskResponse represents the ask API response.
type AskResponse struct {
	Answer    string   `json:"answer"`
	Sources   []string `json:"sources"`
	Language  string   `json:"language"`
	SessionID string   `json:"session_id"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	var (
		language  string
		sessionID string
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the kiosk a question",
		Long:  "Sends a single question to the kiosk and prints the answer with its sources.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAsk(args[0], language, sessionID, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "", "Answer language (en, fr, ar)")
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Continue an existing conversation session")

	return cmd
}

func runAsk(question, language, sessionID string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	req := AskRequest{
		Question:  question,
		Language:  language,
		SessionID: sessionID,
	}

	resp, err := api.Post("/v1/ask", req)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	var askResp AskResponse
	if err := json.Unmarshal(resp.Data, &askResp); err != nil {
		return fmt.Errorf("failed to parse answer: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(askResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(askResp.Answer)
	if len(askResp.Sources) > 0 {
		fmt.Println()
		color.Cyan("Sources:")
		for _, source := range askResp.Sources {
			fmt.Printf("  - %s\n", source)
		}
	}
	fmt.Println()
	fmt.Printf("Session: %s\n", askResp.SessionID)

	return nil
}
