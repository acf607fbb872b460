package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// ChatCmd creates the chat command.
func ChatCmd() *cobra.Command {
	var language string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Long:  "Opens an interactive session with the kiosk. The conversation keeps its context across questions until you exit.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(language)
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "", "Answer language (en, fr, ar)")

	return cmd
}

func runChat(language string) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	// An empty first question makes the server open a session and greet
	// in the selected language.
	greeting, err := sendChat(api, "", language, "")
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	sessionID := greeting.SessionID
	api.SetSessionID(sessionID)

	color.Green("%s", greeting.Answer)
	fmt.Println("Type a question, or 'exit' to leave. Type 'clear' to forget the conversation.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		color.Set(color.FgCyan)
		fmt.Print("> ")
		color.Unset()

		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}

		switch strings.ToLower(question) {
		case "exit", "quit":
			fmt.Println("Goodbye.")
			return nil
		case "clear":
			if _, err := api.Post("/v1/sessions/"+sessionID+"/clear", nil); err != nil {
				color.Red("failed to clear session: %v", err)
				continue
			}
			fmt.Println("Conversation cleared.")
			continue
		}

		resp, err := sendChat(api, question, language, sessionID)
		if err != nil {
			color.Red("error: %v", err)
			continue
		}
		// Session may have been evicted server-side; adopt the fresh one.
		sessionID = resp.SessionID
		api.SetSessionID(sessionID)

		fmt.Println()
		fmt.Println(resp.Answer)
		if len(resp.Sources) > 0 {
			color.Set(color.Faint)
			fmt.Printf("(sources: %s)\n", strings.Join(resp.Sources, ", "))
			color.Unset()
		}
		fmt.Println()
	}

	return scanner.Err()
}

func sendChat(api *APIClient, question, language, sessionID string) (*AskResponse, error) {
	resp, err := api.Post("/v1/ask", AskRequest{
		Question:  question,
		Language:  language,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, err
	}

	var askResp AskResponse
	if err := json.Unmarshal(resp.Data, &askResp); err != nil {
		return nil, fmt.Errorf("failed to parse answer: %w", err)
	}
	return &askResp, nil
}
