package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// LanguageInfo represents one supported language.
type LanguageInfo struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Greeting string `json:"greeting"`
}

// LanguagesResponse represents the languages API response.
type LanguagesResponse struct {
	Languages []LanguageInfo `json:"languages"`
	Default   string         `json:"default"`
}

// LanguagesCmd creates the languages command.
func LanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runLanguages(outputJSON)
		},
	}
}

func runLanguages(outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Get("/v1/languages")
	if err != nil {
		return fmt.Errorf("failed to list languages: %w", err)
	}

	var langResp LanguagesResponse
	if err := json.Unmarshal(resp.Data, &langResp); err != nil {
		return fmt.Errorf("failed to parse languages: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(langResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	for _, lang := range langResp.Languages {
		marker := " "
		if lang.Code == langResp.Default {
			marker = "*"
		}
		fmt.Printf("%s %s  %s\n", marker, lang.Code, lang.Name)
	}
	fmt.Println("\n* default")

	return nil
}
