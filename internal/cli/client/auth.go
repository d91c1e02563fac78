package client

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// AuthCmd creates the auth parent command
func AuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the server connection",
		Long:  "Login, logout, and check which docsmith server the CLI talks to",
	}

	cmd.AddCommand(AuthLoginCmd())
	cmd.AddCommand(AuthLogoutCmd())
	cmd.AddCommand(AuthStatusCmd())

	return cmd
}

// AuthLoginCmd creates the auth login command
func AuthLoginCmd() *cobra.Command {
	var apiToken string
	var apiURL string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the server URL and API token",
		Long:  "Store the server URL and API token in global config (~/.config/docsmith/config.json)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthLogin(cmd.OutOrStdout(), apiToken, apiURL)
		},
	}

	cmd.Flags().StringVar(&apiToken, "token", "", "API token (leave empty for an open server)")
	cmd.Flags().StringVar(&apiURL, "url", defaultAPIURL, "API URL")

	return cmd
}

// AuthLogoutCmd creates the auth logout command
func AuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := DeleteGlobalConfig(); err != nil {
				return fmt.Errorf("failed to logout: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Successfully logged out")
			return nil
		},
	}
}

// AuthStatusCmd creates the auth status command
func AuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which server and credentials are in use",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			flagToken, _ := cmd.Flags().GetString("api-token")
			flagURL, _ := cmd.Flags().GetString("api-url")
			source, token, url := GetCredentialSource(flagToken, flagURL)
			return printAuthStatus(cmd.OutOrStdout(), source, token, url, outputJSON)
		},
	}
}

func runAuthLogin(out io.Writer, apiToken, apiURL string) error {
	apiURL = strings.TrimRight(strings.TrimSpace(apiURL), "/")
	if apiURL == "" {
		return fmt.Errorf("API URL is required")
	}

	config := &GlobalConfig{
		APIToken: strings.TrimSpace(apiToken),
		APIURL:   apiURL,
	}
	if err := SaveGlobalConfig(config); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	fmt.Fprintf(out, "Successfully logged in to %s\n", apiURL)
	return nil
}

func printAuthStatus(out io.Writer, source CredentialSource, apiToken, apiURL string, outputJSON bool) error {
	if outputJSON {
		status := map[string]interface{}{
			"configured": source != SourceNone,
			"source":     string(source),
		}
		if source != SourceNone {
			status["api_token"] = maskToken(apiToken)
			status["api_url"] = apiURL
		}
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if source == SourceNone {
		fmt.Fprintf(out, "Not configured, using %s\n", defaultAPIURL)
		fmt.Fprintln(out, "Run 'docsmith auth login' to store a server URL")
		return nil
	}

	fmt.Fprintf(out, "Source: %s\n", source)
	fmt.Fprintf(out, "API URL: %s\n", apiURL)
	fmt.Fprintf(out, "API Token: %s\n", maskToken(apiToken))
	return nil
}

func maskToken(token string) string {
	switch {
	case token == "":
		return "(none)"
	case len(token) < 8:
		return "***"
	default:
		return token[:3] + "..." + token[len(token)-4:]
	}
}
