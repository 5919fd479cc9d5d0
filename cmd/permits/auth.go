package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/permitflow/internal/cli"
	"github.com/Veraticus/permitflow/internal/config"
	"github.com/Veraticus/permitflow/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with external services",
		Long:  `Authenticate with Google Sheets for report export.`,
	}

	cmd.AddCommand(authSheetsCmd())

	return cmd
}

func authSheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Authenticate with Google Sheets",
		Long: `Authenticate with Google Sheets using OAuth2.

This command will:
1. Print a URL to authenticate with Google
2. Save the token next to your config file
3. Update your config file with the refresh token

You'll need to run this once to set up 'permits export --sheets'.`,
		RunE: runAuthSheets,
	}

	cmd.Flags().String("client-id", "", "OAuth2 Client ID (overrides config)")
	cmd.Flags().String("client-secret", "", "OAuth2 Client Secret (overrides config)")
	cmd.Flags().String("callback", sheets.DefaultCallbackAddr, "address for the OAuth2 redirect")
	cmd.Flags().Bool("force", false, "Ignore a cached token and authenticate again")

	return cmd
}

func runAuthSheets(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	// Get OAuth2 config
	clientID := viper.GetString("sheets.client_id")
	clientSecret := viper.GetString("sheets.client_secret")

	// Override with flags if provided
	if flagID, _ := cmd.Flags().GetString("client-id"); flagID != "" {
		clientID = flagID
	}
	if flagSecret, _ := cmd.Flags().GetString("client-secret"); flagSecret != "" {
		clientSecret = flagSecret
	}

	// Check for environment variables as fallback
	if clientID == "" {
		clientID = os.Getenv("GOOGLE_SHEETS_CLIENT_ID")
	}
	if clientSecret == "" {
		clientSecret = os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")
	}

	if clientID == "" || clientSecret == "" {
		return fmt.Errorf("OAuth2 credentials not found. Please set sheets.client_id and sheets.client_secret in config or use --client-id and --client-secret flags")
	}

	tokenFile := filepath.Join(config.DefaultDir(), "sheets-token.json")
	callback, _ := cmd.Flags().GetString("callback")
	force, _ := cmd.Flags().GetBool("force")

	oauthConfig := sheets.OAuth2Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenFile:    tokenFile,
		CallbackAddr: callback,
	}
	if force {
		// An empty token file forces the interactive flow; the new token
		// is still saved there.
		oauthConfig.TokenFile = ""
	}

	slog.Info("Starting Google Sheets authentication", "token_file", tokenFile)
	token, err := sheets.GetOrCreateToken(ctx, oauthConfig)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	if force {
		if err := sheets.SaveToken(tokenFile, token); err != nil {
			slog.Warn("Failed to save token", "error", err, "file", tokenFile)
		}
	}

	// Update config file with refresh token
	viper.Set("sheets.refresh_token", token.RefreshToken)

	if err := saveConfig(); err != nil {
		slog.Warn("Failed to update config file with refresh token", "error", err)
		fmt.Println(cli.FormatWarning("Could not save refresh token to config file"))
		fmt.Printf("Please add this to your config.yaml manually:\nsheets:\n  refresh_token: %q\n", token.RefreshToken)
	} else {
		fmt.Println(cli.FormatSuccess("Authentication successful!"))
	}

	fmt.Println(cli.FormatInfo(cli.ChartIcon + " Google Sheets is ready. Run 'permits export --sheets' to push reports."))
	return nil
}

func saveConfig() error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		configFile = filepath.Join(config.DefaultDir(), "config.yaml")
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(configFile), 0750); err != nil {
		return err
	}

	return viper.WriteConfigAs(configFile)
}
