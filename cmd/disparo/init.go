package main

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/foxzi/disparo/internal/config"
)

var (
	initAPIURL string
	initToken  string
	initOutput string
	initLocal  bool
	initForce  bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file",
	Long: `Create a configuration file with every option at its default.

Examples:
  # Prompts for the service URL and token
  disparo init

  # Point the console at a local devserver with a generated token
  disparo init --local -o disparo.yaml`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initAPIURL, "api-url", "", "Campaign service base URL")
	initCmd.Flags().StringVar(&initToken, "token", "", "API bearer token")
	initCmd.Flags().StringVarP(&initOutput, "output", "o", "disparo.yaml", "Output configuration file path")
	initCmd.Flags().BoolVar(&initLocal, "local", false, "Configure the console and devserver to talk to each other")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing config file")

	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(os.Stdin)

	if !initForce {
		if _, err := os.Stat(initOutput); err == nil {
			return fmt.Errorf("config file %s already exists (use --force to overwrite)", initOutput)
		}
	}

	cfg := config.Default()

	if initLocal {
		if initToken == "" {
			initToken = generateRandomString(32)
			fmt.Printf("  Generated token: %s\n", initToken)
		}
		cfg.DevServer.Token = initToken
	} else if initAPIURL == "" {
		initAPIURL = prompt(reader, "Service URL", cfg.API.BaseURL)
	}
	if initAPIURL != "" {
		cfg.API.BaseURL = initAPIURL
	}
	if initToken == "" {
		initToken = prompt(reader, "API token", "")
	}
	cfg.API.Token = initToken

	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := generateConfig(cfg)
	if err != nil {
		return err
	}
	// The file holds a token
	if err := os.WriteFile(initOutput, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("  Configuration saved to: %s\n", initOutput)
	fmt.Println()
	fmt.Println("Next steps:")
	if initLocal {
		fmt.Printf("  disparo -c %s devserver\n", initOutput)
	}
	fmt.Printf("  disparo -c %s console\n", initOutput)
	return nil
}

func generateConfig(cfg *config.Config) ([]byte, error) {
	body, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	header := "# Disparo configuration. DISPARO_* environment variables override these values.\n"
	return append([]byte(header), body...), nil
}

func generateRandomString(length int) string {
	b := make([]byte, length/2)
	rand.Read(b)
	return hex.EncodeToString(b)
}

func prompt(reader *bufio.Reader, question, defaultValue string) string {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", question, defaultValue)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultValue
	}
	return input
}
