// Package main はCLIツールのエントリポイント。
package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"data-anonymization-service/pkg/signature"
)

const version = "1.0.0"

var (
	apiURL   string
	timeout  time.Duration
	systemID string
	userID   string
	secret   string
)

// HTTPクライアント
var httpClient *http.Client

func main() {
	rootCmd := &cobra.Command{
		Use:   "anonctl",
		Short: "Data Anonymization Service CLI",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if apiURL == "" {
				apiURL = os.Getenv("ANONCTL_API_URL")
			}
			if secret == "" {
				secret = os.Getenv("ANONCTL_SHARED_SECRET")
			}
			httpClient = &http.Client{Timeout: timeout}
		},
	}

	// グローバルフラグ
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "API endpoint URL (or set ANONCTL_API_URL)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&systemID, "system-id", "", "Calling system ID")
	rootCmd.PersistentFlags().StringVar(&userID, "user-id", "", "Calling user ID")
	rootCmd.PersistentFlags().StringVar(&secret, "secret", "", "Shared secret (or set ANONCTL_SHARED_SECRET)")

	// サブコマンド登録
	rootCmd.AddCommand(signCmd())
	rootCmd.AddCommand(anonymizeCmd())
	rootCmd.AddCommand(decryptCmd())
	rootCmd.AddCommand(systemCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// versionCmd はバージョン情報を表示する。
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("anonctl version %s\n", version)
		},
	}
}

// readBody はボディをファイルまたは標準入力から読み込む。
func readBody(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// requireSigningFlags は署名に必要なフラグを検証する。
func requireSigningFlags() error {
	if systemID == "" {
		return fmt.Errorf("--system-id is required")
	}
	if userID == "" {
		return fmt.Errorf("--user-id is required")
	}
	if secret == "" {
		return fmt.Errorf("--secret is required (or set ANONCTL_SHARED_SECRET)")
	}
	return nil
}

// signCmd はリクエストボディに対するAuthorizationヘッダを生成する。
func signCmd() *cobra.Command {
	var bodyPath string
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Compute the Authorization header for a request body",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSigningFlags(); err != nil {
				return err
			}

			body, err := readBody(bodyPath)
			if err != nil {
				return fmt.Errorf("reading body: %w", err)
			}

			signed := signature.Sign(systemID, userID, body, secret, time.Now().Unix())
			fmt.Println(signature.EncodeHeader(signed))
			return nil
		},
	}
	cmd.Flags().StringVar(&bodyPath, "body", "-", "Request body file (default: stdin)")
	return cmd
}

// callAPI はボディを署名してAPIを呼び出し、レスポンスボディを返す。
func callAPI(path string, body []byte) ([]byte, error) {
	if apiURL == "" {
		return nil, fmt.Errorf("--api-url is required (or set ANONCTL_API_URL)")
	}

	signed := signature.Sign(systemID, userID, body, secret, time.Now().Unix())

	req, err := http.NewRequest(http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", signature.EncodeHeader(signed))

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// anonymizeCmd は匿名化APIを呼び出す。
func anonymizeCmd() *cobra.Command {
	var bodyPath string
	cmd := &cobra.Command{
		Use:   "anonymize",
		Short: "Anonymize a payload via the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSigningFlags(); err != nil {
				return err
			}

			body, err := readBody(bodyPath)
			if err != nil {
				return fmt.Errorf("reading body: %w", err)
			}

			respBody, err := callAPI("/v1/anonymize", body)
			if err != nil {
				return err
			}
			fmt.Println(string(respBody))
			return nil
		},
	}
	cmd.Flags().StringVar(&bodyPath, "body", "-", "Request body file (default: stdin)")
	return cmd
}

// decryptCmd は復元APIを呼び出す。
func decryptCmd() *cobra.Command {
	var bodyPath string
	cmd := &cobra.Command{
		Use:   "decrypt",
		Short: "Restore anonymized content via the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSigningFlags(); err != nil {
				return err
			}

			body, err := readBody(bodyPath)
			if err != nil {
				return fmt.Errorf("reading body: %w", err)
			}

			respBody, err := callAPI("/v1/decrypt", body)
			if err != nil {
				return err
			}
			fmt.Println(string(respBody))
			return nil
		},
	}
	cmd.Flags().StringVar(&bodyPath, "body", "-", "Request body file (default: stdin)")
	return cmd
}
