package main

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"time"

	"github.com/mstgnz/paynow/infra/config"
	"github.com/mstgnz/paynow/provider/paynow"
	"github.com/spf13/cobra"
)

// options are shared by every subcommand; empty values fall back to PAYNOW_* variables
type options struct {
	envFile      string
	apiKey       string
	signatureKey string
	environment  string
	baseURL      string
	timeout      time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "paynowctl",
		Short:         "Paynow V3 signing utilities and API client",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file to load")
	flags.StringVar(&opts.apiKey, "api-key", "", "merchant API key (PAYNOW_API_KEY)")
	flags.StringVar(&opts.signatureKey, "signature-key", "", "merchant signature key (PAYNOW_SIGNATURE_KEY)")
	flags.StringVarP(&opts.environment, "environment", "e", "", "sandbox or production (PAYNOW_ENVIRONMENT)")
	flags.StringVar(&opts.baseURL, "base-url", "", "override the API host (PAYNOW_BASE_URL)")
	flags.DurationVar(&opts.timeout, "timeout", 30*time.Second, "request timeout")

	cmd.AddCommand(signRequestCmd(opts))
	cmd.AddCommand(signNotificationCmd(opts))
	cmd.AddCommand(verifyNotificationCmd(opts))
	cmd.AddCommand(statusCmd(opts))
	cmd.AddCommand(methodsCmd(opts))
	cmd.AddCommand(refundStatusCmd(opts))

	return cmd
}

func (o *options) resolve() error {
	if err := config.LoadEnv(o.envFile); err != nil {
		return err
	}
	if o.apiKey == "" {
		o.apiKey = config.GetEnv("PAYNOW_API_KEY", "")
	}
	if o.signatureKey == "" {
		o.signatureKey = config.GetEnv("PAYNOW_SIGNATURE_KEY", "")
	}
	if o.environment == "" {
		o.environment = config.GetEnv("PAYNOW_ENVIRONMENT", string(paynow.EnvironmentSandbox))
	}
	if o.baseURL == "" {
		o.baseURL = config.GetEnv("PAYNOW_BASE_URL", "")
	}
	return nil
}

func (o *options) signer() (*paynow.SignatureCalculator, error) {
	if o.signatureKey == "" {
		return nil, errors.New("signature key is required (--signature-key or PAYNOW_SIGNATURE_KEY)")
	}
	return paynow.NewSignatureCalculator(o.signatureKey)
}

func (o *options) client() (*paynow.Client, error) {
	env, err := paynow.ParseEnvironment(o.environment)
	if err != nil {
		return nil, err
	}
	return paynow.NewClient(paynow.ClientConfig{
		Credentials: paynow.Credentials{APIKey: o.apiKey, SignatureKey: o.signatureKey},
		Environment: env,
		BaseURL:     o.baseURL,
		Timeout:     o.timeout,
	})
}

// readInput reads a file argument, or stdin for "-"
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(name)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
