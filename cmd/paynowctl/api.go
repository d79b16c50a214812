package main

import (
	"context"

	"github.com/mstgnz/paynow/provider/paynow"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func statusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status <paymentId>",
		Short: "Show the status of a payment and the triggers it maps to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			defer client.Close()

			status, err := client.GetPaymentStatus(contextOf(cmd), args[0])
			if err != nil {
				return err
			}
			triggers, err := paynow.MapPaymentStatus(status.Status)
			if err != nil {
				return err
			}

			return printJSON(cmd, map[string]any{
				"paymentId": status.PaymentID,
				"status":    status.Status,
				"triggers":  triggers,
			})
		},
	}
}

func methodsCmd(opts *options) *cobra.Command {
	var amount, currency string
	var enabledOnly bool

	cmd := &cobra.Command{
		Use:   "methods",
		Short: "List the payment methods available to the merchant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := methodsQuery(amount, currency)
			if err != nil {
				return err
			}

			client, err := opts.client()
			if err != nil {
				return err
			}
			defer client.Close()

			groups, err := client.GetPaymentMethods(contextOf(cmd), query)
			if err != nil {
				return err
			}
			if enabledOnly {
				groups = enabledMethods(groups)
			}
			return printJSON(cmd, groups)
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "payment amount in major units, e.g. 49.99")
	cmd.Flags().StringVar(&currency, "currency", "", "PLN, EUR, USD or GBP")
	cmd.Flags().BoolVar(&enabledOnly, "enabled-only", false, "hide disabled methods and empty groups")

	return cmd
}

func enabledMethods(groups []paynow.PaymentMethodGroup) []paynow.PaymentMethodGroup {
	out := make([]paynow.PaymentMethodGroup, 0, len(groups))
	for _, g := range groups {
		var methods []paynow.PaymentMethod
		for _, m := range g.PaymentMethods {
			if m.Status == paynow.MethodStatusEnabled {
				methods = append(methods, m)
			}
		}
		if len(methods) > 0 {
			out = append(out, paynow.PaymentMethodGroup{Type: g.Type, PaymentMethods: methods})
		}
	}
	return out
}

func methodsQuery(amount, currency string) (paynow.PaymentMethodsQuery, error) {
	var query paynow.PaymentMethodsQuery
	if currency != "" {
		c, err := paynow.ParseCurrency(currency)
		if err != nil {
			return query, err
		}
		query.Currency = c
	}
	if amount != "" {
		value, err := decimal.NewFromString(amount)
		if err != nil {
			return query, err
		}
		c := query.Currency
		if c == "" {
			c = paynow.CurrencyPLN
		}
		units, err := paynow.ToMinorUnits(value, c)
		if err != nil {
			return query, err
		}
		query.Amount = units
	}
	return query, nil
}

func refundStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "refund-status <refundId>",
		Short: "Show the status of a refund",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			defer client.Close()

			status, err := client.GetRefundStatus(contextOf(cmd), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, status)
		},
	}
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
