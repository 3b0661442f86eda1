package main

import (
	"fmt"

	"github.com/Sternrassler/domain-order-counter/pkg/report"
	"github.com/spf13/cobra"
)

func domainsCmd(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "domains",
		Short: "List the domains known to the order directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			c, err := a.newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			domains, err := a.domainSource(c, a.connectCache(ctx)).FetchDomains(ctx)
			if err != nil {
				a.logger.Error().Err(err).Msg("Domain list unavailable")
				return fmt.Errorf("fetch domains: %w", err)
			}

			if !all {
				report.NewConsole(a.out).Preview(domains)
				return nil
			}

			for i, d := range domains {
				fmt.Fprintf(a.out, "%4d. %s\n", i+1, d)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "print every domain instead of a preview")
	return cmd
}
