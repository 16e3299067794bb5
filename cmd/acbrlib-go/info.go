package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hsiuhsiu/acbrlib-go/pkg/acbrlib/esocial"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Initialize the eSocial component and print its name and version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			loader, err := a.newLoader()
			if err != nil {
				return err
			}
			defer loader.Close()

			ctx := cmd.Context()
			lib, err := esocial.New(ctx, loader)
			if err != nil {
				return err
			}
			if err := lib.Initialize(ctx, esocial.InitParams{
				ConfigPath: a.cfg.ESocial.ConfigPath,
				CryptKey:   a.cfg.ESocial.CryptKey(),
			}); err != nil {
				return err
			}
			defer func() {
				if cerr := lib.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()

			name, err := lib.Name()
			if err != nil {
				return err
			}
			version, err := lib.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", name, version)
			return nil
		},
	}
}
