package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hsiuhsiu/acbrlib-go/pkg/acbrlib"
)

func newProbeCmd(a *app) *cobra.Command {
	var symbols []string
	cmd := &cobra.Command{
		Use:   "probe <library>",
		Short: "Load a component and resolve entry points",
		Long: `probe resolves the file of a component (eSocial, Reinf, NFe, CTe, MDFe,
BPe, GNRe, Boleto), loads it and resolves each --symbol. It fails when the
file is missing, cannot be loaded, or any symbol is absent.`,
		Example: `  acbrlib-go probe eSocial --symbol eSocial_Inicializar --symbol eSocial_Versao`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := acbrlib.ParseLibraryID(args[0])
			if err != nil {
				return err
			}
			loader, err := a.newLoader()
			if err != nil {
				return err
			}
			defer loader.Close()

			out := cmd.OutOrStdout()
			path, err := loader.Path(id)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "library: %s\npath:    %s\n", id, path)

			h, err := loader.GetOrLoad(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "handle:  %#x\n", uintptr(h))

			var missing []error
			for _, name := range symbols {
				addr, err := loader.Resolve(h, name)
				if err != nil {
					fmt.Fprintf(out, "  %-48s missing\n", name)
					missing = append(missing, err)
					continue
				}
				fmt.Fprintf(out, "  %-48s %#x\n", name, addr)
			}
			return errors.Join(missing...)
		},
	}
	cmd.Flags().StringArrayVarP(&symbols, "symbol", "s", nil, "entry point to resolve (repeatable)")
	return cmd
}
