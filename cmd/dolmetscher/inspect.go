package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rhuss/dolmetscher/pkg/models"
)

func newResolveCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <model>...",
		Short: "Show how model names are routed",
		Long:  `Resolve each model name against the provider prefix table and report the backend id and whether provider credentials are configured.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			resolver := buildResolver(cfg)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "MODEL\tPROVIDER\tBACKEND ID\tCREDENTIALS")
			for _, name := range args {
				ref := resolver.Resolve(name)
				creds := "ambient"
				if resolver.Configured(ref.Provider) {
					creds = color.GreenString("configured")
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ref.Raw, ref.Provider, ref.BackendID, creds)
			}
			return tw.Flush()
		},
	}
}

func newModelsCmd(root *rootOptions) *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the model metadata registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			registry, err := models.Load(cfg.Models.File)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tPROVIDER\tPARAMETERS\tCONTEXT\tCAPABILITIES")
			for _, m := range registry.Models() {
				if provider != "" && m.Provider != provider {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
					m.Name, m.Provider, m.ParameterSize, m.ContextLength, strings.Join(m.Capabilities, ","))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "only list models of this provider")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", appName, version)
		},
	}
}
