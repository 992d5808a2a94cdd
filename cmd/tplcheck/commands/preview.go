package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-tplcheck"
)

const flagData = "data"

func newPreviewCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview TEMPLATE",
		Short: "Render one template to stdout with optional YAML context data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data := map[string]any{}
			if path, _ := cmd.Flags().GetString(flagData); path != "" {
				raw, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read data %s: %w", path, err)
				}
				if err := yaml.Unmarshal(raw, &data); err != nil {
					return fmt.Errorf("parse data %s: %w", path, err)
				}
			}

			opts := append([]tplcheck.Option{
				tplcheck.WithGlobals(map[string]any{
					"request": map[string]any{"locale": rt.cfg.LocaleTag().String()},
				}),
			}, rt.options...)
			eng, err := tplcheck.NewEngine(rt.fsys, opts...)
			if err != nil {
				return err
			}
			_, err = eng.Render(args[0], data, cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().String(flagData, "", "YAML file providing the template context")
	return cmd
}
