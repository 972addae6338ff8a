// Package check implements the local file validation subcommand.
package check

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/plancheck/plancheck/internal/conf"
	"github.com/plancheck/plancheck/internal/dxf"
	"github.com/plancheck/plancheck/internal/errors"
	"github.com/plancheck/plancheck/internal/setback"
)

// Command creates the check command for validating a single DXF file
// without the conversion service.
func Command(settings *conf.Settings) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check [input.dxf]",
		Short: "Check a local DXF drawing for setback compliance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, settings, args[0], asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the verdict as JSON")

	return cmd
}

func runCheck(cmd *cobra.Command, settings *conf.Settings, path string, asJSON bool) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Newf("failed to open drawing: %w", err).
			Category(errors.CategoryFileIO).
			FileContext(path, 0).
			Build()
	}
	defer func() {
		_ = f.Close()
	}()

	entities, err := dxf.Parse(f)
	if err != nil {
		return err
	}

	if err := setback.ValidateEntities(entities); err != nil {
		return err
	}

	verdict := setback.EvaluateSetback(entities, settings.Setback.MinDistance)

	if asJSON {
		out, err := json.MarshalIndent(verdict, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(out))
		return nil
	}

	status := "NON-COMPLIANT"
	if verdict.Compliant {
		status = "COMPLIANT"
	}
	cmd.Printf("%s: %s\n", status, verdict.Message)

	if !verdict.Compliant {
		return fmt.Errorf("drawing is not compliant")
	}
	return nil
}
