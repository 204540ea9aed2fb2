package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rlm-project/rlm/internal/store"
)

func newVarCmd() *cobra.Command {
	return newVariableCmd("var", store.ScopeContext)
}

func newGlobalCmd() *cobra.Command {
	return newVariableCmd("global", store.ScopeGlobal)
}

func newVariableCmd(use string, scope store.VariableScope) *cobra.Command {
	var del bool
	c := &cobra.Command{
		Use:   use + " <name> [value]",
		Short: fmt.Sprintf("Read, set, or delete a %s-scoped variable", use),
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(c *cobra.Command, args []string) error {
			return printErr(runVariable(scope, args, del))
		},
	}
	c.Flags().BoolVar(&del, "delete", false, "delete the named variable")
	return c
}

func runVariable(scope store.VariableScope, args []string, del bool) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	name := args[0]

	if del {
		if err := s.DeleteVariable(c0(), scope, name); err != nil {
			return err
		}
		if jsonMode() {
			return writeJSON(os.Stdout, map[string]any{"success": true, "deleted": name})
		}
		fmt.Printf("deleted %s\n", name)
		return nil
	}

	if len(args) == 2 {
		if err := s.SetVariable(c0(), scope, name, args[1], store.ValueString); err != nil {
			return err
		}
		if jsonMode() {
			return writeJSON(os.Stdout, map[string]any{"success": true, "name": name, "value": args[1]})
		}
		fmt.Printf("%s = %s\n", name, args[1])
		return nil
	}

	v, err := s.GetVariable(c0(), scope, name)
	if err != nil {
		return err
	}
	if jsonMode() {
		return writeJSON(os.Stdout, map[string]any{"name": v.Name, "value": v.Value, "type": string(v.ValueType)})
	}
	fmt.Println(v.Value)
	return nil
}
