// Command assignres generates the resource split for a firmware build from
// its resources.yaml. It runs from //go:generate in each firmware command.
package main

import (
	"os"
	"path/filepath"

	"testfw-go/internal/assign"

	"github.com/spf13/cobra"
)

var (
	input   string
	output  string
	pkgName string

	rootCmd = &cobra.Command{
		Use:          "assignres",
		Short:        "Partition STM32F4 peripherals into named resource groups",
		SilenceUsage: true,
	}

	genCmd = &cobra.Command{
		Use:   "gen",
		Short: "Write the Go split for a resource declaration",
		RunE:  runGen,
	}

	checkCmd = &cobra.Command{
		Use:   "check",
		Short: "Validate a resource declaration without writing anything",
		RunE:  runCheck,
	}
)

func init() {
	for _, c := range []*cobra.Command{genCmd, checkCmd} {
		c.Flags().StringVarP(&input, "input", "i", "resources.yaml", "resource declaration")
		rootCmd.AddCommand(c)
	}
	genCmd.Flags().StringVarP(&output, "output", "o", "resources_gen.go", "generated file, - for stdout")
	genCmd.Flags().StringVarP(&pkgName, "package", "p", "", "override the declared package name")
}

func load() (*assign.Decl, error) {
	src, err := os.ReadFile(input)
	if err != nil {
		return nil, err
	}
	d, err := assign.Parse(src)
	if err != nil {
		return nil, err
	}
	if pkgName != "" {
		d.Package = pkgName
	}
	return d, d.Validate()
}

func runGen(cmd *cobra.Command, args []string) error {
	d, err := load()
	if err != nil {
		return err
	}
	out, err := assign.Generate(d, filepath.Base(input))
	if err != nil {
		return err
	}
	if output == "-" {
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}
	return os.WriteFile(output, out, 0o644)
}

func runCheck(cmd *cobra.Command, args []string) error {
	d, err := load()
	if err != nil {
		return err
	}
	for _, c := range d.Claims() {
		cmd.Printf("%-7s %s\n", c.ID(), c.Name)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
