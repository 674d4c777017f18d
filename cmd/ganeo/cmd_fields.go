package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"ganeo/internal/normalize"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List legacy field names and their gtag equivalents",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printFields(cmd.OutOrStdout())
	},
}

func printFields(out io.Writer) {
	pairs := normalize.RenameTable()

	width := len("LEGACY")
	for _, p := range pairs {
		width = max(width, len(p.Legacy))
	}
	left := lipgloss.NewStyle().Width(width + 2)

	fmt.Fprintln(out, styles.Header.Render(left.Render("LEGACY")+"GTAG"))
	for _, p := range pairs {
		fmt.Fprintln(out, left.Render(p.Legacy)+styles.Command.UnsetWidth().Render(p.Gtag))
	}
}
