package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	time.Local = time.UTC
}

func main() {
	root := &cobra.Command{
		Use:           "ffc-billing",
		Short:         "Generate and submit the monthly FinOps billing journals",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newProcessBillingCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
