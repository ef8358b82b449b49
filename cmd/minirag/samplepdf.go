package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"minirag/internal/extract"
)

func samplePDFCMD() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "sample-pdf",
		Short: "Write a sample PDF about artificial intelligence for upload testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := extract.SamplePDF(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s successfully!\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "sample_document.pdf", "output path")
	return cmd
}
