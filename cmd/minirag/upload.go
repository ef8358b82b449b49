package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"minirag/internal/client"
)

func uploadCMD() *cobra.Command {
	var serverURL, source string
	upload := &cobra.Command{
		Use:   "upload <file.txt|file.pdf|->",
		Short: "Upload a document to a running server; - reads text from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(serverURL, 5*time.Minute)
			var (
				res client.UploadResult
				err error
			)
			if args[0] == "-" {
				data, rerr := io.ReadAll(os.Stdin)
				if rerr != nil {
					return rerr
				}
				res, err = c.UploadText(cmd.Context(), string(data), source)
			} else {
				res, err = c.UploadFile(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, res.Message)
			fmt.Fprintf(out, "Chunks: %d\n", res.Chunks)
			if res.Summary != "" {
				fmt.Fprintf(out, "Summary: %s\n", res.Summary)
			}
			return nil
		},
	}
	upload.Flags().StringVar(&serverURL, "server", getenv("MINIRAG_SERVER", defaultServerURL), "server base URL")
	upload.Flags().StringVar(&source, "source", "Direct Input", "source name for text read from stdin")
	return upload
}
