package main

import (
	"fmt"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"minirag/internal/client"
	"minirag/internal/tui"
)

func askCMD() *cobra.Command {
	var serverURL, file string
	var timeout time.Duration
	ask := &cobra.Command{
		Use:   "ask",
		Short: "Ask questions interactively against a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(serverURL, timeout)
			status, err := c.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("server %s unreachable: %w", serverURL, err)
			}

			header := "minirag: " + status
			summary := ""
			if file != "" {
				res, err := c.UploadFile(cmd.Context(), file)
				if err != nil {
					return fmt.Errorf("upload %s: %w", file, err)
				}
				header = fmt.Sprintf("minirag: %s (%d chunks)", filepath.Base(file), res.Chunks)
				summary = res.Summary
			}

			_, err = tea.NewProgram(tui.New(c, header, summary, timeout), tea.WithAltScreen()).Run()
			return err
		},
	}
	ask.Flags().StringVar(&serverURL, "server", getenv("MINIRAG_SERVER", defaultServerURL), "server base URL")
	ask.Flags().StringVar(&file, "file", "", "upload this .txt or .pdf before asking")
	ask.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "per-request timeout")
	return ask
}
