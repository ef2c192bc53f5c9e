package cmd

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bnema/bulkimg-cli/internal/adapters/render/progress"
	"github.com/bnema/bulkimg-cli/internal/application"
	"github.com/bnema/bulkimg-cli/internal/domain"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

const outputDirMode = 0o755

func newGenerateCmd(app *app) *cobra.Command {
	var (
		promptsFile string
		imageCount  int
		provider    string
		outDir      string
		plain       bool
	)

	cmd := &cobra.Command{
		Use:   "generate [prompts...]",
		Short: "Generate images for a batch of prompts",
		RunE: func(cmd *cobra.Command, args []string) error {
			prompts := args
			if promptsFile != "" {
				filePrompts, err := readPromptsFile(promptsFile)
				if err != nil {
					return err
				}
				prompts = append(prompts, filePrompts...)
			}

			events := make(chan tea.Msg, 16)
			req := application.RunRequest{
				Prompts:    prompts,
				ImageCount: imageCount,
				Provider:   domain.Provider(provider),
				OnStatus: func(message string) {
					events <- progress.StatusMsg(message)
				},
			}

			handle, err := app.batch.Run(cmd.Context(), req)
			if err != nil {
				return err
			}

			go func() {
				defer close(events)
				index := 0
				for outcome := range handle.Outcomes {
					if outDir != "" {
						if err := writeImages(outDir, index, outcome); err != nil {
							events <- progress.StatusMsg(err.Error())
						}
					}
					events <- progress.OutcomeMsg{Index: index, Total: len(prompts), Outcome: outcome}
					index++
				}
			}()

			var runErr error
			if plain {
				runErr = renderPlain(cmd, events)
			} else {
				summary, err := progress.Run(len(prompts), events, cmd.OutOrStdout())
				if summary != "" {
					_, _ = fmt.Fprint(cmd.OutOrStdout(), summary)
				}
				runErr = err
			}
			if runErr != nil {
				return runErr
			}

			if err := handle.Err(); err != nil {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), err.Error())
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session: %s\n", handle.SessionID)
			return nil
		},
	}

	cmd.Flags().StringVar(&promptsFile, "prompts", "", "File with one prompt per line")
	cmd.Flags().IntVar(&imageCount, "count", 1, "Images per prompt (1-4)")
	cmd.Flags().StringVar(&provider, "provider", "", "Restrict run to credentials of one provider")
	cmd.Flags().StringVar(&outDir, "out", "", "Directory to write decoded images into")
	cmd.Flags().BoolVar(&plain, "plain", false, "Print progress without the live view")

	return cmd
}

func renderPlain(cmd *cobra.Command, events <-chan tea.Msg) error {
	for event := range events {
		switch msg := event.(type) {
		case progress.OutcomeMsg:
			if msg.Outcome.Succeeded() {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "[%d/%d] %s: %d image(s)\n",
					msg.Index+1, msg.Total, msg.Outcome.Prompt, len(msg.Outcome.Images))
				continue
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "[%d/%d] %s: %s\n",
				msg.Index+1, msg.Total, msg.Outcome.Prompt, msg.Outcome.Error)
		case progress.StatusMsg:
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), string(msg))
		}
	}
	return nil
}

func readPromptsFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open prompts file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var prompts []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		prompts = append(prompts, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}

	return prompts, nil
}

// writeImages decodes a prompt's payloads into numbered files. Decode
// failures skip the image and surface as a status line only.
func writeImages(outDir string, promptIndex int, outcome domain.GenerationOutcome) error {
	if len(outcome.Images) == 0 {
		return nil
	}

	if err := os.MkdirAll(outDir, outputDirMode); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	for i, image := range outcome.Images {
		data, err := base64.StdEncoding.DecodeString(image.B64)
		if err != nil {
			return fmt.Errorf("decode image %d for prompt %d: %w", i+1, promptIndex+1, err)
		}

		name := fmt.Sprintf("prompt-%03d-image-%02d%s", promptIndex+1, i+1, extensionFor(image.MimeType))
		if err := os.WriteFile(filepath.Join(outDir, name), data, 0o644); err != nil {
			return fmt.Errorf("write image file %s: %w", name, err)
		}
	}

	return nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
