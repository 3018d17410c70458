package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/anime-shed/waste-inspector-go/internal/analyzer"
	"github.com/anime-shed/waste-inspector-go/pkg/models"
)

func newSummarizeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize FILE...",
		Short: "Build pixel summaries from raw inference outputs",
		Long: `Build one pixel summary per image from raw inference outputs.

Each FILE holds a JSON array of {"image_id": ..., "outputs": [...]} objects,
a {"images": [...]} batch, or a single {"image_id": ..., "outputs": [...]}
object. Use - to read standard input. An out-of-range class index fails the
whole run.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(v)
			if err != nil {
				return err
			}

			var results []models.ImageResult
			for _, name := range args {
				batch, err := readResults(cmd.InOrStdin(), name)
				if err != nil {
					return err
				}
				results = append(results, batch...)
			}

			summaries, err := analyzer.GenerateSummary(results, cat)
			if err != nil {
				return fmt.Errorf("summarize: %w", err)
			}
			return printSummaries(cmd.OutOrStdout(), v, summaries)
		},
	}

	cmd.Flags().Bool("non-zero", false, "omit categories that received no pixels")
	return cmd
}

func readResults(stdin io.Reader, name string) ([]models.ImageResult, error) {
	var (
		data []byte
		err  error
	)
	if name == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return parseResults(data, name)
}

// parseResults accepts the three input shapes summarize documents. A single
// object without an image_id is named after its file.
func parseResults(data []byte, name string) ([]models.ImageResult, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%s: empty input", name)
	}

	if trimmed[0] == '[' {
		var results []models.ImageResult
		if err := json.Unmarshal(trimmed, &results); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		return results, nil
	}

	var doc struct {
		Images  []models.ImageResult     `json:"images"`
		ImageID string                   `json:"image_id"`
		Outputs []models.InferenceOutput `json:"outputs"`
	}
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	switch {
	case doc.Images != nil:
		return doc.Images, nil
	case doc.ImageID != "" || doc.Outputs != nil:
		id := doc.ImageID
		if id == "" {
			id = filepath.Base(name)
		}
		return []models.ImageResult{{ImageID: id, Outputs: doc.Outputs}}, nil
	default:
		return nil, fmt.Errorf("%s: no image results found", name)
	}
}
