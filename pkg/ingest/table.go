package ingest

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/foliolegal/enrichcore/pkg/job"
	"github.com/xuri/excelize/v2"
)

// tableIngester flattens .xlsx exhibit attachments into cell-reference
// lines, adapting the teacher's parseExcelDocument row-walk and per-sheet
// cell cap.
type tableIngester struct{}

const maxCellsPerSheet = 1000

func (tableIngester) Ingest(ctx context.Context, input job.Input) (string, []Element, error) {
	raw, err := base64.StdEncoding.DecodeString(input.Content)
	if err != nil {
		return "", nil, fmt.Errorf("table ingest: decode base64: %w", err)
	}

	f, err := excelize.OpenReader(strings.NewReader(string(raw)))
	if err != nil {
		return "", nil, fmt.Errorf("table ingest: %w", err)
	}
	defer f.Close()

	var elements []Element
	var texts []string

	for _, sheetName := range f.GetSheetList() {
		select {
		case <-ctx.Done():
			return strings.Join(texts, "\n\n"), elements, ctx.Err()
		default:
		}

		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}

		var sb strings.Builder
		cellCount := 0
		truncated := false

		for rowIndex, row := range rows {
			if cellCount >= maxCellsPerSheet {
				truncated = true
				break
			}
			for colIndex, cell := range row {
				if cellCount >= maxCellsPerSheet {
					truncated = true
					break
				}
				text := strings.TrimSpace(cell)
				if text == "" {
					continue
				}
				ref := fmt.Sprintf("%s%d", columnLetter(colIndex), rowIndex+1)
				sb.WriteString(ref)
				sb.WriteString(": ")
				sb.WriteString(text)
				sb.WriteString("\n")
				cellCount++
			}
		}

		if truncated {
			slog.Warn("table ingest: sheet truncated at cell cap", "sheet", sheetName, "max_cells", maxCellsPerSheet)
		}

		sheetText := strings.TrimSpace(sb.String())
		if sheetText == "" {
			continue
		}

		elements = append(elements, Element{
			Text:        sheetText,
			ElementType: "table_sheet",
			SectionPath: sheetName,
		})
		texts = append(texts, fmt.Sprintf("--- Sheet: %s ---\n%s", sheetName, sheetText))
	}

	return strings.Join(texts, "\n\n"), elements, nil
}

func columnLetter(index int) string {
	result := ""
	for {
		result = string(rune('A'+index%26)) + result
		index = index/26 - 1
		if index < 0 {
			break
		}
	}
	return result
}
