package services

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"erp-helpdesk-assistant/internal/ingest"
	"erp-helpdesk-assistant/internal/logger"

	"github.com/xuri/excelize/v2"
)

const (
	chunksSheet  = "Chunks"
	summarySheet = "Summary"
	// excel rejects longer cell values
	maxCellChars = 32767
)

// IngestionReport is the exportable view of one reindex run.
type IngestionReport struct {
	RunID          string        `json:"run_id"`
	GeneratedAt    time.Time     `json:"generated_at"`
	Duration       string        `json:"duration"`
	ModulesFound   int           `json:"modules_found"`
	SkippedModules []string      `json:"skipped_modules"`
	Indexed        int           `json:"indexed"`
	Chunks         []ChunkExport `json:"chunks"`
	Summary        ReportSummary `json:"summary"`
}

type ChunkExport struct {
	Index      int    `json:"index"`
	ModuleName string `json:"module_name"`
	Characters int    `json:"characters"`
	Text       string `json:"text"`
}

type ModuleCount struct {
	Module string `json:"module"`
	Chunks int    `json:"chunks"`
}

type ReportSummary struct {
	TotalChunks     int           `json:"total_chunks"`
	TotalCharacters int           `json:"total_characters"`
	AvgChunkChars   float64       `json:"avg_chunk_chars"`
	ChunksPerModule []ModuleCount `json:"chunks_per_module"`
}

// NewIngestionReport summarises an ingestion result.
func NewIngestionReport(res *ingest.Result) *IngestionReport {
	report := &IngestionReport{
		RunID:          res.RunID,
		GeneratedAt:    time.Now().UTC(),
		Duration:       res.Duration.Round(time.Millisecond).String(),
		ModulesFound:   res.ModulesFound,
		SkippedModules: res.SkippedModules,
		Indexed:        res.Indexed,
	}

	perModule := map[string]int{}
	var order []string
	for i, c := range res.Chunks {
		text := c.Text()
		n := utf8.RuneCountInString(text)
		report.Chunks = append(report.Chunks, ChunkExport{
			Index:      i,
			ModuleName: c.ModuleName,
			Characters: n,
			Text:       text,
		})
		report.Summary.TotalCharacters += n
		if _, seen := perModule[c.ModuleName]; !seen {
			order = append(order, c.ModuleName)
		}
		perModule[c.ModuleName]++
	}

	report.Summary.TotalChunks = len(res.Chunks)
	if len(res.Chunks) > 0 {
		report.Summary.AvgChunkChars = float64(report.Summary.TotalCharacters) / float64(len(res.Chunks))
	}
	for _, m := range order {
		report.Summary.ChunksPerModule = append(report.Summary.ChunksPerModule, ModuleCount{Module: m, Chunks: perModule[m]})
	}
	return report
}

// WriteJSON writes the report as indented JSON.
func (r *IngestionReport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}

// WriteExcel writes a workbook with a Chunks sheet and a Summary sheet.
func (r *IngestionReport) WriteExcel(w io.Writer) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("Error closing Excel file", "error", err)
		}
	}()

	index, err := f.NewSheet(chunksSheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	headers := []string{"#", "Module", "Characters", "Text"}
	for i, header := range headers {
		f.SetCellValue(chunksSheet, fmt.Sprintf("%c1", 'A'+i), header)
	}

	for i, c := range r.Chunks {
		row := i + 2
		f.SetCellValue(chunksSheet, fmt.Sprintf("A%d", row), c.Index)
		f.SetCellValue(chunksSheet, fmt.Sprintf("B%d", row), c.ModuleName)
		f.SetCellValue(chunksSheet, fmt.Sprintf("C%d", row), c.Characters)
		f.SetCellValue(chunksSheet, fmt.Sprintf("D%d", row), truncateCell(c.Text))
	}

	f.SetColWidth(chunksSheet, "A", "A", 6)
	f.SetColWidth(chunksSheet, "B", "B", 24)
	f.SetColWidth(chunksSheet, "C", "C", 12)
	f.SetColWidth(chunksSheet, "D", "D", 100)

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	skipped := ""
	for i, id := range r.SkippedModules {
		if i > 0 {
			skipped += ", "
		}
		skipped += id
	}

	summaryData := [][]interface{}{
		{"Run ID", r.RunID},
		{"Generated At", r.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Duration", r.Duration},
		{"Modules Found", r.ModulesFound},
		{"Modules Skipped", len(r.SkippedModules)},
		{"Skipped Module IDs", skipped},
		{"Chunks Collected", r.Summary.TotalChunks},
		{"Chunks Indexed", r.Indexed},
		{"Total Characters", r.Summary.TotalCharacters},
		{"Avg Chunk Characters", fmt.Sprintf("%.2f", r.Summary.AvgChunkChars)},
	}
	for i, row := range summaryData {
		for j, cell := range row {
			f.SetCellValue(summarySheet, fmt.Sprintf("%c%d", 'A'+j, i+1), cell)
		}
	}

	if len(r.Summary.ChunksPerModule) > 0 {
		row := len(summaryData) + 2
		f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), "Module")
		f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), "Chunks")
		row++
		for _, m := range r.Summary.ChunksPerModule {
			f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), m.Module)
			f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), m.Chunks)
			row++
		}
	}
	f.SetColWidth(summarySheet, "A", "A", 24)
	f.SetColWidth(summarySheet, "B", "B", 40)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	return nil
}

func truncateCell(s string) string {
	if utf8.RuneCountInString(s) <= maxCellChars {
		return s
	}
	return string([]rune(s)[:maxCellChars])
}
