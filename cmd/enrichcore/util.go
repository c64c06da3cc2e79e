package main

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/foliolegal/enrichcore/pkg/job"
)

func generateJobID() string {
	return uuid.NewString()
}

// detectFormat guesses a job.Format from a file extension, for CLI
// convenience when --format isn't passed explicitly.
func detectFormat(path string) job.Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return job.FormatPDF
	case ".htm", ".html":
		return job.FormatHTML
	case ".md", ".markdown":
		return job.FormatMarkdown
	case ".doc", ".docx":
		return job.FormatWord
	case ".rtf":
		return job.FormatRTF
	case ".eml":
		return job.FormatEmail
	case ".xlsx", ".xls", ".csv":
		return job.FormatTable
	default:
		return job.FormatText
	}
}
