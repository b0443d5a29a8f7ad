package collector

import (
	"fmt"
	"runtime"
)

// MetadataFileName is written to the output directory when a run ends.
const MetadataFileName = "metadata.json"

// Metadata is the machine-readable record of a run.
type Metadata struct {
	RunID          string            `json:"runId"`
	ProjectName    string            `json:"projectName"`
	Mode           string            `json:"mode"`
	CollectedAt    string            `json:"collectedAt"`
	StartedAt      string            `json:"startedAt"`
	Timezone       string            `json:"timezone"`
	ToolVersion    string            `json:"toolVersion"`
	Platform       string            `json:"platform"`
	GoVersion      string            `json:"goVersion"`
	Driver         string            `json:"driver"`
	LogFile        string            `json:"logFile"`
	TotalPages     int               `json:"totalPages"`
	CollectedPages []PageRecord      `json:"collectedPages"`
	Recordings     []RecordingRecord `json:"recordings"`
	Downloads      []DownloadRecord  `json:"downloads,omitempty"`
	Errors         []ErrorRecord     `json:"errors"`
}

// PageRecord describes one captured page.
type PageRecord struct {
	Name          string        `json:"name"`
	URL           string        `json:"url"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	CollectedAt   string        `json:"collectedAt"`
	Files         PageFiles     `json:"files"`
	IframeCount   int           `json:"iframeCount"`
	ElementCounts ElementCounts `json:"elementCounts"`
}

// PageFiles names the artifacts written for a page, relative to their
// subdirectory. Empty means not captured.
type PageFiles struct {
	AriaSnapshot string `json:"ariaSnapshot,omitempty"`
	Screenshot   string `json:"screenshot,omitempty"`
	HTMLSource   string `json:"htmlSource,omitempty"`
}

// ElementCounts summarises interactive elements on a page.
type ElementCounts struct {
	Buttons int `json:"buttons"`
	Links   int `json:"links"`
	Inputs  int `json:"inputs"`
	Tables  int `json:"tables"`
	Forms   int `json:"forms"`
}

// RecordingRecord describes a codegen recording.
type RecordingRecord struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	File        string `json:"file"`
	RecordedAt  string `json:"recordedAt"`
	// Redactions is the number of literals replaced by placeholders.
	Redactions int `json:"redactions"`
}

// DownloadRecord describes a file saved by a download action.
type DownloadRecord struct {
	Page  string `json:"page"`
	File  string `json:"file"`
	Bytes int64  `json:"bytes"`
	// PDFPages is set for valid PDF files.
	PDFPages int `json:"pdfPages,omitempty"`
}

// ErrorRecord is a failure that did not stop the run.
type ErrorRecord struct {
	Page      string `json:"page"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

func platform() string {
	return fmt.Sprintf("%s-%s", runtime.GOOS, runtime.GOARCH)
}
