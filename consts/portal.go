package consts

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	// MaxAttachmentSize is the hard per-file limit enforced before encoding.
	MaxAttachmentSize = 5 * 1024 * 1024

	// RequestsPerPage is the fixed page size of every filtered view.
	RequestsPerPage = 10

	// PollInterval is the cadence of the background reconciliation fetch.
	PollInterval = 5 * time.Second
)

// Time-window keys accepted by the filter engine.
const (
	WINDOW_ALL   = "all"
	WINDOW_DAY   = "day"
	WINDOW_WEEK  = "week"
	WINDOW_MONTH = "month"
)

var AcceptedFileTypes map[string]string

var windowDurations map[string]time.Duration

func init() {
	AcceptedFileTypes = make(map[string]string)

	AcceptedFileTypes[".pdf"] = "application/pdf"
	AcceptedFileTypes[".doc"] = "application/msword"
	AcceptedFileTypes[".docx"] = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	AcceptedFileTypes[".xls"] = "application/vnd.ms-excel"
	AcceptedFileTypes[".xlsx"] = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	AcceptedFileTypes[".jpg"] = "image/jpeg"
	AcceptedFileTypes[".jpeg"] = "image/jpeg"
	AcceptedFileTypes[".png"] = "image/png"

	windowDurations = make(map[string]time.Duration)

	windowDurations[WINDOW_DAY] = 24 * time.Hour
	windowDurations[WINDOW_WEEK] = 7 * 24 * time.Hour
	windowDurations[WINDOW_MONTH] = 30 * 24 * time.Hour
}

// FileTypeByName - resolve the MIME type of a file name from its extension
func FileTypeByName(name string) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if mime, ok := AcceptedFileTypes[ext]; !ok {
		return "", fmt.Errorf("%s is not an accepted file type", ext)
	} else {
		return mime, nil
	}
}

// WindowDuration - convert a time-window key into its duration; the second
// return value is false for WINDOW_ALL and unknown keys, meaning no cutoff.
func WindowDuration(window string) (time.Duration, bool) {
	d, ok := windowDurations[window]
	return d, ok
}
