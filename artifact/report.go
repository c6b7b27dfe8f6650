package artifact

import (
	"fmt"
	"strings"
)

const (
	reportPrefix = "report-"
	reportSuffix = ".md"
)

// ReportID returns the artifact id of the report produced by run runID.
func ReportID(runID string) string {
	return reportPrefix + runID + reportSuffix
}

// IsReportID reports whether id names a research report.
func IsReportID(id string) bool {
	return strings.HasPrefix(id, reportPrefix) && strings.HasSuffix(id, reportSuffix) && len(id) > len(reportPrefix)+len(reportSuffix)
}

// RunIDFromReport extracts the run id from a report artifact id.
func RunIDFromReport(id string) (string, error) {
	if !IsReportID(id) {
		return "", fmt.Errorf("%q is not a report id", id)
	}
	return strings.TrimSuffix(strings.TrimPrefix(id, reportPrefix), reportSuffix), nil
}
