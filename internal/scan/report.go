package scan

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	reportHeaderMismatchTemplateConstant = "unexpected report header %q, expected %q"
	reportRowLengthTemplateConstant      = "report row %d has %d columns, expected %d"
	reportTimestampTemplateConstant      = "report row %d has an invalid scanned_at value: %w"
	reportReadErrorTemplateConstant      = "unable to read findings report: %w"
	reportWriteErrorTemplateConstant     = "unable to write findings report: %w"
)

var reportHeaderColumns = []string{"squad", "namespace", "application", "component", "check", "severity", "detail", "scanned_at"}

// ReportSchemaError reports a findings file whose layout does not match the report schema.
type ReportSchemaError struct {
	Message string
}

// Error describes the schema violation.
func (schemaError ReportSchemaError) Error() string {
	return schemaError.Message
}

// WriteReport renders findings as CSV with a fixed header.
func WriteReport(destination io.Writer, findings []Finding) error {
	csvWriter := csv.NewWriter(destination)
	if headerError := csvWriter.Write(reportHeaderColumns); headerError != nil {
		return fmt.Errorf(reportWriteErrorTemplateConstant, headerError)
	}
	for _, finding := range findings {
		row := []string{
			finding.Squad,
			finding.Namespace,
			finding.Application,
			finding.Component,
			finding.Check,
			string(finding.Severity),
			finding.Detail,
			finding.ScannedAt.UTC().Format(time.RFC3339),
		}
		if rowError := csvWriter.Write(row); rowError != nil {
			return fmt.Errorf(reportWriteErrorTemplateConstant, rowError)
		}
	}
	csvWriter.Flush()
	if flushError := csvWriter.Error(); flushError != nil {
		return fmt.Errorf(reportWriteErrorTemplateConstant, flushError)
	}
	return nil
}

// ReadReport parses a findings CSV produced by WriteReport.
func ReadReport(source io.Reader) ([]Finding, error) {
	csvReader := csv.NewReader(source)
	csvReader.FieldsPerRecord = -1

	rows, readError := csvReader.ReadAll()
	if readError != nil {
		return nil, fmt.Errorf(reportReadErrorTemplateConstant, readError)
	}
	if len(rows) == 0 {
		return nil, ReportSchemaError{Message: fmt.Sprintf(reportHeaderMismatchTemplateConstant, "", strings.Join(reportHeaderColumns, ","))}
	}
	if headerError := validateReportHeader(rows[0]); headerError != nil {
		return nil, headerError
	}

	findings := make([]Finding, 0, len(rows)-1)
	for rowIndex, row := range rows[1:] {
		if len(row) != len(reportHeaderColumns) {
			return nil, ReportSchemaError{Message: fmt.Sprintf(reportRowLengthTemplateConstant, rowIndex+1, len(row), len(reportHeaderColumns))}
		}
		scannedAt, timestampError := time.Parse(time.RFC3339, row[7])
		if timestampError != nil {
			return nil, fmt.Errorf(reportTimestampTemplateConstant, rowIndex+1, timestampError)
		}
		findings = append(findings, Finding{
			Squad:       row[0],
			Namespace:   row[1],
			Application: row[2],
			Component:   row[3],
			Check:       row[4],
			Severity:    Severity(row[5]),
			Detail:      row[6],
			ScannedAt:   scannedAt,
		})
	}
	return findings, nil
}

func validateReportHeader(headerRow []string) error {
	if len(headerRow) != len(reportHeaderColumns) {
		return ReportSchemaError{Message: fmt.Sprintf(reportHeaderMismatchTemplateConstant, strings.Join(headerRow, ","), strings.Join(reportHeaderColumns, ","))}
	}
	for columnIndex, columnName := range reportHeaderColumns {
		if headerRow[columnIndex] != columnName {
			return ReportSchemaError{Message: fmt.Sprintf(reportHeaderMismatchTemplateConstant, strings.Join(headerRow, ","), strings.Join(reportHeaderColumns, ","))}
		}
	}
	return nil
}
