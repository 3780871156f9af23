package reports

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/finsightio/finsight_backend/models"
	"github.com/xuri/excelize/v2"
)

// BuildReportWorkbook assembles the export workbook: one sheet per section,
// mirroring the spreadsheet the web client used to build.
func BuildReportWorkbook(data *models.ReportData) (*excelize.File, error) {
	f := excelize.NewFile()

	const companiesSheet = "Companies"
	if err := f.SetSheetName("Sheet1", companiesSheet); err != nil {
		return nil, err
	}
	f.SetCellValue(companiesSheet, "A1", "Name")
	f.SetCellValue(companiesSheet, "B1", "Industry")
	for i, c := range data.Companies {
		f.SetCellValue(companiesSheet, "A"+fmt.Sprint(i+2), c.Name)
		f.SetCellValue(companiesSheet, "B"+fmt.Sprint(i+2), c.Industry)
	}

	const metricsSheet = "Financial Metrics"
	if _, err := f.NewSheet(metricsSheet); err != nil {
		return nil, err
	}
	f.SetCellValue(metricsSheet, "A1", "Company")
	f.SetCellValue(metricsSheet, "B1", "Year")
	f.SetCellValue(metricsSheet, "C1", "Period")
	f.SetCellValue(metricsSheet, "D1", "Metric")
	f.SetCellValue(metricsSheet, "E1", "Value")
	f.SetCellValue(metricsSheet, "F1", "Category")
	for i, m := range data.Metrics {
		row := fmt.Sprint(i + 2)
		f.SetCellValue(metricsSheet, "A"+row, m.CompanyName)
		f.SetCellValue(metricsSheet, "B"+row, m.Year)
		f.SetCellValue(metricsSheet, "C"+row, models.PeriodLabel(m.Quarter))
		f.SetCellValue(metricsSheet, "D"+row, m.MetricName)
		f.SetCellValue(metricsSheet, "E"+row, m.MetricValue.InexactFloat64())
		f.SetCellValue(metricsSheet, "F"+row, m.MetricCategory)
	}

	if data.Inconsistencies != nil {
		const issuesSheet = "Inconsistencies"
		if _, err := f.NewSheet(issuesSheet); err != nil {
			return nil, err
		}
		f.SetCellValue(issuesSheet, "A1", "Company")
		f.SetCellValue(issuesSheet, "B1", "Year")
		f.SetCellValue(issuesSheet, "C1", "Type")
		f.SetCellValue(issuesSheet, "D1", "Severity")
		f.SetCellValue(issuesSheet, "E1", "Description")
		for i, issue := range data.Inconsistencies {
			row := fmt.Sprint(i + 2)
			f.SetCellValue(issuesSheet, "A"+row, issue.CompanyName)
			f.SetCellValue(issuesSheet, "B"+row, issue.Year)
			f.SetCellValue(issuesSheet, "C"+row, issue.InconsistencyType)
			f.SetCellValue(issuesSheet, "D"+row, string(issue.Severity))
			f.SetCellValue(issuesSheet, "E"+row, issue.Description)
		}
	}

	return f, nil
}

// WriteReportCSV writes the metrics section as CSV, the export format for
// callers that want a flat file instead of a workbook.
func WriteReportCSV(w io.Writer, data *models.ReportData) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"company", "year", "period", "metric_name", "metric_value", "metric_category"}); err != nil {
		return err
	}
	for _, m := range data.Metrics {
		record := []string{
			m.CompanyName,
			fmt.Sprint(m.Year),
			models.PeriodLabel(m.Quarter),
			m.MetricName,
			m.MetricValue.String(),
			m.MetricCategory,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
