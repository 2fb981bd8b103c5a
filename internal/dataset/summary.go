package dataset

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"call-compliance-go/internal/aggregator"
	"call-compliance-go/internal/logger"
	"call-compliance-go/internal/types"
)

type CampaignSummary struct {
	Calls        int     `json:"calls"`
	AutoFailed   int     `json:"auto_failed"`
	AverageScore float64 `json:"average_score"`
}

// Summary is the batch-level roll-up written to the report.
type Summary struct {
	TotalCalls   int                        `json:"total_calls"`
	Evaluated    int                        `json:"evaluated"`
	Errors       int                        `json:"errors"`
	AutoFailed   int                        `json:"auto_failed"`
	AverageScore float64                    `json:"average_score"`
	ByCampaign   map[string]CampaignSummary `json:"by_campaign"`
}

func Summarize(results []types.CallResult) Summary {
	s := Summary{TotalCalls: len(results), ByCampaign: map[string]CampaignSummary{}}
	sums := map[string]int{}
	total := 0
	for _, cr := range results {
		if cr.Error != "" {
			s.Errors++
		}
		r := cr.Result
		if r == nil {
			continue
		}
		s.Evaluated++
		total += r.ComplianceScore
		cs := s.ByCampaign[r.Campaign]
		cs.Calls++
		if r.AutoFailTriggered {
			s.AutoFailed++
			cs.AutoFailed++
		}
		sums[r.Campaign] += r.ComplianceScore
		s.ByCampaign[r.Campaign] = cs
	}
	for c, cs := range s.ByCampaign {
		cs.AverageScore = avg(sums[c], cs.Calls)
		s.ByCampaign[c] = cs
	}
	s.AverageScore = avg(total, s.Evaluated)
	return s
}

func avg(sum, n int) float64 {
	if n == 0 {
		return 0
	}
	return math.Round(float64(sum)/float64(n)*10) / 10
}

const (
	resultsSheet    = "Results"
	summarySheet    = "Summary"
	violationsSheet = "Violations"
)

var resultsHeader = []interface{}{
	"Recording ID", "Job ID", "Campaign", "Compliance Score", "Auto Fail", "Auto Fail Codes",
	"Warnings", "Script Adherence", "Duration (ms)", "Error",
}

// WriteReport writes per-call results, the batch summary and violation
// frequencies to a new workbook at path.
func WriteReport(path string, results []types.CallResult) error {
	log := logger.New().Component("dataset.report").WithField("path", path)
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(resultsSheet, "A1", &resultsHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, cr := range results {
		row := []interface{}{cr.RecordingID, cr.JobID, "", "", "", "", "", "", cr.DurationMs, cr.Error}
		if r := cr.Result; r != nil {
			row[2] = r.Campaign
			row[3] = r.ComplianceScore
			row[4] = r.AutoFailTriggered
			row[5] = joinCodes(r.AutoFailReasons)
			row[6] = joinCodes(r.ComplianceWarnings)
			row[7] = r.ScriptAdherence.Level
		}
		if err := f.SetSheetRow(resultsSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("add summary sheet: %w", err)
	}
	s := Summarize(results)
	summary := [][]interface{}{
		{"Total Calls", s.TotalCalls},
		{"Evaluated", s.Evaluated},
		{"Errors", s.Errors},
		{"Auto Failed", s.AutoFailed},
		{"Average Score", s.AverageScore},
		{},
		{"Campaign", "Calls", "Auto Failed", "Average Score"},
	}
	campaigns := make([]string, 0, len(s.ByCampaign))
	for c := range s.ByCampaign {
		campaigns = append(campaigns, c)
	}
	sort.Strings(campaigns)
	for _, c := range campaigns {
		cs := s.ByCampaign[c]
		summary = append(summary, []interface{}{c, cs.Calls, cs.AutoFailed, cs.AverageScore})
	}
	if err := writeRows(f, summarySheet, summary); err != nil {
		return err
	}

	if _, err := f.NewSheet(violationsSheet); err != nil {
		return fmt.Errorf("add violations sheet: %w", err)
	}
	ins := aggregator.Aggregate(results)
	vrows := [][]interface{}{{"Code", "Severity", "Calls"}}
	for _, r := range aggregator.Top(ins.ViolationCounts, 0) {
		vrows = append(vrows, []interface{}{r.Label, string(types.SeverityCritical), r.Count})
	}
	for _, r := range aggregator.Top(ins.WarningCounts, 0) {
		vrows = append(vrows, []interface{}{r.Label, string(types.SeverityWarning), r.Count})
	}
	if err := writeRows(f, violationsSheet, vrows); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		log.WithError(err).Error("save failed")
		return fmt.Errorf("save report: %w", err)
	}
	log.WithField("calls", len(results)).Info("report written")
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i := range rows {
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+1), &rows[i]); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func joinCodes(vs []types.Violation) string {
	codes := make([]string, 0, len(vs))
	for _, v := range vs {
		codes = append(codes, v.Code)
	}
	return strings.Join(codes, ", ")
}
