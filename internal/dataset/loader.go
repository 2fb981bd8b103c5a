package dataset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"call-compliance-go/internal/logger"
	"call-compliance-go/internal/types"
)

var ErrNoData = errors.New("dataset: no data rows")

type columns struct {
	recording, job, product, transcript, audio int
}

// detectColumns maps header cells to fields by keyword.
func detectColumns(header []string) columns {
	c := columns{-1, -1, -1, -1, -1}
	set := func(p *int, i int) {
		if *p == -1 {
			*p = i
		}
	}
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "transcript") || l == "text":
			set(&c.transcript, i)
		case strings.Contains(l, "audio") || strings.Contains(l, "url") || strings.Contains(l, "link"):
			set(&c.audio, i)
		case strings.Contains(l, "job"):
			set(&c.job, i)
		case strings.Contains(l, "product") || strings.Contains(l, "campaign") || strings.Contains(l, "type"):
			set(&c.product, i)
		case strings.Contains(l, "recording") || strings.Contains(l, "call id") || strings.Contains(l, "callid") || l == "id":
			set(&c.recording, i)
		}
	}
	return c
}

func cell(r []string, i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[i])
}

// Load reads call jobs from the first sheet. Rows with neither a transcript
// nor an audio URL are skipped.
func Load(path string) ([]types.CallJob, error) {
	log := logger.New().Component("dataset.loader").WithField("path", path)
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets: %w", ErrNoData)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, ErrNoData
	}
	cols := detectColumns(rows[0])
	log.WithFields(map[string]interface{}{
		"recordingIdx":  cols.recording,
		"productIdx":    cols.product,
		"transcriptIdx": cols.transcript,
		"audioIdx":      cols.audio,
	}).Debug("detected column indices")

	var out []types.CallJob
	skipped := 0
	for i, r := range rows[1:] {
		job := types.CallJob{
			RecordingID: cell(r, cols.recording),
			JobID:       cell(r, cols.job),
			ProductType: cell(r, cols.product),
			Transcript:  cell(r, cols.transcript),
			AudioURL:    cell(r, cols.audio),
		}
		if job.Transcript == "" && !isURL(job.AudioURL) {
			skipped++
			continue
		}
		if job.RecordingID == "" {
			job.RecordingID = fmt.Sprintf("row-%d", i+2)
		}
		out = append(out, job)
	}
	log.WithField("jobs", len(out)).WithField("skipped", skipped).Info("dataset loaded")
	if len(out) == 0 {
		return nil, ErrNoData
	}
	return out, nil
}

func isURL(s string) bool {
	l := strings.ToLower(s)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}
