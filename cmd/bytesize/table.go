package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/kikiluvv/bytesize/internal/index"
	"github.com/kikiluvv/bytesize/internal/pipeline"
	"github.com/kikiluvv/bytesize/internal/transcript"
	"github.com/kikiluvv/bytesize/pkg/util"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func span(start, end float64) string {
	return util.FormatSeconds(start) + " - " + util.FormatSeconds(end)
}

func baseName(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Base(path)
}

func reelsTable(res *pipeline.Result) string {
	rows := make([][]string, 0, len(res.Reels))
	for _, r := range res.Reels {
		output := r.Captioned
		if output == "" {
			output = r.Vertical
		}
		status := "ok"
		if r.Error != "" {
			status = r.Error
			output = ""
		}
		rows = append(rows, []string{
			strconv.Itoa(r.Index),
			span(r.Window.Start, r.Window.End),
			strconv.Itoa(len(r.Cues)),
			baseName(output),
			status,
		})
	}
	return renderTable(
		[]string{"#", "Window", "Cues", "Reel", "Status"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft},
	)
}

func peaksTable(peaks []float64) string {
	rows := make([][]string, 0, len(peaks))
	for i, p := range peaks {
		rows = append(rows, []string{strconv.Itoa(i + 1), util.FormatSeconds(p)})
	}
	return renderTable([]string{"#", "Peak"}, rows, []columnAlignment{alignRight, alignLeft})
}

func relevantTable(rel []transcript.RelevantSegment) string {
	rows := make([][]string, 0, len(rel))
	for _, r := range rel {
		rows = append(rows, []string{
			util.FormatSeconds(r.Peak),
			span(r.Start, r.End),
			strconv.Itoa(transcript.WordCount(r.Text)),
			r.Text,
		})
	}
	return renderTable(
		[]string{"Peak", "Segment", "Words", "Text"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func historyTable(runs []index.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			baseName(r.Input),
			string(r.Status),
			fmt.Sprintf("%d/%d", r.Reels-r.Failed, r.Reels),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String(),
			r.RunID,
		})
	}
	return renderTable(
		[]string{"Started", "Input", "Status", "Reels", "Took", "Run"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	)
}

func indexedReelsTable(reels []index.Reel) string {
	rows := make([][]string, 0, len(reels))
	for _, r := range reels {
		status := "ok"
		if r.Error != "" {
			status = r.Error
		}
		rows = append(rows, []string{
			strconv.Itoa(r.Index),
			span(r.Start, r.End),
			strconv.Itoa(r.Cues),
			r.Captioned,
			r.Poster,
			status,
		})
	}
	return renderTable(
		[]string{"#", "Window", "Cues", "Reel", "Poster", "Status"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
	)
}
