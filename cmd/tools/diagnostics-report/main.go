// Command diagnostics-report renders an offline HTML report from a
// base's trigger-event journal: a course-length histogram, a trigger
// timeline, and the sequence-number trace, so a field technician can
// sanity-check a run without a live video feed.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/slopevision/basesentry/internal/journal"
)

func main() {
	journalPath := flag.String("journal", "sensor_journal.db", "Path to the trigger-event journal SQLite database")
	outPath := flag.String("out", "diagnostics.html", "Path to write the rendered HTML report")
	limit := flag.Int("limit", 0, "Maximum number of recent events to include (0 = all)")
	flag.Parse()

	jr, err := journal.Open(*journalPath)
	if err != nil {
		log.Fatalf("failed to open journal %s: %v", *journalPath, err)
	}
	defer jr.Close()

	var events []journal.Event
	if *limit > 0 {
		events, err = jr.Recent(*limit)
		sort.Slice(events, func(i, j int) bool { return events[i].FiredAtUnixNanos < events[j].FiredAtUnixNanos })
	} else {
		events, err = jr.All()
	}
	if err != nil {
		log.Fatalf("failed to read journal events: %v", err)
	}
	if len(events) == 0 {
		log.Fatalf("journal %s has no trigger events to report on", *journalPath)
	}

	page := components.NewPage()
	page.PageTitle = "Base Sentry Diagnostics Report"
	page.AddCharts(
		courseLengthHistogram(events),
		triggerTimeline(events),
		sequenceTrace(events),
	)

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("failed to create report file %s: %v", *outPath, err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		log.Fatalf("failed to render report: %v", err)
	}
	log.Printf("wrote %s (%d events)", *outPath, len(events))
}

// courseLengthHistogram buckets fired course lengths into 10-unit-wide
// bins so a technician can eyeball whether triggers are clustering
// near the minimum course-length gate (a sign it's set too low).
func courseLengthHistogram(events []journal.Event) *charts.Bar {
	const bucketWidth = 10.0
	buckets := map[int]int{}
	for _, e := range events {
		buckets[int(e.CourseLength/bucketWidth)]++
	}

	keys := make([]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	labels := make([]string, 0, len(keys))
	values := make([]opts.BarData, 0, len(keys))
	for _, k := range keys {
		labels = append(labels, fmt.Sprintf("%.0f", float64(k)*bucketWidth))
		values = append(values, opts.BarData{Value: buckets[k]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Course Length Distribution", Theme: "dark"}),
		charts.WithTitleOpts(opts.Title{Title: "Course Length Distribution", Subtitle: fmt.Sprintf("%d fired events", len(events))}),
		charts.WithXAxisOpts(opts.XAxis{Name: "course length (px, bucketed)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "count"}),
	)
	bar.SetXAxis(labels).AddSeries("events", values)
	return bar
}

// triggerTimeline scatters every fired event against wall-clock time,
// split into new-crossing and repeat-crossing series, to make runs of
// repeats (a target lingering on the midline) visually obvious.
func triggerTimeline(events []journal.Event) *charts.Scatter {
	newData := make([]opts.ScatterData, 0, len(events))
	repeatData := make([]opts.ScatterData, 0)
	start := time.Unix(0, events[0].FiredAtUnixNanos)

	for _, e := range events {
		t := time.Unix(0, e.FiredAtUnixNanos)
		secs := t.Sub(start).Seconds()
		point := opts.ScatterData{Value: []interface{}{secs, e.Sequence}}
		if e.Kind == journal.KindNew {
			newData = append(newData, point)
		} else {
			repeatData = append(repeatData, point)
		}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Trigger Timeline", Theme: "dark"}),
		charts.WithTitleOpts(opts.Title{Title: "Trigger Timeline", Subtitle: "elapsed seconds vs sequence number"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "elapsed (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "sequence"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	scatter.AddSeries("new crossing", newData)
	scatter.AddSeries("repeat crossing", repeatData)
	return scatter
}

// sequenceTrace plots the raw sequence-number series in firing order,
// so a technician can spot an unexpected wraparound (every 64 new crossings)
// or a gap caused by a dropped trigger sink write.
func sequenceTrace(events []journal.Event) *charts.Line {
	labels := make([]string, len(events))
	values := make([]opts.LineData, len(events))
	for i, e := range events {
		labels[i] = fmt.Sprintf("%d", i)
		values[i] = opts.LineData{Value: e.Sequence}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Sequence Trace", Theme: "dark"}),
		charts.WithTitleOpts(opts.Title{Title: "Sequence Number Trace"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "fire order"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "sequence (mod 64)"}),
	)
	line.SetXAxis(labels).AddSeries("sequence", values)
	return line
}
