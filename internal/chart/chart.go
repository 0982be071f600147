package chart

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Zarux/ticqtactoe/pkg/trainer"
)

// Render draws the outcome rates of every progress window as a line chart.
func Render(w io.Writer, title string, progress []trainer.Progress) error {
	if len(progress) == 0 {
		return fmt.Errorf("no training progress to plot")
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("%s regime, %d episodes", progress[0].Regime, progress[len(progress)-1].Episode),
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "rate",
			Min:  0,
			Max:  1,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	steps := make([]string, 0, len(progress))
	xWins := make([]opts.LineData, 0, len(progress))
	oWins := make([]opts.LineData, 0, len(progress))
	draws := make([]opts.LineData, 0, len(progress))
	for _, p := range progress {
		steps = append(steps, fmt.Sprintf("%d", p.Episode))
		xWins = append(xWins, opts.LineData{Value: p.XWinRate()})
		oWins = append(oWins, opts.LineData{Value: p.OWinRate()})
		draws = append(draws, opts.LineData{Value: p.DrawRate()})
	}

	line.SetXAxis(steps).
		AddSeries("X wins", xWins).
		AddSeries("O wins", oWins).
		AddSeries("draws", draws)

	page := components.NewPage()
	page.AddCharts(line)
	return page.Render(w)
}

func WriteFile(path, title string, progress []trainer.Progress) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create chart directory %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart %s: %w", path, err)
	}
	defer f.Close()

	if err := Render(f, title, progress); err != nil {
		return err
	}

	return f.Close()
}
