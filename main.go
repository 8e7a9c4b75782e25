package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"yashubustudio/photoscore/photoscore"
)

// defaultScore is shown when the scorer reports a failure. The scorer never
// fabricates scores itself; substitution happens at this boundary.
const defaultScore = 70.0

var imageFilter = []string{".jpg", ".jpeg", ".png", ".gif"}

func main() {
	fyneApp := app.NewWithID("yashubustudio.photoscore")
	win := fyneApp.NewWindow("PhotoScore (撮影スポット採点)")
	win.Resize(fyne.NewSize(1024, 700))

	cfg, err := photoscore.LoadConfig("")
	if err != nil {
		showFatalError(win, fmt.Errorf("設定の読み込みに失敗しました: %w", err))
		return
	}

	loggerBinding := binding.NewString()
	logCapture := newLogCapture(loggerBinding, 300)
	logger := log.New(io.MultiWriter(os.Stdout, logCapture), "", log.LstdFlags)

	ctx := context.Background()
	scorer, err := photoscore.Shared(ctx, cfg, logger)
	if err != nil {
		logCapture.Write([]byte(fmt.Sprintf("[ERROR] %v\n", err)))
		showFatalError(win, fmt.Errorf("採点エンジンの初期化に失敗しました: %w", err))
		return
	}
	defer scorer.Close()

	var selectedPath string
	pathLabel := widget.NewLabel("画像未選択")
	preview := canvas.NewImageFromFile("")
	preview.FillMode = canvas.ImageFillContain
	preview.SetMinSize(fyne.NewSize(380, 280))

	categoryOptions := make([]string, 0, len(photoscore.Categories()))
	for _, c := range photoscore.Categories() {
		categoryOptions = append(categoryOptions, string(c))
	}
	categorySelect := widget.NewSelect(categoryOptions, nil)
	categorySelect.SetSelected(string(photoscore.CategoryOther))

	scoreLabel := widget.NewLabelWithStyle("-", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	methodLabel := widget.NewLabel("")
	statusLabel := widget.NewLabel("準備完了")

	var tableData [][]string
	breakdownTable := widget.NewTable(
		func() (int, int) {
			if len(tableData) == 0 {
				return 0, 0
			}
			return len(tableData), len(tableData[0])
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("")
		},
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			if len(tableData) == 0 || id.Row >= len(tableData) || id.Col >= len(tableData[id.Row]) {
				return
			}
			label := obj.(*widget.Label)
			label.SetText(tableData[id.Row][id.Col])
			if id.Row == 0 {
				label.TextStyle = fyne.TextStyle{Bold: true}
			} else {
				label.TextStyle = fyne.TextStyle{}
			}
		},
	)

	showResult := func(ev photoscore.Evaluation) {
		tableData = buildBreakdownData(ev)
		fyne.Do(func() {
			breakdownTable.SetColumnWidth(0, 200)
			breakdownTable.SetColumnWidth(1, 140)
			breakdownTable.Refresh()
			scoreLabel.SetText(fmt.Sprintf("%.1f", ev.Score))
			methodLabel.SetText(ev.Method)
		})
	}

	pickBtn := widget.NewButton("画像を選択", func() {
		fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil {
				showError(win, err)
				return
			}
			if rc == nil {
				return
			}
			defer rc.Close()
			selectedPath = rc.URI().Path()
			pathLabel.SetText(selectedPath)
			preview.File = selectedPath
			preview.Refresh()
		}, win)
		fd.SetFilter(storage.NewExtensionFileFilter(imageFilter))
		fd.Show()
	})

	var evaluateBtn *widget.Button
	evaluateBtn = widget.NewButton("採点実行", func() {
		if selectedPath == "" {
			showError(win, fmt.Errorf("画像が選択されていません"))
			return
		}
		category := photoscore.ParseCategory(categorySelect.Selected)
		evaluateBtn.Disable()
		statusLabel.SetText("推論中...")
		go func(path string, cat photoscore.Category) {
			start := time.Now()
			ev, evalErr := scorer.Evaluate(ctx, path, cat)
			elapsed := time.Since(start)
			if evalErr != nil {
				logger.Printf("評価に失敗しました (%s): %v", path, evalErr)
				ev = photoscore.Evaluation{
					Score:     defaultScore,
					Breakdown: photoscore.Breakdown{Note: evalErr.Error()},
					Method:    "fallback",
				}
				fyne.Do(func() {
					showError(win, evalErr)
				})
			}
			showResult(ev)
			fyne.Do(func() {
				evaluateBtn.Enable()
				statusLabel.SetText(fmt.Sprintf("%.2fs", elapsed.Seconds()))
			})
		}(selectedPath, category)
	})

	logLabel := widget.NewLabelWithData(loggerBinding)
	logLabel.Wrapping = fyne.TextWrapWord
	logContainer := container.NewVScroll(logLabel)
	logContainer.SetMinSize(fyne.NewSize(200, 120))

	controls := container.NewVBox(
		container.NewHBox(pickBtn, pathLabel),
		preview,
		container.NewHBox(widget.NewLabel("カテゴリ"), categorySelect, evaluateBtn, statusLabel),
		widget.NewSeparator(),
		container.NewHBox(widget.NewLabel("スコア"), scoreLabel, methodLabel),
	)

	right := container.NewVSplit(
		breakdownTable,
		container.NewVBox(widget.NewLabel("ログ"), logContainer),
	)
	right.Offset = 0.7

	root := container.NewHSplit(controls, right)
	root.Offset = 0.45
	win.SetContent(root)

	win.ShowAndRun()
}

func buildBreakdownData(ev photoscore.Evaluation) [][]string {
	data := [][]string{{"項目", "値"}}
	add := func(label string, value string) {
		data = append(data, []string{label, value})
	}
	addRaw := func(label string, value float64) {
		if value != 0 {
			add(label, fmt.Sprintf("%.3f", value))
		}
	}
	add("スコア", fmt.Sprintf("%.1f", ev.Score))
	addRaw("基礎品質 (raw)", ev.Breakdown.UniversalRaw)
	if ev.Breakdown.UniversalScaled != 0 {
		add("基礎品質 (scaled)", fmt.Sprintf("%.1f", ev.Breakdown.UniversalScaled))
	}
	addRaw("技術 (raw)", ev.Breakdown.TechnicalRaw)
	addRaw("構図 (raw)", ev.Breakdown.CompositionRaw)
	addRaw("光 (raw)", ev.Breakdown.LightingRaw)
	addRaw("カテゴリ (raw)", ev.Breakdown.CategoryRaw)
	addRaw("ネガティブ (raw)", ev.Breakdown.NegativeRaw)
	addRaw("重み付き生スコア", ev.Breakdown.WeightedRaw)
	if ev.Breakdown.NegativePenalty > 0 {
		add("ネガティブペナルティ", fmt.Sprintf("%.2f", ev.Breakdown.NegativePenalty))
	}
	if ev.Breakdown.Tier != "" {
		add("判定", string(ev.Breakdown.Tier))
	}
	if ev.Breakdown.Note != "" {
		add("備考", ev.Breakdown.Note)
	}
	return data
}

func showFatalError(win fyne.Window, err error) {
	content := widget.NewLabel(err.Error())
	win.SetContent(content)
	dialog.ShowError(err, win)
	win.ShowAndRun()
}

func showError(win fyne.Window, err error) {
	if err != nil {
		dialog.ShowError(err, win)
	}
}

type logCapture struct {
	mu      sync.Mutex
	lines   []string
	limit   int
	binding binding.String
}

func newLogCapture(b binding.String, limit int) *logCapture {
	return &logCapture{binding: b, limit: limit}
}

func (l *logCapture) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	text := string(p)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n")
	for _, part := range parts {
		if part == "" {
			continue
		}
		l.lines = append(l.lines, part)
	}
	if len(l.lines) > l.limit {
		l.lines = l.lines[len(l.lines)-l.limit:]
	}
	if l.binding != nil {
		_ = l.binding.Set(strings.Join(l.lines, "\n"))
	}
	return len(p), nil
}
