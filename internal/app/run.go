package app

import (
	"fmt"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"yashubustudio/objectlens/detection"
	"yashubustudio/objectlens/internal/logging"
)

const fyneAppID = "studio.yashubu.objectlens"

// Run loads configuration, builds the pipeline and starts the desktop UI.
func Run() error {
	a := fyneapp.NewWithID(fyneAppID)
	logBind := binding.NewString()
	capture := newLogCapture(logBind, logLineLimit)

	pipe, store, logger, err := setup(capture)
	if err != nil {
		showFatalError(a, err)
		return err
	}
	defer logging.Sync()
	defer func() {
		if err := pipe.Close(); err != nil {
			logger.Warn("close detector", zap.Error(err))
		}
	}()

	ctrl := NewController(pipe, store, logger)
	u := buildUI(a, ctrl, logBind, logger)
	u.w.ShowAndRun()
	return nil
}

func setup(capture *logCapture) (*detection.Pipeline, *detection.Store, *zap.Logger, error) {
	if err := detection.LoadEnvFile(""); err != nil {
		return nil, nil, nil, err
	}
	cfg, err := detection.LoadConfig("")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Log.Mode, capture)
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := detection.NewStore(cfg.Layout, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	style, err := detection.StyleFromConfig(cfg.Annotate)
	if err != nil {
		return nil, nil, nil, err
	}
	det, err := detection.NewDetector(cfg.Detector, logger)
	if err != nil {
		logger.Error("detector init failed", zap.Error(err))
		return nil, nil, nil, fmt.Errorf("init detector: %w", err)
	}
	pipe, err := detection.NewPipeline(det, store, style, logger)
	if err != nil {
		_ = det.Close()
		return nil, nil, nil, err
	}
	return pipe, store, logger, nil
}

func showFatalError(a fyne.App, err error) {
	w := a.NewWindow(windowTitle)
	label := widget.NewLabel(err.Error())
	label.Wrapping = fyne.TextWrapWord
	w.SetContent(label)
	w.Resize(fyne.NewSize(600, 200))
	dialog.ShowError(err, w)
	w.ShowAndRun()
}
