package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"yashubustudio/objectlens/detection"
)

const windowTitle = "Object Detection with YOLOv5"

type uiState struct {
	ctrl   *Controller
	logger *zap.Logger

	w           fyne.Window
	preview     *canvas.Image
	classes     *widget.Entry
	log         *widget.Entry
	status      *widget.Label
	statusBind  binding.String
	uploadBtn   *widget.Button
	downloadBtn *widget.Button
}

func buildUI(a fyne.App, ctrl *Controller, logBind binding.String, logger *zap.Logger) *uiState {
	u := &uiState{ctrl: ctrl, logger: logger}
	u.w = a.NewWindow(windowTitle)

	u.statusBind = binding.NewString()
	_ = u.statusBind.Set("Ready")
	u.status = widget.NewLabelWithData(u.statusBind)

	u.uploadBtn = widget.NewButtonWithIcon("Upload Image", theme.FolderOpenIcon(), func() { u.onUpload() })
	u.downloadBtn = widget.NewButtonWithIcon("Download Image", theme.DocumentSaveIcon(), func() { u.onDownload() })

	u.preview = canvas.NewImageFromImage(nil)
	u.preview.FillMode = canvas.ImageFillContain
	u.preview.SetMinSize(fyne.NewSize(previewSize, previewSize))

	u.classes = widget.NewMultiLineEntry()
	u.classes.Wrapping = fyne.TextWrapWord
	u.classes.SetText(detection.FormatClassList(nil))
	u.classes.Disable()

	u.log = widget.NewEntryWithData(logBind)
	u.log.MultiLine = true
	u.log.Wrapping = fyne.TextWrapWord
	u.log.SetPlaceHolder("Log")
	u.log.Disable()

	buttons := container.NewGridWithColumns(2, u.uploadBtn, u.downloadBtn)
	body := container.NewHSplit(u.preview, u.classes)
	body.Offset = 0.7
	top := container.NewVBox(buttons, u.status)
	content := container.NewVSplit(container.NewBorder(top, nil, nil, nil, body), u.log)
	content.Offset = 0.8

	u.w.SetContent(content)
	u.w.Resize(fyne.NewSize(600, 600))
	return u
}

func (u *uiState) setBusy(b bool) {
	fyne.Do(func() {
		if b {
			u.uploadBtn.Disable()
			u.downloadBtn.Disable()
		} else {
			u.uploadBtn.Enable()
			u.downloadBtn.Enable()
		}
	})
}

func (u *uiState) setStatus(text string) {
	_ = u.statusBind.Set(text)
}

func (u *uiState) showError(err error) {
	fyne.Do(func() {
		dialog.ShowError(err, u.w)
	})
}

func (u *uiState) onUpload() {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			u.showError(err)
			return
		}
		if rc == nil {
			return
		}
		path := rc.URI().Path()
		_ = rc.Close()
		u.process(path)
	}, u.w)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".jpg", ".jpeg", ".png"}))
	fd.Show()
}

func (u *uiState) process(path string) {
	u.setBusy(true)
	u.setStatus("Processing...")
	start := time.Now()

	go func() {
		defer u.setBusy(false)
		sess, err := u.ctrl.Upload(context.Background(), path)
		res := sess.Result
		if err != nil && !(errors.Is(err, detection.ErrCSVMissing) && res.Image != nil) {
			u.setStatus("Error")
			u.showError(err)
			return
		}

		thumb := thumbnail(res.Image)
		text := detection.FormatClassList(res.Set)
		elapsed := time.Since(start).Seconds()
		fyne.Do(func() {
			u.preview.Image = thumb
			u.preview.Refresh()
			u.classes.SetText(text)
			switch {
			case err != nil:
				dialog.ShowInformation("Warning", fmt.Sprintf("Bounding box details CSV not found for %s.", res.Name), u.w)
			case res.Cached:
				dialog.ShowInformation("Info", fmt.Sprintf("Using cached result for %s.", res.Name), u.w)
			}
		})
		if res.Cached {
			u.setStatus(fmt.Sprintf("Loaded cached %s (%.1fs)", res.Name, elapsed))
		} else {
			u.setStatus(fmt.Sprintf("Detected %d objects in %s (%.1fs)", len(res.Set), res.Name, elapsed))
		}
	}()
}

func (u *uiState) onDownload() {
	if err := u.ctrl.DownloadReady(); err != nil {
		u.logger.Warn("download unavailable", zap.Error(err))
		dialog.ShowError(err, u.w)
		return
	}
	sess, _ := u.ctrl.Current()
	fd := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		if uc == nil {
			dialog.ShowInformation("Warning", "No file path selected.", u.w)
			return
		}
		dest := uc.URI()
		exportErr := u.ctrl.Export(uc, dest.Path())
		closeErr := uc.Close()
		if err := errors.Join(exportErr, closeErr); err != nil {
			_ = storage.Delete(dest)
			u.logger.Error("export failed", zap.String("dest", dest.Path()), zap.Error(err))
			dialog.ShowError(err, u.w)
			return
		}
		u.setStatus(fmt.Sprintf("Saved %s", dest.Name()))
	}, u.w)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".jpg", ".png"}))
	fd.SetFileName(sess.Filename)
	fd.Show()
}
