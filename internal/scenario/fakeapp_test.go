package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"strconv"
	"strings"

	"github.com/hazyhaar/flipcheck/internal/facade"
)

// fakeApp is an in-memory model of the converter page, answering probes
// by name. It implements facade.Page.
type fakeApp struct {
	navErr    error
	uploadErr error
	broken    map[string]bool // selectors whose click fails
	noApp     bool            // window.formatFlip missing

	auth     bool
	step     int
	files    []*fakeFile
	cur      int
	history  []fakeState
	hidx     int
	toast    string
	panel    string
	cropping bool
	pickMode bool
	lock     bool
	resizeW  string
	resizeH  string
	format   string
	quality  string
	help     bool
	helpTab  string
	urls     []string
}

type fakeState struct{ w, h, alpha int }

type fakeFile struct {
	name   string
	state  fakeState
	edited bool
	white  bool // corner pixel is white
}

func newFakeApp() *fakeApp { return &fakeApp{broken: map[string]bool{}} }

func (a *fakeApp) reset() {
	a.auth = true
	a.step = 1
	a.files = nil
	a.cur = 0
	a.history = nil
	a.hidx = 0
	a.toast = ""
	a.panel = ""
	a.cropping = false
	a.pickMode = false
	a.lock = true
	a.format = "png"
	a.quality = "90"
	a.help = false
	a.helpTab = "quickstart"
}

func (a *fakeApp) file() *fakeFile {
	if len(a.files) == 0 {
		return nil
	}
	return a.files[a.cur]
}

func (a *fakeApp) push(s fakeState) {
	f := a.file()
	if f == nil {
		return
	}
	f.state = s
	f.edited = true
	a.history = append(a.history[:a.hidx+1], s)
	a.hidx = len(a.history) - 1
}

func (a *fakeApp) undo() {
	if f := a.file(); f != nil && a.hidx > 0 {
		a.hidx--
		f.state = a.history[a.hidx]
	}
}

func (a *fakeApp) redo() {
	if f := a.file(); f != nil && a.hidx < len(a.history)-1 {
		a.hidx++
		f.state = a.history[a.hidx]
	}
}

func (a *fakeApp) show(i int) {
	a.cur = i
	a.history = []fakeState{a.files[i].state}
	a.hidx = 0
}

func (a *fakeApp) nextStep() {
	if a.step == 1 && len(a.files) == 0 {
		a.toast = "Please upload an image first"
		return
	}
	if a.step < 4 {
		a.step++
	}
}

func (a *fakeApp) Navigate(_ context.Context, url string) error {
	if a.navErr != nil {
		return a.navErr
	}
	a.urls = append(a.urls, url)
	a.reset()
	return nil
}

func (a *fakeApp) Click(_ context.Context, sel string) error {
	if a.broken[sel] {
		return errors.New("element not found: " + sel)
	}
	f := a.file()
	switch {
	case strings.HasPrefix(sel, `[data-tool="`):
		a.panel = strings.TrimSuffix(strings.TrimPrefix(sel, `[data-tool="`), `"]`)
		if a.panel == "resize" && f != nil {
			a.resizeW, a.resizeH = strconv.Itoa(f.state.w), strconv.Itoa(f.state.h)
		}
	case strings.HasPrefix(sel, `.format-option[data-format="`):
		a.format = strings.TrimSuffix(strings.TrimPrefix(sel, `.format-option[data-format="`), `"]`)
	case strings.HasPrefix(sel, `.help-tab[data-tab="`):
		a.helpTab = strings.TrimSuffix(strings.TrimPrefix(sel, `.help-tab[data-tab="`), `"]`)
	}
	if f == nil {
		return a.clickGlobal(sel)
	}
	s := f.state
	switch sel {
	case "#autoRemoveWhiteBtn":
		if !f.white {
			a.toast = "No white background detected"
			break
		}
		s.alpha = 0
		a.push(s)
		a.toast = "Removed white background"
	case "#undoBtn":
		a.undo()
	case "#redoBtn":
		a.redo()
	case "#selectColorBtn":
		a.pickMode = true
	case `[data-action="rotate-right"]`, `[data-action="rotate-left"]`:
		s.w, s.h = s.h, s.w
		a.push(s)
	case `[data-action="rotate-180"]`:
		a.push(s)
	case `[data-action="flip-h"]`, `[data-action="flip-v"]`:
		a.push(s)
		a.toast = "Flipped"
	case `.preset-btn[data-ratio="free"]`:
		a.cropping = true
	case "#applyCropBtn":
		if a.cropping {
			s.w, s.h = s.w*3/4, s.h*3/4
			a.cropping = false
			a.push(s)
		}
	case "#resetCropBtn":
		a.cropping = false
	case "#lockAspectBtn":
		a.lock = !a.lock
	case "#applyResizeBtn":
		w, _ := strconv.Atoi(a.resizeW)
		h, _ := strconv.Atoi(a.resizeH)
		if w > 0 && h > 0 {
			s.w, s.h = w, h
			a.push(s)
		}
	case "#nextImageBtn":
		a.show((a.cur + 1) % len(a.files))
	case "#prevImageBtn":
		a.show((a.cur + len(a.files) - 1) % len(a.files))
	default:
		return a.clickGlobal(sel)
	}
	return nil
}

func (a *fakeApp) clickGlobal(sel string) error {
	switch sel {
	case "#nextStepBtn":
		a.nextStep()
	case "#helpBtn":
		a.help = true
	case "#closeHelpBtn":
		a.help = false
	}
	return nil
}

func (a *fakeApp) Visible(_ context.Context, sel string) (bool, error) {
	switch sel {
	case "#authModal":
		return a.auth, nil
	case ".app-container":
		return !a.auth, nil
	case "#step1":
		return a.step == 1, nil
	}
	return false, nil
}

func (a *fakeApp) Count(_ context.Context, sel string) (int, error) {
	if a.broken[sel] {
		return 0, nil
	}
	switch sel {
	case "#undoBtn", "#redoBtn", "#downloadAllBtn", "#downloadZipBtn", "#qualitySlider":
		return 1, nil
	case ".download-btn":
		if a.step == 4 {
			return len(a.files), nil
		}
	}
	return 0, nil
}

func (a *fakeApp) Fill(_ context.Context, sel, value string) error {
	switch sel {
	case "#resizeWidth":
		a.resizeW = value
		if f := a.file(); a.lock && f != nil && f.state.w > 0 {
			w, _ := strconv.Atoi(value)
			a.resizeH = strconv.Itoa(w * f.state.h / f.state.w)
		}
	case "#resizeHeight":
		a.resizeH = value
	case "#qualitySlider":
		a.quality = value
	default:
		return errors.New("no input " + sel)
	}
	return nil
}

func (a *fakeApp) SetFiles(_ context.Context, _ string, paths []string) error {
	if a.uploadErr != nil {
		return a.uploadErr
	}
	for _, p := range paths {
		fh, err := os.Open(p)
		if err != nil {
			return err
		}
		img, _, err := image.Decode(fh)
		fh.Close()
		if err != nil {
			return err
		}
		b := img.Bounds()
		r, g, bl, _ := img.At(b.Min.X, b.Min.Y).RGBA()
		a.files = append(a.files, &fakeFile{
			name:  p,
			state: fakeState{w: b.Dx(), h: b.Dy(), alpha: 255},
			white: r > 0xf000 && g > 0xf000 && bl > 0xf000,
		})
	}
	a.show(0)
	if a.step == 1 {
		a.step = 2
	}
	return nil
}

func (a *fakeApp) Press(_ context.Context, chord string) error {
	if chord != "Control+z" {
		return fmt.Errorf("unexpected chord %q", chord)
	}
	a.undo()
	return nil
}

func (a *fakeApp) Download(_ context.Context, _ string) (string, error) {
	if a.step != 4 || len(a.files) == 0 {
		return "", errors.New("no download")
	}
	return "converted.png", nil
}

func (a *fakeApp) Screenshot(context.Context) ([]byte, error) { return []byte("\x89PNG"), nil }

func (a *fakeApp) HTML(context.Context) (string, error) {
	return "<html><body><h1>FormatFlip</h1><p>Step " + strconv.Itoa(a.step) + "</p></body></html>", nil
}

func (a *fakeApp) Eval(_ context.Context, s facade.Script) ([]byte, error) {
	v, err := a.answer(s)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

func arg(s facade.Script, i int) string {
	if i >= len(s.Args) {
		return ""
	}
	str, _ := s.Args[i].(string)
	return str
}

var errNoFF = errors.New("formatFlip not found")

var fakePanels = map[string]string{
	"bgToolPanel":     "background",
	"cropToolPanel":   "crop",
	"rotateToolPanel": "rotate",
	"resizeToolPanel": "resize",
}

func (a *fakeApp) answer(s facade.Script) (any, error) {
	f := a.file()
	switch s.Name {
	case "title":
		return "FormatFlip", nil
	case "bypass-auth":
		a.auth = false
		return true, nil
	case "active":
		switch id := arg(s, 0); id {
		case "step1", "step2", "step3", "step4":
			return strconv.Itoa(a.step) == id[4:], nil
		default:
			p, ok := fakePanels[id]
			return ok && p == a.panel, nil
		}
	case "displayed":
		switch id := arg(s, 0); id {
		case "qualityControl":
			return a.format == "jpg", nil
		case "icoSizeControl":
			return a.format == "ico", nil
		default:
			return id == a.helpTab+"Panel", nil
		}
	case "canvas-dims":
		if f == nil || (arg(s, 0) == "previewCanvas" && a.step < 3) {
			return nil, nil
		}
		return map[string]int{"w": f.state.w, "h": f.state.h}, nil
	case "corner-alpha":
		if f == nil {
			return -1, nil
		}
		return f.state.alpha, nil
	case "count":
		if arg(s, 0) == ".file-item" {
			return len(a.files), nil
		}
		if arg(s, 0) == ".download-item" && a.step == 4 {
			return len(a.files), nil
		}
		return 0, nil
	case "toasts", "first-toast":
		return a.toast, nil
	case "app-field":
		if a.noApp {
			return nil, errNoFF
		}
		switch arg(s, 0) {
		case "isCropping":
			return a.cropping, nil
		case "files.length":
			return len(a.files), nil
		case "currentFileIndex":
			return a.cur, nil
		case "files.0.edited":
			if len(a.files) == 0 {
				return nil, nil
			}
			return a.files[0].edited, nil
		}
		return nil, nil
	case "app-has-func":
		return !a.noApp && arg(s, 0) == "undo", nil
	case "history":
		if a.noApp {
			return nil, errNoFF
		}
		return map[string]int{"idx": a.hidx, "len": len(a.history)}, nil
	case "edited-image-data":
		return f != nil && f.edited, nil
	case "canvas-mode":
		if a.pickMode {
			return "removeBg", nil
		}
		return "", nil
	case "inline-cursor":
		if a.pickMode {
			return "crosshair", nil
		}
		return "", nil
	case "computed-cursor":
		return "default", nil
	case "start-crop":
		if a.noApp {
			return "formatFlip_not_found", nil
		}
		return "no_error", nil
	case "input-value":
		switch arg(s, 0) {
		case "resizeWidth":
			return a.resizeW, nil
		case "resizeHeight":
			return a.resizeH, nil
		}
		return nil, nil
	case "text":
		switch arg(s, 0) {
		case "qualityValue":
			return a.quality + "%", nil
		case "imageCounter":
			return fmt.Sprintf("%d / %d", a.cur+1, len(a.files)), nil
		case "downloadAllBtn":
			return "Download All (ZIP)", nil
		}
		return "", nil
	case "has-class":
		sel, cls := arg(s, 0), arg(s, 1)
		if sel == "#lockAspectBtn" && cls == "active" {
			return a.lock, nil
		}
		return cls == "selected" && sel == `.format-option[data-format="`+a.format+`"]`, nil
	case "modal-open":
		return a.help, nil
	case "modal-closed":
		return !a.help, nil
	case "next-step-toast":
		if a.noApp {
			return nil, errNoFF
		}
		a.toast = ""
		a.nextStep()
		return a.toast, nil
	case "start-over":
		a.reset()
		a.auth = false
		return true, nil
	case "background-image":
		return "linear-gradient(45deg, #ccc 25%, transparent 25%)", nil
	case "stylesheet-cursor":
		return map[string]string{"computed": "default", "inline": ""}, nil
	case "download-wiring":
		return map[string]bool{"downloadAllExists": true, "downloadAsZipExists": true, "zipBtnExists": !a.noApp}, nil
	}
	return nil, nil
}

// ctxApp fails every call once its context is done, as a CDP session does.
type ctxApp struct{ *fakeApp }

func (a ctxApp) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.fakeApp.Navigate(ctx, url)
}

func (a ctxApp) Click(ctx context.Context, sel string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.fakeApp.Click(ctx, sel)
}

func (a ctxApp) Visible(ctx context.Context, sel string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return a.fakeApp.Visible(ctx, sel)
}

func (a ctxApp) Count(ctx context.Context, sel string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return a.fakeApp.Count(ctx, sel)
}

func (a ctxApp) Eval(ctx context.Context, s facade.Script) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return a.fakeApp.Eval(ctx, s)
}

func (a ctxApp) Fill(ctx context.Context, sel, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.fakeApp.Fill(ctx, sel, value)
}

func (a ctxApp) SetFiles(ctx context.Context, sel string, paths []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.fakeApp.SetFiles(ctx, sel, paths)
}

func (a ctxApp) Press(ctx context.Context, chord string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.fakeApp.Press(ctx, chord)
}

func (a ctxApp) Download(ctx context.Context, sel string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return a.fakeApp.Download(ctx, sel)
}

func (a ctxApp) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return a.fakeApp.Screenshot(ctx)
}

func (a ctxApp) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return a.fakeApp.HTML(ctx)
}
