package scenario

import (
	"context"
	"fmt"

	"github.com/hazyhaar/flipcheck/internal/fixture"
)

// visualPhase checks the default canvas cursor and the transparency
// backdrop on a fresh upload.
func visualPhase(_ context.Context, e *Env) error {
	if err := e.reload(); err != nil {
		return err
	}
	if _, err := e.upload(1500, fixture.Opaque); err != nil {
		return err
	}

	cursor := e.eval(probeComputedCursor())
	c, _ := cursor.Str()
	def := c == "default"
	e.record(52, "Canvas cursor defaults to 'default' when no tool active", def,
		fmt.Sprintf("Computed: %s, Inline: %s. %s", cursor, e.eval(probeInlineCursor()),
			fixedOr(def, "cursor is default when no tool is active.", "cursor is still crosshair.")))

	e.click(`[data-tool="background"]`)
	e.F.Wait(300)
	e.click("#autoRemoveWhiteBtn")
	e.F.Wait(1000)
	e.F.Screenshot("checkerboard_transparency")

	bg := e.eval(probeBackgroundImage(".canvas-container"))
	s, isStr := bg.Str()
	// A gradient or image backdrop both count.
	checker := isStr && s != "" && s != "none"
	e.record(53, "Checkerboard background visible", checker, "Background: "+truncate(bg.String(), 80)+"...")
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// oversizedPhase loads a large image and scales it down to a fixed size
// regardless of aspect ratio.
func oversizedPhase(_ context.Context, e *Env) error {
	fx, ok := e.Fixtures.Get(fixture.Oversized)
	if !ok {
		e.skip(54, "Oversized image loads at full size", "No oversized fixture")
		e.skip(55, "Oversized image resizes to 200x200", "No oversized fixture")
		return nil
	}
	if err := e.reload(); err != nil {
		return err
	}
	if _, err := e.upload(1500, fixture.Oversized); err != nil {
		return err
	}

	d := e.editCanvas()
	e.record(54, "Oversized image loads at full size", d.is(fx.Width, fx.Height),
		fmt.Sprintf("%s (fixture %dx%d)", d, fx.Width, fx.Height))

	e.click(`[data-tool="resize"]`)
	e.F.Wait(500)
	resizeTo(e, 200, 200)
	d = e.editCanvas()
	e.record(55, "Oversized image resizes to 200x200", d.is(200, 200), "Canvas dims: "+d.String())
	e.F.Screenshot("oversized_resized")
	e.F.Undo(1, 300)
	return nil
}

// undersizedPhase loads an icon-sized image and offers it for ICO output.
func undersizedPhase(_ context.Context, e *Env) error {
	fx, ok := e.Fixtures.Get(fixture.Undersized)
	if !ok {
		e.skip(56, "Undersized image loads", "No undersized fixture")
		e.skip(57, "Undersized image selectable as ICO", "No undersized fixture")
		return nil
	}
	if err := e.reload(); err != nil {
		return err
	}
	if _, err := e.upload(1500, fixture.Undersized); err != nil {
		return err
	}

	d := e.editCanvas()
	e.record(56, "Undersized image loads", d.is(fx.Width, fx.Height),
		fmt.Sprintf("%s (fixture %dx%d)", d, fx.Width, fx.Height))

	e.click("#nextStepBtn")
	e.F.Wait(1000)
	e.click(formatTab("special"))
	e.F.Wait(300)
	ico := e.selectFormat("ico")
	e.record(57, "Undersized image selectable as ICO", ico, fmt.Sprintf("ICO selected: %v", ico))
	e.F.Screenshot("undersized_ico")
	return nil
}

// coloredPhase loads an image without a white background and checks that
// auto-remove-white leaves it opaque.
func coloredPhase(_ context.Context, e *Env) error {
	fx, ok := e.Fixtures.Get(fixture.Colored)
	if !ok {
		e.skip(58, "Colored-background image loads", "No colored fixture")
		e.skip(59, "Auto-remove white keeps a colored background", "No colored fixture")
		return nil
	}
	if err := e.reload(); err != nil {
		return err
	}
	if _, err := e.upload(1500, fixture.Colored); err != nil {
		return err
	}

	d := e.editCanvas()
	e.record(58, "Colored-background image loads", d.is(fx.Width, fx.Height),
		fmt.Sprintf("%s (fixture %dx%d)", d, fx.Width, fx.Height))

	e.click(`[data-tool="background"]`)
	e.F.Wait(300)
	e.click("#autoRemoveWhiteBtn")
	e.F.Wait(1000)
	alpha := e.eval(probeCornerAlpha())
	a, _ := alpha.Int()
	e.record(59, "Auto-remove white keeps a colored background", a == 255,
		fmt.Sprintf("Corner alpha: %s, Toast: %s", alpha, e.eval(probeFirstToast())))
	e.F.Screenshot("colored_background")
	return nil
}

// knownDefectsPhase re-checks previously reported defects.
func knownDefectsPhase(_ context.Context, e *Env) error {
	cur := e.eval(probeStylesheetCursor())
	computed, _ := cur.Field("computed").Str()
	def := computed == "default"
	e.defect("BUG-2", "CSS cursor on #editCanvas is default (was crosshair)", def,
		fmt.Sprintf("Computed (with inline cleared): %s. %s", cur,
			fixedOr(def, "CSS now sets cursor:default.", "CSS still sets cursor:crosshair.")))

	wiring := e.eval(probeDownloadWiring())
	zip := wiring.Field("zipBtnExists").True()
	e.defect("BUG-3", "downloadAsZip() is reachable via UI", zip,
		fmt.Sprintf("Check: %s. %s", wiring,
			fixedOr(zip, "downloadZipBtn exists and downloadAllBtn calls downloadAsZip().", "downloadAsZip() unreachable.")))
	return nil
}
