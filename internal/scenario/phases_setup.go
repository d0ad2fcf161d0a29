package scenario

import (
	"context"
	"fmt"

	"github.com/hazyhaar/flipcheck/internal/fixture"
)

// loadPhase opens the application and gets past the sign-in overlay.
func loadPhase(_ context.Context, e *Env) error {
	if err := e.F.Navigate(e.Target.URL); err != nil {
		e.record(1, "Page loads", false, err.Error())
		return err
	}
	e.record(1, "Page loads", true, "Title: "+e.eval(probeTitle()).String())
	e.F.Screenshot("page_loaded")

	modal := e.F.ElementVisible("#authModal", 0)
	if e.Target.Live {
		detail := "Modal not found"
		if modal {
			detail = "Modal visible"
		}
		e.record(2, "Auth modal appears", modal, detail)
	} else {
		// Without the identity provider the overlay may or may not render.
		e.record(2, "Auth modal appears (local mode)", true,
			fmt.Sprintf("Modal visible: %v (expected for local mode)", modal))
	}

	e.bypassAuth()
	app := e.F.ElementVisible(".app-container", 0) || e.F.ElementVisible("#step1", 0)
	detail := "App still hidden"
	if app {
		detail = "App accessible"
	}
	e.record(3, "Auth bypass works", app, detail)
	e.F.Screenshot("auth_bypassed")
	return nil
}

// uploadPhase loads the opaque fixture into the editor.
func uploadPhase(_ context.Context, e *Env) error {
	fxs, err := e.upload(1500, fixture.Opaque)
	if err != nil {
		e.record(4, "Upload single image", false, err.Error())
		return err
	}
	fx := fxs[0]

	step2 := e.eval(probeActive("step2"))
	detail := "Step 2 active"
	if !step2.True() {
		detail = "Step 2 not active (" + step2.String() + ")"
	}
	e.record(4, "Upload single image", step2.True(), detail)
	e.F.Screenshot("uploaded")

	d := e.editCanvas()
	e.record(5, "Canvas dimensions", d.is(fx.Width, fx.Height),
		fmt.Sprintf("%s (fixture %dx%d)", d, fx.Width, fx.Height))

	n := e.eval(probeCount(".file-item"))
	count, _ := n.Int()
	e.record(6, "File list renders", count >= 1, n.String()+" file(s) shown")
	return nil
}
