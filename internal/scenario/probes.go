package scenario

import "github.com/hazyhaar/flipcheck/internal/facade"

// In-page probes. Each is a function expression taking its Args; the Name
// is stable so test pages can answer without a script engine.

func probe(name, js string, args ...any) facade.Script {
	return facade.Script{Name: name, JS: js, Args: args}
}

func probeTitle() facade.Script {
	return probe("title", `() => document.title`)
}

func probeBypassAuth() facade.Script {
	return probe("bypass-auth", `() => {
		const modal = document.getElementById("authModal");
		if (modal) { modal.style.display = "none"; modal.classList.add("hidden"); }
		document.body.style.overflow = "";
		const app = document.querySelector(".app-container");
		if (app) app.style.display = "";
		return true;
	}`)
}

// probeActive reports whether the element with id is the active step or
// panel, or at least not hidden.
func probeActive(id string) facade.Script {
	return probe("active", `(id) => {
		const el = document.getElementById(id);
		return !!el && (el.classList.contains("active") || getComputedStyle(el).display !== "none");
	}`, id)
}

// probeDisplayed reports whether the element with id is not display:none.
func probeDisplayed(id string) facade.Script {
	return probe("displayed", `(id) => {
		const el = document.getElementById(id);
		return el ? getComputedStyle(el).display !== "none" : false;
	}`, id)
}

func probeCanvasDims(id string) facade.Script {
	return probe("canvas-dims", `(id) => {
		const c = document.getElementById(id);
		return c ? {w: c.width, h: c.height} : null;
	}`, id)
}

// probeCornerAlpha reads the alpha channel of the top-left canvas pixel,
// -1 without a canvas.
func probeCornerAlpha() facade.Script {
	return probe("corner-alpha", `() => {
		const c = document.getElementById("editCanvas");
		if (!c) return -1;
		const ctx = c.getContext("2d", {willReadFrequently: true});
		return ctx.getImageData(0, 0, 1, 1).data[3];
	}`)
}

func probeCount(selector string) facade.Script {
	return probe("count", `(sel) => document.querySelectorAll(sel).length`, selector)
}

func probeToasts() facade.Script {
	return probe("toasts", `() => Array.from(document.querySelectorAll(".toast")).map(t => t.textContent).join("; ")`)
}

func probeFirstToast() facade.Script {
	return probe("first-toast", `() => {
		const t = document.querySelector(".toast");
		return t ? t.textContent : "";
	}`)
}

// probeAppField walks a dotted path from the application object. A missing
// application is a thrown error so the result carries the error marker.
func probeAppField(path string) facade.Script {
	return probe("app-field", `(path) => {
		const ff = window.formatFlip;
		if (!ff) throw new Error("formatFlip not found");
		let v = ff;
		for (const k of path.split(".")) {
			if (v === null || v === undefined) return null;
			v = v[k];
		}
		return v === undefined ? null : v;
	}`, path)
}

func probeAppHasFunc(name string) facade.Script {
	return probe("app-has-func", `(name) => {
		const ff = window.formatFlip;
		return !!ff && typeof ff[name] === "function";
	}`, name)
}

func probeHistory() facade.Script {
	return probe("history", `() => {
		const ff = window.formatFlip;
		if (!ff) throw new Error("formatFlip not found");
		return {idx: ff.historyIndex, len: ff.history.length};
	}`)
}

func probeEditedImageData() facade.Script {
	return probe("edited-image-data", `() => {
		const ff = window.formatFlip;
		if (!ff) throw new Error("formatFlip not found");
		const f = ff.files && ff.files[ff.currentFileIndex];
		return !!(f && f.editedImageData);
	}`)
}

func probeCanvasMode() facade.Script {
	return probe("canvas-mode", `() => {
		const c = document.getElementById("editCanvas");
		return (c && c.dataset && c.dataset.mode) || "";
	}`)
}

func probeInlineCursor() facade.Script {
	return probe("inline-cursor", `() => {
		const c = document.getElementById("editCanvas");
		return c ? c.style.cursor : "not set";
	}`)
}

func probeComputedCursor() facade.Script {
	return probe("computed-cursor", `() => {
		const c = document.getElementById("editCanvas");
		return c ? getComputedStyle(c).cursor : "not found";
	}`)
}

// probeStartCrop calls startCrop with a fixed ratio and reports the thrown
// message, if any.
func probeStartCrop(ratio string) facade.Script {
	return probe("start-crop", `(ratio) => {
		try {
			const ff = window.formatFlip;
			if (!ff) return "formatFlip_not_found";
			ff.startCrop(ratio);
			return "no_error";
		} catch (e) {
			return "ERROR: " + e.message;
		}
	}`, ratio)
}

func probeInputValue(id string) facade.Script {
	return probe("input-value", `(id) => {
		const el = document.getElementById(id);
		return el ? el.value : null;
	}`, id)
}

func probeText(id string) facade.Script {
	return probe("text", `(id) => {
		const el = document.getElementById(id);
		return el ? el.textContent.trim() : "";
	}`, id)
}

func probeHasClass(selector, class string) facade.Script {
	return probe("has-class", `(sel, cls) => {
		const el = document.querySelector(sel);
		return el ? el.classList.contains(cls) : false;
	}`, selector, class)
}

func probeModalOpen(id string) facade.Script {
	return probe("modal-open", `(id) => {
		const m = document.getElementById(id);
		return !!m && !m.classList.contains("hidden") && getComputedStyle(m).display !== "none";
	}`, id)
}

func probeModalClosed(id string) facade.Script {
	return probe("modal-closed", `(id) => {
		const m = document.getElementById(id);
		return !!m && (m.classList.contains("hidden") || getComputedStyle(m).display === "none");
	}`, id)
}

// probeNextStepToast requests advancement and returns the toast message it
// produced, restoring the original toast function afterwards.
func probeNextStepToast() facade.Script {
	return probe("next-step-toast", `() => {
		const ff = window.formatFlip;
		if (!ff) throw new Error("formatFlip not found");
		let captured = "";
		const orig = ff.showToast.bind(ff);
		ff.showToast = (msg, type) => { captured = msg; orig(msg, type); };
		try { ff.nextStep(); } finally { ff.showToast = orig; }
		return captured;
	}`)
}

func probeStartOver() facade.Script {
	return probe("start-over", `() => {
		const ff = window.formatFlip;
		if (ff && ff.startOver) { ff.startOver(); return true; }
		return false;
	}`)
}

func probeBackgroundImage(selector string) facade.Script {
	return probe("background-image", `(sel) => {
		const c = document.querySelector(sel);
		return c ? getComputedStyle(c).backgroundImage : "none";
	}`, selector)
}

// probeStylesheetCursor reads the canvas cursor with the inline style
// cleared, then restores it.
func probeStylesheetCursor() facade.Script {
	return probe("stylesheet-cursor", `() => {
		const c = document.getElementById("editCanvas");
		if (!c) return {computed: "not found", inline: ""};
		const saved = c.style.cursor;
		c.style.cursor = "";
		const computed = getComputedStyle(c).cursor;
		c.style.cursor = saved;
		return {computed: computed, inline: saved};
	}`)
}

func probeDownloadWiring() facade.Script {
	return probe("download-wiring", `() => {
		const ff = window.formatFlip;
		return {
			downloadAllExists: !!ff && typeof ff.downloadAll === "function",
			downloadAsZipExists: !!ff && typeof ff.downloadAsZip === "function",
			zipBtnExists: document.getElementById("downloadZipBtn") !== null
		};
	}`)
}
