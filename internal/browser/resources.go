// CLAUDE:SUMMARY Fails requests to blocked hosts or resource types so the local run never reaches third-party services.
package browser

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

type blocklist struct {
	hosts []string
	types map[string]bool
}

func newBlocklist(hosts, types []string) blocklist {
	bl := blocklist{types: make(map[string]bool, len(types))}
	for _, h := range hosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			bl.hosts = append(bl.hosts, strings.TrimPrefix(h, "."))
		}
	}
	for _, t := range types {
		bl.types[strings.ToLower(t)] = true
	}
	return bl
}

// shouldBlock matches host exactly or as a subdomain, and the resource
// type under either its CDP name or the plural config name.
func (bl blocklist) shouldBlock(host, resType string) bool {
	host = strings.ToLower(host)
	for _, h := range bl.hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	lower := strings.ToLower(resType)
	switch lower {
	case "image":
		return bl.types["images"] || bl.types[lower]
	case "font":
		return bl.types["fonts"] || bl.types[lower]
	case "stylesheet":
		return bl.types["stylesheets"] || bl.types[lower]
	}
	return bl.types[lower]
}

// applyBlocking routes every request through the blocklist until ctx ends.
func applyBlocking(ctx context.Context, page *rod.Page, bl blocklist, logger *slog.Logger) {
	router := page.Context(ctx).HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		u := h.Request.URL()
		if bl.shouldBlock(u.Hostname(), string(h.Request.Type())) {
			logger.Debug("browser: request blocked", "url", u.String())
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
}
