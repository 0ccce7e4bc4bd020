package browser

import (
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// blockedTypes maps config names to CDP resource types.
var blockedTypes = map[string]proto.NetworkResourceType{
	"images":      proto.NetworkResourceTypeImage,
	"fonts":       proto.NetworkResourceTypeFont,
	"media":       proto.NetworkResourceTypeMedia,
	"stylesheets": proto.NetworkResourceTypeStylesheet,
}

// blockSet resolves config names. Unknown names are ignored.
func blockSet(names []string) map[proto.NetworkResourceType]bool {
	set := make(map[proto.NetworkResourceType]bool, len(names))
	for _, n := range names {
		if t, ok := blockedTypes[strings.ToLower(strings.TrimSpace(n))]; ok {
			set[t] = true
		}
	}
	return set
}

// applyResourceBlocking fails requests of the blocked types. Blocking
// stylesheets changes computed visibility and therefore picking.
func applyResourceBlocking(page *rod.Page, names []string) *rod.HijackRouter {
	set := blockSet(names)
	if len(set) == 0 {
		return nil
	}
	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		if set[h.Request.Type()] {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
	return router
}
