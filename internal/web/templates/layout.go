package templates

import (
	"context"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/dashboard/internal/core"
	"github.com/JonMunkholm/dashboard/internal/pipeline"
)

// ViewCard is one dashboard entry.
type ViewCard struct {
	Info core.ViewInfo
	Mode pipeline.Mode
}

// ViewGroup is a titled set of views on the dashboard.
type ViewGroup struct {
	Name  string
	Views []ViewCard
}

// Layout wraps body in the page shell.
func Layout(title string, body templ.Component) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>`)
		h.text(title)
		h.raw(` | Dashboard</title>`)
		h.raw(`<script src="https://unpkg.com/htmx.org@1.9.12"></script>`)
		h.raw(`</head><body><header><a href="/">Dashboard</a></header>`)
		h.raw(`<div id="alerts" role="status"></div><main>`)
		h.child(ctx, body)
		h.raw(`</main></body></html>`)
	})
}

// Dashboard lists every view by group.
func Dashboard(groups []ViewGroup) templ.Component {
	return Layout("Views", component(func(ctx context.Context, h *html) {
		if len(groups) == 0 {
			h.raw(`<p class="empty">No views are registered.</p>`)
			return
		}
		for _, g := range groups {
			h.raw(`<section class="group"><h2>`)
			h.text(g.Name)
			h.raw(`</h2><ul>`)
			for _, v := range g.Views {
				h.raw(`<li><a`)
				h.attr("href", "/views/"+v.Info.Key)
				h.raw(`>`)
				h.text(v.Info.Label)
				h.raw(`</a> <span class="mode">`)
				h.text(v.Mode.String())
				h.raw(`</span></li>`)
			}
			h.raw(`</ul></section>`)
		}
	}))
}

// ErrorAlert renders a dismissable error message with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.raw(`<div class="alert alert-error" role="alert"><p class="message">`)
		h.text(message)
		h.raw(`</p>`)
		if action != "" {
			h.raw(`<p class="action">`)
			h.text(action)
			h.raw(`</p>`)
		}
		h.raw(`<p class="code">Error code: `)
		h.text(code)
		h.raw(`</p><button type="button" onclick="this.parentElement.remove()">Dismiss</button></div>`)
	})
}
