package web

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/JonMunkholm/appsize/internal/service"
)

// Reports carry <details> blocks, so raw HTML is kept. Report values are
// escaped by the review renderer.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

func renderMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

const pageStyle = `body{font-family:system-ui,sans-serif;margin:2rem auto;max-width:72rem;padding:0 1rem}
table{border-collapse:collapse}th,td{border:1px solid #ccc;padding:.25rem .5rem}
.failure{color:#b00020}.warning{color:#8a6d00}`

// RunPage is a standalone HTML page showing a run's findings and its
// rendered markdown body.
func RunPage(run *service.Run, body string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		title := fmt.Sprintf("%s size report %s", run.Platform, run.ID)

		var b bytes.Buffer
		b.WriteString("<!DOCTYPE html>\n<html lang=\"en\"><head><meta charset=\"utf-8\">")
		b.WriteString("<title>" + templ.EscapeString(title) + "</title>")
		b.WriteString("<style>" + pageStyle + "</style></head><body>")
		b.WriteString("<h1>" + templ.EscapeString(title) + "</h1>")
		b.WriteString("<p>Created " + templ.EscapeString(run.CreatedAt.Format("2006-01-02 15:04:05 MST")) + "</p>")

		findings(&b, "failure", run.Failures)
		findings(&b, "warning", run.Warnings)
		findings(&b, "message", run.Messages)

		if _, err := w.Write(b.Bytes()); err != nil {
			return err
		}
		if err := templ.Raw(body).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</body></html>\n")
		return err
	})
}

func findings(b *bytes.Buffer, class string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(`<ul class="` + class + `">`)
	for _, it := range items {
		b.WriteString("<li>" + templ.EscapeString(it) + "</li>")
	}
	b.WriteString("</ul>")
}
