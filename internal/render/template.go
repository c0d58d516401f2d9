package render

import (
	"html/template"

	"git.home.luguber.info/inful/docnav/internal/navtree"
)

type indexData struct {
	Site    Site
	Tree    *navtree.Tree
	Content string
}

var indexTemplate = template.Must(template.New("index").Funcs(template.FuncMap{
	// Markdown content is converted by goldmark, which escapes as needed.
	"raw": func(s string) template.HTML { return template.HTML(s) }, //nolint:gosec
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Site.Title}}</title>
{{- if .Site.Description}}
<meta name="description" content="{{.Site.Description}}">
{{- end}}
</head>
<body>
<nav class="toc">
<a class="home" href="{{.Tree.Root.Href}}">{{.Tree.Root.Title}}</a>
{{- range .Tree.Sections}}
{{- if .Caption}}
<p class="caption">{{.Caption}}</p>
{{- end}}
<ul>
{{- range .Pages}}
{{template "navitem" .}}
{{- end}}
</ul>
{{- end}}
</nav>
{{- if .Tree.Sidebar}}
<aside class="links">
<p class="caption">Links</p>
<ul>
{{- range .Tree.Sidebar}}
<li><a href="{{.URL}}" rel="external">{{.Label}}</a></li>
{{- end}}
</ul>
</aside>
{{- end}}
<main>
{{raw .Content}}</main>
</body>
</html>
{{define "navitem"}}<li><a href="{{.Href}}">{{.Title}}</a>
{{- if .Children}}
<ul>
{{- range .Children}}
{{template "navitem" .}}
{{- end}}
</ul>
{{- end}}</li>{{end}}`))
