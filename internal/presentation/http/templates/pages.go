package templates

import (
	"context"
	"strconv"

	"github.com/a-h/templ"
)

// Layout wraps page content with the shared document chrome.
func Layout(title string, body templ.Component) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<!doctype html><html lang="ko"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>`)
		h.text(title)
		h.raw(`</title><link rel="icon" href="/favicon.svg" type="image/svg+xml">`)
		h.raw(`<link rel="stylesheet" href="/static/style.css"></head><body>`)
		h.raw(`<header class="navbar"><a class="brand" href="/">`)
		h.text(SiteTitle)
		h.raw(`</a></header><main>`)
		h.component(ctx, body)
		h.raw(`</main></body></html>`)
	})
}

// HomePage renders the landing page with the main search box.
func HomePage(data HomePageData) templ.Component {
	body := component(func(_ context.Context, h *htmlWriter) {
		h.raw(`<section class="hero"><h1>`)
		h.text(SiteTitle)
		h.raw(`</h1><p class="tagline">기출 주제, 유형, 핵심 키워드를 한번에 찾아보세요.</p>`)
		searchForm(h, "", "브레턴우즈 체제...")
		if data.PassageCount > 0 {
			h.raw(`<p class="muted">`)
			h.text(strconv.FormatInt(data.PassageCount, 10) + "개 지문 수록")
			h.raw(`</p>`)
		}
		h.raw(`</section>`)
	})
	return Layout(SiteTitle, body)
}

// SearchPage renders the result count and the passage cards for a query.
func SearchPage(data SearchPageData) templ.Component {
	body := component(func(_ context.Context, h *htmlWriter) {
		searchForm(h, data.Query, "검색어를 입력하세요...")
		if data.Query == "" {
			return
		}

		h.raw(`<p class="result-count">&ldquo;`)
		h.text(data.Query)
		h.raw(`&rdquo; 검색 결과 `)
		h.text(strconv.Itoa(len(data.Results)))
		h.raw(`건</p>`)

		if len(data.Results) == 0 {
			h.raw(`<div class="empty">검색 결과가 없습니다.</div>`)
			return
		}

		h.raw(`<div class="results">`)
		for _, card := range data.Results {
			passageCard(h, card)
		}
		h.raw(`</div>`)
	})

	title := "검색 • " + SiteTitle
	if data.Query != "" {
		title = data.Query + " • " + SiteTitle
	}
	return Layout(title, body)
}

// PassagePage renders the full text of one passage.
func PassagePage(data PassagePageData) templ.Component {
	body := component(func(_ context.Context, h *htmlWriter) {
		h.raw(`<article class="passage">`)
		badges(h, data.Year, data.ExamLabel, data.CategoryLabel)
		h.raw(`<h1>`)
		h.text(data.Subject)
		h.raw(`</h1>`)
		if data.HasContent {
			h.raw(`<div class="passage-body">`)
			h.text(data.Content)
			h.raw(`</div>`)
		} else {
			h.raw(`<p class="muted">본문이 등록되지 않은 지문입니다.</p>`)
		}
		h.raw(`</article>`)
	})
	return Layout(data.Subject+" • "+SiteTitle, body)
}

// ErrorPage renders a status label and a human readable message.
func ErrorPage(data ErrorPageData) templ.Component {
	body := component(func(_ context.Context, h *htmlWriter) {
		h.raw(`<section class="error"><h1>`)
		h.text(data.StatusLabel)
		h.raw(`</h1><p>`)
		h.text(data.Message)
		h.raw(`</p><a href="/">처음으로</a></section>`)
	})
	return Layout(data.StatusLabel+" • "+SiteTitle, body)
}

func searchForm(h *htmlWriter, query, placeholder string) {
	h.raw(`<form class="search" action="/search" method="GET">`)
	h.raw(`<label for="q" class="sr-only">Search</label>`)
	h.raw(`<input id="q" name="q" type="text" required value="`)
	h.attr(query)
	h.raw(`" placeholder="`)
	h.attr(placeholder)
	h.raw(`"><button type="submit">검색</button></form>`)
}

func passageCard(h *htmlWriter, card PassageCardView) {
	h.raw(`<div class="card">`)
	badges(h, card.Year, card.ExamLabel, card.CategoryLabel)
	h.raw(`<h2><a href="`)
	h.attr(card.URL)
	h.raw(`">`)
	h.text(card.Subject)
	h.raw(`</a></h2>`)
	if card.Preview != "" {
		h.raw(`<p class="preview">`)
		h.text(card.Preview)
		h.raw(`</p>`)
	}
	h.raw(`</div>`)
}

func badges(h *htmlWriter, year int, exam, category string) {
	h.raw(`<div class="badges"><span class="badge">`)
	h.text(strconv.Itoa(year))
	h.raw(`</span><span class="badge">`)
	h.text(exam)
	h.raw(`</span><span class="badge secondary">`)
	h.text(category)
	h.raw(`</span></div>`)
}
