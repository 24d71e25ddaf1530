package view

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/html"

	"github.com/hitoshi/empdir/internal/i18n"
	"github.com/hitoshi/empdir/internal/model"
	"github.com/hitoshi/empdir/internal/pagination"
	"github.com/hitoshi/empdir/internal/viewstate"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func layout(t *testing.T, locale string) Layout {
	t.Helper()
	c, err := i18n.New(i18n.LocaleEN)
	if err != nil {
		t.Fatalf("i18n.New: %v", err)
	}
	return Layout{L: c.Localizer(locale), CSRFToken: "token-123", SwitchLocaleURL: "/employees?lang=tr"}
}

func sampleEmployees() []model.Employee {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []model.Employee{
		{
			ID: "e1", FirstName: "Alice", LastName: "Johnson",
			DateOfEmployment: model.MustParseDate("2020-01-15"), DateOfBirth: model.MustParseDate("1990-05-20"),
			Phone: "+(90) 532 123 45 67", Email: "alice.johnson@example.com",
			Department: model.DepartmentTech, Position: model.PositionSenior, CreatedAt: created,
		},
		{
			ID: "e2", FirstName: "Bob", LastName: "<Smith>",
			DateOfEmployment: model.MustParseDate("2019-03-10"), DateOfBirth: model.MustParseDate("1985-11-02"),
			Phone: "+(90) 533 234 56 78", Email: "bob.smith@example.com",
			Department: model.DepartmentAnalytics, Position: model.PositionMedior, CreatedAt: created,
		},
	}
}

func render(t *testing.T, page string, data any) *html.Node {
	t.Helper()
	var buf bytes.Buffer
	if err := newRenderer(t).Render(&buf, page, data); err != nil {
		t.Fatalf("Render(%s): %v", page, err)
	}
	doc, err := html.Parse(&buf)
	if err != nil {
		t.Fatalf("html.Parse: %v", err)
	}
	return doc
}

// findAll は条件に一致する要素を文書順に返す。
func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func byTag(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Data == tag }
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

func listPage(t *testing.T, mode viewstate.Mode, employees []model.Employee) ListPage {
	state := viewstate.Default().WithMode(mode)
	return ListPage{
		Layout:    layout(t, i18n.LocaleEN),
		State:     state,
		Employees: employees,
		Pager:     pagination.NewPager(1, 1, pagination.DefaultMaxVisible),
		Total:     len(employees),
	}
}

// TestRender_ListTable はリスト表示で社員ごとに1行描画されることを検証する。
func TestRender_ListTable(t *testing.T) {
	doc := render(t, PageList, listPage(t, viewstate.ModeList, sampleEmployees()))

	rows := findAll(doc, func(n *html.Node) bool { return n.Data == "tr" && attr(n, "data-id") != "" })
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if attr(rows[0], "data-id") != "e1" || attr(rows[1], "data-id") != "e2" {
		t.Errorf("row order = %s, %s", attr(rows[0], "data-id"), attr(rows[1], "data-id"))
	}
	if cards := findAll(doc, byTag("article")); len(cards) != 0 {
		t.Errorf("cards = %d in list mode, want 0", len(cards))
	}
	// テキストはエスケープされ要素として解釈されない
	if !strings.Contains(text(rows[1]), "<Smith>") {
		t.Errorf("row text = %q, want escaped last name", text(rows[1]))
	}
}

// TestRender_ListGrid はカード表示で社員ごとにカードが描画されることを検証する。
func TestRender_ListGrid(t *testing.T) {
	doc := render(t, PageList, listPage(t, viewstate.ModeGrid, sampleEmployees()))

	cards := findAll(doc, byTag("article"))
	if len(cards) != 2 {
		t.Fatalf("cards = %d, want 2", len(cards))
	}
	if tables := findAll(doc, byTag("table")); len(tables) != 0 {
		t.Errorf("tables = %d in grid mode, want 0", len(tables))
	}
}

// TestRender_ListEmpty は結果が空のときメッセージを表示しページネーションを隠すことを検証する。
func TestRender_ListEmpty(t *testing.T) {
	doc := render(t, PageList, listPage(t, viewstate.ModeList, nil))

	empty := findAll(doc, func(n *html.Node) bool { return attr(n, "class") == "empty" })
	if len(empty) != 1 || text(empty[0]) != "No employees found." {
		t.Errorf("empty message not rendered")
	}
	pagers := findAll(doc, func(n *html.Node) bool { return attr(n, "aria-label") == "pagination" })
	if len(pagers) != 0 {
		t.Error("pagination should be hidden for an empty list")
	}
}

// TestRender_ListPaginationLinks はページリンクが現在の検索と表示モードを保持することを検証する。
func TestRender_ListPaginationLinks(t *testing.T) {
	page := listPage(t, viewstate.ModeGrid, sampleEmployees())
	page.State = page.State.WithSearch("a").WithPage(2)
	page.Pager = pagination.NewPager(2, 3, pagination.DefaultMaxVisible)

	doc := render(t, PageList, page)

	current := findAll(doc, func(n *html.Node) bool { return attr(n, "aria-current") == "page" })
	if len(current) != 1 {
		t.Fatalf("current page links = %d, want 1", len(current))
	}
	if got := attr(current[0], "href"); got != "/employees?page=2&q=a&view=grid" {
		t.Errorf("current href = %q", got)
	}
	if text(current[0]) != "2" {
		t.Errorf("current text = %q, want 2", text(current[0]))
	}
}

// TestRender_FormErrors は編集フォームに値とエラーメッセージが表示されることを検証する。
func TestRender_FormErrors(t *testing.T) {
	e := sampleEmployees()[0]
	page := FormPage{
		Layout:  layout(t, i18n.LocaleEN),
		Editing: &e,
		Action:  EditPath(e.ID),
		Values:  map[string]string{"first_name": "Alice", "department": "Tech"},
		Errors:  map[string]string{"email": "Invalid email address"},
	}

	doc := render(t, PageForm, page)

	editing := findAll(doc, func(n *html.Node) bool { return attr(n, "class") == "editing" })
	if len(editing) != 1 || text(editing[0]) != "You are editing Alice Johnson" {
		t.Errorf("editing header not rendered")
	}

	inputs := findAll(doc, func(n *html.Node) bool { return n.Data == "input" && attr(n, "name") == "first_name" })
	if len(inputs) != 1 || attr(inputs[0], "value") != "Alice" {
		t.Errorf("first_name input not prefilled")
	}

	errs := findAll(doc, func(n *html.Node) bool { return attr(n, "id") == "email-error" })
	if len(errs) != 1 || text(errs[0]) != "Invalid email address" {
		t.Errorf("email error not rendered")
	}

	selected := findAll(doc, func(n *html.Node) bool {
		_, ok := hasAttr(n, "selected")
		return n.Data == "option" && ok && attr(n, "value") == "Tech"
	})
	if len(selected) != 1 {
		t.Errorf("Tech option should be selected")
	}

	tokens := findAll(doc, func(n *html.Node) bool { return attr(n, "name") == "csrf_token" })
	if len(tokens) != 1 || attr(tokens[0], "value") != "token-123" {
		t.Errorf("csrf token not embedded")
	}
}

func hasAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// TestRender_DeleteDialog は削除確認ダイアログに対象社員名が表示されることを検証する。
func TestRender_DeleteDialog(t *testing.T) {
	page := DeletePage{
		Layout:    layout(t, i18n.LocaleTR),
		Employee:  sampleEmployees()[0],
		Action:    DeletePath("e1"),
		CancelURL: "/employees?page=1&view=list",
	}

	doc := render(t, PageDelete, page)

	dialogs := findAll(doc, func(n *html.Node) bool { return attr(n, "role") == "alertdialog" })
	if len(dialogs) != 1 {
		t.Fatalf("dialogs = %d, want 1", len(dialogs))
	}
	if got := text(dialogs[0]); !strings.Contains(got, "Alice Johnson adlı çalışanın kaydı silinecek") {
		t.Errorf("dialog text = %q", got)
	}
	forms := findAll(dialogs[0], byTag("form"))
	if len(forms) != 1 || attr(forms[0], "action") != "/employees/delete/e1" {
		t.Errorf("dialog form action not set")
	}
}

func TestRender_NotFound(t *testing.T) {
	doc := render(t, PageNotFound, NotFoundPage{Layout: layout(t, i18n.LocaleEN)})

	headings := findAll(doc, byTag("h2"))
	if len(headings) != 1 || text(headings[0]) != "Not found" {
		t.Errorf("not found heading not rendered")
	}
	htmls := findAll(doc, byTag("html"))
	if len(htmls) != 1 || attr(htmls[0], "lang") != "en" {
		t.Errorf("html lang not set")
	}
}

func TestRender_UnknownPage(t *testing.T) {
	var buf bytes.Buffer
	err := newRenderer(t).Render(&buf, "missing", nil)
	if !errors.Is(err, ErrUnknownPage) {
		t.Errorf("error = %v, want ErrUnknownPage", err)
	}
}
