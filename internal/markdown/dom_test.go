package markdown

import (
	"strings"
	"testing"
)

func TestParseFragmentAndRender(t *testing.T) {
	doc, err := ParseFragment(`<p>hello <em>world</em></p>`)
	if err != nil {
		t.Fatalf("ParseFragment() error = %v", err)
	}

	out, err := doc.Render()
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if out != `<p>hello <em>world</em></p>` {
		t.Errorf("Render() = %q", out)
	}
}

func TestQuerySelectorAll(t *testing.T) {
	doc, err := ParseFragment(`<p class="a">one</p><p>two</p><div class="a b">three</div>`)
	if err != nil {
		t.Fatalf("ParseFragment() error = %v", err)
	}

	tests := []struct {
		selector string
		want     int
	}{
		{"p", 2},
		{".a", 2},
		{"p.a", 1},
		{"div.b", 1},
		{"span", 0},
	}

	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			if got := len(doc.QuerySelectorAll(tt.selector)); got != tt.want {
				t.Errorf("QuerySelectorAll(%q) = %d matches, want %d", tt.selector, got, tt.want)
			}
		})
	}
}

func TestCreateElAndText(t *testing.T) {
	doc, err := ParseFragment("")
	if err != nil {
		t.Fatalf("ParseFragment() error = %v", err)
	}

	el := doc.CreateEl("span", "note")
	el.SetText("hi")

	out, err := doc.Render()
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if out != `<span class="note">hi</span>` {
		t.Errorf("Render() = %q", out)
	}
	if el.Text() != "hi" {
		t.Errorf("Text() = %q", el.Text())
	}
}

func TestAttrAndClassHelpers(t *testing.T) {
	doc, _ := ParseFragment(`<div class="x"></div>`)
	div := doc.QuerySelectorAll("div")[0]

	if !div.HasClass("x") {
		t.Error("HasClass(x) = false")
	}
	div.AddClass("y")
	div.AddClass("y") // no duplicate
	if got := div.Attr("class"); got != "x y" {
		t.Errorf("class = %q, want %q", got, "x y")
	}

	div.SetAttr("data-k", "v")
	if got := div.Attr("data-k"); got != "v" {
		t.Errorf("Attr(data-k) = %q, want %q", got, "v")
	}
}

func TestRemove(t *testing.T) {
	doc, _ := ParseFragment(`<p>one</p><p>two</p>`)
	doc.QuerySelectorAll("p")[0].Remove()

	out, _ := doc.Render()
	if strings.Contains(out, "one") || !strings.Contains(out, "two") {
		t.Errorf("Render() = %q after Remove", out)
	}
}
