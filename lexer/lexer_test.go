package lexer

import (
	"testing"

	"github.com/transitdb/transit/token"
)

func collect(t *testing.T, input string) []token.Item {
	t.Helper()
	l := New(input)
	var items []token.Item
	for {
		it := l.Next()
		items = append(items, it)
		if it.Type == token.EOF {
			break
		}
	}
	return items
}

func TestKeywordsAreCaseInsensitive(t *testing.T) {
	items := collect(t, "ADD role; Add ROLE;")
	if items[0].Type != token.ADD || items[1].Type != token.ROLE {
		t.Fatalf("expected ADD ROLE, got %v %v", items[0].Type, items[1].Type)
	}
}

func TestStringEscape(t *testing.T) {
	items := collect(t, `"she said ""hi"""`)
	if items[0].Type != token.STRING {
		t.Fatalf("expected STRING, got %v", items[0].Type)
	}
	if items[0].Value != `she said "hi"` {
		t.Fatalf("unexpected value: %q", items[0].Value)
	}
}

func TestCertaintyLiteral(t *testing.T) {
	items := collect(t, "75%")
	if items[0].Type != token.CERTAINTY || items[0].Value != "75%" {
		t.Fatalf("expected CERTAINTY 75%%, got %v %q", items[0].Type, items[0].Value)
	}
}

func TestDecimalVsInt(t *testing.T) {
	items := collect(t, "42 3.14")
	if items[0].Type != token.INT {
		t.Fatalf("expected INT, got %v", items[0].Type)
	}
	if items[1].Type != token.DECIMAL {
		t.Fatalf("expected DECIMAL, got %v", items[1].Type)
	}
}

func TestTimeLiteral(t *testing.T) {
	items := collect(t, "'2024-03-17'")
	if items[0].Type != token.TIMELIT || items[0].Value != "2024-03-17" {
		t.Fatalf("unexpected time literal: %v %q", items[0].Type, items[0].Value)
	}
}

func TestAtLiterals(t *testing.T) {
	items := collect(t, "@NOW @BOT @EOT")
	want := []string{"@NOW", "@BOT", "@EOT"}
	for i, w := range want {
		if items[i].Type != token.ATLIT || items[i].Value != w {
			t.Fatalf("item %d: expected %s, got %v %q", i, w, items[i].Type, items[i].Value)
		}
	}
}

func TestUnionRecallPunctuation(t *testing.T) {
	items := collect(t, "(a|b,role)")
	wantTypes := []token.Token{token.LPAREN, token.IDENT, token.PIPE, token.IDENT, token.COMMA, token.ROLE, token.RPAREN, token.EOF}
	for i, wt := range wantTypes {
		if items[i].Type != wt {
			t.Fatalf("item %d: expected %v, got %v", i, wt, items[i].Type)
		}
	}
}

func TestPositionTracking(t *testing.T) {
	items := collect(t, "add\nrole wife;")
	for _, it := range items {
		if it.Value == "role" {
			if it.Pos.Line != 2 || it.Pos.Column != 1 {
				t.Fatalf("unexpected position for role: %+v", it.Pos)
			}
			return
		}
	}
	t.Fatal("role token not found")
}

func TestScanJSONLiteralConsumesBalancedBraces(t *testing.T) {
	l := New(`{"a":[1,2,{"b":"}"}]}, "rest"`)
	l.Peek()
	text, _, err := l.ScanJSONLiteral()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"a":[1,2,{"b":"}"}]}`
	if text != want {
		t.Fatalf("got %q, want %q", text, want)
	}
	next := l.Next()
	if next.Type != token.COMMA {
		t.Fatalf("expected COMMA after JSON literal, got %v", next.Type)
	}
}

func TestGetPutRoundTrip(t *testing.T) {
	l := Get("add role x;")
	first := l.Next()
	if first.Type != token.ADD {
		t.Fatalf("expected ADD, got %v", first.Type)
	}
	Put(l)

	l2 := Get("search")
	first2 := l2.Next()
	if first2.Type != token.SEARCH {
		t.Fatalf("expected SEARCH after reuse, got %v", first2.Type)
	}
	Put(l2)
}
