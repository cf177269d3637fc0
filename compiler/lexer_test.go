package compiler

import "testing"

func TestTokenizeStatement(t *testing.T) {
	tokens := Tokenize(`  label 3 text="Hello, world" width=120`, 7)

	want := []struct {
		typ TokenType
		lit string
		col int
	}{
		{TokenWord, "label", 3},
		{TokenInteger, "3", 9},
		{TokenWord, "text", 11},
		{TokenEquals, "=", 15},
		{TokenString, "Hello, world", 16},
		{TokenWord, "width", 31},
		{TokenEquals, "=", 36},
		{TokenInteger, "120", 37},
		{TokenEOF, "", 40},
	}

	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens %v, want %d", len(tokens), tokens, len(want))
	}
	for i, w := range want {
		tok := tokens[i]
		if tok.Type != w.typ || tok.Literal != w.lit {
			t.Errorf("token %d = %s, want %s(%q)", i, tok, w.typ, w.lit)
		}
		if tok.Pos.Line != 7 || tok.Pos.Column != w.col {
			t.Errorf("token %d at %s, want 7:%d", i, tok.Pos, w.col)
		}
	}
}

func TestTokenizeStringEscapes(t *testing.T) {
	tokens := Tokenize(`"say \"hi\" \\ # not a comment"`, 1)
	if tokens[0].Type != TokenString {
		t.Fatalf("got %s, want STRING", tokens[0])
	}
	if got, want := tokens[0].Literal, `say "hi" \ # not a comment`; got != want {
		t.Errorf("Literal = %q, want %q", got, want)
	}
}

func TestTokenizeComment(t *testing.T) {
	tokens := Tokenize("show_ui # trailing comment", 1)
	if len(tokens) != 2 || tokens[0].Literal != "show_ui" || tokens[1].Type != TokenEOF {
		t.Errorf("tokens = %v, want [show_ui EOF]", tokens)
	}

	tokens = Tokenize("# whole line", 1)
	if len(tokens) != 1 || tokens[0].Type != TokenEOF {
		t.Errorf("tokens = %v, want [EOF]", tokens)
	}
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`text="open`, "unterminated string"},
		{"let 1 @", "unexpected character @"},
		{"let 12ab 3", "malformed number 12ab"},
	}
	for _, tt := range tests {
		tokens := Tokenize(tt.input, 1)
		last := tokens[len(tokens)-1]
		if last.Type != TokenError || last.Literal != tt.want {
			t.Errorf("Tokenize(%q) last = %s, want ERROR(%s)", tt.input, last, tt.want)
		}
	}
}

func TestTokenizeUnicodeWord(t *testing.T) {
	tokens := Tokenize("étiquette 1", 1)
	if tokens[0].Type != TokenWord || tokens[0].Literal != "étiquette" {
		t.Errorf("tokens[0] = %s", tokens[0])
	}
	if tokens[1].Pos.Column != 11 {
		t.Errorf("column after multibyte word = %d, want 11", tokens[1].Pos.Column)
	}
}
