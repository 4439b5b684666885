// Scanner tests: exercise the token stream directly against expected
// (kind, literal) pairs plus line and column tracking.

package chasm

import (
	"testing"

	"github.com/nalgeon/be"
)

func scanAll(t *testing.T, src string) []Token {
	t.Helper()
	sc := NewScanner(src)
	var toks []Token
	for {
		tok, err := sc.Next()
		be.Err(t, err, nil)
		toks = append(toks, tok)
		if tok.Kind == KindEOF {
			return toks
		}
	}
}

func TestScannerKeywordsAndIdents(t *testing.T) {
	toks := scanAll(t, "var while endwhile if else endif proc endproc print setpixel abc")
	kinds := []Kind{KindVar, KindWhile, KindEndWhile, KindIf, KindElse, KindEndIf, KindProc, KindEndProc, KindPrint, KindSetPixel, KindIdent, KindEOF}
	be.Equal(t, len(toks), len(kinds))
	for i, k := range kinds {
		be.Equal(t, toks[i].Kind, k)
	}
}

func TestScannerOperators(t *testing.T) {
	toks := scanAll(t, "= == < > + - * / && || ( ) ,")
	kinds := []Kind{
		KindAssign, KindEq, KindLt, KindGt, KindPlus, KindMinus, KindStar, KindSlash,
		KindAnd, KindOr, KindLParen, KindRParen, KindComma, KindEOF,
	}
	be.Equal(t, len(toks), len(kinds))
	for i, k := range kinds {
		be.Equal(t, toks[i].Kind, k)
	}
}

func TestScannerNumbers(t *testing.T) {
	toks := scanAll(t, "42 3.14 1e10 1.5e-3")
	be.Equal(t, toks[0].Literal, "42")
	be.Equal(t, toks[1].Literal, "3.14")
	be.Equal(t, toks[2].Literal, "1e10")
	be.Equal(t, toks[3].Literal, "1.5e-3")
	for _, tok := range toks[:4] {
		be.Equal(t, tok.Kind, KindNumber)
	}
}

func TestScannerLeadingMinusIsNotPartOfNumber(t *testing.T) {
	toks := scanAll(t, "-1")
	be.Equal(t, len(toks), 3)
	be.Equal(t, toks[0].Kind, KindMinus)
	be.Equal(t, toks[1].Kind, KindNumber)
	be.Equal(t, toks[1].Literal, "1")
	be.Equal(t, toks[2].Kind, KindEOF)
}

func TestScannerSkipsWhitespaceAndTracksLines(t *testing.T) {
	toks := scanAll(t, "var x\n  = 1")
	be.Equal(t, toks[0].Line, 1)
	be.Equal(t, toks[0].Char, 1)
	be.Equal(t, toks[1].Line, 1)
	be.Equal(t, toks[1].Char, 5)
	be.Equal(t, toks[2].Line, 2)
	be.Equal(t, toks[2].Char, 3)
}

func TestScannerEofIsSticky(t *testing.T) {
	sc := NewScanner("")
	tok1, err1 := sc.Next()
	tok2, err2 := sc.Next()
	be.Err(t, err1, nil)
	be.Err(t, err2, nil)
	be.Equal(t, tok1.Kind, KindEOF)
	be.Equal(t, tok2.Kind, KindEOF)
}

func TestScannerUnexpectedChar(t *testing.T) {
	sc := NewScanner("@")
	_, err := sc.Next()
	be.Equal(t, err != nil, true)
	cerr, ok := err.(*Error)
	be.True(t, ok)
	be.Equal(t, cerr.Kind, UnexpectedChar)
	be.Equal(t, cerr.Token.Literal, "@")
	be.Equal(t, cerr.Token.Line, 1)
	be.Equal(t, cerr.Token.Char, 1)
}

func TestScannerEveryNonEofTokenHasLiteral(t *testing.T) {
	toks := scanAll(t, "var x = (1 + 2) print x")
	for _, tok := range toks {
		if tok.Kind == KindEOF {
			continue
		}
		be.True(t, tok.Literal != "")
	}
}
