package wikitext

import (
	"errors"
	"testing"
)

// ==================== Span Scanning Tests ====================

func TestFindSpansTopLevel(t *testing.T) {
	source := "intro {{one}} middle {{two|a=b}} outro"
	spans, err := FindSpans(source)
	if err != nil {
		t.Fatalf("FindSpans failed: %v", err)
	}
	if len(spans) != 2 {
		t.Fatalf("Expected 2 spans, got %d", len(spans))
	}
	if spans[0].Text(source) != "{{one}}" {
		t.Errorf("Expected first span '{{one}}', got %q", spans[0].Text(source))
	}
	if spans[1].Text(source) != "{{two|a=b}}" {
		t.Errorf("Expected second span '{{two|a=b}}', got %q", spans[1].Text(source))
	}
}

func TestFindSpansNestedNotSurfaced(t *testing.T) {
	source := "{{outer|x={{inner|1}}}}"
	spans, err := FindSpans(source)
	if err != nil {
		t.Fatalf("FindSpans failed: %v", err)
	}
	if len(spans) != 1 {
		t.Fatalf("Expected only the outer span, got %d spans", len(spans))
	}
	if spans[0].Text(source) != source {
		t.Errorf("Expected span to cover the whole source, got %q", spans[0].Text(source))
	}
}

func TestSubSpansRecursesOneLevel(t *testing.T) {
	source := "{{outer|x={{inner|1}}|y={{other}}}}"
	spans, err := FindSpans(source)
	if err != nil {
		t.Fatalf("FindSpans failed: %v", err)
	}
	sub, err := SubSpans(source, spans[0])
	if err != nil {
		t.Fatalf("SubSpans failed: %v", err)
	}
	if len(sub) != 2 {
		t.Fatalf("Expected 2 nested spans, got %d", len(sub))
	}
	if sub[0].Text(source) != "{{inner|1}}" {
		t.Errorf("Expected nested span '{{inner|1}}', got %q", sub[0].Text(source))
	}
	if sub[1].Text(source) != "{{other}}" {
		t.Errorf("Expected nested span '{{other}}', got %q", sub[1].Text(source))
	}
}

func TestFindSpansUnbalancedClose(t *testing.T) {
	_, err := FindSpans("{{t|a}}}}")
	if !errors.Is(err, ErrUnbalanced) {
		t.Fatalf("Expected ErrUnbalanced, got %v", err)
	}
}

func TestFindSpansUnclosedOpenIsNotAnError(t *testing.T) {
	spans, err := FindSpans("{{t|a")
	if err != nil {
		t.Fatalf("Unclosed open delimiter should not error, got %v", err)
	}
	if len(spans) != 0 {
		t.Errorf("Expected no spans, got %d", len(spans))
	}
}

func TestFindSpansLoneBracesAreText(t *testing.T) {
	spans, err := FindSpans("a { b } c {{t}} d } e")
	if err != nil {
		t.Fatalf("FindSpans failed: %v", err)
	}
	if len(spans) != 1 {
		t.Fatalf("Expected 1 span, got %d", len(spans))
	}
}

func TestNextSpanCursorAdvances(t *testing.T) {
	source := "{{a}} {{b}} {{c}}"
	cur := &Cursor{}

	sp, ok, err := NextSpan(source, cur)
	if err != nil || !ok {
		t.Fatalf("NextSpan failed: ok=%v err=%v", ok, err)
	}
	if sp.Text(source) != "{{a}}" {
		t.Errorf("Expected '{{a}}', got %q", sp.Text(source))
	}
	if cur.Pos != sp.End {
		t.Errorf("Cursor should sit past the span, got %d", cur.Pos)
	}

	// Rewind and re-scan the same span.
	cur.Pos = 0
	sp, ok, err = NextSpan(source, cur)
	if err != nil || !ok {
		t.Fatalf("NextSpan after rewind failed: ok=%v err=%v", ok, err)
	}
	if sp.Text(source) != "{{a}}" {
		t.Errorf("Expected rewound scan to re-yield '{{a}}', got %q", sp.Text(source))
	}

	// Skip ahead past the second span.
	cur.Pos = sp.End + len(" {{b}}")
	sp, ok, _ = NextSpan(source, cur)
	if !ok || sp.Text(source) != "{{c}}" {
		t.Errorf("Expected '{{c}}' after seek, got ok=%v %q", ok, sp.Text(source))
	}
}

func TestNextSpanExhaustion(t *testing.T) {
	cur := &Cursor{}
	_, ok, err := NextSpan("no templates here", cur)
	if err != nil {
		t.Fatalf("NextSpan failed: %v", err)
	}
	if ok {
		t.Error("Expected no span in plain text")
	}
}
