package textsim

import "testing"

func TestTokenSetRatioIdenticalStrings(t *testing.T) {
	if r := TokenSetRatio("hello world", "hello world"); r != 100 {
		t.Fatalf("expected 100, got %d", r)
	}
}

func TestTokenSetRatioIgnoresWordOrder(t *testing.T) {
	if r := TokenSetRatio("critical exploit released today", "today a critical exploit released"); r < 90 {
		t.Fatalf("expected high ratio for reordered tokens, got %d", r)
	}
}

func TestTokenSetRatioUnrelatedStringsScoreLow(t *testing.T) {
	if r := TokenSetRatio("malware campaign targets banks", "lovely sunny day at the beach"); r > 40 {
		t.Fatalf("expected low ratio for unrelated strings, got %d", r)
	}
}

func TestTokenSetRatioPartialContainment(t *testing.T) {
	r := TokenSetRatio("exploit kit", "new exploit kit targets routers worldwide")
	if r < 80 {
		t.Fatalf("expected high ratio when one string contains the other's tokens, got %d", r)
	}
}

func TestRatioIdenticalStringsIsCaseInsensitive(t *testing.T) {
	if r := Ratio("RANSOMWARE", "ransomware"); r != 100 {
		t.Fatalf("expected 100, got %d", r)
	}
}

func TestRatioCatchesNearMisspelling(t *testing.T) {
	if r := Ratio("phishing", "phising"); r < 90 {
		t.Fatalf("expected high ratio for a single-letter typo, got %d", r)
	}
}

func TestRatioUnrelatedWordsScoreLow(t *testing.T) {
	if r := Ratio("malware", "umbrella"); r > 60 {
		t.Fatalf("expected low ratio for unrelated words, got %d", r)
	}
}
