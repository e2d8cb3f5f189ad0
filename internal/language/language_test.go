package language

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Variant
	}{
		{"cht marker", "[Lilith-Raws] Show - 01 [CHT].ass", Traditional},
		{"traditional wins over simplified", "[Group] Show - 01 [CHS][CHT].ass", Traditional},
		{"zh-tw tag", "Show S01E01.zh-tw.ass", Traditional},
		{"cjk traditional", "Show 01 繁体.srt", Traditional},
		{"chs marker", "[Group] Show - 01 [CHS].ass", Simplified},
		{"cjk simplified", "Show 01 简体.srt", Simplified},
		{"zh tag", "Show S01E01.zh.ass", Simplified},
		{"no marker", "[Group] Show - 01 [JPN].ass", Undefined},
		{"empty", "", Undefined},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.input); got != tt.expected {
				t.Fatalf("Classify(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestVariantTag(t *testing.T) {
	if Traditional.Tag() != "zh-tw" {
		t.Fatalf("unexpected traditional tag %q", Traditional.Tag())
	}
	if Simplified.Tag() != "zh" {
		t.Fatalf("unexpected simplified tag %q", Simplified.Tag())
	}
	if Undefined.Tag() != "" || Undefined.Defined() {
		t.Fatal("undefined variant must have no tag")
	}
}

func TestParseTagRoundTrip(t *testing.T) {
	for _, v := range []Variant{Traditional, Simplified} {
		if got := ParseTag(v.Tag()); got != v {
			t.Fatalf("ParseTag(%q) = %v, want %v", v.Tag(), got, v)
		}
	}
	if ParseTag("en") != Undefined {
		t.Fatal("expected unknown tag to be undefined")
	}
}
