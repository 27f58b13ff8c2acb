package dosage

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/erx/erx/internal/platform/fhir"
)

// externalMarker flags a dose managed outside the prescription ("Dosierung
// siehe Medikationsplan" style marker).
const externalMarker = "DJ"

const maxSegments = 4

var segmentSlots = [maxSegments]DayTime{Morning, Noon, Evening, Night}

// Parse interprets a free-text dosage instruction such as "1-0-1" or
// "<<1-0-1-½>>". It never fails: text that does not follow the
// morning-noon-evening(-night) pattern yields FreeText or Empty.
func Parse(text *string) Instruction {
	if text == nil {
		return Empty()
	}
	return ParseText(*text)
}

// ParseText is Parse for a non-optional string.
func ParseText(text string) Instruction {
	cleaned := strings.NewReplacer("<<", "", ">>", "").Replace(text)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return Empty()
	}
	if strings.EqualFold(cleaned, externalMarker) {
		return External()
	}

	segments := strings.Split(cleaned, "-")
	if len(segments) > maxSegments || len(segments) < 3 {
		return FreeText(text)
	}

	interpretation := make(map[DayTime]string, len(segments))
	numeric := false
	blank := true
	for i, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		blank = false
		amount, ok := ParseAmount(seg)
		if !ok {
			continue
		}
		numeric = true
		if amount.IsZero() {
			continue
		}
		interpretation[segmentSlots[i]] = seg
	}

	switch {
	case len(interpretation) > 0:
		return Structured(text, interpretation)
	case numeric || blank:
		return Empty()
	default:
		return FreeText(text)
	}
}

// ParseAmount reads a dosage amount: integers, decimals with "." or ",",
// vulgar fractions ("½"), "a/b" and sums separated by spaces ("2 ½").
func ParseAmount(s string) (decimal.Decimal, bool) {
	fields := strings.Fields(expandFractions(strings.ReplaceAll(s, ",", ".")))
	if len(fields) == 0 {
		return decimal.Zero, false
	}
	sum := decimal.Zero
	for _, f := range fields {
		d, ok := parseTerm(f)
		if !ok {
			return decimal.Zero, false
		}
		sum = sum.Add(d)
	}
	return sum, true
}

// expandFractions rewrites vulgar fraction characters to " a/b " using their
// compatibility decomposition (½ -> 1⁄2).
func expandFractions(s string) string {
	var b strings.Builder
	for _, r := range s {
		if !unicode.Is(unicode.No, r) {
			b.WriteRune(r)
			continue
		}
		decomposed := norm.NFKC.String(string(r))
		if !strings.ContainsRune(decomposed, '⁄') {
			b.WriteRune(r)
			continue
		}
		b.WriteByte(' ')
		b.WriteString(strings.ReplaceAll(decomposed, "⁄", "/"))
		b.WriteByte(' ')
	}
	return b.String()
}

func parseTerm(term string) (decimal.Decimal, bool) {
	if num, den, ok := strings.Cut(term, "/"); ok {
		n, err := decimal.NewFromString(num)
		if err != nil {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(den)
		if err != nil || d.IsZero() {
			return decimal.Zero, false
		}
		return n.Div(d), true
	}
	if strings.ContainsAny(term, "eE") {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(term)
	if err != nil || d.IsNegative() {
		return decimal.Zero, false
	}
	return d, true
}

// MultiplyMedicationAmount scales the numerator of ratio by factor and
// returns a new ratio. Comma decimals are normalized to dots. A nil ratio
// yields nil; a numerator that is not a number is copied unchanged.
func MultiplyMedicationAmount(ratio *fhir.Ratio, factor int) *fhir.Ratio {
	if ratio == nil {
		return nil
	}
	out := &fhir.Ratio{}
	if ratio.Denominator != nil {
		den := *ratio.Denominator
		out.Denominator = &den
	}
	if ratio.Numerator != nil {
		num := *ratio.Numerator
		value := strings.ReplaceAll(strings.TrimSpace(num.Value), ",", ".")
		if d, err := decimal.NewFromString(value); err == nil {
			num.Value = d.Mul(decimal.NewFromInt(int64(factor))).String()
		}
		out.Numerator = &num
	}
	return out
}
