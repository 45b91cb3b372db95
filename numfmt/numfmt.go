// Package numfmt resolves number-format codes for the two places the
// core actually needs them, per spec.md §1/§3/§4.4.2/§4.6: classifying a
// format well enough for set_user_input to auto-derive one from
// recognized currency/percentage/date input, and for the evaluator's
// limited string coercion of a formatted numeric cell. Producing a full
// formatted *display* string is an explicit non-goal; where this package
// does render text it delegates the format-code grammar itself to
// github.com/xuri/nfp rather than hand-rolling a second format-code
// parser alongside the one already in the pack (grounded on
// TsubasaBE-go-xlsb and artukn-excelize, both of which depend on nfp
// directly for this exact concern).
package numfmt

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/nfp"
)

// Class is the coarse shape set_user_input (§4.6) and the anchor
// locale tests need to auto-derive a format from typed text.
type Class uint8

const (
	ClassGeneral Class = iota
	ClassCurrency
	ClassPercentage
	ClassDate
	ClassTime
)

// Classify inspects a format code string and reports its coarse class.
// This is a cheap heuristic over the code's literal characters (currency
// symbols, '%', date/time tokens), not a full grammar parse; nfp is used
// below only where an actual rendered string is required.
func Classify(code string) Class {
	switch {
	case strings.ContainsAny(code, "$€£¥"):
		return ClassCurrency
	case strings.Contains(code, "%"):
		return ClassPercentage
	case strings.ContainsAny(code, "yYmMdD") && strings.ContainsAny(code, "/-"):
		return ClassDate
	case strings.ContainsAny(code, "hHsS") && strings.Contains(code, ":"):
		return ClassTime
	default:
		return ClassGeneral
	}
}

// DefaultFormatFor returns the auto-derived number-format code for a
// Class, used by set_user_input when it recognizes a currency/percentage
// prefix or suffix on typed input (spec.md §4.6).
func DefaultFormatFor(c Class) string {
	switch c {
	case ClassCurrency:
		return "$#,##0.00"
	case ClassPercentage:
		return "0.00%"
	case ClassDate:
		return "m/d/yyyy"
	case ClassTime:
		return "h:mm:ss"
	default:
		return "General"
	}
}

// Render formats value under format code, used by the workbook's
// get_formatted_cell_value convenience method (spec.md §6) and by TEXT()
// (spec.md §5) — a thin, best-effort pass-through to nfp's grammar, not a
// core evaluation path. On any parse failure it falls back to a plain
// decimal rendering so a malformed/unsupported format code never breaks
// cell display.
func Render(value float64, code string) string {
	if code == "" || code == "General" {
		return ToExcelPrecisionString(value)
	}
	ps := nfp.NumberFormatParser()
	sections := ps.Parse(code)
	if len(sections) == 0 {
		return ToExcelPrecisionString(value)
	}
	sec := selectSection(sections, value)
	if isDateFormatCode(code) {
		return renderDateTime(value, sec)
	}
	return renderNumber(value, sec, sections)
}

// selectSection picks the section that applies to value, following the
// same 1/2/3(+)-section convention as spec.md's locale grammar: a single
// section applies to every value; two sections split positive+zero from
// negative; three or more add a dedicated zero section (a trailing
// fourth, text, section never applies here since Render only ever sees
// numbers).
func selectSection(sections []nfp.Section, val float64) nfp.Section {
	switch {
	case len(sections) == 1:
		return sections[0]
	case len(sections) == 2:
		if val < 0 {
			return sections[1]
		}
		return sections[0]
	default:
		switch {
		case val > 0:
			return sections[0]
		case val < 0:
			return sections[1]
		default:
			return sections[2]
		}
	}
}

// isDateFormatCode reports whether code looks like a date/time format by
// scanning its unquoted, unbracketed content for date/time token
// characters. This package has no numFmtID to consult (unlike
// TsubasaBE-go-xlsb's styles.isDateFormatID, which this mirrors), so it
// leans entirely on the literal characters in code, the same signal
// Classify already uses above.
func isDateFormatCode(code string) bool {
	inQuote, inBracket := false, false
	for _, ch := range code {
		switch {
		case inQuote:
			if ch == '"' {
				inQuote = false
			}
		case inBracket:
			if ch == ']' {
				inBracket = false
			}
		case ch == '"':
			inQuote = true
		case ch == '[':
			inBracket = true
		case ch == 'd' || ch == 'D' || ch == 'm' || ch == 'M' ||
			ch == 'y' || ch == 'Y' || ch == 'h' || ch == 'H':
			return true
		}
	}
	return false
}

// renderDateTime walks sec's tokens rendering each date/time/literal
// token for the Excel serial value. On any conversion failure it falls
// back to a plain decimal rendering of the serial itself.
func renderDateTime(serial float64, sec nfp.Section) string {
	t, err := serialToTime(serial)
	if err != nil {
		return ToExcelPrecisionString(serial)
	}

	hasAmPm := false
	for _, tok := range sec.Items {
		if tok.TType == nfp.TokenTypeDateTimes {
			upper := strings.ToUpper(tok.TValue)
			if upper == "AM/PM" || upper == "A/P" {
				hasAmPm = true
				break
			}
		}
	}

	var sb strings.Builder
	lastWasHour := false
	for _, tok := range sec.Items {
		switch tok.TType {
		case nfp.TokenTypeDateTimes:
			upper := strings.ToUpper(tok.TValue)
			sb.WriteString(renderDateToken(upper, t, hasAmPm, lastWasHour))
			lastWasHour = upper == "H" || upper == "HH"
		case nfp.TokenTypeElapsedDateTimes:
			upper := strings.ToUpper(tok.TValue)
			sb.WriteString(renderElapsed(upper, serial))
			lastWasHour = upper == "H" || upper == "HH"
		case nfp.TokenTypeLiteral:
			// A literal separator between an hour and a following M/MM
			// (e.g. ":") must not break the minute-vs-month disambiguation,
			// so lastWasHour is left untouched here.
			sb.WriteString(tok.TValue)
		default:
			lastWasHour = false
		}
	}
	if sb.Len() == 0 {
		return ToExcelPrecisionString(serial)
	}
	return sb.String()
}

// renderDateToken renders a single date/time token already upper-cased.
// lastWasHour disambiguates M/MM as minutes (following an hour token)
// instead of month.
func renderDateToken(upper string, t time.Time, hasAmPm, lastWasHour bool) string {
	switch upper {
	case "YYYY":
		return fmt.Sprintf("%04d", t.Year())
	case "YY":
		return fmt.Sprintf("%02d", t.Year()%100)
	case "MMMM":
		return t.Month().String()
	case "MMM":
		return t.Month().String()[:3]
	case "MM":
		if lastWasHour {
			return fmt.Sprintf("%02d", t.Minute())
		}
		return fmt.Sprintf("%02d", int(t.Month()))
	case "M":
		if lastWasHour {
			return strconv.Itoa(t.Minute())
		}
		return strconv.Itoa(int(t.Month()))
	case "DDDD":
		return t.Weekday().String()
	case "DDD":
		return t.Weekday().String()[:3]
	case "DD":
		return fmt.Sprintf("%02d", t.Day())
	case "D":
		return strconv.Itoa(t.Day())
	case "HH":
		h := t.Hour()
		if hasAmPm {
			h = twelveHour(h)
		}
		return fmt.Sprintf("%02d", h)
	case "H":
		h := t.Hour()
		if hasAmPm {
			h = twelveHour(h)
		}
		return strconv.Itoa(h)
	case "SS":
		return fmt.Sprintf("%02d", t.Second())
	case "S":
		return strconv.Itoa(t.Second())
	case "AM/PM":
		if t.Hour() < 12 {
			return "AM"
		}
		return "PM"
	case "A/P":
		if t.Hour() < 12 {
			return "A"
		}
		return "P"
	}
	return ""
}

func twelveHour(h int) int {
	h = h % 12
	if h == 0 {
		h = 12
	}
	return h
}

// renderElapsed renders an elapsed-time token ([h], [mm], [ss] — brackets
// already stripped by nfp) against the raw fractional-day serial, so an
// elapsed hour count can exceed 24 instead of wrapping like a clock hour.
func renderElapsed(upper string, serial float64) string {
	switch upper {
	case "H", "HH":
		return strconv.Itoa(int(serial * 24))
	case "MM":
		return fmt.Sprintf("%02d", int(serial*24*60)%60)
	case "M":
		return strconv.Itoa(int(serial*24*60) % 60)
	case "SS":
		return fmt.Sprintf("%02d", int(serial*24*3600)%60)
	case "S":
		return strconv.Itoa(int(serial*24*3600) % 60)
	}
	return ""
}

// serialToTime converts an Excel serial to a time.Time under the same
// 1900 date system classifyDate (cellio.go) and eval's serialToDate use:
// serials from 61 (March 1, 1900) on count days from December 30, 1899,
// lower serials are shifted by one day so that serial 1 is January 1,
// 1900, and serial 60, the fictitious February 29, 1900, renders as
// March 1, 1900.
func serialToTime(serial float64) (time.Time, error) {
	if serial < 0 {
		return time.Time{}, fmt.Errorf("numfmt: invalid serial %v", serial)
	}
	fracSec := int64((serial - float64(int64(serial))) * 86400)
	if fracSec < 0 {
		fracSec = 0
	}
	intPart := int64(serial)
	if intPart < 61 {
		intPart++
	}
	base := time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, int(intPart)).Add(time.Duration(fracSec) * time.Second), nil
}

// renderNumber renders a non-date value by walking sec's placeholder,
// decimal-point, percent, thousands-separator and literal tokens. sections
// is the full parsed set, needed only to tell whether a negative value's
// own section already encodes its sign (e.g. via parentheses) rather than
// requiring a leading minus.
func renderNumber(val float64, sec nfp.Section, sections []nfp.Section) string {
	var hasPercent, hasThousands, hasDecimal, hasExplicitSign bool
	var decZeros, decHashes, intZeros int
	afterDecimal := false
	for _, tok := range sec.Items {
		switch tok.TType {
		case nfp.TokenTypePercent:
			hasPercent = true
		case nfp.TokenTypeThousandsSeparator:
			hasThousands = true
		case nfp.TokenTypeDecimalPoint:
			hasDecimal = true
			afterDecimal = true
		case nfp.TokenTypeZeroPlaceHolder:
			if afterDecimal {
				decZeros += len(tok.TValue)
			} else {
				intZeros += len(tok.TValue)
			}
		case nfp.TokenTypeHashPlaceHolder:
			if afterDecimal {
				decHashes += len(tok.TValue)
			}
		case nfp.TokenTypeLiteral:
			if tok.TValue == "+" || tok.TValue == "-" {
				hasExplicitSign = true
			}
		}
	}
	totalDecPlaces := decZeros + decHashes

	absVal := math.Abs(val)
	if hasPercent {
		absVal *= 100
	}

	var intStr, fracStr string
	if hasDecimal {
		formatted := strconv.FormatFloat(absVal, 'f', totalDecPlaces, 64)
		dotIdx := strings.IndexByte(formatted, '.')
		if dotIdx >= 0 {
			intStr, fracStr = formatted[:dotIdx], formatted[dotIdx+1:]
		} else {
			intStr, fracStr = formatted, strings.Repeat("0", totalDecPlaces)
		}
		if decHashes > 0 && len(fracStr) > decZeros {
			trimTo := len(fracStr)
			for trimTo > decZeros && trimTo > 0 && fracStr[trimTo-1] == '0' {
				trimTo--
			}
			fracStr = fracStr[:trimTo]
		}
	} else {
		intStr = strconv.FormatFloat(absVal, 'f', 0, 64)
	}

	for len(intStr) < intZeros {
		intStr = "0" + intStr
	}
	if hasThousands && len(intStr) > 3 {
		intStr = insertThousandsSep(intStr)
	}

	needsMinus := val < 0 && !hasExplicitSign && len(sections) < 2

	var sb strings.Builder
	if needsMinus {
		sb.WriteByte('-')
	}
	intConsumed, fracConsumed := false, false
	afterDecimal = false
	for _, tok := range sec.Items {
		switch tok.TType {
		case nfp.TokenTypeLiteral:
			sb.WriteString(tok.TValue)
		case nfp.TokenTypeDecimalPoint:
			if len(fracStr) > 0 {
				sb.WriteByte('.')
			}
			afterDecimal = true
		case nfp.TokenTypeZeroPlaceHolder, nfp.TokenTypeHashPlaceHolder:
			if afterDecimal {
				if !fracConsumed {
					sb.WriteString(fracStr)
					fracConsumed = true
				}
			} else if !intConsumed {
				sb.WriteString(intStr)
				intConsumed = true
			}
		case nfp.TokenTypePercent:
			sb.WriteByte('%')
		}
	}
	if !intConsumed && !afterDecimal {
		sb.WriteString(intStr)
	}
	if sb.Len() == 0 {
		return ToExcelPrecisionString(val)
	}
	return sb.String()
}

// insertThousandsSep inserts a comma every three digits from the right in
// an unsigned integer digit string.
func insertThousandsSep(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var b strings.Builder
	b.Grow(n + n/3)
	rem := n % 3
	if rem == 0 {
		rem = 3
	}
	b.WriteString(s[:rem])
	for i := rem; i < n; i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// ToExcelPrecisionString renders a float at 15 significant digits, the
// precision spec.md §4.4.3 requires for to-string coercion of a computed
// number: Excel's binary-to-decimal rounding keeps 15 significant digits
// stable and drops the rest, which avoids surfacing IEEE-754 noise like
// 2.3000000000000003 to a formula that concatenates a number into text.
func ToExcelPrecisionString(value float64) string {
	return formatSignificant(value, 15)
}

// ToExcelPrecisionString16 is the 16-significant-digit variant spec.md
// §4.4.3 calls out for DELTA/GESTEP's tolerance comparison.
func ToExcelPrecisionString16(value float64) string {
	return formatSignificant(value, 16)
}

func formatSignificant(value float64, digits int) string {
	if value == 0 {
		return "0"
	}
	s := strconv.FormatFloat(value, 'g', digits, 64)
	if strings.ContainsAny(s, "eE") {
		return s
	}
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	return s
}
