package finance

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var idPrinter = message.NewPrinter(language.Indonesian)

// FormatIDR renders an amount in Indonesian rupiah notation, e.g.
// "Rp 1.000.000". Rounding to display precision happens here and only here.
func FormatIDR(amount decimal.Decimal) string {
	return idPrinter.Sprintf("Rp %v", number.Decimal(amount.InexactFloat64(), number.MaxFractionDigits(2)))
}

var terbilangUnits = []string{
	"", "Satu", "Dua", "Tiga", "Empat", "Lima",
	"Enam", "Tujuh", "Delapan", "Sembilan", "Sepuluh", "Sebelas",
}

// Terbilang spells out the integer rupiah part of an amount in Indonesian,
// as required on kwitansi documents. Negative amounts read as "Minus ...".
func Terbilang(amount decimal.Decimal) string {
	n := amount.IntPart()
	if n == 0 {
		return "Nol Rupiah"
	}
	prefix := ""
	if n < 0 {
		prefix = "Minus "
		n = -n
	}
	return prefix + strings.TrimSpace(spell(n)) + " Rupiah"
}

func spell(n int64) string {
	if n < 0 {
		n = -n
	}
	switch {
	case n < 12:
		return terbilangUnits[n]
	case n < 20:
		return spell(n-10) + " Belas"
	case n < 100:
		return join(spell(n/10)+" Puluh", spell(n%10))
	case n < 200:
		return join("Seratus", spell(n-100))
	case n < 1000:
		return join(spell(n/100)+" Ratus", spell(n%100))
	case n < 2000:
		return join("Seribu", spell(n-1000))
	case n < 1_000_000:
		return join(spell(n/1000)+" Ribu", spell(n%1000))
	case n < 1_000_000_000:
		return join(spell(n/1_000_000)+" Juta", spell(n%1_000_000))
	case n < 1_000_000_000_000:
		return join(spell(n/1_000_000_000)+" Miliar", spell(n%1_000_000_000))
	default:
		return join(spell(n/1_000_000_000_000)+" Triliun", spell(n%1_000_000_000_000))
	}
}

func join(head, tail string) string {
	if tail == "" {
		return head
	}
	return head + " " + tail
}
