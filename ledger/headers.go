package ledger

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// HEADER MATCHING - Case- and accent-insensitive column recognition
// =============================================================================

// FoldHeader reduces a header to its comparison key: lower case, no accents,
// punctuation turned into spaces, whitespace collapsed.
//
//	FoldHeader("  Cuota N° 1 ") == "cuota n 1"
//	FoldHeader("Inscriptos")    == "inscriptos"
func FoldHeader(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	folded = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, folded)
	return strings.Join(strings.Fields(folded), " ")
}

var (
	firstNameHeaders = []string{"nombre", "nombres", "first name", "firstname"}
	lastNameHeaders  = []string{"apellido", "apellidos", "last name", "lastname"}
	fullNameHeaders  = []string{
		"nombre y apellido", "apellido y nombre", "nombre completo",
		"participante", "full name", "name",
	}
	totalHeaders = []string{
		"total", "total pagado", "monto total", "total abonado", "pagado", "abonado",
	}
	registeredHeaders = []string{
		"inscriptos", "inscritos", "registrados", "anotados", "cantidad inscriptos",
		"cantidad", "registered",
	}
)

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

var ordinals = [...]string{"primera", "segunda", "tercera", "cuarta", "quinta", "sexta"}

// SpanishMonth returns the lower-case Spanish name of m.
func SpanishMonth(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return spanishMonths[m-1]
}

// installmentHeaders lists the recognized spellings for installment i (0-based):
// "cuota 1", "cuota1", "c1", "1ra cuota", "primera cuota" and the Spanish name
// of the month the installment falls due in.
func installmentHeaders(i int, startMonth time.Month) []string {
	n := strconv.Itoa(i + 1)
	headers := []string{"cuota " + n, "cuota" + n, "c" + n, "cuota n " + n, "cuota nro " + n}
	switch i {
	case 0:
		headers = append(headers, "1ra cuota", "1er cuota", "1era cuota")
	case 1:
		headers = append(headers, "2da cuota", "2do cuota")
	case 2:
		headers = append(headers, "3ra cuota", "3er cuota", "3era cuota")
	}
	if i < len(ordinals) {
		headers = append(headers, ordinals[i]+" cuota")
	}
	if startMonth >= time.January && startMonth <= time.December {
		month := time.Month((int(startMonth)-1+i)%12 + 1)
		headers = append(headers, SpanishMonth(month))
	}
	return headers
}

// columnMap resolves the header names of one row to the roles they play.
type columnMap struct {
	firstName    string
	lastName     string
	fullName     string
	total        string
	registered   string
	installments []string
}

func resolveColumns(row RawRow, plan Plan, startMonth time.Month) columnMap {
	folded := make(map[string]string, len(row))
	for header := range row {
		key := FoldHeader(header)
		if prev, ok := folded[key]; !ok || header < prev {
			folded[key] = header
		}
	}
	find := func(candidates []string) string {
		for _, c := range candidates {
			if original, ok := folded[c]; ok {
				return original
			}
		}
		return ""
	}

	cm := columnMap{
		firstName:  find(firstNameHeaders),
		lastName:   find(lastNameHeaders),
		fullName:   find(fullNameHeaders),
		total:      find(totalHeaders),
		registered: find(registeredHeaders),
	}
	cm.installments = make([]string, plan.Count)
	for i := range cm.installments {
		cm.installments[i] = find(installmentHeaders(i, startMonth))
	}
	return cm
}
