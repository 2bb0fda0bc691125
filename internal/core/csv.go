package core

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-gota/gota/dataframe"
)

// TemplateColumns is the header of the downloadable lead template.
var TemplateColumns = []string{
	"ENTREPRISE", "TELEPHONE", "EMAIL", "SIRET", "DOMAINE", "SOURCE",
	"LEAD_CERTIFIÉ", "DATE_CONSENTEMENT", "PREUVE_CONSENTEMENT", "COMMENTAIRE",
}

// CountDataLines returns the number of non-blank lines minus the header, never negative.
func CountDataLines(content []byte) int {
	n := 0
	for _, line := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	if n <= 1 {
		return 0
	}
	return n - 1
}

// InspectColumns compares the header row with the template and returns one
// warning per missing column. It never rejects a file.
func InspectColumns(content []byte) []string {
	header := firstLine(content)
	if header == "" {
		return []string{"file has no header row"}
	}

	delimiter := ','
	if strings.Count(header, ";") >= strings.Count(header, ",") && strings.Contains(header, ";") {
		delimiter = ';'
	}
	df := dataframe.ReadCSV(strings.NewReader(header),
		dataframe.WithDelimiter(delimiter),
		dataframe.WithLazyQuotes(true),
		dataframe.HasHeader(false),
		dataframe.DetectTypes(false),
	)
	if df.Err != nil {
		return []string{fmt.Sprintf("could not read header row: %v", df.Err)}
	}

	present := make(map[string]bool, df.Ncol())
	for c := 0; c < df.Ncol(); c++ {
		present[normalizeColumn(df.Elem(0, c).String())] = true
	}
	var warnings []string
	for _, col := range TemplateColumns {
		if !present[col] {
			warnings = append(warnings, fmt.Sprintf("missing column %s", col))
		}
	}
	return warnings
}

func firstLine(content []byte) string {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	for _, line := range strings.Split(string(content), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

func normalizeColumn(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
