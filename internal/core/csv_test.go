package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountDataLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"empty", "", 0},
		{"header only", "ENTREPRISE;TELEPHONE\n", 0},
		{"three rows", "H\na\nb\nc\n", 3},
		{"no trailing newline", "H\na\nb", 2},
		{"blank lines ignored", "H\n\na\n   \nb\n\n", 2},
		{"crlf", "H\r\na\r\nb\r\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountDataLines([]byte(tt.content)))
		})
	}
}

func TestInspectColumns(t *testing.T) {
	full := strings.Join(TemplateColumns, ";") + "\nAcme;0102030405;a@b.c;1;Tech;Web;oui;2024-01-01;x;\n"
	assert.Empty(t, InspectColumns([]byte(full)))

	warnings := InspectColumns([]byte("\xef\xbb\xbfentreprise;telephone;email\nAcme;01;a@b.c\n"))
	assert.Len(t, warnings, len(TemplateColumns)-3)
	assert.Contains(t, warnings, "missing column SIRET")
	assert.NotContains(t, warnings, "missing column EMAIL")

	commas := InspectColumns([]byte("ENTREPRISE,TELEPHONE\nAcme,01\n"))
	assert.NotContains(t, commas, "missing column TELEPHONE")

	assert.Equal(t, []string{"file has no header row"}, InspectColumns([]byte("\n\n")))
}
