package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAcceptsPDF(t *testing.T) {
	cases := []struct {
		name        string
		contentType string
		filename    string
		want        bool
	}{
		{"canonical mime", "application/pdf", "acta.pdf", true},
		{"canonical mime, odd extension", "application/pdf", "acta.dat", true},
		{"legacy acrobat mime", "application/acrobat", "acta.pdf", true},
		{"x-pdf mime", "application/x-pdf", "acta.pdf", true},
		{"vnd mime", "application/vnd.pdf", "acta.pdf", true},
		{"text pdf mime", "text/pdf", "acta.pdf", true},
		{"uppercase with charset", "Application/PDF; charset=binary", "acta.pdf", true},
		{"octet-stream with pdf extension", "application/octet-stream", "acta.pdf", true},
		{"octet-stream uppercase extension", "application/octet-stream", "ACTA.PDF", true},
		{"empty type with pdf extension", "", "acta.pdf", true},
		{"binary octet-stream with pdf extension", "binary/octet-stream", "acta.pdf", true},
		{"octet-stream without pdf extension", "application/octet-stream", "acta.txt", false},
		{"empty type without extension", "", "acta", false},
		{"plain text", "text/plain", "acta.pdf", false},
		{"image", "image/png", "acta.pdf", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AcceptsPDF(tc.contentType, tc.filename))
		})
	}
}

func TestRepairOriginalName(t *testing.T) {
	// The classic double-encoding: UTF-8 bytes read once as Latin-1.
	assert.Equal(t, "Planeación.pdf", RepairOriginalName("PlaneaciÃ³n.pdf"))
	assert.Equal(t, "Logística.pdf", RepairOriginalName("LogÃ­stica.pdf"))

	// Healthy names pass through untouched.
	assert.Equal(t, "Planeación.pdf", RepairOriginalName("Planeación.pdf"))
	assert.Equal(t, "plain.pdf", RepairOriginalName("plain.pdf"))

	// Names that merely contain a telltale rune but are not mojibake are
	// kept as-is rather than corrupted further.
	legit := "Âncora.pdf"
	repaired := RepairOriginalName(legit)
	assert.False(t, strings.ContainsRune(repaired, '�'))
}

func TestGeneratedFilename(t *testing.T) {
	name := generatedFilename("Acta de Apertura.PDF")
	assert.True(t, strings.HasPrefix(name, "document-"))
	assert.True(t, strings.HasSuffix(name, ".pdf"))
	assert.NotEqual(t, name, generatedFilename("Acta de Apertura.PDF"))
}
