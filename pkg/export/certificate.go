package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// CertificateData carries the fields printed on a donation certificate.
type CertificateData struct {
	CertificateID string
	DonorName     string
	OrganType     string
	HospitalName  string
	CompletedAt   time.Time
	IssuerName    string
}

// CertificateRenderer produces landscape A4 donation certificates.
type CertificateRenderer struct {
	issuerName string
}

// NewCertificateRenderer constructs a renderer with a default issuer line.
func NewCertificateRenderer(issuerName string) *CertificateRenderer {
	if issuerName == "" {
		issuerName = "Lifeline Donation Network"
	}
	return &CertificateRenderer{issuerName: issuerName}
}

// Render produces the certificate PDF.
func (r *CertificateRenderer) Render(data CertificateData) ([]byte, error) {
	if data.DonorName == "" {
		return nil, fmt.Errorf("certificate requires a donor name")
	}
	issuer := data.IssuerName
	if issuer == "" {
		issuer = r.issuerName
	}
	completed := data.CompletedAt
	if completed.IsZero() {
		completed = time.Now().UTC()
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	pdf.SetLineWidth(1.2)
	pdf.Rect(10, 10, pageW-20, pageH-20, "D")
	pdf.SetLineWidth(0.3)
	pdf.Rect(13, 13, pageW-26, pageH-26, "D")

	pdf.SetFont("Times", "B", 30)
	pdf.CellFormat(0, 24, "CERTIFICATE OF APPRECIATION", "", 1, "C", false, 0, "")

	pdf.SetFont("Times", "", 13)
	pdf.CellFormat(0, 10, "This certificate is proudly presented to", "", 1, "C", false, 0, "")

	pdf.SetFont("Times", "B", 26)
	pdf.CellFormat(0, 18, data.DonorName, "", 1, "C", false, 0, "")

	pdf.SetFont("Times", "", 13)
	body := fmt.Sprintf("in recognition of the selfless donation of a %s, completed at %s on %s.",
		strings.ToLower(data.OrganType), data.HospitalName, completed.Format("2 January 2006"))
	pdf.MultiCell(0, 8, body, "", "C", false)

	pdf.Ln(14)
	pdf.SetFont("Times", "I", 12)
	pdf.CellFormat(0, 8, issuer, "", 1, "C", false, 0, "")

	pdf.SetFont("Times", "", 9)
	pdf.SetY(pageH - 28)
	pdf.CellFormat(0, 6, fmt.Sprintf("Certificate ID: %s", data.CertificateID), "", 1, "C", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}
