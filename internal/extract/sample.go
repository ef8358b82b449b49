package extract

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

const (
	sampleMargin     = 72.0
	sampleLineHeight = 15.0
	sampleGap        = 12.0
)

var sampleHeadings = map[string]bool{
	"Machine Learning":   true,
	"Deep Learning":      true,
	"Applications of AI": true,
}

var sampleLines = []string{
	"Introduction to Artificial Intelligence",
	"",
	"Artificial Intelligence (AI) is a branch of computer science that aims to create",
	"systems capable of performing tasks that typically require human intelligence.",
	"These tasks include learning, reasoning, problem-solving, perception, and",
	"language understanding.",
	"",
	"Machine Learning",
	"",
	"Machine Learning is a subset of AI that enables computers to learn and improve",
	"from experience without being explicitly programmed. It uses algorithms to",
	"analyze data, identify patterns, and make predictions or decisions.",
	"",
	"Deep Learning",
	"",
	"Deep Learning is a specialized subset of machine learning that uses neural",
	"networks with multiple layers to model and understand complex patterns in data.",
	"It has been particularly successful in image recognition, natural language",
	"processing, and speech recognition.",
	"",
	"Applications of AI",
	"",
	"AI has numerous applications across various industries:",
	"- Healthcare: Diagnosis assistance and drug discovery",
	"- Finance: Fraud detection and algorithmic trading",
	"- Transportation: Autonomous vehicles and traffic optimization",
	"- Education: Personalized learning and intelligent tutoring systems",
	"- Entertainment: Recommendation systems and content generation",
}

// SamplePDF writes a short letter-size document about artificial intelligence,
// useful for trying out uploads.
func SamplePDF(w io.Writer) error {
	doc := fpdf.New("P", "pt", "Letter", "")
	doc.SetAutoPageBreak(false, 0)
	doc.SetTitle("Sample Document for RAG Testing", false)
	doc.AddPage()
	_, height := doc.GetPageSize()

	doc.SetFont("Helvetica", "B", 16)
	doc.Text(sampleMargin, sampleMargin, "Sample Document for RAG Testing")

	y := sampleMargin + 48
	for _, line := range sampleLines {
		if line == "" {
			y += sampleGap
			continue
		}
		if sampleHeadings[line] {
			doc.SetFont("Helvetica", "B", 12)
		} else {
			doc.SetFont("Helvetica", "", 12)
		}
		doc.Text(sampleMargin, y, line)
		y += sampleLineHeight
		if y > height-sampleMargin {
			doc.AddPage()
			y = sampleMargin
		}
	}

	if err := doc.Output(w); err != nil {
		return fmt.Errorf("failed to write sample PDF: %w", err)
	}
	return nil
}
