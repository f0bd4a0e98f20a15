package analytics

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// WritePDF renders the snapshot as a printable performance report.
func WritePDF(w io.Writer, snap Snapshot) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Performance Report")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	if snap.LastUpdated != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Last updated: %s", snap.LastUpdated.UTC().Format(time.RFC3339)))
		pdf.Ln(10)
	} else {
		pdf.Ln(6)
	}

	sectionTitle(pdf, "Users")
	for _, u := range snap.Users {
		pdf.Cell(0, 6, fmt.Sprintf("%s (%s): %d tasks, %d%% complete, %d projects",
			u.Name, u.Department, u.TotalTasks, u.CompletionRate, u.AssignedProjects))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	sectionTitle(pdf, "Departments")
	for _, d := range snap.Departments {
		pdf.Cell(0, 6, fmt.Sprintf("%s: %d members, %d tasks, %d%% complete, %d projects",
			d.Department, d.MemberCount, d.TotalTasks, d.CompletionRate, d.TotalProjects))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	sectionTitle(pdf, "Projects")
	for _, p := range snap.Projects {
		pdf.Cell(0, 6, fmt.Sprintf("%s: %d tasks, %d%% complete, budget %.1f%%, %s",
			p.Name, p.TotalTasks, p.CompletionRate, p.BudgetUtilization, p.DeadlineStatus))
		pdf.Ln(6)
	}

	return pdf.Output(w)
}

func sectionTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, title)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
}
