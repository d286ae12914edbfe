package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/form"
	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/model"
)

const dateLayout = "02/01/2006 15:04"

// renderStatus prints the citizen view of a manifestation.
func renderStatus(out io.Writer, m *model.Manifestation, now time.Time) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Protocolo:\t%s\n", m.Protocol)
	fmt.Fprintf(tw, "Tipo:\t%s\n", model.Type(m.Type).Label())
	fmt.Fprintf(tw, "Órgão:\t%s\n", m.Department)
	fmt.Fprintf(tw, "Status:\t%s\n", m.Status.Label())
	fmt.Fprintf(tw, "Registrada em:\t%s\n", m.SubmittedAt.Local().Format(dateLayout))
	deadline := m.Deadline.Local().Format("02/01/2006")
	if m.Overdue(now) {
		deadline += " (prazo vencido)"
	}
	fmt.Fprintf(tw, "Previsão de resposta:\t%s\n", deadline)
	tw.Flush()

	if len(m.Attachments) > 0 {
		fmt.Fprintln(out, "\nAnexos:")
		for _, a := range m.Attachments {
			line := fmt.Sprintf("  %s: %s (%s)", a.TypeLabel, a.Name, form.HumanSize(a.Size))
			if a.Description != "" {
				line += " - " + a.Description
			}
			fmt.Fprintln(out, line)
		}
	}

	if len(m.History) > 0 {
		fmt.Fprintln(out, "\nHistórico:")
		for _, h := range m.History {
			fmt.Fprintf(out, "  %s  %s\n", h.Date.Local().Format(dateLayout), h.Description)
		}
	}

	if m.Response != nil {
		fmt.Fprintf(out, "\nResposta (%s):\n  %s\n", m.Response.Date.Local().Format("02/01/2006"), m.Response.Text)
	}
}
