package usecase

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lmoretti/support-rag/internal/core/domain"
)

// ContextLimits bound the assembled context block: items per source type,
// characters per item, and a global character budget across both sections.
type ContextLimits struct {
	MaxTickets    int
	MaxGuides     int
	MaxItemChars  int
	MaxTotalChars int
}

func DefaultContextLimits() ContextLimits {
	return ContextLimits{
		MaxTickets:    5,
		MaxGuides:     3,
		MaxItemChars:  1500,
		MaxTotalChars: 15000,
	}
}

const (
	ticketsSectionHeader = "=== HISTORICAL TICKETS ===\n\n"
	guidesSectionHeader  = "=== PRODUCT GUIDES ===\n\n"
	truncationMarker     = "..."
	minUsefulItemChars   = 100
)

// Assembler turns ranked candidates into a single bounded text block.
// Output is deterministic for identical ranked input: items are taken in
// order, an over-budget item is truncated to the remaining space when at
// least a minimum useful length is left, and assembly stops there. Nothing
// is ever dropped from the middle or reordered.
type Assembler struct {
	limits ContextLimits
}

func NewAssembler(limits ContextLimits) *Assembler {
	if limits.MaxTotalChars <= 0 {
		limits = DefaultContextLimits()
	}
	return &Assembler{limits: limits}
}

func (a *Assembler) Assemble(tickets, guides []domain.Candidate) string {
	var b strings.Builder
	total := 0

	full := a.appendSection(&b, &total, ticketsSectionHeader, tickets, a.limits.MaxTickets, ticketHeader)
	if !full {
		a.appendSection(&b, &total, guidesSectionHeader, guides, a.limits.MaxGuides, guideHeader)
	}
	return b.String()
}

// appendSection writes one labeled section. It returns true once the global
// budget is exhausted so the caller stops accepting further sections.
func (a *Assembler) appendSection(
	b *strings.Builder,
	total *int,
	sectionHeader string,
	items []domain.Candidate,
	maxItems int,
	headerFn func(n int, c domain.Candidate) string,
) bool {
	if len(items) == 0 {
		return false
	}
	if maxItems > 0 && len(items) > maxItems {
		items = items[:maxItems]
	}
	if *total+len(sectionHeader) > a.limits.MaxTotalChars {
		return true
	}
	b.WriteString(sectionHeader)
	*total += len(sectionHeader)

	for i, item := range items {
		header := headerFn(i+1, item)
		body := item.Text
		if a.limits.MaxItemChars > 0 && len(body) > a.limits.MaxItemChars {
			body = cutAtRuneBoundary(body, a.limits.MaxItemChars) + truncationMarker
		}

		entry := header + body + "\n\n"
		if *total+len(entry) > a.limits.MaxTotalChars {
			remaining := a.limits.MaxTotalChars - *total - len(header) - len(truncationMarker) - 2
			if remaining < minUsefulItemChars || remaining >= len(item.Text) {
				return true
			}
			entry = header + cutAtRuneBoundary(item.Text, remaining) + truncationMarker + "\n\n"
			b.WriteString(entry)
			*total += len(entry)
			return true
		}

		b.WriteString(entry)
		*total += len(entry)
	}
	return false
}

// cutAtRuneBoundary cuts s to at most max bytes, backing off so a
// multi-byte character is never split.
func cutAtRuneBoundary(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

func ticketHeader(n int, c domain.Candidate) string {
	id := c.Metadata.TicketID
	if id == "" {
		id = c.DocumentID
	}
	header := fmt.Sprintf("[TICKET %d] ID: %s\n", n, id)
	if c.Metadata.Subject != "" {
		header += "Subject: " + c.Metadata.Subject + "\n"
	}
	if c.Metadata.Status != "" {
		header += "Status: " + c.Metadata.Status + "\n"
	}
	return header
}

func guideHeader(n int, c domain.Candidate) string {
	header := fmt.Sprintf("[GUIDE %d] %s", n, c.Metadata.GuideTitle)
	if c.Metadata.GuideNumber != "" {
		header += " (" + c.Metadata.GuideNumber + ")"
	}
	if c.Metadata.SectionHeading != "" {
		header += " - " + c.Metadata.SectionHeading
	}
	return header + "\n"
}
