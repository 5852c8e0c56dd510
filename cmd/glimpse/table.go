package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"glimpse/internal/openrouter"
)

// renderModelTable formats catalog models for the terminal: context and
// price right-aligned, pricing shown as dollars per million tokens.
func renderModelTable(models []openrouter.Model) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"MODEL", "PROVIDER", "CONTEXT", "PROMPT $/M", "CAPABILITIES"})

	for _, m := range models {
		tw.AppendRow(table.Row{
			m.ID,
			m.Provider(),
			strconv.Itoa(int(m.ContextLength)),
			formatPricing(m.Pricing),
			formatCapabilities(m.Capabilities()),
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 5, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}

func formatPricing(p *openrouter.Pricing) string {
	if p == nil {
		return "-"
	}
	// Catalog prices are per token; dollars per million reads better.
	return strconv.FormatFloat(float64(p.Prompt)*1e6, 'f', 2, 64)
}

func formatCapabilities(caps openrouter.Capabilities) string {
	out := ""
	add := func(flag bool, name string) {
		if !flag {
			return
		}
		if out != "" {
			out += ","
		}
		out += name
	}
	add(caps.Vision, "vision")
	add(caps.Tools, "tools")
	add(caps.FunctionCalling, "functions")
	add(caps.JSONMode, "json")
	if out == "" {
		return "-"
	}
	return out
}
