// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/common-nighthawk/go-figure"
	"golang.org/x/term"
)

const (
	envDevelopment = "development"
	envProduction  = "production"
)

var methodColors = map[string]string{
	"GET":     "10",
	"POST":    "12",
	"PUT":     "11",
	"DELETE":  "9",
	"PATCH":   "13",
	"HEAD":    "14",
	"OPTIONS": "7",
	"ANY":     "245",
}

// colorWriter downsamples ANSI colors to what w supports. Production
// output is always plain.
func colorWriter(w io.Writer, environment string) *colorprofile.Writer {
	cpw := colorprofile.NewWriter(w, os.Environ())
	if environment == envProduction {
		cpw.Profile = colorprofile.NoTTY
	}

	return cpw
}

// printBanner writes the startup banner: the service name as ASCII art,
// service and observability details, and in development the route table.
func printBanner(out io.Writer, a *app) {
	s := a.settings
	w := colorWriter(out, s.Service.Environment)

	gradient := []string{"10", "11"}
	if s.Service.Environment == envDevelopment {
		gradient = []string{"12", "14", "10", "11"}
	}

	var art strings.Builder
	for _, line := range figure.NewFigure(s.Service.Name, "", false).Slicify() {
		if strings.TrimSpace(line) != "" {
			for i, r := range line {
				style := lipgloss.NewStyle().Foreground(lipgloss.Color(gradient[i%len(gradient)])).Bold(true)
				art.WriteString(style.Render(string(r)))
			}
		}
		art.WriteString("\n")
	}

	category := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Width(14).PaddingLeft(2)
	value := lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	disabled := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	addr := s.Server.Address()
	if strings.HasPrefix(addr, ":") {
		addr = "0.0.0.0" + addr
	}
	addr = "http://" + addr
	protocol := "HTTP/1.1"
	if s.Server.H2C {
		protocol = "HTTP/1.1, h2c"
	}

	var info strings.Builder
	line := func(name, v string, color string) {
		info.WriteString(label.Render(name+":") + "  " + value.Foreground(lipgloss.Color(color)).Render(v) + "\n")
	}
	off := func(name string) {
		info.WriteString(label.Render(name+":") + "  " + disabled.Render("Disabled") + "\n")
	}

	info.WriteString(category.Render("Service") + "\n")
	line("Version", s.Service.Version, "14")
	line("Environment", s.Service.Environment, "11")
	line("Address", addr, "10")
	line("Protocol", protocol, "15")
	line("Routes", fmt.Sprint(a.table.Len()), "15")

	info.WriteString("\n" + category.Render("Observability") + "\n")
	if a.metrics != nil {
		line("Metrics", addr+a.metrics.Path(), "13")
	} else {
		off("Metrics")
	}
	if a.tracer != nil {
		line("Tracing", fmt.Sprintf("sample rate %g", s.Tracing.SampleRate), "12")
	} else {
		off("Tracing")
	}
	if s.Dispatch.AccessLog {
		line("Access log", "Enabled", "10")
	} else {
		off("Access log")
	}
	if s.Dispatch.Compression {
		line("Compression", "br, gzip", "10")
	} else {
		off("Compression")
	}
	if s.Dispatch.SecurityHeaders {
		line("Security", "Headers", "10")
	} else {
		off("Security")
	}
	if rl := s.Dispatch.RateLimit; rl.Enabled {
		line("Rate limit", fmt.Sprintf("%g req/s per IP", rl.RequestsPerSecond), "11")
	} else {
		off("Rate limit")
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprint(w, art.String())
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprint(w, info.String())
	if s.Service.Environment == envDevelopment {
		_, _ = fmt.Fprintln(w)
		renderRoutes(w, out, a, 80)
	}
	_, _ = fmt.Fprintln(w)
}

// renderRoutes writes the routing table. The width grows to fit the
// content, shrinks to the terminal when out is one, and is at least 60.
func renderRoutes(w, out io.Writer, a *app, width int) {
	regs := a.table.Registrations()
	if len(regs) == 0 {
		return
	}

	colors := a.settings.Service.Environment == envDevelopment
	rows := make([][]string, 0, len(regs))
	widths := [3]int{len("Method"), len("Path"), len("Handler")}
	for _, r := range regs {
		methods := r.Descriptor.Methods().Strings()
		if len(methods) == 0 {
			methods = []string{"ANY"}
		}
		plain := strings.Join(methods, ", ")

		cell := plain
		if colors {
			styled := make([]string, len(methods))
			for i, m := range methods {
				styled[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(methodColors[m])).Bold(true).Render(m)
			}
			cell = strings.Join(styled, ", ")
		}

		handler := r.Binding.String()
		widths[0] = max(widths[0], len(plain))
		widths[1] = max(widths[1], len(r.DirectPath))
		widths[2] = max(widths[2], len(handler))
		rows = append(rows, []string{cell, r.DirectPath, handler})
	}

	// Borders and separators take 4 cells, padding 2 per column.
	tableWidth := max(4+6+widths[0]+widths[1]+widths[2], width)
	if f, ok := out.(*os.File); ok {
		if tw, _, err := term.GetSize(int(f.Fd())); err == nil && tw > 0 {
			tableWidth = min(tableWidth, tw)
		}
	}
	tableWidth = max(60, tableWidth)

	border := lipgloss.NewStyle()
	if colors {
		border = border.Foreground(lipgloss.Color("240"))
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(border).
		StyleFunc(func(row, _ int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow && colors {
				style = style.Bold(true).Foreground(lipgloss.Color("230"))
			}

			return style
		}).
		Headers("Method", "Path", "Handler").
		Rows(rows...).
		Width(tableWidth)

	_, _ = fmt.Fprintln(w, t.Render())
}
