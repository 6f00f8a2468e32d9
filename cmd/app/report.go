package main

import (
	"fmt"
	"strings"

	"StockInsight/internal/domain/models"
	"StockInsight/internal/domain/repository"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED")).
		Background(lipgloss.Color("#1F2937")).
		Padding(0, 1)

	boxStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#3B82F6")).
		Padding(1, 2)

	labelStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#9CA3AF")).
		Width(18)

	valueStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Bold(true)

	errorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444")).
		Bold(true)
)

func renderReport(fc *models.Forecast, iv repository.Interval) string {
	lines := []string{
		titleStyle.Render(fmt.Sprintf("%s next close (%s bars)", fc.Symbol, iv)),
		"",
		reportLine("Last Close", money(fc.LastClose)),
		reportLine("Predicted Close", money(fc.NextClose)),
		reportLine("MAE", decimal.NewFromFloat(fc.MAE).StringFixed(4)),
		reportLine("RMSE", decimal.NewFromFloat(fc.RMSE).StringFixed(4)),
		reportLine("Rows", fmt.Sprintf("%d train / %d test", fc.TrainRows, fc.TestRows)),
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func reportLine(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(value))
}

func money(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}
