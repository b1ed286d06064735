package bot

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"saave-bot/internal/quote"
	"saave-bot/internal/report"
)

const (
	defaultExportLimit = 100
	maxExportLimit     = 1000
)

func (b *Bot) handleLeadStats(ctx context.Context, chatID int64, _ string) {
	stats, err := b.store.GetLeadStatistics(ctx)
	if err != nil {
		b.logger.Error("Failed to get lead statistics", zap.Error(err))
		b.sendError(chatID, "Error al obtener las estadísticas")
		return
	}

	schemes := make([]string, 0, len(stats.BySchemes))
	for name := range stats.BySchemes {
		schemes = append(schemes, name)
	}
	sort.Strings(schemes)

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 Estadísticas de cotizaciones\n\n")
	fmt.Fprintf(&sb, "📌 Total: %d\n", stats.TotalLeads)
	fmt.Fprintf(&sb, "💰 Valor cotizado: %s\n", quote.FormatMoney(stats.TotalAmount))
	fmt.Fprintf(&sb, "📏 Área promedio: %s m²\n", quote.FormatArea(stats.AverageArea))
	fmt.Fprintf(&sb, "📅 Hoy: %d\n", stats.TodayLeads)
	fmt.Fprintf(&sb, "📅 Últimos 7 días: %d\n", stats.WeekLeads)
	fmt.Fprintf(&sb, "📅 Últimos 30 días: %d\n", stats.MonthLeads)
	if len(schemes) > 0 {
		sb.WriteString("\nPor esquema:\n")
		for _, name := range schemes {
			fmt.Fprintf(&sb, "• %s: %d\n", name, stats.BySchemes[name])
		}
	}

	b.sendText(chatID, strings.TrimRight(sb.String(), "\n"))
}

func (b *Bot) handleExportLeads(ctx context.Context, chatID int64, args string) {
	limit := defaultExportLimit
	if args = strings.TrimSpace(args); args != "" {
		n, err := strconv.Atoi(args)
		if err != nil || n <= 0 {
			b.sendError(chatID, "Uso: /export [cantidad]")
			return
		}
		limit = min(n, maxExportLimit)
	}

	leads, err := b.store.ListRecentLeads(ctx, limit)
	if err != nil {
		b.logger.Error("Failed to list leads", zap.Error(err))
		b.sendError(chatID, "Error al exportar las cotizaciones")
		return
	}

	data, err := report.LeadsWorkbook(leads)
	if err != nil {
		b.logger.Error("Failed to build leads workbook", zap.Error(err))
		b.sendError(chatID, "Error al exportar las cotizaciones")
		return
	}

	name := fmt.Sprintf("cotizaciones_%s.xlsx", time.Now().Format("20060102"))
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = fmt.Sprintf("📊 Últimas %d cotizaciones", len(leads))
	b.sendMessage(doc)
}
