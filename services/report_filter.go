package services

import (
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// likeEscaper makes % and _ in user input match literally. '!' is the
// escape character because a backslash needs quoting in MySQL literals.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// ReportFilter narrows report listings and exports.
type ReportFilter struct {
	Estado     string
	CategoryID *uint
	Codigo     string
}

// ParseReportFilter reads the raw query values. A non-numeric categoria
// is ignored rather than rejected.
func ParseReportFilter(estado, categoria, codigo string) ReportFilter {
	f := ReportFilter{
		Estado: strings.TrimSpace(estado),
		Codigo: strings.TrimSpace(codigo),
	}
	if id, err := strconv.ParseUint(strings.TrimSpace(categoria), 10, 64); err == nil {
		cat := uint(id)
		f.CategoryID = &cat
	}
	return f
}

// Apply adds the filter conditions and the default ordering to query.
func (f ReportFilter) Apply(query *gorm.DB) *gorm.DB {
	if f.Estado != "" {
		query = query.Where("estado = ?", f.Estado)
	}
	if f.CategoryID != nil {
		query = query.Where("categoria_id = ?", *f.CategoryID)
	}
	if f.Codigo != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToUpper(f.Codigo)) + "%"
		query = query.Where("UPPER(codigo_seguimiento) LIKE ? ESCAPE '!'", pattern)
	}
	return query.Order("fecha_creacion DESC").Order("id DESC")
}
