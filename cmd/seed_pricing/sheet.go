package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
	"gopkg.in/yaml.v3"

	"github.com/jhoicas/Facturacion-envios/internal/domain/entity"
)

// ruleNamespace fija los UUID de las reglas sembradas: la misma fila genera siempre el mismo id.
var ruleNamespace = uuid.MustParse("6f1c2a4e-3b8d-4c5e-9a7f-0d2e1b3c4a5f")

// sheetRow fila de la hoja tarifaria. Service es el código del servicio (service_offerings.code).
type sheetRow struct {
	Service       string `yaml:"service"`
	Zone          string `yaml:"zone"`
	MinWeight     string `yaml:"min_weight"`
	MaxWeight     string `yaml:"max_weight"`
	RateType      string `yaml:"rate_type"`
	BaseFee       string `yaml:"base_fee"`
	PerWeightRate string `yaml:"per_weight_rate"`
	EffectiveFrom string `yaml:"effective_from"`
	EffectiveTo   string `yaml:"effective_to"`
}

type yamlSheet struct {
	Rules []sheetRow `yaml:"rules"`
}

var csvColumns = []string{
	"service", "zone", "min_weight", "max_weight", "rate_type",
	"base_fee", "per_weight_rate", "effective_from", "effective_to",
}

// readCSV lee una hoja exportada en ISO-8859-1. Con separador ';' se acepta coma decimal.
func readCSV(r io.Reader, comma rune) ([]sheetRow, error) {
	cr := csv.NewReader(transform.NewReader(r, charmap.ISO8859_1.NewDecoder()))
	cr.Comma = comma
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("leer encabezado: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range csvColumns[:5] {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("falta la columna %q", c)
		}
	}
	get := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		v := strings.TrimSpace(rec[i])
		if comma == ';' {
			v = strings.ReplaceAll(v, ",", ".")
		}
		return v
	}

	var rows []sheetRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("leer fila: %w", err)
		}
		rows = append(rows, sheetRow{
			Service:       get(rec, "service"),
			Zone:          get(rec, "zone"),
			MinWeight:     get(rec, "min_weight"),
			MaxWeight:     get(rec, "max_weight"),
			RateType:      get(rec, "rate_type"),
			BaseFee:       get(rec, "base_fee"),
			PerWeightRate: get(rec, "per_weight_rate"),
			EffectiveFrom: get(rec, "effective_from"),
			EffectiveTo:   get(rec, "effective_to"),
		})
	}
	return rows, nil
}

func readYAML(r io.Reader) ([]sheetRow, error) {
	var s yamlSheet
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decodificar YAML: %w", err)
	}
	return s.Rules, nil
}

// toRules convierte y valida las filas. Rechaza pares ambiguos dentro de la misma hoja.
func toRules(rows []sheetRow) ([]*entity.PricingRule, error) {
	rules := make([]*entity.PricingRule, 0, len(rows))
	for i, row := range rows {
		rule, err := row.toRule()
		if err != nil {
			return nil, fmt.Errorf("fila %d: %w", i+1, err)
		}
		for j, prev := range rules {
			if rule.Ambiguous(prev) {
				return nil, fmt.Errorf("fila %d: ambigua con la fila %d (mismo tramo y misma vigencia)", i+1, j+1)
			}
		}
		rules = append(rules, rule)
	}
	sort.SliceStable(rules, func(i, j int) bool {
		a, b := rules[i], rules[j]
		if a.ServiceOfferingID != b.ServiceOfferingID {
			return a.ServiceOfferingID < b.ServiceOfferingID
		}
		if a.ZoneID != b.ZoneID {
			return a.ZoneID < b.ZoneID
		}
		return a.MinWeight.LessThan(b.MinWeight)
	})
	return rules, nil
}

func (r sheetRow) toRule() (*entity.PricingRule, error) {
	minW, err := parseDecimal(r.MinWeight, "min_weight")
	if err != nil {
		return nil, err
	}
	base, err := parseDecimal(r.BaseFee, "base_fee")
	if err != nil {
		return nil, err
	}
	perKg, err := parseDecimal(r.PerWeightRate, "per_weight_rate")
	if err != nil {
		return nil, err
	}
	from, err := parseTime(r.EffectiveFrom)
	if err != nil {
		return nil, fmt.Errorf("effective_from: %w", err)
	}
	rule := &entity.PricingRule{
		ServiceOfferingID: r.Service,
		ZoneID:            r.Zone,
		MinWeight:         minW,
		RateType:          strings.ToLower(r.RateType),
		BaseFee:           base,
		PerWeightRate:     perKg,
		EffectiveFrom:     from,
		Active:            true,
	}
	if r.MaxWeight != "" {
		maxW, err := parseDecimal(r.MaxWeight, "max_weight")
		if err != nil {
			return nil, err
		}
		rule.MaxWeight = &maxW
	}
	if r.EffectiveTo != "" {
		to, err := parseTime(r.EffectiveTo)
		if err != nil {
			return nil, fmt.Errorf("effective_to: %w", err)
		}
		rule.EffectiveTo = &to
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	rule.ID = uuid.NewSHA1(ruleNamespace, []byte(strings.Join([]string{
		rule.ServiceOfferingID, rule.ZoneID, rule.MinWeight.String(), rule.EffectiveFrom.UTC().Format(time.RFC3339),
	}, "|"))).String()
	return rule, nil
}

func parseDecimal(s, field string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s inválido %q", field, s)
	}
	return d, nil
}

// parseTime acepta fecha (2006-01-02, medianoche UTC) o RFC3339.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// writeSQL emite un INSERT por regla; el servicio se resuelve por código.
func writeSQL(w io.Writer, source string, rules []*entity.PricingRule) error {
	var b strings.Builder
	b.WriteString("-- Reglas tarifarias\n")
	fmt.Fprintf(&b, "-- Generado desde %s\n\n", source)
	for _, r := range rules {
		b.WriteString("INSERT INTO pricing_rules (id, service_offering_id, zone_id, min_weight, max_weight, rate_type,\n")
		b.WriteString("    base_fee, per_weight_rate, effective_from, effective_to, active)\n")
		fmt.Fprintf(&b, "SELECT '%s', id, '%s', %s, %s, '%s', %s, %s, '%s', %s, TRUE\n",
			r.ID, escapeSQL(r.ZoneID), r.MinWeight.String(), sqlDecimal(r.MaxWeight), r.RateType,
			r.BaseFee.String(), r.PerWeightRate.String(), r.EffectiveFrom.UTC().Format(time.RFC3339), sqlTime(r.EffectiveTo))
		fmt.Fprintf(&b, "FROM service_offerings WHERE code = '%s'\n", escapeSQL(r.ServiceOfferingID))
		b.WriteString("ON CONFLICT (id) DO UPDATE SET base_fee = EXCLUDED.base_fee, per_weight_rate = EXCLUDED.per_weight_rate,\n")
		b.WriteString("    max_weight = EXCLUDED.max_weight, effective_to = EXCLUDED.effective_to, updated_at = NOW();\n\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func sqlDecimal(d *decimal.Decimal) string {
	if d == nil {
		return "NULL"
	}
	return d.String()
}

func sqlTime(t *time.Time) string {
	if t == nil {
		return "NULL"
	}
	return "'" + t.UTC().Format(time.RFC3339) + "'"
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
