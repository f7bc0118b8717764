// seed_pricing genera un script SQL para poblar pricing_rules a partir de la hoja tarifaria
// del transportista (CSV exportado en ISO-8859-1 o YAML).
//
// Uso: go run ./cmd/seed_pricing [-delim ';'] [-out ruta.sql] tarifas.csv|tarifas.yaml
// Por defecto escribe internal/infrastructure/postgres/migrations/900_seed_pricing.sql
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func main() {
	delim := flag.String("delim", ",", "separador de columnas del CSV")
	outFlag := flag.String("out", "", "ruta del script SQL de salida")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "uso: seed_pricing [-delim ';'] [-out ruta.sql] tarifas.csv|tarifas.yaml")
		os.Exit(2)
	}
	sheetPath := flag.Arg(0)
	if len([]rune(*delim)) != 1 {
		fmt.Fprintf(os.Stderr, "Separador inválido %q\n", *delim)
		os.Exit(2)
	}

	f, err := os.Open(sheetPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir hoja: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	var rows []sheetRow
	switch strings.ToLower(filepath.Ext(sheetPath)) {
	case ".yaml", ".yml":
		rows, err = readYAML(f)
	default:
		rows, err = readCSV(f, []rune(*delim)[0])
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer hoja: %v\n", err)
		os.Exit(1)
	}
	rules, err := toRules(rows)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validar hoja: %v\n", err)
		os.Exit(1)
	}

	outPath := *outFlag
	if outPath == "" {
		outPath = filepath.Join(findModuleRoot(), "internal", "infrastructure", "postgres", "migrations", "900_seed_pricing.sql")
	}
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := writeSQL(out, filepath.Base(sheetPath), rules); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d reglas\n", outPath, len(rules))
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
