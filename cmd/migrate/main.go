// Runner de migraciones: aplica los archivos SQL de migrations/ contra la
// base configurada. Uso: go run ./cmd/migrate [up|down|goto N|status]
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/gross-ict/billing-engine/pkg/config"
	"github.com/gross-ict/billing-engine/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: "info"})

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	m, err := migrate.New("file://migrations", cfg.DB.ConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar migraciones")
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.Error().AnErr("source", srcErr).AnErr("db", dbErr).Msg("cerrar recursos de migración")
		}
	}()

	switch os.Args[1] {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal().Err(err).Msg("aplicar migraciones")
		} else if errors.Is(err, migrate.ErrNoChange) {
			log.Info().Msg("sin cambios: la base ya está al día")
		} else {
			log.Info().Msg("migraciones aplicadas")
		}

	case "down":
		if err := m.Steps(-1); err != nil {
			log.Fatal().Err(err).Msg("revertir última migración")
		}
		log.Info().Msg("última migración revertida")

	case "goto":
		if len(os.Args) < 3 {
			log.Fatal().Msg("falta el número de versión")
		}
		version, err := strconv.ParseUint(os.Args[2], 10, 64)
		if err != nil {
			log.Fatal().Err(err).Msg("versión inválida")
		}
		if err := m.Migrate(uint(version)); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal().Err(err).Uint64("version", version).Msg("migrar a versión")
		}
		log.Info().Uint64("version", version).Msg("migración a versión completada")

	case "status":
		version, dirty, err := m.Version()
		if err != nil {
			if errors.Is(err, migrate.ErrNilVersion) {
				log.Info().Msg("ninguna migración aplicada todavía")
				return
			}
			log.Fatal().Err(err).Msg("consultar versión de migración")
		}
		log.Info().Uint("version", version).Bool("dirty", dirty).Msg("estado de migraciones")

	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("uso: go run ./cmd/migrate [command]")
	fmt.Println("comandos:")
	fmt.Println("  up      - aplica todas las migraciones pendientes")
	fmt.Println("  down    - revierte la última migración")
	fmt.Println("  goto N  - migra a la versión N")
	fmt.Println("  status  - muestra la versión actual")
}
