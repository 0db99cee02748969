package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/wilfies/wilfies-backend/pkg/config"
)

func main() {
	var command string
	var path string

	flag.StringVar(&command, "cmd", "up", "Comando de migración (up, down, version, force)")
	flag.StringVar(&path, "path", "migrations", "Directorio con los archivos de migración")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("cargar configuración: %v", err)
	}

	m, err := migrate.New(fmt.Sprintf("file://%s", path), cfg.DB.ConnectionString())
	if err != nil {
		log.Fatalf("crear instancia de migrate: %v", err)
	}
	defer m.Close()

	switch command {
	case "up":
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("migración up: %v", err)
		}
		log.Println("migraciones up aplicadas")

	case "down":
		if err := m.Down(); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("migración down: %v", err)
		}
		log.Println("migraciones down aplicadas")

	case "version":
		version, dirty, err := m.Version()
		if err != nil && err != migrate.ErrNilVersion {
			log.Fatalf("consultar versión: %v", err)
		}
		log.Printf("versión actual: %d (dirty: %t)", version, dirty)

	case "force":
		if len(flag.Args()) < 1 {
			log.Fatal("force requiere el número de versión")
		}
		var forceVersion int
		fmt.Sscanf(flag.Arg(0), "%d", &forceVersion)
		if err := m.Force(forceVersion); err != nil {
			log.Fatalf("force: %v", err)
		}
		log.Printf("versión forzada a: %d", forceVersion)

	default:
		log.Fatalf("comando desconocido: %s (use: up, down, version, force)", command)
	}
}
