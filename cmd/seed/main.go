package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"

	"pagecraft/internal/config"
	"pagecraft/internal/domain"
	"pagecraft/internal/domain/models"
	"pagecraft/internal/domain/repositories"
	"pagecraft/internal/repository/postgres"
	"pagecraft/internal/service"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// templateSeed mirrors one entry of the seed file: template metadata plus
// its initial element sequence.
type templateSeed struct {
	ID       string                  `yaml:"id"`
	Name     string                  `yaml:"name"`
	Settings models.DocumentSettings `yaml:"settings"`
	Elements []seedElement           `yaml:"elements"`
}

type seedElement struct {
	ID       string         `yaml:"id"`
	Type     string         `yaml:"type"`
	Content  string         `yaml:"content"`
	ParentID string         `yaml:"parent_id"`
	Styles   map[string]any `yaml:"styles"`
	Settings map[string]any `yaml:"settings"`
}

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed templates")
	seedFile := flag.String("file", "seed/templates.yaml", "Template seed file")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: cannot run --drop-tables in production environment")
	}
	if cfg.DatabaseURL == "" {
		log.Fatalf("DATABASE_URL is required for seeding")
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Create database connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Printf("Dropping tables (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
		if err := postgres.DropTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
	}

	// Run schema to ensure tables exist
	log.Println("Ensuring database schema is up to date...")
	if err := postgres.EnsureSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("Schema ready")

	if *schemaOnly {
		return
	}

	// Load template definitions
	raw, err := os.ReadFile(*seedFile)
	if err != nil {
		log.Fatalf("Failed to read seed file %s: %v", *seedFile, err)
	}
	var seeds []templateSeed
	if err := yaml.Unmarshal(raw, &seeds); err != nil {
		log.Fatalf("Failed to parse seed file: %v", err)
	}

	// Create the template store and service
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	templateStore := postgres.NewDocumentStore(repoConfig, models.KindTemplate)
	docService := service.NewDocumentService(
		map[models.DocumentKind]repositories.DocumentStore{models.KindTemplate: templateStore}, logger)

	log.Printf("Seeding %d templates (prefix: %s)", len(seeds), cfg.TablePrefix)

	for i, seed := range seeds {
		req := &service.CreateDocumentRequest{
			ID:           seed.ID,
			Name:         seed.Name,
			Settings:     &seed.Settings,
			SeedElements: convertElements(seed.Elements),
		}

		doc, err := docService.Create(ctx, models.KindTemplate, req)
		if err != nil {
			if errors.Is(err, domain.ErrConflict) {
				log.Printf("Template %d/%d already exists, skipping: %s", i+1, len(seeds), seed.Name)
				continue
			}
			log.Printf("Failed to create template '%s': %v", seed.Name, err)
			continue
		}

		log.Printf("Created template %d/%d: %s (ID: %s, elements: %d)",
			i+1, len(seeds), doc.Name, doc.ID, len(seed.Elements))
	}

	log.Println("Seeding complete")
}

// convertElements maps seed entries onto domain elements, defaulting nil
// maps so persisted payloads round-trip as {} rather than null.
func convertElements(seeds []seedElement) []models.Element {
	out := make([]models.Element, 0, len(seeds))
	for _, s := range seeds {
		el := models.Element{
			ID:       s.ID,
			Type:     s.Type,
			Content:  s.Content,
			Styles:   s.Styles,
			Settings: s.Settings,
		}
		if el.Styles == nil {
			el.Styles = map[string]any{}
		}
		if el.Settings == nil {
			el.Settings = map[string]any{}
		}
		if s.ParentID != "" {
			pid := s.ParentID
			el.ParentID = &pid
		}
		out = append(out, el)
	}
	return out
}
