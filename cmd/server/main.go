// Hera - Universal Entity Platform
package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aethra/hera/internal/api"
	"github.com/aethra/hera/internal/auth"
	"github.com/aethra/hera/internal/config"
	"github.com/aethra/hera/internal/database"
	"github.com/aethra/hera/internal/engine"
	"github.com/aethra/hera/internal/formspec"
	"github.com/aethra/hera/internal/logging"
	"github.com/aethra/hera/internal/metrics"
	"github.com/aethra/hera/internal/models"
	"github.com/aethra/hera/internal/preset"
)

var Version = "1.0.0"

func main() {
	if len(os.Args) > 1 {
		runCLI()
		return
	}
	startServer()
}

func startServer() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Server.Mode, os.Getenv("HERA_LOG_LEVEL"))
	if err != nil {
		log.Fatalf("Logger init failed: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting", zap.String("version", Version))

	db := connectDB(cfg, logger)
	if err := database.RunMigrations(db, logger); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	metrics.Init("hera")

	rels := engine.NewRelationshipEngine(db, logger)
	entities := engine.NewEntityEngine(db, rels, logger)
	txns := engine.NewTransactionEngine(db, logger)
	presets := preset.DefaultRegistry()
	specStore := formspec.NewDBStore(db)
	resolver := formspec.NewResolver(specStore, logger)
	jwtService := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.AccessExpiry, cfg.Auth.RefreshExpiry)

	handler := api.NewHandler(db, logger, entities, rels, txns, presets, resolver, specStore, jwtService)
	router := api.SetupRouter(handler, cfg, logger)

	logger.Info("server listening", zap.String("port", cfg.Server.Port))
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func connectDB(cfg *config.Config, logger *zap.Logger) *gorm.DB {
	db, err := database.Connect(cfg.Database.DSN(), cfg.Server.Mode != "release")
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	return db
}

// CLI
func runCLI() {
	cmd := os.Args[1]
	switch cmd {
	case "serve":
		startServer()
	case "migrate":
		db, logger := cliDeps()
		if err := database.RunMigrations(db, logger); err != nil {
			logger.Fatal("migration failed", zap.Error(err))
		}
		fmt.Println("Migrations complete")
	case "org":
		runOrgCmd()
	case "user":
		runUserCmd()
	default:
		printUsage()
	}
}

func printUsage() {
	fmt.Println(`Usage: hera <command>
Commands:
  serve                        Start server
  migrate                      Run migrations
  org list                     List organizations
  org create --code= --name=   Create organization
  org delete --code=           Delete organization
  user list --org=             List users
  user create --org= --email= --password= Create user`)
}

func cliDeps() (*gorm.DB, *zap.Logger) {
	cfg := config.Load()
	logger, err := logging.New(cfg.Server.Mode, "warn")
	if err != nil {
		log.Fatalf("Logger init failed: %v", err)
	}
	return connectDB(cfg, logger), logger
}

func runOrgCmd() {
	if len(os.Args) < 3 {
		printUsage()
		return
	}
	db, _ := cliDeps()
	switch os.Args[2] {
	case "list":
		var orgs []models.Organization
		db.Find(&orgs)
		for _, o := range orgs {
			fmt.Printf("%s  %s - %s\n", o.ID, o.Code, o.Name)
		}
	case "create":
		code, name := getFlag("--code"), getFlag("--name")
		if code == "" || name == "" {
			printUsage()
			return
		}
		org := models.Organization{Code: code, Name: name, IsActive: true}
		if err := db.Create(&org).Error; err != nil {
			log.Fatalf("Failed: %v", err)
		}
		fmt.Printf("Organization created: %s (%s)\n", code, org.ID)
	case "delete":
		code := getFlag("--code")
		if code == "" {
			printUsage()
			return
		}
		db.Where("code = ?", code).Delete(&models.Organization{})
		fmt.Printf("Organization deleted: %s\n", code)
	}
}

func runUserCmd() {
	if len(os.Args) < 3 {
		printUsage()
		return
	}
	db, _ := cliDeps()
	switch os.Args[2] {
	case "list":
		orgCode := getFlag("--org")
		if orgCode == "" {
			printUsage()
			return
		}
		var org models.Organization
		if db.Where("code = ?", orgCode).First(&org).Error != nil {
			log.Fatal("Organization not found")
		}
		var users []models.User
		db.Where("organization_id = ?", org.ID).Find(&users)
		for _, u := range users {
			fmt.Printf("%s <%s> %v\n", u.FullName, u.Email, []string(u.Roles))
		}
	case "create":
		orgCode := getFlag("--org")
		email := getFlag("--email")
		password := getFlag("--password")
		if orgCode == "" || email == "" || password == "" {
			printUsage()
			return
		}
		var org models.Organization
		if db.Where("code = ?", orgCode).First(&org).Error != nil {
			log.Fatal("Organization not found")
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			log.Fatalf("Failed: %v", err)
		}
		roles := []string{"owner"}
		if r := getFlag("--roles"); r != "" {
			roles = strings.Split(r, ",")
		}
		if err := db.Create(&models.User{
			OrganizationID: org.ID,
			Email:          email,
			PasswordHash:   hash,
			FullName:       getFlag("--name"),
			Roles:          roles,
			IsActive:       true,
		}).Error; err != nil {
			log.Fatalf("Failed: %v", err)
		}
		fmt.Printf("User created: %s\n", email)
	}
}

func getFlag(name string) string {
	prefix := name + "="
	for _, arg := range os.Args {
		if len(arg) > len(prefix) && arg[:len(prefix)] == prefix {
			return arg[len(prefix):]
		}
	}
	return ""
}
